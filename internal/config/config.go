// Package config carrega a configuração do servidor a partir do ambiente
// e, opcionalmente, de um arquivo TOML.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/vitormoschetta/go-voice-chat/internal/service"
)

// ErrMissingConfig indica que uma configuração obrigatória não foi informada.
var ErrMissingConfig = errors.New("required configuration is missing")

// ErrInvalidConfig indica um valor de configuração presente mas inválido.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	DefaultPort           = 8080
	DefaultModel          = "gemini-2.5-flash"
	DefaultLanguageCode   = "cmn-CN"
	DefaultVoiceName      = "cmn-CN-Wavenet-C"
	DefaultTimeoutSeconds = 30

	serviceAccountTokenURI = "https://oauth2.googleapis.com/token"
)

// DefaultAllowedOrigins são as origens de desenvolvimento local, sempre
// somadas às origens configuradas.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// ServerConfig contém as opções do servidor HTTP.
type ServerConfig struct {
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// GenerationConfig contém as opções da API de geração de texto.
type GenerationConfig struct {
	APIKey         string `toml:"-"`
	Model          string `toml:"model"`
	PersonaPrompt  string `toml:"persona_prompt"`
	StripMarkdown  bool   `toml:"strip_markdown"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// SpeechConfig contém as opções da API de síntese de voz.
type SpeechConfig struct {
	LanguageCode   string `toml:"language_code"`
	VoiceName      string `toml:"voice_name"`
	TimeoutSeconds int    `toml:"timeout_seconds"`

	ClientEmail string `toml:"-"`
	PrivateKey  string `toml:"-"`
}

// Config é a configuração completa do servidor.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Generation GenerationConfig `toml:"generation"`
	Speech     SpeechConfig     `toml:"speech"`
}

// Timeout devolve o limite de tempo de uma chamada de geração.
func (g GenerationConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// Timeout devolve o limite de tempo de uma chamada de síntese.
func (s SpeechConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// CredentialsJSON monta um JSON de service account aceito pelas bibliotecas do Google Cloud.
func (s SpeechConfig) CredentialsJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"type":         "service_account",
		"client_email": s.ClientEmail,
		"private_key":  s.PrivateKey,
		"token_uri":    serviceAccountTokenURI,
	})
}

// requestTimeoutMargin cobre decodificação, log e escrita da resposta.
const requestTimeoutMargin = 10 * time.Second

// RequestTimeout limita uma requisição inteira: as duas chamadas externas em
// sequência mais uma margem, para que o pipeline expire antes do roteador.
func (c *Config) RequestTimeout() time.Duration {
	return c.Generation.Timeout() + c.Speech.Timeout() + requestTimeoutMargin
}

// Addr devolve o endereço de escuta do servidor.
func (s ServerConfig) Addr() string {
	return ":" + strconv.Itoa(s.Port)
}

// Load lê o arquivo apontado por CHAT_CONFIG_FILE (se houver), aplica as
// variáveis de ambiente por cima e valida o resultado.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := defaults()

	if path := getenv("CHAT_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := Decode(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}

	cfg.Server.AllowedOrigins = mergeOrigins(cfg.Server.AllowedOrigins, DefaultAllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Decode aplica o conteúdo TOML sobre cfg.
func Decode(data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           DefaultPort,
			AllowedOrigins: append([]string(nil), DefaultAllowedOrigins...),
		},
		Generation: GenerationConfig{
			Model:          DefaultModel,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Speech: SpeechConfig{
			LanguageCode:   DefaultLanguageCode,
			VoiceName:      DefaultVoiceName,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
	}
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	cfg.Generation.APIKey = firstNonEmpty(getenv("GEMINI_API_KEY"), getenv("GOOGLE_API_KEY"))

	if v := getenv("GEMINI_MODEL"); v != "" {
		cfg.Generation.Model = v
	}
	if v := getenv("PERSONA_PROMPT"); v != "" {
		cfg.Generation.PersonaPrompt = v
	}
	if v := getenv("STRIP_MARKDOWN"); v != "" {
		strip, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: STRIP_MARKDOWN=%q", ErrInvalidConfig, v)
		}
		cfg.Generation.StripMarkdown = strip
	}
	if v := getenv("TTS_LANGUAGE_CODE"); v != "" {
		cfg.Speech.LanguageCode = v
	}
	if v := getenv("TTS_VOICE_NAME"); v != "" {
		cfg.Speech.VoiceName = v
	}
	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT=%q", ErrInvalidConfig, v)
		}
		cfg.Server.Port = port
	}

	email, key, err := credentials(getenv)
	if err != nil {
		return err
	}
	cfg.Speech.ClientEmail = email
	cfg.Speech.PrivateKey = key

	return nil
}

// credentials aceita o JSON completo da service account ou os campos separados.
func credentials(getenv func(string) string) (string, string, error) {
	email := getenv("GOOGLE_CLIENT_EMAIL")
	key := getenv("GOOGLE_PRIVATE_KEY")

	if raw := getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"); raw != "" {
		var account struct {
			ClientEmail string `json:"client_email"`
			PrivateKey  string `json:"private_key"`
		}
		if err := json.Unmarshal([]byte(raw), &account); err != nil {
			return "", "", fmt.Errorf("%w: GOOGLE_APPLICATION_CREDENTIALS_JSON is not valid JSON: %v", ErrInvalidConfig, err)
		}
		email = firstNonEmpty(account.ClientEmail, email)
		key = firstNonEmpty(account.PrivateKey, key)
	}

	// Chaves vindas de painéis de deploy costumam chegar com "\n" literal.
	key = strings.ReplaceAll(key, `\n`, "\n")

	return email, key, nil
}

// Validate verifica as configurações obrigatórias.
func (c *Config) Validate() error {
	if c.Generation.APIKey == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrMissingConfig)
	}
	if c.Speech.ClientEmail == "" {
		return fmt.Errorf("%w: synthesis client_email is not set", ErrMissingConfig)
	}
	if c.Speech.PrivateKey == "" {
		return fmt.Errorf("%w: synthesis private_key is not set", ErrMissingConfig)
	}
	if c.Generation.Model == "" {
		return fmt.Errorf("%w: generation model is empty", ErrInvalidConfig)
	}
	if c.Speech.LanguageCode == "" || c.Speech.VoiceName == "" {
		return fmt.Errorf("%w: speech voice is empty", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("%w: no allowed origins", ErrInvalidConfig)
	}
	if c.Generation.TimeoutSeconds <= 0 || c.Speech.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	if _, err := service.NewPromptBuilder(c.Generation.PersonaPrompt); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// mergeOrigins acrescenta extra a origins, sem duplicar.
func mergeOrigins(origins, extra []string) []string {
	seen := make(map[string]bool, len(origins)+len(extra))
	out := make([]string, 0, len(origins)+len(extra))
	for _, o := range append(append([]string(nil), origins...), extra...) {
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	return out
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
