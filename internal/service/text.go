package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"google.golang.org/genai"
)

var (
	headingPattern  = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+`)
	bulletPattern   = regexp.MustCompile(`(?m)^[ \t]*[*+-][ \t]+`)
	emphasisRemover = strings.NewReplacer("**", "", "*", "", "`", "", "~", "")

	// Ênfase com underscore só conta quando delimitada por fronteiras de palavra.
	underscoreStrong = regexp.MustCompile(`(^|[^\p{L}\p{N}_])__([^_\s](?:[^_]*[^_\s])?)__([^\p{L}\p{N}_]|$)`)
	underscoreEmph   = regexp.MustCompile(`(^|[^\p{L}\p{N}_])_([^_\s](?:[^_]*[^_\s])?)_([^\p{L}\p{N}_]|$)`)
)

// ErrPersonaDropsText indica um template de persona que não inclui {{.Text}}.
var ErrPersonaDropsText = errors.New("persona prompt does not include {{.Text}}")

// personaSentinel é renderizado uma vez na construção para validar o template.
const personaSentinel = "\x1fuser-text\x1f"

// StripMarkdown remove marcadores de ênfase e títulos que o TTS leria em voz alta.
func StripMarkdown(s string) string {
	s = headingPattern.ReplaceAllString(s, "")
	s = bulletPattern.ReplaceAllString(s, "")
	s = emphasisRemover.Replace(s)
	s = replaceUntilStable(underscoreStrong, s)
	s = replaceUntilStable(underscoreEmph, s)
	return strings.TrimSpace(s)
}

// replaceUntilStable repete a substituição porque fronteiras consumidas por um
// match impedem o match vizinho na mesma passada ("_a_ _b_").
func replaceUntilStable(re *regexp.Regexp, s string) string {
	for i := 0; i < len(s); i++ {
		next := re.ReplaceAllString(s, "${1}${2}${3}")
		if next == s {
			break
		}
		s = next
	}
	return s
}

// PromptBuilder aplica o template de persona sobre o texto do usuário.
type PromptBuilder struct {
	tmpl *template.Template
}

// NewPromptBuilder compila o template e o executa uma vez: campos desconhecidos
// ou a ausência de {{.Text}} falham aqui, não a cada requisição.
// Template vazio devolve o texto sem alterações.
func NewPromptBuilder(persona string) (*PromptBuilder, error) {
	if persona == "" {
		return &PromptBuilder{}, nil
	}
	tmpl, err := template.New("persona").Option("missingkey=error").Parse(persona)
	if err != nil {
		return nil, fmt.Errorf("failed to parse persona prompt: %w", err)
	}
	p := &PromptBuilder{tmpl: tmpl}
	out, err := p.Build(personaSentinel)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(out, personaSentinel) {
		return nil, ErrPersonaDropsText
	}
	return p, nil
}

// Build devolve o prompt final enviado à API de geração.
func (p *PromptBuilder) Build(text string) (string, error) {
	if p == nil || p.tmpl == nil {
		return text, nil
	}
	var b strings.Builder
	if err := p.tmpl.Execute(&b, struct{ Text string }{Text: text}); err != nil {
		return "", fmt.Errorf("failed to render persona prompt: %w", err)
	}
	return b.String(), nil
}

// contentText concatena as partes de texto de um conteúdo, ignorando "thoughts".
func contentText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}
