package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vitormoschetta/go-voice-chat/internal/config"
	"github.com/vitormoschetta/go-voice-chat/internal/service"
)

// Server representa o servidor HTTP com todas as dependências
type Server struct {
	Config *config.Config
	Chat   *service.ChatService
	Router chi.Router

	closers []io.Closer
}

// NewServer cria os clientes de geração e síntese e monta o contexto da aplicação
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	generator, err := service.NewGeminiGenerator(ctx, cfg.Generation.Model, cfg.Generation.APIKey)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Generation model ready: %s", cfg.Generation.Model)

	credentials, err := cfg.Speech.CredentialsJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode speech credentials: %w", err)
	}

	synthesizer, err := service.NewCloudSynthesizer(ctx, credentials, service.Voice{
		LanguageCode: cfg.Speech.LanguageCode,
		Name:         cfg.Speech.VoiceName,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Text-to-speech client ready: %s (%s)", cfg.Speech.VoiceName, cfg.Speech.LanguageCode)

	prompt, err := service.NewPromptBuilder(cfg.Generation.PersonaPrompt)
	if err != nil {
		synthesizer.Close()
		return nil, err
	}

	chat := service.NewChatService(generator, synthesizer, service.ChatOptions{
		Prompt:            prompt,
		StripMarkdown:     cfg.Generation.StripMarkdown,
		GenerationTimeout: cfg.Generation.Timeout(),
		SynthesisTimeout:  cfg.Speech.Timeout(),
	})

	return New(cfg, chat, synthesizer), nil
}

// New monta o servidor com um ChatService já construído
func New(cfg *config.Config, chat *service.ChatService, closers ...io.Closer) *Server {
	return &Server{
		Config:  cfg,
		Chat:    chat,
		closers: closers,
	}
}

// SetupRouter configura as rotas e middlewares do Chi
func (s *Server) SetupRouter(
	handleRoot func(http.ResponseWriter, *http.Request),
	handleHealth func(http.ResponseWriter, *http.Request),
	handleChat func(http.ResponseWriter, *http.Request),
) {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(s.Config.Server.AllowedOrigins))
	r.Use(middleware.Timeout(s.Config.RequestTimeout()))

	// Rotas
	r.Get("/", handleRoot)
	r.Get("/health", handleHealth)

	// API Routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", handleChat)
	})

	s.Router = r
}

// corsHandler responde aos preflights em qualquer rota antes do roteamento
func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	})
}

// Start inicia o servidor HTTP e bloqueia até o contexto ser cancelado
func (s *Server) Start(ctx context.Context) error {
	addr := s.Config.Server.Addr()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.Config.RequestTimeout() + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Println("╔════════════════════════════════════════════════════╗")
		log.Println("║   Voice Chat Proxy (Gemini + Text-to-Speech)       ║")
		log.Println("╚════════════════════════════════════════════════════╝")
		log.Println("")
		log.Printf("🚀 Servidor HTTP iniciado em %s", addr)
		log.Printf("🌐 Allowed origins: %v", s.Config.Server.AllowedOrigins)
		log.Println("")
		log.Println("📌 Endpoints disponíveis:")
		log.Println("   • Info:      / (GET)")
		log.Println("   • Health:    /health (GET)")
		log.Println("   • Chat API:  /api/chat (POST)")
		log.Println("")
		log.Println("💡 Exemplo de uso com curl:")
		log.Printf(`   curl -X POST http://localhost%s/api/chat \`, addr)
		log.Println(`        -H "Content-Type: application/json" \`)
		log.Println(`        -d '{"text":"你好"}'`)
		log.Println("")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Aguardar sinal de interrupção ou falha do listener
	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("🛑 Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Println("✅ Server stopped gracefully")
	return nil
}

// Close libera os clientes das APIs externas
func (s *Server) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
