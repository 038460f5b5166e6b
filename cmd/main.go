package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vitormoschetta/go-voice-chat/internal/config"
	"github.com/vitormoschetta/go-voice-chat/internal/handler"
	"github.com/vitormoschetta/go-voice-chat/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or could not be loaded")
	}

	// Configuração obrigatória ausente encerra o processo antes de abrir a porta
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Criar servidor
	srv, err := server.NewServer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			log.Printf("Failed to close clients: %v", err)
		}
	}()

	// Criar handlers
	h := handler.NewHandler(srv)

	// Configurar rotas com os handlers
	srv.SetupRouter(h.HandleRoot, h.HandleHealth, h.HandleChat)

	// Iniciar servidor
	if err := srv.Start(ctx); err != nil {
		log.Printf("❌ %v", err)
		stop()
		os.Exit(1)
	}
}
