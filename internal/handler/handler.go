package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/vitormoschetta/go-voice-chat/internal/model"
	"github.com/vitormoschetta/go-voice-chat/internal/server"
	"github.com/vitormoschetta/go-voice-chat/internal/service"
)

const (
	msgRunning      = "API server is running and ready to receive requests."
	msgInvalidJSON  = "Invalid JSON format."
	msgTooLarge     = "Request body too large."
	msgNoText       = "No text provided."
	msgServerFailed = "An error occurred on the server."

	// maxBodyBytes limita o corpo do POST /api/chat.
	maxBodyBytes = 64 << 10
)

// Handler contém as dependências necessárias para os handlers HTTP
type Handler struct {
	server *server.Server
}

// NewHandler cria uma nova instância do Handler
func NewHandler(srv *server.Server) *Handler {
	return &Handler{
		server: srv,
	}
}

// HandleRoot responde que o processo está no ar
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(msgRunning)); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

// HandleHealth retorna o status de saúde do servidor
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleChat gera a resposta do assistente e devolve texto e áudio em JSON
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	defer r.Body.Close()

	var req model.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Printf("[%s] Request body over %d bytes", reqID, tooLarge.Limit)
			http.Error(w, msgTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		log.Printf("[%s] Error parsing JSON: %v", reqID, err)
		http.Error(w, msgInvalidJSON, http.StatusBadRequest)
		return
	}

	log.Printf("[%s] Processing chat message (%d bytes)", reqID, len(req.Text))

	result, err := h.server.Chat.Reply(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			http.Error(w, msgNoText, http.StatusBadRequest)
			return
		}
		log.Printf("[%s] Error in /api/chat: %v", reqID, err)
		http.Error(w, msgServerFailed, http.StatusInternalServerError)
		return
	}

	log.Printf("[%s] Reply ready: %d chars, %d audio bytes", reqID, len([]rune(result.Text)), len(result.Audio))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(model.ChatResponse{
		Text:  result.Text,
		Audio: result.Audio,
	}); err != nil {
		log.Printf("[%s] Failed to write response: %v", reqID, err)
	}
}
