// Package api exposes the single inbound operation: submit a message for a
// user identifier, receive a reply.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	orchestratorx "github.com/hampiwasi/intake/agent/agents/orchestrator"
)

// ChatService is the conversation entry point the handlers delegate to.
type ChatService interface {
	HandleMessage(ctx context.Context, userID string, text string) (string, error)
}

type chatRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"mensaje"`
}

type chatResponse struct {
	Reply string `json:"respuesta"`
}

type Handler struct {
	svc ChatService
}

func NewHandler(svc ChatService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	reply, err := h.svc.HandleMessage(r.Context(), req.UserID, req.Text)
	if err != nil {
		if errors.Is(err, orchestratorx.ErrInvalidUser) || errors.Is(err, orchestratorx.ErrInvalidMessage) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Str("user_id", req.UserID).Msg("turn processing failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(chatResponse{Reply: reply})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// NewRouter wires the chat handler behind the standard middleware stack.
func NewRouter(svc ChatService) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors)

	r.Post("/chat", h.Chat)
	r.Get("/healthz", h.Health)
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Authorization")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
