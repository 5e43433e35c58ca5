// Package server exposes a small HTTP API over a single chat client.
// The client serializes exchanges on its own mutex, so concurrent
// HTTP callers block until the in-flight exchange resolves — the API
// deliberately offers no parallelism the client cannot give.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/rodrigogml/rfwgo/internal/openai"
	"github.com/rodrigogml/rfwgo/internal/store"
)

type Server struct {
	client *openai.Client
	store  store.Store
	model  string
	logger *slog.Logger

	// conversationID keys the archived transcript of this server's
	// conversation; one server instance holds one conversation.
	conversationID string
}

func New(client *openai.Client, st store.Store, model string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		client:         client,
		store:          st,
		model:          model,
		logger:         logger,
		conversationID: uuid.NewString(),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Post("/v1/chat", s.handleChat)
	r.Post("/v1/prompt", s.handlePrompt)
	r.Put("/v1/system", s.handleSystem)
	r.Get("/v1/history", s.handleHistory)

	r.Get("/v1/transcripts", s.handleListTranscripts)
	r.Get("/v1/transcripts/{id}", s.handleGetTranscript)

	return r
}

// archive stores the current conversation snapshot. Failures are
// logged, never surfaced: archiving must not fail a chat exchange.
func (s *Server) archive() {
	if s.store == nil {
		return
	}
	tr := store.Transcript{
		ID:       s.conversationID,
		Model:    s.model,
		Messages: s.client.History(),
		SavedAt:  time.Now().UTC(),
	}
	if err := s.store.SaveTranscript(tr); err != nil {
		s.logger.Error("archiving transcript", "id", s.conversationID, "error", err)
	}
}
