package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rodrigogml/rfwgo/internal/openai"
)

type chatRequest struct {
	Message string `json:"message"`
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type systemRequest struct {
	Instructions string `json:"instructions"`
}

type replyResponse struct {
	Reply string `json:"reply"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "body must be {\"message\": \"...\"}")
		return
	}

	reply, err := s.client.SendUserMessage(r.Context(), req.Message)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	s.archive()
	writeJSON(w, http.StatusOK, replyResponse{Reply: reply})
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "body must be {\"prompt\": \"...\"}")
		return
	}

	reply, err := s.client.SendPrompt(r.Context(), req.Prompt)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, replyResponse{Reply: reply})
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	var req systemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Instructions == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "body must be {\"instructions\": \"...\"}")
		return
	}

	s.client.SetSystemInstructions(req.Instructions)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": s.conversationID,
		"messages":        s.client.History(),
	})
}

func (s *Server) handleListTranscripts(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "no_store", "transcript archive is not configured")
		return
	}
	list, err := s.store.ListTranscripts()
	if err != nil {
		s.logger.Error("listing transcripts", "error", err)
		writeError(w, http.StatusInternalServerError, "store_error", "could not list transcripts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transcripts": list})
}

func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "no_store", "transcript archive is not configured")
		return
	}
	id := chi.URLParam(r, "id")
	tr, err := s.store.GetTranscript(id)
	if err != nil {
		s.logger.Error("loading transcript", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "store_error", "could not load transcript")
		return
	}
	if tr == nil {
		writeError(w, http.StatusNotFound, "not_found", "no transcript with that id")
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// writeUpstreamError maps client failures onto the API surface: the
// upstream's own error code and message pass through, everything else
// becomes a bad-gateway with a stable code.
func (s *Server) writeUpstreamError(w http.ResponseWriter, err error) {
	var apiErr *openai.APIError
	switch {
	case errors.As(err, &apiErr):
		s.logger.Warn("upstream API error", "status", apiErr.Status, "code", apiErr.Code)
		writeError(w, http.StatusBadGateway, apiErr.Code, apiErr.Message)
	case errors.Is(err, openai.ErrMalformedResponse):
		s.logger.Warn("malformed upstream response")
		writeError(w, http.StatusBadGateway, "malformed_response", err.Error())
	default:
		s.logger.Warn("upstream transport failure", "error", err)
		writeError(w, http.StatusBadGateway, "upstream_unreachable", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}
