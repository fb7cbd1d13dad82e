// Package server exposes the triage pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/supportops/triage-pipeline/agent/agents/pipeline"
	statex "github.com/supportops/triage-pipeline/agent/state"
)

// Pipeline is the slice of the triage service the HTTP layer needs.
type Pipeline interface {
	HandleRequest(ctx context.Context, text string, customerID *int64) (statex.Conversation, error)
}

type Handler struct {
	pipeline Pipeline
}

func NewHandler(p Pipeline) *Handler {
	return &Handler{pipeline: p}
}

type supportRequest struct {
	Message    string `json:"message"`
	CustomerID *int64 `json:"customer_id,omitempty"`
}

type supportResponse struct {
	Response   string           `json:"response"`
	Intent     string           `json:"intent"`
	Urgency    string           `json:"urgency"`
	Route      string           `json:"route"`
	CustomerID *int64           `json:"customer_id,omitempty"`
	Transcript []statex.Message `json:"transcript"`
}

func (h *Handler) HandleSupport(w http.ResponseWriter, r *http.Request) {
	var payload supportRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	out, err := h.pipeline.HandleRequest(r.Context(), payload.Message, payload.CustomerID)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyMessage) {
			http.Error(w, "message is required", http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Msg("triage run failed")
		http.Error(w, "processing error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, supportResponse{
		Response:   out.Response,
		Intent:     string(out.Intent),
		Urgency:    string(out.Urgency),
		Route:      string(out.Route),
		CustomerID: out.CustomerID,
		Transcript: out.Messages,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

// NewRouter builds the chi router with CORS and health endpoints around the
// support handler.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Post("/v1/support", h.HandleSupport)
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	return r
}
