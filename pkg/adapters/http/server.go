// Package http exposes the engine as the webhook the messaging bridge calls
// for every inbound message, plus health, metrics and flow listing for the
// operator console.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/enderxdxd/botflow/pkg/domain"
	"github.com/enderxdxd/botflow/pkg/ports"
)

// Engine is the surface of the facade the server needs.
type Engine interface {
	HandleMessage(ctx context.Context, event domain.InboundEvent) (*domain.ExecutionResult, error)
	EndSession(ctx context.Context, conversationID string) error
}

// Server routes webhook traffic into the engine.
type Server struct {
	engine Engine
	flows  ports.FlowRepository
	logger *slog.Logger
}

// Option configures the handler.
type Option func(*config)

type config struct {
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithMetrics mounts /metrics over the given gatherer.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(c *config) { c.gatherer = g }
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, flows ports.FlowRepository, opts ...Option) http.Handler {
	cfg := &config{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Server{engine: engine, flows: flows, logger: cfg.logger}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Get("/flows", s.listFlows)
	r.Post("/conversations/{conversationID}/messages", s.postMessage)
	r.Delete("/conversations/{conversationID}/session", s.deleteSession)
	if cfg.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

type messageRequest struct {
	Text        string              `json:"text"`
	Attachments []domain.Attachment `json:"attachments,omitempty"`
}

// postMessage handles one inbound message for a conversation.
func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		http.Error(w, "missing conversation id", http.StatusBadRequest)
		return
	}

	var body messageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.engine.HandleMessage(r.Context(), domain.InboundEvent{
		ConversationID: conversationID,
		Text:           body.Text,
		Attachments:    body.Attachments,
	})
	if err != nil {
		s.logger.Error("handling inbound message", "conversation_id", conversationID, "error", err)
		status := http.StatusInternalServerError
		var malformed *domain.MalformedFlowError
		if errors.Is(err, domain.ErrFlowNotFound) || errors.As(err, &malformed) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, "failed to process message", status)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// deleteSession tears down a conversation's session (auto-close hook).
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if err := s.engine.EndSession(r.Context(), conversationID); err != nil {
		s.logger.Error("ending session", "conversation_id", conversationID, "error", err)
		http.Error(w, "failed to end session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type flowSummary struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Trigger domain.Trigger `json:"trigger"`
}

// listFlows returns the active flows the matcher currently considers.
func (s *Server) listFlows(w http.ResponseWriter, r *http.Request) {
	defs, err := s.flows.ActiveFlows(r.Context())
	if err != nil {
		s.logger.Error("listing flows", "error", err)
		http.Error(w, "failed to list flows", http.StatusInternalServerError)
		return
	}

	summaries := make([]flowSummary, 0, len(defs))
	for _, def := range defs {
		summaries = append(summaries, flowSummary{ID: def.ID, Name: def.Name, Trigger: def.Trigger})
	}
	s.writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}
