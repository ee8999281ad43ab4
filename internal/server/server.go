package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"scribe/internal/config"
	"scribe/internal/observability"
	"scribe/internal/session"
)

// inboundMessage is the wire form of one UI submission.
type inboundMessage struct {
	Command      string `json:"command"`
	Text         string `json:"text"`
	AgentPersona string `json:"agentPersona,omitempty"`
}

// eventsResponse carries a request's ordered event stream back to the UI.
type eventsResponse struct {
	Events []session.Event `json:"events"`
}

type Server struct {
	cfg        *config.Config
	mux        *http.ServeMux
	sessions   *session.Registry
	notifier   *Notifier
	httpServer *http.Server
	log        *observability.Logger
}

func New(cfg *config.Config, sessions *session.Registry, notifier *Notifier) *Server {
	s := &Server{
		cfg:      cfg,
		mux:      http.NewServeMux(),
		sessions: sessions,
		notifier: notifier,
		log:      observability.Component("server"),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /session/submit", s.handleSubmit)
	s.mux.HandleFunc("POST /session/dispose", s.handleDispose)
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.Handler(),
	}
	return s
}

// Handler returns the mux wrapped in the shared middleware chain.
func (s *Server) Handler() http.Handler {
	return observability.RequestIDMiddleware(observability.RecoverMiddleware("server", s.mux))
}

func (s *Server) ListenAndServe() error {
	s.log.Info(context.Background(), "scribe listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-progress requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var msg inboundMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		s.log.Warn(ctx, "submit: bad json", observability.AttrErr(err))
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if msg.Command != "" && msg.Command != "submit" {
		http.Error(w, fmt.Sprintf("unsupported command %q", msg.Command), http.StatusBadRequest)
		return
	}

	sess, reused := s.sessions.Activate(ctx)
	s.log.Debug(ctx, "session activated", "reused", reused, "persona", msg.AgentPersona)

	ch, err := sess.Submit(ctx, session.Request{Text: msg.Text, Persona: msg.AgentPersona})
	if errors.Is(err, session.ErrBusy) {
		s.respondEvents(ctx, w, http.StatusConflict, []session.Event{
			{Command: session.CommandError, Text: "a request is already in flight, wait for it to finish"},
		})
		return
	}
	if err != nil {
		// dispose can land between Activate and Submit
		s.respondEvents(ctx, w, http.StatusConflict, []session.Event{
			{Command: session.CommandError, Text: "session is gone, submit again"},
		})
		return
	}

	events := make([]session.Event, 0, 4)
	for ev := range ch {
		events = append(events, ev)
	}

	s.notifier.Publish(ctx, events)
	s.respondEvents(ctx, w, http.StatusOK, events)
}

func (s *Server) handleDispose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.sessions.Dispose(ctx)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "disposed"})
}

func (s *Server) respondEvents(ctx context.Context, w http.ResponseWriter, status int, events []session.Event) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(eventsResponse{Events: events}); err != nil {
		s.log.Warn(ctx, "submit: write response failed", observability.AttrErr(err))
	}
}
