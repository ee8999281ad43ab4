package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"scribe/internal/materialize"
	"scribe/internal/observability"
	"scribe/internal/persona"
	"scribe/internal/platform/completion"
	"scribe/internal/transcript"
)

var (
	// ErrBusy is returned by Submit while a previous request is still in flight.
	ErrBusy = errors.New("session: a request is already in flight")
	// ErrDisposed is returned by Submit after the session's surface is gone.
	ErrDisposed = errors.New("session: disposed")
)

// Completer is the transport dependency, satisfied by *completion.Client.
type Completer interface {
	Send(ctx context.Context, systemPrompt, userText, credential string) (string, error)
}

// Pipeline bundles the collaborators a session drives for each request.
// Transcript may be nil to disable archiving.
type Pipeline struct {
	Personas    *persona.Registry
	Credentials completion.CredentialSource
	Client      Completer
	Writer      *materialize.Writer
	Transcript  *transcript.Store
}

// Session owns one UI surface lifetime. It admits at most one request at a
// time and streams each request's events in a fixed order: one response or
// one error, then zero or more notices, then exactly one finished.
type Session struct {
	pipeline Pipeline
	log      *observability.Logger

	mu       sync.Mutex
	pending  bool
	disposed bool
	done     chan struct{}
}

func newSession(p Pipeline) *Session {
	return &Session{
		pipeline: p,
		log:      observability.Component("session"),
		done:     make(chan struct{}),
	}
}

// Submit starts one request and returns its event stream. The channel is
// closed after the terminal finished event, or early if the session is
// disposed mid-flight, in which case undelivered events are dropped.
func (s *Session) Submit(ctx context.Context, req Request) (<-chan Event, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil, ErrDisposed
	}
	if s.pending {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.pending = true
	s.mu.Unlock()

	if observability.RequestIDFromContext(ctx) == "" {
		ctx = observability.WithRequestID(ctx, uuid.NewString())
	}

	// The remote call runs to completion even if the submitting surface goes
	// away; only values such as the request id carry over.
	runCtx := context.WithoutCancel(ctx)

	events := make(chan Event)
	go s.run(runCtx, req, events)
	return events, nil
}

// Dispose marks the surface gone. An in-flight request keeps running, but its
// remaining events are dropped.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true
	close(s.done)
}

// Disposed reports whether Dispose has been called.
func (s *Session) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// InFlight reports whether a request is currently being processed.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Session) run(ctx context.Context, req Request, events chan<- Event) {
	ctx, span := observability.StartSpan(ctx, "session.request",
		attribute.String("persona", req.Persona),
	)
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error(ctx, "request pipeline panicked", "panic", fmt.Sprintf("%v", rec))
			s.deliver(events, errorEvent("internal error, request aborted"))
		}
		s.deliver(events, finishedEvent())
		close(events)
		span.End()
		s.mu.Lock()
		s.pending = false
		s.mu.Unlock()
	}()

	p := s.pipeline.Personas.Resolve(req.Persona)
	s.log.Info(ctx, "request started", "persona", p.ID, "chars", len(req.Text))

	entry := transcript.Entry{
		RequestID: observability.RequestIDFromContext(ctx),
		Persona:   p.ID,
		UserText:  req.Text,
	}

	credential, err := s.pipeline.Credentials.Credential(ctx)
	if err != nil {
		err = &completion.Error{Kind: completion.KindAuth, Message: "credential unavailable: " + err.Error()}
	}

	var text string
	if err == nil {
		text, err = s.pipeline.Client.Send(ctx, p.SystemPrompt, req.Text, credential)
	}
	if err != nil {
		kind, msg := describeFailure(err)
		entry.ErrorKind = kind
		entry.ErrorMessage = msg
		s.log.Error(ctx, "request failed", "kind", kind, observability.AttrErr(err))
		s.deliver(events, errorEvent(msg))
		s.archive(ctx, entry)
		return
	}

	s.deliver(events, responseEvent(text))
	entry.ResponseText = text

	if p.Materialize {
		intents := materialize.ExtractIntents(text)
		mctx, mspan := observability.StartSpan(ctx, "materialize.apply",
			attribute.Int("intents", len(intents)),
		)
		outcomes := s.pipeline.Writer.Apply(mctx, intents)
		mspan.End()
		for _, o := range outcomes {
			s.deliver(events, noticeEvent(outcomeNotice(o)))
		}
		written := materialize.Succeeded(outcomes)
		entry.FilesWritten = int32(written)
		entry.FilesFailed = int32(len(outcomes) - written)
	}

	s.archive(ctx, entry)
	s.log.Info(ctx, "request finished",
		"persona", p.ID,
		"files_written", entry.FilesWritten,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// deliver sends one event unless the session was disposed first.
func (s *Session) deliver(events chan<- Event, ev Event) {
	select {
	case events <- ev:
	case <-s.done:
	}
}

func (s *Session) archive(ctx context.Context, entry transcript.Entry) {
	if s.pipeline.Transcript == nil {
		return
	}
	if err := s.pipeline.Transcript.Append([]transcript.Entry{entry}); err != nil {
		s.log.Warn(ctx, "transcript append failed", observability.AttrErr(err))
	}
}

func describeFailure(err error) (kind, message string) {
	var ce *completion.Error
	if errors.As(err, &ce) {
		switch ce.Kind {
		case completion.KindAuth:
			return string(ce.Kind), "authentication failed: " + ce.Message + ". Update the API credential and try again."
		case completion.KindRemote:
			return string(ce.Kind), "the completion API rejected the request: " + ce.Message
		default:
			return string(ce.Kind), "could not reach the completion API. Check connectivity and try again."
		}
	}
	return "internal", "request failed: " + err.Error()
}

func outcomeNotice(o materialize.Outcome) string {
	if o.Succeeded {
		return fmt.Sprintf("wrote %s (%d bytes)", o.Path, o.Bytes)
	}
	return fmt.Sprintf("skipped %s: %v", o.Path, o.Err)
}
