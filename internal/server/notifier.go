package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"scribe/internal/observability"
	"scribe/internal/session"
)

// Notifier forwards each request's event batch to an optional external sink.
// Delivery is asynchronous and best effort, it never delays or fails the UI
// response. Transient sink failures (network, 429, 5xx) are retried a few
// times, anything else is dropped after the first attempt.
type Notifier struct {
	url    string
	client *http.Client
	log    *observability.Logger
}

// NewNotifier returns a notifier for the given sink URL. An empty URL yields
// a notifier whose Publish is a no-op.
func NewNotifier(url string) *Notifier {
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    observability.Component("server.notifier"),
	}
}

// Publish posts the batch to the sink in the background.
func (n *Notifier) Publish(ctx context.Context, events []session.Event) {
	if n == nil || n.url == "" || len(events) == 0 {
		return
	}
	body, err := json.Marshal(eventsResponse{Events: events})
	if err != nil {
		n.log.Warn(ctx, "event sink: marshal failed", observability.AttrErr(err))
		return
	}
	go n.deliver(context.WithoutCancel(ctx), body, len(events))
}

func (n *Notifier) deliver(ctx context.Context, body []byte, count int) {
	operation := func() (int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
		if err != nil {
			return 0, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return resp.StatusCode, fmt.Errorf("event sink: status %d", resp.StatusCode)
		case resp.StatusCode >= 300:
			return resp.StatusCode, backoff.Permanent(fmt.Errorf("event sink: status %d", resp.StatusCode))
		}
		return resp.StatusCode, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond

	status, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(3),
	)
	if err != nil {
		n.log.Warn(ctx, "event sink: delivery failed", "url", n.url, observability.AttrErr(err))
		return
	}
	n.log.Debug(ctx, "event sink: delivered", "events", count, "status", status)
}
