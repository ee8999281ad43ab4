package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"scribe/internal/observability"
)

const promptSeparator = "\n\n"

// Client performs single-attempt calls against the remote completion API.
// It never retries; retry policy, if any, belongs to the caller.
type Client struct {
	url        string
	httpClient *http.Client
	log        *observability.Logger
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		log:        observability.Component("completion.client"),
	}
}

type completionRequest struct {
	Prompt string `json:"prompt"`
}

type completionResponse struct {
	Value string `json:"value"`
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Send POSTs the composed prompt and returns the completion text. Every
// expected failure is an *Error whose Kind the caller can branch on.
func (c *Client) Send(ctx context.Context, systemPrompt, userText, credential string) (string, error) {
	if credential == "" {
		return "", &Error{Kind: KindAuth, Message: "missing API credential"}
	}

	payload, err := json.Marshal(completionRequest{Prompt: systemPrompt + promptSeparator + userText})
	if err != nil {
		return "", fmt.Errorf("completion: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("completion: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Message: "request failed", cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", &Error{Kind: KindAuth, Status: resp.StatusCode, Message: remoteMessage(resp.Body, "credential rejected")}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &Error{Kind: KindRemote, Status: resp.StatusCode, Message: remoteMessage(resp.Body, fmt.Sprintf("status %d", resp.StatusCode))}
	}

	var result completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &Error{Kind: KindRemote, Status: resp.StatusCode, Message: "malformed response body", cause: err}
	}

	c.log.Debug(ctx, "completion received", "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds(), "chars", len(result.Value))
	return result.Value, nil
}

// remoteMessage pulls the server-provided message out of an error body,
// falling back when the body is not the documented shape.
func remoteMessage(r io.Reader, fallback string) string {
	body, err := io.ReadAll(r)
	if err != nil || len(body) == 0 {
		return fallback
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || eb.Error.Message == "" {
		return fallback
	}
	return eb.Error.Message
}
