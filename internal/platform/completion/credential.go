package completion

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// CredentialSource produces the bearer credential for exactly one call. The
// session asks the source before every request; tokens are never cached, so a
// rotated token takes effect on the next request without a restart.
type CredentialSource interface {
	Credential(ctx context.Context) (string, error)
}

// StaticCredential hands out a fixed token.
type StaticCredential string

func (s StaticCredential) Credential(ctx context.Context) (string, error) {
	return string(s), nil
}

// FileCredential re-reads a token file on every call.
type FileCredential string

func (f FileCredential) Credential(ctx context.Context) (string, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return "", fmt.Errorf("read credential file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// NewCredentialSource picks the source for the configured credentials: a token
// file wins over a static token. An empty static token is still a valid
// source; Send reports the missing credential as an auth failure per call.
func NewCredentialSource(token, tokenFile string) CredentialSource {
	if tokenFile != "" {
		return FileCredential(tokenFile)
	}
	return StaticCredential(token)
}
