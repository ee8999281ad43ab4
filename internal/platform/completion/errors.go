package completion

import "fmt"

// ErrorKind tells the caller how to react: re-authenticate, surface the
// server's message, or treat the failure as connectivity trouble.
type ErrorKind string

const (
	KindAuth    ErrorKind = "auth"
	KindRemote  ErrorKind = "remote"
	KindNetwork ErrorKind = "network"
)

// Error is the single failure type of the transport client. Callers branch on
// Kind via errors.As; Status is the HTTP status when the remote answered.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("completion: %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("completion: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}
