package materialize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"scribe/internal/observability"
)

// ErrPathEscapesRoot marks an intent whose path would resolve outside the
// workspace root. Matched with errors.Is.
var ErrPathEscapesRoot = errors.New("path escapes workspace root")

// Outcome reports one intent's application.
type Outcome struct {
	Path      string
	Succeeded bool
	Bytes     int
	Err       error
}

// Writer applies intents under a fixed workspace root. Writes are sequential
// so that a duplicated path within one response keeps its document order.
type Writer struct {
	root string
	log  *observability.Logger
}

func NewWriter(root string) (*Writer, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	return &Writer{
		root: abs,
		log:  observability.Component("materialize.writer"),
	}, nil
}

// Root returns the absolute workspace root.
func (w *Writer) Root() string {
	return w.root
}

// Apply writes each intent independently and reports one outcome per intent.
// A failed intent never stops its siblings; re-applying the same intents
// reproduces the same end state.
func (w *Writer) Apply(ctx context.Context, intents []Intent) []Outcome {
	outcomes := make([]Outcome, 0, len(intents))
	for _, intent := range intents {
		err := w.write(intent)
		if err != nil {
			w.log.Warn(ctx, "file write refused or failed", "path", intent.Path, observability.AttrErr(err))
		} else {
			w.log.Info(ctx, "file written", "path", intent.Path, "bytes", len(intent.Content))
		}
		outcome := Outcome{Path: intent.Path, Succeeded: err == nil, Err: err}
		if err == nil {
			outcome.Bytes = len(intent.Content)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (w *Writer) write(intent Intent) error {
	dest, err := w.resolve(intent.Path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create parent dirs: %w", err)
	}
	if err := os.WriteFile(dest, []byte(intent.Content), 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// resolve validates the untrusted relative path and anchors it under root.
// Absolute paths and any path that lexically leaves the root are refused.
func (w *Writer) resolve(rel string) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", fmt.Errorf("empty file path")
	}
	native := filepath.FromSlash(rel)
	if !filepath.IsLocal(native) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesRoot, rel)
	}
	return filepath.Join(w.root, native), nil
}

// Succeeded counts the outcomes that applied cleanly.
func Succeeded(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Succeeded {
			n++
		}
	}
	return n
}
