package persona

import (
	"fmt"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// Persona selects the system prompt prefixed to a user request and whether
// the response is materialized into workspace files.
type Persona struct {
	ID           string
	SystemPrompt string
	Materialize  bool
}

const architectPrompt = "You are a pragmatic software architect. Analyze the request and answer " +
	"with a clear design: the components involved, how responsibilities split between them, and " +
	"the tradeoffs of the chosen approach. Suggest file and package layouts where that helps, " +
	"but answer in prose. Do not emit complete project files."

const writerPrompt = "You are a project scaffolding agent. Produce every file the request needs, " +
	"complete and ready to save. Emit each file as one fenced code block. The first line inside " +
	"the fence must be a comment marking the file path, written in the comment syntax of the " +
	"file's language, for example:\n\n" +
	"```js\n" +
	"// FILE: src/index.js\n" +
	"console.log(\"ready\");\n" +
	"```\n\n" +
	"or `# FILE: tools/build.py` for Python. Paths are relative to the project root. Everything " +
	"between the marker line and the closing fence is saved verbatim as the file's content. " +
	"Files you do not mention are left untouched. Never use placeholders or elide content."

// Registry is the closed set of agent personas. Prompt text can be overridden
// from a TOML file; the set itself and the materialize flags are fixed.
type Registry struct {
	mu        sync.RWMutex
	personas  map[string]Persona
	order     []string
	defaultID string
}

func NewRegistry(defaultID string) (*Registry, error) {
	r := &Registry{
		personas: map[string]Persona{
			"architect": {ID: "architect", SystemPrompt: architectPrompt},
			"writer":    {ID: "writer", SystemPrompt: writerPrompt, Materialize: true},
		},
		order: []string{"architect", "writer"},
	}
	if _, ok := r.personas[defaultID]; !ok {
		return nil, fmt.Errorf("unknown default persona %q", defaultID)
	}
	r.defaultID = defaultID
	return r, nil
}

// Resolve returns the persona for id. An unknown or empty id resolves to the
// default persona; requests never fail on persona lookup.
func (r *Registry) Resolve(id string) Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.personas[id]; ok {
		return p
	}
	return r.personas[r.defaultID]
}

// Default returns the fallback persona.
func (r *Registry) Default() Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.personas[r.defaultID]
}

// List returns all personas in stable order.
func (r *Registry) List() []Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Persona, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.personas[id])
	}
	return out
}

type overrideFile struct {
	Personas map[string]promptOverride `toml:"personas"`
}

type promptOverride struct {
	SystemPrompt string `toml:"system_prompt"`
}

// LoadOverrides replaces prompt text from a TOML file. Only personas in the
// closed set may be overridden; the materialize flags never change.
func (r *Registry) LoadOverrides(path string) error {
	var f overrideFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return fmt.Errorf("parse persona overrides: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, ov := range f.Personas {
		p, ok := r.personas[id]
		if !ok {
			return fmt.Errorf("persona overrides: unknown persona %q", id)
		}
		if strings.TrimSpace(ov.SystemPrompt) == "" {
			return fmt.Errorf("persona overrides: %q has empty system_prompt", id)
		}
		p.SystemPrompt = ov.SystemPrompt
		r.personas[id] = p
	}
	return nil
}
