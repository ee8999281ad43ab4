package persona

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveKnown(t *testing.T) {
	r, err := NewRegistry("architect")
	if err != nil {
		t.Fatal(err)
	}

	p := r.Resolve("writer")
	if p.ID != "writer" {
		t.Errorf("id = %q, want %q", p.ID, "writer")
	}
	if !p.Materialize {
		t.Error("writer should materialize files")
	}
	if !strings.Contains(p.SystemPrompt, "FILE:") {
		t.Error("writer prompt should document the file marker")
	}
}

func TestResolveUnknownFallsBack(t *testing.T) {
	r, err := NewRegistry("architect")
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"", "poet", "ARCHITECT"} {
		p := r.Resolve(id)
		if p.ID != "architect" {
			t.Errorf("Resolve(%q).ID = %q, want %q", id, p.ID, "architect")
		}
		if p.Materialize {
			t.Errorf("Resolve(%q) should not materialize", id)
		}
	}
}

func TestNewRegistryUnknownDefault(t *testing.T) {
	_, err := NewRegistry("poet")
	if err == nil {
		t.Fatal("expected error for unknown default persona")
	}
}

func TestDefault(t *testing.T) {
	r, err := NewRegistry("writer")
	if err != nil {
		t.Fatal(err)
	}
	if p := r.Default(); p.ID != "writer" || !p.Materialize {
		t.Errorf("default = %+v, want the writer persona", p)
	}
}

func TestListStableOrder(t *testing.T) {
	r, err := NewRegistry("writer")
	if err != nil {
		t.Fatal(err)
	}

	got := r.List()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "architect" || got[1].ID != "writer" {
		t.Errorf("order = [%s %s], want [architect writer]", got[0].ID, got[1].ID)
	}
}

func TestLoadOverrides(t *testing.T) {
	r, err := NewRegistry("architect")
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "personas.toml")
	writeFile(t, path, `
[personas.writer]
system_prompt = "write files, tersely"
`)

	if err := r.LoadOverrides(path); err != nil {
		t.Fatal(err)
	}

	p := r.Resolve("writer")
	if p.SystemPrompt != "write files, tersely" {
		t.Errorf("prompt = %q, want override", p.SystemPrompt)
	}
	if !p.Materialize {
		t.Error("override must not clear the materialize flag")
	}
	if r.Resolve("architect").SystemPrompt == "write files, tersely" {
		t.Error("architect prompt should be untouched")
	}
}

func TestLoadOverridesUnknownPersona(t *testing.T) {
	r, err := NewRegistry("architect")
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "personas.toml")
	writeFile(t, path, `
[personas.poet]
system_prompt = "rhyme"
`)

	if err := r.LoadOverrides(path); err == nil {
		t.Fatal("expected error for unknown persona in overrides")
	}
}

func TestLoadOverridesEmptyPrompt(t *testing.T) {
	r, err := NewRegistry("architect")
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "personas.toml")
	writeFile(t, path, `
[personas.architect]
system_prompt = "   "
`)

	if err := r.LoadOverrides(path); err == nil {
		t.Fatal("expected error for empty system_prompt")
	}
}

func TestLoadOverridesMissingFile(t *testing.T) {
	r, err := NewRegistry("architect")
	if err != nil {
		t.Fatal(err)
	}

	if err := r.LoadOverrides(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing overrides file")
	}
}
