package materialize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "workspace")
	w, err := NewWriter(root)
	if err != nil {
		t.Fatal(err)
	}
	return w, root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestApplyWritesFile(t *testing.T) {
	w, root := newTestWriter(t)

	outcomes := w.Apply(context.Background(), []Intent{{Path: "a/b.js", Content: "console.log(1)"}})
	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outcomes))
	}
	if !outcomes[0].Succeeded {
		t.Fatalf("outcome failed: %v", outcomes[0].Err)
	}
	if got := readFile(t, filepath.Join(root, "a", "b.js")); got != "console.log(1)" {
		t.Errorf("content = %q, want %q", got, "console.log(1)")
	}
}

func TestApplyCreatesNestedDirs(t *testing.T) {
	w, root := newTestWriter(t)

	outcomes := w.Apply(context.Background(), []Intent{{Path: "deep/er/est/file.txt", Content: "x"}})
	if !outcomes[0].Succeeded {
		t.Fatalf("outcome failed: %v", outcomes[0].Err)
	}
	if got := readFile(t, filepath.Join(root, "deep", "er", "est", "file.txt")); got != "x" {
		t.Errorf("content = %q, want %q", got, "x")
	}
}

func TestApplyOverwrites(t *testing.T) {
	w, root := newTestWriter(t)

	w.Apply(context.Background(), []Intent{{Path: "f.txt", Content: "old"}})
	outcomes := w.Apply(context.Background(), []Intent{{Path: "f.txt", Content: "new"}})
	if !outcomes[0].Succeeded {
		t.Fatalf("overwrite failed: %v", outcomes[0].Err)
	}
	if got := readFile(t, filepath.Join(root, "f.txt")); got != "new" {
		t.Errorf("content = %q, want %q", got, "new")
	}
}

func TestApplyRefusesEscapingPaths(t *testing.T) {
	w, root := newTestWriter(t)

	escapes := []string{
		"../evil.txt",
		"a/../../evil.txt",
		"/etc/scribe-evil",
		"..",
	}
	for _, path := range escapes {
		outcomes := w.Apply(context.Background(), []Intent{{Path: path, Content: "pwned"}})
		if outcomes[0].Succeeded {
			t.Errorf("path %q was written, want refusal", path)
		}
		if !errors.Is(outcomes[0].Err, ErrPathEscapesRoot) {
			t.Errorf("path %q: err = %v, want ErrPathEscapesRoot", path, outcomes[0].Err)
		}
	}

	// nothing may appear outside the root
	if _, err := os.Stat(filepath.Join(filepath.Dir(root), "evil.txt")); !os.IsNotExist(err) {
		t.Fatal("file escaped the workspace root")
	}
}

func TestApplyEmptyPath(t *testing.T) {
	w, _ := newTestWriter(t)

	outcomes := w.Apply(context.Background(), []Intent{{Path: "  ", Content: "x"}})
	if outcomes[0].Succeeded {
		t.Fatal("blank path was written, want refusal")
	}
}

func TestApplyPartialFailure(t *testing.T) {
	w, root := newTestWriter(t)

	outcomes := w.Apply(context.Background(), []Intent{
		{Path: "ok1.txt", Content: "1"},
		{Path: "../escape.txt", Content: "2"},
		{Path: "ok2.txt", Content: "3"},
	})
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	if !outcomes[0].Succeeded || outcomes[1].Succeeded || !outcomes[2].Succeeded {
		t.Errorf("outcomes = [%v %v %v], want [true false true]",
			outcomes[0].Succeeded, outcomes[1].Succeeded, outcomes[2].Succeeded)
	}
	if got := Succeeded(outcomes); got != 2 {
		t.Errorf("Succeeded = %d, want 2", got)
	}
	if got := readFile(t, filepath.Join(root, "ok2.txt")); got != "3" {
		t.Errorf("sibling after failure not written, content = %q", got)
	}
}

func TestApplyFilesystemErrorIsLocal(t *testing.T) {
	w, root := newTestWriter(t)

	// "blocker" is a file, so "blocker/child.txt" cannot create its parent dir
	w.Apply(context.Background(), []Intent{{Path: "blocker", Content: "i am a file"}})

	outcomes := w.Apply(context.Background(), []Intent{
		{Path: "blocker/child.txt", Content: "x"},
		{Path: "after.txt", Content: "still written"},
	})
	if outcomes[0].Succeeded {
		t.Error("write under a file should fail")
	}
	if errors.Is(outcomes[0].Err, ErrPathEscapesRoot) {
		t.Error("filesystem failure must not be reported as a path violation")
	}
	if !outcomes[1].Succeeded {
		t.Fatalf("sibling failed: %v", outcomes[1].Err)
	}
	if got := readFile(t, filepath.Join(root, "after.txt")); got != "still written" {
		t.Errorf("content = %q", got)
	}
}

func TestApplyIdempotent(t *testing.T) {
	w, root := newTestWriter(t)

	intents := []Intent{
		{Path: "src/main.go", Content: "package main"},
		{Path: "docs/readme.md", Content: "# hi"},
	}
	w.Apply(context.Background(), intents)
	outcomes := w.Apply(context.Background(), intents)

	for _, o := range outcomes {
		if !o.Succeeded {
			t.Fatalf("re-apply failed for %s: %v", o.Path, o.Err)
		}
	}
	if got := readFile(t, filepath.Join(root, "src", "main.go")); got != "package main" {
		t.Errorf("content = %q", got)
	}
}

func TestApplyEmptyContent(t *testing.T) {
	w, root := newTestWriter(t)

	outcomes := w.Apply(context.Background(), []Intent{{Path: "empty.txt", Content: ""}})
	if !outcomes[0].Succeeded {
		t.Fatalf("outcome failed: %v", outcomes[0].Err)
	}
	info, err := os.Stat(filepath.Join(root, "empty.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 0 {
		t.Errorf("size = %d, want 0", info.Size())
	}
}

func TestMaterializeResponseEndToEnd(t *testing.T) {
	w, root := newTestWriter(t)

	response := "intro\n```js\n// FILE: a/b.js\nconsole.log(1)\n```\n"
	outcomes := w.Apply(context.Background(), ExtractIntents(response))
	if len(outcomes) != 1 || !outcomes[0].Succeeded {
		t.Fatalf("outcomes = %+v", outcomes)
	}
	if got := readFile(t, filepath.Join(root, "a", "b.js")); got != "console.log(1)" {
		t.Errorf("content = %q, want %q", got, "console.log(1)")
	}
}

func TestMaterializeDuplicatePathLastWins(t *testing.T) {
	w, root := newTestWriter(t)

	response := "```\n// FILE: a.txt\nfirst\n```\n" +
		"```\n// FILE: a.txt\nsecond\n```\n"
	outcomes := w.Apply(context.Background(), ExtractIntents(response))
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(outcomes))
	}
	if got := readFile(t, filepath.Join(root, "a.txt")); got != "second" {
		t.Errorf("content = %q, want the later block", got)
	}
}
