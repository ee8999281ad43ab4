package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"scribe/internal/persona"
	"scribe/internal/transcript"
)

type transcriptRow struct {
	CreatedAt    string `json:"created_at"`
	Persona      string `json:"persona"`
	UserText     string `json:"user_text"`
	ErrorKind    string `json:"error_kind,omitempty"`
	FilesWritten int32  `json:"files_written"`
	FilesFailed  int32  `json:"files_failed"`
}

func main() {
	dataDir := flag.String("data-dir", "data", "scribe data dir")
	personaFile := flag.String("persona-file", "", "TOML file with persona prompt overrides")
	defaultPersona := flag.String("default-persona", "architect", "default persona id")
	n := flag.Int("n", 10, "number of transcript entries to show")
	jsonOut := flag.Bool("json", false, "print results as JSON")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(2)
	}

	switch args[0] {
	case "personas":
		runPersonas(*defaultPersona, *personaFile)
	case "transcript":
		if len(args) < 2 {
			printUsage()
			os.Exit(2)
		}
		store, err := transcript.NewStore(filepath.Join(*dataDir, "transcript"))
		if err != nil {
			log.Fatalf("open transcript store: %v", err)
		}
		switch args[1] {
		case "count":
			count, err := store.Count()
			if err != nil {
				log.Fatalf("count transcript entries: %v", err)
			}
			fmt.Println(count)
		case "tail":
			runTail(store, *n, *jsonOut)
		case "compact":
			if err := store.Compact(); err != nil {
				log.Fatalf("compact transcript: %v", err)
			}
			fmt.Println("transcript compacted")
		default:
			printUsage()
			os.Exit(2)
		}
	default:
		printUsage()
		os.Exit(2)
	}
}

func runPersonas(defaultID, overridePath string) {
	reg, err := persona.NewRegistry(defaultID)
	if err != nil {
		log.Fatalf("personas: %v", err)
	}
	if overridePath != "" {
		if err := reg.LoadOverrides(overridePath); err != nil {
			log.Fatalf("load persona overrides: %v", err)
		}
	}
	def := reg.Default()
	for _, p := range reg.List() {
		mode := "advisor"
		if p.Materialize {
			mode = "materializes files"
		}
		marker := ""
		if p.ID == def.ID {
			marker = " (default)"
		}
		fmt.Printf("%s%s: %s, prompt %d chars\n", p.ID, marker, mode, len(p.SystemPrompt))
	}
}

func runTail(store *transcript.Store, n int, jsonOut bool) {
	entries, err := store.Tail(n)
	if err != nil {
		log.Fatalf("read transcript: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("no transcript entries")
		return
	}

	if jsonOut {
		rows := make([]transcriptRow, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, transcriptRow{
				CreatedAt:    time.UnixMilli(e.CreatedAt).Format(time.RFC3339),
				Persona:      e.Persona,
				UserText:     e.UserText,
				ErrorKind:    e.ErrorKind,
				FilesWritten: e.FilesWritten,
				FilesFailed:  e.FilesFailed,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			log.Fatalf("json encode failed: %v", err)
		}
		return
	}

	for _, e := range entries {
		ts := time.UnixMilli(e.CreatedAt).Format("2006-01-02 15:04:05")
		status := fmt.Sprintf("%d file(s)", e.FilesWritten)
		if e.ErrorKind != "" {
			status = "error: " + e.ErrorKind
		}
		fmt.Printf("[%s] %s: %s · %s\n", ts, e.Persona, truncate(e.UserText, 60), status)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func printUsage() {
	fmt.Println("usage:")
	fmt.Println("  scribe-admin [-default-persona id] [-persona-file file.toml] personas")
	fmt.Println("  scribe-admin [-data-dir data] transcript count")
	fmt.Println("  scribe-admin [-data-dir data] [-n 10] [-json] transcript tail")
	fmt.Println("  scribe-admin [-data-dir data] transcript compact")
}
