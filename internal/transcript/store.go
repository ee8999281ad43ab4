package transcript

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
)

// Entry is one completed request in the archive: what was asked, what came
// back (or which error), and how materialization went.
type Entry struct {
	ID           string `parquet:"id"`
	RequestID    string `parquet:"request_id"`
	Persona      string `parquet:"persona"`
	UserText     string `parquet:"user_text"`
	ResponseText string `parquet:"response_text"`
	ErrorKind    string `parquet:"error_kind"`
	ErrorMessage string `parquet:"error_message"`
	FilesWritten int32  `parquet:"files_written"`
	FilesFailed  int32  `parquet:"files_failed"`
	CreatedAt    int64  `parquet:"created_at"` // unix millis
}

// Store keeps entries in parquet files.
// Uses append-by-new-file strategy: each write creates a new chunk file.
// Periodic compaction merges chunks into a single file.
type Store struct {
	dir string
	mu  sync.RWMutex
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("transcript: create dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Append writes new entries as a new parquet chunk file.
func (s *Store) Append(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.New().String()
		}
		if entries[i].CreatedAt == 0 {
			entries[i].CreatedAt = time.Now().UnixMilli()
		}
	}

	filename := fmt.Sprintf("chunk_%d.parquet", time.Now().UnixNano())
	path := filepath.Join(s.dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("transcript: create chunk: %w", err)
	}

	w := parquet.NewGenericWriter[Entry](f)
	if _, err := w.Write(entries); err != nil {
		f.Close()
		return fmt.Errorf("transcript: write rows: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("transcript: close writer: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("transcript: sync file: %w", err)
	}
	return f.Close()
}

// ReadAll loads all entries from all chunk files, sorted by created_at ascending.
func (s *Store) ReadAll() ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks, err := s.listChunks()
	if err != nil {
		return nil, err
	}

	var all []Entry
	for _, path := range chunks {
		entries, err := s.readChunk(path)
		if err != nil {
			return nil, fmt.Errorf("transcript: read %s: %w", path, err)
		}
		all = append(all, entries...)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt < all[j].CreatedAt
	})
	return all, nil
}

// Tail returns the n most recent entries, oldest first.
func (s *Store) Tail(n int) ([]Entry, error) {
	all, err := s.ReadAll()
	if err != nil {
		return nil, err
	}
	if n <= 0 || n >= len(all) {
		return all, nil
	}
	return all[len(all)-n:], nil
}

// FilterByDate returns entries created between start and end (inclusive, unix millis).
func (s *Store) FilterByDate(startMillis, endMillis int64) ([]Entry, error) {
	all, err := s.ReadAll()
	if err != nil {
		return nil, err
	}
	var filtered []Entry
	for _, e := range all {
		if e.CreatedAt >= startMillis && e.CreatedAt <= endMillis {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// Count returns the total number of entries.
func (s *Store) Count() (int, error) {
	all, err := s.ReadAll()
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// Compact merges all chunk files into a single parquet file.
func (s *Store) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks, err := s.listChunks()
	if err != nil {
		return err
	}
	if len(chunks) <= 1 {
		return nil
	}

	var all []Entry
	for _, path := range chunks {
		entries, err := s.readChunk(path)
		if err != nil {
			return fmt.Errorf("transcript: compact read %s: %w", path, err)
		}
		all = append(all, entries...)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt < all[j].CreatedAt
	})

	compacted := filepath.Join(s.dir, "compacted.parquet.tmp")
	f, err := os.Create(compacted)
	if err != nil {
		return fmt.Errorf("transcript: create compacted: %w", err)
	}

	w := parquet.NewGenericWriter[Entry](f)
	if _, err := w.Write(all); err != nil {
		f.Close()
		os.Remove(compacted)
		return fmt.Errorf("transcript: write compacted: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(compacted)
		return fmt.Errorf("transcript: close compacted: %w", err)
	}
	f.Close()

	// remove old chunks
	for _, path := range chunks {
		os.Remove(path)
	}

	// rename compacted file
	final := filepath.Join(s.dir, fmt.Sprintf("chunk_%d.parquet", time.Now().UnixNano()))
	if err := os.Rename(compacted, final); err != nil {
		return fmt.Errorf("transcript: rename compacted: %w", err)
	}
	return nil
}

func (s *Store) listChunks() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("transcript: list dir: %w", err)
	}
	var chunks []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".parquet" {
			chunks = append(chunks, filepath.Join(s.dir, e.Name()))
		}
	}
	sort.Strings(chunks)
	return chunks, nil
}

func (s *Store) readChunk(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, err
	}

	r := parquet.NewGenericReader[Entry](pf)
	defer r.Close()

	entries := make([]Entry, r.NumRows())
	n, err := r.Read(entries)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return entries[:n], nil
}
