package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jobscout/internal/dedup"
	"jobscout/internal/model"
)

const fileVersion = 1

// fileDoc is the on-disk layout of the processed set.
type fileDoc struct {
	Version   int                  `json:"version"`
	UpdatedAt time.Time            `json:"updated_at"`
	Entries   map[string]fileEntry `json:"entries"`
}

type fileEntry struct {
	FirstSeen time.Time `json:"first_seen"`
	Title     string    `json:"title,omitempty"`
	Source    string    `json:"source,omitempty"`
}

// FileStore persists the processed set as a single JSON document, replaced
// atomically on save.
type FileStore struct {
	path string
}

// NewFileStore returns a store writing to path. The file is created on the
// first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the processed set. A missing file is a first run and yields an
// empty set. Unreadable content also yields a usable empty set, alongside a
// *CorruptError the caller should log and carry on from. Files written by
// the predecessor script (a bare JSON array of URLs) still load; their
// first-seen time is the moment of migration.
func (s *FileStore) Load() (*dedup.ProcessedSet, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return dedup.NewProcessedSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err == nil && (doc.Version > 0 || doc.Entries != nil) {
		entries := make(map[model.Identity]dedup.Entry, len(doc.Entries))
		for id, e := range doc.Entries {
			entries[model.Identity(id)] = dedup.Entry{FirstSeen: e.FirstSeen, Title: e.Title, Source: e.Source}
		}
		return dedup.FromEntries(entries), nil
	}

	// Legacy layout: a bare array of URL strings.
	var urls []string
	if err := json.Unmarshal(data, &urls); err == nil {
		now := time.Now().UTC()
		entries := make(map[model.Identity]dedup.Entry, len(urls))
		for _, u := range urls {
			entries[model.Identity(dedup.CanonicalURL(u))] = dedup.Entry{FirstSeen: now}
		}
		return dedup.FromEntries(entries), nil
	}

	return dedup.NewProcessedSet(), &CorruptError{Path: s.path, Err: errors.New("neither a state document nor a URL list")}
}

// Save writes the set to a temp file in the state directory, fsyncs, then
// renames it over the target. A crash mid-save leaves the previous file
// intact for the next run.
func (s *FileStore) Save(set *dedup.ProcessedSet) error {
	entries := set.Entries()
	doc := fileDoc{
		Version:   fileVersion,
		UpdatedAt: time.Now().UTC(),
		Entries:   make(map[string]fileEntry, len(entries)),
	}
	for id, e := range entries {
		doc.Entries[string(id)] = fileEntry{FirstSeen: e.FirstSeen, Title: e.Title, Source: e.Source}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// Close is a no-op; the file is only held open during Load and Save.
func (s *FileStore) Close() error { return nil }
