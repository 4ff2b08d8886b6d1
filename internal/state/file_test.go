package state

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jobscout/internal/dedup"
	"jobscout/internal/model"
)

func testSet(t *testing.T) *dedup.ProcessedSet {
	t.Helper()
	now := time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC)
	return dedup.NewProcessedSet().Merge(now,
		model.Posting{Source: "acme", Title: "Platform Engineer", URL: "https://acme.example/jobs/1"},
		model.Posting{Source: "feeds", Title: "SRE", URL: "https://feeds.example/jobs/2"},
	)
}

func TestFileStore_LoadMissingFileReturnsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))

	set, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !set.IsEmpty() {
		t.Errorf("Len = %d, want empty set for missing file", set.Len())
	}
}

func TestFileStore_SaveThenLoadRoundTrip(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	want := testSet(t)

	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.Len() != want.Len() {
		t.Fatalf("Len = %d, want %d", got.Len(), want.Len())
	}
	wantEntries := want.Entries()
	for id, we := range wantEntries {
		ge, ok := got.Entries()[id]
		if !ok {
			t.Fatalf("identity %q missing after round trip", id)
		}
		if !ge.FirstSeen.Equal(we.FirstSeen) || ge.Title != we.Title || ge.Source != we.Source {
			t.Errorf("entry %q = %+v, want %+v", id, ge, we)
		}
	}
}

func TestFileStore_CorruptFileYieldsEmptySetAndWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`{"version": 1, "entries": {tru`), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewFileStore(path)
	set, err := s.Load()
	if err == nil {
		t.Fatal("Load: expected a corruption warning")
	}
	var corrupt *CorruptError
	if !errors.As(err, &corrupt) {
		t.Fatalf("error %v is not a *CorruptError", err)
	}
	if set == nil || !set.IsEmpty() {
		t.Error("corrupt state must still yield a usable empty set")
	}

	// The run must be able to recover by saving over the corrupt file.
	if err := s.Save(set.Merge(time.Now(), model.Posting{URL: "https://a.example/1"})); err != nil {
		t.Fatalf("Save after corruption: %v", err)
	}
	if _, err := s.Load(); err != nil {
		t.Fatalf("Load after recovery save: %v", err)
	}
}

func TestFileStore_LegacyURLArrayMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_jobs.json")
	legacy := `["https://a.example/jobs/1?utm_source=x", "https://B.example/jobs/2"]`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	set, err := NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("Len = %d, want 2", set.Len())
	}
	if !set.Contains(model.Identity("https://a.example/jobs/1")) {
		t.Error("legacy URL not canonicalized during migration")
	}
	if !set.Contains(model.Identity("https://b.example/jobs/2")) {
		t.Error("legacy URL host not lowercased during migration")
	}
}

func TestFileStore_SaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	s := NewFileStore(path)

	if err := s.Save(testSet(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(testSet(t)); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	// Only the final file may remain; temp files must never linger.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "state.json" {
			t.Errorf("unexpected leftover file %q", e.Name())
		}
	}
	if strings.Contains(path, ".tmp-") {
		t.Error("state path itself is a temp name")
	}
}

func TestFileStore_SaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "state.json")
	s := NewFileStore(path)

	if err := s.Save(testSet(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("state file missing: %v", err)
	}
}
