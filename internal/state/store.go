package state

import (
	"fmt"

	"jobscout/internal/dedup"
)

// Store loads and persists the processed set. Implementations must make
// Save all-or-nothing: after a crash the next Load sees either the previous
// state or the new one, never a torn write.
type Store interface {
	Load() (*dedup.ProcessedSet, error)
	Save(set *dedup.ProcessedSet) error
	Close() error
}

// Open returns the configured backend.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "file":
		return NewFileStore(path), nil
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown state backend %q", backend)
	}
}

// CorruptError reports unreadable state. The pipeline treats it as a
// warning and continues from an empty set, trading possible duplicate
// notifications for staying alive.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("state file %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// ReadOnly wraps a store so saves are discarded. Check runs use it to show
// what would be notified without marking anything processed.
type ReadOnly struct {
	Store
}

func (r ReadOnly) Save(*dedup.ProcessedSet) error { return nil }
