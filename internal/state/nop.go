package state

import "jobscout/internal/dedup"

// NopStore always loads an empty set and discards saves, so every posting
// appears new. Used by check runs that ignore existing state.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) Load() (*dedup.ProcessedSet, error) { return dedup.NewProcessedSet(), nil }
func (s *NopStore) Save(*dedup.ProcessedSet) error     { return nil }
func (s *NopStore) Close() error                       { return nil }
