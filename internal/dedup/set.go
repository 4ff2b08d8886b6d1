package dedup

import (
	"sort"
	"time"

	"jobscout/internal/model"
)

// Entry records what is known about a processed posting. Only enough to
// prune by age and render state listings survives; postings themselves are
// rebuilt from source content every run.
type Entry struct {
	FirstSeen time.Time
	Title     string
	Source    string
}

// Item pairs an identity with its entry for listings.
type Item struct {
	ID    model.Identity
	Entry Entry
}

// ProcessedSet is the set of posting identities handled by previous runs.
// Mutating operations return a new set and leave the receiver untouched, so
// a failed persist can never leave a half-merged state behind.
type ProcessedSet struct {
	entries map[model.Identity]Entry
}

// NewProcessedSet returns an empty set.
func NewProcessedSet() *ProcessedSet {
	return &ProcessedSet{entries: make(map[model.Identity]Entry)}
}

// FromEntries builds a set from loaded state.
func FromEntries(entries map[model.Identity]Entry) *ProcessedSet {
	m := make(map[model.Identity]Entry, len(entries))
	for id, e := range entries {
		m[id] = e
	}
	return &ProcessedSet{entries: m}
}

// Contains reports whether id has been processed before.
func (s *ProcessedSet) Contains(id model.Identity) bool {
	_, ok := s.entries[id]
	return ok
}

// Len returns the number of processed identities.
func (s *ProcessedSet) Len() int {
	return len(s.entries)
}

// IsEmpty reports whether the set holds no identities at all, which is how
// a first run (or a reset state file) announces itself.
func (s *ProcessedSet) IsEmpty() bool {
	return len(s.entries) == 0
}

// Entries returns a copy of the underlying entries, for persistence.
func (s *ProcessedSet) Entries() map[model.Identity]Entry {
	out := make(map[model.Identity]Entry, len(s.entries))
	for id, e := range s.entries {
		out[id] = e
	}
	return out
}

// Merge returns a new set containing every existing identity plus one entry
// per posting, stamped with now. Existing entries keep their FirstSeen.
func (s *ProcessedSet) Merge(now time.Time, postings ...model.Posting) *ProcessedSet {
	merged := make(map[model.Identity]Entry, len(s.entries)+len(postings))
	for id, e := range s.entries {
		merged[id] = e
	}
	for _, p := range postings {
		id := Identity(p)
		if _, ok := merged[id]; ok {
			continue
		}
		merged[id] = Entry{FirstSeen: now, Title: p.Title, Source: p.Source}
	}
	return &ProcessedSet{entries: merged}
}

// Prune returns a new set without entries first seen before cutoff, plus
// the number removed. Anything pruned may be notified again if it is still
// live upstream, which is why pruning only runs as an explicit command.
func (s *ProcessedSet) Prune(cutoff time.Time) (*ProcessedSet, int) {
	kept := make(map[model.Identity]Entry, len(s.entries))
	removed := 0
	for id, e := range s.entries {
		if e.FirstSeen.Before(cutoff) {
			removed++
			continue
		}
		kept[id] = e
	}
	return &ProcessedSet{entries: kept}, removed
}

// Items returns all entries ordered newest first, ties broken by identity.
func (s *ProcessedSet) Items() []Item {
	items := make([]Item, 0, len(s.entries))
	for id, e := range s.entries {
		items = append(items, Item{ID: id, Entry: e})
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Entry.FirstSeen.Equal(items[j].Entry.FirstSeen) {
			return items[i].Entry.FirstSeen.After(items[j].Entry.FirstSeen)
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// Partition splits candidates into postings never seen before and a count
// of already-processed ones. Within one run the first occurrence of an
// identity wins and later duplicates count as seen, so overlapping sources
// produce a single notification.
func Partition(candidates []model.Posting, set *ProcessedSet) (fresh []model.Posting, seen int) {
	inRun := make(map[model.Identity]bool, len(candidates))
	for _, p := range candidates {
		id := Identity(p)
		if set.Contains(id) || inRun[id] {
			seen++
			continue
		}
		inRun[id] = true
		fresh = append(fresh, p)
	}
	return fresh, seen
}
