package friend

import (
	"sort"

	"github.com/opd-ai/steamsync/steam"
)

// Store owns the records of one session, keyed by identity. It does no
// locking: a session only touches it from its serialized loop.
type Store struct {
	records map[steam.ID]*Record
	nextGen uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{records: make(map[steam.ID]*Record)}
}

// Get returns the record for id, if any.
func (s *Store) Get(id steam.ID) (*Record, bool) {
	r, ok := s.records[id]
	return r, ok
}

// GetOrCreate returns the record for id, creating a default one when absent.
// The second result reports whether the record was created.
func (s *Store) GetOrCreate(id steam.ID) (*Record, bool) {
	if r, ok := s.records[id]; ok {
		return r, false
	}
	s.nextGen++
	r := New(id)
	r.Generation = s.nextGen
	s.records[id] = r
	return r, true
}

// Generations returns the generation of every id that has a record.
func (s *Store) Generations(ids []steam.ID) map[steam.ID]uint64 {
	out := make(map[steam.ID]uint64, len(ids))
	for _, id := range ids {
		if r, ok := s.records[id]; ok {
			out[id] = r.Generation
		}
	}
	return out
}

// Current returns the record for id only if it is still the one of
// generation gen.
func (s *Store) Current(id steam.ID, gen uint64) (*Record, bool) {
	r, ok := s.records[id]
	if !ok || r.Generation != gen {
		return nil, false
	}
	return r, true
}

// Remove deletes the record for id and reports whether it existed.
func (s *Store) Remove(id steam.ID) bool {
	if _, ok := s.records[id]; !ok {
		return false
	}
	delete(s.records, id)
	return true
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// All returns the records ordered by identity.
func (s *Store) All() []*Record {
	out := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
