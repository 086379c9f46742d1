package graph

import (
	"sort"
	"sync"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
)

// Store maps codes to records for one run.
type Store struct {
	mu      sync.RWMutex
	records map[ir.Code]*ir.Record
}

func newStore(capacity int) *Store {
	return &Store{records: make(map[ir.Code]*ir.Record, capacity)}
}

// Get returns the current record for code.
func (s *Store) Get(code ir.Code) (*ir.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[code]
	return r, ok
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Codes returns every stored code, sorted.
func (s *Store) Codes() []ir.Code {
	s.mu.RLock()
	codes := make([]ir.Code, 0, len(s.records))
	for c := range s.records {
		codes = append(codes, c)
	}
	s.mu.RUnlock()
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// insert adds r unless its code is taken. Returns false on duplicates.
func (s *Store) insert(r *ir.Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.Code]; ok {
		return false
	}
	s.records[r.Code] = r
	return true
}

// swap replaces existing records with the given ones in a single write.
// Records for unknown codes are ignored; swap never adds codes.
func (s *Store) swap(recs []*ir.Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range recs {
		if _, ok := s.records[r.Code]; ok {
			s.records[r.Code] = r
			n++
		}
	}
	return n
}
