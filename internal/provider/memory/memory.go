// Package memory implements the contract against an in-process store. It
// is the substitute backend the compliance suite leans on and the
// reference implementation other providers are checked against.
package memory

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/nucleus/resource-core/internal/resource"
)

var (
	errCollectionMissing = errors.New("collection not found")
	errCollectionExists  = errors.New("collection already exists")
)

// Store holds named collections of rows. Every stored row carries a
// monotonic sequence bumped on insert and modification, which backs
// checkpointed reads. Rows are cloned on the way in and out.
type Store struct {
	id string

	mu          sync.Mutex
	seq         int64
	collections map[string][]storedRow
}

type storedRow struct {
	seq int64
	row resource.Row
}

// CollectionInfo describes one collection for discovery listings.
type CollectionInfo struct {
	Name string
	Rows int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		id:          uuid.NewString(),
		collections: make(map[string][]storedRow),
	}
}

// ID identifies the store instance; reconnecting a linked service yields a
// store with a different ID.
func (s *Store) ID() string { return s.id }

// Insert appends rows to the collection, creating it on first use.
func (s *Store) Insert(name string, rows []resource.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		s.seq++
		s.collections[name] = append(s.collections[name], storedRow{seq: s.seq, row: resource.CloneRow(row)})
	}
}

// UpdateMatched replaces the non-identity columns of rows matched by
// identity and bumps their sequence. Unmatched input rows are skipped; the
// matched results come back in input order.
func (s *Store) UpdateMatched(name string, rows []resource.Row, ids []string) ([]resource.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.identityIndex(name, ids)

	var matched []resource.Row
	for _, row := range rows {
		key, err := resource.IdentityKey(row, ids)
		if err != nil {
			return nil, err
		}
		pos, ok := index[key]
		if !ok {
			continue
		}
		s.seq++
		merged := resource.CloneRow(s.collections[name][pos].row)
		for col, v := range row {
			merged[col] = resource.CloneValue(v)
		}
		s.collections[name][pos] = storedRow{seq: s.seq, row: merged}
		matched = append(matched, resource.CloneRow(merged))
	}
	return matched, nil
}

// Upsert updates matched rows and inserts the rest.
func (s *Store) Upsert(name string, rows []resource.Row, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.identityIndex(name, ids)

	for _, row := range rows {
		key, err := resource.IdentityKey(row, ids)
		if err != nil {
			return err
		}
		s.seq++
		if pos, ok := index[key]; ok {
			merged := resource.CloneRow(s.collections[name][pos].row)
			for col, v := range row {
				merged[col] = resource.CloneValue(v)
			}
			s.collections[name][pos] = storedRow{seq: s.seq, row: merged}
			continue
		}
		s.collections[name] = append(s.collections[name], storedRow{seq: s.seq, row: resource.CloneRow(row)})
		index[key] = len(s.collections[name]) - 1
	}
	return nil
}

// DeleteMatched removes rows matched by identity and returns them.
// Unmatched input rows are skipped.
func (s *Store) DeleteMatched(name string, rows []resource.Row, ids []string) ([]resource.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doomed := make(map[string]bool, len(rows))
	for _, row := range rows {
		key, err := resource.IdentityKey(row, ids)
		if err != nil {
			return nil, err
		}
		doomed[key] = true
	}

	var deleted []resource.Row
	var kept []storedRow
	for _, sr := range s.collections[name] {
		key, err := resource.IdentityKey(sr.row, ids)
		if err != nil {
			kept = append(kept, sr)
			continue
		}
		if doomed[key] {
			deleted = append(deleted, resource.CloneRow(sr.row))
			continue
		}
		kept = append(kept, sr)
	}
	if _, exists := s.collections[name]; exists {
		s.collections[name] = kept
	}
	return deleted, nil
}

// ReadSince returns the rows whose sequence is above since, oldest first,
// along with the highest sequence seen. A zero since reads everything.
func (s *Store) ReadSince(name string, since int64) ([]resource.Row, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []resource.Row
	max := since
	for _, sr := range s.collections[name] {
		if sr.seq <= since {
			continue
		}
		rows = append(rows, resource.CloneRow(sr.row))
		if sr.seq > max {
			max = sr.seq
		}
	}
	return rows, max
}

// Count returns the number of rows in the collection.
func (s *Store) Count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collections[name])
}

// Purge drops the collection entirely. Purging an absent collection is a
// no-op.
func (s *Store) Purge(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
}

// Rename moves a collection to a new name. The source must exist and the
// target must not.
func (s *Store) Rename(oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok := s.collections[oldName]
	if !ok {
		return errCollectionMissing
	}
	if _, taken := s.collections[newName]; taken {
		return errCollectionExists
	}
	s.collections[newName] = rows
	delete(s.collections, oldName)
	return nil
}

// List describes all collections, sorted by name.
func (s *Store) List() []CollectionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]CollectionInfo, 0, len(s.collections))
	for name, rows := range s.collections {
		infos = append(infos, CollectionInfo{Name: name, Rows: len(rows)})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// identityIndex maps identity keys to positions in the collection. Stored
// rows lacking an identity column never match.
func (s *Store) identityIndex(name string, ids []string) map[string]int {
	index := make(map[string]int)
	for pos, sr := range s.collections[name] {
		key, err := resource.IdentityKey(sr.row, ids)
		if err != nil {
			continue
		}
		index[key] = pos
	}
	return index
}
