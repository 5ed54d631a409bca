// Package document holds the in-memory document snapshot.
// Readers load the current snapshot lock-free; ingestion publishes a new one atomically.
package document

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/civicdex/internal/domain"
	"github.com/kailas-cloud/civicdex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/civicdex/internal/domain/document"
)

// Snapshot is an immutable, indexed set of documents in ingestion order.
type Snapshot struct {
	docs     []domdoc.Document
	byID     map[string]int
	loadedAt time.Time
}

// Documents returns documents in ingestion order. The slice must not be modified.
func (s *Snapshot) Documents() []domdoc.Document { return s.docs }

// Len returns the number of documents.
func (s *Snapshot) Len() int { return len(s.docs) }

// LoadedAt returns the publish time, zero for the initial empty snapshot.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Get returns a document by ID.
func (s *Snapshot) Get(id string) (domdoc.Document, bool) {
	i, ok := s.byID[id]
	if !ok {
		return domdoc.Document{}, false
	}
	return s.docs[i], true
}

// ListFilter narrows List. Empty fields match everything.
type ListFilter struct {
	Category     string
	DocumentType string
	Limit        int
}

// Store publishes document snapshots.
type Store struct {
	cur atomic.Pointer[Snapshot]
	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock creates an empty store with an injected clock.
func NewWithClock(now func() time.Time) *Store {
	s := &Store{now: now}
	s.cur.Store(&Snapshot{byID: map[string]int{}})
	return s
}

// Replace builds a new snapshot from docs and publishes it.
// Later duplicates of an ID are dropped. An empty batch leaves the current snapshot in place.
func (s *Store) Replace(docs []domdoc.Document) (batch.Swap, error) {
	snap := &Snapshot{
		docs: make([]domdoc.Document, 0, len(docs)),
		byID: make(map[string]int, len(docs)),
	}
	var rep batch.Swap
	for i := range docs {
		id := docs[i].ID()
		if _, dup := snap.byID[id]; dup {
			rep.Duplicates++
			continue
		}
		snap.byID[id] = len(snap.docs)
		snap.docs = append(snap.docs, docs[i])
	}
	if len(snap.docs) == 0 {
		return rep, fmt.Errorf("replace snapshot: %w", domain.ErrNoDocuments)
	}
	snap.loadedAt = s.now()
	rep.Loaded = len(snap.docs)

	s.cur.Store(snap)
	return rep, nil
}

// Snapshot returns the current snapshot. Never nil.
func (s *Store) Snapshot() *Snapshot { return s.cur.Load() }

// Documents returns the current snapshot's documents in ingestion order.
func (s *Store) Documents() []domdoc.Document { return s.cur.Load().docs }

// Count returns the number of documents in the current snapshot.
func (s *Store) Count() int { return s.cur.Load().Len() }

// Get returns a document by ID from the current snapshot.
func (s *Store) Get(id string) (domdoc.Document, error) {
	doc, ok := s.cur.Load().Get(id)
	if !ok {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	return doc, nil
}

// List returns documents matching f in ingestion order.
func (s *Store) List(f ListFilter) []domdoc.Document {
	snap := s.cur.Load()
	category := strings.ToLower(strings.TrimSpace(f.Category))
	docType := strings.ToLower(strings.TrimSpace(f.DocumentType))

	out := make([]domdoc.Document, 0)
	for i := range snap.docs {
		d := &snap.docs[i]
		if category != "" && string(d.Category()) != category {
			continue
		}
		if docType != "" && strings.ToLower(d.DocumentType()) != docType {
			continue
		}
		out = append(out, *d)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

// Stats is an aggregate view over the current snapshot.
type Stats struct {
	Total       int
	ByCategory  map[string]int
	BySource    map[string]int
	ByType      map[string]int
	Authorities []string
	Earliest    *time.Time
	Latest      *time.Time
	LoadedAt    time.Time
}

// Stats aggregates the current snapshot.
func (s *Store) Stats() Stats {
	snap := s.cur.Load()
	st := Stats{
		Total:      len(snap.docs),
		ByCategory: map[string]int{},
		BySource:   map[string]int{},
		ByType:     map[string]int{},
		LoadedAt:   snap.loadedAt,
	}
	authorities := map[string]struct{}{}
	for i := range snap.docs {
		d := &snap.docs[i]
		st.ByCategory[string(d.Category())]++
		if d.Source() != "" {
			st.BySource[d.Source()]++
		}
		if d.DocumentType() != "" {
			st.ByType[d.DocumentType()]++
		}
		if d.Authority() != "" {
			authorities[d.Authority()] = struct{}{}
		}
		if t, ok := d.EffectiveDate(); ok {
			if st.Earliest == nil || t.Before(*st.Earliest) {
				e := t
				st.Earliest = &e
			}
			if st.Latest == nil || t.After(*st.Latest) {
				l := t
				st.Latest = &l
			}
		}
	}
	st.Authorities = make([]string, 0, len(authorities))
	for a := range authorities {
		st.Authorities = append(st.Authorities, a)
	}
	sort.Strings(st.Authorities)
	return st
}
