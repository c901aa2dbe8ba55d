package store

import (
	"context"
	"sort"
	"sync"

	"github.com/dgallion1/reportdoc/internal/revision"
)

// Memory keeps snapshots in process. It is the default when no database is
// configured.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]revision.Snapshot
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]revision.Snapshot)}
}

func (m *Memory) Save(_ context.Context, snap revision.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[snap.DocID] = clone(snap)
	return nil
}

func (m *Memory) Load(_ context.Context, docID string) (*revision.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.docs[docID]
	if !ok {
		return nil, ErrNotFound
	}
	out := clone(snap)
	return &out, nil
}

func (m *Memory) Delete(_ context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[docID]; !ok {
		return ErrNotFound
	}
	delete(m.docs, docID)
	return nil
}

// List returns stored document ids in sorted order.
func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Len returns the number of stored documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func clone(s revision.Snapshot) revision.Snapshot {
	s.Documents = append(s.Documents[:0:0], s.Documents...)
	s.Changes = append(s.Changes[:0:0], s.Changes...)
	s.Versions = append(s.Versions[:0:0], s.Versions...)
	comments := make([]revision.Comment, len(s.Comments))
	for i, c := range s.Comments {
		c.Replies = append(c.Replies[:0:0], c.Replies...)
		comments[i] = c
	}
	s.Comments = comments
	return s
}
