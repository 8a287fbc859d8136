// Package store provides worksheet.Store implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/warp/splitsheet/worksheet"
)

// =============================================================================
// MEMORY STORE - In-process worksheets, one lock per worksheet
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	slots map[string]*slot
}

// slot guards one worksheet. Mutations on the same worksheet queue on mu;
// different worksheets proceed in parallel.
type slot struct {
	mu      sync.Mutex
	doc     *worksheet.Document
	deleted bool
}

var _ worksheet.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{slots: make(map[string]*slot)}
}

func (m *Memory) Create(_ context.Context, doc *worksheet.Document) error {
	if doc == nil {
		return fmt.Errorf("create worksheet: nil document")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if _, exists := m.slots[doc.ID]; exists {
		return fmt.Errorf("create worksheet %s: already exists", doc.ID)
	}
	m.slots[doc.ID] = &slot{doc: doc.Clone()}
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*worksheet.Document, error) {
	s, err := m.slot(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted {
		return nil, notFound(id)
	}
	return s.doc.Clone(), nil
}

func (m *Memory) List(_ context.Context) ([]worksheet.Summary, error) {
	m.mu.RLock()
	slots := make([]*slot, 0, len(m.slots))
	for _, s := range m.slots {
		slots = append(slots, s)
	}
	m.mu.RUnlock()

	out := make([]worksheet.Summary, 0, len(slots))
	for _, s := range slots {
		s.mu.Lock()
		if !s.deleted {
			out = append(out, worksheet.Summarize(s.doc))
		}
		s.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Update runs fn on a copy of the worksheet under its lock.
// For the memory store, rollback is simply discarding the copy.
func (m *Memory) Update(ctx context.Context, id string, fn func(*worksheet.Document) error) (*worksheet.Document, error) {
	s, err := m.slot(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted {
		return nil, notFound(id)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	working := s.doc.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	s.doc = working
	return working.Clone(), nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.slots[id]
	delete(m.slots, id)
	m.mu.Unlock()
	if !ok {
		return notFound(id)
	}

	s.mu.Lock()
	s.deleted = true
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored worksheets.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.slots)
}

func (m *Memory) slot(id string) (*slot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.slots[id]
	if !ok {
		return nil, notFound(id)
	}
	return s, nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", worksheet.ErrWorksheetNotFound, id)
}
