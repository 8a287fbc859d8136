/*
store.go - Worksheet store interface

PURPOSE:
  Holds worksheets for the service layer. A Document is single-threaded, so
  a store must serialize mutations per worksheet: override clamping reads
  sibling overrides and must not race with an edit to those siblings.

CONTRACT:
  - Update runs fn on a private copy while holding the worksheet's lock,
    and commits the copy only when fn returns nil. A failed fn leaves the
    stored worksheet untouched.
  - Get and Update return copies; callers never share state with the store.
  - Different worksheets never block each other.

IMPLEMENTATIONS:
  - worksheet/store/memory.go: in-process store
*/
package worksheet

import (
	"context"
	"time"
)

type Store interface {
	// Create stores a new worksheet. An empty doc.ID is assigned by the store.
	Create(ctx context.Context, doc *Document) error

	// Get returns a copy of the worksheet.
	Get(ctx context.Context, id string) (*Document, error)

	// List returns summaries ordered by creation time.
	List(ctx context.Context) ([]Summary, error)

	// Update applies fn atomically and returns a copy of the committed result.
	Update(ctx context.Context, id string, fn func(*Document) error) (*Document, error)

	// Delete removes the worksheet.
	Delete(ctx context.Context, id string) error
}

// Summary is the listing view of a worksheet.
type Summary struct {
	ID           string
	Name         string
	Participants int
	Entries      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summarize builds the listing view of d.
func Summarize(d *Document) Summary {
	return Summary{
		ID:           d.ID,
		Name:         d.Name,
		Participants: d.registry.Len(),
		Entries:      len(d.entries),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}
