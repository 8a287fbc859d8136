/*
Package worksheet provides the expense-splitting worksheet engine.

PURPOSE:
  A worksheet is a grid of participants (columns) and expense entries (rows).
  Each entry's amount is divided among the selected participants either
  equally or through explicit per-participant overrides. This package holds
  the data model, the allocation engine and the grid coordinator that keeps
  every entry consistent while the grid changes shape.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amounts: decimal.Decimal values, normalized to >= 0 at the boundary
  - Identifiers: ParticipantID and EntryID (stable integers, never reused)
  - SplitMode: Equal or Unequal
  - Entry: one expense row
  - AllocationResult: derived per-entry shares, amount left and average

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere, rounding to 2 places only where
     the allocation rules require it (auto-fill, average)
  2. Explicit identity: ids live in the model, never parsed from labels
  3. Single writer: only Document methods mutate registry and entries
  4. Recompute, then emit: every mutation returns a Diff for the adapter

USAGE:
  doc := worksheet.New("Dinner", 3)
  entry := doc.Entries()[0]
  diff, err := doc.SetAmount(entry.ID, decimal.NewFromInt(90))
  res, _ := doc.Result(entry.ID)

SEE ALSO:
  - allocation.go: Recalculate and ClampOverride
  - document.go: Document lifecycle
  - coordinator.go: Grid Coordinator operations
  - events.go: Adapter input events
*/
package worksheet

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNTS
// =============================================================================

// Precision is the number of decimal places used for rounded money values.
const Precision int32 = 2

// ParseAmount parses user input into a non-negative amount.
// Empty, malformed and negative input all normalize to zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return NormalizeAmount(d)
}

// NormalizeAmount floors an amount at zero.
func NormalizeAmount(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Round rounds half away from zero to Precision places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Precision)
}

// divOrZero divides by n, returning zero when n is zero.
func divOrZero(d decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return d.Div(decimal.NewFromInt(int64(n)))
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

// ParticipantID identifies a column. Allocated from 1 and never reused
// within a document.
type ParticipantID int

// EntryID identifies a row. Allocated from 1 and never reused within a
// document.
type EntryID int

// NoPayer marks an entry whose payer is unset.
const NoPayer ParticipantID = 0

// =============================================================================
// SPLIT MODE
// =============================================================================

type SplitMode string

const (
	ModeEqual   SplitMode = "equal"   // amount divided evenly among selected
	ModeUnequal SplitMode = "unequal" // overrides, remainder auto-filled
)

// =============================================================================
// PARTICIPANT & ENTRY
// =============================================================================

type Participant struct {
	ID   ParticipantID
	Name string
}

// Entry is one expense row.
//
// INVARIANTS:
//   - Amount >= 0
//   - keys(Overrides) ⊆ Selected
//   - Overrides is nil unless Mode == ModeUnequal
type Entry struct {
	ID        EntryID
	Title     string
	Amount    decimal.Decimal
	Mode      SplitMode
	Selected  map[ParticipantID]bool
	Overrides map[ParticipantID]decimal.Decimal
	PaidBy    ParticipantID
	Category  string
}

func newEntry(id EntryID) *Entry {
	return &Entry{
		ID:       id,
		Amount:   decimal.Zero,
		Mode:     ModeEqual,
		Selected: make(map[ParticipantID]bool),
	}
}

// IsSelected reports whether p is in the selection set.
func (e *Entry) IsSelected(p ParticipantID) bool {
	return e.Selected[p]
}

// SelectedIDs returns the selection set in ascending id order.
func (e *Entry) SelectedIDs() []ParticipantID {
	ids := make([]ParticipantID, 0, len(e.Selected))
	for id, ok := range e.Selected {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Override returns the override for p, or zero when none is set.
func (e *Entry) Override(p ParticipantID) decimal.Decimal {
	if v, ok := e.Overrides[p]; ok {
		return v
	}
	return decimal.Zero
}

func (e *Entry) clone() *Entry {
	c := *e
	c.Selected = make(map[ParticipantID]bool, len(e.Selected))
	for id, ok := range e.Selected {
		if ok {
			c.Selected[id] = true
		}
	}
	if e.Overrides != nil {
		c.Overrides = make(map[ParticipantID]decimal.Decimal, len(e.Overrides))
		for id, v := range e.Overrides {
			c.Overrides[id] = v
		}
	}
	return &c
}

// =============================================================================
// ALLOCATION RESULT - Derived, never stored apart from its entry
// =============================================================================

type AllocationResult struct {
	// Shares holds every selected participant's share, keyed by id.
	Shares map[ParticipantID]decimal.Decimal

	// AmountLeft is amount minus the explicitly specified overrides,
	// reported before auto-fill. Always zero in equal mode.
	AmountLeft decimal.Decimal

	// PerShareAverage is the allocated total divided by the selection size,
	// rounded to 2 places.
	PerShareAverage decimal.Decimal

	// SpecifiedTotal is the sum of overrides greater than zero.
	SpecifiedTotal decimal.Decimal

	// AutoFilled holds the values distributed to unspecified participants.
	AutoFilled map[ParticipantID]decimal.Decimal
}

func emptyResult() AllocationResult {
	return AllocationResult{
		Shares:          make(map[ParticipantID]decimal.Decimal),
		AmountLeft:      decimal.Zero,
		PerShareAverage: decimal.Zero,
		SpecifiedTotal:  decimal.Zero,
		AutoFilled:      make(map[ParticipantID]decimal.Decimal),
	}
}

// Share returns p's share, or zero if p is not selected.
func (r AllocationResult) Share(p ParticipantID) decimal.Decimal {
	if v, ok := r.Shares[p]; ok {
		return v
	}
	return decimal.Zero
}

// Allocated returns the sum of all shares.
func (r AllocationResult) Allocated() decimal.Decimal {
	total := decimal.Zero
	for _, v := range r.Shares {
		total = total.Add(v)
	}
	return total
}

func (r AllocationResult) clone() AllocationResult {
	c := r
	c.Shares = make(map[ParticipantID]decimal.Decimal, len(r.Shares))
	for k, v := range r.Shares {
		c.Shares[k] = v
	}
	c.AutoFilled = make(map[ParticipantID]decimal.Decimal, len(r.AutoFilled))
	for k, v := range r.AutoFilled {
		c.AutoFilled[k] = v
	}
	return c
}
