/*
coordinator.go - Grid Coordinator operations

PURPOSE:
  Every structural or input edit to a worksheet goes through a Document
  method here. Each method applies the mutation fully, then recomputes the
  affected entries, then returns a Diff describing what the adapter must
  re-render. The engine never reads presentation state.

RULES:
  - New participants start unselected on every entry
  - Switching to unequal starts from an empty override map; switching to
    equal discards overrides entirely
  - Deselecting in unequal mode removes that participant's override
  - Amount edits clamp at zero and never shrink existing overrides
  - Override edits are clamped against the other specified overrides; a
    value > 0 selects the participant, zero never deselects
  - Removing a participant purges it from selections, overrides and payer;
    remaining ids are not renumbered
  - Renames keep every entry's payer (ids survive renames)

SEE ALSO:
  - allocation.go: Recalculate, ClampOverride
  - events.go: Event types that dispatch into these methods
*/
package worksheet

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DIFF - What changed, for selective re-rendering
// =============================================================================

type Diff struct {
	// ChangedEntries lists entries whose inputs or results changed.
	ChangedEntries []EntryID

	// RemovedEntries lists entries that no longer exist.
	RemovedEntries []EntryID

	// RegistryChanged is set when participants were added, renamed or removed.
	RegistryChanged bool

	// PayerOptionsChanged is set when every entry's payer selector must be
	// refreshed from the registry.
	PayerOptionsChanged bool

	// Rebuilt is set when the whole grid was replaced.
	Rebuilt bool

	// Clamped is set when an override edit was reduced to fit the amount.
	Clamped bool
}

func (df *Diff) markEntry(id EntryID) {
	for _, existing := range df.ChangedEntries {
		if existing == id {
			return
		}
	}
	df.ChangedEntries = append(df.ChangedEntries, id)
}

// Empty reports whether the diff asks for no re-render at all.
func (df Diff) Empty() bool {
	return len(df.ChangedEntries) == 0 && len(df.RemovedEntries) == 0 &&
		!df.RegistryChanged && !df.PayerOptionsChanged && !df.Rebuilt
}

// =============================================================================
// STRUCTURE
// =============================================================================

// Rebuild replaces the grid with n participants and one empty entry.
func (d *Document) Rebuild(n int) Diff {
	removed := d.EntryIDs()
	d.reset(n)
	return Diff{
		ChangedEntries:      d.EntryIDs(),
		RemovedEntries:      removed,
		RegistryChanged:     true,
		PayerOptionsChanged: true,
		Rebuilt:             true,
	}
}

// AddParticipant appends a participant. An empty name becomes "Name <id>".
func (d *Document) AddParticipant(name string) (Participant, Diff) {
	p := d.addParticipant(strings.TrimSpace(name))
	d.touch()
	return p, Diff{RegistryChanged: true, PayerOptionsChanged: true}
}

// RenameParticipant changes a display name. Payers are tracked by id, so
// every entry keeps its chosen payer.
func (d *Document) RenameParticipant(id ParticipantID, name string) (Diff, error) {
	if err := d.registry.rename(id, name); err != nil {
		return Diff{}, err
	}
	d.touch()
	return Diff{RegistryChanged: true, PayerOptionsChanged: true}, nil
}

// RemoveParticipant drops a participant from the registry and from every
// entry that references it, then recomputes those entries.
func (d *Document) RemoveParticipant(id ParticipantID) (Diff, error) {
	if err := d.registry.remove(id); err != nil {
		return Diff{}, err
	}
	diff := Diff{RegistryChanged: true, PayerOptionsChanged: true}
	for _, e := range d.entries {
		_, hadOverride := e.Overrides[id]
		touched := e.Selected[id] || hadOverride || e.PaidBy == id
		delete(e.Selected, id)
		delete(e.Overrides, id)
		if e.PaidBy == id {
			e.PaidBy = NoPayer
		}
		if touched {
			d.recompute(e)
			diff.markEntry(e.ID)
		}
	}
	d.touch()
	return diff, nil
}

// AddEntry appends an empty equal-mode entry.
func (d *Document) AddEntry() (Entry, Diff) {
	e := d.addEntry()
	d.touch()
	return *e.clone(), Diff{ChangedEntries: []EntryID{e.ID}}
}

// RemoveEntry deletes a row. Ids of the remaining rows are unchanged.
func (d *Document) RemoveEntry(id EntryID) (Diff, error) {
	for i, e := range d.entries {
		if e.ID != id {
			continue
		}
		d.entries = append(d.entries[:i], d.entries[i+1:]...)
		delete(d.results, id)
		d.touch()
		return Diff{RemovedEntries: []EntryID{id}}, nil
	}
	return Diff{}, entryNotFound(id)
}

// SetName renames the worksheet itself.
func (d *Document) SetName(name string) Diff {
	d.Name = name
	d.touch()
	return Diff{}
}

// =============================================================================
// ENTRY INPUTS
// =============================================================================

// mutateEntry applies fn to the entry, recomputes it and reports the change.
func (d *Document) mutateEntry(id EntryID, fn func(e *Entry) error) (Diff, error) {
	e := d.entry(id)
	if e == nil {
		return Diff{}, entryNotFound(id)
	}
	if err := fn(e); err != nil {
		return Diff{}, err
	}
	d.recompute(e)
	d.touch()
	return Diff{ChangedEntries: []EntryID{id}}, nil
}

// SetAmount sets the entry amount, flooring negatives at zero. Existing
// overrides are not shrunk when the amount drops below their total.
func (d *Document) SetAmount(id EntryID, amount decimal.Decimal) (Diff, error) {
	return d.mutateEntry(id, func(e *Entry) error {
		e.Amount = NormalizeAmount(amount)
		return nil
	})
}

// SetMode switches between equal and unequal splitting.
func (d *Document) SetMode(id EntryID, mode SplitMode) (Diff, error) {
	return d.mutateEntry(id, func(e *Entry) error {
		if mode != ModeUnequal {
			mode = ModeEqual
		}
		if e.Mode == mode {
			return nil
		}
		e.Mode = mode
		if mode == ModeUnequal {
			e.Overrides = make(map[ParticipantID]decimal.Decimal)
		} else {
			e.Overrides = nil
		}
		return nil
	})
}

// ToggleSelection adds or removes a participant from the entry.
func (d *Document) ToggleSelection(id EntryID, p ParticipantID, selected bool) (Diff, error) {
	if !d.registry.Contains(p) {
		return Diff{}, participantNotFound(p)
	}
	return d.mutateEntry(id, func(e *Entry) error {
		if selected {
			e.Selected[p] = true
			return nil
		}
		delete(e.Selected, p)
		delete(e.Overrides, p)
		return nil
	})
}

// SetOverride edits one participant's explicit share on an unequal entry.
// The stored value is clamped so the specified total never exceeds the
// amount; Diff.Clamped reports when that happened.
func (d *Document) SetOverride(id EntryID, p ParticipantID, value decimal.Decimal) (Diff, error) {
	if !d.registry.Contains(p) {
		return Diff{}, participantNotFound(p)
	}
	clamped := false
	diff, err := d.mutateEntry(id, func(e *Entry) error {
		if e.Mode != ModeUnequal {
			return ErrEqualModeOverride
		}
		requested := NormalizeAmount(value)
		v := ClampOverride(e.Amount, requested, othersSpecified(e, p))
		clamped = !v.Equal(requested)

		if v.IsPositive() {
			if e.Overrides == nil {
				e.Overrides = make(map[ParticipantID]decimal.Decimal)
			}
			e.Selected[p] = true
			e.Overrides[p] = v
			return nil
		}
		delete(e.Overrides, p)
		return nil
	})
	diff.Clamped = clamped
	return diff, err
}

// SelectAll selects every registered participant. Overrides are kept.
func (d *Document) SelectAll(id EntryID) (Diff, error) {
	return d.Select(id, d.registry.IDs()...)
}

// Select adds several participants in one step, so the auto-fill spreads
// the remainder across all of them at once.
func (d *Document) Select(id EntryID, ps ...ParticipantID) (Diff, error) {
	for _, p := range ps {
		if !d.registry.Contains(p) {
			return Diff{}, participantNotFound(p)
		}
	}
	return d.mutateEntry(id, func(e *Entry) error {
		for _, p := range ps {
			e.Selected[p] = true
		}
		return nil
	})
}

// ClearSelection deselects everyone and discards all overrides.
func (d *Document) ClearSelection(id EntryID) (Diff, error) {
	return d.mutateEntry(id, func(e *Entry) error {
		e.Selected = make(map[ParticipantID]bool)
		if e.Mode == ModeUnequal {
			e.Overrides = make(map[ParticipantID]decimal.Decimal)
		}
		return nil
	})
}

// =============================================================================
// ENTRY METADATA - no effect on allocation
// =============================================================================

func (d *Document) SetTitle(id EntryID, title string) (Diff, error) {
	return d.mutateEntry(id, func(e *Entry) error {
		e.Title = title
		return nil
	})
}

func (d *Document) SetCategory(id EntryID, category string) (Diff, error) {
	return d.mutateEntry(id, func(e *Entry) error {
		e.Category = category
		return nil
	})
}

// SetPayer chooses who paid the entry. NoPayer clears it.
func (d *Document) SetPayer(id EntryID, p ParticipantID) (Diff, error) {
	if p != NoPayer && !d.registry.Contains(p) {
		return Diff{}, participantNotFound(p)
	}
	return d.mutateEntry(id, func(e *Entry) error {
		e.PaidBy = p
		return nil
	})
}

// PayerOptions returns the choices an adapter offers in every entry's
// payer selector, in column order.
func (d *Document) PayerOptions() []Participant {
	return d.registry.Participants()
}
