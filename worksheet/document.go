package worksheet

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DOCUMENT - One worksheet: registry, entries and cached results
// =============================================================================

// Document is an explicit worksheet. It is not safe for concurrent use;
// stores serialize mutations per document (see store.go).
type Document struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time

	registry Registry
	entries  []*Entry
	results  map[EntryID]AllocationResult

	nextParticipant ParticipantID
	nextEntry       EntryID
}

// New creates a worksheet with n participants and one empty entry.
// n < 1 is treated as 1.
func New(name string, n int) *Document {
	now := time.Now().UTC()
	d := &Document{Name: name, CreatedAt: now}
	d.reset(n)
	return d
}

// reset rebuilds the grid from scratch. Counters restart, so ids begin at 1
// again; nothing from the previous grid survives.
func (d *Document) reset(n int) {
	if n < 1 {
		n = 1
	}
	d.registry = Registry{}
	d.entries = nil
	d.results = make(map[EntryID]AllocationResult)
	d.nextParticipant = 1
	d.nextEntry = 1

	for i := 0; i < n; i++ {
		d.addParticipant("")
	}
	d.addEntry()
	d.touch()
}

func (d *Document) touch() { d.UpdatedAt = time.Now().UTC() }

// Registry returns the participant registry. Callers must not retain it
// across mutations.
func (d *Document) Registry() *Registry { return &d.registry }

// Entries returns copies of all entries in row order.
func (d *Document) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	for i, e := range d.entries {
		out[i] = *e.clone()
	}
	return out
}

// Entry returns a copy of one entry.
func (d *Document) Entry(id EntryID) (Entry, bool) {
	e := d.entry(id)
	if e == nil {
		return Entry{}, false
	}
	return *e.clone(), true
}

// EntryIDs returns entry ids in row order.
func (d *Document) EntryIDs() []EntryID {
	ids := make([]EntryID, len(d.entries))
	for i, e := range d.entries {
		ids[i] = e.ID
	}
	return ids
}

// Result returns the allocation produced by the entry's latest recompute.
// In unequal mode AmountLeft is the pre-fill remainder from that recompute.
func (d *Document) Result(id EntryID) (AllocationResult, bool) {
	r, ok := d.results[id]
	if !ok {
		return AllocationResult{}, false
	}
	return r.clone(), true
}

func (d *Document) entry(id EntryID) *Entry {
	for _, e := range d.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (d *Document) addParticipant(name string) Participant {
	id := d.nextParticipant
	d.nextParticipant++
	if name == "" {
		name = defaultParticipantName(id)
	}
	p := Participant{ID: id, Name: name}
	d.registry.add(p)
	return p
}

func (d *Document) addEntry() *Entry {
	e := newEntry(d.nextEntry)
	d.nextEntry++
	d.entries = append(d.entries, e)
	d.recompute(e)
	return e
}

// recompute runs the engine for e, writes auto-filled overrides back and
// caches the result.
func (d *Document) recompute(e *Entry) AllocationResult {
	res := Recalculate(e, &d.registry)
	if e.Mode == ModeUnequal {
		if e.Overrides == nil {
			e.Overrides = make(map[ParticipantID]decimal.Decimal)
		}
		for id, v := range res.AutoFilled {
			e.Overrides[id] = v
		}
	}
	d.results[e.ID] = res
	return res
}

// Clone returns a deep copy that shares no mutable state with d.
func (d *Document) Clone() *Document {
	c := &Document{
		ID:              d.ID,
		Name:            d.Name,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		registry:        d.registry.clone(),
		entries:         make([]*Entry, len(d.entries)),
		results:         make(map[EntryID]AllocationResult, len(d.results)),
		nextParticipant: d.nextParticipant,
		nextEntry:       d.nextEntry,
	}
	for i, e := range d.entries {
		c.entries[i] = e.clone()
	}
	for id, r := range d.results {
		c.results[id] = r.clone()
	}
	return c
}
