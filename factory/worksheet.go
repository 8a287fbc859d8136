/*
Package factory provides JSON to worksheet conversion.

PURPOSE:
  Builds a worksheet.Document from a JSON description of participants and
  transactions, and exports a Document back to the same shape. Imports are
  replayed through the coordinator methods, so an imported worksheet obeys
  exactly the same rules (clamping, auto-fill, selection) as one edited
  interactively.

JSON SCHEMA:
  {
    "metadata": {"split_name": "Weekend trip"},
    "names": ["Ana", "Ben", "Cy"],
    "transactions": [
      {
        "title": "Dinner",
        "amount": 90,
        "paid_by": "Ana",
        "category": "food",
        "even_split": true,
        "checked_names": ["Ana", "Ben", "Cy"]
      },
      {
        "title": "Taxi",
        "amount": "40",
        "paid_by": "Ben",
        "even_split": false,
        "checked_names": ["Ben", "Cy"],
        "uneven_split_map": {"Cy": 25}
      }
    ]
  }

REPLAY ORDER (per transaction):
  title, category, payer, amount, mode, overrides (column order), then
  the remaining checked names selected in one batch. Overrides go first so
  the batch selection auto-fills only what the overrides left over, and
  the batch is last so the entry's result reports the remainder it filled.

NAMES:
  Names are resolved to the first column carrying that name. Unknown names
  are an error; duplicate names are allowed but ambiguous.

USAGE:
  f := factory.NewWorksheetFactory()
  doc, err := f.ParseWorksheet(jsonString)

SEE ALSO:
  - worksheet/coordinator.go: the operations replayed here
  - api/scenarios.go: demo worksheets defined in this format
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/splitsheet/worksheet"
)

var (
	// ErrNoParticipants is returned for a worksheet without names.
	ErrNoParticipants = errors.New("worksheet must have at least one participant")

	// ErrUnknownName is returned when a transaction references a name that
	// is not in names.
	ErrUnknownName = errors.New("unknown participant name")
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// WorksheetJSON is the JSON representation of a worksheet.
type WorksheetJSON struct {
	Metadata     MetadataJSON      `json:"metadata"`
	NameCount    int               `json:"name_count,omitempty"`
	Names        []string          `json:"names"`
	Transactions []TransactionJSON `json:"transactions"`
}

// MetadataJSON carries worksheet-level fields.
type MetadataJSON struct {
	SplitName string `json:"split_name"`
}

// TransactionJSON is one entry. Amounts accept JSON numbers or strings.
type TransactionJSON struct {
	Title          string                     `json:"title"`
	Amount         decimal.Decimal            `json:"amount"`
	PaidBy         string                     `json:"paid_by,omitempty"`
	Category       string                     `json:"category,omitempty"`
	EvenSplit      *bool                      `json:"even_split,omitempty"` // default true
	CheckedNames   []string                   `json:"checked_names"`
	UnevenSplitMap map[string]decimal.Decimal `json:"uneven_split_map,omitempty"`
}

func (tj TransactionJSON) even() bool {
	return tj.EvenSplit == nil || *tj.EvenSplit
}

// =============================================================================
// WORKSHEET FACTORY
// =============================================================================

// WorksheetFactory converts JSON worksheets to Documents.
type WorksheetFactory struct {
	// MaxParticipants rejects imports with more names. Zero means no limit.
	MaxParticipants int
}

// NewWorksheetFactory creates a factory without a participant limit.
func NewWorksheetFactory() *WorksheetFactory {
	return &WorksheetFactory{}
}

// ParseWorksheet parses a JSON string into a Document.
func (f *WorksheetFactory) ParseWorksheet(jsonStr string) (*worksheet.Document, error) {
	var wj WorksheetJSON
	if err := json.Unmarshal([]byte(jsonStr), &wj); err != nil {
		return nil, fmt.Errorf("failed to parse worksheet JSON: %w", err)
	}
	return f.FromJSON(wj)
}

// FromJSON replays wj onto a fresh Document.
func (f *WorksheetFactory) FromJSON(wj WorksheetJSON) (*worksheet.Document, error) {
	if len(wj.Names) == 0 {
		return nil, ErrNoParticipants
	}
	if f.MaxParticipants > 0 && len(wj.Names) > f.MaxParticipants {
		return nil, fmt.Errorf("%w: %d names, limit %d", worksheet.ErrParticipantLimit, len(wj.Names), f.MaxParticipants)
	}

	doc := worksheet.New(wj.Metadata.SplitName, len(wj.Names))
	ids := doc.Registry().IDs()
	byName := make(map[string]worksheet.ParticipantID, len(wj.Names))
	for i, name := range wj.Names {
		name = strings.TrimSpace(name)
		if name != "" {
			if _, err := doc.RenameParticipant(ids[i], name); err != nil {
				return nil, err
			}
		}
		if _, seen := byName[name]; !seen {
			byName[name] = ids[i]
		}
	}
	resolve := func(name string) (worksheet.ParticipantID, error) {
		id, ok := byName[strings.TrimSpace(name)]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownName, name)
		}
		return id, nil
	}

	for i, tj := range wj.Transactions {
		var entryID worksheet.EntryID
		if i == 0 {
			entryID = doc.EntryIDs()[0]
		} else {
			e, _ := doc.AddEntry()
			entryID = e.ID
		}
		if err := replayTransaction(doc, entryID, tj, ids, resolve); err != nil {
			return nil, fmt.Errorf("transaction %d (%s): %w", i+1, tj.Title, err)
		}
	}
	return doc, nil
}

func replayTransaction(
	doc *worksheet.Document,
	id worksheet.EntryID,
	tj TransactionJSON,
	columns []worksheet.ParticipantID,
	resolve func(string) (worksheet.ParticipantID, error),
) error {
	if _, err := doc.SetTitle(id, tj.Title); err != nil {
		return err
	}
	if _, err := doc.SetCategory(id, tj.Category); err != nil {
		return err
	}
	if tj.PaidBy != "" {
		p, err := resolve(tj.PaidBy)
		if err != nil {
			return err
		}
		if _, err := doc.SetPayer(id, p); err != nil {
			return err
		}
	}
	if _, err := doc.SetAmount(id, tj.Amount); err != nil {
		return err
	}

	overrides := make(map[worksheet.ParticipantID]decimal.Decimal, len(tj.UnevenSplitMap))
	if !tj.even() {
		if _, err := doc.SetMode(id, worksheet.ModeUnequal); err != nil {
			return err
		}
		for name, v := range tj.UnevenSplitMap {
			p, err := resolve(name)
			if err != nil {
				return err
			}
			overrides[p] = v
		}
		for _, p := range columns {
			v, ok := overrides[p]
			if !ok {
				continue
			}
			if _, err := doc.SetOverride(id, p, v); err != nil {
				return err
			}
		}
	}

	var batch []worksheet.ParticipantID
	for _, name := range tj.CheckedNames {
		p, err := resolve(name)
		if err != nil {
			return err
		}
		if _, done := overrides[p]; !done {
			batch = append(batch, p)
		}
	}
	if _, err := doc.Select(id, batch...); err != nil {
		return err
	}
	return nil
}

// =============================================================================
// EXPORT
// =============================================================================

// Export renders doc in the import format. Unequal entries carry their
// current overrides, including auto-filled ones.
func Export(doc *worksheet.Document) WorksheetJSON {
	reg := doc.Registry()
	wj := WorksheetJSON{
		Metadata:  MetadataJSON{SplitName: doc.Name},
		NameCount: reg.Len(),
		Names:     make([]string, 0, reg.Len()),
	}
	for _, p := range reg.Participants() {
		wj.Names = append(wj.Names, p.Name)
	}

	for _, e := range doc.Entries() {
		even := e.Mode != worksheet.ModeUnequal
		tj := TransactionJSON{
			Title:        e.Title,
			Amount:       e.Amount,
			PaidBy:       reg.Name(e.PaidBy),
			Category:     e.Category,
			EvenSplit:    &even,
			CheckedNames: []string{},
		}
		for _, p := range reg.IDs() {
			if !e.IsSelected(p) {
				continue
			}
			tj.CheckedNames = append(tj.CheckedNames, reg.Name(p))
			if v := e.Override(p); !even && v.IsPositive() {
				if tj.UnevenSplitMap == nil {
					tj.UnevenSplitMap = make(map[string]decimal.Decimal)
				}
				tj.UnevenSplitMap[reg.Name(p)] = v
			}
		}
		wj.Transactions = append(wj.Transactions, tj)
	}
	return wj
}
