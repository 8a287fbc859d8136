/*
events.go - Adapter input events

PURPOSE:
  The presentation adapter forwards each user edit as one discrete event
  carrying already-parsed values. Document.Apply dispatches the event to
  the matching coordinator method and returns the Diff.

EVENTS:
  amount_changed       AmountChanged{EntryID, Amount}
  mode_toggled         ModeToggled{EntryID, Unequal}
  selection_changed    SelectionChanged{EntryID, ParticipantID, Selected}
  override_changed     OverrideChanged{EntryID, ParticipantID, Value}
  participant_added    ParticipantAdded{Name}
  participant_renamed  ParticipantRenamed{ParticipantID, Name}
  participant_removed  ParticipantRemoved{ParticipantID}
  entry_added          EntryAdded{}
  entry_removed        EntryRemoved{EntryID}
  select_all_clicked   SelectAllClicked{EntryID}
  clear_clicked        ClearClicked{EntryID}
  title_changed        TitleChanged{EntryID, Title}
  payer_changed        PayerChanged{EntryID, ParticipantID}
  category_changed     CategoryChanged{EntryID, Category}
  worksheet_renamed    WorksheetRenamed{Name}
  grid_rebuilt         GridRebuilt{Participants}
*/
package worksheet

import "github.com/shopspring/decimal"

// Event is one adapter input. The set of events is closed.
type Event interface {
	EventType() string
	apply(d *Document) (Diff, error)
}

// Apply applies ev to the document. Failures are wrapped in *EventError.
func (d *Document) Apply(ev Event) (Diff, error) {
	if ev == nil {
		return Diff{}, ErrUnknownEvent
	}
	diff, err := ev.apply(d)
	if err != nil {
		return Diff{}, &EventError{Type: ev.EventType(), Err: err}
	}
	return diff, nil
}

// =============================================================================
// ENTRY INPUT EVENTS
// =============================================================================

type AmountChanged struct {
	EntryID EntryID
	Amount  decimal.Decimal
}

func (AmountChanged) EventType() string { return "amount_changed" }
func (ev AmountChanged) apply(d *Document) (Diff, error) {
	return d.SetAmount(ev.EntryID, ev.Amount)
}

type ModeToggled struct {
	EntryID EntryID
	Unequal bool
}

func (ModeToggled) EventType() string { return "mode_toggled" }
func (ev ModeToggled) apply(d *Document) (Diff, error) {
	mode := ModeEqual
	if ev.Unequal {
		mode = ModeUnequal
	}
	return d.SetMode(ev.EntryID, mode)
}

type SelectionChanged struct {
	EntryID       EntryID
	ParticipantID ParticipantID
	Selected      bool
}

func (SelectionChanged) EventType() string { return "selection_changed" }
func (ev SelectionChanged) apply(d *Document) (Diff, error) {
	return d.ToggleSelection(ev.EntryID, ev.ParticipantID, ev.Selected)
}

type OverrideChanged struct {
	EntryID       EntryID
	ParticipantID ParticipantID
	Value         decimal.Decimal
}

func (OverrideChanged) EventType() string { return "override_changed" }
func (ev OverrideChanged) apply(d *Document) (Diff, error) {
	return d.SetOverride(ev.EntryID, ev.ParticipantID, ev.Value)
}

type SelectAllClicked struct {
	EntryID EntryID
}

func (SelectAllClicked) EventType() string { return "select_all_clicked" }
func (ev SelectAllClicked) apply(d *Document) (Diff, error) {
	return d.SelectAll(ev.EntryID)
}

type ClearClicked struct {
	EntryID EntryID
}

func (ClearClicked) EventType() string { return "clear_clicked" }
func (ev ClearClicked) apply(d *Document) (Diff, error) {
	return d.ClearSelection(ev.EntryID)
}

type TitleChanged struct {
	EntryID EntryID
	Title   string
}

func (TitleChanged) EventType() string { return "title_changed" }
func (ev TitleChanged) apply(d *Document) (Diff, error) {
	return d.SetTitle(ev.EntryID, ev.Title)
}

type PayerChanged struct {
	EntryID       EntryID
	ParticipantID ParticipantID
}

func (PayerChanged) EventType() string { return "payer_changed" }
func (ev PayerChanged) apply(d *Document) (Diff, error) {
	return d.SetPayer(ev.EntryID, ev.ParticipantID)
}

type CategoryChanged struct {
	EntryID  EntryID
	Category string
}

func (CategoryChanged) EventType() string { return "category_changed" }
func (ev CategoryChanged) apply(d *Document) (Diff, error) {
	return d.SetCategory(ev.EntryID, ev.Category)
}

// =============================================================================
// STRUCTURAL EVENTS
// =============================================================================

type ParticipantAdded struct {
	Name string
}

func (ParticipantAdded) EventType() string { return "participant_added" }
func (ev ParticipantAdded) apply(d *Document) (Diff, error) {
	_, diff := d.AddParticipant(ev.Name)
	return diff, nil
}

type ParticipantRenamed struct {
	ParticipantID ParticipantID
	Name          string
}

func (ParticipantRenamed) EventType() string { return "participant_renamed" }
func (ev ParticipantRenamed) apply(d *Document) (Diff, error) {
	return d.RenameParticipant(ev.ParticipantID, ev.Name)
}

type ParticipantRemoved struct {
	ParticipantID ParticipantID
}

func (ParticipantRemoved) EventType() string { return "participant_removed" }
func (ev ParticipantRemoved) apply(d *Document) (Diff, error) {
	return d.RemoveParticipant(ev.ParticipantID)
}

type EntryAdded struct{}

func (EntryAdded) EventType() string { return "entry_added" }
func (EntryAdded) apply(d *Document) (Diff, error) {
	_, diff := d.AddEntry()
	return diff, nil
}

type EntryRemoved struct {
	EntryID EntryID
}

func (EntryRemoved) EventType() string { return "entry_removed" }
func (ev EntryRemoved) apply(d *Document) (Diff, error) {
	return d.RemoveEntry(ev.EntryID)
}

type WorksheetRenamed struct {
	Name string
}

func (WorksheetRenamed) EventType() string { return "worksheet_renamed" }
func (ev WorksheetRenamed) apply(d *Document) (Diff, error) {
	return d.SetName(ev.Name), nil
}

type GridRebuilt struct {
	Participants int
}

func (GridRebuilt) EventType() string { return "grid_rebuilt" }
func (ev GridRebuilt) apply(d *Document) (Diff, error) {
	return d.Rebuild(ev.Participants), nil
}
