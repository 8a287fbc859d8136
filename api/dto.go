/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the worksheet model from the external API contract. Ids are plain
  integers on the wire; money is rendered as 2-decimal strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Worksheet:
    WorksheetDTO, SummaryDTO, CreateWorksheetRequest, RebuildRequest

  Entries:
    EntryDTO, ResultDTO

  Events:
    EventRequest, EventResponse, DiffDTO

  Settlement:
    SettlementDTO, BalanceDTO, MatrixDTO, TransferDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

NUMERIC INPUT:
  Amounts in requests accept JSON numbers or strings. Empty, malformed and
  negative values are read as zero, the same way a blank form field is.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/worksheet.go: Import/export JSON format
*/
package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/splitsheet/settlement"
	"github.com/warp/splitsheet/worksheet"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// amountInput reads a lenient user amount.
type amountInput struct {
	decimal.Decimal
}

func (a *amountInput) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	if s == "null" {
		s = ""
	}
	a.Decimal = worksheet.ParseAmount(s)
	return nil
}

// CreateWorksheetRequest is the request to create a blank worksheet.
type CreateWorksheetRequest struct {
	Name         string `json:"name"`
	Participants *int   `json:"participants,omitempty"`
}

// RebuildRequest replaces the grid with n participants.
type RebuildRequest struct {
	Participants int `json:"participants"`
}

// EventRequest is one adapter input event. Only the fields relevant to
// Type are read.
type EventRequest struct {
	Type          string      `json:"type"`
	EntryID       int         `json:"entry_id,omitempty"`
	ParticipantID int         `json:"participant_id,omitempty"`
	Amount        amountInput `json:"amount"`
	Value         amountInput `json:"value"`
	Unequal       bool        `json:"unequal,omitempty"`
	Selected      bool        `json:"selected,omitempty"`
	Name          string      `json:"name,omitempty"`
	Title         string      `json:"title,omitempty"`
	Category      string      `json:"category,omitempty"`
	Participants  int         `json:"participants,omitempty"`
}

func (r EventRequest) toEvent() (worksheet.Event, error) {
	entry := worksheet.EntryID(r.EntryID)
	participant := worksheet.ParticipantID(r.ParticipantID)

	switch r.Type {
	case "amount_changed":
		return worksheet.AmountChanged{EntryID: entry, Amount: r.Amount.Decimal}, nil
	case "mode_toggled":
		return worksheet.ModeToggled{EntryID: entry, Unequal: r.Unequal}, nil
	case "selection_changed":
		return worksheet.SelectionChanged{EntryID: entry, ParticipantID: participant, Selected: r.Selected}, nil
	case "override_changed":
		return worksheet.OverrideChanged{EntryID: entry, ParticipantID: participant, Value: r.Value.Decimal}, nil
	case "select_all_clicked":
		return worksheet.SelectAllClicked{EntryID: entry}, nil
	case "clear_clicked":
		return worksheet.ClearClicked{EntryID: entry}, nil
	case "title_changed":
		return worksheet.TitleChanged{EntryID: entry, Title: r.Title}, nil
	case "payer_changed":
		return worksheet.PayerChanged{EntryID: entry, ParticipantID: participant}, nil
	case "category_changed":
		return worksheet.CategoryChanged{EntryID: entry, Category: r.Category}, nil
	case "participant_added":
		return worksheet.ParticipantAdded{Name: r.Name}, nil
	case "participant_renamed":
		return worksheet.ParticipantRenamed{ParticipantID: participant, Name: r.Name}, nil
	case "participant_removed":
		return worksheet.ParticipantRemoved{ParticipantID: participant}, nil
	case "entry_added":
		return worksheet.EntryAdded{}, nil
	case "entry_removed":
		return worksheet.EntryRemoved{EntryID: entry}, nil
	case "worksheet_renamed":
		return worksheet.WorksheetRenamed{Name: r.Name}, nil
	case "grid_rebuilt":
		return worksheet.GridRebuilt{Participants: r.Participants}, nil
	}
	return nil, fmt.Errorf("%w: %q", worksheet.ErrUnknownEvent, r.Type)
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type ParticipantDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ResultDTO is an entry's allocation. Map keys are participant ids.
type ResultDTO struct {
	Shares          map[int]string `json:"shares"`
	AmountLeft      string         `json:"amount_left"`
	PerShareAverage string         `json:"per_share_average"`
	SpecifiedTotal  string         `json:"specified_total"`
	AutoFilled      map[int]string `json:"auto_filled,omitempty"`
}

type EntryDTO struct {
	ID        int            `json:"id"`
	Title     string         `json:"title"`
	Amount    string         `json:"amount"`
	Mode      string         `json:"mode"`
	Selected  []int          `json:"selected"`
	Overrides map[int]string `json:"overrides,omitempty"`
	PaidBy    *int           `json:"paid_by"`
	Category  string         `json:"category,omitempty"`
	Result    ResultDTO      `json:"result"`
}

type WorksheetDTO struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Participants []ParticipantDTO `json:"participants"`
	Entries      []EntryDTO       `json:"entries"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at"`
}

type SummaryDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Participants int    `json:"participants"`
	Entries      int    `json:"entries"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type DiffDTO struct {
	ChangedEntries      []int `json:"changed_entries"`
	RemovedEntries      []int `json:"removed_entries"`
	RegistryChanged     bool  `json:"registry_changed"`
	PayerOptionsChanged bool  `json:"payer_options_changed"`
	Rebuilt             bool  `json:"rebuilt"`
	Clamped             bool  `json:"clamped"`
}

// EventResponse carries the diff plus everything it asks to re-render:
// changed entries always, participants when the registry changed.
type EventResponse struct {
	Diff         DiffDTO          `json:"diff"`
	Entries      []EntryDTO       `json:"entries"`
	Participants []ParticipantDTO `json:"participants,omitempty"`
}

type BalanceDTO struct {
	ParticipantID int    `json:"participant_id"`
	Name          string `json:"name"`
	TotalPaid     string `json:"total_paid"`
	TotalOwed     string `json:"total_owed"`
	Net           string `json:"net"`
}

// MatrixDTO is a debt matrix; Cells[i][j] is what Participants[i] owes
// Participants[j].
type MatrixDTO struct {
	Participants []int      `json:"participants"`
	Cells        [][]string `json:"cells"`
}

type TransferDTO struct {
	From     int    `json:"from"`
	FromName string `json:"from_name"`
	To       int    `json:"to"`
	ToName   string `json:"to_name"`
	Amount   string `json:"amount"`
}

type SettlementDTO struct {
	Balances  []BalanceDTO  `json:"balances"`
	Matrix    MatrixDTO     `json:"matrix"`
	Netted    MatrixDTO     `json:"netted"`
	Transfers []TransferDTO `json:"transfers"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// ErrorResponse is returned for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func money(d decimal.Decimal) string {
	return d.StringFixed(worksheet.Precision)
}

func moneyMap(m map[worksheet.ParticipantID]decimal.Decimal) map[int]string {
	out := make(map[int]string, len(m))
	for id, v := range m {
		out[int(id)] = money(v)
	}
	return out
}

func toParticipantDTOs(ps []worksheet.Participant) []ParticipantDTO {
	out := make([]ParticipantDTO, len(ps))
	for i, p := range ps {
		out[i] = ParticipantDTO{ID: int(p.ID), Name: p.Name}
	}
	return out
}

func toEntryDTO(doc *worksheet.Document, e worksheet.Entry) EntryDTO {
	dto := EntryDTO{
		ID:       int(e.ID),
		Title:    e.Title,
		Amount:   money(e.Amount),
		Mode:     string(e.Mode),
		Selected: []int{},
		Category: e.Category,
	}
	for _, id := range e.SelectedIDs() {
		dto.Selected = append(dto.Selected, int(id))
	}
	if e.Mode == worksheet.ModeUnequal {
		dto.Overrides = moneyMap(e.Overrides)
	}
	if e.PaidBy != worksheet.NoPayer {
		payer := int(e.PaidBy)
		dto.PaidBy = &payer
	}
	if res, ok := doc.Result(e.ID); ok {
		dto.Result = ResultDTO{
			Shares:          moneyMap(res.Shares),
			AmountLeft:      money(res.AmountLeft),
			PerShareAverage: money(res.PerShareAverage),
			SpecifiedTotal:  money(res.SpecifiedTotal),
		}
		if len(res.AutoFilled) > 0 {
			dto.Result.AutoFilled = moneyMap(res.AutoFilled)
		}
	}
	return dto
}

func toWorksheetDTO(doc *worksheet.Document) WorksheetDTO {
	dto := WorksheetDTO{
		ID:           doc.ID,
		Name:         doc.Name,
		Participants: toParticipantDTOs(doc.Registry().Participants()),
		Entries:      []EntryDTO{},
		CreatedAt:    doc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    doc.UpdatedAt.Format(time.RFC3339),
	}
	for _, e := range doc.Entries() {
		dto.Entries = append(dto.Entries, toEntryDTO(doc, e))
	}
	return dto
}

func toSummaryDTO(s worksheet.Summary) SummaryDTO {
	return SummaryDTO{
		ID:           s.ID,
		Name:         s.Name,
		Participants: s.Participants,
		Entries:      s.Entries,
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    s.UpdatedAt.Format(time.RFC3339),
	}
}

func entryIDs(ids []worksheet.EntryID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

func toEventResponse(doc *worksheet.Document, diff worksheet.Diff) EventResponse {
	resp := EventResponse{
		Diff: DiffDTO{
			ChangedEntries:      entryIDs(diff.ChangedEntries),
			RemovedEntries:      entryIDs(diff.RemovedEntries),
			RegistryChanged:     diff.RegistryChanged,
			PayerOptionsChanged: diff.PayerOptionsChanged,
			Rebuilt:             diff.Rebuilt,
			Clamped:             diff.Clamped,
		},
		Entries: []EntryDTO{},
	}
	for _, id := range diff.ChangedEntries {
		if e, ok := doc.Entry(id); ok {
			resp.Entries = append(resp.Entries, toEntryDTO(doc, e))
		}
	}
	if diff.RegistryChanged || diff.PayerOptionsChanged {
		resp.Participants = toParticipantDTOs(doc.PayerOptions())
	}
	return resp
}

func toMatrixDTO(m settlement.Matrix) MatrixDTO {
	dto := MatrixDTO{
		Participants: make([]int, len(m.IDs)),
		Cells:        make([][]string, len(m.Cells)),
	}
	for i, id := range m.IDs {
		dto.Participants[i] = int(id)
	}
	for i, row := range m.Cells {
		dto.Cells[i] = make([]string, len(row))
		for j, v := range row {
			dto.Cells[i][j] = money(v)
		}
	}
	return dto
}

func toSettlementDTO(doc *worksheet.Document, balances []settlement.Balance, plan settlement.Plan) SettlementDTO {
	reg := doc.Registry()
	dto := SettlementDTO{
		Balances:  make([]BalanceDTO, len(balances)),
		Matrix:    toMatrixDTO(plan.Original),
		Netted:    toMatrixDTO(plan.Netted),
		Transfers: []TransferDTO{},
	}
	for i, b := range balances {
		dto.Balances[i] = BalanceDTO{
			ParticipantID: int(b.ParticipantID),
			Name:          b.Name,
			TotalPaid:     money(b.TotalPaid),
			TotalOwed:     money(b.TotalOwed),
			Net:           money(b.Net),
		}
	}
	for _, t := range plan.Transfers {
		dto.Transfers = append(dto.Transfers, TransferDTO{
			From:     int(t.From),
			FromName: reg.Name(t.From),
			To:       int(t.To),
			ToName:   reg.Name(t.To),
			Amount:   money(t.Amount),
		})
	}
	return dto
}
