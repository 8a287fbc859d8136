/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built worksheets for demos and manual testing. Each
	scenario is a worksheet in the factory JSON format, optionally followed
	by input events replayed the way an adapter would send them.

AVAILABLE SCENARIOS:

	equal-pair:      100 split equally between two people
	unequal-fill:    One override of 40, remainder auto-filled across two
	clamped:         Override of 70 on a 50 entry, clamped to the amount
	mode-round-trip: Unequal -> Equal -> Unequal discards the overrides
	weekend-trip:    Four people, several payers, settlement demo

HOW SCENARIOS WORK:
 1. Parse the worksheet JSON via the factory
 2. Apply follow-up events through Document.Apply
 3. Store the result as a new worksheet

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "unequal-fill"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add the worksheet JSON (and events) to scenarioDefs

NOTE:

	Unlike a reset, loading a scenario only adds a worksheet. Existing
	worksheets are untouched.

SEE ALSO:
  - handlers.go: Worksheet handlers
  - factory/worksheet.go: Worksheet JSON definitions
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/warp/splitsheet/worksheet"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "equal-pair",
		Name:        "Equal Pair",
		Description: "100.00 split equally between two people",
		Category:    "equal",
	},
	{
		ID:          "unequal-fill",
		Name:        "Unequal With Auto-Fill",
		Description: "One person owes 40.00, the other two share the remaining 60.00",
		Category:    "unequal",
	},
	{
		ID:          "clamped",
		Name:        "Clamped Override",
		Description: "An override of 70.00 on a 50.00 entry is clamped to 50.00",
		Category:    "unequal",
	},
	{
		ID:          "mode-round-trip",
		Name:        "Mode Round Trip",
		Description: "Switching to equal discards overrides; switching back starts empty",
		Category:    "unequal",
	},
	{
		ID:          "weekend-trip",
		Name:        "Weekend Trip",
		Description: "Four friends, mixed equal and unequal entries, settlement plan",
		Category:    "settlement",
	},
}

type scenarioDef struct {
	worksheet string
	events    []worksheet.Event
}

var scenarioDefs = map[string]scenarioDef{
	"equal-pair": {worksheet: `{
		"metadata": {"split_name": "Equal pair"},
		"names": ["Ana", "Ben"],
		"transactions": [
			{"title": "Groceries", "amount": "100", "paid_by": "Ana", "checked_names": ["Ana", "Ben"]}
		]
	}`},

	"unequal-fill": {worksheet: `{
		"metadata": {"split_name": "Unequal with auto-fill"},
		"names": ["Ana", "Ben", "Cy"],
		"transactions": [
			{
				"title": "Concert tickets",
				"amount": "100",
				"even_split": false,
				"checked_names": ["Ana", "Ben", "Cy"],
				"uneven_split_map": {"Ana": 40}
			}
		]
	}`},

	"clamped": {worksheet: `{
		"metadata": {"split_name": "Clamped override"},
		"names": ["Ana", "Ben"],
		"transactions": [
			{
				"title": "Museum",
				"amount": "50",
				"paid_by": "Ben",
				"even_split": false,
				"checked_names": ["Ana"],
				"uneven_split_map": {"Ana": 70}
			}
		]
	}`},

	"mode-round-trip": {
		worksheet: `{
			"metadata": {"split_name": "Mode round trip"},
			"names": ["Ana", "Ben"],
			"transactions": [
				{
					"title": "Hotel",
					"amount": "100",
					"paid_by": "Ana",
					"even_split": false,
					"checked_names": ["Ana", "Ben"],
					"uneven_split_map": {"Ana": 70}
				}
			]
		}`,
		events: []worksheet.Event{
			worksheet.ModeToggled{EntryID: 1, Unequal: false},
			worksheet.ModeToggled{EntryID: 1, Unequal: true},
		},
	},

	"weekend-trip": {
		worksheet: `{
			"metadata": {"split_name": "Weekend trip"},
			"names": ["Ana", "Ben", "Cy", "Dee"],
			"transactions": [
				{"title": "Cabin", "amount": "480", "paid_by": "Ana", "category": "lodging",
				 "checked_names": ["Ana", "Ben", "Cy", "Dee"]},
				{"title": "Dinner", "amount": "135.50", "paid_by": "Ben", "category": "food",
				 "even_split": false, "checked_names": ["Ana", "Ben", "Cy", "Dee"],
				 "uneven_split_map": {"Dee": 20}},
				{"title": "Fuel", "amount": "64", "paid_by": "Cy", "category": "transport",
				 "checked_names": ["Ana", "Cy"]},
				{"title": "Kayaks", "amount": "100", "paid_by": "Dee", "category": "activities",
				 "checked_names": ["Ben", "Cy", "Dee"]}
			]
		}`,
		events: []worksheet.Event{
			worksheet.EntryAdded{},
			worksheet.TitleChanged{EntryID: 5, Title: "Snacks"},
			worksheet.CategoryChanged{EntryID: 5, Category: "food"},
			worksheet.PayerChanged{EntryID: 5, ParticipantID: 2},
			worksheet.AmountChanged{EntryID: 5, Amount: decimal.NewFromInt(20)},
			worksheet.SelectAllClicked{EntryID: 5},
		},
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario creates a new worksheet from a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	def, ok := scenarioDefs[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	doc, err := h.buildScenario(def)
	if err != nil {
		h.writeDomainError(w, "Failed to load scenario", err)
		return
	}

	h.logger().Info("scenario loaded", "scenario", req.ScenarioID)
	h.create(w, r, doc)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) buildScenario(def scenarioDef) (*worksheet.Document, error) {
	doc, err := h.Factory.ParseWorksheet(def.worksheet)
	if err != nil {
		return nil, err
	}
	for _, ev := range def.events {
		if _, err := doc.Apply(ev); err != nil {
			return nil, err
		}
	}
	return doc, nil
}
