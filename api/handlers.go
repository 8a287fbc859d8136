/*
handlers.go - HTTP API handlers for the worksheet service

PURPOSE:
  Exposes the worksheet engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every mutation to the store's Update
  so edits on one worksheet are serialized.

ENDPOINTS:
  Worksheets:
    GET    /api/worksheets                  List worksheets
    POST   /api/worksheets                  Create blank worksheet
    POST   /api/worksheets/import           Create from factory JSON
    GET    /api/worksheets/{id}             Full worksheet with results
    DELETE /api/worksheets/{id}             Delete worksheet
    GET    /api/worksheets/{id}/export      Factory JSON
    POST   /api/worksheets/{id}/rebuild     Replace grid with n participants

  Events:
    POST   /api/worksheets/{id}/events      Apply one input event

  Settlement:
    GET    /api/worksheets/{id}/settlement  Balances and transfers

  Scenarios:
    GET    /api/scenarios                   List demo scenarios
    POST   /api/scenarios/load              Create a worksheet from a scenario

REQUEST FLOW (events):
  1. Decode EventRequest, map it to a worksheet.Event
  2. Store.Update: limit checks, Document.Apply (mutate + recompute)
  3. Respond with the Diff and the entries it names

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, unknown event type, bad import
  - 404: Unknown worksheet, entry or participant
  - 409: Override on an equal-mode entry, participant limit reached
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/splitsheet/factory"
	"github.com/warp/splitsheet/settlement"
	"github.com/warp/splitsheet/worksheet"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Limits bounds worksheet shape.
type Limits struct {
	DefaultParticipants int
	MaxParticipants     int // zero means unlimited
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   worksheet.Store
	Factory *factory.WorksheetFactory
	Metrics *Metrics
	Limits  Limits
	Logger  *slog.Logger
}

// NewHandler creates a new handler with the given store.
func NewHandler(store worksheet.Store, metrics *Metrics, limits Limits) *Handler {
	if limits.DefaultParticipants < 1 {
		limits.DefaultParticipants = 2
	}
	return &Handler{
		Store:   store,
		Factory: &factory.WorksheetFactory{MaxParticipants: limits.MaxParticipants},
		Metrics: metrics,
		Limits:  limits,
		Logger:  slog.Default(),
	}
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// WORKSHEET HANDLERS
// =============================================================================

// ListWorksheets returns summaries of all worksheets.
func (h *Handler) ListWorksheets(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.Store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list worksheets", err)
		return
	}

	dtos := make([]SummaryDTO, len(summaries))
	for i, s := range summaries {
		dtos[i] = toSummaryDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateWorksheet creates a blank worksheet.
func (h *Handler) CreateWorksheet(w http.ResponseWriter, r *http.Request) {
	var req CreateWorksheetRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	n := h.Limits.DefaultParticipants
	if req.Participants != nil {
		n = *req.Participants
	}
	if err := h.checkParticipantCount(n); err != nil {
		h.writeDomainError(w, "Failed to create worksheet", err)
		return
	}

	h.create(w, r, worksheet.New(req.Name, n))
}

// ImportWorksheet creates a worksheet from factory JSON.
func (h *Handler) ImportWorksheet(w http.ResponseWriter, r *http.Request) {
	var wj factory.WorksheetJSON
	if err := json.NewDecoder(r.Body).Decode(&wj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	doc, err := h.Factory.FromJSON(wj)
	if err != nil {
		h.writeDomainError(w, "Failed to import worksheet", err)
		return
	}
	h.create(w, r, doc)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, doc *worksheet.Document) {
	if err := h.Store.Create(r.Context(), doc); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create worksheet", err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.OpenWorksheets.Inc()
	}
	h.logger().Info("worksheet created",
		"worksheet_id", doc.ID,
		"participants", doc.Registry().Len(),
		"entries", len(doc.EntryIDs()),
	)
	writeJSON(w, http.StatusCreated, toWorksheetDTO(doc))
}

// GetWorksheet returns a worksheet with every entry's current result.
func (h *Handler) GetWorksheet(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get worksheet", err)
		return
	}
	writeJSON(w, http.StatusOK, toWorksheetDTO(doc))
}

// ExportWorksheet returns the worksheet in the import format.
func (h *Handler) ExportWorksheet(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to export worksheet", err)
		return
	}
	writeJSON(w, http.StatusOK, factory.Export(doc))
}

// DeleteWorksheet removes a worksheet.
func (h *Handler) DeleteWorksheet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to delete worksheet", err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.OpenWorksheets.Dec()
	}
	h.logger().Info("worksheet deleted", "worksheet_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// RebuildWorksheet replaces the grid with n fresh participants.
func (h *Handler) RebuildWorksheet(w http.ResponseWriter, r *http.Request) {
	var req RebuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.apply(w, r, worksheet.GridRebuilt{Participants: req.Participants})
}

// =============================================================================
// EVENT HANDLERS
// =============================================================================

// ApplyEvent applies one adapter input event and returns what to re-render.
func (h *Handler) ApplyEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ev, err := req.toEvent()
	if err != nil {
		if h.Metrics != nil {
			h.Metrics.EventsTotal.WithLabelValues("unknown", "error").Inc()
		}
		writeError(w, http.StatusBadRequest, "Unknown event type", err)
		return
	}
	h.apply(w, r, ev)
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, ev worksheet.Event) {
	id := chi.URLParam(r, "id")
	start := time.Now()

	var diff worksheet.Diff
	doc, err := h.Store.Update(r.Context(), id, func(d *worksheet.Document) error {
		if err := h.checkEventLimits(d, ev); err != nil {
			return &worksheet.EventError{Type: ev.EventType(), Err: err}
		}
		var err error
		diff, err = d.Apply(ev)
		return err
	})
	if h.Metrics != nil {
		h.Metrics.observeEvent(ev.EventType(), start, err)
	}
	if err != nil {
		h.logger().Warn("event rejected",
			"worksheet_id", id,
			"event", ev.EventType(),
			"error", err,
		)
		h.writeDomainError(w, "Failed to apply event", err)
		return
	}

	if diff.Clamped && h.Metrics != nil {
		h.Metrics.ClampedOverrides.Inc()
	}
	h.logger().Debug("event applied",
		"worksheet_id", id,
		"event", ev.EventType(),
		"changed_entries", len(diff.ChangedEntries),
		"clamped", diff.Clamped,
	)
	writeJSON(w, http.StatusOK, toEventResponse(doc, diff))
}

func (h *Handler) checkEventLimits(d *worksheet.Document, ev worksheet.Event) error {
	switch ev := ev.(type) {
	case worksheet.ParticipantAdded:
		return h.checkParticipantCount(d.Registry().Len() + 1)
	case worksheet.GridRebuilt:
		return h.checkParticipantCount(ev.Participants)
	}
	return nil
}

func (h *Handler) checkParticipantCount(n int) error {
	if h.Limits.MaxParticipants > 0 && n > h.Limits.MaxParticipants {
		return fmt.Errorf("%w: %d participants, limit %d", worksheet.ErrParticipantLimit, n, h.Limits.MaxParticipants)
	}
	return nil
}

// =============================================================================
// SETTLEMENT HANDLERS
// =============================================================================

// GetSettlement returns balances, debt matrices and the transfer plan.
func (h *Handler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get worksheet", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementDTO(doc, settlement.Balances(doc), settlement.Settle(doc)))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status code from the error chain.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, worksheet.ErrWorksheetNotFound),
		errors.Is(err, worksheet.ErrEntryNotFound),
		errors.Is(err, worksheet.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, worksheet.ErrEqualModeOverride),
		errors.Is(err, worksheet.ErrParticipantLimit):
		return http.StatusConflict
	case errors.Is(err, worksheet.ErrUnknownEvent),
		errors.Is(err, factory.ErrNoParticipants),
		errors.Is(err, factory.ErrUnknownName):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
