/*
errors.go - Error types for the worksheet engine

PURPOSE:
  The allocation engine itself never fails: malformed numbers become zero
  and over-allocation is clamped. Errors exist only for addressing failures
  (unknown worksheet, entry or participant) and for events the coordinator
  cannot apply.

USAGE:
  if errors.Is(err, worksheet.ErrEntryNotFound) {
      // 404
  }

  var evErr *worksheet.EventError
  if errors.As(err, &evErr) {
      log.Warn("event rejected", "type", evErr.Type)
  }
*/
package worksheet

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrWorksheetNotFound is returned by stores for unknown worksheet ids.
	ErrWorksheetNotFound = errors.New("worksheet not found")

	// ErrEntryNotFound is returned when an event references a missing row.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrParticipantNotFound is returned when an event references a missing column.
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrEqualModeOverride is returned for override edits on an equal-mode entry.
	ErrEqualModeOverride = errors.New("overrides require unequal mode")

	// ErrUnknownEvent is returned for nil or unrecognized events.
	ErrUnknownEvent = errors.New("unknown event")

	// ErrParticipantLimit is returned when a worksheet would exceed its
	// configured column count.
	ErrParticipantLimit = errors.New("participant limit reached")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// EventError reports which event failed to apply.
type EventError struct {
	Type string
	Err  error
}

func (e *EventError) Error() string {
	return fmt.Sprintf("apply %s: %v", e.Type, e.Err)
}

func (e *EventError) Unwrap() error { return e.Err }

func entryNotFound(id EntryID) error {
	return fmt.Errorf("%w: %d", ErrEntryNotFound, id)
}

func participantNotFound(id ParticipantID) error {
	return fmt.Errorf("%w: %d", ErrParticipantNotFound, id)
}
