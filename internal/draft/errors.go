package draft

import (
	"errors"
	"fmt"

	"testdrive-wizard/internal/wizard"
)

var (
	// ErrNotFound is returned when the draft does not exist on the server.
	ErrNotFound = errors.New("draft not found")
	// ErrForbidden is returned when the draft belongs to another brand or
	// the caller may not read it.
	ErrForbidden = errors.New("draft access forbidden")
	// ErrStaleResponse is returned when the wizard was reset or switched to
	// another draft while a gateway call was in flight. The response is dropped.
	ErrStaleResponse = errors.New("stale draft response dropped")
	// ErrAdvanceInFlight is returned when a second advance starts before the
	// first one finished.
	ErrAdvanceInFlight = errors.New("another step transition is in progress")
	// ErrAlreadySubmitted is returned when a submitted draft would be edited.
	ErrAlreadySubmitted = errors.New("draft already submitted")
)

// ValidationError is a local, synchronous rejection. No network call was made.
type ValidationError struct {
	Step    wizard.Step
	Reason  string
	Missing []string
	Err     error
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("step %s: %s (missing: %v)", e.Step, e.Reason, e.Missing)
	}
	return fmt.Sprintf("step %s: %s", e.Step, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SyncError reports a failed create or update. Local state was not changed
// and the same call can be retried.
type SyncError struct {
	Op   string
	Step wizard.Step
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("draft %s failed at step %s: %v", e.Op, e.Step, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// HydrationError reports a draft that could not be loaded into the wizard.
type HydrationError struct {
	DraftID string
	Err     error
}

func (e *HydrationError) Error() string {
	return fmt.Sprintf("load draft %s: %v", e.DraftID, e.Err)
}

func (e *HydrationError) Unwrap() error { return e.Err }

// Kind names the category of err for display and scripted expectations:
// validation, submitted, not_found, forbidden, stale, in_flight, sync,
// vehicle_locked, invalid_step or error. A nil error has kind "".
func Kind(err error) string {
	var (
		validation *ValidationError
		sync       *SyncError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAlreadySubmitted):
		return "submitted"
	case errors.Is(err, wizard.ErrInvalidStep):
		return "invalid_step"
	case errors.As(err, &validation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrStaleResponse):
		return "stale"
	case errors.Is(err, ErrAdvanceInFlight):
		return "in_flight"
	case errors.Is(err, wizard.ErrVehicleLocked):
		return "vehicle_locked"
	case errors.As(err, &sync):
		return "sync"
	}
	return "error"
}
