package draft

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"testdrive-wizard/internal/wizard"
)

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&ValidationError{Step: wizard.StepReturn, Reason: "required data missing"}, "validation"},
		{&ValidationError{Step: wizard.StepConfirmation, Err: ErrAlreadySubmitted}, "submitted"},
		{&ValidationError{Step: 9, Err: wizard.ErrInvalidStep}, "invalid_step"},
		{&HydrationError{DraftID: "d", Err: ErrNotFound}, "not_found"},
		{&HydrationError{DraftID: "d", Err: ErrForbidden}, "forbidden"},
		{ErrStaleResponse, "stale"},
		{ErrAdvanceInFlight, "in_flight"},
		{fmt.Errorf("set: %w", wizard.ErrVehicleLocked), "vehicle_locked"},
		{&SyncError{Op: "create", Step: wizard.StepCustomer, Err: errors.New("connection refused")}, "sync"},
		{errors.New("boom"), "error"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Kind(tc.err), "%v", tc.err)
	}
}
