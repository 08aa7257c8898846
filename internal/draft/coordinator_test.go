package draft

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testdrive-wizard/internal/entities"
	"testdrive-wizard/internal/wizard"
)

func newCoordinator(t *testing.T) (*Coordinator, *wizard.Container, *fakeGateway) {
	t.Helper()
	c := wizard.NewContainer(nil, nil)
	gw := newFakeGateway()
	return NewCoordinator(c, gw, entities.BrandMercedesBenz, nil), c, gw
}

func fillThroughReturn(c *wizard.Container) {
	c.SetCustomer(entities.Customer{ID: "c-1", FirstName: "Ana"})
	c.SetVehicle(entities.Vehicle{ID: "v-1", Make: "Mercedes-Benz", Model: "GLA"})
	c.SetLocation(entities.Location{ID: "l-1", Name: "Showroom"})
	c.SetSignatureData("data:image/png;base64,AAA")
	c.SetEvaluation(entities.Evaluation{PurchaseProbability: 60, EstimatedPurchaseDate: "2026-12-01", Observations: "  "})
	c.SetReturnState(entities.ReturnState{
		MileageImageURL:   "https://img/m.jpg",
		FuelLevelImageURL: "https://img/f.jpg",
		ImageURLs:         []string{"https://img/1.jpg"},
	})
}

func walkTo(t *testing.T, co *Coordinator, target wizard.Step) {
	t.Helper()
	for step := wizard.FirstStep; step < target; step++ {
		_, err := co.Advance(context.Background(), step)
		require.NoError(t, err, "advance %s", step)
	}
}

// First advance creates the draft and moves to the vehicle step.
func TestAdvanceCreatesDraftOnFirstStep(t *testing.T) {
	co, c, gw := newCoordinator(t)
	c.SetCustomer(entities.Customer{ID: "c-1"})

	res, err := co.Advance(context.Background(), wizard.StepCustomer)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, wizard.StepVehicle, res.Step)

	require.Len(t, gw.creates, 1)
	sent := gw.creates[0]
	assert.Equal(t, "c-1", *sent.CustomerID)
	assert.Equal(t, entities.BrandMercedesBenz, *sent.Brand)
	assert.Equal(t, entities.StatusDraft, *sent.Status)
	assert.Equal(t, entities.MarkerVehicleData, *sent.CurrentStep)

	assert.Equal(t, "draft-1", c.DraftFormID())
	assert.Equal(t, "draft-1", c.RemoteForm().ID)
	assert.Equal(t, wizard.StepVehicle, c.CurrentStep())
	assert.Equal(t, wizard.StepCustomer, c.PreviousStep())
}

func TestAdvancePatchesOnlyStepFields(t *testing.T) {
	co, c, gw := newCoordinator(t)
	fillThroughReturn(c)
	walkTo(t, co, wizard.StepSignature)

	require.Len(t, gw.updates, 1)
	sent := gw.updates[0]
	assert.Equal(t, "v-1", *sent.VehicleID)
	assert.Equal(t, "l-1", *sent.LocationID)
	assert.Nil(t, sent.CustomerID)
	assert.Nil(t, sent.Brand)
	assert.Nil(t, sent.Status)
	assert.Equal(t, entities.MarkerSignatureData, *sent.CurrentStep)
}

func TestAdvanceCreatesWithCumulativeFieldsWhenDraftMissing(t *testing.T) {
	co, c, gw := newCoordinator(t)
	fillThroughReturn(c)
	require.NoError(t, c.SetStep(wizard.StepSignature))

	_, err := co.Advance(context.Background(), wizard.StepSignature)
	require.NoError(t, err)

	require.Len(t, gw.creates, 1)
	sent := gw.creates[0]
	assert.Equal(t, "c-1", *sent.CustomerID)
	assert.Equal(t, "v-1", *sent.VehicleID)
	assert.Equal(t, "data:image/png;base64,AAA", *sent.SignatureData)
	assert.Nil(t, sent.PurchaseProbability, "later steps are not sent")
	assert.Equal(t, entities.MarkerEvaluationData, *sent.CurrentStep)
}

func TestEvaluationObservationsTrimmedAndOmitted(t *testing.T) {
	co, c, gw := newCoordinator(t)
	fillThroughReturn(c)
	walkTo(t, co, wizard.StepReturn)

	sent := gw.updates[len(gw.updates)-1]
	assert.Equal(t, 60, *sent.PurchaseProbability)
	assert.Nil(t, sent.Observations)
	assert.Equal(t, entities.Evaluation{PurchaseProbability: 60, EstimatedPurchaseDate: "2026-12-01"}, *c.Evaluation(),
		"evaluation refreshed from the server copy")
}

// Missing fuel photo: gate 5 fails and nothing is sent.
func TestReturnStepRejectsMissingFuelPhoto(t *testing.T) {
	co, c, gw := newCoordinator(t)
	fillThroughReturn(c)
	walkTo(t, co, wizard.StepReturn)
	c.SetReturnState(entities.ReturnState{MileageImageURL: "https://img/m.jpg", ImageURLs: []string{"https://img/1.jpg"}})
	calls := len(gw.updates)

	_, err := co.Advance(context.Background(), wizard.StepReturn)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"fuel level photo"}, verr.Missing)
	assert.Len(t, gw.updates, calls)
	assert.Equal(t, wizard.StepReturn, c.CurrentStep())
}

// Confirmation without autofill keeps the draft open.
func TestConfirmationWithoutAutofillStaysDraft(t *testing.T) {
	co, c, gw := newCoordinator(t)
	fillThroughReturn(c)
	walkTo(t, co, wizard.StepConfirmation)

	res, err := co.Advance(context.Background(), wizard.StepConfirmation)
	require.NoError(t, err)
	assert.False(t, res.Submitted)
	assert.Equal(t, wizard.StepConfirmation, c.CurrentStep())

	sent := gw.updates[len(gw.updates)-1]
	assert.Equal(t, entities.StatusDraft, *sent.Status)
	assert.Equal(t, entities.MarkerVehicleReturnData, *sent.CurrentStep)
	assert.Equal(t, "c-1", *sent.CustomerID, "confirmation sends the full form")
	assert.Equal(t, []string{"https://img/1.jpg"}, sent.ReturnState.Images)
	assert.Equal(t, entities.StatusDraft, c.RemoteForm().Status)
}

func TestConfirmationWithAutofillSubmits(t *testing.T) {
	co, c, gw := newCoordinator(t)
	fillThroughReturn(c)
	c.SetVehicleAutofilled(true)
	walkTo(t, co, wizard.StepConfirmation)

	res, err := co.Advance(context.Background(), wizard.StepConfirmation)
	require.NoError(t, err)
	assert.True(t, res.Submitted)

	sent := gw.updates[len(gw.updates)-1]
	assert.Equal(t, entities.StatusSubmitted, *sent.Status)
	assert.Equal(t, entities.MarkerFinalConfirmation, *sent.CurrentStep)

	_, err = co.Advance(context.Background(), wizard.StepConfirmation)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestAdvanceRejectsNonCurrentStep(t *testing.T) {
	co, c, gw := newCoordinator(t)
	fillThroughReturn(c)

	_, err := co.Advance(context.Background(), wizard.StepVehicle)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Empty(t, gw.creates)
	assert.Equal(t, wizard.StepCustomer, c.CurrentStep())
}

func TestAdvanceRejectsCustomerWithoutID(t *testing.T) {
	co, c, gw := newCoordinator(t)
	c.SetCustomer(entities.Customer{FirstName: "Ana"})

	_, err := co.Advance(context.Background(), wizard.StepCustomer)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "customer has no id", verr.Reason)
	assert.Empty(t, gw.creates)
}

func TestSyncFailureLeavesStateUntouched(t *testing.T) {
	co, c, gw := newCoordinator(t)
	c.SetCustomer(entities.Customer{ID: "c-1"})
	gw.createErr = errors.New("connection refused")

	_, err := co.Advance(context.Background(), wizard.StepCustomer)
	var serr *SyncError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "create", serr.Op)
	assert.Equal(t, "", c.DraftFormID())
	assert.Nil(t, c.RemoteForm())
	assert.Equal(t, wizard.StepCustomer, c.CurrentStep())

	gw.createErr = nil
	res, err := co.Advance(context.Background(), wizard.StepCustomer)
	require.NoError(t, err, "retry is the same call")
	assert.Equal(t, wizard.StepVehicle, res.Step)
}

func TestResponseAfterResetIsDropped(t *testing.T) {
	co, c, gw := newCoordinator(t)
	c.SetCustomer(entities.Customer{ID: "c-1"})
	gw.during = c.Reset

	_, err := co.Advance(context.Background(), wizard.StepCustomer)
	assert.ErrorIs(t, err, ErrStaleResponse)
	assert.Equal(t, wizard.DefaultState(), c.State())
}

func TestConcurrentAdvanceIsRejected(t *testing.T) {
	co, c, gw := newCoordinator(t)
	c.SetCustomer(entities.Customer{ID: "c-1"})

	entered := make(chan struct{})
	release := make(chan struct{})
	gw.during = func() {
		close(entered)
		<-release
	}

	done := make(chan error, 1)
	go func() {
		_, err := co.Advance(context.Background(), wizard.StepCustomer)
		done <- err
	}()
	<-entered

	_, err := co.Advance(context.Background(), wizard.StepCustomer)
	assert.ErrorIs(t, err, ErrAdvanceInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, wizard.StepVehicle, c.CurrentStep())
}

func TestBackAndEnter(t *testing.T) {
	co, c, _ := newCoordinator(t)
	fillThroughReturn(c)
	walkTo(t, co, wizard.StepEvaluation)

	step, err := co.Back()
	require.NoError(t, err)
	assert.Equal(t, wizard.StepSignature, step)

	require.NoError(t, co.Enter(wizard.StepReturn), "earlier steps are complete")
	assert.Equal(t, wizard.StepReturn, c.CurrentStep())

	c.Reset()
	err = co.Enter(wizard.StepEvaluation)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	step, err = co.Back()
	require.NoError(t, err)
	assert.Equal(t, wizard.StepCustomer, step)
}

func TestCumulativeFields(t *testing.T) {
	c := wizard.NewContainer(nil, nil)
	fillThroughReturn(c)
	s := c.State()

	f := CumulativeFields(s, wizard.StepVehicle)
	assert.Equal(t, "c-1", *f.CustomerID)
	assert.Equal(t, "l-1", *f.LocationID)
	assert.Nil(t, f.SignatureData)

	assert.Equal(t, Fields{}, StepFields(s, wizard.StepConfirmation))
	assert.Equal(t, entities.MarkerFinalConfirmation, NextMarker(wizard.StepReturn))
}
