package draft

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"testdrive-wizard/internal/entities"
	"testdrive-wizard/internal/wizard"
)

// Coordinator runs step transitions: validate locally, create or update the
// draft, fold the response back into the container, then move.
type Coordinator struct {
	container *wizard.Container
	gateway   Gateway
	brand     entities.Brand
	logger    *slog.Logger
	inFlight  atomic.Bool
}

// AdvanceResult describes a completed transition.
type AdvanceResult struct {
	Step      wizard.Step
	Form      *entities.TestDriveForm
	Created   bool
	Submitted bool
}

func NewCoordinator(container *wizard.Container, gateway Gateway, brand entities.Brand, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{container: container, gateway: gateway, brand: brand, logger: logger}
}

// Advance completes step, which must be the current one.
func (c *Coordinator) Advance(ctx context.Context, step wizard.Step) (AdvanceResult, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return AdvanceResult{}, ErrAdvanceInFlight
	}
	defer c.inFlight.Store(false)

	epoch := c.container.Epoch()
	state := c.container.State()
	if err := c.validate(state, step); err != nil {
		return AdvanceResult{}, err
	}

	submit := step == wizard.StepConfirmation && state.VehicleAutofilled
	fields, op := c.payload(state, step, submit)

	var (
		form *entities.TestDriveForm
		err  error
	)
	if op == "create" {
		form, err = c.gateway.Create(ctx, fields)
	} else {
		form, err = c.gateway.Update(ctx, state.DraftID(), fields)
	}
	if err == nil && (form == nil || form.ID == "") {
		err = fmt.Errorf("server returned no draft id")
	}
	if err != nil {
		c.logger.Warn("draft sync failed", "op", op, "step", step, "error", err)
		return AdvanceResult{}, &SyncError{Op: op, Step: step, Err: err}
	}

	if c.container.Epoch() != epoch || c.container.DraftFormID() != state.DraftID() {
		c.logger.Info("dropping stale draft response", "op", op, "draft", form.ID)
		return AdvanceResult{}, ErrStaleResponse
	}

	form.Status = form.Status.Normalize()
	c.container.AttachDraft(*form)
	c.refreshOwnField(step, *form)

	result := AdvanceResult{Step: step, Form: form.Clone(), Created: op == "create"}
	if step == wizard.StepConfirmation {
		result.Submitted = form.IsSubmitted()
		c.logger.Info("confirmation sent", "draft", form.ID, "submitted", result.Submitted)
		return result, nil
	}
	if err := c.container.SetStep(step.Next()); err != nil {
		return AdvanceResult{}, err
	}
	result.Step = step.Next()
	c.logger.Debug("step advanced", "from", step, "to", result.Step, "draft", form.ID)
	return result, nil
}

func (c *Coordinator) validate(state wizard.State, step wizard.Step) error {
	if !step.Valid() {
		return &ValidationError{Step: step, Reason: "unknown step", Err: wizard.ErrInvalidStep}
	}
	if step != state.CurrentStep {
		return &ValidationError{Step: step, Reason: fmt.Sprintf("wizard is on step %s", state.CurrentStep)}
	}
	if step == wizard.StepConfirmation && state.Submitted() {
		return &ValidationError{Step: step, Reason: "draft already submitted", Err: ErrAlreadySubmitted}
	}
	if !wizard.GateFor(step)(state) {
		return &ValidationError{Step: step, Reason: "required data missing", Missing: wizard.MissingFor(state, step)}
	}
	if reason := shapeCheck(state, step); reason != "" {
		return &ValidationError{Step: step, Reason: reason}
	}
	return nil
}

// payload builds the request body and names the operation.
func (c *Coordinator) payload(state wizard.State, step wizard.Step, submit bool) (Fields, string) {
	var fields Fields
	op := "update"
	switch {
	case step == wizard.StepConfirmation:
		fields = CumulativeFields(state, wizard.StepReturn)
		status := entities.StatusDraft
		marker := entities.MarkerVehicleReturnData
		if submit {
			status = entities.StatusSubmitted
			marker = entities.MarkerFinalConfirmation
		}
		fields.Status = &status
		fields.CurrentStep = &marker
	case !state.HasDraft():
		fields = CumulativeFields(state, step)
		status := entities.StatusDraft
		fields.Status = &status
		fields.CurrentStep = ptr(NextMarker(step))
	default:
		fields = StepFields(state, step)
		fields.CurrentStep = ptr(NextMarker(step))
	}
	if !state.HasDraft() {
		op = "create"
		if c.brand != "" {
			brand := c.brand
			fields.Brand = &brand
		}
	}
	return fields, op
}

// refreshOwnField copies the completing step's own data back from the
// server when the server returned it.
func (c *Coordinator) refreshOwnField(step wizard.Step, form entities.TestDriveForm) {
	switch step {
	case wizard.StepEvaluation:
		if form.PurchaseProbability != nil {
			c.container.SetEvaluation(*evaluationFromForm(form))
		}
	case wizard.StepReturn:
		if rs := returnStateFromRemote(form.ReturnState); rs != nil && rs.HasPhotoProof() {
			c.container.SetReturnState(*rs)
		}
	}
}

// Back moves one step back. It is never gated.
func (c *Coordinator) Back() (wizard.Step, error) {
	prev := c.container.CurrentStep().Prev()
	if err := c.container.SetStep(prev); err != nil {
		return 0, err
	}
	return prev, nil
}

// Enter jumps to step when it is behind the current one or every earlier
// step is complete.
func (c *Coordinator) Enter(step wizard.Step) error {
	state := c.container.State()
	if !wizard.CanEnter(state, step) {
		return &ValidationError{
			Step:    step,
			Reason:  "earlier steps are incomplete",
			Missing: wizard.MissingItems(state),
		}
	}
	return c.container.SetStep(step)
}
