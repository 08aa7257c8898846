package draft

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"testdrive-wizard/internal/entities"
	"testdrive-wizard/internal/wizard"
)

// Synchronizer loads a server draft into the wizard container.
type Synchronizer struct {
	mu        sync.Mutex
	container *wizard.Container
	gateway   Gateway
	brand     entities.Brand
	logger    *slog.Logger
}

// NewSynchronizer binds a container to a gateway. An empty brand skips the
// brand check.
func NewSynchronizer(container *wizard.Container, gateway Gateway, brand entities.Brand, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{container: container, gateway: gateway, brand: brand, logger: logger}
}

// EnsureLoaded makes the container mirror draft id. When the container
// already holds that draft no network call is made. On failure the
// container is left untouched.
func (s *Synchronizer) EnsureLoaded(ctx context.Context, id string) (*entities.TestDriveForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		return nil, &HydrationError{DraftID: id, Err: ErrNotFound}
	}

	epoch := s.container.Epoch()
	current := s.container.State()
	if current.RemoteForm != nil && current.RemoteForm.ID == id {
		return current.RemoteForm, nil
	}

	form, err := s.gateway.Get(ctx, id)
	if err != nil {
		return nil, &HydrationError{DraftID: id, Err: err}
	}
	if form == nil {
		return nil, &HydrationError{DraftID: id, Err: ErrNotFound}
	}
	if s.brand != "" && form.Brand != "" && form.Brand != s.brand {
		return nil, &HydrationError{
			DraftID: id,
			Err:     fmt.Errorf("%w: draft brand %s, session brand %s", ErrForbidden, form.Brand, s.brand),
		}
	}
	if s.container.Epoch() != epoch {
		return nil, &HydrationError{DraftID: id, Err: ErrStaleResponse}
	}

	hydrated := Hydrate(current, *form)
	s.container.Restore(hydrated)
	s.logger.Info("draft hydrated", "draft", id, "status", hydrated.RemoteForm.Status, "autofilled", hydrated.VehicleAutofilled)
	return hydrated.RemoteForm.Clone(), nil
}

// Resume loads a draft for editing and moves to the step the server
// recorded, or to the first incomplete step when that comes earlier.
// Submitted drafts are returned for viewing with ErrAlreadySubmitted.
func (s *Synchronizer) Resume(ctx context.Context, id string) (*entities.TestDriveForm, wizard.Step, error) {
	form, err := s.EnsureLoaded(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if form.IsSubmitted() {
		return form, s.container.CurrentStep(), ErrAlreadySubmitted
	}
	step := resumeStep(s.container.State(), *form)
	if err := s.container.SetStep(step); err != nil {
		return nil, 0, err
	}
	return form, step, nil
}

// resumeStep picks where an open draft continues. Hydration always fills in
// an evaluation, so a draft the server holds no probability for is treated
// as not evaluated yet.
func resumeStep(state wizard.State, form entities.TestDriveForm) wizard.Step {
	step := wizard.ResumeStep(state)
	if form.PurchaseProbability == nil && step > wizard.StepEvaluation {
		step = wizard.StepEvaluation
	}
	if marked, ok := wizard.StepForMarker(form.CurrentStep); ok && marked < step {
		step = marked
	}
	return step
}
