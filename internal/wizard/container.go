package wizard

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"testdrive-wizard/internal/entities"
)

var (
	// ErrInvalidStep is returned when a step outside 1..6 is requested.
	ErrInvalidStep = errors.New("wizard: step out of range")
	// ErrVehicleLocked is returned when an autofilled vehicle's make or model
	// would be edited.
	ErrVehicleLocked = errors.New("wizard: vehicle make/model locked by autofill")
)

// Persister is the durable side of the container. Save and Clear failures
// are logged by the container and never surface to callers.
type Persister interface {
	Save(State) error
	Load() (State, bool, error)
	Clear() error
}

// Container owns the wizard state of one session. Every mutation replaces
// the state structurally, writes a snapshot and notifies subscribers.
type Container struct {
	mu    sync.RWMutex
	state State
	epoch uint64

	// writeMu orders mutations with their snapshot writes.
	writeMu sync.Mutex

	persister Persister
	logger    *slog.Logger

	subsMu  sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// NewContainer creates a container, restoring from the persister when a
// valid snapshot exists. A nil persister keeps state in memory only.
func NewContainer(persister Persister, logger *slog.Logger) *Container {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		state:     DefaultState(),
		persister: persister,
		logger:    logger,
		subs:      make(map[int]func(State)),
	}
	if persister == nil {
		return c
	}
	restored, ok, err := persister.Load()
	if err != nil {
		logger.Warn("snapshot load failed, starting fresh", "error", err)
		return c
	}
	if ok {
		c.state = restored.Normalize()
		logger.Debug("wizard state restored", "step", c.state.CurrentStep, "draft", c.state.DraftID())
	}
	return c
}

// State returns a deep copy of the whole state.
func (c *Container) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Clone()
}

// Epoch increments on every Reset and Restore.
func (c *Container) Epoch() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}

func (c *Container) Customer() *entities.Customer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Customer.Clone()
}

func (c *Container) Vehicle() *entities.Vehicle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Vehicle.Clone()
}

func (c *Container) VehicleAutofilled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.VehicleAutofilled
}

func (c *Container) Location() *entities.Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Location.Clone()
}

func (c *Container) SignatureData() *string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state.SignatureData == nil {
		return nil
	}
	v := *c.state.SignatureData
	return &v
}

func (c *Container) Evaluation() *entities.Evaluation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Evaluation.Clone()
}

func (c *Container) ReturnState() *entities.ReturnState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.ReturnState.Clone()
}

func (c *Container) RemoteForm() *entities.TestDriveForm {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.RemoteForm.Clone()
}

func (c *Container) CurrentStep() Step {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.CurrentStep
}

func (c *Container) PreviousStep() Step {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.PreviousStep
}

// DraftFormID returns the draft identifier or "" when none exists yet.
func (c *Container) DraftFormID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.DraftID()
}

// ============================================================================
// MUTATORS
// ============================================================================

func (c *Container) SetCustomer(customer entities.Customer) {
	c.mutate(func(s *State) error {
		s.Customer = customer.Clone()
		return nil
	})
}

// SetVehicle stores a manually entered vehicle. While autofill is on the
// make and model cannot change; any other vehicle record releases autofill.
func (c *Container) SetVehicle(vehicle entities.Vehicle) error {
	return c.mutate(func(s *State) error {
		if s.VehicleAutofilled && s.Vehicle != nil &&
			(s.Vehicle.Make != vehicle.Make || s.Vehicle.Model != vehicle.Model) {
			return ErrVehicleLocked
		}
		if s.Vehicle == nil || s.Vehicle.ID != vehicle.ID {
			s.VehicleAutofilled = false
		}
		s.Vehicle = vehicle.Clone()
		return nil
	})
}

// SetAutofilledVehicle stores a vehicle matched by a server-side lookup and
// turns autofill on.
func (c *Container) SetAutofilledVehicle(vehicle entities.Vehicle) {
	c.mutate(func(s *State) error {
		s.Vehicle = vehicle.Clone()
		s.VehicleAutofilled = true
		return nil
	})
}

func (c *Container) SetVehicleAutofilled(autofilled bool) {
	c.mutate(func(s *State) error {
		s.VehicleAutofilled = autofilled
		return nil
	})
}

// ClearVehicle drops the vehicle and releases the autofill lock.
func (c *Container) ClearVehicle() {
	c.mutate(func(s *State) error {
		s.Vehicle = nil
		s.VehicleAutofilled = false
		return nil
	})
}

func (c *Container) SetLocation(location entities.Location) {
	c.mutate(func(s *State) error {
		s.Location = location.Clone()
		return nil
	})
}

// SetSignatureData stores the encoded signature; "" clears it.
func (c *Container) SetSignatureData(data string) {
	c.mutate(func(s *State) error {
		if data == "" {
			s.SignatureData = nil
			return nil
		}
		s.SignatureData = &data
		return nil
	})
}

func (c *Container) SetEvaluation(evaluation entities.Evaluation) {
	c.mutate(func(s *State) error {
		s.Evaluation = evaluation.Clone()
		return nil
	})
}

func (c *Container) SetReturnState(returnState entities.ReturnState) {
	c.mutate(func(s *State) error {
		s.ReturnState = returnState.Clone()
		return nil
	})
}

// SetRemoteForm replaces the remote mirror wholesale; nil clears it.
func (c *Container) SetRemoteForm(form *entities.TestDriveForm) {
	c.mutate(func(s *State) error {
		s.RemoteForm = form.Clone()
		return nil
	})
}

// SetDraftFormID stores the draft identifier; "" clears it.
func (c *Container) SetDraftFormID(id string) {
	c.mutate(func(s *State) error {
		if id == "" {
			s.DraftFormID = nil
			return nil
		}
		s.DraftFormID = &id
		return nil
	})
}

// AttachDraft stores a freshly created or patched draft: its id and its
// mirror change together.
func (c *Container) AttachDraft(form entities.TestDriveForm) {
	c.mutate(func(s *State) error {
		id := form.ID
		s.DraftFormID = &id
		s.RemoteForm = form.Clone()
		return nil
	})
}

// SetStep moves the wizard. Setting the current step again is a no-op.
func (c *Container) SetStep(step Step) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStep, int(step))
	}
	return c.mutate(func(s *State) error {
		if s.CurrentStep == step {
			return errNoChange
		}
		s.PreviousStep = s.CurrentStep
		s.CurrentStep = step
		return nil
	})
}

// Reset returns to defaults and erases the snapshot.
func (c *Container) Reset() {
	c.writeMu.Lock()
	c.mu.Lock()
	c.state = DefaultState()
	c.epoch++
	snapshot := c.state.Clone()
	c.mu.Unlock()

	if c.persister != nil {
		if err := c.persister.Clear(); err != nil {
			c.logger.Warn("snapshot erase failed", "error", err)
		}
	}
	c.writeMu.Unlock()
	c.notify(snapshot)
}

// Restore replaces the whole state in one step.
func (c *Container) Restore(state State) {
	c.writeMu.Lock()
	c.mu.Lock()
	c.state = state.Clone().Normalize()
	c.epoch++
	snapshot := c.state.Clone()
	c.mu.Unlock()

	c.persist(snapshot)
	c.writeMu.Unlock()
	c.notify(snapshot)
}

// Subscribe registers fn for every successful mutation and returns a
// function that removes it.
func (c *Container) Subscribe(fn func(State)) func() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		delete(c.subs, id)
	}
}

var errNoChange = errors.New("no change")

func (c *Container) mutate(apply func(*State) error) error {
	c.writeMu.Lock()
	c.mu.Lock()
	next := c.state.Clone()
	if err := apply(&next); err != nil {
		c.mu.Unlock()
		c.writeMu.Unlock()
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	c.state = next
	snapshot := next.Clone()
	c.mu.Unlock()

	c.persist(snapshot)
	c.writeMu.Unlock()
	c.notify(snapshot)
	return nil
}

func (c *Container) persist(state State) {
	if c.persister == nil {
		return
	}
	if err := c.persister.Save(state); err != nil {
		c.logger.Warn("snapshot write failed", "error", err, "step", state.CurrentStep)
	}
}

func (c *Container) notify(state State) {
	c.subsMu.Lock()
	fns := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subsMu.Unlock()
	for _, fn := range fns {
		fn(state.Clone())
	}
}
