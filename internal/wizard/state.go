package wizard

import "testdrive-wizard/internal/entities"

// State is the complete wizard state for one session.
type State struct {
	Customer          *entities.Customer      `json:"customer"`
	Vehicle           *entities.Vehicle       `json:"vehicle"`
	VehicleAutofilled bool                    `json:"vehicleAutofilled"`
	Location          *entities.Location      `json:"location"`
	SignatureData     *string                 `json:"signatureData"`
	Evaluation        *entities.Evaluation    `json:"evaluation"`
	ReturnState       *entities.ReturnState   `json:"returnState"`
	RemoteForm        *entities.TestDriveForm `json:"remoteForm"`
	CurrentStep       Step                    `json:"currentStep"`
	PreviousStep      Step                    `json:"previousStep"`
	DraftFormID       *string                 `json:"draftFormId"`
}

// DefaultState returns an empty wizard positioned on the first step.
func DefaultState() State {
	return State{
		CurrentStep:  FirstStep,
		PreviousStep: FirstStep,
	}
}

// Clone returns a deep copy so callers never share memory with the container.
func (s State) Clone() State {
	out := s
	out.Customer = s.Customer.Clone()
	out.Vehicle = s.Vehicle.Clone()
	out.Location = s.Location.Clone()
	out.Evaluation = s.Evaluation.Clone()
	out.ReturnState = s.ReturnState.Clone()
	out.RemoteForm = s.RemoteForm.Clone()
	if s.SignatureData != nil {
		v := *s.SignatureData
		out.SignatureData = &v
	}
	if s.DraftFormID != nil {
		v := *s.DraftFormID
		out.DraftFormID = &v
	}
	return out
}

// Normalize forces the navigation fields back into range.
func (s State) Normalize() State {
	if !s.CurrentStep.Valid() {
		s.CurrentStep = FirstStep
	}
	if !s.PreviousStep.Valid() {
		s.PreviousStep = FirstStep
	}
	return s
}

// DraftID returns the draft identifier or "".
func (s State) DraftID() string {
	if s.DraftFormID == nil {
		return ""
	}
	return *s.DraftFormID
}

// HasDraft reports whether a remote draft has been created or hydrated.
func (s State) HasDraft() bool {
	return s.DraftFormID != nil && *s.DraftFormID != ""
}

// Submitted reports whether the mirrored remote draft is finalized.
func (s State) Submitted() bool {
	return s.RemoteForm.IsSubmitted()
}
