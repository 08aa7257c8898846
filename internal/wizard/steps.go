package wizard

import (
	"fmt"

	"testdrive-wizard/internal/entities"
)

// Step is a 1-based wizard position.
type Step int

const (
	StepCustomer Step = iota + 1
	StepVehicle
	StepSignature
	StepEvaluation
	StepReturn
	StepConfirmation
)

const (
	FirstStep = StepCustomer
	LastStep  = StepConfirmation
)

// StepInfo ties a step number to every other name it goes by.
type StepInfo struct {
	Step         Step
	Screen       string              // screen identifier used by callers
	Marker       entities.StepMarker // server-side step marker
	DraftSegment string              // route segment under /borradores/{id}/
	Title        string
}

var stepTable = []StepInfo{
	{StepCustomer, "customer", entities.MarkerCustomerData, "cliente", "Customer"},
	{StepVehicle, "vehicle", entities.MarkerVehicleData, "vehiculo", "Vehicle"},
	{StepSignature, "signature", entities.MarkerSignatureData, "firma", "Signature"},
	{StepEvaluation, "evaluation", entities.MarkerEvaluationData, "evaluacion", "Evaluation"},
	{StepReturn, "return", entities.MarkerVehicleReturnData, "devolucion", "Vehicle return"},
	{StepConfirmation, "confirmation", entities.MarkerFinalConfirmation, "confirmacion", "Confirmation"},
}

// Steps returns the step table in order.
func Steps() []StepInfo {
	out := make([]StepInfo, len(stepTable))
	copy(out, stepTable)
	return out
}

// Valid reports whether s is inside 1..6.
func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

// Info returns the table row for s.
func (s Step) Info() (StepInfo, bool) {
	if !s.Valid() {
		return StepInfo{}, false
	}
	return stepTable[s-1], true
}

// Screen returns the screen identifier, or "" for an invalid step.
func (s Step) Screen() string {
	info, _ := s.Info()
	return info.Screen
}

// Marker returns the server-side marker, or "" for an invalid step.
func (s Step) Marker() entities.StepMarker {
	info, _ := s.Info()
	return info.Marker
}

// Next returns the following step, capped at the last one.
func (s Step) Next() Step {
	if s >= LastStep {
		return LastStep
	}
	return s + 1
}

// Prev returns the preceding step, floored at the first one.
func (s Step) Prev() Step {
	if s <= FirstStep {
		return FirstStep
	}
	return s - 1
}

func (s Step) String() string {
	if info, ok := s.Info(); ok {
		return fmt.Sprintf("%d:%s", int(s), info.Screen)
	}
	return fmt.Sprintf("%d:invalid", int(s))
}

// StepForScreen resolves a screen identifier.
func StepForScreen(screen string) (Step, bool) {
	for _, info := range stepTable {
		if info.Screen == screen {
			return info.Step, true
		}
	}
	return 0, false
}

// StepForMarker resolves a server-side step marker.
func StepForMarker(marker entities.StepMarker) (Step, bool) {
	for _, info := range stepTable {
		if info.Marker == marker {
			return info.Step, true
		}
	}
	return 0, false
}

// StepForDraftSegment resolves a draft route segment such as "firma".
func StepForDraftSegment(segment string) (Step, bool) {
	for _, info := range stepTable {
		if info.DraftSegment == segment {
			return info.Step, true
		}
	}
	return 0, false
}

// DraftRoute builds the route of a step inside an existing draft.
func DraftRoute(draftID string, step Step) string {
	info, ok := step.Info()
	if !ok {
		return "/borradores/" + draftID
	}
	return "/borradores/" + draftID + "/" + info.DraftSegment
}
