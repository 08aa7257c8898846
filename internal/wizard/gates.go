package wizard

import "strings"

// Gate reports whether a step's required data is present in a state.
// Gates are advisory: the container never enforces them.
type Gate func(State) bool

var gateTable = map[Step]Gate{
	StepCustomer:     customerReady,
	StepVehicle:      vehicleReady,
	StepSignature:    signatureReady,
	StepEvaluation:   evaluationReady,
	StepReturn:       returnReady,
	StepConfirmation: confirmationReady,
}

func customerReady(s State) bool { return s.Customer != nil }

func vehicleReady(s State) bool { return s.Vehicle != nil && s.Location != nil }

func signatureReady(s State) bool {
	return s.SignatureData != nil && strings.TrimSpace(*s.SignatureData) != ""
}

func evaluationReady(s State) bool { return s.Evaluation != nil }

func returnReady(s State) bool {
	return s.ReturnState != nil && s.ReturnState.HasPhotoProof()
}

func confirmationReady(s State) bool {
	return customerReady(s) &&
		vehicleReady(s) &&
		signatureReady(s) &&
		evaluationReady(s) &&
		returnReady(s) &&
		!s.Submitted()
}

func never(State) bool { return false }

// GateFor returns the gate of a step. Unknown steps never pass.
func GateFor(step Step) Gate {
	if g, ok := gateTable[step]; ok {
		return g
	}
	return never
}

// StepValid is shorthand for GateFor(step)(s).
func (s State) StepValid(step Step) bool {
	return GateFor(step)(s)
}

// CanEnter reports whether the wizard may jump to step: going back is always
// allowed, going forward needs every earlier gate to pass.
func CanEnter(s State, step Step) bool {
	if !step.Valid() {
		return false
	}
	if step <= s.CurrentStep {
		return true
	}
	for prior := FirstStep; prior < step; prior++ {
		if !GateFor(prior)(s) {
			return false
		}
	}
	return true
}

// ResumeStep returns the first step whose gate fails, or the last step when
// everything is filled in.
func ResumeStep(s State) Step {
	for step := FirstStep; step < LastStep; step++ {
		if !GateFor(step)(s) {
			return step
		}
	}
	return LastStep
}

// MissingFor lists what step still needs, or nil when its data is present.
func MissingFor(s State, step Step) []string {
	var missing []string
	switch step {
	case StepCustomer:
		if s.Customer == nil {
			missing = append(missing, "customer data")
		}
	case StepVehicle:
		if s.Vehicle == nil {
			missing = append(missing, "vehicle data")
		}
		if s.Location == nil {
			missing = append(missing, "test-drive location")
		}
	case StepSignature:
		if !signatureReady(s) {
			missing = append(missing, "customer signature")
		}
	case StepEvaluation:
		if s.Evaluation == nil {
			missing = append(missing, "evaluation")
		}
	case StepReturn:
		if s.ReturnState == nil {
			return []string{"vehicle return photos"}
		}
		if s.ReturnState.MileageImageURL == "" {
			missing = append(missing, "mileage photo")
		}
		if s.ReturnState.FuelLevelImageURL == "" {
			missing = append(missing, "fuel level photo")
		}
		if len(s.ReturnState.ImageURLs) == 0 {
			missing = append(missing, "vehicle photos")
		}
	case StepConfirmation:
		return MissingItems(s)
	}
	return missing
}

// MissingItems lists what still has to be captured before the form can be
// confirmed, in step order.
func MissingItems(s State) []string {
	var missing []string
	for step := FirstStep; step < StepConfirmation; step++ {
		missing = append(missing, MissingFor(s, step)...)
	}
	return missing
}
