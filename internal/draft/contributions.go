package draft

import (
	"strings"

	"testdrive-wizard/internal/entities"
	"testdrive-wizard/internal/wizard"
)

// contribution extracts the fields a step owns from the wizard state.
type contribution func(wizard.State) Fields

var contributions = map[wizard.Step]contribution{
	wizard.StepCustomer: func(s wizard.State) Fields {
		if s.Customer == nil {
			return Fields{}
		}
		return Fields{CustomerID: ptr(s.Customer.ID)}
	},
	wizard.StepVehicle: func(s wizard.State) Fields {
		var f Fields
		if s.Vehicle != nil {
			f.VehicleID = ptr(s.Vehicle.ID)
		}
		if s.Location != nil {
			f.LocationID = ptr(s.Location.ID)
		}
		return f
	},
	wizard.StepSignature: func(s wizard.State) Fields {
		if s.SignatureData == nil {
			return Fields{}
		}
		return Fields{SignatureData: ptr(*s.SignatureData)}
	},
	wizard.StepEvaluation: func(s wizard.State) Fields {
		if s.Evaluation == nil {
			return Fields{}
		}
		f := Fields{
			PurchaseProbability:   ptr(s.Evaluation.PurchaseProbability),
			EstimatedPurchaseDate: ptr(s.Evaluation.EstimatedPurchaseDate),
		}
		if obs := strings.TrimSpace(s.Evaluation.Observations); obs != "" {
			f.Observations = &obs
		}
		return f
	},
	wizard.StepReturn: func(s wizard.State) Fields {
		if s.ReturnState == nil {
			return Fields{}
		}
		images := make([]string, len(s.ReturnState.ImageURLs))
		copy(images, s.ReturnState.ImageURLs)
		return Fields{ReturnState: &ReturnStateFields{
			MileageImageURL:   s.ReturnState.MileageImageURL,
			FuelLevelImageURL: s.ReturnState.FuelLevelImageURL,
			Images:            images,
		}}
	},
}

// StepFields returns only the fields owned by step. Confirmation owns none.
func StepFields(s wizard.State, step wizard.Step) Fields {
	if fn, ok := contributions[step]; ok {
		return fn(s)
	}
	return Fields{}
}

// CumulativeFields returns everything captured in steps 1..through.
func CumulativeFields(s wizard.State, through wizard.Step) Fields {
	var f Fields
	for step := wizard.FirstStep; step <= through && step <= wizard.LastStep; step++ {
		f = f.Merge(StepFields(s, step))
	}
	return f
}

// NextMarker is the server-side marker recorded after step completes: the
// marker of the step the user moves to.
func NextMarker(step wizard.Step) entities.StepMarker {
	return step.Next().Marker()
}

// shapeCheck rejects states whose gate passes but whose ids are unusable.
func shapeCheck(s wizard.State, step wizard.Step) string {
	switch step {
	case wizard.StepCustomer:
		if strings.TrimSpace(s.Customer.ID) == "" {
			return "customer has no id"
		}
	case wizard.StepVehicle:
		if strings.TrimSpace(s.Vehicle.ID) == "" {
			return "vehicle has no id"
		}
		if strings.TrimSpace(s.Location.ID) == "" {
			return "location has no id"
		}
	case wizard.StepEvaluation:
		p := s.Evaluation.PurchaseProbability
		if p < 0 || p > 100 {
			return "purchase probability must be between 0 and 100"
		}
	case wizard.StepConfirmation:
		for prior := wizard.FirstStep; prior < wizard.StepConfirmation; prior++ {
			if reason := shapeCheck(s, prior); reason != "" {
				return reason
			}
		}
	}
	return ""
}

func ptr[T any](v T) *T { return &v }
