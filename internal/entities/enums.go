package entities

import (
	"fmt"
	"strings"
)

// FormStatus is the lifecycle status of a test-drive form.
type FormStatus string

const (
	StatusDraft     FormStatus = "draft"
	StatusSubmitted FormStatus = "submitted"

	// StatusPending belongs to the retired three-state vocabulary and is read
	// back as a draft.
	StatusPending FormStatus = "pending"
)

// Normalize maps retired status values onto the current vocabulary.
func (s FormStatus) Normalize() FormStatus {
	if s == StatusPending {
		return StatusDraft
	}
	return s
}

// ParseFormStatus accepts the current and retired status spellings.
func ParseFormStatus(raw string) (FormStatus, error) {
	switch FormStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusSubmitted:
		return StatusSubmitted, nil
	case StatusPending:
		return StatusDraft, nil
	default:
		return "", fmt.Errorf("unknown form status: %q", raw)
	}
}

// VehicleRegisterStatus tells whether a vehicle record was confirmed by the
// dealership or is still a self-reported entry.
type VehicleRegisterStatus string

const (
	VehicleInProgress VehicleRegisterStatus = "in progress"
	VehicleConfirmed  VehicleRegisterStatus = "confirmed"
)

// Brand is the tenant a form belongs to.
type Brand string

const (
	BrandMercedesBenz Brand = "MERCEDES-BENZ"
	BrandAndesMotor   Brand = "ANDES MOTOR"
	BrandStellantis   Brand = "STELLANTIS"
)

// ParseBrand accepts a brand name in any case.
func ParseBrand(raw string) (Brand, error) {
	switch Brand(strings.ToUpper(strings.TrimSpace(raw))) {
	case BrandMercedesBenz:
		return BrandMercedesBenz, nil
	case BrandAndesMotor:
		return BrandAndesMotor, nil
	case BrandStellantis:
		return BrandStellantis, nil
	default:
		return "", fmt.Errorf("unknown brand: %q", raw)
	}
}

// StepMarker is the server-side name of a wizard step.
type StepMarker string

const (
	MarkerCustomerData      StepMarker = "CUSTOMER_DATA"
	MarkerVehicleData       StepMarker = "VEHICLE_DATA"
	MarkerSignatureData     StepMarker = "SIGNATURE_DATA"
	MarkerEvaluationData    StepMarker = "EVALUATION_DATA"
	MarkerVehicleReturnData StepMarker = "VEHICLE_RETURN_DATA"
	MarkerFinalConfirmation StepMarker = "FINAL_CONFIRMATION"
)
