// Package draft keeps the wizard state and the server-held draft in step:
// it hydrates the wizard from a draft and drives create/update calls as the
// user moves through the steps.
package draft

import (
	"context"

	"testdrive-wizard/internal/entities"
)

// Gateway is the remote draft resource.
type Gateway interface {
	Create(ctx context.Context, fields Fields) (*entities.TestDriveForm, error)
	Update(ctx context.Context, id string, fields Fields) (*entities.TestDriveForm, error)
	Get(ctx context.Context, id string) (*entities.TestDriveForm, error)
}

// Directory is the lookup side of the backend used while filling steps.
type Directory interface {
	FindOrCreateCustomer(ctx context.Context, in CustomerInput) (*entities.Customer, error)
	LookupVehicle(ctx context.Context, licensePlate, vinNumber string) (*entities.Vehicle, error)
	FindOrCreateVehicle(ctx context.Context, in VehicleInput) (*entities.Vehicle, error)
	ListLocations(ctx context.Context) ([]entities.Location, error)
	ListForms(ctx context.Context, filter ListFilter) ([]entities.TestDriveForm, error)
}

// Fields is a create or update payload. Nil members are left out.
type Fields struct {
	Brand                 *entities.Brand      `json:"brand,omitempty"`
	CustomerID            *string              `json:"customerId,omitempty"`
	VehicleID             *string              `json:"vehicleId,omitempty"`
	LocationID            *string              `json:"locationId,omitempty"`
	SignatureData         *string              `json:"signatureData,omitempty"`
	PurchaseProbability   *int                 `json:"purchaseProbability,omitempty"`
	EstimatedPurchaseDate *string              `json:"estimatedPurchaseDate,omitempty"`
	Observations          *string              `json:"observations,omitempty"`
	ReturnState           *ReturnStateFields   `json:"returnState,omitempty"`
	Status                *entities.FormStatus `json:"status,omitempty"`
	CurrentStep           *entities.StepMarker `json:"currentStep,omitempty"`
}

// ReturnStateFields carries the return photos by URL.
type ReturnStateFields struct {
	MileageImageURL   string   `json:"mileageImageUrl"`
	FuelLevelImageURL string   `json:"fuelLevelImageUrl"`
	Images            []string `json:"images"`
}

// Merge overlays the non-nil members of other onto f.
func (f Fields) Merge(other Fields) Fields {
	if other.Brand != nil {
		f.Brand = other.Brand
	}
	if other.CustomerID != nil {
		f.CustomerID = other.CustomerID
	}
	if other.VehicleID != nil {
		f.VehicleID = other.VehicleID
	}
	if other.LocationID != nil {
		f.LocationID = other.LocationID
	}
	if other.SignatureData != nil {
		f.SignatureData = other.SignatureData
	}
	if other.PurchaseProbability != nil {
		f.PurchaseProbability = other.PurchaseProbability
	}
	if other.EstimatedPurchaseDate != nil {
		f.EstimatedPurchaseDate = other.EstimatedPurchaseDate
	}
	if other.Observations != nil {
		f.Observations = other.Observations
	}
	if other.ReturnState != nil {
		f.ReturnState = other.ReturnState
	}
	if other.Status != nil {
		f.Status = other.Status
	}
	if other.CurrentStep != nil {
		f.CurrentStep = other.CurrentStep
	}
	return f
}

// CustomerInput identifies a customer by national id, creating it when new.
type CustomerInput struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	DNI         string  `json:"dni"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
	Email       *string `json:"email,omitempty"`
}

// VehicleInput identifies a vehicle by plate or VIN, creating it when new.
type VehicleInput struct {
	Make         string  `json:"make"`
	Model        string  `json:"model"`
	Color        string  `json:"color,omitempty"`
	LicensePlate string  `json:"licensePlate"`
	VINNumber    *string `json:"vinNumber,omitempty"`
	Location     string  `json:"location,omitempty"`
}

// ListFilter narrows a form listing. Empty members match everything.
type ListFilter struct {
	Status entities.FormStatus
	Brand  entities.Brand
}
