// Package scenario runs scripted wizard sessions described in YAML.
package scenario

import (
	"time"
)

// Scenario is a scripted walk through the wizard.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Theme selects the dealership brand (sap, mercedes, andes, stellantis).
	Theme string `yaml:"theme,omitempty"`

	// Reset the local state before the first action.
	Fresh bool `yaml:"fresh,omitempty"`

	StopOnError bool     `yaml:"stop_on_error,omitempty"`
	Steps       []Action `yaml:"steps"`
}

// Action is one scripted interaction. Do names the kind; the matching
// payload field carries its input.
type Action struct {
	Do string `yaml:"do"`

	Customer   *CustomerSpec   `yaml:"customer,omitempty"`
	Vehicle    *VehicleSpec    `yaml:"vehicle,omitempty"`
	Location   string          `yaml:"location,omitempty"`
	Signature  string          `yaml:"signature,omitempty"`
	Evaluation *EvaluationSpec `yaml:"evaluation,omitempty"`
	Return     *ReturnSpec     `yaml:"return,omitempty"`

	// Step targets advance/enter. Zero means the current step.
	Step int `yaml:"step,omitempty"`

	// DraftID targets resume. Empty means the attached draft.
	DraftID string `yaml:"draft_id,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Action kinds.
const (
	DoCustomer      = "customer"
	DoLookupVehicle = "lookup_vehicle"
	DoVehicle       = "vehicle"
	DoLocation      = "location"
	DoSign          = "sign"
	DoEvaluate      = "evaluate"
	DoReturn        = "return"
	DoAdvance       = "advance"
	DoBack          = "back"
	DoEnter         = "enter"
	DoReset         = "reset"
	DoResume        = "resume"
	DoCheck         = "check"
)

// CustomerSpec is the customer-data form.
type CustomerSpec struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	DNI       string `yaml:"dni"`
	Phone     string `yaml:"phone,omitempty"`
	Email     string `yaml:"email,omitempty"`
}

// VehicleSpec is either a lookup key (plate/vin) or a manual entry.
type VehicleSpec struct {
	Make         string `yaml:"make,omitempty"`
	Model        string `yaml:"model,omitempty"`
	Color        string `yaml:"color,omitempty"`
	LicensePlate string `yaml:"license_plate,omitempty"`
	VIN          string `yaml:"vin,omitempty"`
}

type EvaluationSpec struct {
	PurchaseProbability   int    `yaml:"purchase_probability"`
	EstimatedPurchaseDate string `yaml:"estimated_purchase_date,omitempty"`
	Observations          string `yaml:"observations,omitempty"`
}

type ReturnSpec struct {
	MileageImage   string   `yaml:"mileage_image,omitempty"`
	FuelLevelImage string   `yaml:"fuel_level_image,omitempty"`
	Images         []string `yaml:"images,omitempty"`
}

// Expect checks the outcome of an action. Unset members are not checked.
type Expect struct {
	// Error is an error kind (see ErrorKind); empty expects success.
	Error      string   `yaml:"error,omitempty"`
	Step       int      `yaml:"step,omitempty"`
	Status     string   `yaml:"status,omitempty"`
	Missing    []string `yaml:"missing,omitempty"`
	Autofilled *bool    `yaml:"autofilled,omitempty"`
	HasDraft   *bool    `yaml:"has_draft,omitempty"`
}

// RunConfig controls how a scenario is executed.
type RunConfig struct {
	NoColor     bool
	Verbose     bool
	StopOnError bool
}

// StepResult captures the outcome of a single action.
type StepResult struct {
	Index     int
	Do        string
	StartTime time.Time
	EndTime   time.Time

	// Wizard position after the action.
	Step    int
	DraftID string
	Status  string

	// ErrKind is the kind of the error the action returned, if any.
	ErrKind string

	Passed bool
	Error  error
}

// ScenarioResult summarizes the full run.
type ScenarioResult struct {
	ScenarioName string
	StartTime    time.Time
	EndTime      time.Time
	Steps        []StepResult

	TotalSteps    int
	PassedSteps   int
	FailedSteps   int
	TotalDuration time.Duration

	DraftID string
	Success bool
	Error   error
}
