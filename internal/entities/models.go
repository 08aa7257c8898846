package entities

// ============================================================================
// PARTICIPANTS
// ============================================================================

// Customer is the person taking the test drive.
type Customer struct {
	ID          string  `json:"id"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	DNI         string  `json:"dni"`
	PhoneNumber *string `json:"phoneNumber"`
	Email       *string `json:"email"`
}

// FullName joins first and last name.
func (c Customer) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// Vehicle is the unit being test driven.
type Vehicle struct {
	ID             string                `json:"id"`
	Make           string                `json:"make"`
	Model          string                `json:"model"`
	Color          string                `json:"color"`
	Location       string                `json:"location"`
	LicensePlate   string                `json:"licensePlate"`
	VINNumber      *string               `json:"vinNumber"`
	RegisterStatus VehicleRegisterStatus `json:"registerStatus"`
}

// Location is the dealership branch where the test drive starts.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ============================================================================
// WIZARD-LOCAL SHAPES
// ============================================================================

// Evaluation captures the agent's assessment after the drive.
type Evaluation struct {
	PurchaseProbability   int    `json:"purchaseProbability"`
	EstimatedPurchaseDate string `json:"estimatedPurchaseDate"`
	Observations          string `json:"observations"`
}

// ReturnState is the photographic proof collected when the vehicle comes back.
// FinalMileage and FuelLevelPercentage only carry readings migrated from the
// older numeric schema; they are never sent to the server.
type ReturnState struct {
	MileageImageURL     string   `json:"mileageImageUrl"`
	FuelLevelImageURL   string   `json:"fuelLevelImageUrl"`
	ImageURLs           []string `json:"imageUrls"`
	FinalMileage        *float64 `json:"finalMileage,omitempty"`
	FuelLevelPercentage *float64 `json:"fuelLevelPercentage,omitempty"`
}

// HasPhotoProof reports whether both proof slots and at least one general
// vehicle photo are present.
func (r ReturnState) HasPhotoProof() bool {
	return r.MileageImageURL != "" && r.FuelLevelImageURL != "" && len(r.ImageURLs) > 0
}

// ============================================================================
// REMOTE DRAFT RESOURCE
// ============================================================================

// Image is a stored photo reference.
type Image struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url"`
}

// DigitalSignature is the signature sub-resource of a form.
type DigitalSignature struct {
	ID            string `json:"id,omitempty"`
	SignatureData string `json:"signatureData"`
}

// RemoteReturnState is the return-state sub-resource as the server sends it.
// Older resources carry the numeric readings instead of the proof images.
type RemoteReturnState struct {
	ID                  string   `json:"id,omitempty"`
	MileageImage        *Image   `json:"mileageImage,omitempty"`
	FuelLevelImage      *Image   `json:"fuelLevelImage,omitempty"`
	Images              []Image  `json:"images"`
	FinalMileage        *float64 `json:"finalMileage,omitempty"`
	FuelLevelPercentage *float64 `json:"fuelLevelPercentage,omitempty"`
}

// TestDriveForm mirrors the server-side draft resource.
type TestDriveForm struct {
	ID                    string             `json:"id"`
	Brand                 Brand              `json:"brand,omitempty"`
	Status                FormStatus         `json:"status"`
	CurrentStep           StepMarker         `json:"currentStep,omitempty"`
	PurchaseProbability   *int               `json:"purchaseProbability"`
	EstimatedPurchaseDate *string            `json:"estimatedPurchaseDate"`
	Observations          *string            `json:"observations"`
	CreatedAt             string             `json:"createdAt,omitempty"`
	UpdatedAt             string             `json:"updatedAt,omitempty"`
	Customer              *Customer          `json:"customer"`
	Vehicle               *Vehicle           `json:"vehicle"`
	Location              *Location          `json:"location"`
	Signature             *DigitalSignature  `json:"signature"`
	ReturnState           *RemoteReturnState `json:"returnState"`
}

// IsSubmitted reports whether the form reached its terminal status.
func (f *TestDriveForm) IsSubmitted() bool {
	return f != nil && f.Status == StatusSubmitted
}
