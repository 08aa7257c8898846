package draft

import (
	"testdrive-wizard/internal/entities"
	"testdrive-wizard/internal/wizard"
)

// Hydrate builds the wizard state that mirrors form. Navigation is kept from
// current; the autofill flag is kept for the same draft and derived from the
// vehicle's register status for a different one.
func Hydrate(current wizard.State, form entities.TestDriveForm) wizard.State {
	form.Status = form.Status.Normalize()
	id := form.ID

	next := wizard.State{
		Customer:          form.Customer.Clone(),
		Vehicle:           form.Vehicle.Clone(),
		VehicleAutofilled: current.VehicleAutofilled,
		Location:          form.Location.Clone(),
		Evaluation:        evaluationFromForm(form),
		ReturnState:       returnStateFromRemote(form.ReturnState),
		RemoteForm:        form.Clone(),
		CurrentStep:       current.CurrentStep,
		PreviousStep:      current.PreviousStep,
		DraftFormID:       &id,
	}
	if form.Signature != nil {
		sig := form.Signature.SignatureData
		next.SignatureData = &sig
	}
	if current.DraftID() != id {
		next.VehicleAutofilled = form.Vehicle != nil && form.Vehicle.RegisterStatus == entities.VehicleConfirmed
	}
	return next.Normalize()
}

func evaluationFromForm(form entities.TestDriveForm) *entities.Evaluation {
	e := &entities.Evaluation{}
	if form.PurchaseProbability != nil {
		e.PurchaseProbability = *form.PurchaseProbability
	}
	if form.EstimatedPurchaseDate != nil {
		e.EstimatedPurchaseDate = *form.EstimatedPurchaseDate
	}
	if form.Observations != nil {
		e.Observations = *form.Observations
	}
	return e
}

func returnStateFromRemote(rs *entities.RemoteReturnState) *entities.ReturnState {
	if rs == nil {
		return nil
	}
	out := &entities.ReturnState{ImageURLs: []string{}}
	if rs.MileageImage != nil {
		out.MileageImageURL = rs.MileageImage.URL
	}
	if rs.FuelLevelImage != nil {
		out.FuelLevelImageURL = rs.FuelLevelImage.URL
	}
	for _, img := range rs.Images {
		out.ImageURLs = append(out.ImageURLs, img.URL)
	}
	if rs.FinalMileage != nil {
		v := *rs.FinalMileage
		out.FinalMileage = &v
	}
	if rs.FuelLevelPercentage != nil {
		v := *rs.FuelLevelPercentage
		out.FuelLevelPercentage = &v
	}
	return out
}
