package entities

// Clone returns a deep copy of the customer.
func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	out := *c
	out.PhoneNumber = cloneString(c.PhoneNumber)
	out.Email = cloneString(c.Email)
	return &out
}

// Clone returns a deep copy of the vehicle.
func (v *Vehicle) Clone() *Vehicle {
	if v == nil {
		return nil
	}
	out := *v
	out.VINNumber = cloneString(v.VINNumber)
	return &out
}

// Clone returns a copy of the location.
func (l *Location) Clone() *Location {
	if l == nil {
		return nil
	}
	out := *l
	return &out
}

// Clone returns a copy of the evaluation.
func (e *Evaluation) Clone() *Evaluation {
	if e == nil {
		return nil
	}
	out := *e
	return &out
}

// Clone returns a deep copy of the return state.
func (r *ReturnState) Clone() *ReturnState {
	if r == nil {
		return nil
	}
	out := *r
	out.ImageURLs = cloneStrings(r.ImageURLs)
	out.FinalMileage = cloneFloat(r.FinalMileage)
	out.FuelLevelPercentage = cloneFloat(r.FuelLevelPercentage)
	return &out
}

// Clone returns a deep copy of the remote form mirror.
func (f *TestDriveForm) Clone() *TestDriveForm {
	if f == nil {
		return nil
	}
	out := *f
	if f.PurchaseProbability != nil {
		p := *f.PurchaseProbability
		out.PurchaseProbability = &p
	}
	out.EstimatedPurchaseDate = cloneString(f.EstimatedPurchaseDate)
	out.Observations = cloneString(f.Observations)
	out.Customer = f.Customer.Clone()
	out.Vehicle = f.Vehicle.Clone()
	out.Location = f.Location.Clone()
	if f.Signature != nil {
		sig := *f.Signature
		out.Signature = &sig
	}
	if f.ReturnState != nil {
		rs := *f.ReturnState
		rs.MileageImage = cloneImage(f.ReturnState.MileageImage)
		rs.FuelLevelImage = cloneImage(f.ReturnState.FuelLevelImage)
		if f.ReturnState.Images != nil {
			rs.Images = make([]Image, len(f.ReturnState.Images))
			copy(rs.Images, f.ReturnState.Images)
		}
		rs.FinalMileage = cloneFloat(f.ReturnState.FinalMileage)
		rs.FuelLevelPercentage = cloneFloat(f.ReturnState.FuelLevelPercentage)
		out.ReturnState = &rs
	}
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneImage(img *Image) *Image {
	if img == nil {
		return nil
	}
	v := *img
	return &v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
