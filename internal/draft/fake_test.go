package draft

import (
	"context"
	"fmt"
	"sync"

	"testdrive-wizard/internal/entities"
)

// fakeGateway keeps drafts in memory and records every call.
type fakeGateway struct {
	mu      sync.Mutex
	forms   map[string]*entities.TestDriveForm
	creates []Fields
	updates []Fields
	gets    int
	nextID  int

	createErr error
	updateErr error
	getErr    error
	// during runs inside create/update before the response is returned.
	during func()
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{forms: make(map[string]*entities.TestDriveForm)}
}

func (g *fakeGateway) put(form entities.TestDriveForm) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.forms[form.ID] = form.Clone()
}

func (g *fakeGateway) Create(_ context.Context, fields Fields) (*entities.TestDriveForm, error) {
	g.mu.Lock()
	g.creates = append(g.creates, fields)
	err := g.createErr
	g.mu.Unlock()
	if g.during != nil {
		g.during()
	}
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	form := &entities.TestDriveForm{ID: fmt.Sprintf("draft-%d", g.nextID), Status: entities.StatusDraft}
	apply(form, fields)
	g.forms[form.ID] = form
	return form.Clone(), nil
}

func (g *fakeGateway) Update(_ context.Context, id string, fields Fields) (*entities.TestDriveForm, error) {
	g.mu.Lock()
	g.updates = append(g.updates, fields)
	err := g.updateErr
	g.mu.Unlock()
	if g.during != nil {
		g.during()
	}
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	form, ok := g.forms[id]
	if !ok {
		return nil, ErrNotFound
	}
	apply(form, fields)
	return form.Clone(), nil
}

func (g *fakeGateway) Get(_ context.Context, id string) (*entities.TestDriveForm, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gets++
	if g.getErr != nil {
		return nil, g.getErr
	}
	form, ok := g.forms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return form.Clone(), nil
}

func apply(form *entities.TestDriveForm, f Fields) {
	if f.Brand != nil {
		form.Brand = *f.Brand
	}
	if f.CustomerID != nil {
		form.Customer = &entities.Customer{ID: *f.CustomerID}
	}
	if f.VehicleID != nil {
		form.Vehicle = &entities.Vehicle{ID: *f.VehicleID}
	}
	if f.LocationID != nil {
		form.Location = &entities.Location{ID: *f.LocationID}
	}
	if f.SignatureData != nil {
		form.Signature = &entities.DigitalSignature{SignatureData: *f.SignatureData}
	}
	if f.PurchaseProbability != nil {
		v := *f.PurchaseProbability
		form.PurchaseProbability = &v
	}
	if f.EstimatedPurchaseDate != nil {
		v := *f.EstimatedPurchaseDate
		form.EstimatedPurchaseDate = &v
	}
	if f.Observations != nil {
		v := *f.Observations
		form.Observations = &v
	}
	if f.ReturnState != nil {
		rs := &entities.RemoteReturnState{
			MileageImage:   &entities.Image{URL: f.ReturnState.MileageImageURL},
			FuelLevelImage: &entities.Image{URL: f.ReturnState.FuelLevelImageURL},
		}
		for _, u := range f.ReturnState.Images {
			rs.Images = append(rs.Images, entities.Image{URL: u})
		}
		form.ReturnState = rs
	}
	if f.Status != nil {
		form.Status = *f.Status
	}
	if f.CurrentStep != nil {
		form.CurrentStep = *f.CurrentStep
	}
}
