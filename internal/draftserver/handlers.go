package draftserver

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"testdrive-wizard/internal/draft"
	"testdrive-wizard/internal/entities"
)

func newUUID() string { return uuid.NewString() }

var (
	errUnknownCustomer = errors.New("unknown customerId")
	errUnknownVehicle  = errors.New("unknown vehicleId")
	errUnknownLocation = errors.New("unknown locationId")
)

// ============================================================================
// TEST-DRIVE FORMS
// ============================================================================

func (s *Server) handleCreateForm(c *gin.Context) {
	var fields draft.Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	brand := requestBrand(c)
	if fields.Brand != nil && *fields.Brand != brand {
		c.JSON(http.StatusForbidden, gin.H{"error": "brand does not match X-Brand header"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.timestamp()
	form := &entities.TestDriveForm{
		ID:        s.newID(),
		Brand:     brand,
		Status:    entities.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.applyLocked(form, fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.forms[form.ID] = form
	s.logger.Info("test-drive form created", "id", form.ID, "brand", brand, "step", form.CurrentStep)
	c.JSON(http.StatusCreated, form)
}

func (s *Server) handleUpdateForm(c *gin.Context) {
	var fields draft.Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	form, status, msg := s.lookupFormLocked(c.Param("id"), requestBrand(c))
	if form == nil {
		c.JSON(status, gin.H{"error": msg})
		return
	}
	if form.IsSubmitted() {
		c.JSON(http.StatusConflict, gin.H{"error": "form already submitted"})
		return
	}
	if fields.Brand != nil && *fields.Brand != form.Brand {
		c.JSON(http.StatusForbidden, gin.H{"error": "brand cannot change"})
		return
	}

	next := form.Clone()
	if err := s.applyLocked(next, fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	next.UpdatedAt = s.timestamp()
	s.forms[next.ID] = next
	s.logger.Info("test-drive form updated", "id", next.ID, "status", next.Status, "step", next.CurrentStep)
	c.JSON(http.StatusOK, next)
}

func (s *Server) handleGetForm(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	form, status, msg := s.lookupFormLocked(c.Param("id"), requestBrand(c))
	if form == nil {
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, form)
}

func (s *Server) handleListForms(c *gin.Context) {
	brand := requestBrand(c)
	if q := c.Query("brand"); q != "" {
		b, err := entities.ParseBrand(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if b != brand {
			c.JSON(http.StatusForbidden, gin.H{"error": "brand does not match X-Brand header"})
			return
		}
	}
	var status entities.FormStatus
	if q := c.Query("status"); q != "" {
		st, err := entities.ParseFormStatus(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status = st
	}

	s.mu.RLock()
	out := make([]entities.TestDriveForm, 0, len(s.forms))
	for _, f := range s.forms {
		if f.Brand != brand {
			continue
		}
		if status != "" && f.Status.Normalize() != status {
			continue
		}
		out = append(out, *f.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].ID < out[j].ID
	})
	c.JSON(http.StatusOK, out)
}

func (s *Server) lookupFormLocked(id string, brand entities.Brand) (*entities.TestDriveForm, int, string) {
	form, ok := s.forms[id]
	if !ok {
		return nil, http.StatusNotFound, "test-drive form not found"
	}
	if form.Brand != brand {
		return nil, http.StatusForbidden, "test-drive form belongs to another brand"
	}
	return form, http.StatusOK, ""
}

// applyLocked writes fields into form, resolving ids to full objects.
func (s *Server) applyLocked(form *entities.TestDriveForm, f draft.Fields) error {
	if f.CustomerID != nil {
		cust, ok := s.customers[*f.CustomerID]
		if !ok {
			return errUnknownCustomer
		}
		form.Customer = cust.Clone()
	}
	if f.VehicleID != nil {
		v, ok := s.vehicles[*f.VehicleID]
		if !ok {
			return errUnknownVehicle
		}
		form.Vehicle = v.Clone()
	}
	if f.LocationID != nil {
		loc, ok := s.findLocationLocked(*f.LocationID)
		if !ok {
			return errUnknownLocation
		}
		form.Location = &loc
	}
	if f.SignatureData != nil {
		form.Signature = &entities.DigitalSignature{ID: s.newID(), SignatureData: *f.SignatureData}
	}
	if f.PurchaseProbability != nil {
		p := *f.PurchaseProbability
		if p < 0 || p > 100 {
			return errors.New("purchaseProbability must be between 0 and 100")
		}
		form.PurchaseProbability = &p
	}
	if f.EstimatedPurchaseDate != nil {
		d := *f.EstimatedPurchaseDate
		form.EstimatedPurchaseDate = &d
	}
	if f.Observations != nil {
		o := strings.TrimSpace(*f.Observations)
		form.Observations = &o
	}
	if f.ReturnState != nil {
		rs := &entities.RemoteReturnState{ID: s.newID(), Images: []entities.Image{}}
		if f.ReturnState.MileageImageURL != "" {
			rs.MileageImage = &entities.Image{ID: s.newID(), URL: f.ReturnState.MileageImageURL}
		}
		if f.ReturnState.FuelLevelImageURL != "" {
			rs.FuelLevelImage = &entities.Image{ID: s.newID(), URL: f.ReturnState.FuelLevelImageURL}
		}
		for _, u := range f.ReturnState.Images {
			rs.Images = append(rs.Images, entities.Image{ID: s.newID(), URL: u})
		}
		form.ReturnState = rs
	}
	if f.Status != nil {
		st, err := entities.ParseFormStatus(string(*f.Status))
		if err != nil {
			return err
		}
		form.Status = st
	}
	if f.CurrentStep != nil {
		form.CurrentStep = *f.CurrentStep
	}
	return nil
}

func (s *Server) findLocationLocked(id string) (entities.Location, bool) {
	for _, loc := range s.locations {
		if loc.ID == id {
			return loc, true
		}
	}
	return entities.Location{}, false
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// ============================================================================
// CUSTOMERS, VEHICLES, LOCATIONS
// ============================================================================

func (s *Server) handleFindOrCreateCustomer(c *gin.Context) {
	var in draft.CustomerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dni := strings.TrimSpace(in.DNI)
	if dni == "" || strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "firstName, lastName and dni are required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.customersByDNI[dni]; ok {
		c.JSON(http.StatusOK, gin.H{"customer": s.customers[id], "created": false})
		return
	}
	cust := &entities.Customer{
		ID:          s.newID(),
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		DNI:         dni,
		PhoneNumber: in.PhoneNumber,
		Email:       in.Email,
	}
	s.customers[cust.ID] = cust
	s.customersByDNI[dni] = cust.ID
	c.JSON(http.StatusCreated, gin.H{"customer": cust, "created": true})
}

func (s *Server) handleLookupVehicle(c *gin.Context) {
	plate := normalizePlate(c.Query("licensePlate"))
	vin := strings.ToUpper(strings.TrimSpace(c.Query("vinNumber")))
	if plate == "" && vin == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "licensePlate or vinNumber is required"})
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if v := s.matchVehicleLocked(plate, vin); v != nil {
		c.JSON(http.StatusOK, v)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
}

func (s *Server) handleFindOrCreateVehicle(c *gin.Context) {
	var in draft.VehicleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	plate := normalizePlate(in.LicensePlate)
	if plate == "" || strings.TrimSpace(in.Make) == "" || strings.TrimSpace(in.Model) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "make, model and licensePlate are required"})
		return
	}
	vin := ""
	if in.VINNumber != nil {
		vin = strings.ToUpper(strings.TrimSpace(*in.VINNumber))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v := s.matchVehicleLocked(plate, vin); v != nil {
		c.JSON(http.StatusOK, gin.H{"vehicle": v, "created": false})
		return
	}
	v := &entities.Vehicle{
		ID:             s.newID(),
		Make:           strings.TrimSpace(in.Make),
		Model:          strings.TrimSpace(in.Model),
		Color:          in.Color,
		Location:       in.Location,
		LicensePlate:   plate,
		RegisterStatus: entities.VehicleInProgress,
	}
	if vin != "" {
		v.VINNumber = &vin
	}
	s.vehicles[v.ID] = v
	c.JSON(http.StatusCreated, gin.H{"vehicle": v, "created": true})
}

func (s *Server) matchVehicleLocked(plate, vin string) *entities.Vehicle {
	for _, v := range s.vehicles {
		if plate != "" && normalizePlate(v.LicensePlate) == plate {
			return v.Clone()
		}
		if vin != "" && v.VINNumber != nil && strings.EqualFold(*v.VINNumber, vin) {
			return v.Clone()
		}
	}
	return nil
}

func (s *Server) handleListLocations(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entities.Location, len(s.locations))
	copy(out, s.locations)
	c.JSON(http.StatusOK, out)
}

func normalizePlate(p string) string {
	p = strings.ToUpper(strings.TrimSpace(p))
	return strings.NewReplacer(" ", "", "-", "", "·", "").Replace(p)
}
