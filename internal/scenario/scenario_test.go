package scenario

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testdrive-wizard/internal/draftclient"
	"testdrive-wizard/internal/draftserver"
	"testdrive-wizard/internal/entities"
	"testdrive-wizard/internal/wizard"
)

const happyPath = `
name: happy path
description: confirmed vehicle, full submission
theme: mercedes
fresh: true
steps:
  - do: customer
    customer: {first_name: Ana, last_name: Diaz, dni: "12.345.678-9"}
  - do: advance
    expect: {step: 2, status: draft, has_draft: true}
  - do: lookup_vehicle
    vehicle: {license_plate: abcd-12}
    expect: {autofilled: true}
  - do: location
    location: showroom
  - do: advance
    expect: {step: 3}
  - do: sign
    signature: "data:image/png;base64,AAA"
  - do: advance
  - do: evaluate
    evaluation: {purchase_probability: 70, estimated_purchase_date: "2026-12-01", observations: "  likes it "}
  - do: advance
  - do: return
    return:
      mileage_image: https://img/m.jpg
      images: [https://img/1.jpg]
  - do: advance
    expect: {error: validation, step: 5, missing: [fuel level photo]}
  - do: return
    return:
      mileage_image: https://img/m.jpg
      fuel_level_image: https://img/f.jpg
      images: [https://img/1.jpg]
  - do: advance
    expect: {step: 6}
  - do: advance
    expect: {step: 6, status: submitted}
  - do: advance
    expect: {error: submitted}
`

func init() {
	gin.SetMode(gin.TestMode)
}

func newRunner(t *testing.T) (*Runner, *wizard.Container, *draftserver.Server) {
	t.Helper()
	var n atomic.Int64
	srv := draftserver.New(draftserver.WithIDs(func() string {
		return fmt.Sprintf("id-%d", n.Add(1))
	}))
	srv.SeedLocation("Showroom")
	srv.SeedVehicle(entities.Vehicle{Make: "Mercedes-Benz", Model: "GLA", LicensePlate: "ABCD12"})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	container := wizard.NewContainer(nil, nil)
	dial := func(brand entities.Brand) Backend {
		return draftclient.NewClient(ts.URL, brand)
	}
	r := NewRunner(RunConfig{NoColor: true}, container, dial, nil)
	r.SetOutput(&bytes.Buffer{})
	return r, container, srv
}

func TestParse(t *testing.T) {
	sc, err := Parse([]byte(happyPath))
	require.NoError(t, err)
	assert.Equal(t, "happy path", sc.Name)
	assert.Equal(t, "mercedes", sc.Theme)
	assert.True(t, sc.Fresh)
	require.Len(t, sc.Steps, 16)
	assert.Equal(t, DoCustomer, sc.Steps[0].Do)
	assert.Equal(t, "12.345.678-9", sc.Steps[0].Customer.DNI)
	assert.Equal(t, []string{"fuel level photo"}, sc.Steps[10].Expect.Missing)
}

func TestParseRejectsUnknownAction(t *testing.T) {
	_, err := Parse([]byte("name: x\nsteps:\n  - do: fly\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown action "fly"`)

	_, err = Parse([]byte("name: empty\n"))
	assert.Error(t, err)
}

func TestParseDefaultsTheme(t *testing.T) {
	sc, err := Parse([]byte("steps:\n  - do: check\n"))
	require.NoError(t, err)
	assert.Equal(t, "sap", sc.Theme)
}

func TestLoadScenarios(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(happyPath), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yml"), []byte("steps:\n  - do: reset\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	paths, err := ListScenarios(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml")}, paths)

	all, err := LoadAllScenarios(dir)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name)
	assert.Equal(t, "happy path", all[1].Name)
}

func TestRunHappyPath(t *testing.T) {
	r, container, _ := newRunner(t)
	sc, err := Parse([]byte(happyPath))
	require.NoError(t, err)

	result, err := r.Run(context.Background(), *sc)
	require.NoError(t, err)
	for _, step := range result.Steps {
		assert.True(t, step.Passed, "step %d (%s): %v", step.Index+1, step.Do, step.Error)
	}
	assert.True(t, result.Success)
	assert.Equal(t, 16, result.PassedSteps)
	assert.NotEmpty(t, result.DraftID)

	state := container.State()
	assert.True(t, state.Submitted())
	assert.Equal(t, "likes it", *state.RemoteForm.Observations)
}

func TestRunWithoutAutofillKeepsDraftOpen(t *testing.T) {
	r, container, _ := newRunner(t)
	sc, err := Parse([]byte(`
theme: andes
steps:
  - do: customer
    customer: {first_name: Luis, last_name: Rojas, dni: "9.876.543-2"}
  - do: advance
  - do: vehicle
    vehicle: {make: Chery, model: Tiggo 2, license_plate: ZZTT99}
    expect: {autofilled: false}
  - do: location
    location: Showroom
  - do: advance
  - do: sign
    signature: sig
  - do: advance
  - do: evaluate
    evaluation: {purchase_probability: 40}
  - do: advance
  - do: return
    return: {mileage_image: m, fuel_level_image: f, images: [a, b]}
  - do: advance
  - do: advance
    expect: {step: 6, status: draft}
`))
	require.NoError(t, err)

	result, err := r.Run(context.Background(), *sc)
	require.NoError(t, err)
	assert.True(t, result.Success, "%+v", result.Steps)
	assert.Equal(t, entities.StatusDraft, container.RemoteForm().Status)
	assert.Equal(t, entities.BrandAndesMotor, container.RemoteForm().Brand)
}

func TestRunResumeAfterReset(t *testing.T) {
	r, container, _ := newRunner(t)
	sc, err := Parse([]byte(`
fresh: true
steps:
  - do: customer
    customer: {first_name: Ana, last_name: Diaz, dni: "1-9"}
  - do: advance
  - do: lookup_vehicle
    vehicle: {license_plate: ABCD12}
  - do: location
    location: Showroom
  - do: advance
    expect: {step: 3}
`))
	require.NoError(t, err)
	result, err := r.Run(context.Background(), *sc)
	require.NoError(t, err)
	require.True(t, result.Success)
	draftID := result.DraftID

	resume := Scenario{Theme: "mercedes", Steps: []Action{
		{Do: DoReset, Expect: &Expect{Step: 1, HasDraft: boolPtr(false)}},
		{Do: DoResume, DraftID: draftID, Expect: &Expect{Step: 3, HasDraft: boolPtr(true), Autofilled: boolPtr(true)}},
		{Do: DoEnter, Step: 5, Expect: &Expect{Error: "validation", Step: 3, Missing: []string{"customer signature"}}},
		{Do: DoBack, Expect: &Expect{Step: 2}},
		{Do: DoResume, DraftID: "missing", Expect: &Expect{Error: "not_found"}},
	}}
	result, err = r.Run(context.Background(), resume)
	require.NoError(t, err)
	for _, step := range result.Steps {
		assert.True(t, step.Passed, "step %d (%s): %v", step.Index+1, step.Do, step.Error)
	}
	assert.Equal(t, draftID, container.DraftFormID())
}

func TestRunManualVehicleCannotSubmit(t *testing.T) {
	r, _, _ := newRunner(t)
	sc, err := Parse([]byte(`
theme: mercedes
fresh: true
steps:
  - do: customer
    customer: {first_name: Ana, last_name: Diaz, dni: "1-9"}
  - do: advance
  - do: lookup_vehicle
    vehicle: {license_plate: ABCD12}
    expect: {autofilled: true}
  - do: lookup_vehicle
    vehicle: {license_plate: ZZZZ99}
    expect: {error: not_found, autofilled: false}
  - do: lookup_vehicle
    vehicle: {license_plate: ABCD12}
    expect: {autofilled: true}
  - do: vehicle
    vehicle: {make: Mercedes-Benz, model: GLA, license_plate: MANU01}
    expect: {autofilled: false}
  - do: location
    location: Showroom
  - do: advance
  - do: sign
    signature: "data:image/png;base64,AAA"
  - do: advance
  - do: evaluate
    evaluation: {purchase_probability: 50}
  - do: advance
  - do: return
    return: {mileage_image: m, fuel_level_image: f, images: [p1]}
  - do: advance
  - do: advance
    expect: {step: 6, status: draft, autofilled: false}
`))
	require.NoError(t, err)
	result, err := r.Run(context.Background(), *sc)
	require.NoError(t, err)
	for _, step := range result.Steps {
		assert.True(t, step.Passed, "step %d (%s): %v", step.Index+1, step.Do, step.Error)
	}
	assert.True(t, result.Success)
}

func TestRunOtherBrandIsForbidden(t *testing.T) {
	r, _, _ := newRunner(t)
	sc, err := Parse([]byte(`
theme: mercedes
fresh: true
steps:
  - do: customer
    customer: {first_name: Ana, last_name: Diaz, dni: "1-9"}
  - do: advance
`))
	require.NoError(t, err)
	result, err := r.Run(context.Background(), *sc)
	require.NoError(t, err)
	require.True(t, result.Success)

	other := Scenario{Theme: "stellantis", Fresh: true, Steps: []Action{
		{Do: DoResume, DraftID: result.DraftID, Expect: &Expect{Error: "forbidden", HasDraft: boolPtr(false)}},
	}}
	result, err = r.Run(context.Background(), other)
	require.NoError(t, err)
	assert.True(t, result.Success, "%v", result.Steps[0].Error)
}

func TestRunStopsOnError(t *testing.T) {
	r, _, _ := newRunner(t)
	out := &bytes.Buffer{}
	r.SetOutput(out)
	sc := Scenario{Theme: "sap", Fresh: true, StopOnError: true, Steps: []Action{
		{Do: DoAdvance},
		{Do: DoReset},
	}}

	result, err := r.Run(context.Background(), sc)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.FailedSteps)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, "validation", result.Steps[0].ErrKind)
	assert.Contains(t, out.String(), "Stopping on error")
	assert.Contains(t, out.String(), "[ERR] FAILED")
}

func TestRunRejectsUnknownTheme(t *testing.T) {
	r, _, _ := newRunner(t)
	_, err := r.Run(context.Background(), Scenario{Theme: "toyota", Steps: []Action{{Do: DoCheck}}})
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	state := wizard.DefaultState()
	assert.NoError(t, check(nil, nil, state))
	assert.Error(t, check(&Expect{Step: 2}, nil, state))
	assert.Error(t, check(&Expect{Error: "validation"}, nil, state))
	assert.NoError(t, check(&Expect{Missing: []string{"customer data", "evaluation"}}, nil, state))
	assert.Error(t, check(&Expect{Status: "draft"}, nil, state))
}

func boolPtr(b bool) *bool { return &b }
