package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"testdrive-wizard/internal/branding"
	"testdrive-wizard/internal/draft"
	"testdrive-wizard/internal/entities"
	"testdrive-wizard/internal/wizard"
)

// Backend is the draft server as seen by a scripted session.
type Backend interface {
	draft.Gateway
	draft.Directory
}

// Dialer returns a backend that acts on behalf of brand.
type Dialer func(brand entities.Brand) Backend

// Runner executes scenarios against a wizard container.
type Runner struct {
	config    RunConfig
	container *wizard.Container
	dial      Dialer
	logger    *slog.Logger
	output    io.Writer

	backend     Backend
	coordinator *draft.Coordinator
	sync        *draft.Synchronizer
}

// NewRunner creates a scenario runner. The container is shared with the
// caller, so a scripted session leaves its state behind like a manual one.
func NewRunner(config RunConfig, container *wizard.Container, dial Dialer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		config:    config,
		container: container,
		dial:      dial,
		logger:    logger,
		output:    os.Stdout,
	}
}

// SetOutput sets the output writer (for testing).
func (r *Runner) SetOutput(w io.Writer) {
	r.output = w
}

// Run executes a scenario and returns results. The error is non-nil only
// when the scenario could not start.
func (r *Runner) Run(ctx context.Context, sc Scenario) (*ScenarioResult, error) {
	result := &ScenarioResult{
		ScenarioName: sc.Name,
		StartTime:    time.Now(),
		TotalSteps:   len(sc.Steps),
	}

	theme, err := branding.ParseTheme(sc.Theme)
	if err != nil {
		result.Error = err
		result.EndTime = time.Now()
		return result, err
	}
	brand := theme.Brand()
	r.backend = r.dial(brand)
	r.coordinator = draft.NewCoordinator(r.container, r.backend, brand, r.logger)
	r.sync = draft.NewSynchronizer(r.container, r.backend, brand, r.logger)

	r.printHeader(sc, theme)
	if sc.Fresh {
		r.container.Reset()
	}

	stop := sc.StopOnError || r.config.StopOnError
	for i, action := range sc.Steps {
		if err := ctx.Err(); err != nil {
			result.Error = err
			break
		}
		stepResult := r.runAction(ctx, i, action)
		result.Steps = append(result.Steps, stepResult)
		if stepResult.Passed {
			result.PassedSteps++
			continue
		}
		result.FailedSteps++
		if stop {
			r.printf("\n%s Stopping on error\n", r.icon("error"))
			break
		}
	}

	result.EndTime = time.Now()
	result.TotalDuration = result.EndTime.Sub(result.StartTime)
	result.DraftID = r.container.DraftFormID()
	result.Success = result.FailedSteps == 0 && result.Error == nil &&
		len(result.Steps) == result.TotalSteps

	r.printSummary(result)
	return result, nil
}

func (r *Runner) runAction(ctx context.Context, index int, action Action) StepResult {
	result := StepResult{Index: index, Do: action.Do, StartTime: time.Now()}
	r.printf("%s %d. %s\n", r.icon("step"), index+1, describe(action))

	detail, err := r.perform(ctx, action)
	result.ErrKind = draft.Kind(err)
	if err != nil {
		r.printf("  %s %v\n", r.icon("warn"), err)
	} else if detail != "" {
		r.printf("  %s %s\n", r.icon("check"), detail)
	}

	state := r.container.State()
	result.Step = int(state.CurrentStep)
	result.DraftID = state.DraftID()
	if state.RemoteForm != nil {
		result.Status = string(state.RemoteForm.Status)
	}

	result.Error = check(action.Expect, err, state)
	result.Passed = result.Error == nil
	if result.Passed && action.Expect != nil {
		r.printf("  %s expectations met\n", r.icon("check"))
	} else if !result.Passed {
		r.printf("  %s %v\n", r.icon("error"), result.Error)
	}
	if r.config.Verbose {
		r.printf("    step=%s draft=%q status=%q\n", state.CurrentStep, result.DraftID, result.Status)
	}

	result.EndTime = time.Now()
	return result
}

// perform applies one action and returns a short description of the outcome.
func (r *Runner) perform(ctx context.Context, a Action) (string, error) {
	switch a.Do {
	case DoCustomer:
		if a.Customer == nil {
			return "", fmt.Errorf("customer action needs a customer block")
		}
		in := draft.CustomerInput{
			FirstName:   a.Customer.FirstName,
			LastName:    a.Customer.LastName,
			DNI:         a.Customer.DNI,
			PhoneNumber: optional(a.Customer.Phone),
			Email:       optional(a.Customer.Email),
		}
		customer, err := r.backend.FindOrCreateCustomer(ctx, in)
		if err != nil {
			return "", err
		}
		r.container.SetCustomer(*customer)
		return fmt.Sprintf("customer %s (%s)", customer.FullName(), customer.ID), nil

	case DoLookupVehicle:
		if a.Vehicle == nil {
			return "", fmt.Errorf("lookup_vehicle action needs a vehicle block")
		}
		vehicle, err := r.backend.LookupVehicle(ctx, a.Vehicle.LicensePlate, a.Vehicle.VIN)
		if err != nil {
			if draft.Kind(err) == "not_found" {
				r.container.ClearVehicle()
			}
			return "", err
		}
		if vehicle.RegisterStatus != entities.VehicleConfirmed {
			r.container.ClearVehicle()
			if err := r.container.SetVehicle(*vehicle); err != nil {
				return "", err
			}
			return fmt.Sprintf("vehicle %s %s found, not confirmed", vehicle.Make, vehicle.Model), nil
		}
		r.container.SetAutofilledVehicle(*vehicle)
		return fmt.Sprintf("vehicle %s %s autofilled", vehicle.Make, vehicle.Model), nil

	case DoVehicle:
		if a.Vehicle == nil {
			return "", fmt.Errorf("vehicle action needs a vehicle block")
		}
		vehicle, err := r.backend.FindOrCreateVehicle(ctx, draft.VehicleInput{
			Make:         a.Vehicle.Make,
			Model:        a.Vehicle.Model,
			Color:        a.Vehicle.Color,
			LicensePlate: a.Vehicle.LicensePlate,
			VINNumber:    optional(a.Vehicle.VIN),
		})
		if err != nil {
			return "", err
		}
		if err := r.container.SetVehicle(*vehicle); err != nil {
			return "", err
		}
		r.container.SetVehicleAutofilled(false)
		return fmt.Sprintf("vehicle %s %s (%s)", vehicle.Make, vehicle.Model, vehicle.ID), nil

	case DoLocation:
		locations, err := r.backend.ListLocations(ctx)
		if err != nil {
			return "", err
		}
		for _, loc := range locations {
			if strings.EqualFold(loc.Name, a.Location) || loc.ID == a.Location {
				r.container.SetLocation(loc)
				return "location " + loc.Name, nil
			}
		}
		return "", fmt.Errorf("no location named %q", a.Location)

	case DoSign:
		r.container.SetSignatureData(a.Signature)
		return "signature captured", nil

	case DoEvaluate:
		if a.Evaluation == nil {
			return "", fmt.Errorf("evaluate action needs an evaluation block")
		}
		r.container.SetEvaluation(entities.Evaluation{
			PurchaseProbability:   a.Evaluation.PurchaseProbability,
			EstimatedPurchaseDate: a.Evaluation.EstimatedPurchaseDate,
			Observations:          a.Evaluation.Observations,
		})
		return fmt.Sprintf("evaluation %d%%", a.Evaluation.PurchaseProbability), nil

	case DoReturn:
		if a.Return == nil {
			return "", fmt.Errorf("return action needs a return block")
		}
		images := slices.Clone(a.Return.Images)
		if images == nil {
			images = []string{}
		}
		r.container.SetReturnState(entities.ReturnState{
			MileageImageURL:   a.Return.MileageImage,
			FuelLevelImageURL: a.Return.FuelLevelImage,
			ImageURLs:         images,
		})
		return fmt.Sprintf("%d return photos", len(images)), nil

	case DoAdvance:
		step := wizard.Step(a.Step)
		if step == 0 {
			step = r.container.CurrentStep()
		}
		res, err := r.coordinator.Advance(ctx, step)
		if err != nil {
			return "", err
		}
		if step == wizard.StepConfirmation {
			if res.Submitted {
				return "test drive submitted", nil
			}
			return "draft saved, vehicle not confirmed", nil
		}
		return fmt.Sprintf("now on step %s (draft %s)", res.Step, res.Form.ID), nil

	case DoBack:
		step, err := r.coordinator.Back()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("back to step %s", step), nil

	case DoEnter:
		if err := r.coordinator.Enter(wizard.Step(a.Step)); err != nil {
			return "", err
		}
		return fmt.Sprintf("entered step %s", wizard.Step(a.Step)), nil

	case DoReset:
		r.container.Reset()
		return "wizard reset", nil

	case DoResume:
		id := a.DraftID
		if id == "" {
			id = r.container.DraftFormID()
		}
		if id == "" {
			return "", fmt.Errorf("resume needs a draft id")
		}
		form, step, err := r.sync.Resume(ctx, id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("resumed draft %s at step %s", form.ID, step), nil

	case DoCheck:
		return "", nil
	}
	return "", fmt.Errorf("unknown action %q", a.Do)
}

// check compares the outcome of an action with its expectations. Without an
// expectation block the action only has to succeed.
func check(exp *Expect, err error, state wizard.State) error {
	if exp == nil {
		return err
	}
	kind := draft.Kind(err)
	if exp.Error != kind {
		if err != nil {
			return fmt.Errorf("expected error %q, got %q: %w", exp.Error, kind, err)
		}
		return fmt.Errorf("expected error %q, action succeeded", exp.Error)
	}
	if exp.Step != 0 && int(state.CurrentStep) != exp.Step {
		return fmt.Errorf("expected step %d, on step %d", exp.Step, state.CurrentStep)
	}
	if exp.Status != "" {
		status := ""
		if state.RemoteForm != nil {
			status = string(state.RemoteForm.Status)
		}
		if !strings.EqualFold(status, exp.Status) {
			return fmt.Errorf("expected status %q, got %q", exp.Status, status)
		}
	}
	if exp.Autofilled != nil && state.VehicleAutofilled != *exp.Autofilled {
		return fmt.Errorf("expected autofilled=%t", *exp.Autofilled)
	}
	if exp.HasDraft != nil && state.HasDraft() != *exp.HasDraft {
		return fmt.Errorf("expected has_draft=%t", *exp.HasDraft)
	}
	if len(exp.Missing) > 0 {
		missing := wizard.MissingItems(state)
		if v, ok := asValidation(err); ok && len(v.Missing) > 0 {
			missing = v.Missing
		}
		for _, item := range exp.Missing {
			if !slices.Contains(missing, item) {
				return fmt.Errorf("expected %q among missing items %v", item, missing)
			}
		}
	}
	return nil
}

func asValidation(err error) (*draft.ValidationError, bool) {
	var v *draft.ValidationError
	ok := errors.As(err, &v)
	return v, ok
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func describe(a Action) string {
	switch a.Do {
	case DoAdvance, DoEnter:
		if a.Step != 0 {
			return fmt.Sprintf("%s %s", a.Do, wizard.Step(a.Step))
		}
	case DoLocation:
		return fmt.Sprintf("%s %q", a.Do, a.Location)
	case DoResume:
		if a.DraftID != "" {
			return fmt.Sprintf("%s %s", a.Do, a.DraftID)
		}
	}
	return a.Do
}

// Output helpers

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.output, format, args...)
}

func (r *Runner) printHeader(sc Scenario, theme branding.Theme) {
	r.printf("\n%s\n", strings.Repeat("═", 60))
	r.printf("%s %s [%s]\n", r.icon("scenario"), sc.Name, theme.DisplayName())
	if sc.Description != "" {
		r.printf("   %s\n", sc.Description)
	}
	r.printf("%s\n", strings.Repeat("═", 60))
}

func (r *Runner) printSummary(result *ScenarioResult) {
	r.printf("\n%s\n", strings.Repeat("─", 60))
	r.printf("%s Summary\n", r.icon("summary"))
	r.printf("   Duration: %s\n", result.TotalDuration.Round(time.Millisecond))
	r.printf("   Steps:    %d total, %d passed, %d failed\n",
		result.TotalSteps, result.PassedSteps, result.FailedSteps)
	if result.DraftID != "" {
		r.printf("   Draft:    %s\n", result.DraftID)
	}
	if result.Success {
		r.printf("   Result:   %s PASSED\n", r.icon("check"))
	} else {
		r.printf("   Result:   %s FAILED\n", r.icon("error"))
	}
	r.printf("%s\n\n", strings.Repeat("─", 60))
}

func (r *Runner) icon(name string) string {
	if r.config.NoColor {
		return iconPlain[name]
	}
	return iconColor[name]
}

var iconColor = map[string]string{
	"scenario": "\033[1;36m▶\033[0m",
	"step":     "\033[1;33m→\033[0m",
	"check":    "\033[1;32m✓\033[0m",
	"error":    "\033[1;31m✗\033[0m",
	"warn":     "\033[1;33m⚠\033[0m",
	"summary":  "\033[1;36m📊\033[0m",
}

var iconPlain = map[string]string{
	"scenario": ">",
	"step":     "->",
	"check":    "[OK]",
	"error":    "[ERR]",
	"warn":     "[WARN]",
	"summary":  "[SUM]",
}
