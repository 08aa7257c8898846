package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"testdrive-wizard/internal/draft"
	"testdrive-wizard/internal/entities"
	"testdrive-wizard/internal/wizard"
)

// describeError turns wizard and gateway failures into operator messages.
func describeError(err error) string {
	var validation *draft.ValidationError
	switch draft.Kind(err) {
	case "validation":
		errors.As(err, &validation)
		if len(validation.Missing) > 0 {
			return fmt.Sprintf("cannot continue from step %s, missing: %s",
				validation.Step, strings.Join(validation.Missing, ", "))
		}
		return err.Error()
	case "submitted":
		return "this test drive was already submitted and can only be viewed"
	case "not_found":
		return "draft not found; start a new test drive with 'tdwizard start'"
	case "forbidden":
		return "this draft belongs to another brand"
	case "stale":
		return "the wizard changed while saving; run the command again"
	case "sync":
		return fmt.Sprintf("could not save the draft, your data is kept locally: %v", err)
	case "vehicle_locked":
		return "make and model come from the dealership record; clear the vehicle first (vehicle --clear)"
	}
	return err.Error()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}

// stepSummary renders the data a step holds, or "" when it has none.
func stepSummary(s wizard.State, step wizard.Step) string {
	switch step {
	case wizard.StepCustomer:
		if s.Customer != nil {
			return fmt.Sprintf("%s (%s)", s.Customer.FullName(), s.Customer.DNI)
		}
	case wizard.StepVehicle:
		var parts []string
		if s.Vehicle != nil {
			v := fmt.Sprintf("%s %s %s", s.Vehicle.Make, s.Vehicle.Model, s.Vehicle.LicensePlate)
			if s.VehicleAutofilled {
				v += " 🔒"
			}
			parts = append(parts, v)
		}
		if s.Location != nil {
			parts = append(parts, "@ "+s.Location.Name)
		}
		return strings.Join(parts, " ")
	case wizard.StepSignature:
		if s.SignatureData != nil && strings.TrimSpace(*s.SignatureData) != "" {
			return fmt.Sprintf("signed (%d bytes)", len(*s.SignatureData))
		}
	case wizard.StepEvaluation:
		if s.Evaluation != nil {
			return fmt.Sprintf("%d%% by %s", s.Evaluation.PurchaseProbability, orDash(s.Evaluation.EstimatedPurchaseDate))
		}
	case wizard.StepReturn:
		if rs := s.ReturnState; rs != nil {
			text := fmt.Sprintf("mileage %s, fuel %s, %d photos",
				check(rs.MileageImageURL != ""), check(rs.FuelLevelImageURL != ""), len(rs.ImageURLs))
			if rs.FinalMileage != nil {
				text += fmt.Sprintf(" (legacy reading %.0f km)", *rs.FinalMileage)
			}
			return text
		}
	case wizard.StepConfirmation:
		if s.RemoteForm != nil {
			return string(s.RemoteForm.Status)
		}
	}
	return ""
}

func check(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

// printStatus writes the wizard overview.
func printStatus(w io.Writer, app *App) {
	s := app.Container.State()
	fmt.Fprintf(w, "📋 Test drive [%s] session %s\n", app.Theme.DisplayName(), app.Session.ID)
	if s.HasDraft() {
		status, marker := entities.FormStatus(""), entities.StepMarker("")
		if s.RemoteForm != nil {
			status, marker = s.RemoteForm.Status, s.RemoteForm.CurrentStep
		}
		fmt.Fprintf(w, "   Draft:  %s (%s, %s)\n", s.DraftID(), orDash(string(status)), orDash(string(marker)))
		fmt.Fprintf(w, "   Route:  %s\n", wizard.DraftRoute(s.DraftID(), s.CurrentStep))
	} else {
		fmt.Fprintf(w, "   Draft:  none yet\n")
	}
	fmt.Fprintf(w, "\n")
	for _, info := range wizard.Steps() {
		mark := "  "
		switch {
		case info.Step == s.CurrentStep:
			mark = "▸ "
		case info.Step != wizard.StepConfirmation && s.StepValid(info.Step):
			mark = "✔ "
		}
		fmt.Fprintf(w, "   %s%d %-13s %s\n", mark, int(info.Step), info.Title, stepSummary(s, info.Step))
	}
	if missing := wizard.MissingItems(s); len(missing) > 0 {
		fmt.Fprintf(w, "\n   Missing: %s\n", strings.Join(missing, ", "))
	}
	if s.Submitted() {
		fmt.Fprintf(w, "\n   🔒 Submitted, view only\n")
	}
}
