package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"testdrive-wizard/internal/draft"
	"testdrive-wizard/internal/wizard"
)

// NextCommand saves the current step to the draft and moves forward.
func NextCommand(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Save the current step and continue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			step := a.Container.CurrentStep()
			if step == wizard.StepConfirmation {
				return fmt.Errorf("this is the last step; use 'tdwizard confirm'")
			}
			res, err := a.Coordinator.Advance(cmd.Context(), step)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Created {
				fmt.Fprintf(out, "📝 Draft %s created\n", res.Form.ID)
			}
			fmt.Fprintf(out, "➡️  Step %s saved, now on %s\n", step, res.Step)
			return nil
		},
	}
}

// BackCommand moves one step back without saving.
func BackCommand(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "back",
		Short: "Go back one step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := app().Coordinator.Back()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "⬅️  Now on %s\n", step)
			return nil
		},
	}
}

// GotoCommand jumps to a step by number or screen name.
func GotoCommand(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "goto <step>",
		Short: "Jump to a step (number or screen name)",
		Long: `Jump to a step. Earlier steps are always reachable; later ones only when
every step before them is complete.

Examples:
  tdwizard goto 2
  tdwizard goto signature`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := parseStep(args[0])
			if err != nil {
				return err
			}
			if err := app().Coordinator.Enter(step); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "↪️  Now on %s\n", step)
			return nil
		},
	}
}

// parseStep accepts a step number, screen name or draft route segment.
func parseStep(raw string) (wizard.Step, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if n, err := strconv.Atoi(raw); err == nil {
		if step := wizard.Step(n); step.Valid() {
			return step, nil
		}
		return 0, fmt.Errorf("step %d out of range 1-%d: %w", n, int(wizard.LastStep), wizard.ErrInvalidStep)
	}
	if step, ok := wizard.StepForScreen(raw); ok {
		return step, nil
	}
	if step, ok := wizard.StepForDraftSegment(raw); ok {
		return step, nil
	}
	return 0, fmt.Errorf("unknown step %q: %w", raw, wizard.ErrInvalidStep)
}

// ConfirmCommand sends the final confirmation.
func ConfirmCommand(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm",
		Short: "Review and submit the test drive (step 6)",
		Long: `Send the whole test drive to the server. When the vehicle came from a
confirmed dealership record the test drive is submitted; otherwise the draft
is kept open until the vehicle is confirmed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			out := cmd.OutOrStdout()
			if a.Container.CurrentStep() != wizard.StepConfirmation {
				if missing := wizard.MissingItems(a.Container.State()); len(missing) > 0 {
					return &draft.ValidationError{
						Step:    wizard.StepConfirmation,
						Reason:  "earlier steps are incomplete",
						Missing: missing,
					}
				}
				if err := a.Coordinator.Enter(wizard.StepConfirmation); err != nil {
					return err
				}
			}
			res, err := a.Coordinator.Advance(cmd.Context(), wizard.StepConfirmation)
			if err != nil {
				return err
			}
			if res.Submitted {
				fmt.Fprintf(out, "✅ Test drive %s submitted\n", res.Form.ID)
				fmt.Fprintln(out, "   Run 'tdwizard start' for the next customer.")
				return nil
			}
			fmt.Fprintf(out, "💾 Draft %s saved\n", res.Form.ID)
			fmt.Fprintln(out, "   The vehicle is not confirmed by the dealership yet; the draft stays open.")
			return nil
		},
	}
}

// ResumeCommand reopens a server-side draft.
func ResumeCommand(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <draft-id | /borradores/<id>/<segment>>",
		Short: "Resume a saved draft",
		Long: `Load a draft from the server into the wizard and continue where it was
left. A draft route selects the step to open; a bare id opens the first
incomplete step. Submitted drafts are shown read-only.

Examples:
  tdwizard resume 3f1c2d9e-...
  tdwizard resume /borradores/3f1c2d9e-.../firma`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			out := cmd.OutOrStdout()
			id, target, err := parseDraftRoute(args[0])
			if err != nil {
				return err
			}
			form, step, err := a.Sync.Resume(cmd.Context(), id)
			if errors.Is(err, draft.ErrAlreadySubmitted) {
				fmt.Fprintf(out, "🔒 Draft %s was submitted and can only be viewed\n\n", form.ID)
				printStatus(out, a)
				return nil
			}
			if err != nil {
				return err
			}
			if target != 0 && target != step {
				if err := a.Coordinator.Enter(target); err != nil {
					fmt.Fprintf(out, "⚠️  %s\n", describeError(err))
				} else {
					step = target
				}
			}
			fmt.Fprintf(out, "📂 Draft %s resumed on %s\n", form.ID, step)
			return nil
		},
	}
}

// parseDraftRoute splits "/borradores/{id}/{segment}" into id and step. A
// bare id yields step 0.
func parseDraftRoute(raw string) (string, wizard.Step, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(raw), "/"), "/")
	if len(parts) > 0 && parts[0] == "borradores" {
		parts = parts[1:]
	}
	switch len(parts) {
	case 1:
		if parts[0] != "" {
			return parts[0], 0, nil
		}
	case 2:
		step, ok := wizard.StepForDraftSegment(parts[1])
		if !ok {
			return "", 0, fmt.Errorf("unknown draft page %q: %w", parts[1], wizard.ErrInvalidStep)
		}
		return parts[0], step, nil
	}
	return "", 0, fmt.Errorf("invalid draft reference %q", raw)
}

// StatusCommand prints the wizard overview.
func StatusCommand(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the wizard state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printStatus(cmd.OutOrStdout(), app())
			return nil
		},
	}
}

// ResetCommand discards the local state. The server-side draft is kept.
func ResetCommand(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the local wizard state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			id := a.Container.DraftFormID()
			a.Container.Reset()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "🧹 Wizard reset")
			if id != "" {
				fmt.Fprintf(out, "   Draft %s is still on the server: tdwizard resume %s\n", id, id)
			}
			return nil
		},
	}
}

// LogoutCommand clears the wizard and ends the session.
func LogoutCommand(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the wizard and end the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			a.Container.Reset()
			if err := a.Sessions.End(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "👋 Session %s ended\n", a.Session.ID)
			return nil
		},
	}
}
