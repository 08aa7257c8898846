// Package cli is the field-agent command line for the test-drive wizard.
// Every invocation restores the wizard from its snapshot, runs one command
// and leaves the updated snapshot behind.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"testdrive-wizard/internal/config"
)

type appFunc func() *App

// NewRootCommand builds the tdwizard command tree.
func NewRootCommand() *cobra.Command {
	var app *App
	current := func() *App { return app }

	root := &cobra.Command{
		Use:   "tdwizard",
		Short: "Test-drive intake wizard",
		Long: `Capture a dealership test drive step by step and keep it in sync
with the server-side draft.

Steps:
  1 customer      customer data
  2 vehicle       vehicle and test-drive location
  3 signature     customer signature
  4 evaluation    purchase evaluation
  5 return        vehicle return photos
  6 confirmation  review and submit

Examples:
  tdwizard start
  tdwizard customer --first-name Ana --last-name Diaz --dni 12.345.678-9
  tdwizard next
  tdwizard vehicle --plate ABCD12
  tdwizard location "Showroom Av. Kennedy"
  tdwizard status
  tdwizard resume 3f1c.../firma`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err = NewApp(cmd.Context(), cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app == nil {
				return nil
			}
			return app.Close()
		},
	}

	root.AddCommand(
		StartCommand(current),
		CustomerCommand(current),
		VehicleCommand(current),
		LocationCommand(current),
		SignCommand(current),
		EvaluateCommand(current),
		ReturnCommand(current),
		NextCommand(current),
		BackCommand(current),
		GotoCommand(current),
		ConfirmCommand(current),
		ResumeCommand(current),
		StatusCommand(current),
		ResetCommand(current),
		DraftsCommand(current),
		ThemeCommand(current),
		LogoutCommand(current),
		ScenarioCommand(current),
		DBCommand(),
	)
	return root
}

// loadConfig reads the environment and installs the default logger at the
// configured level.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(handler))
	return cfg, nil
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", describeError(err))
		return 1
	}
	return 0
}
