package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"testdrive-wizard/internal/branding"
	"testdrive-wizard/internal/datastore"
	"testdrive-wizard/internal/draft"
	"testdrive-wizard/internal/entities"
	"testdrive-wizard/internal/scenario"
)

// DraftsCommand lists the brand's drafts on the server.
func DraftsCommand(app appFunc) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "List test drives of the current brand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			filter := draft.ListFilter{Brand: a.Brand()}
			if status != "" {
				s, err := entities.ParseFormStatus(status)
				if err != nil {
					return err
				}
				filter.Status = s
			}
			forms, err := a.Client.ListForms(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("failed to list drafts: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(forms) == 0 {
				fmt.Fprintln(out, "No test drives found")
				return nil
			}
			current := a.Container.DraftFormID()
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "\tID\tSTATUS\tSTEP\tCUSTOMER\tVEHICLE\tUPDATED")
			for _, f := range forms {
				mark := ""
				if f.ID == current {
					mark = "▸"
				}
				customer, vehicle := "—", "—"
				if f.Customer != nil {
					customer = f.Customer.FullName()
				}
				if f.Vehicle != nil {
					vehicle = strings.TrimSpace(f.Vehicle.Make + " " + f.Vehicle.Model)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					mark, f.ID, f.Status, orDash(string(f.CurrentStep)), customer, vehicle, orDash(f.UpdatedAt))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (draft, submitted)")
	return cmd
}

// ThemeCommand shows or selects the dealership theme.
func ThemeCommand(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "theme [sap|mercedes|andes|stellantis]",
		Short: "Show or select the dealership theme",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, t := range branding.Themes() {
					mark := "  "
					if t == a.Theme {
						mark = "▸ "
					}
					fmt.Fprintf(out, "%s%-11s %s (%s)\n", mark, t, t.DisplayName(), t.Brand())
				}
				return nil
			}
			theme, err := branding.ParseTheme(args[0])
			if err != nil {
				return err
			}
			if a.Container.State().HasDraft() && theme.Brand() != a.Brand() {
				fmt.Fprintln(out, "⚠️  The open draft belongs to the previous brand; run 'tdwizard start' for a new one")
			}
			if err := a.SetTheme(cmd.Context(), theme); err != nil {
				return err
			}
			fmt.Fprintf(out, "🎨 Theme %s (%s)\n", theme.DisplayName(), theme.Brand())
			return nil
		},
	}
}

// ScenarioCommand runs scripted wizard sessions.
func ScenarioCommand(app appFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Run scripted wizard sessions",
	}

	var config scenario.RunConfig
	run := &cobra.Command{
		Use:   "run <file.yaml>...",
		Short: "Run scenario files against the draft server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			runner := scenario.NewRunner(config, a.Container, a.Dial, a.Logger)
			runner.SetOutput(cmd.OutOrStdout())
			failed := 0
			for _, path := range args {
				sc, err := scenario.LoadScenario(path)
				if err != nil {
					return err
				}
				result, err := runner.Run(cmd.Context(), *sc)
				if err != nil {
					return err
				}
				if !result.Success {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scenarios failed", failed, len(args))
			}
			return nil
		},
	}
	run.Flags().BoolVar(&config.NoColor, "no-color", false, "Disable color output")
	run.Flags().BoolVarP(&config.Verbose, "verbose", "v", false, "Show the wizard position after each action")
	run.Flags().BoolVar(&config.StopOnError, "stop-on-error", false, "Stop a scenario at its first failing action")

	list := &cobra.Command{
		Use:   "list <dir>",
		Short: "List scenario files in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios, err := scenario.LoadAllScenarios(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, sc := range scenarios {
				fmt.Fprintf(out, "%-32s %2d steps  %s\n", sc.Name, len(sc.Steps), sc.Description)
			}
			return nil
		},
	}

	cmd.AddCommand(run, list)
	return cmd
}

// DBCommand groups storage maintenance commands. It does not open a wizard.
func DBCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Storage maintenance",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}

	var dbConnStr string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the session tables of the SQL back-ends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dbConnStr != "" {
				cfg.ConnString = dbConnStr
			}
			dsConfig, err := cfg.GetDataStoreConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "🔄 Initializing %s store\n", dsConfig.Type)
			if dsConfig.Type == datastore.PostgreSQLStore {
				fmt.Fprintf(out, "🗄️  Database: %s\n", maskConnectionString(dsConfig.ConnectionString))
			}
			if err := datastore.InitSchema(cmd.Context(), dsConfig); err != nil {
				return fmt.Errorf("failed to initialize schema: %w", err)
			}
			fmt.Fprintln(out, "✅ Schema ready")
			return nil
		},
	}
	initCmd.Flags().StringVar(&dbConnStr, "db", "", "Database connection string (overrides env var)")

	cmd.AddCommand(initCmd)
	return cmd
}
