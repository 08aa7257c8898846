package cli

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"testdrive-wizard/internal/draft"
	"testdrive-wizard/internal/entities"
	"testdrive-wizard/internal/wizard"
)

// StartCommand begins a new test drive, discarding any local state.
func StartCommand(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a new test drive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			a.Container.Reset()
			fmt.Fprintf(cmd.OutOrStdout(), "🚗 New %s test drive started, step %s\n", a.Theme.DisplayName(), a.Container.CurrentStep())
			return nil
		},
	}
}

// CustomerCommand finds or creates the customer by national id.
func CustomerCommand(app appFunc) *cobra.Command {
	var in draft.CustomerInput
	var phone, email string

	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Set the customer (step 1)",
		Long: `Find the customer by national id, creating the record when it is new,
and store it in the wizard.

Examples:
  tdwizard customer --first-name Ana --last-name Diaz --dni 12.345.678-9
  tdwizard customer --first-name Ana --last-name Diaz --dni 12.345.678-9 --email ana@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			in.PhoneNumber = optional(phone)
			in.Email = optional(email)
			customer, err := a.Client.FindOrCreateCustomer(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("failed to find or create customer: %w", err)
			}
			a.Container.SetCustomer(*customer)
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Customer %s (%s)\n", customer.FullName(), customer.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "Customer first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "Customer last name")
	cmd.Flags().StringVar(&in.DNI, "dni", "", "National id")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.MarkFlagRequired("first-name")
	cmd.MarkFlagRequired("last-name")
	cmd.MarkFlagRequired("dni")
	return cmd
}

// VehicleCommand looks up a dealership vehicle or registers one by hand.
func VehicleCommand(app appFunc) *cobra.Command {
	var (
		manual  bool
		release bool
		in      draft.VehicleInput
		vin     string
	)

	cmd := &cobra.Command{
		Use:   "vehicle",
		Short: "Set the vehicle (step 2)",
		Long: `Look the vehicle up by licence plate or VIN. A confirmed dealership record
fills the vehicle in and locks make and model. Use --manual to register a
vehicle that is not in the catalogue.

Examples:
  tdwizard vehicle --plate ABCD12
  tdwizard vehicle --vin WDD1569431J123456
  tdwizard vehicle --manual --make Jeep --model Compass --plate JPCM45
  tdwizard vehicle --clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			out := cmd.OutOrStdout()
			if release {
				a.Container.ClearVehicle()
				fmt.Fprintln(out, "🧹 Vehicle cleared")
				return nil
			}
			if in.LicensePlate == "" && vin == "" {
				return fmt.Errorf("--plate or --vin is required")
			}

			if manual {
				in.VINNumber = optional(vin)
				vehicle, err := a.Client.FindOrCreateVehicle(cmd.Context(), in)
				if err != nil {
					return fmt.Errorf("failed to register vehicle: %w", err)
				}
				if err := a.Container.SetVehicle(*vehicle); err != nil {
					return err
				}
				a.Container.SetVehicleAutofilled(false)
				fmt.Fprintf(out, "✅ Vehicle %s %s %s\n", vehicle.Make, vehicle.Model, vehicle.LicensePlate)
				return nil
			}

			vehicle, err := a.Client.LookupVehicle(cmd.Context(), in.LicensePlate, vin)
			if err != nil {
				if draft.Kind(err) == "not_found" {
					a.Container.ClearVehicle()
					return fmt.Errorf("no vehicle matches; register it with --manual")
				}
				return fmt.Errorf("vehicle lookup failed: %w", err)
			}
			if vehicle.RegisterStatus != entities.VehicleConfirmed {
				a.Container.ClearVehicle()
				if err := a.Container.SetVehicle(*vehicle); err != nil {
					return err
				}
				fmt.Fprintf(out, "⚠️  Vehicle %s %s found but not confirmed by the dealership\n", vehicle.Make, vehicle.Model)
				return nil
			}
			a.Container.SetAutofilledVehicle(*vehicle)
			fmt.Fprintf(out, "✅ Vehicle %s %s %s filled in from the dealership record 🔒\n", vehicle.Make, vehicle.Model, vehicle.LicensePlate)
			return nil
		},
	}

	cmd.Flags().BoolVar(&manual, "manual", false, "Register the vehicle by hand")
	cmd.Flags().BoolVar(&release, "clear", false, "Drop the vehicle and release the autofill lock")
	cmd.Flags().StringVar(&in.LicensePlate, "plate", "", "Licence plate")
	cmd.Flags().StringVar(&vin, "vin", "", "VIN")
	cmd.Flags().StringVar(&in.Make, "make", "", "Make (manual)")
	cmd.Flags().StringVar(&in.Model, "model", "", "Model (manual)")
	cmd.Flags().StringVar(&in.Color, "color", "", "Color (manual)")
	cmd.MarkFlagsMutuallyExclusive("manual", "clear")
	return cmd
}

// LocationCommand lists test-drive locations or selects one.
func LocationCommand(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "location [name-or-id]",
		Short: "List or select the test-drive location (step 2)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			out := cmd.OutOrStdout()
			locations, err := a.Client.ListLocations(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list locations: %w", err)
			}
			if len(args) == 0 {
				current := a.Container.Location()
				for _, loc := range locations {
					mark := "  "
					if current != nil && current.ID == loc.ID {
						mark = "▸ "
					}
					fmt.Fprintf(out, "%s%s  %s\n", mark, loc.ID, loc.Name)
				}
				return nil
			}
			for _, loc := range locations {
				if loc.ID == args[0] || strings.EqualFold(loc.Name, args[0]) {
					a.Container.SetLocation(loc)
					fmt.Fprintf(out, "📍 Location %s\n", loc.Name)
					return nil
				}
			}
			return fmt.Errorf("no location named %q", args[0])
		},
	}
}

// SignCommand stores the customer's signature image.
func SignCommand(app appFunc) *cobra.Command {
	var data, file string
	var erase bool

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Capture the customer signature (step 3)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			out := cmd.OutOrStdout()
			switch {
			case erase:
				a.Container.SetSignatureData("")
				fmt.Fprintln(out, "🧹 Signature cleared")
				return nil
			case file != "":
				encoded, err := encodeImage(file)
				if err != nil {
					return err
				}
				data = encoded
			case strings.TrimSpace(data) == "":
				return fmt.Errorf("--data or --file is required")
			}
			a.Container.SetSignatureData(data)
			fmt.Fprintf(out, "✍️  Signature captured (%d bytes)\n", len(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "Encoded signature payload")
	cmd.Flags().StringVar(&file, "file", "", "Signature image file")
	cmd.Flags().BoolVar(&erase, "clear", false, "Clear the signature")
	cmd.MarkFlagsMutuallyExclusive("data", "file", "clear")
	return cmd
}

// encodeImage reads an image file into a data URI.
func encodeImage(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read signature: %w", err)
	}
	mime := http.DetectContentType(raw)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%s is not an image (%s)", path, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}

// EvaluateCommand records the agent's purchase evaluation.
func EvaluateCommand(app appFunc) *cobra.Command {
	var ev entities.Evaluation

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Record the purchase evaluation (step 4)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ev.PurchaseProbability < 0 || ev.PurchaseProbability > 100 {
				return fmt.Errorf("--probability must be between 0 and 100")
			}
			app().Container.SetEvaluation(ev)
			fmt.Fprintf(cmd.OutOrStdout(), "📈 Evaluation %d%%\n", ev.PurchaseProbability)
			return nil
		},
	}

	cmd.Flags().IntVar(&ev.PurchaseProbability, "probability", 0, "Purchase probability, 0-100")
	cmd.Flags().StringVar(&ev.EstimatedPurchaseDate, "date", "", "Estimated purchase date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&ev.Observations, "observations", "", "Free-text observations")
	cmd.MarkFlagRequired("probability")
	return cmd
}

// ReturnCommand records the vehicle return photos.
func ReturnCommand(app appFunc) *cobra.Command {
	var rs entities.ReturnState

	cmd := &cobra.Command{
		Use:   "return",
		Short: "Record the vehicle return photos (step 5)",
		Long: `Record the photographic proof taken when the vehicle comes back: the
odometer, the fuel gauge and at least one photo of the vehicle. Values are
image URLs. Flags left out keep what was recorded before.

Example:
  tdwizard return --mileage-photo https://img/odo.jpg --fuel-photo https://img/fuel.jpg --photo https://img/1.jpg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			next := entities.ReturnState{ImageURLs: []string{}}
			if prev := a.Container.ReturnState(); prev != nil {
				next = *prev
			}
			if rs.MileageImageURL != "" {
				next.MileageImageURL = rs.MileageImageURL
			}
			if rs.FuelLevelImageURL != "" {
				next.FuelLevelImageURL = rs.FuelLevelImageURL
			}
			if len(rs.ImageURLs) > 0 {
				next.ImageURLs = rs.ImageURLs
			}
			a.Container.SetReturnState(next)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "📷 Return photos: mileage %s, fuel %s, %d vehicle photos\n",
				check(next.MileageImageURL != ""), check(next.FuelLevelImageURL != ""), len(next.ImageURLs))
			if missing := wizard.MissingFor(a.Container.State(), wizard.StepReturn); len(missing) > 0 {
				fmt.Fprintf(out, "   Still missing: %s\n", strings.Join(missing, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rs.MileageImageURL, "mileage-photo", "", "Odometer photo URL")
	cmd.Flags().StringVar(&rs.FuelLevelImageURL, "fuel-photo", "", "Fuel gauge photo URL")
	cmd.Flags().StringArrayVar(&rs.ImageURLs, "photo", nil, "Vehicle photo URL (repeatable)")
	return cmd
}
