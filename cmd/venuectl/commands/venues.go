package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/venue-shards-go/features/command/addvenue"
	"github.com/AntonStoeckl/venue-shards-go/features/command/addvenues"
	"github.com/AntonStoeckl/venue-shards-go/features/command/removevenue"
	"github.com/AntonStoeckl/venue-shards-go/features/command/updatevenue"
	"github.com/AntonStoeckl/venue-shards-go/features/shell/observable"
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

const defaultImportConcurrency = 4

type venueView struct {
	ID           int64   `json:"id,omitempty"`
	Name         string  `json:"name"`
	City         string  `json:"city"`
	Capacity     int     `json:"capacity"`
	PricePerHour float64 `json:"price_per_hour"`
	Partition    string  `json:"partition,omitempty"`
}

func viewOfVenue(v venuestore.Venue, partitionName string) venueView {
	return venueView{
		ID:           v.ID,
		Name:         v.Name,
		City:         v.City,
		Capacity:     v.Capacity,
		PricePerHour: v.PricePerHour,
		Partition:    partitionName,
	}
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', 2, 64)
}

func newAddVenueCommand(flags *globalFlags) *cobra.Command {
	var (
		city     string
		capacity int
		price    float64
	)

	cmd := &cobra.Command{
		Use:   "add-venue <name>",
		Short: "Add a venue to the partition owning its name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd, flags)
			if err != nil {
				return err
			}

			command, err := addvenue.BuildCommand(args[0], city, capacity, price)
			if err != nil {
				return present(p, err)
			}

			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			resolver, err := resolverFor[addvenue.VenueStore](a)
			if err != nil {
				return present(p, err)
			}

			options := []addvenue.Option{
				addvenue.WithRetryOptions(a.retryOptions(command.CommandType())...),
				addvenue.WithPartitionTimeout(a.cfg.PartitionTimeout),
			}
			if a.locker != nil {
				options = append(options, addvenue.WithLocker(a.locker))
			}

			core, err := addvenue.NewCommandHandler(resolver, options...)
			if err != nil {
				return present(p, err)
			}

			handler, err := observable.NewCommandWrapper[addvenue.Command, addvenue.Result](core, commandOptions[addvenue.Command, addvenue.Result](a)...)
			if err != nil {
				return present(p, err)
			}

			result, err := handler.Handle(cmd.Context(), command)
			if err != nil {
				return present(p, err)
			}

			view := viewOfVenue(command.Venue, result.PartitionName)
			view.ID = result.VenueID

			return p.Result(view, func() {
				p.Success("added %s (%s) to partition %s", view.Name, view.City, view.Partition)
			})
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "city of the venue")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "number of people the venue holds")
	cmd.Flags().Float64Var(&price, "price", 0, "price per hour")
	_ = cmd.MarkFlagRequired("city")
	_ = cmd.MarkFlagRequired("capacity")

	return cmd
}

type importView struct {
	Inserted   int                  `json:"inserted"`
	Failed     int                  `json:"failed"`
	Partitions []importPartitionRow `json:"partitions"`
	Rejected   []importFailureRow   `json:"rejected,omitempty"`
}

type importPartitionRow struct {
	Partition string             `json:"partition"`
	Inserted  int                `json:"inserted"`
	Failures  []importFailureRow `json:"failures,omitempty"`
}

type importFailureRow struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

func newImportVenuesCommand(flags *globalFlags) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "import-venues <file.yaml|file.json>",
		Short: "Add many venues from a YAML or JSON file",
		Long: `Add many venues from a YAML or JSON file. Each partition receives its venues
concurrently. Invalid entries and venues that already exist are reported, the others are stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd, flags)
			if err != nil {
				return err
			}

			specs, err := readSpecs(args[0])
			if err != nil {
				return p.Error("Cannot read import file", err.Error(), "Use a .yaml, .yml or .json file")
			}

			command := addvenues.BuildCommand(specs)

			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			resolver, err := resolverFor[addvenues.VenueStore](a)
			if err != nil {
				return present(p, err)
			}

			core, err := addvenues.NewCommandHandler(resolver,
				addvenues.WithMaxConcurrency(concurrency),
				addvenues.WithRetryOptions(a.retryOptions(command.CommandType())...),
				addvenues.WithPartitionTimeout(a.cfg.PartitionTimeout),
			)
			if err != nil {
				return present(p, err)
			}

			handler, err := observable.NewCommandWrapper[addvenues.Command, addvenues.Result](core, commandOptions[addvenues.Command, addvenues.Result](a)...)
			if err != nil {
				return present(p, err)
			}

			result, err := handler.Handle(cmd.Context(), command)
			if err != nil {
				return present(p, err)
			}

			view := viewOfImport(result)

			return p.Result(view, func() { printImport(a, view) })
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", defaultImportConcurrency, "partitions written at the same time")

	return cmd
}

func readSpecs(path string) ([]addvenues.VenueSpec, error) {
	format, err := addvenues.FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return addvenues.DecodeSpecs(file, format)
}

func viewOfImport(result addvenues.Result) importView {
	view := importView{Inserted: result.Inserted(), Failed: result.Failed(), Partitions: make([]importPartitionRow, 0)}

	for _, summary := range result.Summaries {
		row := importPartitionRow{Partition: summary.PartitionName, Inserted: summary.Inserted}
		for _, f := range summary.Failures {
			row.Failures = append(row.Failures, importFailureRow{Name: f.Name, Error: f.Err.Error()})
		}

		view.Partitions = append(view.Partitions, row)
	}

	for _, r := range result.Rejected {
		view.Rejected = append(view.Rejected, importFailureRow{Name: fmt.Sprintf("#%d %s", r.Index, r.Name), Error: r.Err.Error()})
	}

	return view
}

func printImport(a *app, view importView) {
	rows := make([][]string, 0, len(view.Partitions))
	for _, row := range view.Partitions {
		rows = append(rows, []string{row.Partition, strconv.Itoa(row.Inserted), strconv.Itoa(len(row.Failures))})
	}

	a.printer.Table([]string{"PARTITION", "INSERTED", "FAILED"}, rows)

	for _, row := range view.Partitions {
		for _, f := range row.Failures {
			a.printer.Warning("%s on %s: %s", f.Name, row.Partition, f.Error)
		}
	}

	for _, r := range view.Rejected {
		a.printer.Warning("rejected %s: %s", r.Name, r.Error)
	}

	a.printer.Success("imported %d venues, %d failed", view.Inserted, view.Failed)
}

func newUpdateVenueCommand(flags *globalFlags) *cobra.Command {
	var (
		city     string
		capacity int
		price    float64
	)

	cmd := &cobra.Command{
		Use:   "update-venue <name>",
		Short: "Change city, capacity, and price of a venue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd, flags)
			if err != nil {
				return err
			}

			command, err := updatevenue.BuildCommand(args[0], city, capacity, price)
			if err != nil {
				return present(p, err)
			}

			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			resolver, err := resolverFor[updatevenue.VenueStore](a)
			if err != nil {
				return present(p, err)
			}

			options := []updatevenue.Option{
				updatevenue.WithRetryOptions(a.retryOptions(command.CommandType())...),
				updatevenue.WithPartitionTimeout(a.cfg.PartitionTimeout),
			}
			if a.locker != nil {
				options = append(options, updatevenue.WithLocker(a.locker))
			}

			core, err := updatevenue.NewCommandHandler(resolver, options...)
			if err != nil {
				return present(p, err)
			}

			handler, err := observable.NewCommandWrapper[updatevenue.Command, updatevenue.Result](core, commandOptions[updatevenue.Command, updatevenue.Result](a)...)
			if err != nil {
				return present(p, err)
			}

			result, err := handler.Handle(cmd.Context(), command)
			if err != nil {
				return present(p, err)
			}

			view := viewOfVenue(result.Venue, result.PartitionName)

			return p.Result(view, func() {
				p.Success("updated %s: %s, capacity %d, %s per hour", view.Name, view.City, view.Capacity, formatPrice(view.PricePerHour))
			})
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "new city")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "new capacity")
	cmd.Flags().Float64Var(&price, "price", 0, "new price per hour")
	_ = cmd.MarkFlagRequired("city")
	_ = cmd.MarkFlagRequired("capacity")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func newRemoveVenueCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-venue <name>",
		Short: "Delete a venue with all its bookings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd, flags)
			if err != nil {
				return err
			}

			command, err := removevenue.BuildCommand(args[0])
			if err != nil {
				return present(p, err)
			}

			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			resolver, err := resolverFor[removevenue.VenueStore](a)
			if err != nil {
				return present(p, err)
			}

			options := []removevenue.Option{
				removevenue.WithRetryOptions(a.retryOptions(command.CommandType())...),
				removevenue.WithPartitionTimeout(a.cfg.PartitionTimeout),
			}
			if a.locker != nil {
				options = append(options, removevenue.WithLocker(a.locker))
			}

			core, err := removevenue.NewCommandHandler(resolver, options...)
			if err != nil {
				return present(p, err)
			}

			handler, err := observable.NewCommandWrapper[removevenue.Command, removevenue.Result](core, commandOptions[removevenue.Command, removevenue.Result](a)...)
			if err != nil {
				return present(p, err)
			}

			result, err := handler.Handle(cmd.Context(), command)
			if err != nil {
				return present(p, err)
			}

			view := struct {
				Name            string `json:"name"`
				Partition       string `json:"partition"`
				RemovedBookings int    `json:"removed_bookings"`
			}{command.VenueName, result.PartitionName, result.RemovedBookings}

			return p.Result(view, func() {
				p.Success("removed %s and %d bookings from partition %s", view.Name, view.RemovedBookings, view.Partition)
			})
		},
	}
}
