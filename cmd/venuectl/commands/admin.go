package commands

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/partition"
)

func newInitSchemaCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init-schema",
		Short: "Create the tables on every partition (safe to repeat)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			g, ctx := errgroup.WithContext(cmd.Context())
			for _, store := range a.stores {
				g.Go(func() error {
					return store.CreateSchema(ctx)
				})
			}

			if err = g.Wait(); err != nil {
				return present(a.printer, err)
			}

			names := make([]string, 0, len(a.stores))
			for _, store := range a.stores {
				names = append(names, store.PartitionName())
			}

			return a.printer.Result(map[string][]string{"initialized": names}, func() {
				for _, name := range names {
					a.printer.Success("schema ready on partition %s", name)
				}
			})
		},
	}
}

func newRouteCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "route <name>...",
		Short: "Show which partition owns a venue name (no database access)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}

			type routeView struct {
				Name          string `json:"name"`
				RoutingKey    string `json:"routing_key"`
				Partition     int    `json:"partition"`
				PartitionName string `json:"partition_name"`
			}

			router := a.set.Router()
			views := make([]routeView, 0, len(args))
			rows := make([][]string, 0, len(args))

			for _, name := range args {
				id := router.RouteVenue(name)

				d, getErr := a.set.Get(id)
				if getErr != nil {
					return present(a.printer, getErr)
				}

				view := routeView{Name: name, RoutingKey: venuestore.RoutingKey(name), Partition: int(id), PartitionName: d.Label()}
				views = append(views, view)
				rows = append(rows, []string{view.Name, view.RoutingKey, strconv.Itoa(view.Partition), view.PartitionName})
			}

			return a.printer.Result(views, func() {
				a.printer.Table([]string{"NAME", "KEY", "PARTITION", "PARTITION NAME"}, rows)
			})
		},
	}
}

func newHealthCommand(flags *globalFlags) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Ping every partition",
		Long: `Ping every partition once and print its state. With --watch the partitions are
checked every health_interval until interrupted, and state changes are printed. A partition
becomes unhealthy after health_max_failures failed checks in a row.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			pingers := make(map[partition.ID]partition.Pinger, len(a.stores))
			names := make(map[partition.ID]string, len(a.stores))

			for i, store := range a.stores {
				pingers[partition.ID(i)] = store
				names[partition.ID(i)] = store.PartitionName()
			}

			if !watch {
				monitor, monitorErr := a.healthMonitor(pingers, partition.WithMaxFailures(1))
				if monitorErr != nil {
					return present(a.printer, monitorErr)
				}

				monitor.CheckNow(cmd.Context())

				return printHealth(a, names, monitor.Statuses())
			}

			monitor, err := a.healthMonitor(pingers,
				partition.WithOnUnhealthy(func(id partition.ID) {
					a.printer.Warning("partition %s is unhealthy", names[id])
				}),
				partition.WithOnRecovered(func(id partition.ID) {
					a.printer.Success("partition %s recovered", names[id])
				}),
			)
			if err != nil {
				return present(a.printer, err)
			}

			a.printer.Info("checking %d partitions every %s, press Ctrl+C to stop", len(pingers), a.cfg.HealthInterval)
			monitor.Start(cmd.Context())
			<-cmd.Context().Done()
			monitor.Stop()

			return printHealth(a, names, monitor.Statuses())
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep checking until interrupted")

	return cmd
}

func printHealth(a *app, names map[partition.ID]string, statuses []partition.Health) error {
	type healthView struct {
		Partition        string `json:"partition"`
		Status           string `json:"status"`
		ConsecutiveFails int    `json:"consecutive_failures"`
		LastCheck        string `json:"last_check,omitempty"`
		LastError        string `json:"last_error,omitempty"`
	}

	views := make([]healthView, 0, len(statuses))
	rows := make([][]string, 0, len(statuses))
	unhealthy := 0

	for _, s := range statuses {
		view := healthView{
			Partition:        names[s.ID],
			Status:           string(s.Status),
			ConsecutiveFails: s.ConsecutiveFails,
			LastError:        s.LastError,
		}

		if !s.LastCheck.IsZero() {
			view.LastCheck = s.LastCheck.Format(time.RFC3339)
		}

		if s.Status == partition.StatusUnhealthy {
			unhealthy++
		}

		views = append(views, view)
		rows = append(rows, []string{view.Partition, view.Status, strconv.Itoa(view.ConsecutiveFails), view.LastError})
	}

	err := a.printer.Result(views, func() {
		a.printer.Table([]string{"PARTITION", "STATUS", "FAILURES", "LAST ERROR"}, rows)
	})
	if err != nil {
		return err
	}

	if unhealthy > 0 {
		return a.printer.Error("Unhealthy partitions", strconv.Itoa(unhealthy)+" of "+strconv.Itoa(len(statuses))+" partitions do not answer.")
	}

	return nil
}
