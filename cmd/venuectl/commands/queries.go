package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/venue-shards-go/features/query/listcities"
	"github.com/AntonStoeckl/venue-shards-go/features/query/listnames"
	"github.com/AntonStoeckl/venue-shards-go/features/query/searchvenues"
	"github.com/AntonStoeckl/venue-shards-go/features/query/venuestats"
	"github.com/AntonStoeckl/venue-shards-go/features/shell/observable"
	"github.com/AntonStoeckl/venue-shards-go/internal/printer"
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

type listView struct {
	Values           []string `json:"values"`
	FailedPartitions []string `json:"failed_partitions,omitempty"`
}

func newSearchCommand(flags *globalFlags) *cobra.Command {
	var (
		city     string
		maxPrice float64
	)

	cmd := &cobra.Command{
		Use:   "search [keyword]",
		Short: "Search venues on all partitions by name keyword, city, and budget",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd, flags)
			if err != nil {
				return err
			}

			keyword := ""
			if len(args) == 1 {
				keyword = args[0]
			}

			var budget *float64
			if cmd.Flags().Changed("max-price") {
				budget = &maxPrice
			}

			query, err := searchvenues.BuildQuery(keyword, city, budget, flags.strict)
			if err != nil {
				return present(p, err)
			}

			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			engine, err := a.engine(cmd.Context())
			if err != nil {
				return present(p, err)
			}

			core, err := searchvenues.NewQueryHandler(engine)
			if err != nil {
				return present(p, err)
			}

			handler, err := observable.NewQueryWrapper[searchvenues.Query, searchvenues.Result](
				core, queryOptions[searchvenues.Query, searchvenues.Result](a)...,
			)
			if err != nil {
				return present(p, err)
			}

			result, err := handler.Handle(cmd.Context(), query)
			if err != nil {
				return present(p, err)
			}

			views := make([]venueView, 0, len(result.Hits))
			rows := make([][]string, 0, len(result.Hits))

			for _, hit := range result.Hits {
				view := viewOfVenue(hit.Venue, hit.PartitionName)
				views = append(views, view)
				rows = append(rows, []string{
					view.Name, view.City, strconv.Itoa(view.Capacity), formatPrice(view.PricePerHour), view.Partition,
				})
			}

			output := struct {
				Venues           []venueView `json:"venues"`
				FailedPartitions []string    `json:"failed_partitions,omitempty"`
			}{views, result.FailedPartitions()}

			return p.Result(output, func() {
				warnFailedPartitions(p, output.FailedPartitions)

				if len(rows) == 0 {
					p.Info("no venue matches %s", query.Filter)
					return
				}

				p.Table([]string{"NAME", "CITY", "CAPACITY", "PRICE/H", "PARTITION"}, rows)
			})
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "only venues in this city")
	cmd.Flags().Float64Var(&maxPrice, "max-price", 0, "only venues not more expensive per hour")

	return cmd
}

func newCitiesCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cities",
		Short: "List the cities that have venues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			engine, err := a.engine(cmd.Context())
			if err != nil {
				return present(a.printer, err)
			}

			core, err := listcities.NewQueryHandler(engine)
			if err != nil {
				return present(a.printer, err)
			}

			handler, err := observable.NewQueryWrapper[listcities.Query, listcities.Result](
				core, queryOptions[listcities.Query, listcities.Result](a)...,
			)
			if err != nil {
				return present(a.printer, err)
			}

			result, err := handler.Handle(cmd.Context(), listcities.BuildQuery(flags.strict))
			if err != nil {
				return present(a.printer, err)
			}

			return printList(a, listView{Values: result.Values, FailedPartitions: result.FailedPartitions()})
		},
	}
}

func newNamesCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "names",
		Short: "List the names of all venues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			engine, err := a.engine(cmd.Context())
			if err != nil {
				return present(a.printer, err)
			}

			core, err := listnames.NewQueryHandler(engine)
			if err != nil {
				return present(a.printer, err)
			}

			handler, err := observable.NewQueryWrapper[listnames.Query, listnames.Result](
				core, queryOptions[listnames.Query, listnames.Result](a)...,
			)
			if err != nil {
				return present(a.printer, err)
			}

			result, err := handler.Handle(cmd.Context(), listnames.BuildQuery(flags.strict))
			if err != nil {
				return present(a.printer, err)
			}

			return printList(a, listView{Values: result.Values, FailedPartitions: result.FailedPartitions()})
		},
	}
}

func printList(a *app, view listView) error {
	return a.printer.Result(view, func() {
		warnFailedPartitions(a.printer, view.FailedPartitions)

		for _, value := range view.Values {
			a.printer.Info("%s", value)
		}
	})
}

type statsRowView struct {
	Group   string   `json:"group,omitempty"`
	Count   int64    `json:"count"`
	Sum     float64  `json:"sum,omitempty"`
	Average float64  `json:"average,omitempty"`
	Values  []string `json:"values,omitempty"`
}

func newStatsCommand(flags *globalFlags) *cobra.Command {
	var (
		field    string
		groupBy  string
		keyword  string
		city     string
		maxPrice float64
	)

	cmd := &cobra.Command{
		Use:   "stats <count|sum|average|distinct-cities|distinct-names>",
		Short: "Aggregate venues across all partitions",
		Example: `  venuectl stats count --group-by city
  venuectl stats average --field price_per_hour --city Berlin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd, flags)
			if err != nil {
				return err
			}

			filter := venuestore.BuildSearchFilter().NameContaining(keyword).InCity(city)
			if cmd.Flags().Changed("max-price") {
				filter = filter.WithMaxPricePerHour(maxPrice)
			}

			query, err := venuestats.BuildQuery(args[0], field, groupBy, filter, flags.strict)
			if err != nil {
				return present(p, err)
			}

			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			engine, err := a.engine(cmd.Context())
			if err != nil {
				return present(p, err)
			}

			core, err := venuestats.NewQueryHandler(engine)
			if err != nil {
				return present(p, err)
			}

			handler, err := observable.NewQueryWrapper[venuestats.Query, venuestats.Result](
				core, queryOptions[venuestats.Query, venuestats.Result](a)...,
			)
			if err != nil {
				return present(p, err)
			}

			result, err := handler.Handle(cmd.Context(), query)
			if err != nil {
				return present(p, err)
			}

			return printStats(p, query, result)
		},
	}

	cmd.Flags().StringVar(&field, "field", string(venuestore.FieldCapacity), "numeric field for sum and average: capacity or price_per_hour")
	cmd.Flags().StringVar(&groupBy, "group-by", "", "group by: city (empty: no grouping)")
	cmd.Flags().StringVar(&keyword, "keyword", "", "only venues whose name contains keyword")
	cmd.Flags().StringVar(&city, "city", "", "only venues in this city")
	cmd.Flags().Float64Var(&maxPrice, "max-price", 0, "only venues not more expensive per hour")

	return cmd
}

func printStats(p *printer.Printer, query venuestats.Query, result venuestats.Result) error {
	kind := query.Aggregate.Kind
	views := make([]statsRowView, 0, len(result.Rows))
	rows := make([][]string, 0, len(result.Rows))

	for _, row := range result.Rows {
		view := statsRowView{Group: row.Group, Count: row.Count, Values: row.Values}
		if query.Aggregate.NeedsField() {
			view.Sum, view.Average = row.Sum, row.Average
		}

		views = append(views, view)

		value := strconv.FormatFloat(row.Value(kind), 'f', -1, 64)
		if len(row.Values) > 0 {
			value += " (" + strings.Join(row.Values, ", ") + ")"
		}

		rows = append(rows, []string{groupLabel(row.Group, query.Aggregate.GroupBy), value})
	}

	output := struct {
		Kind             string         `json:"kind"`
		Field            string         `json:"field,omitempty"`
		GroupBy          string         `json:"group_by,omitempty"`
		Rows             []statsRowView `json:"rows"`
		FailedPartitions []string       `json:"failed_partitions,omitempty"`
	}{string(kind), string(query.Aggregate.Field), string(query.Aggregate.GroupBy), views, result.FailedPartitions()}

	return p.Result(output, func() {
		warnFailedPartitions(p, output.FailedPartitions)

		header := strings.ToUpper(string(kind))
		if query.Aggregate.NeedsField() {
			header += "(" + strings.ToUpper(string(query.Aggregate.Field)) + ")"
		}

		p.Table([]string{"GROUP", header}, rows)
	})
}

func groupLabel(group string, groupBy venuestore.GroupBy) string {
	if groupBy == venuestore.GroupByNone {
		return "all"
	}

	return group
}
