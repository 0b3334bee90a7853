package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/venue-shards-go/features/command/createbooking"
	"github.com/AntonStoeckl/venue-shards-go/features/query/listbookings"
	"github.com/AntonStoeckl/venue-shards-go/features/shell/observable"
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

type bookingView struct {
	ID         int64  `json:"id"`
	VenueID    int64  `json:"venue_id"`
	ClientName string `json:"client_name"`
	Date       string `json:"date"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

func viewOfBooking(b venuestore.Booking) bookingView {
	return bookingView{
		ID:         b.ID,
		VenueID:    b.VenueID,
		ClientName: b.ClientName,
		Date:       b.Date.String(),
		Start:      b.Slot.Start.String(),
		End:        b.Slot.End.String(),
	}
}

func newBookCommand(flags *globalFlags) *cobra.Command {
	var (
		client string
		date   string
		start  string
		end    string
	)

	cmd := &cobra.Command{
		Use:   "book <venue>",
		Short: "Book a time slot at a venue",
		Long: `Book a time slot at a venue. The slot is rejected when it overlaps an existing
booking of the same venue on the same day. Slots that only touch are fine.`,
		Example: "  venuectl book \"Grand Hall\" --client Ada --date 2024-05-01 --start 09:00 --end 11:30",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd, flags)
			if err != nil {
				return err
			}

			command, err := createbooking.BuildCommand(args[0], client, date, start, end)
			if err != nil {
				return present(p, err)
			}

			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			resolver, err := resolverFor[createbooking.BookingStore](a)
			if err != nil {
				return present(p, err)
			}

			options := []createbooking.Option{
				createbooking.WithRetryOptions(a.retryOptions(command.CommandType())...),
				createbooking.WithPartitionTimeout(a.cfg.PartitionTimeout),
			}
			if a.locker != nil {
				options = append(options, createbooking.WithLocker(a.locker))
			}

			core, err := createbooking.NewCommandHandler(resolver, options...)
			if err != nil {
				return present(p, err)
			}

			handler, err := observable.NewCommandWrapper[createbooking.Command, createbooking.Result](
				core, commandOptions[createbooking.Command, createbooking.Result](a)...,
			)
			if err != nil {
				return present(p, err)
			}

			result, err := handler.Handle(cmd.Context(), command)
			if err != nil {
				return present(p, err)
			}

			view := viewOfBooking(result.Booking)

			return p.Result(view, func() {
				p.Success("booked %s on %s from %s to %s for %s (booking %d)",
					command.Request.VenueName, view.Date, view.Start, view.End, view.ClientName, view.ID)
			})
		},
	}

	cmd.Flags().StringVar(&client, "client", "", "name of the client")
	cmd.Flags().StringVar(&date, "date", "", "day of the booking, YYYY-MM-DD")
	cmd.Flags().StringVar(&start, "start", "", "start time, HH:MM")
	cmd.Flags().StringVar(&end, "end", "", "end time, HH:MM (24:00 for end of day)")

	for _, name := range []string{"client", "date", "start", "end"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newBookingsCommand(flags *globalFlags) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "bookings <venue>",
		Short: "List the booked slots of a venue on one day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd, flags)
			if err != nil {
				return err
			}

			query, err := listbookings.BuildQuery(args[0], date)
			if err != nil {
				return present(p, err)
			}

			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			resolver, err := resolverFor[listbookings.BookingReader](a)
			if err != nil {
				return present(p, err)
			}

			core, err := listbookings.NewQueryHandler(resolver, listbookings.WithPartitionTimeout(a.cfg.PartitionTimeout))
			if err != nil {
				return present(p, err)
			}

			handler, err := observable.NewQueryWrapper[listbookings.Query, listbookings.Result](
				core, queryOptions[listbookings.Query, listbookings.Result](a)...,
			)
			if err != nil {
				return present(p, err)
			}

			result, err := handler.Handle(cmd.Context(), query)
			if err != nil {
				return present(p, err)
			}

			views := make([]bookingView, 0, len(result.Bookings))
			rows := make([][]string, 0, len(result.Bookings))

			for _, b := range result.Bookings {
				view := viewOfBooking(b)
				views = append(views, view)
				rows = append(rows, []string{view.Start, view.End, view.ClientName, strconv.FormatInt(view.ID, 10)})
			}

			return p.Result(views, func() {
				if len(rows) == 0 {
					p.Info("%s is free all day on %s", query.VenueName, query.Date)
					return
				}

				p.Table([]string{"START", "END", "CLIENT", "BOOKING"}, rows)
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to list, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}
