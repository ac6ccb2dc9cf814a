package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Domenick1991/airbooker/internal/domain"
	"github.com/Domenick1991/airbooker/internal/service/reservation"
	"github.com/spf13/cobra"
)

type bookingResult struct {
	ID        int64 `json:"id"`
	Cancelled bool  `json:"cancelled,omitempty"`
}

func NewBookCommand(rootOpts *RootOptions) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "book <flight-id>",
		Short: "Book a seat on a flight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEngine(rootOpts, cmd, func(svc reservation.UseCase, out *OutputFormatter) error {
				flightID, err := parseID("flight", args[0])
				if err != nil {
					return err
				}
				id, err := svc.BookFlight(cmd.Context(), flightID, name, email)
				if err != nil {
					return err
				}
				return out.Success(bookingResult{ID: id}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Booking confirmed with id %d\n", id)
					return err
				})
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "passenger name")
	cmd.Flags().StringVar(&email, "email", "", "passenger email")

	return cmd
}

func NewCancelCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <booking-id>",
		Short: "Cancel a booking and free its seat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEngine(rootOpts, cmd, func(svc reservation.UseCase, out *OutputFormatter) error {
				id, err := parseID("booking", args[0])
				if err != nil {
					return err
				}
				if err := svc.CancelBooking(cmd.Context(), id); err != nil {
					return err
				}
				return out.Success(bookingResult{ID: id, Cancelled: true}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Booking %d cancelled\n", id)
					return err
				})
			})
		},
	}
}

func NewBookingsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bookings <email>",
		Short: "List a passenger's bookings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEngine(rootOpts, cmd, func(svc reservation.UseCase, out *OutputFormatter) error {
				bookings, err := svc.FindBookingsForPassenger(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return out.Success(bookings, func(w io.Writer) error {
					return writeBookings(w, bookings)
				})
			})
		},
	}
}

func writeBookings(w io.Writer, bookings []domain.Booking) error {
	if len(bookings) == 0 {
		_, err := fmt.Fprintln(w, "No bookings found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFLIGHT\tROUTE\tDEPARTURE\tPASSENGER")
	for _, b := range bookings {
		fmt.Fprintf(tw, "%d\t%s\t%s -> %s\t%s\t%s <%s>\n",
			b.ID, b.FlightNumber, b.Origin, b.Destination, b.DepartureTime,
			b.PassengerName, b.PassengerEmail)
	}
	return tw.Flush()
}
