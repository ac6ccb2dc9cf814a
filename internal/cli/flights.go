package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Domenick1991/airbooker/internal/domain"
	"github.com/Domenick1991/airbooker/internal/service/reservation"
	"github.com/spf13/cobra"
)

func NewFlightsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flights",
		Short: "Add, list and search flights",
	}

	cmd.AddCommand(newFlightsAddCommand(rootOpts))
	cmd.AddCommand(newFlightsListCommand(rootOpts))
	cmd.AddCommand(newFlightsSearchCommand(rootOpts))
	cmd.AddCommand(newFlightsShowCommand(rootOpts))

	return cmd
}

func newFlightsAddCommand(rootOpts *RootOptions) *cobra.Command {
	var flight domain.Flight

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a flight",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEngine(rootOpts, cmd, func(svc reservation.UseCase, out *OutputFormatter) error {
				created, err := svc.AddFlight(cmd.Context(), flight)
				if err != nil {
					return err
				}
				return out.Success(created, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Flight %s added with id %d\n", created.FlightNumber, created.ID)
					return err
				})
			})
		},
	}

	cmd.Flags().StringVar(&flight.FlightNumber, "number", "", "flight number, unique")
	cmd.Flags().StringVar(&flight.Origin, "origin", "", "origin city")
	cmd.Flags().StringVar(&flight.Destination, "destination", "", "destination city")
	cmd.Flags().StringVar(&flight.DepartureTime, "departure", "", "departure time, e.g. \"2025-01-01 10:00\"")
	cmd.Flags().IntVar(&flight.TotalSeats, "seats", 0, "total seats")
	cmd.Flags().IntVar(&flight.AvailableSeats, "available", 0, "available seats (defaults to --seats)")
	cmd.Flags().Float64Var(&flight.Price, "price", 0, "ticket price")

	return cmd
}

func newFlightsListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all flights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEngine(rootOpts, cmd, func(svc reservation.UseCase, out *OutputFormatter) error {
				flights, err := svc.ListFlights(cmd.Context())
				if err != nil {
					return err
				}
				return out.Success(flights, func(w io.Writer) error {
					return writeFlights(w, out, flights)
				})
			})
		},
	}
}

func newFlightsSearchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <origin> <destination>",
		Short: "List flights on a route that still have seats",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEngine(rootOpts, cmd, func(svc reservation.UseCase, out *OutputFormatter) error {
				flights, err := svc.FindAvailableFlights(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return out.Success(flights, func(w io.Writer) error {
					return writeFlights(w, out, flights)
				})
			})
		},
	}
}

func newFlightsShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <flight-id>",
		Short: "Show one flight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEngine(rootOpts, cmd, func(svc reservation.UseCase, out *OutputFormatter) error {
				id, err := parseID("flight", args[0])
				if err != nil {
					return err
				}
				flight, err := svc.GetFlight(cmd.Context(), id)
				if err != nil {
					return err
				}
				return out.Success(flight, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Flight:     %s\nRoute:      %s -> %s\nDeparture:  %s\nSeats:      %d/%d available\nPrice:      %s\n",
						flight.FlightNumber,
						flight.Origin, flight.Destination,
						flight.DepartureTime,
						flight.AvailableSeats, flight.TotalSeats,
						out.Price(flight.Price),
					)
					return err
				})
			})
		},
	}
}

func writeFlights(w io.Writer, out *OutputFormatter, flights []domain.Flight) error {
	if len(flights) == 0 {
		_, err := fmt.Fprintln(w, "No flights found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFLIGHT\tROUTE\tDEPARTURE\tSEATS\tPRICE")
	for _, f := range flights {
		fmt.Fprintf(tw, "%d\t%s\t%s -> %s\t%s\t%d/%d\t%s\n",
			f.ID, f.FlightNumber, f.Origin, f.Destination, f.DepartureTime,
			f.AvailableSeats, f.TotalSeats, out.Price(f.Price))
	}
	return tw.Flush()
}
