package postgres

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airbooker/internal/domain"
	"github.com/Domenick1991/airbooker/internal/repository"
	"github.com/jackc/pgx/v5"
)

const flightColumns = `id, flight_number, origin, destination, departure_time, total_seats, available_seats, price`

func scanFlight(row pgx.Row) (domain.Flight, error) {
	var f domain.Flight
	err := row.Scan(&f.ID, &f.FlightNumber, &f.Origin, &f.Destination, &f.DepartureTime, &f.TotalSeats, &f.AvailableSeats, &f.Price)
	return f, err
}

func (q queries) CreateFlight(ctx context.Context, flight *domain.Flight) error {
	err := q.db.QueryRow(ctx, `INSERT INTO flights (flight_number, origin, destination, departure_time, total_seats, available_seats, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		flight.FlightNumber, flight.Origin, flight.Destination, flight.DepartureTime, flight.TotalSeats, flight.AvailableSeats, flight.Price).
		Scan(&flight.ID)
	return translate("create flight", err)
}

func (q queries) GetFlightByID(ctx context.Context, id int64) (*domain.Flight, error) {
	query := `SELECT ` + flightColumns + ` FROM flights WHERE id=$1`
	if q.lockRows {
		query += ` FOR UPDATE`
	}
	f, err := scanFlight(q.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate("get flight", err)
	}
	return &f, nil
}

func (q queries) ListFlights(ctx context.Context) ([]domain.Flight, error) {
	return q.listFlights(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY id`)
}

func (q queries) SearchFlights(ctx context.Context, origin, destination string) ([]domain.Flight, error) {
	return q.listFlights(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE origin=$1 AND destination=$2 AND available_seats > 0
		ORDER BY departure_time, id`, origin, destination)
}

func (q queries) listFlights(ctx context.Context, query string, args ...any) ([]domain.Flight, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translate("list flights", err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, translate("scan flight", err)
		}
		flights = append(flights, f)
	}
	return flights, translate("list flights", rows.Err())
}

func (q queries) AdjustSeats(ctx context.Context, flightID int64, delta int) error {
	res, err := q.db.Exec(ctx, `UPDATE flights SET available_seats = available_seats + $2
		WHERE id=$1 AND available_seats + $2 BETWEEN 0 AND total_seats`, flightID, delta)
	if err != nil {
		return translate("adjust seats", err)
	}
	if res.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := q.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM flights WHERE id=$1)`, flightID).Scan(&exists); err != nil {
		return translate("adjust seats", err)
	}
	if !exists {
		return fmt.Errorf("adjust seats: flight %d: %w", flightID, repository.ErrNotFound)
	}
	return fmt.Errorf("adjust seats: flight %d by %d: %w", flightID, delta, repository.ErrSeatBounds)
}
