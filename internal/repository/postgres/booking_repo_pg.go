package postgres

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airbooker/internal/domain"
	"github.com/Domenick1991/airbooker/internal/repository"
	"github.com/jackc/pgx/v5"
)

const bookingSelect = `SELECT b.id, b.flight_id, b.passenger_name, b.passenger_email,
		f.flight_number, f.origin, f.destination, f.departure_time
	FROM bookings b JOIN flights f ON f.id = b.flight_id`

func scanBooking(row pgx.Row) (domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.FlightID, &b.PassengerName, &b.PassengerEmail, &b.FlightNumber, &b.Origin, &b.Destination, &b.DepartureTime)
	return b, err
}

func (q queries) CreateBooking(ctx context.Context, booking *domain.Booking) error {
	err := q.db.QueryRow(ctx, `INSERT INTO bookings (flight_id, passenger_name, passenger_email)
		VALUES ($1, $2, $3)
		RETURNING id`, booking.FlightID, booking.PassengerName, booking.PassengerEmail).
		Scan(&booking.ID)
	return translate("create booking", err)
}

func (q queries) GetBookingByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(q.db.QueryRow(ctx, bookingSelect+` WHERE b.id=$1`, id))
	if err != nil {
		return nil, translate("get booking", err)
	}
	return &b, nil
}

func (q queries) DeleteBooking(ctx context.Context, id int64) error {
	cmd, err := q.db.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return translate("delete booking", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("delete booking %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (q queries) ListBookingsByEmail(ctx context.Context, email string) ([]domain.Booking, error) {
	rows, err := q.db.Query(ctx, bookingSelect+` WHERE b.passenger_email=$1 ORDER BY b.id`, email)
	if err != nil {
		return nil, translate("list bookings", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, translate("scan booking", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, translate("list bookings", rows.Err())
}
