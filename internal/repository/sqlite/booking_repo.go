package sqlite

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airbooker/internal/domain"
	"github.com/Domenick1991/airbooker/internal/repository"
)

const bookingSelect = `SELECT b.id, b.flight_id, b.passenger_name, b.passenger_email,
		f.flight_number, f.origin, f.destination, f.departure_time
	FROM bookings b JOIN flights f ON f.id = b.flight_id`

func scanBooking(row scanner) (domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.FlightID, &b.PassengerName, &b.PassengerEmail, &b.FlightNumber, &b.Origin, &b.Destination, &b.DepartureTime)
	return b, err
}

func (q queries) CreateBooking(ctx context.Context, booking *domain.Booking) error {
	res, err := q.db.ExecContext(ctx, `INSERT INTO bookings (flight_id, passenger_name, passenger_email) VALUES (?, ?, ?)`,
		booking.FlightID, booking.PassengerName, booking.PassengerEmail)
	if err != nil {
		return translate("create booking", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return translate("create booking", err)
	}
	booking.ID = id
	return nil
}

func (q queries) GetBookingByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(q.db.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ?`, id))
	if err != nil {
		return nil, translate("get booking", err)
	}
	return &b, nil
}

func (q queries) DeleteBooking(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return translate("delete booking", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate("delete booking", err)
	}
	if n == 0 {
		return fmt.Errorf("delete booking %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (q queries) ListBookingsByEmail(ctx context.Context, email string) ([]domain.Booking, error) {
	rows, err := q.db.QueryContext(ctx, bookingSelect+` WHERE b.passenger_email = ? ORDER BY b.id`, email)
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
