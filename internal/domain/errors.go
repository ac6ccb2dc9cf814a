package domain

import "errors"

var (
	ErrFlightNotFound        = errors.New("flight not found")
	ErrNoSeatsAvailable      = errors.New("no seats available")
	ErrDuplicateFlightNumber = errors.New("flight number already exists")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrStorageUnavailable    = errors.New("storage unavailable")
	ErrConstraintViolation   = errors.New("seat count out of range")
	ErrInvalidInput          = errors.New("invalid input")
)

// ErrorCode names the failure class of err for API and CLI output. A storage
// failure wins over any other cause it was joined with.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, ErrFlightNotFound):
		return "flight_not_found"
	case errors.Is(err, ErrBookingNotFound):
		return "booking_not_found"
	case errors.Is(err, ErrNoSeatsAvailable):
		return "no_seats_available"
	case errors.Is(err, ErrDuplicateFlightNumber):
		return "duplicate_flight_number"
	case errors.Is(err, ErrConstraintViolation):
		return "constraint_violation"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}
