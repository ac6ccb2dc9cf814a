package domain

// Booking is one passenger's seat on one flight. The flight fields are
// filled from the owning flight on read and are not persisted with the booking.
type Booking struct {
	ID             int64  `json:"id"`
	FlightID       int64  `json:"flight_id"`
	PassengerName  string `json:"passenger_name"`
	PassengerEmail string `json:"passenger_email"`

	FlightNumber  string `json:"flight_number"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureTime string `json:"departure_time"`
}
