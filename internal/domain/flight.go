package domain

type Flight struct {
	ID             int64   `json:"id"`
	FlightNumber   string  `json:"flight_number"`
	Origin         string  `json:"origin"`
	Destination    string  `json:"destination"`
	DepartureTime  string  `json:"departure_time"`
	TotalSeats     int     `json:"total_seats"`
	AvailableSeats int     `json:"available_seats"`
	Price          float64 `json:"price"`
}

// HasSeats reports whether at least one seat can still be booked.
func (f Flight) HasSeats() bool {
	return f.AvailableSeats > 0
}
