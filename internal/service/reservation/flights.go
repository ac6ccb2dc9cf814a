package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Domenick1991/airbooker/internal/domain"
	"github.com/Domenick1991/airbooker/internal/repository"
)

// AddFlight stores a new flight. A zero AvailableSeats starts the flight
// with every seat free.
func (e *Engine) AddFlight(ctx context.Context, flight domain.Flight) (*domain.Flight, error) {
	flight.FlightNumber = strings.TrimSpace(flight.FlightNumber)
	flight.Origin = strings.TrimSpace(flight.Origin)
	flight.Destination = strings.TrimSpace(flight.Destination)
	flight.DepartureTime = strings.TrimSpace(flight.DepartureTime)

	if err := validateFlight(flight); err != nil {
		return nil, err
	}
	if flight.AvailableSeats == 0 {
		flight.AvailableSeats = flight.TotalSeats
	}
	if flight.AvailableSeats < 0 || flight.AvailableSeats > flight.TotalSeats {
		return nil, fmt.Errorf("%w: available seats %d outside [0, %d]", domain.ErrConstraintViolation, flight.AvailableSeats, flight.TotalSeats)
	}
	flight.ID = 0

	if err := e.storage.CreateFlight(ctx, &flight); err != nil {
		switch {
		case errors.Is(err, repository.ErrUniqueViolation):
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateFlightNumber, flight.FlightNumber)
		case errors.Is(err, repository.ErrSeatBounds):
			return nil, domain.ErrConstraintViolation
		default:
			return nil, e.storageFailure(ctx, "add flight", err)
		}
	}

	e.log.InfoContext(ctx, "flight added", slog.Int64("flight_id", flight.ID), slog.String("flight_number", flight.FlightNumber))
	e.invalidateFlights(ctx)
	return &flight, nil
}

func validateFlight(f domain.Flight) error {
	switch {
	case f.FlightNumber == "":
		return fmt.Errorf("%w: flight number is required", domain.ErrInvalidInput)
	case f.Origin == "":
		return fmt.Errorf("%w: origin is required", domain.ErrInvalidInput)
	case f.Destination == "":
		return fmt.Errorf("%w: destination is required", domain.ErrInvalidInput)
	case f.DepartureTime == "":
		return fmt.Errorf("%w: departure time is required", domain.ErrInvalidInput)
	case f.TotalSeats <= 0:
		return fmt.Errorf("%w: total seats must be positive", domain.ErrInvalidInput)
	case f.Price < 0:
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

func (e *Engine) ListFlights(ctx context.Context) ([]domain.Flight, error) {
	if e.cache != nil {
		if cached, err := e.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := e.storage.ListFlights(ctx)
	if err != nil {
		return nil, e.storageFailure(ctx, "list flights", err)
	}
	if e.cache != nil {
		if err := e.cache.SetFlights(ctx, flights); err != nil {
			e.log.WarnContext(ctx, "cache flights", slog.String("error", err.Error()))
		}
	}
	return flights, nil
}

func (e *Engine) GetFlight(ctx context.Context, id int64) (*domain.Flight, error) {
	flight, err := e.storage.GetFlightByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", domain.ErrFlightNotFound, id)
		}
		return nil, e.storageFailure(ctx, "get flight", err)
	}
	return flight, nil
}

// FindAvailableFlights lists flights on the route that still have a free seat.
func (e *Engine) FindAvailableFlights(ctx context.Context, origin, destination string) ([]domain.Flight, error) {
	flights, err := e.storage.SearchFlights(ctx, strings.TrimSpace(origin), strings.TrimSpace(destination))
	if err != nil {
		return nil, e.storageFailure(ctx, "find flights", err)
	}
	return flights, nil
}

func (e *Engine) invalidateFlights(ctx context.Context) {
	if e.cache == nil {
		return
	}
	if err := e.cache.InvalidateFlights(ctx); err != nil {
		e.log.WarnContext(ctx, "invalidate flights cache", slog.String("error", err.Error()))
	}
}
