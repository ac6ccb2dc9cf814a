package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Domenick1991/airbooker/config"
	"github.com/Domenick1991/airbooker/internal/domain"
	"github.com/Domenick1991/airbooker/internal/logger"
	"github.com/Domenick1991/airbooker/internal/repository/memory"
	"github.com/Domenick1991/airbooker/internal/service/reservation"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, checks ...HealthCheck) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	engine := reservation.NewEngine(memory.New(), reservation.WithLogger(logger.Discard()))
	return NewRouter(&cfg, logger.Discard(), engine, checks...)
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_BookingFlow(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, "POST", "/api/v1/flights", `{"flight_number":"AI404","origin":"Delhi","destination":"Mumbai","departure_time":"2025-01-01 10:00","total_seats":2,"price":120.5}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var flight domain.Flight
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &flight))
	assert.Equal(t, 2, flight.AvailableSeats)

	for _, name := range []string{"Alice", "Bob"} {
		w = do(r, "POST", "/api/v1/bookings", `{"flight_id":1,"passenger_name":"`+name+`","passenger_email":"`+strings.ToLower(name)+`@example.com"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = do(r, "POST", "/api/v1/bookings", `{"flight_id":1,"passenger_name":"Carl","passenger_email":"carl@example.com"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"no_seats_available"`)

	w = do(r, "GET", "/api/v1/flights/search?origin=Delhi&destination=Mumbai", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(r, "GET", "/api/v1/bookings?email=alice@example.com", "")
	require.Equal(t, http.StatusOK, w.Code)
	var bookings []domain.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bookings))
	require.Len(t, bookings, 1)
	assert.Equal(t, "AI404", bookings[0].FlightNumber)

	w = do(r, "DELETE", "/api/v1/bookings/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, "GET", "/api/v1/flights/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &flight))
	assert.Equal(t, 1, flight.AvailableSeats)

	w = do(r, "DELETE", "/api/v1/bookings/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Healthz(t *testing.T) {
	r := newTestRouter(t,
		HealthCheck{Name: "storage", Check: func(context.Context) error { return nil }},
	)
	w := do(r, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"storage":"ok"}}`, w.Body.String())

	r = newTestRouter(t,
		HealthCheck{Name: "storage", Check: func(context.Context) error { return nil }},
		HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("dial tcp: refused") }},
	)
	w = do(r, "GET", "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"storage":"ok","redis":"unavailable"}}`, w.Body.String())
}

func TestRouter_CORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.HTTP.AllowOrigins = []string{"https://booking.example.com"}
	engine := reservation.NewEngine(memory.New(), reservation.WithLogger(logger.Discard()))
	r := NewRouter(&cfg, logger.Discard(), engine)

	req := httptest.NewRequest("GET", "/api/v1/flights", nil)
	req.Header.Set("Origin", "https://booking.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://booking.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
