package api

import (
	"net/http"

	"github.com/Domenick1991/airbooker/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var codeStatus = map[string]int{
	"storage_unavailable":     http.StatusServiceUnavailable,
	"flight_not_found":        http.StatusNotFound,
	"booking_not_found":       http.StatusNotFound,
	"no_seats_available":      http.StatusConflict,
	"duplicate_flight_number": http.StatusConflict,
	"constraint_violation":    http.StatusConflict,
	"invalid_input":           http.StatusBadRequest,
}

func errorStatus(err error) (int, string) {
	code := domain.ErrorCode(err)
	if status, ok := codeStatus[code]; ok {
		return status, code
	}
	return http.StatusInternalServerError, code
}

func writeError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{
		Error: "operation failed: " + err.Error(),
		Code:  code,
	})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
		Error: "operation failed: " + msg,
		Code:  "invalid_input",
	})
}
