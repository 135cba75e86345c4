package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/airport/internal/domain"
	"github.com/Domenick1991/airport/internal/logger"
	"github.com/gin-gonic/gin"
)

const (
	codeValidation  = "validation_error"
	codeInvalidSeat = "invalid_seat"
	codeSeatTaken   = "seat_taken"
	codeConflict    = "conflict"
	codeNotFound    = "not_found"
	codeInternal    = "internal"
	codeBadRequest  = "bad_request"
)

type errorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// writeError maps a domain error onto a status code and the common error body.
func writeError(c *gin.Context, err error) {
	status, body := classify(err)
	if status == http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error("request failed", "path", c.FullPath(), "error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func classify(err error) (int, errorResponse) {
	details := map[string]any{}

	var ticketErr *domain.TicketError
	if errors.As(err, &ticketErr) {
		details["ticket"] = ticketErr.Index
	}

	var seatErr *domain.SeatError
	var takenErr *domain.SeatTakenError

	var status int
	resp := errorResponse{Error: err.Error()}
	switch {
	case errors.As(err, &seatErr):
		status, resp.Code = http.StatusBadRequest, codeInvalidSeat
		details["violations"] = seatErr.Violations
	case errors.As(err, &takenErr):
		status, resp.Code = http.StatusConflict, codeSeatTaken
		details["flight"] = takenErr.FlightID
		details["row"] = takenErr.Row
		details["seat"] = takenErr.Seat
	case errors.Is(err, domain.ErrValidation):
		status, resp.Code = http.StatusBadRequest, codeValidation
	case errors.Is(err, domain.ErrConflict):
		status, resp.Code = http.StatusConflict, codeConflict
	case errors.Is(err, domain.ErrNotFound):
		status, resp.Code = http.StatusNotFound, codeNotFound
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: codeInternal}
	}

	if len(details) > 0 {
		resp.Details = details
	}
	return status, resp
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg, Code: codeBadRequest})
}
