package handler // handler defines http handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/theatre-booking/internal/repository"
	"github.com/iliyamo/theatre-booking/internal/seating"
	"github.com/iliyamo/theatre-booking/internal/service"
)

// ValidationError is a malformed request: a bad path id, query parameter
// or payload field.  Field is empty when the whole body is unusable.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }

// writeError maps err onto a status code and the JSON error body
// {"error", "code", ...details}.  Unknown errors become 500 and are
// logged with the request logger; their text never reaches the client.
func writeError(c echo.Context, err error) error {
	body := echo.Map{}
	var ticket *service.TicketError
	if errors.As(err, &ticket) {
		body["ticket"] = ticket.Index
	}

	var (
		status    int
		code, msg string
		vErr      *ValidationError
		oor       *seating.OutOfRangeError
		taken     *seating.TakenError
		notFound  *repository.NotFoundError
		reference *repository.ReferenceError
	)
	switch {
	case errors.Is(err, errUnauthenticated):
		status, code, msg = http.StatusUnauthorized, "unauthenticated", "authentication credentials were not provided"
	case errors.As(err, &vErr):
		status, code, msg = http.StatusBadRequest, "validation_error", vErr.Error()
		if vErr.Field != "" {
			body["field"] = vErr.Field
		}
	case errors.Is(err, service.ErrEmptyReservation):
		status, code, msg = http.StatusBadRequest, "empty_reservation", err.Error()
	case errors.As(err, &oor):
		status, code, msg = http.StatusBadRequest, "seat_out_of_range", oor.Error()
		body["field"] = oor.Field
		body["max"] = oor.Max
		body["value"] = oor.Value
	case errors.As(err, &taken):
		status, code, msg = http.StatusConflict, "seat_already_taken", taken.Error()
		body["performance"] = taken.PerformanceID
		body["row"] = taken.Row
		body["seat"] = taken.Seat
	case errors.As(err, &notFound):
		status, code, msg = http.StatusNotFound, "not_found", notFound.Error()
	case errors.As(err, &reference):
		status, code, msg = http.StatusBadRequest, "validation_error", reference.Error()
		if reference.Field != "" {
			body["field"] = reference.Field
		}
	case errors.Is(err, repository.ErrConflict):
		status, code, msg = http.StatusConflict, "conflict", "the request conflicted with a concurrent update, retry"
	default:
		zerolog.Ctx(c.Request().Context()).Error().Err(err).
			Str("method", c.Request().Method).
			Str("route", c.Path()).
			Msg("request failed")
		status, code, msg = http.StatusInternalServerError, "internal_error", "internal server error"
	}
	body["error"] = msg
	body["code"] = code
	return c.JSON(status, body)
}

// errorJSON writes an error body for failures that have no error value,
// such as bad credentials.
func errorJSON(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, echo.Map{"error": msg, "code": code})
}
