package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/service"
)

// ReservationHandler serves /reservations for the authenticated user.
type ReservationHandler struct {
	Reservations Reservations
}

func NewReservationHandler(r Reservations) *ReservationHandler {
	return &ReservationHandler{Reservations: r}
}

type reservationRequest struct {
	Tickets []service.TicketRequest `json:"tickets"`
}

type reservedTicket struct {
	ID          uint64 `json:"id"`
	Row         int    `json:"row"`
	Seat        int    `json:"seat"`
	Performance uint64 `json:"performance"`
}

type reservationResponse struct {
	ID        uint64           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Tickets   []reservedTicket `json:"tickets"`
}

// List returns the caller's reservations, newest first, paginated.
func (h *ReservationHandler) List(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return writeError(c, err)
	}
	p, err := parsePage(c)
	if err != nil {
		return writeError(c, err)
	}
	items, total, err := h.Reservations.List(c.Request().Context(), userID, p.Size, p.offset())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newPagedResponse(c, p, total, items))
}

// Create books every ticket in the request or none of them.
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return writeError(c, err)
	}
	var body reservationRequest
	if err := bindJSON(c, &body); err != nil {
		return writeError(c, err)
	}
	res, err := h.Reservations.Create(c.Request().Context(), userID, body.Tickets)
	if err != nil {
		return writeError(c, err)
	}

	out := reservationResponse{ID: res.ID, CreatedAt: res.CreatedAt, Tickets: make([]reservedTicket, len(res.Tickets))}
	for i, t := range res.Tickets {
		out.Tickets[i] = reservedTicket{ID: t.ID, Row: t.Row, Seat: t.Seat, Performance: t.PerformanceID}
	}
	return c.JSON(http.StatusCreated, out)
}
