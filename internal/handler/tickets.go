package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/model"
)

// TicketHandler serves the admin /tickets resource.  Reads go straight
// to the store; writes pass through the seat rules in TicketWriter.
type TicketHandler struct {
	Tickets TicketStore
	Writer  TicketWriter
}

func NewTicketHandler(tickets TicketStore, w TicketWriter) *TicketHandler {
	return &TicketHandler{Tickets: tickets, Writer: w}
}

type ticketPayload struct {
	Row         *int    `json:"row"`
	Seat        *int    `json:"seat"`
	Performance *uint64 `json:"performance"`
	Reservation *uint64 `json:"reservation"`
}

func (p ticketPayload) apply(t *model.Ticket, partial bool) error {
	if p.Row != nil {
		t.Row = *p.Row
	} else if !partial {
		return invalid("row", "this field is required")
	}
	if p.Seat != nil {
		t.Seat = *p.Seat
	} else if !partial {
		return invalid("seat", "this field is required")
	}
	if p.Performance != nil {
		t.PerformanceID = *p.Performance
	} else if !partial {
		return invalid("performance", "this field is required")
	}
	if p.Reservation != nil {
		t.ReservationID = *p.Reservation
	} else if !partial {
		return invalid("reservation", "this field is required")
	}
	switch {
	case t.PerformanceID == 0:
		return invalid("performance", "must be a positive id")
	case t.ReservationID == 0:
		return invalid("reservation", "must be a positive id")
	}
	return nil
}

func (h *TicketHandler) List(c echo.Context) error {
	tickets, err := h.Tickets.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tickets)
}

func (h *TicketHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	t, err := h.Tickets.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) Create(c echo.Context) error {
	var body ticketPayload
	if err := bindJSON(c, &body); err != nil {
		return writeError(c, err)
	}
	var t model.Ticket
	if err := body.apply(&t, false); err != nil {
		return writeError(c, err)
	}
	if err := h.Writer.Create(c.Request().Context(), &t); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *TicketHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	var body ticketPayload
	if err := bindJSON(c, &body); err != nil {
		return writeError(c, err)
	}
	ctx := c.Request().Context()
	t, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	if err := body.apply(&t, c.Request().Method == http.MethodPatch); err != nil {
		return writeError(c, err)
	}
	if err := h.Writer.Update(ctx, t); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Tickets.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
