package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/model"
)

// HallHandler serves /theatre_halls.
type HallHandler struct {
	Halls HallStore
}

func NewHallHandler(halls HallStore) *HallHandler { return &HallHandler{Halls: halls} }

// maxHallDimension bounds rows and seats_in_row so the grid fits the
// unsigned columns and capacity never overflows.
const maxHallDimension = 1000

type hallPayload struct {
	Name       *string `json:"name"`
	Rows       *int    `json:"rows"`
	SeatsInRow *int    `json:"seats_in_row"`
}

// apply copies the payload onto h.  With partial false every field is
// required (PUT/POST); with partial true absent fields keep their value.
func (p hallPayload) apply(h *model.Hall, partial bool) error {
	if p.Name != nil {
		h.Name = strings.TrimSpace(*p.Name)
	} else if !partial {
		return invalid("name", "this field is required")
	}
	if p.Rows != nil {
		h.Rows = *p.Rows
	} else if !partial {
		return invalid("rows", "this field is required")
	}
	if p.SeatsInRow != nil {
		h.SeatsInRow = *p.SeatsInRow
	} else if !partial {
		return invalid("seats_in_row", "this field is required")
	}

	switch {
	case h.Name == "":
		return invalid("name", "may not be blank")
	case h.Rows < 1:
		return invalid("rows", "must be greater than zero")
	case h.SeatsInRow < 1:
		return invalid("seats_in_row", "must be greater than zero")
	case h.Rows > maxHallDimension:
		return invalid("rows", "must be at most 1000")
	case h.SeatsInRow > maxHallDimension:
		return invalid("seats_in_row", "must be at most 1000")
	}
	return nil
}

func (h *HallHandler) List(c echo.Context) error {
	halls, err := h.Halls.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, halls)
}

func (h *HallHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	hall, err := h.Halls.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, hall)
}

func (h *HallHandler) Create(c echo.Context) error {
	var body hallPayload
	if err := bindJSON(c, &body); err != nil {
		return writeError(c, err)
	}
	var hall model.Hall
	if err := body.apply(&hall, false); err != nil {
		return writeError(c, err)
	}
	if err := h.Halls.Create(c.Request().Context(), &hall); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, hall)
}

// Update serves both PUT (full) and PATCH (partial).
func (h *HallHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	var body hallPayload
	if err := bindJSON(c, &body); err != nil {
		return writeError(c, err)
	}
	ctx := c.Request().Context()
	hall, err := h.Halls.GetByID(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	if err := body.apply(&hall, c.Request().Method == http.MethodPatch); err != nil {
		return writeError(c, err)
	}
	if err := h.Halls.Update(ctx, hall); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, hall)
}

func (h *HallHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Halls.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
