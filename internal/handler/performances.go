package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/repository"
)

// PerformanceHandler serves /performances.
type PerformanceHandler struct {
	Performances PerformanceStore
}

func NewPerformanceHandler(perfs PerformanceStore) *PerformanceHandler {
	return &PerformanceHandler{Performances: perfs}
}

type performancePayload struct {
	Play     *uint64    `json:"play"`
	Hall     *uint64    `json:"theatre_hall"`
	ShowTime *time.Time `json:"show_time"`
}

func (p performancePayload) apply(pf *model.Performance, partial bool) error {
	if p.Play != nil {
		pf.PlayID = *p.Play
	} else if !partial {
		return invalid("play", "this field is required")
	}
	if p.Hall != nil {
		pf.HallID = *p.Hall
	} else if !partial {
		return invalid("theatre_hall", "this field is required")
	}
	if p.ShowTime != nil {
		pf.ShowTime = p.ShowTime.UTC()
	} else if !partial {
		return invalid("show_time", "this field is required")
	}
	switch {
	case pf.PlayID == 0:
		return invalid("play", "must be a positive id")
	case pf.HallID == 0:
		return invalid("theatre_hall", "must be a positive id")
	}
	return nil
}

// parsePerformanceFilter reads date=YYYY-MM-DD and play=<id>.
func parsePerformanceFilter(c echo.Context) (repository.PerformanceFilter, error) {
	var f repository.PerformanceFilter
	if raw := c.QueryParam("date"); raw != "" {
		day, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
		if err != nil {
			return f, invalid("date", "must be a date in YYYY-MM-DD format")
		}
		f.Day = &day
	}
	if raw := c.QueryParam("play"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return f, invalid("play", "must be a positive integer")
		}
		f.PlayID = id
	}
	return f, nil
}

func (h *PerformanceHandler) List(c echo.Context) error {
	f, err := parsePerformanceFilter(c)
	if err != nil {
		return writeError(c, err)
	}
	items, err := h.Performances.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *PerformanceHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	d, err := h.Performances.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *PerformanceHandler) Create(c echo.Context) error {
	var body performancePayload
	if err := bindJSON(c, &body); err != nil {
		return writeError(c, err)
	}
	var p model.Performance
	if err := body.apply(&p, false); err != nil {
		return writeError(c, err)
	}
	if err := h.Performances.Create(c.Request().Context(), &p); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *PerformanceHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	var body performancePayload
	if err := bindJSON(c, &body); err != nil {
		return writeError(c, err)
	}
	ctx := c.Request().Context()
	p, err := h.Performances.GetByID(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	if err := body.apply(&p, c.Request().Method == http.MethodPatch); err != nil {
		return writeError(c, err)
	}
	if err := h.Performances.Update(ctx, p); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PerformanceHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Performances.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
