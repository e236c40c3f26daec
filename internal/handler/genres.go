package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/model"
)

// GenreHandler serves /genres.
type GenreHandler struct {
	Genres GenreStore
}

func NewGenreHandler(genres GenreStore) *GenreHandler { return &GenreHandler{Genres: genres} }

type genrePayload struct {
	Name *string `json:"name"`
}

func (p genrePayload) apply(g *model.Genre, partial bool) error {
	if p.Name != nil {
		g.Name = strings.TrimSpace(*p.Name)
	} else if !partial {
		return invalid("name", "this field is required")
	}
	if g.Name == "" {
		return invalid("name", "may not be blank")
	}
	return nil
}

func (h *GenreHandler) List(c echo.Context) error {
	genres, err := h.Genres.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, genres)
}

func (h *GenreHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	g, err := h.Genres.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *GenreHandler) Create(c echo.Context) error {
	var body genrePayload
	if err := bindJSON(c, &body); err != nil {
		return writeError(c, err)
	}
	var g model.Genre
	if err := body.apply(&g, false); err != nil {
		return writeError(c, err)
	}
	if err := h.Genres.Create(c.Request().Context(), &g); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *GenreHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	var body genrePayload
	if err := bindJSON(c, &body); err != nil {
		return writeError(c, err)
	}
	ctx := c.Request().Context()
	g, err := h.Genres.GetByID(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	if err := body.apply(&g, c.Request().Method == http.MethodPatch); err != nil {
		return writeError(c, err)
	}
	if err := h.Genres.Update(ctx, g); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *GenreHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Genres.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
