package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/model"
)

// ActorHandler serves /actors.
type ActorHandler struct {
	Actors ActorStore
}

func NewActorHandler(actors ActorStore) *ActorHandler { return &ActorHandler{Actors: actors} }

type actorPayload struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (p actorPayload) apply(a *model.Actor, partial bool) error {
	if p.FirstName != nil {
		a.FirstName = strings.TrimSpace(*p.FirstName)
	} else if !partial {
		return invalid("first_name", "this field is required")
	}
	if p.LastName != nil {
		a.LastName = strings.TrimSpace(*p.LastName)
	} else if !partial {
		return invalid("last_name", "this field is required")
	}
	if a.FirstName == "" {
		return invalid("first_name", "may not be blank")
	}
	if a.LastName == "" {
		return invalid("last_name", "may not be blank")
	}
	return nil
}

// actorView adds the display name to an actor.
type actorView struct {
	model.Actor
	FullName string `json:"full_name"`
}

func viewActor(a model.Actor) actorView { return actorView{Actor: a, FullName: a.FullName()} }

func (h *ActorHandler) List(c echo.Context) error {
	actors, err := h.Actors.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]actorView, len(actors))
	for i, a := range actors {
		out[i] = viewActor(a)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ActorHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	a, err := h.Actors.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, viewActor(a))
}

func (h *ActorHandler) Create(c echo.Context) error {
	var body actorPayload
	if err := bindJSON(c, &body); err != nil {
		return writeError(c, err)
	}
	var a model.Actor
	if err := body.apply(&a, false); err != nil {
		return writeError(c, err)
	}
	if err := h.Actors.Create(c.Request().Context(), &a); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, viewActor(a))
}

func (h *ActorHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	var body actorPayload
	if err := bindJSON(c, &body); err != nil {
		return writeError(c, err)
	}
	ctx := c.Request().Context()
	a, err := h.Actors.GetByID(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	if err := body.apply(&a, c.Request().Method == http.MethodPatch); err != nil {
		return writeError(c, err)
	}
	if err := h.Actors.Update(ctx, a); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, viewActor(a))
}

func (h *ActorHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Actors.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
