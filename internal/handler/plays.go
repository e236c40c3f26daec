package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/theatre-booking/internal/media"
	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/repository"
)

// ImageStore persists uploaded play images.
type ImageStore interface {
	SavePlayImage(title string, r io.Reader) (string, error)
	Remove(rel string) error
}

// PlayHandler serves /plays.  MediaURL is the public prefix prepended to
// stored image paths.
type PlayHandler struct {
	Plays    PlayStore
	Images   ImageStore
	MediaURL string
}

func NewPlayHandler(plays PlayStore, images ImageStore, mediaURL string) *PlayHandler {
	return &PlayHandler{Plays: plays, Images: images, MediaURL: strings.TrimSuffix(mediaURL, "/")}
}

type playPayload struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Actors      *[]uint64 `json:"actors"`
	Genres      *[]uint64 `json:"genres"`
}

func (p playPayload) apply(pl *model.Play, partial bool) error {
	if p.Title != nil {
		pl.Title = strings.TrimSpace(*p.Title)
	} else if !partial {
		return invalid("title", "this field is required")
	}
	if p.Description != nil {
		pl.Description = *p.Description
	} else if !partial {
		pl.Description = ""
	}
	if p.Actors != nil {
		pl.Actors = *p.Actors
	} else if !partial {
		pl.Actors = nil
	}
	if p.Genres != nil {
		pl.Genres = *p.Genres
	} else if !partial {
		pl.Genres = nil
	}
	if pl.Title == "" {
		return invalid("title", "may not be blank")
	}
	for _, id := range pl.Actors {
		if id == 0 {
			return invalid("actors", "ids must be positive")
		}
	}
	for _, id := range pl.Genres {
		if id == 0 {
			return invalid("genres", "ids must be positive")
		}
	}
	return nil
}

// imageURL turns a stored relative path into a public URL.
func (h *PlayHandler) imageURL(rel *string) *string {
	if rel == nil || *rel == "" {
		return nil
	}
	u := h.MediaURL + "/" + *rel
	return &u
}

func (h *PlayHandler) List(c echo.Context) error {
	var (
		f   repository.PlayFilter
		err error
	)
	f.Title = strings.TrimSpace(c.QueryParam("title"))
	if f.GenreIDs, err = parseIDList("genres", c.QueryParam("genres")); err != nil {
		return writeError(c, err)
	}
	if f.ActorIDs, err = parseIDList("actors", c.QueryParam("actors")); err != nil {
		return writeError(c, err)
	}
	plays, err := h.Plays.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	for i := range plays {
		plays[i].Image = h.imageURL(plays[i].Image)
	}
	return c.JSON(http.StatusOK, plays)
}

func (h *PlayHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	p, err := h.Plays.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	p.Image = h.imageURL(p.Image)
	return c.JSON(http.StatusOK, p)
}

func (h *PlayHandler) Create(c echo.Context) error {
	var body playPayload
	if err := bindJSON(c, &body); err != nil {
		return writeError(c, err)
	}
	var p model.Play
	if err := body.apply(&p, false); err != nil {
		return writeError(c, err)
	}
	if err := h.Plays.Create(c.Request().Context(), &p); err != nil {
		return writeError(c, err)
	}
	p.Image = nil
	return c.JSON(http.StatusCreated, p)
}

func (h *PlayHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	var body playPayload
	if err := bindJSON(c, &body); err != nil {
		return writeError(c, err)
	}
	ctx := c.Request().Context()
	p, err := h.Plays.GetByID(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	if err := body.apply(&p, c.Request().Method == http.MethodPatch); err != nil {
		return writeError(c, err)
	}
	if err := h.Plays.Update(ctx, p); err != nil {
		return writeError(c, err)
	}
	p.Image = h.imageURL(p.Image)
	return c.JSON(http.StatusOK, p)
}

func (h *PlayHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx := c.Request().Context()
	p, err := h.Plays.GetByID(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Plays.Delete(ctx, id); err != nil {
		return writeError(c, err)
	}
	if p.Image != nil {
		if err := h.Images.Remove(*p.Image); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Uint64("play_id", id).Msg("remove play image")
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadImage stores the multipart "image" file and points the play at it.
// The previous image, if any, is removed once the play row is updated.
func (h *PlayHandler) UploadImage(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx := c.Request().Context()
	p, err := h.Plays.GetByID(ctx, id)
	if err != nil {
		return writeError(c, err)
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return writeError(c, invalid("image", "a file is required"))
	}
	f, err := fh.Open()
	if err != nil {
		return writeError(c, err)
	}
	defer f.Close()

	rel, err := h.Images.SavePlayImage(p.Title, f)
	switch {
	case errors.Is(err, media.ErrTooLarge), errors.Is(err, media.ErrUnsupportedType):
		return writeError(c, invalid("image", err.Error()))
	case err != nil:
		return writeError(c, err)
	}
	if err := h.Plays.SetImage(ctx, id, rel); err != nil {
		_ = h.Images.Remove(rel)
		return writeError(c, err)
	}
	if p.Image != nil {
		if err := h.Images.Remove(*p.Image); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Uint64("play_id", id).Msg("remove previous play image")
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "image": h.imageURL(&rel)})
}
