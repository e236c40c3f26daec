package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theatre-booking/internal/media"
	"github.com/iliyamo/theatre-booking/internal/middleware"
	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/repository"
)

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

// asUser stands in for JWTAuth.
func asUser(id uint64, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			middleware.SetIdentity(c, id, role)
			return next(c)
		}
	}
}

type fakeHalls struct {
	halls  map[uint64]model.Hall
	nextID uint64
}

func newFakeHalls(hs ...model.Hall) *fakeHalls {
	f := &fakeHalls{halls: map[uint64]model.Hall{}, nextID: 1}
	for _, h := range hs {
		f.halls[h.ID] = h
		if h.ID >= f.nextID {
			f.nextID = h.ID + 1
		}
	}
	return f
}

func (f *fakeHalls) List(context.Context) ([]model.Hall, error) {
	out := []model.Hall{}
	for _, h := range f.halls {
		out = append(out, h)
	}
	return out, nil
}

func (f *fakeHalls) GetByID(_ context.Context, id uint64) (model.Hall, error) {
	h, ok := f.halls[id]
	if !ok {
		return model.Hall{}, &repository.NotFoundError{Resource: "theatre hall", ID: id}
	}
	return h, nil
}

func (f *fakeHalls) Create(_ context.Context, h *model.Hall) error {
	h.ID = f.nextID
	f.nextID++
	f.halls[h.ID] = *h
	return nil
}

func (f *fakeHalls) Update(_ context.Context, h model.Hall) error {
	f.halls[h.ID] = h
	return nil
}

func (f *fakeHalls) Delete(_ context.Context, id uint64) error {
	if _, ok := f.halls[id]; !ok {
		return &repository.NotFoundError{Resource: "theatre hall", ID: id}
	}
	delete(f.halls, id)
	return nil
}

func hallRoutes(store HallStore) *echo.Echo {
	e := echo.New()
	h := NewHallHandler(store)
	e.GET("/theatre_halls", h.List)
	e.POST("/theatre_halls", h.Create)
	e.GET("/theatre_halls/:id", h.Get)
	e.PUT("/theatre_halls/:id", h.Update)
	e.PATCH("/theatre_halls/:id", h.Update)
	e.DELETE("/theatre_halls/:id", h.Delete)
	return e
}

func TestHallCreate(t *testing.T) {
	store := newFakeHalls()
	e := hallRoutes(store)

	rec := do(e, http.MethodPost, "/theatre_halls", `{"name":"Blue","rows":10,"seats_in_row":12}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, float64(120), body["capacity"])
	assert.Len(t, store.halls, 1)
}

func TestHallCreateValidation(t *testing.T) {
	e := hallRoutes(newFakeHalls())

	cases := []struct {
		body, field string
	}{
		{`{"name":"Blue","rows":0,"seats_in_row":12}`, "rows"},
		{`{"name":"Blue","rows":3,"seats_in_row":-1}`, "seats_in_row"},
		{`{"name":"  ","rows":3,"seats_in_row":3}`, "name"},
		{`{"rows":3,"seats_in_row":3}`, "name"},
		{`{"name":"Blue","rows":"ten","seats_in_row":3}`, "rows"},
		{`{"name":"Blue","rows":5000000000,"seats_in_row":3}`, "rows"},
		{`{"name":"Blue","rows":3,"seats_in_row":1001}`, "seats_in_row"},
	}
	for _, tc := range cases {
		rec := do(e, http.MethodPost, "/theatre_halls", tc.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.body)
		body := decode(t, rec)
		assert.Equal(t, "validation_error", body["code"], tc.body)
		assert.Equal(t, tc.field, body["field"], tc.body)
	}

	rec := do(e, http.MethodPost, "/theatre_halls", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBindJSONThroughEchoBinder(t *testing.T) {
	e := hallRoutes(newFakeHalls())

	rec := do(e, http.MethodPost, "/theatre_halls", `{"name":"Blue",`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "validation_error", body["code"])
	assert.Equal(t, "request body is not valid JSON", body["error"])

	req := httptest.NewRequest(http.MethodPost, "/theatre_halls", strings.NewReader("name=Blue"))
	req.Header.Set(echo.HeaderContentType, echo.MIMETextPlain)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body must be application/json", decode(t, rec)["error"])
}

func TestHallPatchKeepsMissingFields(t *testing.T) {
	store := newFakeHalls(model.Hall{ID: 4, Name: "Blue", Rows: 10, SeatsInRow: 10})
	e := hallRoutes(store)

	rec := do(e, http.MethodPatch, "/theatre_halls/4", `{"rows":12}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.Hall{ID: 4, Name: "Blue", Rows: 12, SeatsInRow: 10}, store.halls[4])

	rec = do(e, http.MethodPut, "/theatre_halls/4", `{"rows":12}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "PUT requires every field")
}

func TestHallNotFoundAndBadID(t *testing.T) {
	e := hallRoutes(newFakeHalls())

	rec := do(e, http.MethodGet, "/theatre_halls/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode(t, rec)["code"])

	rec = do(e, http.MethodGet, "/theatre_halls/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "id", decode(t, rec)["field"])

	rec = do(e, http.MethodDelete, "/theatre_halls/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakePlays struct {
	PlayStore // unused methods panic
	play      model.Play
	filter    repository.PlayFilter
	image     string
	createErr error
}

func (f *fakePlays) List(_ context.Context, flt repository.PlayFilter) ([]model.PlayListItem, error) {
	f.filter = flt
	img := "uploads/plays/a.png"
	return []model.PlayListItem{{ID: 1, Title: "Hamlet", Image: &img, Actors: []string{}, Genres: []string{}}}, nil
}

func (f *fakePlays) GetByID(_ context.Context, id uint64) (model.Play, error) {
	if id != f.play.ID {
		return model.Play{}, &repository.NotFoundError{Resource: "play", ID: id}
	}
	return f.play, nil
}

func (f *fakePlays) Create(_ context.Context, p *model.Play) error {
	if f.createErr != nil {
		return f.createErr
	}
	p.ID = 7
	return nil
}

func (f *fakePlays) SetImage(_ context.Context, _ uint64, path string) error {
	f.image = path
	return nil
}

type fakeImages struct {
	saved   []byte
	removed []string
}

func (f *fakeImages) SavePlayImage(title string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", media.ErrUnsupportedType
	}
	f.saved = data
	return "uploads/plays/" + media.Slugify(title) + ".png", nil
}

func (f *fakeImages) Remove(rel string) error {
	f.removed = append(f.removed, rel)
	return nil
}

func TestPlayListFilters(t *testing.T) {
	plays := &fakePlays{}
	e := echo.New()
	h := NewPlayHandler(plays, &fakeImages{}, "/media/")
	e.GET("/plays", h.List)

	rec := do(e, http.MethodGet, "/plays?title=ham&genres=1,2&actors=3", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, repository.PlayFilter{Title: "ham", GenreIDs: []uint64{1, 2}, ActorIDs: []uint64{3}}, plays.filter)
	assert.Contains(t, rec.Body.String(), `"image":"/media/uploads/plays/a.png"`)

	rec = do(e, http.MethodGet, "/plays?actors=1,x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "actors", decode(t, rec)["field"])
}

func TestPlayCreateUnknownActor(t *testing.T) {
	plays := &fakePlays{createErr: &repository.ReferenceError{Field: "actors", Err: repository.ErrNotFound}}
	e := echo.New()
	e.POST("/plays", NewPlayHandler(plays, &fakeImages{}, "/media").Create)

	rec := do(e, http.MethodPost, "/plays", `{"title":"Hamlet","actors":[99]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "validation_error", body["code"])
	assert.Equal(t, "actors", body["field"])
}

func TestPlayUploadImage(t *testing.T) {
	old := "uploads/plays/old.png"
	plays := &fakePlays{play: model.Play{ID: 3, Title: "King Lear", Image: &old}}
	images := &fakeImages{}
	e := echo.New()
	e.POST("/plays/:id/upload-image", NewPlayHandler(plays, images, "/media").UploadImage)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "lear.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("pretend png"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/plays/3/upload-image", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "/media/uploads/plays/king-lear.png", decode(t, rec)["image"])
	assert.Equal(t, "uploads/plays/king-lear.png", plays.image)
	assert.Equal(t, []string{old}, images.removed)

	req = httptest.NewRequest(http.MethodPost, "/plays/3/upload-image", strings.NewReader("{}"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "image", decode(t, rec)["field"])
}

type fakePerformances struct {
	PerformanceStore
	filter repository.PerformanceFilter
}

func (f *fakePerformances) List(_ context.Context, flt repository.PerformanceFilter) ([]model.PerformanceListItem, error) {
	f.filter = flt
	return []model.PerformanceListItem{}, nil
}

func TestPerformanceListFilters(t *testing.T) {
	perfs := &fakePerformances{}
	e := echo.New()
	e.GET("/performances", NewPerformanceHandler(perfs).List)

	rec := do(e, http.MethodGet, "/performances?date=2025-05-17&play=2", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, perfs.filter.Day)
	assert.Equal(t, "2025-05-17T00:00:00Z", perfs.filter.Day.Format("2006-01-02T15:04:05Z07:00"))
	assert.Equal(t, uint64(2), perfs.filter.PlayID)

	for _, q := range []string{"date=17.05.2025", "date=2025-13-01", "play=abc", "play=0"} {
		rec = do(e, http.MethodGet, "/performances?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestPerformanceCreateNeedsShowTime(t *testing.T) {
	e := echo.New()
	e.POST("/performances", NewPerformanceHandler(&fakePerformances{}).Create)

	rec := do(e, http.MethodPost, "/performances", `{"play":1,"theatre_hall":2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "show_time", decode(t, rec)["field"])

	rec = do(e, http.MethodPost, "/performances", `{"play":1,"theatre_hall":2,"show_time":"tomorrow"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/ok", Health(pinger{}))
	e.GET("/down", Health(pinger{err: io.ErrUnexpectedEOF}))

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/ok", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(e, http.MethodGet, "/down", "").Code)
}
