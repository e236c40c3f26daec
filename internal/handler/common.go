package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/middleware"
)

// Pagination defaults for list endpoints.
const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// parseID reads the :id path parameter.
func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, invalid("id", "must be a positive integer")
	}
	return id, nil
}

// parseIDList parses a comma separated list such as "1,2,3".  Empty input
// yields nil.
func parseIDList(field, raw string) ([]uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil || id == 0 {
			return nil, invalid(field, "must be a comma separated list of ids")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// currentUser returns the authenticated user id set by JWTAuth.
func currentUser(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, errUnauthenticated
	}
	return id, nil
}

var errUnauthenticated = errors.New("unauthenticated")

// bindJSON binds the request body into v with echo's binder.  Binder
// failures become a ValidationError naming the offending field when the
// JSON decoder reported one.
func bindJSON(c echo.Context, v any) error {
	if c.Request().ContentLength == 0 {
		return invalid("", "request body is empty")
	}
	err := c.Bind(v)
	if err == nil {
		return nil
	}
	cause := err
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusUnsupportedMediaType {
			return invalid("", "request body must be application/json")
		}
		if he.Internal != nil {
			cause = he.Internal
		}
	}
	var typeErr *json.UnmarshalTypeError
	var timeErr *time.ParseError
	switch {
	case errors.As(cause, &typeErr):
		return invalid(typeErr.Field, "has the wrong type")
	case errors.As(cause, &timeErr):
		return invalid("", "timestamps must be RFC 3339, e.g. 2025-05-17T19:30:00Z")
	default:
		return invalid("", "request body is not valid JSON")
	}
}

// page holds the resolved page and page_size query parameters.
type page struct {
	Number int
	Size   int
}

func (p page) offset() int { return (p.Number - 1) * p.Size }

func parsePage(c echo.Context) (page, error) {
	p := page{Number: 1, Size: defaultPageSize}
	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page{}, invalid("page", "must be a positive integer")
		}
		p.Number = n
	}
	if raw := c.QueryParam("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page{}, invalid("page_size", "must be a positive integer")
		}
		if n > maxPageSize {
			n = maxPageSize
		}
		p.Size = n
	}
	// Number*Size must fit in an int for offset and the next link.
	if p.Number > math.MaxInt/p.Size {
		return page{}, invalid("page", "is out of range")
	}
	return p, nil
}

// pagedResponse is the envelope of paginated lists.
type pagedResponse struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

func newPagedResponse(c echo.Context, p page, total int, results any) pagedResponse {
	resp := pagedResponse{Count: total, Results: results}
	if p.Number*p.Size < total {
		resp.Next = pageURL(c, p.Number+1)
	}
	if p.Number > 1 {
		last := (total + p.Size - 1) / p.Size
		prev := p.Number - 1
		if prev > last && last > 0 {
			prev = last
		}
		resp.Previous = pageURL(c, prev)
	}
	return resp
}

// pageURL rebuilds the request URL with page set to n.
func pageURL(c echo.Context, n int) *string {
	u := url.URL{Path: c.Request().URL.Path}
	q := c.Request().URL.Query()
	q.Set("page", strconv.Itoa(n))
	u.RawQuery = q.Encode()
	s := c.Scheme() + "://" + c.Request().Host + u.String()
	return &s
}
