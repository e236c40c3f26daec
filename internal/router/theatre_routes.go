package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/theatre-booking/internal/config"
	"github.com/iliyamo/theatre-booking/internal/handler"
	"github.com/iliyamo/theatre-booking/internal/middleware"
	"github.com/iliyamo/theatre-booking/internal/model"
)

const theatrePrefix = "/api/theatre"

// Theatre bundles the handlers served under /api/theatre.
type Theatre struct {
	Halls        *handler.HallHandler
	Genres       *handler.GenreHandler
	Actors       *handler.ActorHandler
	Plays        *handler.PlayHandler
	Performances *handler.PerformanceHandler
	Tickets      *handler.TicketHandler
	Reservations *handler.ReservationHandler
}

// Options carries the middleware settings.  A nil Redis client disables
// caching and rate limiting.
type Options struct {
	JWTSecret string
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
}

type crudHandler interface {
	List(c echo.Context) error
	Get(c echo.Context) error
	Create(c echo.Context) error
	Update(c echo.Context) error
	Delete(c echo.Context) error
}

// registerCRUD maps the collection and item routes of one resource.  PUT
// and PATCH share a handler that tells them apart by method.
func registerCRUD(g *echo.Group, h crudHandler) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// RegisterTheatre registers every /api/theatre resource.  All routes need
// a valid access token and share the rate limiter.  Writes to everything
// except reservations need the ADMIN role, and tickets are admin-only for
// reads too since they cross every user's reservations.  Catalog resources (halls,
// genres, actors, plays) are served through the response cache and bump
// its generation on writes; performances and reservations carry live
// availability and are never cached.
func RegisterTheatre(e *echo.Echo, t Theatre, opts Options) {
	jwt := middleware.JWTAuth(opts.JWTSecret)
	limit := middleware.NewTokenBucket(opts.RateLimit, opts.Redis)
	admin := middleware.RequireRoleForWrites(model.RoleAdmin)

	auth := []echo.MiddlewareFunc{jwt, limit}
	adminWrites := []echo.MiddlewareFunc{jwt, limit, admin}
	cached := []echo.MiddlewareFunc{
		jwt, limit, admin,
		middleware.InvalidateCache(opts.Cache, opts.Redis),
		middleware.NewRedisCache(opts.Cache, opts.Redis),
	}

	registerCRUD(e.Group(theatrePrefix+"/theatre_halls", cached...), t.Halls)
	registerCRUD(e.Group(theatrePrefix+"/genres", cached...), t.Genres)
	registerCRUD(e.Group(theatrePrefix+"/actors", cached...), t.Actors)

	plays := e.Group(theatrePrefix+"/plays", cached...)
	registerCRUD(plays, t.Plays)
	plays.POST("/:id/upload-image", t.Plays.UploadImage)

	registerCRUD(e.Group(theatrePrefix+"/performances", adminWrites...), t.Performances)
	registerCRUD(e.Group(theatrePrefix+"/tickets", jwt, limit, middleware.RequireRole(model.RoleAdmin)), t.Tickets)

	res := e.Group(theatrePrefix+"/reservations", auth...)
	res.GET("", t.Reservations.List)
	res.POST("", t.Reservations.Create)
}
