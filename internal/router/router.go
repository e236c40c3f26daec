// Package router wires handlers and middleware onto echo routes.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/config"
	"github.com/iliyamo/theatre-booking/internal/handler"
	"github.com/iliyamo/theatre-booking/internal/middleware"
)

// RegisterRoutes registers the unauthenticated routes: the health check
// and the uploaded media files.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, media config.MediaConfig) {
	e.GET("/healthz", handler.Health(db))
	if media.URLPrefix != "" && media.Root != "" {
		e.Static(media.URLPrefix, media.Root)
	}
}

// RegisterAuth registers the account routes under /api/user.  Register,
// login, refresh and logout need no session; /me requires a valid access
// token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/user")
	g.POST("/register", a.Register)
	g.POST("/token", a.Login)
	// rotates the refresh token
	g.POST("/token/refresh", a.Refresh)
	// new access token only, the refresh token stays valid
	g.POST("/token/access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}
