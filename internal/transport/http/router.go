package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/lewebsimple/autologin/internal/transport/http/handler"
	"github.com/lewebsimple/autologin/internal/transport/http/middleware"

	sloggin "github.com/samber/slog-gin"
)

// APIScope is the bearer token scope required by the management API.
const APIScope = "links"

// NewRouter wires the public site. autoLogin runs on every request ahead of
// routing, so login links never need a registered route.
func NewRouter(logger *slog.Logger, linkHandler *handler.LinkHandler, autoLogin gin.HandlerFunc, jwtKey []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())
	r.Use(autoLogin)

	api := r.Group("/api", middleware.Auth(jwtKey, APIScope))
	api.POST("/links", linkHandler.Create)
	api.GET("/links", linkHandler.Lookup)

	r.NoRoute(handler.NotFound)

	return r
}
