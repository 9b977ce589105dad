package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	ctxlog "github.com/lewebsimple/autologin/internal/log"
	"github.com/lewebsimple/autologin/internal/usecase"
)

const autoLoginRoute = "/:endpoint/:public"

// linkVerifier is the subset of LinkUsecase the middleware needs.
type linkVerifier interface {
	Verify(ctx context.Context, req usecase.Request) (*usecase.Login, error)
}

type sessionEstablisher interface {
	Establish(w http.ResponseWriter, userID string) error
}

// AutoLogin intercepts login link requests before routing. Requests that are
// not login links for this deployment continue untouched; a matched endpoint
// always ends the request, either with a redirect or with the failure message.
func AutoLogin(links linkVerifier, sessions sessionEstablisher, messages usecase.MessageFunc, logger *slog.Logger) gin.HandlerFunc {
	logger = logger.With("component", "autologin")

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		login, err := links.Verify(ctx, usecase.Request{
			Path: c.Request.URL.Path,
			Host: c.Request.Host,
		})
		if errors.Is(err, usecase.ErrNotHandled) {
			c.Next()
			return
		}

		c.Set(routeKey, autoLoginRoute)
		c.Header("Cache-Control", "no-store")

		var failure *usecase.Failure
		switch {
		case errors.As(err, &failure):
			logger.InfoContext(ctx, "login link rejected", "kind", failure.Kind, "error", failure.Err)
			c.Data(http.StatusForbidden, "text/plain; charset=utf-8", []byte(messages(failure.Kind)))
			c.Abort()
			return
		case err != nil:
			logger.ErrorContext(ctx, "verify login link", "error", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		ctx = ctxlog.WithAttrs(ctx, slog.String("user_id", login.User.ID))
		if err := sessions.Establish(c.Writer, login.User.ID); err != nil {
			logger.ErrorContext(ctx, "establish session", "error", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		logger.InfoContext(ctx, "login link accepted", "redirect", login.RedirectURL)
		c.Redirect(http.StatusFound, login.RedirectURL)
		c.Abort()
	}
}
