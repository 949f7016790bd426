package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/weatherwear/weatherwear/internal/model"
	"github.com/weatherwear/weatherwear/internal/repository"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session_id"

// userKey is the echo context key of the authenticated model.User.
const userKey = "user"

// SessionResolver maps a session token to its user.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (model.User, error)
}

// Authenticator resolves the session cookie of a request.  Page routes and
// JSON routes share it and differ only in how a failure is rendered.
type Authenticator struct {
	Sessions SessionResolver
	Logger   *slog.Logger
}

func NewAuthenticator(sessions SessionResolver, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{Sessions: sessions, Logger: logger}
}

// Authenticate returns the caller, or repository.ErrSessionInvalid when the
// cookie is missing, unknown or expired.  Other errors come from storage.
func (a *Authenticator) Authenticate(c echo.Context) (model.User, error) {
	ck, err := c.Cookie(SessionCookie)
	if err != nil || ck.Value == "" {
		return model.User{}, repository.ErrSessionInvalid
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	return a.Sessions.Resolve(ctx, ck.Value)
}

// RequireSessionPage redirects unauthenticated browsers to /login.
func (a *Authenticator) RequireSessionPage() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := a.Authenticate(c)
			if err != nil {
				if !errors.Is(err, repository.ErrSessionInvalid) {
					a.Logger.Error("session lookup failed", "path", c.Path(), "err", err)
				}
				return c.Redirect(http.StatusFound, "/login")
			}
			c.Set(userKey, u)
			return next(c)
		}
	}
}

// RequireSessionAPI answers unauthenticated JSON calls with 401.
func (a *Authenticator) RequireSessionAPI() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := a.Authenticate(c)
			if errors.Is(err, repository.ErrSessionInvalid) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}
			if err != nil {
				a.Logger.Error("session lookup failed", "path", c.Path(), "err", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session lookup failed"})
			}
			c.Set(userKey, u)
			return next(c)
		}
	}
}

// CurrentUser returns the user stored by one of the Require* middlewares.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userKey).(model.User)
	return u, ok
}
