package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/weatherwear/weatherwear/internal/middleware"
	"github.com/weatherwear/weatherwear/internal/repository"
	"github.com/weatherwear/weatherwear/internal/utils"
)

// AuthHandler bundles dependencies for signup, login and logout.
type AuthHandler struct {
	Users        UserStore
	Sessions     SessionStore
	SessionTTL   time.Duration
	CookieSecure bool
	Logger       *slog.Logger
}

// NewAuthHandler builds the handler.  A non-positive ttl falls back to
// repository.DefaultSessionTTL, matching the session store.
func NewAuthHandler(users UserStore, sessions SessionStore, ttl time.Duration, secure bool, logger *slog.Logger) *AuthHandler {
	if ttl <= 0 {
		ttl = repository.DefaultSessionTTL
	}
	return &AuthHandler{Users: users, Sessions: sessions, SessionTTL: ttl, CookieSecure: secure, Logger: orDefault(logger)}
}

// passwordTooLong answers passwords whose UTF-8 form exceeds bcrypt's 72
// byte input limit; the max tag counts characters.
const passwordTooLong = "password must be at most 72 bytes"

type signupReq struct {
	Name     string `form:"name" json:"name" validate:"required,max=100"`
	Email    string `form:"email" json:"email" validate:"required,email,max=255"`
	Password string `form:"password" json:"password" validate:"required,max=72"`
	Location string `form:"location" json:"location" validate:"required,max=100"`
}

type loginReq struct {
	Email    string `form:"email" json:"email" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

// Signup creates the user, opens a session and sends the browser to the
// dashboard.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, req.Location)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return badRequest(c, passwordTooLong)
		}
		return internalError(c, h.Logger, "create user failed", err)
	}
	return h.startSession(c, uid)
}

// Login verifies the credentials and opens a session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return internalError(c, h.Logger, "login failed", err)
	}
	return h.startSession(c, u.ID)
}

// Logout drops the session, if any, and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	if ck, err := c.Cookie(middleware.SessionCookie); err == nil && ck.Value != "" {
		ctx, cancel := dbContext(c)
		defer cancel()
		if err := h.Sessions.Delete(ctx, ck.Value); err != nil {
			h.Logger.Error("delete session failed", "err", err)
		}
	}
	c.SetCookie(h.clearCookie())
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) startSession(c echo.Context, userID uint64) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	s, err := h.Sessions.Create(ctx, userID)
	if err != nil {
		return internalError(c, h.Logger, "create session failed", err)
	}
	c.SetCookie(h.sessionCookie(s.ID))
	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h *AuthHandler) sessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.SessionTTL / time.Second),
		Expires:  time.Now().Add(h.SessionTTL),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) clearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
