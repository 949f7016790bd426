package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/weatherwear/weatherwear/internal/repository"
	"github.com/weatherwear/weatherwear/internal/utils"
)

// ProfileHandler serves the signed-in user's own account.
type ProfileHandler struct {
	Users  UserStore
	Auth   *AuthHandler // clears the cookie after account deletion
	Logger *slog.Logger
}

func NewProfileHandler(users UserStore, auth *AuthHandler, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{Users: users, Auth: auth, Logger: orDefault(logger)}
}

type profileUpdateReq struct {
	Name            string `json:"name" form:"name" validate:"required,max=100"`
	Location        string `json:"location" form:"location" validate:"required,max=100"`
	CurrentPassword string `json:"current_password" form:"current_password"`
	NewPassword     string `json:"new_password" form:"new_password" validate:"max=72"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// GetID returns the id of the signed-in user (GET /api/getId).
func (h *ProfileHandler) GetID(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": u.ID})
}

// Get returns the profile of the signed-in user.
func (h *ProfileHandler) Get(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// Update changes name and location, and the password when new_password is
// given.  New and confirmation must match before the store is called.
func (h *ProfileHandler) Update(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req profileUpdateReq
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	if req.NewPassword != "" {
		if req.NewPassword != req.ConfirmPassword {
			return badRequest(c, "passwords do not match")
		}
		if req.CurrentPassword == "" {
			return badRequest(c, "current_password is required")
		}
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	err = h.Users.UpdateProfile(ctx, u.ID, repository.ProfileUpdate{
		Name:            req.Name,
		Location:        req.Location,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated"})
	case errors.Is(err, repository.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "current password is incorrect"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case errors.Is(err, utils.ErrPasswordTooLong):
		return badRequest(c, passwordTooLong)
	default:
		return internalError(c, h.Logger, "update profile failed", err)
	}
}

// Delete removes the account with everything it owns and ends the session.
func (h *ProfileHandler) Delete(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Users.Delete(ctx, u.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return internalError(c, h.Logger, "delete account failed", err)
	}
	if h.Auth != nil {
		c.SetCookie(h.Auth.clearCookie())
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Account deleted"})
}
