package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/weatherwear/weatherwear/internal/middleware"
	"github.com/weatherwear/weatherwear/internal/model"
	"github.com/weatherwear/weatherwear/internal/queue"
	"github.com/weatherwear/weatherwear/internal/repository"
)

// dbTimeout bounds the storage work of one request.
const dbTimeout = 5 * time.Second

// UserStore is the part of repository.UserRepo the handlers use.
type UserStore interface {
	Create(ctx context.Context, name, email, password, location string) (uint64, error)
	VerifyCredentials(ctx context.Context, email, password string) (model.User, error)
	UpdateProfile(ctx context.Context, id uint64, p repository.ProfileUpdate) error
	Delete(ctx context.Context, id uint64) error
}

// SessionStore issues and revokes session tokens.
type SessionStore interface {
	Create(ctx context.Context, userID uint64) (model.Session, error)
	Delete(ctx context.Context, token string) error
}

// DeviceStore is the device registry.
type DeviceStore interface {
	Register(ctx context.Context, mac string) (model.Device, bool, error)
	ListUnowned(ctx context.Context) ([]model.Device, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Device, error)
	Assign(ctx context.Context, userID, deviceID uint64) error
}

// WardrobeStore persists clothing items scoped by owner.
type WardrobeStore interface {
	Add(ctx context.Context, item *model.WardrobeItem) error
	Remove(ctx context.Context, id, ownerID uint64) (bool, error)
	Update(ctx context.Context, item model.WardrobeItem) (bool, error)
	List(ctx context.Context, ownerID uint64) ([]model.WardrobeItem, error)
}

// ReadingStore persists sensor readings.
type ReadingStore interface {
	Insert(ctx context.Context, kind model.SensorKind, r model.Reading) (uint64, error)
	Query(ctx context.Context, kind model.SensorKind, mac string, f repository.ReadingFilter) ([]model.Reading, error)
}

// OutfitGenerator produces an outfit suggestion.
type OutfitGenerator interface {
	Generate(ctx context.Context, items []model.WardrobeItem, temperature float64, condition string) (string, error)
}

// EventPublisher fans stored readings out to the message broker.
type EventPublisher interface {
	PublishReading(ctx context.Context, event queue.ReadingRecordedEvent) error
}

// flexID decodes ids sent either as JSON numbers or as numeric strings;
// the profile page sends device ids as strings.
type flexID uint64

func (id *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", b)
	}
	*id = flexID(n)
	return nil
}

var _ json.Unmarshaler = (*flexID)(nil)

// currentUser returns the session user; the route must sit behind one of
// the session middlewares.
func currentUser(c echo.Context) (model.User, error) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return model.User{}, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return u, nil
}

// bindAndValidate binds the request into req and runs the echo validator.
// On failure it returns the message for a 400 response and false.
func bindAndValidate(c echo.Context, req any) (string, bool) {
	if err := c.Bind(req); err != nil {
		return "invalid request body", false
	}
	if err := c.Validate(req); err != nil {
		return err.Error(), false
	}
	return "", true
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// internalError logs err and answers with a generic 500.
func internalError(c echo.Context, logger *slog.Logger, msg string, err error) error {
	logger.Error(msg, "path", c.Path(), "err", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}

func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
