package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/weatherwear/weatherwear/internal/middleware"
	"github.com/weatherwear/weatherwear/internal/model"
	"github.com/weatherwear/weatherwear/internal/repository"
)

// DeviceHandler serves the device registry.
type DeviceHandler struct {
	Devices DeviceStore
	Logger  *slog.Logger
}

func NewDeviceHandler(devices DeviceStore, logger *slog.Logger) *DeviceHandler {
	return &DeviceHandler{Devices: devices, Logger: orDefault(logger)}
}

type registerDeviceReq struct {
	MACAddress string `json:"mac_address" validate:"required,max=32"`
}

type addDeviceReq struct {
	UserID   flexID `json:"user_id"`
	DeviceID flexID `json:"device_id"`
}

// Register records a MAC address.  Known addresses answer with the existing
// id, so the bridge can call it before every reading.
func (h *DeviceHandler) Register(c echo.Context) error {
	var req registerDeviceReq
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	d, created, err := h.Devices.Register(ctx, req.MACAddress)
	if err != nil {
		return internalError(c, h.Logger, "register device failed", err)
	}
	msg := "Device already registered"
	if created {
		msg = "Device registered"
		h.Logger.Info("device registered", "mac", d.MACAddress, "device_id", d.ID, "client", middleware.IngestClient(c))
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg, "device_id": d.ID})
}

// ListUnowned returns devices nobody has claimed yet.
func (h *DeviceHandler) ListUnowned(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	ds, err := h.Devices.ListUnowned(ctx)
	if err != nil {
		return internalError(c, h.Logger, "list devices failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"devices": nonNil(ds)})
}

// ListForUser returns the devices of the user in the path, which must be the
// caller.
func (h *DeviceHandler) ListForUser(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	uid, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid user_id")
	}
	if uid != u.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	ds, err := h.Devices.ListByUser(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no devices found", "devices": []model.Device{}})
	}
	if err != nil {
		return internalError(c, h.Logger, "list user devices failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"devices": ds})
}

// AddDevice assigns a device to a user.  A :user_id path parameter takes
// precedence over the body.
func (h *DeviceHandler) AddDevice(c echo.Context) error {
	var req addDeviceReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if p := c.Param("user_id"); p != "" {
		uid, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return badRequest(c, "invalid user_id")
		}
		req.UserID = flexID(uid)
	}
	if req.UserID == 0 || req.DeviceID == 0 {
		return badRequest(c, "user_id and device_id are required")
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	err := h.Devices.Assign(ctx, uint64(req.UserID), uint64(req.DeviceID))
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "Device added to profile"})
	case errors.Is(err, repository.ErrAlreadyAssigned):
		return c.JSON(http.StatusConflict, echo.Map{"error": "device already assigned", "message": "Device already assigned to another user"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "device or user not found", "message": "Device or user not found"})
	default:
		return internalError(c, h.Logger, "assign device failed", err)
	}
}

func nonNil(ds []model.Device) []model.Device {
	if ds == nil {
		return []model.Device{}
	}
	return ds
}
