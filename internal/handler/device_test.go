package handler

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherwear/weatherwear/internal/model"
	"github.com/weatherwear/weatherwear/internal/repository"
)

func deviceServer(store *fakeDevices) *echo.Echo {
	e := newEcho()
	h := NewDeviceHandler(store, nil)
	e.POST("/api/register_device/", h.Register)
	e.GET("/api/devices", h.ListUnowned)
	e.GET("/api/devices/:user_id", h.ListForUser, asUser(model.User{ID: 1}))
	e.POST("/api/add_device", h.AddDevice)
	e.POST("/api/add_device/:user_id", h.AddDevice)
	return e
}

func TestRegisterDevice_Idempotent(t *testing.T) {
	store := &fakeDevices{}
	e := deviceServer(store)

	rec := do(e, http.MethodPost, "/api/register_device/", echo.MIMEApplicationJSON, `{"mac_address":"aa:bb:cc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Device registered","device_id":1}`, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/register_device/", echo.MIMEApplicationJSON, `{"mac_address":"AA:BB:CC"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Device already registered","device_id":1}`, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/register_device/", echo.MIMEApplicationJSON, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// longer than the mac_address column
	rec = do(e, http.MethodPost, "/api/register_device/", echo.MIMEApplicationJSON,
		`{"mac_address":"AA:BB:CC:DD:EE:FF:00:11:22:33:44:55"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "mac_address must be at most 32 characters")
	assert.Len(t, store.byMAC, 1)
}

func TestListUnownedDevices(t *testing.T) {
	rec := do(deviceServer(&fakeDevices{}), http.MethodGet, "/api/devices", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"devices":[]}`, rec.Body.String())
}

func TestListDevicesForUser(t *testing.T) {
	uid := uint64(1)
	store := &fakeDevices{}
	e := deviceServer(store)

	rec := do(e, http.MethodGet, "/api/devices/2", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(e, http.MethodGet, "/api/devices/1", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"no devices found","devices":[]}`, rec.Body.String())

	store.owned = map[uint64][]model.Device{1: {{ID: 4, MACAddress: "AA", UserID: &uid}}}
	rec = do(e, http.MethodGet, "/api/devices/1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"device_id":4`)

	rec = do(e, http.MethodGet, "/api/devices/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddDevice(t *testing.T) {
	store := &fakeDevices{}
	e := deviceServer(store)

	rec := do(e, http.MethodPost, "/api/add_device", echo.MIMEApplicationJSON, `{"user_id":3,"device_id":"9"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "message")

	// the path user wins over the body
	rec = do(e, http.MethodPost, "/api/add_device/7", echo.MIMEApplicationJSON, `{"user_id":3,"device_id":9}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [][2]uint64{{3, 9}, {7, 9}}, store.assigned)

	store.assignErr = repository.ErrAlreadyAssigned
	rec = do(e, http.MethodPost, "/api/add_device/7", echo.MIMEApplicationJSON, `{"device_id":9}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	store.assignErr = repository.ErrNotFound
	rec = do(e, http.MethodPost, "/api/add_device/7", echo.MIMEApplicationJSON, `{"device_id":404}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodPost, "/api/add_device", echo.MIMEApplicationJSON, `{"device_id":9}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
