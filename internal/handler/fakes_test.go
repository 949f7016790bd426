package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/weatherwear/weatherwear/internal/model"
	"github.com/weatherwear/weatherwear/internal/queue"
	"github.com/weatherwear/weatherwear/internal/repository"
	"github.com/weatherwear/weatherwear/internal/validator"
)

type fakeUsers struct {
	createErr error
	verify    map[string]string // email -> password
	updateErr error
	updated   *repository.ProfileUpdate
	deleted   []uint64
}

func (f *fakeUsers) Create(_ context.Context, _, _, _, _ string) (uint64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	return 1, nil
}

func (f *fakeUsers) VerifyCredentials(_ context.Context, email, password string) (model.User, error) {
	if pw, ok := f.verify[email]; ok && pw == password {
		return model.User{ID: 1, Email: email}, nil
	}
	return model.User{}, repository.ErrInvalidCredentials
}

func (f *fakeUsers) UpdateProfile(_ context.Context, _ uint64, p repository.ProfileUpdate) error {
	f.updated = &p
	return f.updateErr
}

func (f *fakeUsers) Delete(_ context.Context, id uint64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeSessions struct {
	created []uint64
	deleted []string
}

func (f *fakeSessions) Create(_ context.Context, userID uint64) (model.Session, error) {
	f.created = append(f.created, userID)
	return model.Session{ID: "token-abc", UserID: userID}, nil
}

func (f *fakeSessions) Delete(_ context.Context, token string) error {
	f.deleted = append(f.deleted, token)
	return nil
}

type fakeWardrobe struct {
	items   []model.WardrobeItem
	nextID  uint64
	listErr error
}

func (f *fakeWardrobe) Add(_ context.Context, item *model.WardrobeItem) error {
	f.nextID++
	item.ID = f.nextID
	f.items = append(f.items, *item)
	return nil
}

func (f *fakeWardrobe) Remove(_ context.Context, id, owner uint64) (bool, error) {
	for i, it := range f.items {
		if it.ID == id && it.UserID == owner {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeWardrobe) Update(_ context.Context, item model.WardrobeItem) (bool, error) {
	for i, it := range f.items {
		if it.ID == item.ID && it.UserID == item.UserID {
			f.items[i] = item
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeWardrobe) List(_ context.Context, owner uint64) ([]model.WardrobeItem, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []model.WardrobeItem{}
	for _, it := range f.items {
		if it.UserID == owner {
			out = append(out, it)
		}
	}
	return out, nil
}

type fakeDevices struct {
	byMAC     map[string]model.Device
	owned     map[uint64][]model.Device
	assignErr error
	assigned  [][2]uint64
}

func (f *fakeDevices) Register(_ context.Context, mac string) (model.Device, bool, error) {
	mac = repository.NormalizeMAC(mac)
	if d, ok := f.byMAC[mac]; ok {
		return d, false, nil
	}
	if f.byMAC == nil {
		f.byMAC = map[string]model.Device{}
	}
	d := model.Device{ID: uint64(len(f.byMAC) + 1), MACAddress: mac}
	f.byMAC[mac] = d
	return d, true, nil
}

func (f *fakeDevices) ListUnowned(context.Context) ([]model.Device, error) {
	var out []model.Device
	for _, d := range f.byMAC {
		if !d.Owned() {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDevices) ListByUser(_ context.Context, uid uint64) ([]model.Device, error) {
	if ds := f.owned[uid]; len(ds) > 0 {
		return ds, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeDevices) Assign(_ context.Context, uid, did uint64) error {
	f.assigned = append(f.assigned, [2]uint64{uid, did})
	return f.assignErr
}

type fakeReadings struct {
	known    map[string]bool
	inserted []model.Reading
	filter   repository.ReadingFilter
	rows     []model.Reading
}

func (f *fakeReadings) Insert(_ context.Context, kind model.SensorKind, r model.Reading) (uint64, error) {
	if kind != model.SensorTemperature {
		return 0, repository.ErrUnknownSensor
	}
	if !f.known[r.MACAddress] {
		return 0, repository.ErrUnknownDevice
	}
	f.inserted = append(f.inserted, r)
	return uint64(len(f.inserted)), nil
}

func (f *fakeReadings) Query(_ context.Context, _ model.SensorKind, _ string, flt repository.ReadingFilter) ([]model.Reading, error) {
	f.filter = flt
	return f.rows, nil
}

type fakePublisher struct {
	events chan queue.ReadingRecordedEvent
}

func (p *fakePublisher) PublishReading(_ context.Context, ev queue.ReadingRecordedEvent) error {
	p.events <- ev
	return nil
}

type fakeOutfits struct {
	text string
	err  error
	got  []model.WardrobeItem
}

func (f *fakeOutfits) Generate(_ context.Context, items []model.WardrobeItem, _ float64, _ string) (string, error) {
	f.got = items
	return f.text, f.err
}

var errDB = errors.New("connection refused")

// newEcho returns an echo instance with the application validator.
func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validator.New()
	return e
}

// asUser stores u where the session middlewares put the caller.
func asUser(u model.User) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("user", u)
			return next(c)
		}
	}
}

func do(e *echo.Echo, method, target, contentType, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
