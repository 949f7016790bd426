package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/weatherwear/weatherwear/internal/middleware"
	"github.com/weatherwear/weatherwear/internal/model"
	"github.com/weatherwear/weatherwear/internal/queue"
	"github.com/weatherwear/weatherwear/internal/repository"
)

// publishTimeout bounds the broker call made after a reading is stored.
const publishTimeout = 5 * time.Second

// timeLayouts are tried in order when parsing timestamps from requests.
var timeLayouts = []string{model.ReadingTimeLayout, time.RFC3339, dateLayout}

const dateLayout = "2006-01-02"

// SensorHandler ingests and queries sensor readings of one kind per route.
type SensorHandler struct {
	Readings  ReadingStore
	Publisher EventPublisher // optional
	Logger    *slog.Logger
	Now       func() time.Time
}

func NewSensorHandler(readings ReadingStore, publisher EventPublisher, logger *slog.Logger) *SensorHandler {
	return &SensorHandler{Readings: readings, Publisher: publisher, Logger: orDefault(logger), Now: time.Now}
}

type readingReq struct {
	MACAddress string   `json:"mac_address" validate:"required,max=32"`
	Value      *float64 `json:"value" validate:"required"`
	Unit       string   `json:"unit" validate:"max=20"`
	Timestamp  string   `json:"timestamp"`
}

// Ingest returns a handler storing readings of kind.
func (h *SensorHandler) Ingest(kind model.SensorKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req readingReq
		if msg, ok := bindAndValidate(c, &req); !ok {
			return badRequest(c, msg)
		}
		ts := h.Now().UTC().Truncate(time.Second)
		if req.Timestamp != "" {
			t, _, err := parseTime(req.Timestamp)
			if err != nil {
				return badRequest(c, "invalid timestamp")
			}
			ts = t
		}
		rd := model.Reading{
			MACAddress: repository.NormalizeMAC(req.MACAddress),
			Value:      *req.Value,
			Unit:       req.Unit,
			Timestamp:  ts,
		}

		ctx, cancel := dbContext(c)
		defer cancel()
		id, err := h.Readings.Insert(ctx, kind, rd)
		switch {
		case errors.Is(err, repository.ErrUnknownDevice):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown device"})
		case errors.Is(err, repository.ErrUnknownSensor):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown sensor"})
		case err != nil:
			return internalError(c, h.Logger, "store reading failed", err)
		}
		rd.ID = id
		h.Logger.Debug("reading stored", "sensor", kind, "mac", rd.MACAddress, "id", id, "client", middleware.IngestClient(c))
		h.publish(kind, rd)
		return c.JSON(http.StatusCreated, echo.Map{"id": id})
	}
}

// Query returns a handler listing the readings of one device.  Query
// parameters: order-by (value|timestamp), start-date, end-date.
func (h *SensorHandler) Query(kind model.SensorKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		f := repository.ReadingFilter{OrderBy: c.QueryParam("order-by")}
		if s := c.QueryParam("start-date"); s != "" {
			t, _, err := parseTime(s)
			if err != nil {
				return badRequest(c, "invalid start-date")
			}
			f.Start = &t
		}
		if s := c.QueryParam("end-date"); s != "" {
			t, dateOnly, err := parseTime(s)
			if err != nil {
				return badRequest(c, "invalid end-date")
			}
			if dateOnly {
				t = t.Add(24*time.Hour - time.Second)
			}
			f.End = &t
		}

		ctx, cancel := dbContext(c)
		defer cancel()
		rs, err := h.Readings.Query(ctx, kind, c.Param("mac_address"), f)
		if errors.Is(err, repository.ErrUnknownSensor) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown sensor"})
		}
		if err != nil {
			return internalError(c, h.Logger, "query readings failed", err)
		}
		out := make([]model.ReadingView, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.View())
		}
		return c.JSON(http.StatusOK, out)
	}
}

// publish hands the stored reading to the broker in the background.
func (h *SensorHandler) publish(kind model.SensorKind, rd model.Reading) {
	if h.Publisher == nil {
		return
	}
	ev := queue.ReadingRecordedEvent{
		ReadingID:  rd.ID,
		Sensor:     string(kind),
		MACAddress: rd.MACAddress,
		Value:      rd.Value,
		Unit:       rd.Unit,
		Timestamp:  rd.Timestamp.Format(model.ReadingTimeLayout),
		RecordedAt: h.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := h.Publisher.PublishReading(ctx, ev); err != nil {
			h.Logger.Warn("publish reading failed", "reading_id", ev.ReadingID, "err", err)
		}
	}()
}

// parseTime accepts the reading layout, RFC 3339 and a bare date.  The
// second result reports the bare date form.
func parseTime(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), layout == dateLayout, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognised time %q", s)
}
