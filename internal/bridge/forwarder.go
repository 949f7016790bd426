package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/weatherwear/weatherwear/internal/model"
)

// ErrMalformedPayload is returned for messages that are not valid JSON.
var ErrMalformedPayload = errors.New("malformed payload")

// DefaultUnit is attached to forwarded temperature readings.
const DefaultUnit = "Celsius"

// API is the part of APIClient the forwarder needs.
type API interface {
	RegisterDevice(ctx context.Context, mac string) (uint64, error)
	PostReading(ctx context.Context, r ReadingPayload) error
}

// Payload is the JSON document published by a sensor.
type Payload struct {
	MACAddress  string   `json:"mac_address"`
	Temperature *float64 `json:"temperature"`
}

// ParsePayload decodes a sensor message.
func ParsePayload(b []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(b, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	p.MACAddress = strings.TrimSpace(p.MACAddress)
	return p, nil
}

// Forwarder turns sensor messages into API calls, subject to its Limiter.
// Messages are handled one at a time.
type Forwarder struct {
	API     API
	Limiter *Limiter
	Unit    string
	Now     func() time.Time
	Logger  *slog.Logger

	mu sync.Mutex
}

func NewForwarder(api API, limiter *Limiter, unit string, logger *slog.Logger) *Forwarder {
	if unit == "" {
		unit = DefaultUnit
	}
	if limiter == nil {
		limiter = NewLimiter(DefaultWindow, false, nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Forwarder{API: api, Limiter: limiter, Unit: unit, Now: time.Now, Logger: logger}
}

// HandleMessage forwards one message and reports whether a forward was
// attempted.  Messages without a MAC address or temperature are dropped
// silently; so are messages arriving inside the current window.  A failed
// registration is logged and the reading is still posted.
func (f *Forwarder) HandleMessage(ctx context.Context, topic string, body []byte) (bool, error) {
	p, err := ParsePayload(body)
	if err != nil {
		return false, err
	}
	if p.MACAddress == "" || p.Temperature == nil {
		return false, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.Limiter.Allow(p.MACAddress) {
		return false, nil
	}

	if _, err := f.API.RegisterDevice(ctx, p.MACAddress); err != nil {
		f.Logger.Error("register device failed", "mac", p.MACAddress, "topic", topic, "err", err)
	}
	r := ReadingPayload{
		MACAddress: p.MACAddress,
		Value:      *p.Temperature,
		Unit:       f.Unit,
		Timestamp:  f.Now().Format(model.ReadingTimeLayout),
	}
	if err := f.API.PostReading(ctx, r); err != nil {
		return true, fmt.Errorf("post reading: %w", err)
	}
	f.Logger.Info("reading forwarded", "mac", r.MACAddress, "value", r.Value, "timestamp", r.Timestamp)
	return true, nil
}
