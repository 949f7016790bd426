package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/weatherwear/weatherwear/internal/utils"
)

// tokenTTL is the lifetime of the bearer token attached to each call.
const tokenTTL = time.Minute

// StatusError reports a non-2xx answer from the API.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Path, e.Status, e.Body)
}

// ReadingPayload is the body of POST /api/temperature.
type ReadingPayload struct {
	MACAddress string  `json:"mac_address"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	Timestamp  string  `json:"timestamp"`
}

// APIClient calls the ingestion endpoints of the web application.
type APIClient struct {
	BaseURL string
	HTTP    *http.Client
	Secret  string // signs a bearer token per call when set
}

func NewAPIClient(baseURL, secret string, timeout time.Duration) *APIClient {
	return &APIClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Secret:  secret,
	}
}

// RegisterDevice registers mac and returns the device id.
func (c *APIClient) RegisterDevice(ctx context.Context, mac string) (uint64, error) {
	var out struct {
		DeviceID uint64 `json:"device_id"`
	}
	if err := c.post(ctx, "/api/register_device/", map[string]string{"mac_address": mac}, &out); err != nil {
		return 0, err
	}
	return out.DeviceID, nil
}

// PostReading stores one temperature reading.
func (c *APIClient) PostReading(ctx context.Context, r ReadingPayload) error {
	return c.post(ctx, "/api/temperature", r, nil)
}

func (c *APIClient) post(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Secret != "" {
		tok, err := utils.NewIngestToken(c.Secret, "bridge", tokenTTL)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", path, err)
	}
	return nil
}
