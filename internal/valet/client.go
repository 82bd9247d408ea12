package valet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"
)

// CheckInResponse mirrors the POST /api/check-in success body.
type CheckInResponse struct {
	Success                 bool   `json:"success"`
	UserID                  int    `json:"userId"`
	ReservationID           string `json:"reservationId"`
	SlotID                  int    `json:"slotId"`
	RobotID                 string `json:"robotId"`
	Message                 string `json:"message"`
	RobotDispatchAuthorized bool   `json:"robotDispatchAuthorized"`
	Timestamp               string `json:"timestamp"`
}

// CheckOutResponse mirrors the POST /api/checkout success body.
type CheckOutResponse struct {
	Success         bool        `json:"success"`
	SlotID          int         `json:"slotId"`
	UserName        string      `json:"userName"`
	SessionDuration string      `json:"sessionDuration"`
	Message         string      `json:"message"`
	RobotReturnDock domain.Vec3 `json:"robotReturnDock"`
	Timestamp       string      `json:"timestamp"`
}

// APIError carries the server's structured error body alongside the status
// code, so callers can branch on 404 vs 409 vs 503.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client is the network surface the coordinator depends on. Tests substitute
// a scripted implementation.
type Client interface {
	CheckIn(ctx context.Context, userName, userEmail string, slotID int) (*CheckInResponse, error)
	CheckOut(ctx context.Context, slotID int) (*CheckOutResponse, error)
	Status(ctx context.Context) (*domain.StatusResponse, error)
	ReportSensor(ctx context.Context, event domain.SensorEventDTO) error
}

// HTTPClient talks to the reservation API over JSON/HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) CheckIn(ctx context.Context, userName, userEmail string, slotID int) (*CheckInResponse, error) {
	body := domain.CheckInDTO{UserName: userName, UserEmail: userEmail, SlotID: &slotID}
	var out CheckInResponse
	if err := c.post(ctx, "/api/check-in", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CheckOut(ctx context.Context, slotID int) (*CheckOutResponse, error) {
	body := domain.CheckOutDTO{SlotID: &slotID}
	var out CheckOutResponse
	if err := c.post(ctx, "/api/checkout", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Status(ctx context.Context) (*domain.StatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/status", nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPClient.Status: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPClient.Status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}
	var out domain.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("HTTPClient.Status: decode: %w", err)
	}
	return &out, nil
}

func (c *HTTPClient) ReportSensor(ctx context.Context, event domain.SensorEventDTO) error {
	return c.post(ctx, "/api/sensor", event, nil)
}

func (c *HTTPClient) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("HTTPClient.post %s: marshal: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("HTTPClient.post %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTPClient.post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("HTTPClient.post %s: decode: %w", path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := resp.Status
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Error != "" {
			msg = body.Error
		} else if body.Message != "" {
			msg = body.Message
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
