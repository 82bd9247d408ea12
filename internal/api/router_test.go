package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/api/handler"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/api/middleware"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/repository/memory"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/service"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	dock := domain.Vec3{X: 0, Y: 0.2, Z: 10}
	pool := []string{"R1", "R2", "R3", "R4", "R5"}

	authService := service.NewAuthService(store.Accounts(), "test-secret", time.Hour)
	reservationService := service.NewReservationService(store.Drivers(), store.Reservations(),
		store.SensorEvents(), 10, pool, dock)
	sensorService := service.NewSensorService(store.SensorEvents())
	dispatchService := service.NewDispatchService(nil)
	authMw := middleware.NewAuthMiddleware(authService)
	wsManager := handler.NewWebSocketManager()

	return SetupRouter(authService, reservationService, sensorService, dispatchService, authMw, wsManager)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	decoded := map[string]any{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, decoded
}

func checkInBody(name, email string, slot int) map[string]any {
	return map[string]any{"userName": name, "userEmail": email, "slotId": slot}
}

func TestCheckInEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/api/check-in", checkInBody("Alice", "alice@example.com", 2), "")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if body["success"] != true {
		t.Error("success flag missing")
	}
	if body["robotDispatchAuthorized"] != true {
		t.Error("dispatch authorization flag missing")
	}
	if body["robotId"] != "R1" {
		t.Errorf("robotId = %v, want R1", body["robotId"])
	}
	if body["slotId"] != float64(2) {
		t.Errorf("slotId = %v, want 2", body["slotId"])
	}
	if body["reservationId"] == "" || body["reservationId"] == nil {
		t.Error("reservationId missing")
	}
	if _, err := time.Parse(time.RFC3339, body["timestamp"].(string)); err != nil {
		t.Errorf("timestamp not RFC3339: %v", body["timestamp"])
	}
}

func TestCheckInValidation(t *testing.T) {
	router := newTestRouter(t)

	cases := []map[string]any{
		{},
		{"userName": "Alice"},
		{"userName": "Alice", "userEmail": "not-an-email", "slotId": 2},
		{"userName": "A", "userEmail": "alice@example.com", "slotId": 2},
	}
	for i, c := range cases {
		w, _ := doJSON(t, router, http.MethodPost, "/api/check-in", c, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("case %d: status = %d, want 400", i, w.Code)
		}
	}

	// In-range binding passes but the slot id is outside the lot.
	w, _ := doJSON(t, router, http.MethodPost, "/api/check-in", checkInBody("Alice", "alice@example.com", 99), "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("out-of-range slot: status = %d, want 400", w.Code)
	}
}

func TestCheckInConflicts(t *testing.T) {
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/check-in", checkInBody("Alice", "alice@example.com", 2), "")

	w, body := doJSON(t, router, http.MethodPost, "/api/check-in", checkInBody("Bob", "bob@example.com", 2), "")
	if w.Code != http.StatusConflict {
		t.Fatalf("occupied slot: status = %d, want 409", w.Code)
	}
	if body["error"] != "Slot 2 is already occupied" {
		t.Errorf("error = %v", body["error"])
	}

	w, body = doJSON(t, router, http.MethodPost, "/api/check-in", checkInBody("Alice", "alice@example.com", 3), "")
	if w.Code != http.StatusConflict {
		t.Fatalf("double booking: status = %d, want 409", w.Code)
	}
	if body["error"] != "User already has an active reservation" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestCheckInRobotExhaustion(t *testing.T) {
	router := newTestRouter(t)

	for i := 0; i < 5; i++ {
		email := fmt.Sprintf("driver%d@example.com", i)
		w, _ := doJSON(t, router, http.MethodPost, "/api/check-in", checkInBody("Driver", email, i), "")
		if w.Code != http.StatusCreated {
			t.Fatalf("seed check-in %d failed: %d", i, w.Code)
		}
	}

	w, body := doJSON(t, router, http.MethodPost, "/api/check-in", checkInBody("Late", "late@example.com", 9), "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if body["error"] != "No robots available. Please try again later." {
		t.Errorf("error = %v", body["error"])
	}
}

func TestCheckOutEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/api/checkout", map[string]any{"slotId": 4}, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("empty slot checkout: status = %d, want 404", w.Code)
	}
	if body["error"] != "No active reservation found for slot 4" {
		t.Errorf("error = %v", body["error"])
	}

	doJSON(t, router, http.MethodPost, "/api/check-in", checkInBody("Alice", "alice@example.com", 4), "")

	w, body = doJSON(t, router, http.MethodPost, "/api/checkout", map[string]any{"slotId": 4}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if body["userName"] != "Alice" {
		t.Errorf("userName = %v", body["userName"])
	}
	if body["sessionDuration"] != "0 minutes" {
		t.Errorf("sessionDuration = %v", body["sessionDuration"])
	}
	if body["message"] != "Checkout successful. Robot returning to dock." {
		t.Errorf("message = %v", body["message"])
	}
	dockJSON, ok := body["robotReturnDock"].(map[string]any)
	if !ok {
		t.Fatalf("robotReturnDock missing: %v", body)
	}
	if dockJSON["x"] != float64(0) || dockJSON["y"] != 0.2 || dockJSON["z"] != float64(10) {
		t.Errorf("robotReturnDock = %v", dockJSON)
	}

	w, _ = doJSON(t, router, http.MethodPost, "/api/checkout", nil, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing body: status = %d, want 400", w.Code)
	}
}

func TestSensorEndpoint(t *testing.T) {
	router := newTestRouter(t)

	payload := map[string]any{
		"type":      "parking_sensor",
		"timestamp": "2026-09-01T10:00:00Z",
		"data":      map[string]any{"slotId": 3, "status": true, "confidence": 0.92},
	}
	w, body := doJSON(t, router, http.MethodPost, "/api/sensor", payload, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if body["status"] != "received" {
		t.Errorf("status field = %v", body["status"])
	}
	if body["eventId"] == "" || body["eventId"] == nil {
		t.Error("eventId missing")
	}

	w, _ = doJSON(t, router, http.MethodPost, "/api/sensor", map[string]any{"type": "parking_sensor"}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("payload without data: status = %d, want 400", w.Code)
	}
}

func TestStatusAndStatsEndpoints(t *testing.T) {
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/check-in", checkInBody("Alice", "alice@example.com", 2), "")

	w, body := doJSON(t, router, http.MethodGet, "/api/status", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if body["totalSlots"] != float64(10) || body["occupiedSlots"] != float64(1) || body["availableSlots"] != float64(9) {
		t.Errorf("status body = %v", body)
	}
	details, ok := body["occupancyDetails"].([]any)
	if !ok || len(details) != 1 {
		t.Fatalf("occupancyDetails = %v", body["occupancyDetails"])
	}
	row := details[0].(map[string]any)
	if row["slotId"] != float64(2) || row["userName"] != "Alice" || row["robotId"] != "R1" {
		t.Errorf("occupancy row = %v", row)
	}

	w, body = doJSON(t, router, http.MethodGet, "/api/stats", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats: %d", w.Code)
	}
	if body["totalUsers"] != float64(1) || body["activeReservations"] != float64(1) {
		t.Errorf("stats body = %v", body)
	}
	if body["completedSessions"] != float64(0) || body["recentCheckIns24h"] != float64(1) {
		t.Errorf("stats body = %v", body)
	}
}

func TestAdminUsersRequiresAdminToken(t *testing.T) {
	router := newTestRouter(t)

	w, _ := doJSON(t, router, http.MethodGet, "/api/admin/users", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", w.Code)
	}

	doJSON(t, router, http.MethodPost, "/auth/register",
		map[string]any{"username": "viewer", "password": "secret123"}, "")
	_, loginBody := doJSON(t, router, http.MethodPost, "/auth/login",
		map[string]any{"username": "viewer", "password": "secret123"}, "")
	operatorToken, _ := loginBody["token"].(string)
	if operatorToken == "" {
		t.Fatal("operator login returned no token")
	}

	w, _ = doJSON(t, router, http.MethodGet, "/api/admin/users", nil, operatorToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("operator token: status = %d, want 403", w.Code)
	}

	doJSON(t, router, http.MethodPost, "/auth/register",
		map[string]any{"username": "root", "password": "secret123", "role": "admin"}, "")
	_, loginBody = doJSON(t, router, http.MethodPost, "/auth/login",
		map[string]any{"username": "root", "password": "secret123"}, "")
	adminToken, _ := loginBody["token"].(string)

	doJSON(t, router, http.MethodPost, "/api/check-in", checkInBody("Alice", "alice@example.com", 1), "")

	w, body := doJSON(t, router, http.MethodGet, "/api/admin/users", nil, adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("admin token: status = %d, body = %s", w.Code, w.Body.String())
	}
	if body["success"] != true || body["count"] != float64(1) {
		t.Errorf("admin body = %v", body)
	}
}
