package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/repository/memory"
)

func TestSensorRecordDerivesEventType(t *testing.T) {
	store := memory.NewStore()
	svc := NewSensorService(store.SensorEvents())
	ctx := context.Background()

	slot := 3
	occupied := true
	event, err := svc.Record(ctx, domain.SensorEventDTO{
		Type:      "parking_sensor",
		Timestamp: "2026-09-01T10:00:00Z",
		Data:      domain.SensorReading{SlotID: &slot, Status: &occupied},
		RobotID:   "R2",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if event.EventType != domain.EventVehicleDetected {
		t.Errorf("eventType = %s, want VEHICLE_DETECTED", event.EventType)
	}
	if event.Confidence != domain.DefaultSensorConfidence {
		t.Errorf("confidence = %f, want default %f", event.Confidence, domain.DefaultSensorConfidence)
	}
	if event.ID == "" {
		t.Error("event id not assigned")
	}
	if !event.RobotID.Valid || event.RobotID.String != "R2" {
		t.Errorf("robotId = %+v, want R2", event.RobotID)
	}

	var meta map[string]string
	if err := json.Unmarshal(event.Metadata, &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta["type"] != "parking_sensor" || meta["originalTimestamp"] != "2026-09-01T10:00:00Z" {
		t.Errorf("metadata = %v", meta)
	}

	free := false
	confidence := 0.7
	departed, err := svc.Record(ctx, domain.SensorEventDTO{
		Type: "parking_sensor",
		Data: domain.SensorReading{SlotID: &slot, Status: &free, Confidence: &confidence},
	})
	if err != nil {
		t.Fatalf("record departed: %v", err)
	}
	if departed.EventType != domain.EventVehicleDeparted {
		t.Errorf("eventType = %s, want VEHICLE_DEPARTED", departed.EventType)
	}
	if departed.Confidence != 0.7 {
		t.Errorf("explicit confidence lost: %f", departed.Confidence)
	}

	count, _ := store.SensorEvents().CountAll(ctx)
	if count != 2 {
		t.Errorf("event count = %d, want 2", count)
	}
}

func TestHandleQueueMessage(t *testing.T) {
	store := memory.NewStore()
	svc := NewSensorService(store.SensorEvents())
	ctx := context.Background()

	body := `{"type":"parking_sensor","timestamp":"2026-09-01T10:00:00Z","data":{"slotId":4,"status":true,"confidence":0.88},"device_id":"cam-gate-1"}`
	if err := svc.HandleQueueMessage(ctx, body); err != nil {
		t.Fatalf("handle: %v", err)
	}
	count, _ := store.SensorEvents().CountAll(ctx)
	if count != 1 {
		t.Fatalf("event count = %d, want 1", count)
	}

	if err := svc.HandleQueueMessage(ctx, "{not json"); err == nil {
		t.Error("malformed body accepted")
	}
	if err := svc.HandleQueueMessage(ctx, `{"type":"parking_sensor","data":{}}`); err == nil {
		t.Error("body without slotId/status accepted")
	}
}
