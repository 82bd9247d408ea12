package domain

import (
	"encoding/json"
	"time"

	"gopkg.in/guregu/null.v4"
)

type SensorEventType string

const (
	EventVehicleDetected SensorEventType = "VEHICLE_DETECTED"
	EventVehicleDeparted SensorEventType = "VEHICLE_DEPARTED"
	EventScanComplete    SensorEventType = "SCAN_COMPLETE"
	EventError           SensorEventType = "ERROR"
)

const DefaultSensorConfidence = 0.95

// SensorEvent is an append-only audit record. It is deliberately not
// validated against reservation state so a sensor that disagrees with the
// bookings stays observable.
type SensorEvent struct {
	ID         string          `json:"id"`
	SlotID     int             `json:"slotId"`
	Status     bool            `json:"status"`
	Confidence float64         `json:"confidence"`
	EventType  SensorEventType `json:"eventType"`
	RobotID    null.String     `json:"robotId"`
	Metadata   json.RawMessage `json:"metadata"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Payload of POST /api/sensor and of messages on the sensor SQS queue.
type SensorEventDTO struct {
	Type      string        `json:"type"`
	Timestamp string        `json:"timestamp"`
	Data      SensorReading `json:"data" binding:"required"`
	RobotID   string        `json:"robotId,omitempty"`
	DeviceID  string        `json:"device_id,omitempty"`
}

type SensorReading struct {
	SlotID     *int     `json:"slotId" binding:"required"`
	Status     *bool    `json:"status" binding:"required"`
	Confidence *float64 `json:"confidence"`
}
