package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/repository"

	"gopkg.in/guregu/null.v4"
)

// SensorService appends occupancy-sensor readings to the audit log. It never
// checks them against reservation state; a sensor disagreeing with the
// bookings is a signal worth keeping, not an error.
type SensorService struct {
	sensorRepo repository.SensorEventRepository
}

func NewSensorService(sensorRepo repository.SensorEventRepository) *SensorService {
	return &SensorService{sensorRepo: sensorRepo}
}

func (s *SensorService) Record(ctx context.Context, dto domain.SensorEventDTO) (*domain.SensorEvent, error) {
	if dto.Data.SlotID == nil || dto.Data.Status == nil {
		return nil, fmt.Errorf("sensor payload missing slotId or status")
	}

	confidence := domain.DefaultSensorConfidence
	if dto.Data.Confidence != nil {
		confidence = *dto.Data.Confidence
	}

	eventType := domain.EventVehicleDeparted
	if *dto.Data.Status {
		eventType = domain.EventVehicleDetected
	}

	metadata, err := json.Marshal(map[string]string{
		"type":              dto.Type,
		"originalTimestamp": dto.Timestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling sensor metadata: %w", err)
	}

	event := &domain.SensorEvent{
		SlotID:     *dto.Data.SlotID,
		Status:     *dto.Data.Status,
		Confidence: confidence,
		EventType:  eventType,
		Metadata:   metadata,
	}
	if dto.RobotID != "" {
		event.RobotID = null.StringFrom(dto.RobotID)
	}

	if err := s.sensorRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	occupied := "Free"
	if event.Status {
		occupied = "Occupied"
	}
	log.Printf("Sensor: Slot %d | Status: %s | Confidence: %.2f", event.SlotID, occupied, event.Confidence)
	return event, nil
}

// HandleQueueMessage processes one SQS message body. Bodies carry the same
// JSON envelope as POST /api/sensor. A parse failure is returned so the
// consumer leaves the message for redelivery.
func (s *SensorService) HandleQueueMessage(ctx context.Context, body string) error {
	var dto domain.SensorEventDTO
	if err := json.Unmarshal([]byte(body), &dto); err != nil {
		return fmt.Errorf("unmarshaling sensor queue message: %w", err)
	}
	if dto.Data.SlotID == nil || dto.Data.Status == nil {
		return fmt.Errorf("sensor queue message missing slotId or status: %s", body)
	}
	_, err := s.Record(ctx, dto)
	return err
}
