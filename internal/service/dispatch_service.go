package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/google/uuid"
)

// DispatchService publishes dispatch/return commands toward physical valet
// robots over AWS IoT MQTT. Publishing is best-effort telemetry for the demo
// lot: callers log failures and move on.
type DispatchService struct {
	iotDataClient *iotdataplane.Client
}

func NewDispatchService(iotDataClient *iotdataplane.Client) *DispatchService {
	return &DispatchService{iotDataClient: iotDataClient}
}

// Enabled reports whether an IoT endpoint was configured at startup.
func (s *DispatchService) Enabled() bool {
	return s != nil && s.iotDataClient != nil
}

func (s *DispatchService) SendRobotCommand(ctx context.Context, robotID string, command string, slotID int) error {
	if !s.Enabled() {
		return nil
	}

	requestID := uuid.New().String()
	topic := fmt.Sprintf("parkhub/command/robots/%s", robotID)
	payload := domain.RobotCommandPayload{
		Command:   command,
		SlotID:    slotID,
		RequestID: requestID,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling robot command payload: %w", err)
	}

	_, err = s.iotDataClient.Publish(ctx, &iotdataplane.PublishInput{
		Topic:   aws.String(topic),
		Qos:     1,
		Payload: payloadBytes,
	})
	if err != nil {
		return fmt.Errorf("publishing robot command: %w", err)
	}

	log.Printf("Published '%s' (ReqID: %s) to %s for slot %d", command, requestID, topic, slotID)
	return nil
}
