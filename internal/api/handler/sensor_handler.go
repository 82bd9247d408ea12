package handler

import (
	"net/http"
	"time"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/service"

	"github.com/gin-gonic/gin"
)

type SensorHandler struct {
	sensorService *service.SensorService
	wsManager     *WebSocketManager
}

func NewSensorHandler(ss *service.SensorService, wsm *WebSocketManager) *SensorHandler {
	return &SensorHandler{sensorService: ss, wsManager: wsm}
}

// POST /api/sensor
func (h *SensorHandler) Record(c *gin.Context) {
	var dto domain.SensorEventDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sensor payload", "details": err.Error()})
		return
	}

	event, err := h.sensorService.Record(c.Request.Context(), dto)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sensor logging failed", "details": err.Error()})
		return
	}

	if h.wsManager != nil {
		h.wsManager.BroadcastParkingEvent(domain.ParkingEventNotification{
			Type:      "sensor",
			SlotID:    event.SlotID,
			RobotID:   event.RobotID.ValueOrZero(),
			Timestamp: time.Now().UTC(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "received",
		"message": "Sensor data logged",
		"eventId": event.ID,
	})
}
