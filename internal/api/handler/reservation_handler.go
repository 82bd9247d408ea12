package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/repository"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/service"

	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	reservationService *service.ReservationService
	dispatchService    *service.DispatchService
	wsManager          *WebSocketManager
}

func NewReservationHandler(rs *service.ReservationService, ds *service.DispatchService, wsm *WebSocketManager) *ReservationHandler {
	return &ReservationHandler{
		reservationService: rs,
		dispatchService:    ds,
		wsManager:          wsm,
	}
}

// POST /api/check-in
func (h *ReservationHandler) CheckIn(c *gin.Context) {
	var dto domain.CheckInDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userName, userEmail, and slotId are required", "details": err.Error()})
		return
	}

	result, err := h.reservationService.CheckIn(c.Request.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSlotOutOfRange):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrSlotOccupied):
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Slot %d is already occupied", *dto.SlotID)})
		case errors.Is(err, repository.ErrDriverAlreadyActive):
			c.JSON(http.StatusConflict, gin.H{"error": "User already has an active reservation"})
		case errors.Is(err, repository.ErrRobotPoolExhausted):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No robots available. Please try again later."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Check-in failed", "details": err.Error()})
		}
		return
	}

	h.notifyAndDispatch("check_in", domain.RobotCommandDispatch, result.SlotID, result.RobotID, result.UserName)

	c.JSON(http.StatusCreated, gin.H{
		"success":                 true,
		"userId":                  result.UserID,
		"reservationId":           result.ReservationID,
		"slotId":                  result.SlotID,
		"robotId":                 result.RobotID,
		"message":                 fmt.Sprintf("%s checked in to slot %d", result.UserName, result.SlotID),
		"robotDispatchAuthorized": true,
		"timestamp":               result.Timestamp.Format(time.RFC3339),
	})
}

// POST /api/checkout
func (h *ReservationHandler) CheckOut(c *gin.Context) {
	var dto domain.CheckOutDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slotId is required", "details": err.Error()})
		return
	}

	result, err := h.reservationService.CheckOut(c.Request.Context(), *dto.SlotID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveReservation) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("No active reservation found for slot %d", *dto.SlotID)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed", "details": err.Error()})
		return
	}

	h.notifyAndDispatch("check_out", domain.RobotCommandReturn, result.SlotID, result.RobotID, result.UserName)

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"slotId":          result.SlotID,
		"userName":        result.UserName,
		"sessionDuration": result.SessionDuration,
		"message":         "Checkout successful. Robot returning to dock.",
		"robotReturnDock": result.ReturnDock,
		"timestamp":       result.Timestamp.Format(time.RFC3339),
	})
}

// notifyAndDispatch fans the event out to websocket dashboards and, when IoT
// is configured, toward the robot command topic. Both paths are best-effort.
func (h *ReservationHandler) notifyAndDispatch(eventType, command string, slotID int, robotID, userName string) {
	if h.wsManager != nil {
		h.wsManager.BroadcastParkingEvent(domain.ParkingEventNotification{
			Type:      eventType,
			SlotID:    slotID,
			RobotID:   robotID,
			UserName:  userName,
			Timestamp: time.Now().UTC(),
		})
	}
	if h.dispatchService.Enabled() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.dispatchService.SendRobotCommand(ctx, robotID, command, slotID); err != nil {
				log.Printf("Robot command publish failed (%s, slot %d): %v", command, slotID, err)
			}
		}()
	}
}
