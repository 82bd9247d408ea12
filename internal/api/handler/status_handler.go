package handler

import (
	"net/http"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/service"

	"github.com/gin-gonic/gin"
)

type StatusHandler struct {
	reservationService *service.ReservationService
}

func NewStatusHandler(rs *service.ReservationService) *StatusHandler {
	return &StatusHandler{reservationService: rs}
}

// GET /api/status
func (h *StatusHandler) Status(c *gin.Context) {
	status, err := h.reservationService.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve status", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

// GET /api/stats
func (h *StatusHandler) Stats(c *gin.Context) {
	stats, err := h.reservationService.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statistics", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /api/admin/users
func (h *StatusHandler) AdminUsers(c *gin.Context) {
	users, err := h.reservationService.AdminDrivers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"users":   users,
		"count":   len(users),
	})
}
