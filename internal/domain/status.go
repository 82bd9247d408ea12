package domain

import "time"

// OccupancyDetail is one row of GET /api/status, derived by joining active
// reservations with their drivers.
type OccupancyDetail struct {
	SlotID      int       `json:"slotId"`
	UserName    string    `json:"userName"`
	UserEmail   string    `json:"userEmail"`
	RobotID     string    `json:"robotId"`
	CheckInTime time.Time `json:"checkInTime"`
}

type StatusResponse struct {
	TotalSlots       int               `json:"totalSlots"`
	OccupiedSlots    int               `json:"occupiedSlots"`
	AvailableSlots   int               `json:"availableSlots"`
	OccupancyDetails []OccupancyDetail `json:"occupancyDetails"`
	Timestamp        string            `json:"timestamp"`
}

type StatsResponse struct {
	TotalUsers             int    `json:"totalUsers"`
	ActiveReservations     int    `json:"activeReservations"`
	CompletedSessions      int    `json:"completedSessions"`
	TotalSensorEvents      int    `json:"totalSensorEvents"`
	AverageSessionDuration int    `json:"averageSessionDuration"`
	RecentCheckIns24h      int    `json:"recentCheckIns24h"`
	Timestamp              string `json:"timestamp"`
}

// ParkingEventNotification is broadcast to websocket dashboard clients on
// check-in, checkout and sensor activity.
type ParkingEventNotification struct {
	Type      string    `json:"type"`
	SlotID    int       `json:"slotId"`
	RobotID   string    `json:"robotId,omitempty"`
	UserName  string    `json:"userName,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
