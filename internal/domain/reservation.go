package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation records one driver occupying one slot from check-in to
// checkout. Rows are completed, never deleted; slot occupancy is derived
// from the set of active rows.
type Reservation struct {
	ID              string            `json:"id"`
	DriverID        int               `json:"driverId"`
	SlotID          int               `json:"slotId"`
	RobotID         string            `json:"robotId"`
	CheckInTime     time.Time         `json:"checkInTime"`
	CheckOutTime    null.Time         `json:"checkOutTime"`
	DurationMinutes null.Int          `json:"durationMinutes"`
	Status          ReservationStatus `json:"status"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// CheckInResult is what the reservation service hands back to the API layer
// on a successful check-in.
type CheckInResult struct {
	UserID        int
	ReservationID string
	SlotID        int
	RobotID       string
	UserName      string
	Timestamp     time.Time
}

// CheckOutResult carries everything the caller needs to animate the robot
// back to the dock.
type CheckOutResult struct {
	SlotID          int
	UserName        string
	RobotID         string
	SessionDuration string
	ReturnDock      Vec3
	Timestamp       time.Time
}
