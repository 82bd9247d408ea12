package domain

import (
	"fmt"
	"time"

	"gopkg.in/guregu/null.v4"
)

type DriverStatus string

const (
	DriverActive    DriverStatus = "active"
	DriverCompleted DriverStatus = "completed"
	DriverCancelled DriverStatus = "cancelled"
)

// Driver is one record per email. A repeat check-in reuses the row and
// overwrites slot, robot and the time fields in place.
type Driver struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	SlotID       null.Int     `json:"slotId"`
	RobotID      null.String  `json:"robotId"`
	Status       DriverStatus `json:"status"`
	CheckInTime  time.Time    `json:"checkInTime"`
	CheckOutTime null.Time    `json:"checkOutTime"`
	LicensePlate null.String  `json:"licensePlate,omitempty"`
	VehicleMake  null.String  `json:"vehicleMake,omitempty"`
	VehicleModel null.String  `json:"vehicleModel,omitempty"`
	VehicleColor null.String  `json:"vehicleColor,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// SessionDuration renders the completed session length, e.g. "1 hour 5 minutes".
// Returns "" while the driver is still checked in.
func (d *Driver) SessionDuration() string {
	if !d.CheckOutTime.Valid {
		return ""
	}
	return FormatDurationLong(int(d.CheckOutTime.Time.Sub(d.CheckInTime).Minutes()))
}

// ShortSessionDuration renders the admin-listing form, e.g. "1h 5m" or "42m".
func (d *Driver) ShortSessionDuration() string {
	if !d.CheckOutTime.Valid {
		return ""
	}
	minutes := int(d.CheckOutTime.Time.Sub(d.CheckInTime).Minutes())
	hours := minutes / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatDurationLong pluralizes a whole-minute duration: 65 -> "1 hour 5 minutes",
// 60 -> "1 hour 0 minutes", 1 -> "1 minute".
func FormatDurationLong(minutes int) string {
	hours := minutes / 60
	remaining := minutes % 60
	if hours > 0 {
		hourWord := "hour"
		if hours > 1 {
			hourWord = "hours"
		}
		minuteWord := "minute"
		if remaining != 1 {
			minuteWord = "minutes"
		}
		return fmt.Sprintf("%d %s %d %s", hours, hourWord, remaining, minuteWord)
	}
	minuteWord := "minute"
	if minutes != 1 {
		minuteWord = "minutes"
	}
	return fmt.Sprintf("%d %s", minutes, minuteWord)
}

// DTO for POST /api/check-in. SlotID is a pointer so that slot 0 survives
// the required binding.
type CheckInDTO struct {
	UserName  string `json:"userName" binding:"required,min=2,max=50"`
	UserEmail string `json:"userEmail" binding:"required,email"`
	SlotID    *int   `json:"slotId" binding:"required"`
}

type CheckOutDTO struct {
	SlotID *int `json:"slotId" binding:"required"`
}

type AdminDriverView struct {
	Driver
	SessionDurationLabel string `json:"sessionDuration,omitempty"`
}
