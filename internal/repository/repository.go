package repository

import (
	"context"
	"errors"
	"time"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"
)

var ErrNotFound = errors.New("record not found")
var ErrDuplicateEntry = errors.New("record already exists")
var ErrSlotOccupied = errors.New("slot already has an active reservation")
var ErrDriverAlreadyActive = errors.New("driver already has an active reservation")
var ErrRobotPoolExhausted = errors.New("no robot available")
var ErrNoActiveReservation = errors.New("no active reservation for slot")

// CheckInRecord is the pair of rows a successful check-in writes. Both come
// out of the same transaction.
type CheckInRecord struct {
	Driver      *domain.Driver
	Reservation *domain.Reservation
}

type DriverRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Driver, error)
	// FindAll returns every driver ever recorded, newest check-in first.
	FindAll(ctx context.Context) ([]domain.Driver, error)
	CountAll(ctx context.Context) (int, error)
	CountCheckedInSince(ctx context.Context, since time.Time) (int, error)
}

type ReservationRepository interface {
	// CheckIn atomically verifies slot and driver availability, claims the
	// first free robot id from pool and writes the driver upsert plus the new
	// reservation. Fails with ErrSlotOccupied, ErrDriverAlreadyActive or
	// ErrRobotPoolExhausted.
	CheckIn(ctx context.Context, name, email string, slotID int, pool []string, checkInTime time.Time) (*CheckInRecord, error)
	// CompleteBySlot closes the active reservation for slotID and its driver
	// in one transaction. Fails with ErrNoActiveReservation.
	CompleteBySlot(ctx context.Context, slotID int, checkOutTime time.Time) (*domain.Reservation, *domain.Driver, error)
	FindActiveBySlotID(ctx context.Context, slotID int) (*domain.Reservation, error)
	// ActiveOccupancy joins active reservations with their drivers.
	ActiveOccupancy(ctx context.Context) ([]domain.OccupancyDetail, error)
	CountActive(ctx context.Context) (int, error)
	CountCompleted(ctx context.Context) (int, error)
	// AverageCompletedDuration is the arithmetic mean over completed
	// reservations with a recorded duration; 0 when there are none.
	AverageCompletedDuration(ctx context.Context) (float64, error)
}

type SensorEventRepository interface {
	Create(ctx context.Context, event *domain.SensorEvent) error
	CountAll(ctx context.Context) (int, error)
}

type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	FindByID(ctx context.Context, id int) (*domain.Account, error)
}
