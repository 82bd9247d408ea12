package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/repository"
)

var ErrSlotOutOfRange = errors.New("slot id out of range")

// ReservationService owns the check-in/checkout rules: slot occupancy,
// deterministic robot assignment from the fixed pool, and session duration
// accounting.
type ReservationService struct {
	driverRepo      repository.DriverRepository
	reservationRepo repository.ReservationRepository
	sensorRepo      repository.SensorEventRepository

	totalSlots int
	robotPool  []string
	returnDock domain.Vec3
}

func NewReservationService(
	driverRepo repository.DriverRepository,
	reservationRepo repository.ReservationRepository,
	sensorRepo repository.SensorEventRepository,
	totalSlots int,
	robotPool []string,
	returnDock domain.Vec3,
) *ReservationService {
	return &ReservationService{
		driverRepo:      driverRepo,
		reservationRepo: reservationRepo,
		sensorRepo:      sensorRepo,
		totalSlots:      totalSlots,
		robotPool:       robotPool,
		returnDock:      returnDock,
	}
}

func (s *ReservationService) TotalSlots() int         { return s.totalSlots }
func (s *ReservationService) ReturnDock() domain.Vec3 { return s.returnDock }

func (s *ReservationService) CheckIn(ctx context.Context, dto domain.CheckInDTO) (*domain.CheckInResult, error) {
	slotID := *dto.SlotID
	if slotID < 0 || slotID >= s.totalSlots {
		return nil, fmt.Errorf("%w: slot %d (valid range 0-%d)", ErrSlotOutOfRange, slotID, s.totalSlots-1)
	}

	checkInTime := time.Now().UTC()
	record, err := s.reservationRepo.CheckIn(ctx, dto.UserName, dto.UserEmail, slotID, s.robotPool, checkInTime)
	if err != nil {
		return nil, err
	}

	log.Printf("Check-in: %s -> Slot %d | Robot %s", dto.UserName, slotID, record.Reservation.RobotID)

	return &domain.CheckInResult{
		UserID:        record.Driver.ID,
		ReservationID: record.Reservation.ID,
		SlotID:        slotID,
		RobotID:       record.Reservation.RobotID,
		UserName:      record.Driver.Name,
		Timestamp:     record.Reservation.CheckInTime,
	}, nil
}

func (s *ReservationService) CheckOut(ctx context.Context, slotID int) (*domain.CheckOutResult, error) {
	checkOutTime := time.Now().UTC()
	res, driver, err := s.reservationRepo.CompleteBySlot(ctx, slotID, checkOutTime)
	if err != nil {
		return nil, err
	}

	duration := domain.FormatDurationLong(int(res.DurationMinutes.Int64))
	log.Printf("Checkout: Slot %d | User: %s | Duration: %s", slotID, driver.Name, duration)

	return &domain.CheckOutResult{
		SlotID:          slotID,
		UserName:        driver.Name,
		RobotID:         res.RobotID,
		SessionDuration: duration,
		ReturnDock:      s.returnDock,
		Timestamp:       res.CheckOutTime.Time,
	}, nil
}

func (s *ReservationService) Status(ctx context.Context) (*domain.StatusResponse, error) {
	details, err := s.reservationRepo.ActiveOccupancy(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading occupancy: %w", err)
	}
	if details == nil {
		details = []domain.OccupancyDetail{}
	}
	occupied := len(details)
	return &domain.StatusResponse{
		TotalSlots:       s.totalSlots,
		OccupiedSlots:    occupied,
		AvailableSlots:   s.totalSlots - occupied,
		OccupancyDetails: details,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (s *ReservationService) Stats(ctx context.Context) (*domain.StatsResponse, error) {
	totalUsers, err := s.driverRepo.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting drivers: %w", err)
	}
	active, err := s.reservationRepo.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting active reservations: %w", err)
	}
	completed, err := s.reservationRepo.CountCompleted(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting completed reservations: %w", err)
	}
	sensorEvents, err := s.sensorRepo.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting sensor events: %w", err)
	}
	avg, err := s.reservationRepo.AverageCompletedDuration(ctx)
	if err != nil {
		return nil, fmt.Errorf("averaging session duration: %w", err)
	}
	// Trailing 24 h window anchored at query time, not calendar-aligned.
	recent, err := s.driverRepo.CountCheckedInSince(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("counting recent check-ins: %w", err)
	}

	return &domain.StatsResponse{
		TotalUsers:             totalUsers,
		ActiveReservations:     active,
		CompletedSessions:      completed,
		TotalSensorEvents:      sensorEvents,
		AverageSessionDuration: int(math.Round(avg)),
		RecentCheckIns24h:      recent,
		Timestamp:              time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (s *ReservationService) AdminDrivers(ctx context.Context) ([]domain.AdminDriverView, error) {
	drivers, err := s.driverRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing drivers: %w", err)
	}
	views := make([]domain.AdminDriverView, 0, len(drivers))
	for _, d := range drivers {
		views = append(views, domain.AdminDriverView{
			Driver:               d,
			SessionDurationLabel: d.ShortSessionDuration(),
		})
	}
	return views, nil
}
