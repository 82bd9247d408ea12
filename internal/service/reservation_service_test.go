package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/repository"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/repository/memory"
)

var (
	testPool = []string{"R1", "R2", "R3", "R4", "R5"}
	testDock = domain.Vec3{X: 0, Y: 0.2, Z: 10}
)

func newTestService(t *testing.T) (*ReservationService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := NewReservationService(store.Drivers(), store.Reservations(), store.SensorEvents(),
		10, testPool, testDock)
	return svc, store
}

func checkInDTO(name, email string, slot int) domain.CheckInDTO {
	return domain.CheckInDTO{UserName: name, UserEmail: email, SlotID: &slot}
}

func TestCheckInAssignsFirstFreeRobot(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CheckIn(ctx, checkInDTO("Alice", "alice@example.com", 0))
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if first.RobotID != "R1" {
		t.Errorf("first robot = %s, want R1", first.RobotID)
	}
	if first.ReservationID == "" {
		t.Error("reservation id not assigned")
	}

	second, err := svc.CheckIn(ctx, checkInDTO("Bob", "bob@example.com", 1))
	if err != nil {
		t.Fatalf("second check-in: %v", err)
	}
	if second.RobotID != "R2" {
		t.Errorf("second robot = %s, want R2", second.RobotID)
	}

	// Complete the first session; the freed robot is reused before R3.
	if _, err := svc.CheckOut(ctx, 0); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	third, err := svc.CheckIn(ctx, checkInDTO("Carol", "carol@example.com", 2))
	if err != nil {
		t.Fatalf("third check-in: %v", err)
	}
	if third.RobotID != "R1" {
		t.Errorf("freed robot not reused first: got %s, want R1", third.RobotID)
	}
}

func TestCheckInSlotConflictLeavesNoRecords(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, checkInDTO("Alice", "alice@example.com", 3)); err != nil {
		t.Fatalf("seed check-in: %v", err)
	}

	_, err := svc.CheckIn(ctx, checkInDTO("Bob", "bob@example.com", 3))
	if !errors.Is(err, repository.ErrSlotOccupied) {
		t.Fatalf("err = %v, want ErrSlotOccupied", err)
	}

	active, _ := store.Reservations().CountActive(ctx)
	if active != 1 {
		t.Errorf("active reservations = %d, want 1", active)
	}
	if _, err := store.Drivers().FindByEmail(ctx, "bob@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("loser of the conflict left a driver record: %v", err)
	}
}

func TestCheckInDriverDoubleBookingRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, checkInDTO("Alice", "alice@example.com", 0)); err != nil {
		t.Fatalf("seed check-in: %v", err)
	}
	_, err := svc.CheckIn(ctx, checkInDTO("Alice", "alice@example.com", 1))
	if !errors.Is(err, repository.ErrDriverAlreadyActive) {
		t.Fatalf("err = %v, want ErrDriverAlreadyActive", err)
	}
}

func TestCheckInRobotPoolExhausted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < len(testPool); i++ {
		email := fmt.Sprintf("driver%d@example.com", i)
		if _, err := svc.CheckIn(ctx, checkInDTO("Driver", email, i)); err != nil {
			t.Fatalf("check-in %d: %v", i, err)
		}
	}

	_, err := svc.CheckIn(ctx, checkInDTO("Late", "late@example.com", 9))
	if !errors.Is(err, repository.ErrRobotPoolExhausted) {
		t.Fatalf("err = %v, want ErrRobotPoolExhausted", err)
	}

	// A checkout frees a robot and the next check-in succeeds again.
	if _, err := svc.CheckOut(ctx, 2); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	result, err := svc.CheckIn(ctx, checkInDTO("Late", "late@example.com", 9))
	if err != nil {
		t.Fatalf("check-in after free: %v", err)
	}
	if result.RobotID != "R3" {
		t.Errorf("robot = %s, want the freed R3", result.RobotID)
	}
}

func TestCheckInSlotOutOfRange(t *testing.T) {
	svc, _ := newTestService(t)
	for _, slot := range []int{-1, 10, 42} {
		_, err := svc.CheckIn(context.Background(), checkInDTO("Alice", "alice@example.com", slot))
		if !errors.Is(err, ErrSlotOutOfRange) {
			t.Errorf("slot %d: err = %v, want ErrSlotOutOfRange", slot, err)
		}
	}
}

func TestCheckOutWithoutReservation(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CheckOut(context.Background(), 4)
	if !errors.Is(err, repository.ErrNoActiveReservation) {
		t.Fatalf("err = %v, want ErrNoActiveReservation", err)
	}
}

func TestCheckOutRoundTrip(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, checkInDTO("Alice", "alice@example.com", 5)); err != nil {
		t.Fatalf("check-in: %v", err)
	}

	result, err := svc.CheckOut(ctx, 5)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if result.UserName != "Alice" {
		t.Errorf("userName = %q, want Alice", result.UserName)
	}
	if result.ReturnDock != testDock {
		t.Errorf("return dock = %+v, want %+v", result.ReturnDock, testDock)
	}
	// Sub-minute session truncates to zero whole minutes.
	if result.SessionDuration != "0 minutes" {
		t.Errorf("duration = %q, want %q", result.SessionDuration, "0 minutes")
	}

	if _, err := store.Reservations().FindActiveBySlotID(ctx, 5); !errors.Is(err, repository.ErrNoActiveReservation) {
		t.Errorf("reservation still active after checkout: %v", err)
	}
	completed, _ := store.Reservations().CountCompleted(ctx)
	if completed != 1 {
		t.Errorf("completed count = %d, want 1", completed)
	}

	// The slot is reusable immediately.
	if _, err := svc.CheckIn(ctx, checkInDTO("Bob", "bob@example.com", 5)); err != nil {
		t.Errorf("slot not reusable after checkout: %v", err)
	}
}

func TestStatusReportsOccupancy(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	empty, err := svc.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if empty.OccupiedSlots != 0 || empty.AvailableSlots != 10 {
		t.Errorf("empty lot: occupied=%d available=%d", empty.OccupiedSlots, empty.AvailableSlots)
	}
	if empty.OccupancyDetails == nil {
		t.Error("occupancyDetails should be an empty slice, not nil")
	}

	svc.CheckIn(ctx, checkInDTO("Alice", "alice@example.com", 2))
	svc.CheckIn(ctx, checkInDTO("Bob", "bob@example.com", 7))

	status, err := svc.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.OccupiedSlots != 2 || status.AvailableSlots != 8 {
		t.Errorf("occupied=%d available=%d, want 2/8", status.OccupiedSlots, status.AvailableSlots)
	}
	found := map[int]string{}
	for _, d := range status.OccupancyDetails {
		found[d.SlotID] = d.UserName
	}
	if found[2] != "Alice" || found[7] != "Bob" {
		t.Errorf("occupancy details wrong: %v", found)
	}
}

func TestStatsCounts(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	svc.CheckIn(ctx, checkInDTO("Alice", "alice@example.com", 0))
	svc.CheckIn(ctx, checkInDTO("Bob", "bob@example.com", 1))
	svc.CheckOut(ctx, 1)

	slot := 0
	occupied := true
	sensorSvc := NewSensorService(store.SensorEvents())
	sensorSvc.Record(ctx, domain.SensorEventDTO{
		Type: "occupancy", Data: domain.SensorReading{SlotID: &slot, Status: &occupied},
	})

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalUsers != 2 {
		t.Errorf("totalUsers = %d, want 2", stats.TotalUsers)
	}
	if stats.ActiveReservations != 1 {
		t.Errorf("activeReservations = %d, want 1", stats.ActiveReservations)
	}
	if stats.CompletedSessions != 1 {
		t.Errorf("completedSessions = %d, want 1", stats.CompletedSessions)
	}
	if stats.TotalSensorEvents != 1 {
		t.Errorf("totalSensorEvents = %d, want 1", stats.TotalSensorEvents)
	}
	if stats.RecentCheckIns24h != 2 {
		t.Errorf("recentCheckIns24h = %d, want 2", stats.RecentCheckIns24h)
	}
	if stats.AverageSessionDuration != 0 {
		t.Errorf("averageSessionDuration = %d, want 0 for a sub-minute session", stats.AverageSessionDuration)
	}
}

func TestAdminDrivers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.CheckIn(ctx, checkInDTO("Alice", "alice@example.com", 0))
	svc.CheckOut(ctx, 0)

	views, err := svc.AdminDrivers(ctx)
	if err != nil {
		t.Fatalf("admin drivers: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("driver count = %d, want 1", len(views))
	}
	if views[0].SessionDurationLabel != "0m" {
		t.Errorf("sessionDuration = %q, want %q", views[0].SessionDurationLabel, "0m")
	}
}
