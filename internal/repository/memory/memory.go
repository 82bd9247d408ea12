// Package memory holds in-memory repository implementations with the same
// conflict semantics as the PostgreSQL ones. They back the handler and
// service tests and are handy for running the server without a database.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/repository"

	"github.com/google/uuid"
	"gopkg.in/guregu/null.v4"
)

// Store is the shared backing state; the per-collection repositories all
// point at one Store so cross-record invariants hold.
type Store struct {
	mu           sync.Mutex
	drivers      map[string]*domain.Driver // keyed by email
	nextDriverID int
	reservations []*domain.Reservation
	sensorEvents []*domain.SensorEvent
	accounts     map[string]*domain.Account
	nextAcctID   int
}

func NewStore() *Store {
	return &Store{
		drivers:      make(map[string]*domain.Driver),
		nextDriverID: 1,
		accounts:     make(map[string]*domain.Account),
		nextAcctID:   1,
	}
}

func (s *Store) Drivers() repository.DriverRepository           { return &driverRepo{s} }
func (s *Store) Reservations() repository.ReservationRepository { return &reservationRepo{s} }
func (s *Store) SensorEvents() repository.SensorEventRepository { return &sensorEventRepo{s} }
func (s *Store) Accounts() repository.AccountRepository         { return &accountRepo{s} }

type driverRepo struct{ s *Store }

func (r *driverRepo) FindByEmail(_ context.Context, email string) (*domain.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.drivers[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (r *driverRepo) FindAll(_ context.Context) ([]domain.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var drivers []domain.Driver
	for _, d := range r.s.drivers {
		drivers = append(drivers, *d)
	}
	// Newest check-in first.
	for i := 0; i < len(drivers); i++ {
		for j := i + 1; j < len(drivers); j++ {
			if drivers[j].CheckInTime.After(drivers[i].CheckInTime) {
				drivers[i], drivers[j] = drivers[j], drivers[i]
			}
		}
	}
	return drivers, nil
}

func (r *driverRepo) CountAll(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.drivers), nil
}

func (r *driverRepo) CountCheckedInSince(_ context.Context, since time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, d := range r.s.drivers {
		if !d.CheckInTime.Before(since) {
			count++
		}
	}
	return count, nil
}

type reservationRepo struct{ s *Store }

func (r *reservationRepo) CheckIn(_ context.Context, name, email string, slotID int, pool []string, checkInTime time.Time) (*repository.CheckInRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	busy := make(map[string]bool)
	for _, res := range r.s.reservations {
		if res.Status != domain.ReservationActive {
			continue
		}
		if res.SlotID == slotID {
			return nil, repository.ErrSlotOccupied
		}
		busy[res.RobotID] = true
	}
	if d, ok := r.s.drivers[email]; ok && d.Status == domain.DriverActive {
		return nil, repository.ErrDriverAlreadyActive
	}

	robotID := ""
	for _, id := range pool {
		if !busy[id] {
			robotID = id
			break
		}
	}
	if robotID == "" {
		return nil, repository.ErrRobotPoolExhausted
	}

	now := time.Now().UTC()
	driver, ok := r.s.drivers[email]
	if !ok {
		driver = &domain.Driver{ID: r.s.nextDriverID, Email: email, CreatedAt: now}
		r.s.nextDriverID++
		r.s.drivers[email] = driver
	}
	driver.Name = name
	driver.SlotID = null.IntFrom(int64(slotID))
	driver.RobotID = null.StringFrom(robotID)
	driver.Status = domain.DriverActive
	driver.CheckInTime = checkInTime
	driver.CheckOutTime = null.Time{}
	driver.UpdatedAt = now

	res := &domain.Reservation{
		ID:          uuid.New().String(),
		DriverID:    driver.ID,
		SlotID:      slotID,
		RobotID:     robotID,
		CheckInTime: checkInTime,
		Status:      domain.ReservationActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.s.reservations = append(r.s.reservations, res)

	driverCopy := *driver
	resCopy := *res
	return &repository.CheckInRecord{Driver: &driverCopy, Reservation: &resCopy}, nil
}

func (r *reservationRepo) CompleteBySlot(_ context.Context, slotID int, checkOutTime time.Time) (*domain.Reservation, *domain.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var active *domain.Reservation
	for _, res := range r.s.reservations {
		if res.SlotID == slotID && res.Status == domain.ReservationActive {
			active = res
			break
		}
	}
	if active == nil {
		return nil, nil, repository.ErrNoActiveReservation
	}

	if checkOutTime.Before(active.CheckInTime) {
		checkOutTime = active.CheckInTime
	}
	active.Status = domain.ReservationCompleted
	active.CheckOutTime = null.TimeFrom(checkOutTime)
	active.DurationMinutes = null.IntFrom(int64(checkOutTime.Sub(active.CheckInTime).Minutes()))
	active.UpdatedAt = time.Now().UTC()

	var driver *domain.Driver
	for _, d := range r.s.drivers {
		if d.ID == active.DriverID {
			driver = d
			break
		}
	}
	if driver == nil {
		return nil, nil, fmt.Errorf("reservation %s references unknown driver %d", active.ID, active.DriverID)
	}
	driver.Status = domain.DriverCompleted
	driver.CheckOutTime = null.TimeFrom(checkOutTime)
	driver.UpdatedAt = time.Now().UTC()

	resCopy := *active
	driverCopy := *driver
	return &resCopy, &driverCopy, nil
}

func (r *reservationRepo) FindActiveBySlotID(_ context.Context, slotID int) (*domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, res := range r.s.reservations {
		if res.SlotID == slotID && res.Status == domain.ReservationActive {
			copied := *res
			return &copied, nil
		}
	}
	return nil, repository.ErrNoActiveReservation
}

func (r *reservationRepo) ActiveOccupancy(_ context.Context) ([]domain.OccupancyDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	byID := make(map[int]*domain.Driver)
	for _, d := range r.s.drivers {
		byID[d.ID] = d
	}

	var details []domain.OccupancyDetail
	for _, res := range r.s.reservations {
		if res.Status != domain.ReservationActive {
			continue
		}
		d := byID[res.DriverID]
		if d == nil {
			continue
		}
		details = append(details, domain.OccupancyDetail{
			SlotID:      res.SlotID,
			UserName:    d.Name,
			UserEmail:   d.Email,
			RobotID:     res.RobotID,
			CheckInTime: res.CheckInTime,
		})
	}
	return details, nil
}

func (r *reservationRepo) CountActive(_ context.Context) (int, error) {
	return r.countByStatus(domain.ReservationActive), nil
}

func (r *reservationRepo) CountCompleted(_ context.Context) (int, error) {
	return r.countByStatus(domain.ReservationCompleted), nil
}

func (r *reservationRepo) countByStatus(status domain.ReservationStatus) int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, res := range r.s.reservations {
		if res.Status == status {
			count++
		}
	}
	return count
}

func (r *reservationRepo) AverageCompletedDuration(_ context.Context) (float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum, n := 0.0, 0
	for _, res := range r.s.reservations {
		if res.Status == domain.ReservationCompleted && res.DurationMinutes.Valid {
			sum += float64(res.DurationMinutes.Int64)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

type sensorEventRepo struct{ s *Store }

func (r *sensorEventRepo) Create(_ context.Context, event *domain.SensorEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	event.CreatedAt = time.Now().UTC()
	copied := *event
	r.s.sensorEvents = append(r.s.sensorEvents, &copied)
	return nil
}

func (r *sensorEventRepo) CountAll(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.sensorEvents), nil
}

type accountRepo struct{ s *Store }

func (r *accountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accounts[account.Username]; ok {
		return nil, fmt.Errorf("%w: username '%s' taken", repository.ErrDuplicateEntry, account.Username)
	}
	account.ID = r.s.nextAcctID
	r.s.nextAcctID++
	account.CreatedAt = time.Now().UTC()
	account.UpdatedAt = account.CreatedAt
	copied := *account
	r.s.accounts[account.Username] = &copied
	result := *account
	return &result, nil
}

func (r *accountRepo) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *accountRepo) FindByID(_ context.Context, id int) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.ID == id {
			copied := *a
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}
