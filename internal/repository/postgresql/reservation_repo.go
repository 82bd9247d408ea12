package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/repository"

	"github.com/google/uuid"
)

const reservationColumns = `id, driver_id, slot_id, robot_id, check_in_time, check_out_time,
	duration_minutes, status, created_at, updated_at`

type pgReservationRepository struct {
	db *sql.DB
}

func NewPgReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &pgReservationRepository{db: db}
}

func scanReservation(row interface{ Scan(...any) error }, res *domain.Reservation) error {
	return row.Scan(
		&res.ID, &res.DriverID, &res.SlotID, &res.RobotID,
		&res.CheckInTime, &res.CheckOutTime, &res.DurationMinutes, &res.Status,
		&res.CreatedAt, &res.UpdatedAt,
	)
}

func normalizeReservationTimes(res *domain.Reservation) {
	res.CheckInTime = res.CheckInTime.In(time.UTC)
	if res.CheckOutTime.Valid {
		res.CheckOutTime.Time = res.CheckOutTime.Time.In(time.UTC)
	}
	res.CreatedAt = res.CreatedAt.In(time.UTC)
	res.UpdatedAt = res.UpdatedAt.In(time.UTC)
}

// CheckIn runs the whole check-in write set in one transaction. The partial
// unique indexes on (slot_id)/(robot_id) WHERE status='active' turn the
// read-then-write race between concurrent check-ins into a unique_violation,
// which is mapped back to the matching sentinel error.
func (r *pgReservationRepository) CheckIn(ctx context.Context, name, email string, slotID int, pool []string, checkInTime time.Time) (*repository.CheckInRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.CheckIn (begin): %w", err)
	}
	defer tx.Rollback()

	var slotTaken bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM reservations WHERE slot_id = $1 AND status = $2)`,
		slotID, domain.ReservationActive).Scan(&slotTaken)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.CheckIn (slot check): %w", err)
	}
	if slotTaken {
		return nil, repository.ErrSlotOccupied
	}

	var driverActive bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM drivers WHERE email = $1 AND status = $2)`,
		email, domain.DriverActive).Scan(&driverActive)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.CheckIn (driver check): %w", err)
	}
	if driverActive {
		return nil, repository.ErrDriverAlreadyActive
	}

	robotID, err := firstFreeRobot(ctx, tx, pool)
	if err != nil {
		return nil, err
	}

	// Create-or-reuse the driver row. The WHERE guard refuses to overwrite a
	// row that went active after the check above, so a racing check-in for
	// the same email falls out as sql.ErrNoRows.
	driver := &domain.Driver{}
	upsert := `INSERT INTO drivers (name, email, slot_id, robot_id, status, check_in_time, check_out_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULL, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name, slot_id = EXCLUDED.slot_id, robot_id = EXCLUDED.robot_id,
		    status = EXCLUDED.status, check_in_time = EXCLUDED.check_in_time,
		    check_out_time = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE drivers.status <> $5
		RETURNING ` + driverColumns
	err = scanDriver(tx.QueryRowContext(ctx, upsert,
		name, email, slotID, robotID, domain.DriverActive, checkInTime), driver)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrDriverAlreadyActive
		}
		return nil, fmt.Errorf("ReservationRepository.CheckIn (driver upsert): %w", err)
	}

	res := &domain.Reservation{
		ID:          uuid.New().String(),
		DriverID:    driver.ID,
		SlotID:      slotID,
		RobotID:     robotID,
		CheckInTime: checkInTime,
		Status:      domain.ReservationActive,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO reservations (id, driver_id, slot_id, robot_id, check_in_time, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		 RETURNING created_at, updated_at`,
		res.ID, res.DriverID, res.SlotID, res.RobotID, res.CheckInTime, res.Status,
	).Scan(&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "reservations_active_slot_idx") {
			return nil, repository.ErrSlotOccupied
		}
		if isUniqueViolation(err, "reservations_active_robot_idx") {
			// A concurrent check-in claimed the same robot first. The caller
			// is told to retry later rather than re-running selection here.
			return nil, repository.ErrRobotPoolExhausted
		}
		return nil, fmt.Errorf("ReservationRepository.CheckIn (reservation insert): %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.CheckIn (commit): %w", err)
	}

	normalizeDriverTimes(driver)
	normalizeReservationTimes(res)
	return &repository.CheckInRecord{Driver: driver, Reservation: res}, nil
}

// firstFreeRobot picks the order-first pool id with no active reservation.
// Selection is deterministic, not load-balanced.
func firstFreeRobot(ctx context.Context, tx *sql.Tx, pool []string) (string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT robot_id FROM reservations WHERE status = $1`, domain.ReservationActive)
	if err != nil {
		return "", fmt.Errorf("ReservationRepository.CheckIn (robot scan): %w", err)
	}
	defer rows.Close()

	busy := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("ReservationRepository.CheckIn (robot scan row): %w", err)
		}
		busy[id] = true
	}
	if err = rows.Err(); err != nil {
		return "", fmt.Errorf("ReservationRepository.CheckIn (robot rows error): %w", err)
	}

	for _, id := range pool {
		if !busy[id] {
			return id, nil
		}
	}
	return "", repository.ErrRobotPoolExhausted
}

func (r *pgReservationRepository) CompleteBySlot(ctx context.Context, slotID int, checkOutTime time.Time) (*domain.Reservation, *domain.Driver, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("ReservationRepository.CompleteBySlot (begin): %w", err)
	}
	defer tx.Rollback()

	res := &domain.Reservation{}
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE slot_id = $1 AND status = $2
		ORDER BY check_in_time DESC LIMIT 1
		FOR UPDATE`
	err = scanReservation(tx.QueryRowContext(ctx, query, slotID, domain.ReservationActive), res)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, repository.ErrNoActiveReservation
		}
		return nil, nil, fmt.Errorf("ReservationRepository.CompleteBySlot (find): %w", err)
	}

	if checkOutTime.Before(res.CheckInTime) {
		checkOutTime = res.CheckInTime
	}
	durationMinutes := int64(checkOutTime.Sub(res.CheckInTime).Minutes())

	err = scanReservation(tx.QueryRowContext(ctx,
		`UPDATE reservations
		 SET status = $1, check_out_time = $2, duration_minutes = $3, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $4
		 RETURNING `+reservationColumns,
		domain.ReservationCompleted, checkOutTime, durationMinutes, res.ID), res)
	if err != nil {
		return nil, nil, fmt.Errorf("ReservationRepository.CompleteBySlot (update reservation): %w", err)
	}

	driver := &domain.Driver{}
	err = scanDriver(tx.QueryRowContext(ctx,
		`UPDATE drivers
		 SET status = $1, check_out_time = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $3
		 RETURNING `+driverColumns,
		domain.DriverCompleted, checkOutTime, res.DriverID), driver)
	if err != nil {
		return nil, nil, fmt.Errorf("ReservationRepository.CompleteBySlot (update driver): %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("ReservationRepository.CompleteBySlot (commit): %w", err)
	}

	normalizeReservationTimes(res)
	normalizeDriverTimes(driver)
	return res, driver, nil
}

func (r *pgReservationRepository) FindActiveBySlotID(ctx context.Context, slotID int) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE slot_id = $1 AND status = $2
		ORDER BY check_in_time DESC LIMIT 1`
	err := scanReservation(r.db.QueryRowContext(ctx, query, slotID, domain.ReservationActive), res)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoActiveReservation
		}
		return nil, fmt.Errorf("ReservationRepository.FindActiveBySlotID: %w", err)
	}
	normalizeReservationTimes(res)
	return res, nil
}

func (r *pgReservationRepository) ActiveOccupancy(ctx context.Context) ([]domain.OccupancyDetail, error) {
	query := `SELECT r.slot_id, d.name, d.email, r.robot_id, r.check_in_time
		FROM reservations r
		JOIN drivers d ON d.id = r.driver_id
		WHERE r.status = $1
		ORDER BY r.slot_id`
	rows, err := r.db.QueryContext(ctx, query, domain.ReservationActive)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.ActiveOccupancy: %w", err)
	}
	defer rows.Close()

	var details []domain.OccupancyDetail
	for rows.Next() {
		var d domain.OccupancyDetail
		if err := rows.Scan(&d.SlotID, &d.UserName, &d.UserEmail, &d.RobotID, &d.CheckInTime); err != nil {
			return nil, fmt.Errorf("ReservationRepository.ActiveOccupancy (scanning row): %w", err)
		}
		d.CheckInTime = d.CheckInTime.In(time.UTC)
		details = append(details, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.ActiveOccupancy (rows error): %w", err)
	}
	return details, nil
}

func (r *pgReservationRepository) CountActive(ctx context.Context) (int, error) {
	return r.countByStatus(ctx, domain.ReservationActive)
}

func (r *pgReservationRepository) CountCompleted(ctx context.Context) (int, error) {
	return r.countByStatus(ctx, domain.ReservationCompleted)
}

func (r *pgReservationRepository) countByStatus(ctx context.Context, status domain.ReservationStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ReservationRepository.countByStatus: %w", err)
	}
	return count, nil
}

func (r *pgReservationRepository) AverageCompletedDuration(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT AVG(duration_minutes) FROM reservations
		 WHERE status = $1 AND duration_minutes IS NOT NULL`,
		domain.ReservationCompleted).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("ReservationRepository.AverageCompletedDuration: %w", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}
