package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/repository"
)

const driverColumns = `id, name, email, slot_id, robot_id, status, check_in_time, check_out_time,
	license_plate, vehicle_make, vehicle_model, vehicle_color, created_at, updated_at`

type pgDriverRepository struct {
	db *sql.DB
}

func NewPgDriverRepository(db *sql.DB) repository.DriverRepository {
	return &pgDriverRepository{db: db}
}

func scanDriver(row interface{ Scan(...any) error }, d *domain.Driver) error {
	return row.Scan(
		&d.ID, &d.Name, &d.Email, &d.SlotID, &d.RobotID, &d.Status,
		&d.CheckInTime, &d.CheckOutTime,
		&d.LicensePlate, &d.VehicleMake, &d.VehicleModel, &d.VehicleColor,
		&d.CreatedAt, &d.UpdatedAt,
	)
}

func normalizeDriverTimes(d *domain.Driver) {
	d.CheckInTime = d.CheckInTime.In(time.UTC)
	if d.CheckOutTime.Valid {
		d.CheckOutTime.Time = d.CheckOutTime.Time.In(time.UTC)
	}
	d.CreatedAt = d.CreatedAt.In(time.UTC)
	d.UpdatedAt = d.UpdatedAt.In(time.UTC)
}

func (r *pgDriverRepository) FindByEmail(ctx context.Context, email string) (*domain.Driver, error) {
	driver := &domain.Driver{}
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE email = $1`
	err := scanDriver(r.db.QueryRowContext(ctx, query, email), driver)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("DriverRepository.FindByEmail: %w", err)
	}
	normalizeDriverTimes(driver)
	return driver, nil
}

func (r *pgDriverRepository) FindAll(ctx context.Context) ([]domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers ORDER BY check_in_time DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("DriverRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var drivers []domain.Driver
	for rows.Next() {
		var d domain.Driver
		if err := scanDriver(rows, &d); err != nil {
			return nil, fmt.Errorf("DriverRepository.FindAll (scanning row): %w", err)
		}
		normalizeDriverTimes(&d)
		drivers = append(drivers, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("DriverRepository.FindAll (rows error): %w", err)
	}
	return drivers, nil
}

func (r *pgDriverRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drivers`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("DriverRepository.CountAll: %w", err)
	}
	return count, nil
}

func (r *pgDriverRepository) CountCheckedInSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM drivers WHERE check_in_time >= $1`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("DriverRepository.CountCheckedInSince: %w", err)
	}
	return count, nil
}
