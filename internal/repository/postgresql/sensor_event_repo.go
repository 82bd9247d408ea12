package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/repository"

	"github.com/google/uuid"
)

type pgSensorEventRepository struct {
	db *sql.DB
}

func NewPgSensorEventRepository(db *sql.DB) repository.SensorEventRepository {
	return &pgSensorEventRepository{db: db}
}

func (r *pgSensorEventRepository) Create(ctx context.Context, event *domain.SensorEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	var metadata []byte
	if event.Metadata != nil {
		metadata = event.Metadata
	} else {
		metadata = []byte("{}")
	}

	query := `INSERT INTO sensor_events (id, slot_id, status, confidence, event_type, robot_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query,
		event.ID, event.SlotID, event.Status, event.Confidence, event.EventType,
		event.RobotID, metadata,
	).Scan(&event.CreatedAt)
	if err != nil {
		return fmt.Errorf("SensorEventRepository.Create: %w", err)
	}
	event.CreatedAt = event.CreatedAt.In(time.UTC)
	return nil
}

func (r *pgSensorEventRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sensor_events`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("SensorEventRepository.CountAll: %w", err)
	}
	return count, nil
}
