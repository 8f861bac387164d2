package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Lutefd/currency-dashboard/internal/model"
	_ "github.com/lib/pq"
)

type PostgresLogRepository struct {
	db *sql.DB
}

// NewPostgresLogRepository opens connURL unless db is provided.
func NewPostgresLogRepository(connURL string, db *sql.DB) (*PostgresLogRepository, error) {
	if db == nil {
		var err error
		db, err = sql.Open("postgres", connURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresLogRepository{db: db}, nil
}

// EnsureSchema creates the partitioned parent table if it is missing.
func (r *PostgresLogRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS dashboard_logs (
			id UUID NOT NULL,
			level VARCHAR(10) NOT NULL,
			message TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			source VARCHAR(50) NOT NULL,
			PRIMARY KEY (id, timestamp)
		) PARTITION BY RANGE (timestamp)
	`)
	if err != nil {
		return fmt.Errorf("failed to create log table: %w", err)
	}
	return nil
}

func (r *PostgresLogRepository) SaveLog(ctx context.Context, log model.Log) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dashboard_logs (id, level, message, timestamp, source)
		VALUES ($1, $2, $3, $4, $5)
	`, log.ID, log.Level, log.Message, log.Timestamp, log.Source)
	if err != nil {
		return fmt.Errorf("failed to save log: %w", err)
	}
	return nil
}

func partitionName(month time.Time) string {
	return fmt.Sprintf("dashboard_logs_y%04dm%02d", month.Year(), month.Month())
}

func (r *PostgresLogRepository) CreatePartition(ctx context.Context, month time.Time) error {
	name := partitionName(month)
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s PARTITION OF dashboard_logs
		FOR VALUES FROM ('%s') TO ('%s')
	`, name, start.Format(model.DateLayout), end.Format(model.DateLayout))

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create partition %s: %w", name, err)
	}
	return nil
}

func (r *PostgresLogRepository) DropPartition(ctx context.Context, month time.Time) error {
	name := partitionName(month)
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, name)); err != nil {
		return fmt.Errorf("failed to drop partition %s: %w", name, err)
	}
	return nil
}

func (r *PostgresLogRepository) Close() error {
	return r.db.Close()
}
