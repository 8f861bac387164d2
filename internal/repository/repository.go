package repository

import (
	"context"
	"time"

	"github.com/Lutefd/currency-dashboard/internal/model"
)

// LogRepository persists application log entries in a month-partitioned table.
type LogRepository interface {
	EnsureSchema(ctx context.Context) error
	SaveLog(ctx context.Context, log model.Log) error
	CreatePartition(ctx context.Context, month time.Time) error
	DropPartition(ctx context.Context, month time.Time) error
	Close() error
}
