package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/Lutefd/currency-dashboard/internal/repository"
	"github.com/robfig/cron/v3"
)

const (
	partitionsAhead   = 3
	partitionSchedule = "0 0 1 * *"
)

// PartitionManager keeps the log table partitioned by month: it creates
// partitions ahead of time and drops the ones older than the retention window.
type PartitionManager struct {
	repo      repository.LogRepository
	log       *Logger
	cron      *cron.Cron
	retention int
	now       func() time.Time
}

func NewPartitionManager(repo repository.LogRepository, log *Logger, retentionMonths int) *PartitionManager {
	pm := &PartitionManager{
		repo:      repo,
		log:       log,
		cron:      cron.New(),
		retention: retentionMonths,
		now:       time.Now,
	}

	if _, err := pm.cron.AddFunc(partitionSchedule, pm.rotate); err != nil {
		log.Errorf("failed to add cron job: %v", err)
	}

	return pm
}

func (pm *PartitionManager) Start(ctx context.Context) error {
	if err := pm.repo.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := pm.createInitialPartitions(ctx); err != nil {
		return fmt.Errorf("failed to create initial partitions: %w", err)
	}

	pm.cron.Start()

	go func() {
		<-ctx.Done()
		pm.cron.Stop()
	}()

	return nil
}

func (pm *PartitionManager) currentMonth() time.Time {
	now := pm.now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (pm *PartitionManager) createInitialPartitions(ctx context.Context) error {
	now := pm.currentMonth()
	for i := 0; i < partitionsAhead; i++ {
		if err := pm.repo.CreatePartition(ctx, now.AddDate(0, i, 0)); err != nil {
			return err
		}
	}
	return nil
}

func (pm *PartitionManager) rotateOnce(ctx context.Context) error {
	now := pm.currentMonth()
	if err := pm.repo.CreatePartition(ctx, now.AddDate(0, partitionsAhead, 0)); err != nil {
		return err
	}
	if pm.retention > 0 {
		if err := pm.repo.DropPartition(ctx, now.AddDate(0, -pm.retention, 0)); err != nil {
			return err
		}
	}
	return nil
}

func (pm *PartitionManager) rotate() {
	if err := pm.rotateOnce(context.Background()); err != nil {
		pm.log.Errorf("failed to rotate log partitions: %v", err)
	}
}
