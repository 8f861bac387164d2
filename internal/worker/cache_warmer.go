package worker

import (
	"context"
	"time"

	"github.com/Lutefd/currency-dashboard/internal/logger"
	"github.com/Lutefd/currency-dashboard/internal/model"
)

// RatesRefresher is the part of the rates service the warmer drives. Both
// calls bypass the cache read and store fresh non-empty results.
type RatesRefresher interface {
	RefreshLive(ctx context.Context, base string) (*model.LiveResult, error)
	RefreshHistorical(ctx context.Context, base string, days int) (*model.HistoricalResult, error)
}

type CacheWarmer struct {
	refresher      RatesRefresher
	bases          []string
	historicalBase string
	historicalDays int
	interval       time.Duration
	log            *logger.Logger
}

func NewCacheWarmer(refresher RatesRefresher, interval time.Duration, log *logger.Logger) *CacheWarmer {
	return &CacheWarmer{
		refresher:      refresher,
		bases:          model.SupportedCurrencies,
		historicalBase: model.DefaultBase,
		historicalDays: model.DefaultWindowDays,
		interval:       interval,
		log:            log,
	}
}

// Start warms the cache immediately and then on every tick until ctx is done.
func (cw *CacheWarmer) Start(ctx context.Context) {
	cw.warm(ctx)

	ticker := time.NewTicker(cw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cw.log.Info("cache warmer stopped")
			return
		case <-ticker.C:
			cw.warm(ctx)
		}
	}
}

func (cw *CacheWarmer) warm(ctx context.Context) {
	warmed := 0
	for _, base := range cw.bases {
		if ctx.Err() != nil {
			return
		}
		result, err := cw.refresher.RefreshLive(ctx, base)
		if err != nil {
			cw.log.Errorf("failed to warm live rates for %s: %v", base, err)
			continue
		}
		if len(result.Rates) == 0 {
			cw.log.Warnf("no live rates for %s: %v", base, result.Warnings)
			continue
		}
		warmed++
	}
	cw.log.Infof("live rates warmed for %d/%d bases", warmed, len(cw.bases))

	if ctx.Err() != nil {
		return
	}
	historical, err := cw.refresher.RefreshHistorical(ctx, cw.historicalBase, cw.historicalDays)
	switch {
	case err != nil:
		cw.log.Errorf("failed to warm historical rates for %s: %v", cw.historicalBase, err)
	case len(historical.Records) == 0:
		cw.log.Warnf("no historical rates for %s over %d days", cw.historicalBase, cw.historicalDays)
	default:
		cw.log.Infof("historical rates for %s warmed: %d records, %d failed days",
			cw.historicalBase, len(historical.Records), historical.Failed())
	}
}
