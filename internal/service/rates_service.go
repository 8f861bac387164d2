package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Lutefd/currency-dashboard/internal/cache"
	"github.com/Lutefd/currency-dashboard/internal/commons"
	"github.com/Lutefd/currency-dashboard/internal/logger"
	"github.com/Lutefd/currency-dashboard/internal/model"
	"github.com/Lutefd/currency-dashboard/internal/worker"
)

const CachePrefix = "rates:"

func LiveKey(base string) string {
	return CachePrefix + "live:" + base
}

func HistoricalKey(base string, days int) string {
	return fmt.Sprintf("%shistorical:%s:%d", CachePrefix, base, days)
}

type RatesService struct {
	live          worker.LiveRateSource
	historical    worker.HistoricalRateSource
	cache         cache.Cache
	log           *logger.Logger
	liveTTL       time.Duration
	historicalTTL time.Duration
}

func NewRatesService(live worker.LiveRateSource, historical worker.HistoricalRateSource, c cache.Cache, log *logger.Logger, liveTTL, historicalTTL time.Duration) *RatesService {
	return &RatesService{
		live:          live,
		historical:    historical,
		cache:         c,
		log:           log,
		liveTTL:       liveTTL,
		historicalTTL: historicalTTL,
	}
}

func normalizeBase(base string) (string, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		base = model.DefaultBase
	}
	return base, model.ValidateBase(base)
}

// Live serves the live table from cache, scraping it on a miss. Upstream
// failures yield an empty result carrying a warning rather than an error.
func (s *RatesService) Live(ctx context.Context, base string) (*model.LiveResult, error) {
	base, err := normalizeBase(base)
	if err != nil {
		return nil, err
	}

	cached, err := cache.GetJSON[model.LiveResult](ctx, s.cache, LiveKey(base))
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warnf("live cache read failed for %s: %v", base, err)
	}

	return s.RefreshLive(ctx, base)
}

// RefreshLive scrapes unconditionally and stores non-empty results.
func (s *RatesService) RefreshLive(ctx context.Context, base string) (*model.LiveResult, error) {
	base, err := normalizeBase(base)
	if err != nil {
		return nil, err
	}

	result, err := s.live.FetchLive(ctx, base)
	if err != nil {
		var parseErr *model.ParseError
		if !errors.As(err, &parseErr) || result == nil {
			result = &model.LiveResult{
				Base:      base,
				Rates:     []model.LiveRate{},
				Warnings:  []string{err.Error()},
				FetchedAt: time.Now(),
			}
		}
	}

	if len(result.Rates) > 0 {
		if err := cache.SetJSON(ctx, s.cache, LiveKey(base), result, s.liveTTL); err != nil {
			s.log.Warnf("failed to cache live rates for %s: %v", base, err)
		}
	}
	return result, nil
}

// TopRates returns the n highest live rates, highest first.
func (s *RatesService) TopRates(ctx context.Context, base string, n int) ([]model.LiveRate, error) {
	if n <= 0 {
		n = commons.DefaultTopRates
	}
	live, err := s.Live(ctx, base)
	if err != nil {
		return nil, err
	}

	sorted := make([]model.LiveRate, len(live.Rates))
	copy(sorted, live.Rates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rate > sorted[j].Rate
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted, nil
}

func (s *RatesService) Historical(ctx context.Context, base string, days int) (*model.HistoricalResult, error) {
	base, err := normalizeBase(base)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateWindow(days); err != nil {
		return nil, err
	}

	cached, err := cache.GetJSON[model.HistoricalResult](ctx, s.cache, HistoricalKey(base, days))
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warnf("historical cache read failed for %s/%d: %v", base, days, err)
	}

	return s.RefreshHistorical(ctx, base, days)
}

// RefreshHistorical assembles the window unconditionally and stores results
// that have at least one record.
func (s *RatesService) RefreshHistorical(ctx context.Context, base string, days int) (*model.HistoricalResult, error) {
	base, err := normalizeBase(base)
	if err != nil {
		return nil, err
	}

	result, err := s.historical.Assemble(ctx, base, days)
	if err != nil {
		return result, err
	}

	if len(result.Records) > 0 {
		if err := cache.SetJSON(ctx, s.cache, HistoricalKey(base, days), result, s.historicalTTL); err != nil {
			s.log.Warnf("failed to cache historical rates for %s/%d: %v", base, days, err)
		}
	}
	return result, nil
}

// Series groups the historical records per currency, in date order. With no
// explicit selection the first commons.DefaultSeriesSize codes (sorted) are
// used.
func (s *RatesService) Series(ctx context.Context, base string, days int, currencies []string) ([]model.RateSeries, error) {
	result, err := s.Historical(ctx, base, days)
	if err != nil {
		return nil, err
	}

	byCurrency := make(map[string][]model.SeriesPoint)
	for _, r := range result.Records {
		byCurrency[r.CurrencyCode] = append(byCurrency[r.CurrencyCode], model.SeriesPoint{Date: r.Date, Rate: r.Rate})
	}

	selected := normalizeCodes(currencies)
	if len(selected) == 0 {
		for code := range byCurrency {
			selected = append(selected, code)
		}
		sort.Strings(selected)
		if len(selected) > commons.DefaultSeriesSize {
			selected = selected[:commons.DefaultSeriesSize]
		}
	}

	series := make([]model.RateSeries, 0, len(selected))
	for _, code := range selected {
		points, ok := byCurrency[code]
		if !ok {
			continue
		}
		sort.SliceStable(points, func(i, j int) bool { return points[i].Date < points[j].Date })
		series = append(series, model.RateSeries{Currency: code, Points: points})
	}
	return series, nil
}

func normalizeCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func (s *RatesService) Refresh(ctx context.Context) error {
	if err := s.cache.Flush(ctx, CachePrefix); err != nil {
		return fmt.Errorf("failed to clear cached rates: %w", err)
	}
	s.log.Info("cached rates cleared")
	return nil
}
