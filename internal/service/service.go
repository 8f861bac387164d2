package service

import (
	"context"

	"github.com/Lutefd/currency-dashboard/internal/model"
)

type RatesServiceInterface interface {
	Live(ctx context.Context, base string) (*model.LiveResult, error)
	TopRates(ctx context.Context, base string, n int) ([]model.LiveRate, error)
	Historical(ctx context.Context, base string, days int) (*model.HistoricalResult, error)
	Series(ctx context.Context, base string, days int, currencies []string) ([]model.RateSeries, error)
	Refresh(ctx context.Context) error
}
