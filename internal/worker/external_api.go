package worker

import (
	"context"

	"github.com/Lutefd/currency-dashboard/internal/model"
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type LiveRateSource interface {
	FetchLive(ctx context.Context, base string) (*model.LiveResult, error)
}

type HistoricalRateSource interface {
	Assemble(ctx context.Context, base string, days int) (*model.HistoricalResult, error)
}
