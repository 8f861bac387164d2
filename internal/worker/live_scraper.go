package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Lutefd/currency-dashboard/internal/logger"
	"github.com/Lutefd/currency-dashboard/internal/model"
	"github.com/Lutefd/currency-dashboard/internal/parser"
)

// LiveScraper fetches the live rate table for a base currency and parses it.
type LiveScraper struct {
	fetcher Fetcher
	baseURL string
	log     *logger.Logger
	now     func() time.Time
}

func NewLiveScraper(fetcher Fetcher, baseURL string, log *logger.Logger) *LiveScraper {
	return &LiveScraper{
		fetcher: fetcher,
		baseURL: baseURL,
		log:     log,
		now:     time.Now,
	}
}

func (s *LiveScraper) tableURL(base string) string {
	q := url.Values{}
	q.Set("from", base)
	q.Set("amount", "1")
	sep := "?"
	if strings.Contains(s.baseURL, "?") {
		sep = "&"
	}
	return s.baseURL + sep + q.Encode()
}

// FetchLive returns the parsed table. A page without the rate table is
// reported as a *model.ParseError alongside an empty, non-nil result.
func (s *LiveScraper) FetchLive(ctx context.Context, base string) (*model.LiveResult, error) {
	base = strings.ToUpper(base)
	if err := model.ValidateBase(base); err != nil {
		return nil, err
	}

	body, err := s.fetcher.Fetch(ctx, s.tableURL(base))
	if err != nil {
		s.log.Errorf("failed to scrape live rates for %s: %v", base, err)
		return nil, fmt.Errorf("failed to fetch live rates: %w", err)
	}

	rates, warnings, err := parser.ParseLiveTable(bytes.NewReader(body))
	for _, w := range warnings {
		s.log.Warn(w)
	}

	result := &model.LiveResult{
		Base:      base,
		Rates:     rates,
		Warnings:  warnings,
		FetchedAt: s.now(),
	}

	var parseErr *model.ParseError
	if errors.As(err, &parseErr) {
		s.log.Warnf("no live exchange rate data found for %s: %v", base, err)
		result.Warnings = append(result.Warnings, err.Error())
		return result, err
	}

	s.log.Infof("successfully fetched %d live rates for %s", len(rates), base)
	return result, nil
}
