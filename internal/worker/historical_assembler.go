package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/Lutefd/currency-dashboard/internal/commons"
	"github.com/Lutefd/currency-dashboard/internal/logger"
	"github.com/Lutefd/currency-dashboard/internal/model"
)

// HistoricalAssembler builds a trailing time series by querying the
// date-scoped rate endpoint once per day, strictly one request at a time.
type HistoricalAssembler struct {
	fetcher Fetcher
	baseURL string
	apiKey  string
	delay   time.Duration
	log     *logger.Logger
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

type AssemblerOption func(*HistoricalAssembler)

// WithRequestDelay sets the pause inserted after every per-day request.
func WithRequestDelay(delay time.Duration) AssemblerOption {
	return func(a *HistoricalAssembler) {
		a.delay = delay
	}
}

func WithAPIKey(key string) AssemblerOption {
	return func(a *HistoricalAssembler) {
		a.apiKey = key
	}
}

func WithClock(now func() time.Time) AssemblerOption {
	return func(a *HistoricalAssembler) {
		a.now = now
	}
}

func NewHistoricalAssembler(fetcher Fetcher, baseURL string, log *logger.Logger, opts ...AssemblerOption) *HistoricalAssembler {
	a := &HistoricalAssembler{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		delay:   commons.HistoricalRequestDelay,
		log:     log,
		now:     time.Now,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DateWindow returns days calendar dates ending at now (inclusive), oldest
// first.
func DateWindow(now time.Time, days int) []string {
	dates := make([]string, 0, days)
	for i := days - 1; i >= 0; i-- {
		dates = append(dates, now.AddDate(0, 0, -i).Format(model.DateLayout))
	}
	return dates
}

// Assemble queries every day of the window. Failed days contribute no
// records and are recorded in the result's outcomes. If ctx is cancelled
// between days the partial result is returned with the context error.
func (a *HistoricalAssembler) Assemble(ctx context.Context, base string, days int) (*model.HistoricalResult, error) {
	base = strings.ToUpper(base)
	if err := model.ValidateBase(base); err != nil {
		return nil, err
	}
	if err := model.ValidateWindow(days); err != nil {
		return nil, err
	}

	targets := model.TargetCurrencies(base)
	result := &model.HistoricalResult{
		Base:     base,
		Days:     days,
		Records:  []model.HistoricalRate{},
		Outcomes: make([]model.DayOutcome, 0, days),
	}

	for _, date := range DateWindow(a.now(), days) {
		if err := ctx.Err(); err != nil {
			result.FetchedAt = a.now()
			return result, err
		}

		records, err := a.fetchDay(ctx, base, date, targets)
		outcome := model.DayOutcome{Date: date, Records: len(records)}
		switch {
		case err != nil:
			outcome.Status = model.DayStatusFailed
			outcome.Error = err.Error()
			a.log.Warnf("failed to fetch historical data for %s: %v", date, err)
		case len(records) == 0:
			outcome.Status = model.DayStatusEmpty
		default:
			outcome.Status = model.DayStatusOK
			result.Records = append(result.Records, records...)
		}
		result.Outcomes = append(result.Outcomes, outcome)

		if err := a.sleep(ctx, a.delay); err != nil {
			result.FetchedAt = a.now()
			return result, err
		}
	}

	result.FetchedAt = a.now()
	if len(result.Records) == 0 {
		a.log.Warnf("no historical data could be retrieved for %s", base)
	} else {
		a.log.Infof("successfully fetched %d historical records for %s", len(result.Records), base)
	}
	return result, nil
}

func (a *HistoricalAssembler) dayURL(base, date string, targets []string) string {
	u := fmt.Sprintf("%s/%s?base=%s&symbols=%s", a.baseURL, date, base, strings.Join(targets, ","))
	if a.apiKey != "" {
		u += "&access_key=" + url.QueryEscape(a.apiKey)
	}
	return u
}

func (a *HistoricalAssembler) fetchDay(ctx context.Context, base, date string, targets []string) ([]model.HistoricalRate, error) {
	u := a.dayURL(base, date, targets)

	body, err := a.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	var payload model.HistoricalResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &model.DecodeError{URL: u, Err: err}
	}
	if payload.Rates == nil {
		reason := "response has no rates field"
		if len(payload.Error) > 0 {
			reason = fmt.Sprintf("%s: %s", reason, payload.Error)
		}
		return nil, &model.ParseError{Reason: reason}
	}

	return flattenDay(date, base, targets, payload.Rates), nil
}

// flattenDay emits the requested targets in request order, followed by any
// extra codes the upstream returned in lexical order. The base is never
// emitted.
func flattenDay(date, base string, targets []string, rates map[string]float64) []model.HistoricalRate {
	records := make([]model.HistoricalRate, 0, len(rates))
	seen := make(map[string]bool, len(targets))

	for _, code := range targets {
		seen[code] = true
		if rate, ok := rates[code]; ok {
			records = append(records, model.HistoricalRate{Date: date, CurrencyCode: code, Rate: rate})
		}
	}

	var extra []string
	for code := range rates {
		if !seen[code] && code != base {
			extra = append(extra, code)
		}
	}
	sort.Strings(extra)
	for _, code := range extra {
		records = append(records, model.HistoricalRate{Date: date, CurrencyCode: code, Rate: rates[code]})
	}

	return records
}
