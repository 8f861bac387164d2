package model

import (
	"encoding/json"
	"time"
)

const DateLayout = "2006-01-02"

type LiveRate struct {
	CurrencyCode string  `json:"currency"`
	Code         string  `json:"code,omitempty"`
	Rate         float64 `json:"rate"`
}

type HistoricalRate struct {
	Date         string  `json:"date"`
	CurrencyCode string  `json:"currency"`
	Rate         float64 `json:"rate"`
}

type LiveResult struct {
	Base      string     `json:"base"`
	Rates     []LiveRate `json:"rates"`
	Warnings  []string   `json:"warnings,omitempty"`
	FetchedAt time.Time  `json:"fetched_at"`
}

type DayStatus string

const (
	DayStatusOK     DayStatus = "ok"
	DayStatusEmpty  DayStatus = "empty"
	DayStatusFailed DayStatus = "failed"
)

// DayOutcome records what happened to a single per-day request of a
// historical window.
type DayOutcome struct {
	Date    string    `json:"date"`
	Status  DayStatus `json:"status"`
	Records int       `json:"records"`
	Error   string    `json:"error,omitempty"`
}

type HistoricalResult struct {
	Base      string           `json:"base"`
	Days      int              `json:"days"`
	Records   []HistoricalRate `json:"records"`
	Outcomes  []DayOutcome     `json:"outcomes"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// Failed counts the days whose request did not produce a usable payload.
func (r HistoricalResult) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == DayStatusFailed {
			n++
		}
	}
	return n
}

// HistoricalResponse is the payload shape of the date-scoped rate endpoint.
type HistoricalResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
	Error json.RawMessage    `json:"error,omitempty"`
}

type SeriesPoint struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`
}

// RateSeries is one currency's trend across a historical window.
type RateSeries struct {
	Currency string        `json:"currency"`
	Points   []SeriesPoint `json:"points"`
}
