package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Lutefd/currency-dashboard/internal/commons"
	"github.com/Lutefd/currency-dashboard/internal/export"
	"github.com/Lutefd/currency-dashboard/internal/logger"
	"github.com/Lutefd/currency-dashboard/internal/model"
	"github.com/Lutefd/currency-dashboard/internal/service"
)

const (
	noLiveDataWarning       = "No live exchange rate data found."
	noHistoricalDataWarning = "No historical data could be retrieved."
)

type RatesHandler struct {
	ratesService service.RatesServiceInterface
	log          *logger.Logger
	now          func() time.Time
}

func NewRatesHandler(ratesService service.RatesServiceInterface, log *logger.Logger) *RatesHandler {
	return &RatesHandler{
		ratesService: ratesService,
		log:          log,
		now:          time.Now,
	}
}

type liveRateResponse struct {
	Currency    string  `json:"currency"`
	Code        string  `json:"code,omitempty"`
	Rate        float64 `json:"rate"`
	RateDisplay float64 `json:"rate_display"`
}

type liveResponse struct {
	Base      string             `json:"base"`
	FetchedAt time.Time          `json:"fetched_at"`
	Rates     []liveRateResponse `json:"rates"`
	Warnings  []string           `json:"warnings,omitempty"`
	Warning   string             `json:"warning,omitempty"`
}

type historicalRateResponse struct {
	Date        string  `json:"date"`
	Currency    string  `json:"currency"`
	Rate        float64 `json:"rate"`
	RateDisplay float64 `json:"rate_display"`
}

type historicalResponse struct {
	Base       string                   `json:"base"`
	Days       int                      `json:"days"`
	FetchedAt  time.Time                `json:"fetched_at"`
	Records    []historicalRateResponse `json:"records"`
	Outcomes   []model.DayOutcome       `json:"outcomes"`
	FailedDays int                      `json:"failed_days"`
	Warning    string                   `json:"warning,omitempty"`
}

type seriesResponse struct {
	Base    string             `json:"base"`
	Days    int                `json:"days"`
	Series  []model.RateSeries `json:"series"`
	Warning string             `json:"warning,omitempty"`
}

func toLiveRates(rates []model.LiveRate) []liveRateResponse {
	out := make([]liveRateResponse, 0, len(rates))
	for _, r := range rates {
		out = append(out, liveRateResponse{
			Currency:    r.CurrencyCode,
			Code:        r.Code,
			Rate:        r.Rate,
			RateDisplay: commons.RoundForDisplay(r.Rate),
		})
	}
	return out
}

func baseParam(r *http.Request) string {
	base := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("base")))
	if base == "" {
		return model.DefaultBase
	}
	return base
}

func daysParam(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("days"))
	if raw == "" {
		return model.DefaultWindowDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.ErrInvalidWindow
	}
	return days, nil
}

func (h *RatesHandler) respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidBase):
		commons.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("%s, must be one of %s", err, strings.Join(model.SupportedCurrencies, ", ")), nil)
	case errors.Is(err, model.ErrInvalidWindow):
		commons.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid days: %s", err), nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		commons.RespondWithError(w, http.StatusServiceUnavailable, "request cancelled before rates were gathered", h.log.Errorf)
	default:
		h.log.Errorf("rates request failed: %v", err)
		commons.RespondWithError(w, http.StatusInternalServerError, "failed to load rates", h.log.Errorf)
	}
}

func (h *RatesHandler) Currencies(w http.ResponseWriter, r *http.Request) {
	commons.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"currencies":   model.SupportedCurrencies,
		"default_base": model.DefaultBase,
		"default_days": model.DefaultWindowDays,
		"min_days":     model.MinWindowDays,
		"max_days":     model.MaxWindowDays,
	})
}

func (h *RatesHandler) Live(w http.ResponseWriter, r *http.Request) {
	result, err := h.ratesService.Live(r.Context(), baseParam(r))
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	resp := liveResponse{
		Base:      result.Base,
		FetchedAt: result.FetchedAt,
		Rates:     toLiveRates(result.Rates),
		Warnings:  result.Warnings,
	}
	if len(resp.Rates) == 0 {
		resp.Warning = noLiveDataWarning
	}
	commons.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *RatesHandler) TopRates(w http.ResponseWriter, r *http.Request) {
	n := commons.DefaultTopRates
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			commons.RespondWithError(w, http.StatusBadRequest, "invalid n, must be a positive integer", nil)
			return
		}
		n = parsed
	}

	base := baseParam(r)
	rates, err := h.ratesService.TopRates(r.Context(), base, n)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	resp := liveResponse{Base: base, Rates: toLiveRates(rates)}
	if len(rates) == 0 {
		resp.Warning = noLiveDataWarning
	}
	commons.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *RatesHandler) LiveCSV(w http.ResponseWriter, r *http.Request) {
	result, err := h.ratesService.Live(r.Context(), baseParam(r))
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}
	if len(result.Rates) == 0 {
		commons.RespondWithError(w, http.StatusNotFound, model.ErrNoData.Error(), nil)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteLive(&buf, result.Rates); err != nil {
		commons.RespondWithError(w, http.StatusInternalServerError, "failed to export live rates", h.log.Errorf)
		return
	}
	h.respondWithCSV(w, export.LiveFilename(result.Base, h.now()), buf.Bytes())
}

func (h *RatesHandler) Historical(w http.ResponseWriter, r *http.Request) {
	days, err := daysParam(r)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	result, err := h.ratesService.Historical(r.Context(), baseParam(r), days)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	records := make([]historicalRateResponse, 0, len(result.Records))
	for _, rec := range result.Records {
		records = append(records, historicalRateResponse{
			Date:        rec.Date,
			Currency:    rec.CurrencyCode,
			Rate:        rec.Rate,
			RateDisplay: commons.RoundForDisplay(rec.Rate),
		})
	}

	resp := historicalResponse{
		Base:       result.Base,
		Days:       result.Days,
		FetchedAt:  result.FetchedAt,
		Records:    records,
		Outcomes:   result.Outcomes,
		FailedDays: result.Failed(),
	}
	if len(records) == 0 {
		resp.Warning = noHistoricalDataWarning
	}
	commons.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *RatesHandler) Series(w http.ResponseWriter, r *http.Request) {
	days, err := daysParam(r)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	var currencies []string
	if raw := r.URL.Query().Get("currencies"); raw != "" {
		currencies = strings.Split(raw, ",")
	}

	base := baseParam(r)
	series, err := h.ratesService.Series(r.Context(), base, days, currencies)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	resp := seriesResponse{Base: base, Days: days, Series: series}
	if len(series) == 0 {
		resp.Warning = noHistoricalDataWarning
	}
	commons.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *RatesHandler) HistoricalCSV(w http.ResponseWriter, r *http.Request) {
	days, err := daysParam(r)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	result, err := h.ratesService.Historical(r.Context(), baseParam(r), days)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}
	if len(result.Records) == 0 {
		commons.RespondWithError(w, http.StatusNotFound, model.ErrNoData.Error(), nil)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteHistorical(&buf, result.Records); err != nil {
		commons.RespondWithError(w, http.StatusInternalServerError, "failed to export historical rates", h.log.Errorf)
		return
	}
	h.respondWithCSV(w, export.HistoricalFilename(result.Base, h.now()), buf.Bytes())
}

func (h *RatesHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.ratesService.Refresh(r.Context()); err != nil {
		commons.RespondWithError(w, http.StatusInternalServerError, "failed to refresh rates", h.log.Errorf)
		return
	}
	commons.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "cached rates cleared"})
}

func (h *RatesHandler) respondWithCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
