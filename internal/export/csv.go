// Package export writes and reads the CSV download formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Lutefd/currency-dashboard/internal/model"
)

var (
	HistoricalHeader = []string{"Date", "Currency", "Rate"}
	LiveHeader       = []string{"Currency", "Rate"}
)

// FormatRate renders the shortest representation that parses back to the
// same float64.
func FormatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

func HistoricalFilename(base string, at time.Time) string {
	return fmt.Sprintf("%s_historical_rates_%s.csv", strings.ToUpper(base), at.Format("20060102"))
}

func LiveFilename(base string, at time.Time) string {
	return fmt.Sprintf("%s_live_rates_%s.csv", strings.ToUpper(base), at.Format("20060102"))
}

func WriteHistorical(w io.Writer, records []model.HistoricalRate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(HistoricalHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write([]string{r.Date, r.CurrencyCode, FormatRate(r.Rate)}); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteLive(w io.Writer, records []model.LiveRate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(LiveHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write([]string{r.CurrencyCode, FormatRate(r.Rate)}); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// columnIndex maps each wanted header to its position in the file's header
// row, so columns may appear in any order.
func columnIndex(header, want []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, w := range want {
		if _, ok := idx[w]; !ok {
			return nil, &model.ParseError{Reason: fmt.Sprintf("missing column %q", w)}
		}
	}
	return idx, nil
}

func readAll(r io.Reader, want []string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, &model.ParseError{Reason: err.Error()}
	}
	if len(rows) == 0 {
		return nil, nil, &model.ParseError{Reason: "empty file"}
	}
	idx, err := columnIndex(rows[0], want)
	if err != nil {
		return nil, nil, err
	}
	return rows[1:], idx, nil
}

func ReadHistorical(r io.Reader) ([]model.HistoricalRate, error) {
	rows, idx, err := readAll(r, HistoricalHeader)
	if err != nil {
		return nil, err
	}

	records := make([]model.HistoricalRate, 0, len(rows))
	for i, row := range rows {
		rate, err := strconv.ParseFloat(row[idx["Rate"]], 64)
		if err != nil {
			return nil, &model.ParseError{Reason: fmt.Sprintf("line %d: %v", i+2, err)}
		}
		records = append(records, model.HistoricalRate{
			Date:         row[idx["Date"]],
			CurrencyCode: row[idx["Currency"]],
			Rate:         rate,
		})
	}
	return records, nil
}

func ReadLive(r io.Reader) ([]model.LiveRate, error) {
	rows, idx, err := readAll(r, LiveHeader)
	if err != nil {
		return nil, err
	}

	records := make([]model.LiveRate, 0, len(rows))
	for i, row := range rows {
		rate, err := strconv.ParseFloat(row[idx["Rate"]], 64)
		if err != nil {
			return nil, &model.ParseError{Reason: fmt.Sprintf("line %d: %v", i+2, err)}
		}
		records = append(records, model.LiveRate{
			CurrencyCode: row[idx["Currency"]],
			Rate:         rate,
		})
	}
	return records, nil
}
