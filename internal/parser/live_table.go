// Package parser turns the rendered live-rate HTML table into records.
package parser

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/Lutefd/currency-dashboard/internal/model"
	"github.com/PuerkitoBio/goquery"
)

// RatesTableSelector matches the table rendered by the live rate source.
const RatesTableSelector = "table.tablesorter.ratesTable"

// ParseLiveTable reads doc and returns one LiveRate per well-formed row, in
// document order. Rows whose rate cannot be parsed are skipped and reported
// in warnings. A missing table yields an empty slice and a *model.ParseError.
func ParseLiveTable(doc io.Reader) ([]model.LiveRate, []string, error) {
	document, err := goquery.NewDocumentFromReader(doc)
	if err != nil {
		return []model.LiveRate{}, nil, &model.ParseError{Reason: fmt.Sprintf("invalid document: %v", err)}
	}
	return ParseLiveDocument(document)
}

func ParseLiveDocument(document *goquery.Document) ([]model.LiveRate, []string, error) {
	table := document.Find(RatesTableSelector).First()
	if table.Length() == 0 {
		return []model.LiveRate{}, nil, &model.ParseError{Reason: "exchange rate table not found"}
	}

	rates := []model.LiveRate{}
	var warnings []string

	rows := table.Find("tr")
	if rows.Length() < 2 {
		return rates, nil, nil
	}

	rows.Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		currency := strings.TrimSpace(cells.Eq(0).Text())
		rateCell := cells.Eq(1)
		raw := strings.ReplaceAll(strings.TrimSpace(rateCell.Text()), ",", "")

		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not parse rate for %s: %v", currency, err))
			return
		}

		rates = append(rates, model.LiveRate{
			CurrencyCode: currency,
			Code:         codeFromLink(rateCell),
			Rate:         rate,
		})
	})

	return rates, warnings, nil
}

// codeFromLink pulls the target ISO code out of the rate cell's link, which
// has the form .../graph/?from=USD&to=EUR.
func codeFromLink(cell *goquery.Selection) string {
	href, ok := cell.Find("a").First().Attr("href")
	if !ok {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	code := strings.ToUpper(u.Query().Get("to"))
	if len(code) != 3 {
		return ""
	}
	return code
}
