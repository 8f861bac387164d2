package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Lutefd/currency-dashboard/internal/logger"
	"github.com/Lutefd/currency-dashboard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) != nil {
		return args.Get(0).([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func testClock() time.Time {
	return time.Date(2024, time.March, 10, 15, 4, 5, 0, time.UTC)
}

func newTestAssembler(fetcher Fetcher) (*HistoricalAssembler, *[]time.Duration) {
	var slept []time.Duration
	a := NewHistoricalAssembler(fetcher, "https://rates.test/", logger.Nop(), WithClock(testClock))
	a.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return a, &slept
}

func dayURL(date string) string {
	return "https://rates.test/" + date + "?base=USD&symbols=EUR,JPY,GBP,TRY,CAD,INR,CNY"
}

func TestDateWindow(t *testing.T) {
	assert.Equal(t, []string{"2024-03-08", "2024-03-09", "2024-03-10"}, DateWindow(testClock(), 3))
	assert.Equal(t, []string{"2024-03-10"}, DateWindow(testClock(), 1))
	assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01"}, DateWindow(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), 3))
	assert.Len(t, DateWindow(testClock(), 30), 30)
}

func TestHistoricalAssembler_Assemble_Scenario(t *testing.T) {
	fetcher := new(MockFetcher)
	a, slept := newTestAssembler(fetcher)

	fetcher.On("Fetch", mock.Anything, dayURL("2024-03-08")).Return([]byte(`{"rates":{"EUR":0.9}}`), nil).Once()
	fetcher.On("Fetch", mock.Anything, dayURL("2024-03-09")).Return([]byte(`{"rates":{"EUR":0.91}}`), nil).Once()
	fetcher.On("Fetch", mock.Anything, dayURL("2024-03-10")).Return(nil, &model.NetworkError{URL: dayURL("2024-03-10"), LastStatus: 503, Attempts: 4}).Once()

	result, err := a.Assemble(context.Background(), "USD", 3)
	require.NoError(t, err)

	assert.Equal(t, []model.HistoricalRate{
		{Date: "2024-03-08", CurrencyCode: "EUR", Rate: 0.9},
		{Date: "2024-03-09", CurrencyCode: "EUR", Rate: 0.91},
	}, result.Records)

	require.Len(t, result.Outcomes, 3)
	assert.Equal(t, model.DayStatusOK, result.Outcomes[0].Status)
	assert.Equal(t, model.DayStatusOK, result.Outcomes[1].Status)
	assert.Equal(t, model.DayStatusFailed, result.Outcomes[2].Status)
	assert.Contains(t, result.Outcomes[2].Error, "status 503")
	assert.Equal(t, 1, result.Failed())

	assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond, 100 * time.Millisecond}, *slept)
	fetcher.AssertExpectations(t)
}

func TestHistoricalAssembler_Assemble_DayFailures(t *testing.T) {
	fetcher := new(MockFetcher)
	a, _ := newTestAssembler(fetcher)

	fetcher.On("Fetch", mock.Anything, dayURL("2024-03-06")).Return([]byte(`not json`), nil).Once()
	fetcher.On("Fetch", mock.Anything, dayURL("2024-03-07")).Return([]byte(`{"success":false,"error":{"code":101}}`), nil).Once()
	fetcher.On("Fetch", mock.Anything, dayURL("2024-03-08")).Return([]byte(`{"rates":{}}`), nil).Once()
	fetcher.On("Fetch", mock.Anything, dayURL("2024-03-09")).Return([]byte(`{"rates":{"GBP":0.78,"EUR":0.92,"JPY":148.1}}`), nil).Once()
	fetcher.On("Fetch", mock.Anything, dayURL("2024-03-10")).Return([]byte(`{"rates":null}`), nil).Once()

	result, err := a.Assemble(context.Background(), "USD", 5)
	require.NoError(t, err)

	assert.Equal(t, []model.HistoricalRate{
		{Date: "2024-03-09", CurrencyCode: "EUR", Rate: 0.92},
		{Date: "2024-03-09", CurrencyCode: "JPY", Rate: 148.1},
		{Date: "2024-03-09", CurrencyCode: "GBP", Rate: 0.78},
	}, result.Records)

	statuses := make([]model.DayStatus, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		statuses = append(statuses, o.Status)
	}
	assert.Equal(t, []model.DayStatus{
		model.DayStatusFailed,
		model.DayStatusFailed,
		model.DayStatusEmpty,
		model.DayStatusOK,
		model.DayStatusFailed,
	}, statuses)
	assert.Contains(t, result.Outcomes[0].Error, "failed to decode")
	assert.Contains(t, result.Outcomes[1].Error, "no rates field")
	assert.Contains(t, result.Outcomes[1].Error, "101")
}

func TestHistoricalAssembler_Assemble_LengthMatchesSuccessfulDays(t *testing.T) {
	fetcher := new(MockFetcher)
	a, _ := newTestAssembler(fetcher)

	payloads := map[string]string{
		"2024-03-04": `{"rates":{"EUR":0.9,"GBP":0.8}}`,
		"2024-03-05": `{"rates":{"EUR":0.9,"GBP":0.8,"JPY":150,"CAD":1.35}}`,
		"2024-03-07": `{"rates":{"INR":83.1}}`,
		"2024-03-09": `{"rates":{"EUR":0.9,"GBP":0.8,"JPY":150,"CAD":1.35,"TRY":31.9,"INR":83,"CNY":7.2}}`,
	}
	expected := 0
	for _, date := range DateWindow(testClock(), 7) {
		if body, ok := payloads[date]; ok {
			fetcher.On("Fetch", mock.Anything, dayURL(date)).Return([]byte(body), nil).Once()
			expected += strings.Count(body, ":") - 1
			continue
		}
		fetcher.On("Fetch", mock.Anything, dayURL(date)).Return(nil, errors.New("boom")).Once()
	}

	result, err := a.Assemble(context.Background(), "USD", 7)
	require.NoError(t, err)
	assert.Len(t, result.Records, expected)
	assert.Equal(t, 3, result.Failed())
}

func TestHistoricalAssembler_Assemble_NeverIncludesBase(t *testing.T) {
	for _, base := range model.SupportedCurrencies {
		t.Run(base, func(t *testing.T) {
			fetcher := new(MockFetcher)
			a, _ := newTestAssembler(fetcher)

			var urls []string
			fetcher.On("Fetch", mock.Anything, mock.AnythingOfType("string")).
				Run(func(args mock.Arguments) { urls = append(urls, args.String(1)) }).
				Return([]byte(fmt.Sprintf(`{"base":%q,"rates":{%q:1,"EUR":0.9,"USD":1.1,"CHF":0.88}}`, base, base)), nil)

			result, err := a.Assemble(context.Background(), strings.ToLower(base), 2)
			require.NoError(t, err)

			for _, r := range result.Records {
				assert.NotEqual(t, base, r.CurrencyCode)
			}
			for _, u := range urls {
				assert.Contains(t, u, "base="+base)
				symbols := u[strings.Index(u, "symbols=")+len("symbols="):]
				assert.NotContains(t, strings.Split(symbols, ","), base)
				assert.Len(t, strings.Split(symbols, ","), 7)
			}
		})
	}
}

func TestHistoricalAssembler_Assemble_ExtraCodesSorted(t *testing.T) {
	records := flattenDay("2024-03-10", "USD", []string{"EUR", "GBP"}, map[string]float64{
		"ZAR": 18.7, "GBP": 0.78, "CHF": 0.88, "EUR": 0.92, "USD": 1,
	})

	codes := make([]string, 0, len(records))
	for _, r := range records {
		codes = append(codes, r.CurrencyCode)
	}
	assert.Equal(t, []string{"EUR", "GBP", "CHF", "ZAR"}, codes)
}

func TestHistoricalAssembler_Assemble_Validation(t *testing.T) {
	a, _ := newTestAssembler(new(MockFetcher))

	_, err := a.Assemble(context.Background(), "XYZ", 7)
	assert.ErrorIs(t, err, model.ErrInvalidBase)

	_, err = a.Assemble(context.Background(), "USD", 0)
	assert.ErrorIs(t, err, model.ErrInvalidWindow)

	_, err = a.Assemble(context.Background(), "USD", 31)
	assert.ErrorIs(t, err, model.ErrInvalidWindow)
}

func TestHistoricalAssembler_Assemble_Cancelled(t *testing.T) {
	fetcher := new(MockFetcher)
	a, _ := newTestAssembler(fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	fetcher.On("Fetch", mock.Anything, dayURL("2024-03-06")).Return([]byte(`{"rates":{"EUR":0.9}}`), nil).Once()
	fetcher.On("Fetch", mock.Anything, dayURL("2024-03-07")).
		Run(func(mock.Arguments) { cancel() }).
		Return([]byte(`{"rates":{"EUR":0.91}}`), nil).Once()

	result, err := a.Assemble(ctx, "USD", 5)

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Len(t, result.Records, 2)
	assert.Len(t, result.Outcomes, 2)
	fetcher.AssertExpectations(t)
}

func TestHistoricalAssembler_dayURL(t *testing.T) {
	a := NewHistoricalAssembler(nil, "https://api.exchangerate.host", logger.Nop(), WithAPIKey("k&y"))

	assert.Equal(t,
		"https://api.exchangerate.host/2024-03-10?base=EUR&symbols=USD,GBP&access_key=k%26y",
		a.dayURL("EUR", "2024-03-10", []string{"USD", "GBP"}))
}

func TestHistoricalAssembler_WithRetryClient(t *testing.T) {
	server := newMockServer([]mockResponse{
		{statusCode: http.StatusOK, body: `{"rates":{"EUR":0.9}}`},
		{statusCode: http.StatusServiceUnavailable},
		{statusCode: http.StatusOK, body: `{"rates":{"EUR":0.91}}`},
		{statusCode: http.StatusNotFound},
	})
	defer server.Close()

	client, _ := newTestClient(server, WithMaxRetries(1))
	a := NewHistoricalAssembler(client, server.URL, logger.Nop(), WithClock(testClock), WithRequestDelay(time.Millisecond))

	result, err := a.Assemble(context.Background(), "USD", 3)
	require.NoError(t, err)

	assert.Equal(t, []model.HistoricalRate{
		{Date: "2024-03-08", CurrencyCode: "EUR", Rate: 0.9},
		{Date: "2024-03-09", CurrencyCode: "EUR", Rate: 0.91},
	}, result.Records)
	assert.Equal(t, model.DayStatusFailed, result.Outcomes[2].Status)
	assert.Equal(t, 4, server.count())
	assert.True(t, strings.HasPrefix(server.urls[0], "/2024-03-08?base=USD&symbols="))
}
