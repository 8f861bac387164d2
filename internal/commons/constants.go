package commons

import "time"

const (
	DefaultLiveRatesURL       = "https://www.x-rates.com/table/"
	DefaultHistoricalRatesURL = "https://api.exchangerate.host"
	UserAgent                 = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	ExternalClientMaxRetries = 3
	ExternalClientBaseDelay  = 300 * time.Millisecond
	ExternalClientTimeout    = 10 * time.Second
	HistoricalRequestDelay   = 100 * time.Millisecond

	LiveCacheExpiration       = 5 * time.Minute
	HistoricalCacheExpiration = 10 * time.Minute
	WarmInterval              = 5 * time.Minute
	LogRetentionMonths        = 6

	AllowedRPS        = 10
	DefaultTopRates   = 10
	DefaultSeriesSize = 3
	DisplayPrecision  = 4

	ServerIdleTimeout     = time.Minute
	ServerReadTimeout     = 10 * time.Second
	ServerWriteTimeout    = 2 * time.Minute
	ServerShutdownTimeout = 10 * time.Second
)
