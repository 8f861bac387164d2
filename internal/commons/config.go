package commons

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerPort uint16

	RedisAddr string
	RedisPass string

	// PostgresConn is empty when no log database is configured.
	PostgresConn string

	LiveRatesURL       string
	HistoricalRatesURL string
	HistoricalAPIKey   string

	MaxRetries             int
	BackoffBase            time.Duration
	RequestTimeout         time.Duration
	HistoricalRequestDelay time.Duration

	LiveCacheTTL       time.Duration
	HistoricalCacheTTL time.Duration
	WarmInterval       time.Duration
	RateLimitRPS       int
}

const (
	decimalBase = 10
	bitSize     = 16
)

func LoadConfig() (Config, error) {
	config := Config{
		LiveRatesURL:           envOr("LIVE_RATES_URL", DefaultLiveRatesURL),
		HistoricalRatesURL:     envOr("HISTORICAL_RATES_URL", DefaultHistoricalRatesURL),
		HistoricalAPIKey:       os.Getenv("HISTORICAL_API_KEY"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPass:              os.Getenv("REDIS_PASSWORD"),
		MaxRetries:             ExternalClientMaxRetries,
		BackoffBase:            ExternalClientBaseDelay,
		RequestTimeout:         ExternalClientTimeout,
		HistoricalRequestDelay: HistoricalRequestDelay,
		LiveCacheTTL:           LiveCacheExpiration,
		HistoricalCacheTTL:     HistoricalCacheExpiration,
		WarmInterval:           WarmInterval,
		RateLimitRPS:           AllowedRPS,
	}
	var errors []string

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		errors = append(errors, "SERVER_PORT is not set")
	} else {
		parsedServerPort, err := strconv.ParseUint(serverPort, decimalBase, bitSize)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid SERVER_PORT: %s", err))
		} else {
			config.ServerPort = uint16(parsedServerPort)
		}
	}

	if config.RedisPass != "" && config.RedisAddr == "" {
		errors = append(errors, "REDIS_PASSWORD is set but REDIS_ADDR is not")
	}

	pgVars := []string{"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_NAME"}
	pg := make(map[string]string, len(pgVars))
	for _, key := range pgVars {
		if v := os.Getenv(key); v != "" {
			pg[key] = v
		}
	}
	switch {
	case len(pg) == len(pgVars):
		config.PostgresConn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			pg["POSTGRES_USER"], pg["POSTGRES_PASSWORD"], pg["POSTGRES_HOST"], pg["POSTGRES_PORT"], pg["POSTGRES_NAME"])
	case len(pg) > 0:
		for _, key := range pgVars {
			if pg[key] == "" {
				errors = append(errors, fmt.Sprintf("%s is not set", key))
			}
		}
	}

	parseInt(&errors, "HTTP_MAX_RETRIES", &config.MaxRetries, 0)
	parseInt(&errors, "RATE_LIMIT_RPS", &config.RateLimitRPS, 1)
	parseDuration(&errors, "HTTP_BACKOFF", &config.BackoffBase)
	parseDuration(&errors, "HTTP_TIMEOUT", &config.RequestTimeout)
	parseDuration(&errors, "HISTORICAL_REQUEST_DELAY", &config.HistoricalRequestDelay)
	parseDuration(&errors, "LIVE_CACHE_TTL", &config.LiveCacheTTL)
	parseDuration(&errors, "HISTORICAL_CACHE_TTL", &config.HistoricalCacheTTL)
	parseDuration(&errors, "WARM_INTERVAL", &config.WarmInterval)

	if len(errors) > 0 {
		for _, err := range errors {
			fmt.Println("Configuration Error:", err)
		}
		return Config{}, fmt.Errorf("configuration errors occurred")
	}

	return config, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseInt(errors *[]string, key string, dst *int, min int) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid %s: %s", key, err))
		return
	}
	if v < min {
		*errors = append(*errors, fmt.Sprintf("invalid %s: must be at least %d", key, min))
		return
	}
	*dst = v
}

func parseDuration(errors *[]string, key string, dst *time.Duration) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid %s: %s", key, err))
		return
	}
	if v < 0 {
		*errors = append(*errors, fmt.Sprintf("invalid %s: must not be negative", key))
		return
	}
	*dst = v
}
