package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	// upstream booking-site search
	SearchBase   string
	SessionFile  string // JSON of browser-exported headers; empty = unauthenticated
	SearchRPS    int
	FetchWorkers int

	// optional infrastructure
	MySQLDSN  string // empty disables the offer archive
	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration
	TiersFile string // TOML bonus-policy override; empty = built-in policy

	// optimizer run parameters (cmd/optimizer)
	City         string
	Strategy     string
	TargetLP     int
	CurrentLP    int
	CardBonus    bool
	StartDate    string // YYYY-MM-DD, defaults to today
	WindowDays   int
	DaysPerRound int
	MaxRounds    int
	MaxSearchDay int // absolute horizon in days ahead of the start date
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),

		SearchBase:   env("SEARCH_BASE_URL", "https://www.aadvantagehotels.com"),
		SessionFile:  env("SESSION_HEADERS_FILE", ""),
		SearchRPS:    atoi("SEARCH_RPS", 5),
		FetchWorkers: atoi("FETCH_WORKERS", 10),

		MySQLDSN:  env("MYSQL_DSN", ""),
		RedisAddr: env("REDIS_ADDR", "localhost:6379"),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		TiersFile: env("TIERS_FILE", ""),

		City:         env("CITY", ""),
		Strategy:     env("STRATEGY", "exact_dp"),
		TargetLP:     atoi("TARGET_LP", 125_000),
		CurrentLP:    atoi("CURRENT_LP", 0),
		CardBonus:    env("CARD_BONUS", "true") == "true",
		StartDate:    env("START_DATE", ""),
		WindowDays:   atoi("WINDOW_DAYS", 30),
		DaysPerRound: atoi("DAYS_PER_ROUND", 30),
		MaxRounds:    atoi("MAX_ROUNDS", 12),
		MaxSearchDay: atoi("MAX_SEARCH_DAYS", 180),
	}
	if c.SessionFile == "" {
		log.Warn().Msg("SESSION_HEADERS_FILE is empty; searching unauthenticated, results may be limited")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
