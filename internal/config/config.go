package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Config holds all settings for one batch run, populated from environment
// variables.
type Config struct {
	DataDir    string
	OutputPath string // report destination; "-" writes to stdout
	LogLevel   string
	LogFormat  string

	// Source feed filenames under DataDir.
	ConfirmedGlobalFile string
	DeathsGlobalFile    string
	RecoveredFile       string
	ConfirmedFile       string // pivot-generation confirmed, fallback source
	ConfirmedPivotFile  string
	DeathsPivotFile     string

	// Forecasting parameters.
	SeasonalPeriod int
	MaxP           int
	MaxD           int
	MaxQ           int
	ACFLags        int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	seasonalPeriod, err := envInt("SEASONAL_PERIOD", 7)
	if err != nil {
		return nil, err
	}
	maxP, err := envInt("MAX_AR_ORDER", 5)
	if err != nil {
		return nil, err
	}
	maxD, err := envInt("MAX_DIFF_ORDER", 2)
	if err != nil {
		return nil, err
	}
	maxQ, err := envInt("MAX_MA_ORDER", 5)
	if err != nil {
		return nil, err
	}
	acfLags, err := envInt("ACF_LAGS", 25)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:    envOrDefault("DATA_DIR", "data"),
		OutputPath: envOrDefault("OUTPUT_PATH", "-"),
		LogLevel:   envOrDefault("LOG_LEVEL", "info"),
		LogFormat:  envOrDefault("LOG_FORMAT", "json"),

		ConfirmedGlobalFile: envOrDefault("CONFIRMED_GLOBAL_FILE", "time_series_covid19_confirmed_global.csv"),
		DeathsGlobalFile:    envOrDefault("DEATHS_GLOBAL_FILE", "time_series_covid19_deaths_global.csv"),
		RecoveredFile:       envOrDefault("RECOVERED_FILE", "time_series_covid19_recovered_global.csv"),
		ConfirmedFile:       envOrDefault("CONFIRMED_FILE", "covid_19_confirmed.csv"),
		ConfirmedPivotFile:  envOrDefault("CONFIRMED_PIVOT_FILE", "covid_19_confirmed_pivot.csv"),
		DeathsPivotFile:     envOrDefault("DEATHS_PIVOT_FILE", "covid_19_deaths_pivot.csv"),

		SeasonalPeriod: seasonalPeriod,
		MaxP:           maxP,
		MaxD:           maxD,
		MaxQ:           maxQ,
		ACFLags:        acfLags,
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.SeasonalPeriod < 1 {
		return nil, errors.New("SEASONAL_PERIOD must be at least 1")
	}
	if cfg.MaxP < 0 || cfg.MaxD < 0 || cfg.MaxQ < 0 {
		return nil, errors.New("model order bounds must not be negative")
	}
	if cfg.MaxP == 0 && cfg.MaxQ == 0 && cfg.MaxD == 0 {
		return nil, errors.New("order search space is empty: raise MAX_AR_ORDER, MAX_DIFF_ORDER, or MAX_MA_ORDER")
	}
	if cfg.ACFLags < 1 {
		return nil, errors.New("ACF_LAGS must be at least 1")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not an integer", key, s)
	}
	return n, nil
}
