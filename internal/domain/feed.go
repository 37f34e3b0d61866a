package domain

import (
	"time"
)

// Metric identifies which cumulative count a feed or point reports.
type Metric string

const (
	MetricConfirmed Metric = "confirmed"
	MetricDeaths    Metric = "deaths"
	MetricRecovered Metric = "recovered"
)

// RegionColumnConvention names the two region-column titles found across
// feed generations. It is resolved once per feed during normalization rather
// than re-checked downstream.
type RegionColumnConvention int

const (
	// ConventionUnknown means no region column was found under either title.
	ConventionUnknown RegionColumnConvention = iota
	// ConventionCountry is the pivot-export title "Country".
	ConventionCountry
	// ConventionCountrySlashRegion is the global-export title "Country/Region".
	ConventionCountrySlashRegion
)

// RegionColumn is the canonical region column title after normalization.
const RegionColumn = "Country/Region"

// RawFeed is one wide-format source table, read once and never mutated.
type RawFeed struct {
	Name   string     // feed identity, e.g. "confirmed_global"
	Header []string   // column titles as read from the file
	Rows   [][]string // cell values, row-major, aligned to Header
}

// FeedSet groups the source feeds of one batch run. Primary confirmed and
// deaths come from the global exports; the pivot exports act as fallbacks
// for dates the primaries do not cover. Recovered has no fallback.
type FeedSet struct {
	ConfirmedGlobal RawFeed
	DeathsGlobal    RawFeed
	Recovered       RawFeed
	Confirmed       RawFeed // pivot-generation confirmed, fallback source
	ConfirmedPivot  RawFeed
	DeathsPivot     RawFeed
}

// RegionMetricPoint is one normalized long-format observation. A nil Value
// means the feed left the cell empty (count unknown).
type RegionMetricPoint struct {
	Region string
	Date   time.Time
	Metric Metric
	Value  *float64
}

// GlobalDailyTotal is the sum of one metric across all regions for one date.
type GlobalDailyTotal struct {
	Date  time.Time
	Value float64
}

// RegionTotal is one region's latest cumulative value for a metric, used by
// the map/ranking consumer.
type RegionTotal struct {
	Region string  `json:"region"`
	Value  float64 `json:"value"`
}

// DailyRecord is one row of the canonical reconciled series. Pointer fields
// are nil when the value is unknown or undefined for that date.
type DailyRecord struct {
	Date           time.Time `json:"date"`
	Confirmed      *float64  `json:"confirmed"`
	Deaths         *float64  `json:"deaths"`
	Recovered      *float64  `json:"recovered"`
	DailyCases     *float64  `json:"daily_cases"`
	DailyDeaths    *float64  `json:"daily_deaths"`
	DailyRecovered *float64  `json:"daily_recovered"`
	RecoveryRate   *float64  `json:"recovery_rate"` // percent, defined only when Confirmed > 0 and Recovered known
	DeathRate      *float64  `json:"death_rate"`    // percent, defined only when Confirmed > 0
}

// CanonicalSeries is the reconciled global series, sorted by strictly
// increasing date with no duplicates.
type CanonicalSeries []DailyRecord
