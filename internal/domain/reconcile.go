package domain

import (
	"fmt"
	"sort"
	"time"
)

// ReconcileInput carries the per-metric global totals to merge. Primary
// series come from the global exports, fallback series from the pivot
// exports. The pivot generation ships confirmed cases twice (row and pivot
// layouts of the same counts), so confirmed carries a second fallback.
// Recovered has no fallback.
type ReconcileInput struct {
	PrimaryConfirmed  []GlobalDailyTotal
	FallbackConfirmed []GlobalDailyTotal
	PivotConfirmed    []GlobalDailyTotal
	PrimaryDeaths     []GlobalDailyTotal
	FallbackDeaths    []GlobalDailyTotal
	Recovered         []GlobalDailyTotal
}

// Reconcile merges the per-feed daily totals into the canonical series. The
// date axis is the confirmed-case date domain (primary dates plus fallback
// dates filling the primary's gaps); deaths and recovered are left-joined
// onto it. Confirmed and deaths coalesce primary-first, preserving
// missingness; a date neither feed reports stays unknown.
//
// Returns ErrReconciliation when confirmed or deaths end up with no values
// at all after coalescing, since the downstream framing cannot recover from
// a wholly undefined column.
func Reconcile(in ReconcileInput) (CanonicalSeries, error) {
	dates := dateDomain(in.PrimaryConfirmed, in.FallbackConfirmed, in.PivotConfirmed)
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: confirmed metric has no values in either the primary or fallback feed",
			ErrReconciliation)
	}

	primaryConfirmed := byDate(in.PrimaryConfirmed)
	fallbackConfirmed := byDate(in.FallbackConfirmed)
	pivotConfirmed := byDate(in.PivotConfirmed)
	primaryDeaths := byDate(in.PrimaryDeaths)
	fallbackDeaths := byDate(in.FallbackDeaths)
	recovered := byDate(in.Recovered)

	series := make(CanonicalSeries, len(dates))
	deathsSeen := false
	for i, date := range dates {
		rec := DailyRecord{Date: date}
		rec.Confirmed = coalesce(primaryConfirmed[date], fallbackConfirmed[date], pivotConfirmed[date])
		rec.Deaths = coalesce(primaryDeaths[date], fallbackDeaths[date])
		rec.Recovered = recovered[date]
		if rec.Deaths != nil {
			deathsSeen = true
		}
		series[i] = rec
	}

	if !deathsSeen {
		return nil, fmt.Errorf("%w: deaths metric has no values in either feed over %s..%s",
			ErrReconciliation, dates[0].Format("2006-01-02"), dates[len(dates)-1].Format("2006-01-02"))
	}

	deriveDailyDeltas(series)
	deriveRates(series)
	return series, nil
}

// dateDomain returns the sorted, deduplicated union of the series' dates.
func dateDomain(sources ...[]GlobalDailyTotal) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, source := range sources {
		for _, t := range source {
			seen[t.Date] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func byDate(totals []GlobalDailyTotal) map[time.Time]*float64 {
	m := make(map[time.Time]*float64, len(totals))
	for _, t := range totals {
		v := t.Value
		m[t.Date] = &v
	}
	return m
}

// coalesce picks the first known value among the ordered candidates,
// preserving missingness when none is known. This is deliberately distinct
// from the aggregator's missing-as-zero summation policy.
func coalesce(candidates ...*float64) *float64 {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

// deriveDailyDeltas fills the daily_* columns with the first difference of
// each cumulative column. The lag of the first row is the first row itself,
// so the opening delta is exactly zero rather than undefined. A delta is
// unknown whenever either side of the difference is unknown.
func deriveDailyDeltas(series CanonicalSeries) {
	for i := range series {
		var prev *DailyRecord
		if i > 0 {
			prev = &series[i-1]
		} else {
			prev = &series[0]
		}
		series[i].DailyCases = diff(series[i].Confirmed, prev.Confirmed)
		series[i].DailyDeaths = diff(series[i].Deaths, prev.Deaths)
		series[i].DailyRecovered = diff(series[i].Recovered, prev.Recovered)
	}
}

func diff(cur, prev *float64) *float64 {
	if cur == nil || prev == nil {
		return nil
	}
	d := *cur - *prev
	return &d
}

// deriveRates fills recovery_rate and death_rate as percentages of confirmed
// cases. A rate stays undefined when confirmed is zero or unknown, or when
// its numerator is unknown.
func deriveRates(series CanonicalSeries) {
	for i := range series {
		rec := &series[i]
		if rec.Confirmed == nil || *rec.Confirmed == 0 {
			continue
		}
		if rec.Recovered != nil {
			r := 100 * *rec.Recovered / *rec.Confirmed
			rec.RecoveryRate = &r
		}
		if rec.Deaths != nil {
			d := 100 * *rec.Deaths / *rec.Confirmed
			rec.DeathRate = &d
		}
	}
}
