package domain

import (
	"sort"
	"time"
)

// SumByDate collapses per-region points for one metric into one global total
// per date. Unknown values count as zero for summation only; dates with no
// points produce no row at all, so callers must read an absent date as
// "unknown", never "zero".
func SumByDate(points []RegionMetricPoint) []GlobalDailyTotal {
	sums := make(map[time.Time]float64)
	for _, p := range points {
		v := 0.0
		if p.Value != nil {
			v = *p.Value
		}
		sums[p.Date] += v
	}

	totals := make([]GlobalDailyTotal, 0, len(sums))
	for date, v := range sums {
		totals = append(totals, GlobalDailyTotal{Date: date, Value: v})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date.Before(totals[j].Date) })
	return totals
}

// TotalsByRegion reduces points for one metric to each region's cumulative
// value at that region's latest reporting date, summing across province rows
// of the same region. Output is sorted by value descending, region name
// ascending on ties, for direct use by the ranking consumer.
func TotalsByRegion(points []RegionMetricPoint) []RegionTotal {
	type regionDate struct {
		region string
		date   time.Time
	}
	sums := make(map[regionDate]float64)
	latest := make(map[string]time.Time)
	for _, p := range points {
		v := 0.0
		if p.Value != nil {
			v = *p.Value
		}
		sums[regionDate{p.Region, p.Date}] += v
		if p.Date.After(latest[p.Region]) {
			latest[p.Region] = p.Date
		}
	}

	totals := make([]RegionTotal, 0, len(latest))
	for region, date := range latest {
		totals = append(totals, RegionTotal{Region: region, Value: sums[regionDate{region, date}]})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Value != totals[j].Value {
			return totals[i].Value > totals[j].Value
		}
		return totals[i].Region < totals[j].Region
	})
	return totals
}
