package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateHeaderLayout is the month/day/two-digit-year header format used by
// every feed generation, e.g. "1/22/20".
const dateHeaderLayout = "1/2/06"

// NormalizeStats records what normalization kept and dropped for one feed,
// so recovered parse errors stay countable and loggable instead of vanishing.
type NormalizeStats struct {
	Feed              string
	Convention        RegionColumnConvention
	Rows              int
	Points            int
	IdentifierColumns int      // known non-date columns, preserved but unused
	DroppedColumns    []string // columns whose header failed to parse as a date
	BadCells          int      // non-empty cells that did not parse as a number
	EmptyCells        int      // cells left empty by the feed (value unknown)
}

// identifierColumns are the known non-date columns the source exports carry
// alongside the region column. They take no part in normalization, and their
// presence is expected rather than a parse failure.
var identifierColumns = map[string]struct{}{
	"Province/State": {},
	"Lat":            {},
	"Long":           {},
}

// NormalizeFeed harmonizes one wide-format feed into long-format
// region/date/metric points. The region column is located under either
// naming convention and renamed to the canonical title; every other column
// whose header parses as a date becomes one point per row. Known identifier
// columns (province, coordinates) are expected and skipped; columns with
// genuinely unparseable headers are dropped and counted rather than
// propagated.
//
// It returns ErrSchema when no region column exists under either convention.
func NormalizeFeed(feed RawFeed, metric Metric) ([]RegionMetricPoint, NormalizeStats, error) {
	stats := NormalizeStats{Feed: feed.Name}

	regionIdx, convention := resolveRegionColumn(feed.Header)
	if convention == ConventionUnknown {
		return nil, stats, fmt.Errorf("%w: feed %q has no %q or %q column (header: %v)",
			ErrSchema, feed.Name, RegionColumn, "Country", feed.Header)
	}
	stats.Convention = convention

	// Resolve each header to a date exactly once; per-cell work below only
	// touches columns that survived.
	type dateColumn struct {
		idx  int
		date time.Time
	}
	var dateCols []dateColumn
	for i, h := range feed.Header {
		if i == regionIdx {
			continue
		}
		title := strings.TrimSpace(h)
		if _, ok := identifierColumns[title]; ok {
			stats.IdentifierColumns++
			continue
		}
		d, err := time.Parse(dateHeaderLayout, title)
		if err != nil {
			stats.DroppedColumns = append(stats.DroppedColumns, h)
			continue
		}
		dateCols = append(dateCols, dateColumn{idx: i, date: d})
	}

	points := make([]RegionMetricPoint, 0, len(feed.Rows)*len(dateCols))
	for _, row := range feed.Rows {
		if regionIdx >= len(row) {
			continue
		}
		stats.Rows++
		region := strings.TrimSpace(row[regionIdx])

		for _, dc := range dateCols {
			var value *float64
			if dc.idx < len(row) {
				value = parseCell(row[dc.idx], &stats)
			} else {
				stats.EmptyCells++
			}
			points = append(points, RegionMetricPoint{
				Region: region,
				Date:   dc.date,
				Metric: metric,
				Value:  value,
			})
		}
	}
	stats.Points = len(points)

	return points, stats, nil
}

// resolveRegionColumn finds the region column under either title. The
// canonical "Country/Region" title wins when a feed carries both.
func resolveRegionColumn(header []string) (int, RegionColumnConvention) {
	countryIdx := -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case RegionColumn:
			return i, ConventionCountrySlashRegion
		case "Country":
			if countryIdx < 0 {
				countryIdx = i
			}
		}
	}
	if countryIdx >= 0 {
		return countryIdx, ConventionCountry
	}
	return -1, ConventionUnknown
}

// parseCell interprets one cell value. Empty means unknown (nil); a value
// that fails numeric parsing is treated the same way but counted separately.
func parseCell(cell string, stats *NormalizeStats) *float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		stats.EmptyCells++
		return nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		stats.BadCells++
		return nil
	}
	return &v
}
