// Package domain models the daily COVID-19 case-count feeds and their
// reconciliation into one canonical global time series.
//
// # Data Source
//
// The feeds are the Johns Hopkins CSSE daily report exports. Each feed is a
// wide table: one row per country (optionally split by province/state), one
// column per reporting date. Two export generations exist and overlap:
//
//   - the "global" time-series exports, which title the region column
//     "Country/Region" and carry a leading "Province/State" column, and
//   - the older pivot exports, which title the region column "Country" and
//     may cover a different date window.
//
// Both generations report cumulative counts. Confirmed cases and deaths are
// present in both; recoveries exist only in the global export and stop being
// reported partway through the dataset.
//
// # Feed Conventions
//
// Date column headers use month/day/two-digit-year notation, e.g. "1/22/20".
// Cell values are cumulative non-negative integers; an empty cell means the
// count is unknown for that country and date, not zero.
//
// # Missing-Value Policies
//
// Two deliberately different policies apply at different stages:
//
//   - Aggregation sums a metric across countries for one date and treats an
//     unknown cell as zero, so one unreported province does not erase a
//     global total ([SumByDate]).
//   - Reconciliation merges per-feed global totals and preserves
//     missingness: a date is filled from the fallback feed only when the
//     primary feed has no value, and stays unknown when neither feed reports
//     it.
//
// Collapsing the two policies would mask real reporting gaps as zeros.
//
// # Derived Metrics
//
// The canonical series carries daily deltas (first difference of each
// cumulative column, with the first row's delta defined as zero) and
// recovery/death rates as percentages of confirmed cases. A rate is
// undefined, not zero, whenever confirmed is zero or an input is unknown.
package domain
