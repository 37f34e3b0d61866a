package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFeed(t *testing.T) {
	t.Run("global export convention", func(t *testing.T) {
		feed := RawFeed{
			Name:   "confirmed_global",
			Header: []string{"Province/State", "Country/Region", "Lat", "Long", "1/22/20", "1/23/20"},
			Rows: [][]string{
				{"", "Thailand", "15", "101", "2", "3"},
				{"Hubei", "China", "30.97", "112.27", "444", "444"},
			},
		}

		points, stats, err := NormalizeFeed(feed, MetricConfirmed)
		require.NoError(t, err)

		assert.Equal(t, ConventionCountrySlashRegion, stats.Convention)
		assert.Equal(t, 2, stats.Rows)
		assert.Equal(t, 4, stats.Points)
		// Province/State, Lat, and Long are expected identifier columns,
		// not parse failures.
		assert.Equal(t, 3, stats.IdentifierColumns)
		assert.Empty(t, stats.DroppedColumns)

		require.Len(t, points, 4)
		assert.Equal(t, "Thailand", points[0].Region)
		assert.Equal(t, time.Date(2020, 1, 22, 0, 0, 0, 0, time.UTC), points[0].Date)
		assert.Equal(t, MetricConfirmed, points[0].Metric)
		require.NotNil(t, points[0].Value)
		assert.Equal(t, 2.0, *points[0].Value)
	})

	t.Run("pivot export convention", func(t *testing.T) {
		feed := RawFeed{
			Name:   "confirmed",
			Header: []string{"Country", "3/1/20", "3/2/20"},
			Rows:   [][]string{{"Italy", "1694", "2036"}},
		}

		points, stats, err := NormalizeFeed(feed, MetricConfirmed)
		require.NoError(t, err)
		assert.Equal(t, ConventionCountry, stats.Convention)
		assert.Empty(t, stats.DroppedColumns)
		require.Len(t, points, 2)
		assert.Equal(t, "Italy", points[0].Region)
	})

	t.Run("canonical title wins when both present", func(t *testing.T) {
		feed := RawFeed{
			Name:   "mixed",
			Header: []string{"Country", "Country/Region", "1/22/20"},
			Rows:   [][]string{{"alias", "France", "12"}},
		}

		points, stats, err := NormalizeFeed(feed, MetricConfirmed)
		require.NoError(t, err)
		assert.Equal(t, ConventionCountrySlashRegion, stats.Convention)
		require.Len(t, points, 1)
		assert.Equal(t, "France", points[0].Region)
	})

	t.Run("empty cell becomes missing value", func(t *testing.T) {
		feed := RawFeed{
			Name:   "recovered",
			Header: []string{"Country/Region", "1/22/20", "1/23/20"},
			Rows:   [][]string{{"Japan", "", "1"}},
		}

		points, stats, err := NormalizeFeed(feed, MetricRecovered)
		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.Nil(t, points[0].Value)
		require.NotNil(t, points[1].Value)
		assert.Equal(t, 1, stats.EmptyCells)
	})

	t.Run("unparseable cell counted not propagated", func(t *testing.T) {
		feed := RawFeed{
			Name:   "deaths_global",
			Header: []string{"Country/Region", "1/22/20"},
			Rows:   [][]string{{"Spain", "n/a"}},
		}

		points, stats, err := NormalizeFeed(feed, MetricDeaths)
		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.Nil(t, points[0].Value)
		assert.Equal(t, 1, stats.BadCells)
	})

	t.Run("unparseable date header drops the column", func(t *testing.T) {
		feed := RawFeed{
			Name:   "confirmed_global",
			Header: []string{"Country/Region", "13/45/20", "1/23/20"},
			Rows:   [][]string{{"Brazil", "7", "9"}},
		}

		points, stats, err := NormalizeFeed(feed, MetricConfirmed)
		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.Equal(t, []string{"13/45/20"}, stats.DroppedColumns)
		assert.Equal(t, 9.0, *points[0].Value)
	})

	t.Run("identifier columns distinct from malformed headers", func(t *testing.T) {
		feed := RawFeed{
			Name:   "confirmed_global",
			Header: []string{"Province/State", "Country/Region", "Lat", "Long", "not-a-date", "1/23/20"},
			Rows:   [][]string{{"", "Mexico", "23.6", "-102.5", "1", "9"}},
		}

		points, stats, err := NormalizeFeed(feed, MetricConfirmed)
		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.Equal(t, 3, stats.IdentifierColumns)
		// Only the genuinely unparseable header counts as dropped.
		assert.Equal(t, []string{"not-a-date"}, stats.DroppedColumns)
	})

	t.Run("short rows do not panic", func(t *testing.T) {
		feed := RawFeed{
			Name:   "confirmed",
			Header: []string{"Country", "1/22/20", "1/23/20"},
			Rows:   [][]string{{"Chad", "5"}},
		}

		points, stats, err := NormalizeFeed(feed, MetricConfirmed)
		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.Equal(t, 5.0, *points[0].Value)
		assert.Nil(t, points[1].Value)
		assert.Equal(t, 1, stats.EmptyCells)
	})

	t.Run("no region column under either convention", func(t *testing.T) {
		feed := RawFeed{
			Name:   "broken",
			Header: []string{"Nation", "1/22/20"},
			Rows:   [][]string{{"Peru", "1"}},
		}

		_, _, err := NormalizeFeed(feed, MetricConfirmed)
		require.ErrorIs(t, err, ErrSchema)
		assert.Contains(t, err.Error(), "broken")
	})
}
