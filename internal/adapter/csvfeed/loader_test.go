package csvfeed

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/edbertocampo/COVID-19-Data-Analysis/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		DataDir:             dir,
		ConfirmedGlobalFile: "confirmed_global.csv",
		DeathsGlobalFile:    "deaths_global.csv",
		RecoveredFile:       "recovered.csv",
		ConfirmedFile:       "confirmed.csv",
		ConfirmedPivotFile:  "confirmed_pivot.csv",
		DeathsPivotFile:     "deaths_pivot.csv",
	}
}

func writeAllFeeds(t *testing.T, dir string) {
	t.Helper()
	content := "Country/Region,1/22/20,1/23/20\nAland,1,2\nBorduria,3,4\n"
	for _, name := range []string{
		"confirmed_global.csv", "deaths_global.csv", "recovered.csv",
		"confirmed.csv", "confirmed_pivot.csv", "deaths_pivot.csv",
	} {
		writeFile(t, dir, name, content)
	}
}

func TestLoaderFeeds(t *testing.T) {
	dir := t.TempDir()
	writeAllFeeds(t, dir)
	writeFile(t, dir, "confirmed_global.csv",
		"Country/Region,1/22/20,1/23/20\nAland,10,15\nBorduria,5,\n")

	l := NewLoader(testConfig(dir), slog.Default())

	set, err := l.Feeds(context.Background())
	require.NoError(t, err)

	assert.Equal(t, FeedConfirmedGlobal, set.ConfirmedGlobal.Name)
	assert.Equal(t, []string{"Country/Region", "1/22/20", "1/23/20"}, set.ConfirmedGlobal.Header)
	require.Len(t, set.ConfirmedGlobal.Rows, 2)
	assert.Equal(t, []string{"Aland", "10", "15"}, set.ConfirmedGlobal.Rows[0])
	assert.Equal(t, []string{"Borduria", "5", ""}, set.ConfirmedGlobal.Rows[1])

	assert.Equal(t, FeedDeathsPivot, set.DeathsPivot.Name)
	assert.Len(t, set.DeathsPivot.Rows, 2)
}

func TestLoaderFeeds_RaggedRows(t *testing.T) {
	dir := t.TempDir()
	writeAllFeeds(t, dir)
	writeFile(t, dir, "recovered.csv",
		"Country/Region,1/22/20,1/23/20\nAland,1\nBorduria,3,4,99\n")

	l := NewLoader(testConfig(dir), slog.Default())

	set, err := l.Feeds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Aland", "1"}, set.Recovered.Rows[0])
	assert.Equal(t, []string{"Borduria", "3", "4", "99"}, set.Recovered.Rows[1])
}

func TestLoaderFeeds_MissingFile(t *testing.T) {
	dir := t.TempDir()
	writeAllFeeds(t, dir)
	require.NoError(t, os.Remove(filepath.Join(dir, "deaths_pivot.csv")))

	l := NewLoader(testConfig(dir), slog.Default())

	_, err := l.Feeds(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), FeedDeathsPivot)
}

func TestLoaderFeeds_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeAllFeeds(t, dir)
	writeFile(t, dir, "confirmed.csv", "")

	l := NewLoader(testConfig(dir), slog.Default())

	_, err := l.Feeds(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestLoaderFeeds_ContextCancelled(t *testing.T) {
	dir := t.TempDir()
	writeAllFeeds(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLoader(testConfig(dir), slog.Default())

	_, err := l.Feeds(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
