// Package csvfeed reads the source feed tables from local CSV files. It is a
// thin collaborator: all interpretation of the tables happens in the domain
// package.
package csvfeed

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/edbertocampo/COVID-19-Data-Analysis/internal/config"
	"github.com/edbertocampo/COVID-19-Data-Analysis/internal/domain"
)

// Loader implements pipeline.FeedSource over a directory of CSV exports.
type Loader struct {
	dir    string
	files  map[string]string // feed name -> filename
	logger *slog.Logger
}

// feed identities, fixed by the data model.
const (
	FeedConfirmedGlobal = "confirmed_global"
	FeedDeathsGlobal    = "deaths_global"
	FeedRecovered       = "recovered"
	FeedConfirmed       = "confirmed"
	FeedConfirmedPivot  = "confirmed_pivot"
	FeedDeathsPivot     = "deaths_pivot"
)

// NewLoader creates a Loader serving the feeds configured in cfg.
func NewLoader(cfg *config.Config, logger *slog.Logger) *Loader {
	return &Loader{
		dir: cfg.DataDir,
		files: map[string]string{
			FeedConfirmedGlobal: cfg.ConfirmedGlobalFile,
			FeedDeathsGlobal:    cfg.DeathsGlobalFile,
			FeedRecovered:       cfg.RecoveredFile,
			FeedConfirmed:       cfg.ConfirmedFile,
			FeedConfirmedPivot:  cfg.ConfirmedPivotFile,
			FeedDeathsPivot:     cfg.DeathsPivotFile,
		},
		logger: logger,
	}
}

// Feeds reads every configured feed file. All files must exist and parse as
// CSV; a missing feed would silently become an all-missing metric otherwise.
func (l *Loader) Feeds(ctx context.Context) (domain.FeedSet, error) {
	var set domain.FeedSet
	targets := []struct {
		name string
		dst  *domain.RawFeed
	}{
		{FeedConfirmedGlobal, &set.ConfirmedGlobal},
		{FeedDeathsGlobal, &set.DeathsGlobal},
		{FeedRecovered, &set.Recovered},
		{FeedConfirmed, &set.Confirmed},
		{FeedConfirmedPivot, &set.ConfirmedPivot},
		{FeedDeathsPivot, &set.DeathsPivot},
	}

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return domain.FeedSet{}, err
		}
		feed, err := l.readFeed(t.name)
		if err != nil {
			return domain.FeedSet{}, err
		}
		*t.dst = feed
	}
	return set, nil
}

func (l *Loader) readFeed(name string) (domain.RawFeed, error) {
	path := filepath.Join(l.dir, l.files[name])

	f, err := os.Open(path)
	if err != nil {
		return domain.RawFeed{}, fmt.Errorf("open feed %q: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // source exports occasionally ship ragged rows
	records, err := r.ReadAll()
	if err != nil {
		return domain.RawFeed{}, fmt.Errorf("read feed %q from %s: %w", name, path, err)
	}
	if len(records) == 0 {
		return domain.RawFeed{}, fmt.Errorf("feed %q from %s is empty", name, path)
	}

	l.logger.Debug("feed file read", "feed", name, "path", path, "rows", len(records)-1)
	return domain.RawFeed{
		Name:   name,
		Header: records[0],
		Rows:   records[1:],
	}, nil
}
