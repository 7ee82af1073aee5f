package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"campusbot/internal/ics"
	appLog "campusbot/internal/log"
	"campusbot/internal/model"
)

// ErrNoEvents is returned by Refresh when no source could be loaded.
var ErrNoEvents = errors.New("no event source could be loaded")

const fileSourceID = "file"

// Config describes where events come from.
type Config struct {
	// DataPath is the portal's events JSON document. Optional.
	DataPath string
	// ICS lists calendar feeds merged into the catalog. Optional.
	ICS []ics.Source
	// CacheDir holds the ICS disk cache. Empty disables it.
	CacheDir string

	// Location renders ICS event dates. Nil means time.Local.
	Location *time.Location
	// HorizonDays / BackfillDays bound recurring ICS expansion around now.
	HorizonDays  int
	BackfillDays int

	Now func() time.Time
}

// Catalog is the merged, read-only event collection served to the query
// engine. It is safe for concurrent use.
type Catalog struct {
	cfg     Config
	fetcher *ics.Fetcher

	mu        sync.RWMutex
	events    []model.Event
	updatedAt time.Time
}

func New(cfg Config) *Catalog {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 60
	}
	if cfg.BackfillDays < 0 {
		cfg.BackfillDays = 0
	}
	return &Catalog{
		cfg:     cfg,
		fetcher: ics.NewFetcher(cfg.CacheDir, nil),
	}
}

// NewStatic returns a catalog holding events and no sources. Refresh on it
// is a no-op.
func NewStatic(events []model.Event) *Catalog {
	c := New(Config{})
	c.events = append([]model.Event(nil), events...)
	c.updatedAt = time.Now()
	return c
}

// Events returns a copy of the current snapshot.
func (c *Catalog) Events() []model.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Event(nil), c.events...)
}

// Len returns the number of events in the snapshot.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.events)
}

// UpdatedAt is the time of the last successful refresh.
func (c *Catalog) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

// Refresh reloads every source and swaps the snapshot. Sources that fail
// are logged and skipped; if all of them fail the previous snapshot is
// kept and ErrNoEvents is returned.
func (c *Catalog) Refresh(ctx context.Context) error {
	if c.cfg.DataPath == "" && len(c.cfg.ICS) == 0 {
		return nil
	}

	var (
		events    []model.Event
		errs      []error
		succeeded int
	)

	if c.cfg.DataPath != "" {
		fileEvents, err := LoadFile(c.cfg.DataPath)
		if err != nil {
			errs = append(errs, err)
			appLog.Error("catalog: events file failed", err, "path", c.cfg.DataPath)
		} else {
			for i := range fileEvents {
				if fileEvents[i].Source == "" {
					fileEvents[i].Source = fileSourceID
				}
			}
			events = append(events, fileEvents...)
			succeeded++
		}
	}

	if len(c.cfg.ICS) > 0 {
		icsEvents, n, icsErrs := c.loadICS(ctx)
		events = append(events, icsEvents...)
		succeeded += n
		errs = append(errs, icsErrs...)
	}

	if succeeded == 0 {
		return fmt.Errorf("%w: %w", ErrNoEvents, errors.Join(errs...))
	}

	c.mu.Lock()
	c.events = events
	c.updatedAt = c.cfg.Now()
	c.mu.Unlock()

	appLog.Info("catalog refreshed", "events", len(events), "sources_ok", succeeded, "sources_failed", len(errs))
	return nil
}

func (c *Catalog) loadICS(ctx context.Context) ([]model.Event, int, []error) {
	results, errs := c.fetcher.FetchAll(ctx, c.cfg.ICS)

	now := c.cfg.Now().In(c.cfg.Location)
	expandCfg := ics.ExpandConfig{
		Location:   c.cfg.Location,
		RangeStart: now.AddDate(0, 0, -c.cfg.BackfillDays),
		RangeEnd:   now.AddDate(0, 0, c.cfg.HorizonDays),
		Now:        now,
	}

	var events []model.Event
	ok := 0
	for _, res := range results {
		parsed, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			errs = append(errs, fmt.Errorf("source %s: %w", res.Source.ID, err))
			continue
		}
		expanded, err := ics.ExpandEvents(parsed, expandCfg)
		if err != nil {
			errs = append(errs, fmt.Errorf("source %s: %w", res.Source.ID, err))
			continue
		}
		events = append(events, expanded...)
		ok++
	}
	return events, ok, errs
}
