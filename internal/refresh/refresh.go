// Package refresh runs the load pipeline: fetch the dataset and rules,
// build calendar and availability bands on top of the dataset, and commit
// the result to a session.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"muhurta/internal/config"
	"muhurta/internal/ics"
	appLog "muhurta/internal/log"
	"muhurta/internal/metrics"
	"muhurta/internal/panchanga"
	"muhurta/internal/session"
	"muhurta/internal/source"
)

// Refresher reloads one session. It remembers the last requested city and
// year so scheduled refreshes reload the same selection.
type Refresher struct {
	sess    *session.Session
	fetcher *source.Fetcher
	loader  *source.Loader
	metrics *metrics.Metrics
	loc     *time.Location
	feeds   []ics.Feed
	avail   []ics.Availability

	mu   sync.Mutex
	city string
	year int
}

// New builds a Refresher from cfg. m may be nil.
func New(cfg *config.Config, sess *session.Session, m *metrics.Metrics) (*Refresher, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	fetcher := source.NewFetcher(cfg.CacheDir)
	r := &Refresher{
		sess:    sess,
		fetcher: fetcher,
		loader:  source.NewLoader(fetcher, cfg.DataSource, cfg.RulesPath),
		metrics: m,
		loc:     loc,
		city:    cfg.City,
		year:    cfg.Year,
	}
	for _, f := range cfg.ICS {
		r.feeds = append(r.feeds, ics.Feed{ID: f.ID, Name: f.Name, URL: f.URL})
	}
	for _, a := range cfg.Availability {
		r.avail = append(r.avail, ics.Availability{Name: a.Name, RRule: a.RRule, Duration: a.Duration()})
	}
	return r, nil
}

// Selection returns the city and year the next Reload uses by default.
func (r *Refresher) Selection() (string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.city, r.year
}

// Select changes the default city and year without loading.
func (r *Refresher) Select(city string, year int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if city != "" {
		r.city = city
	}
	if year > 0 {
		r.year = year
	}
}

// Reload loads city and year into the session and makes them the current
// selection once committed. An empty city or zero year keeps the current
// selection. Calendar feeds that fail are logged and skipped; a missing
// dataset or rules file fails the reload.
func (r *Refresher) Reload(ctx context.Context, city string, year int) error {
	curCity, curYear := r.Selection()
	if city == "" {
		city = curCity
	}
	if year <= 0 {
		year = curYear
	}

	ticket := r.sess.Begin()
	start := time.Now()

	ds, err := r.loader.Dataset(ctx, city, year)
	if err != nil {
		r.sess.Cancel(ticket)
		r.metrics.Load("error")
		return err
	}
	rules, err := r.loader.Rules(ctx)
	if err != nil {
		r.sess.Cancel(ticket)
		r.metrics.Load("error")
		return err
	}

	// Bounds are taken before synthetic bands are added; those bands only
	// ever cover these bounds.
	bounds := ds.Bounds()
	r.installFeeds(ctx, ds)
	for _, a := range r.avail {
		b, err := ics.AvailabilityBand(a, bounds, r.loc)
		if err != nil {
			appLog.Error("availability band failed", err, "name", a.Name)
			continue
		}
		b.Install(ds)
	}

	if err := r.sess.Commit(ticket, session.Load{City: city, Year: year, Dataset: ds, Rules: rules}); err != nil {
		return fmt.Errorf("refresh: %s/%d: %w", city, year, err)
	}
	r.Select(city, year)
	appLog.Info("refresh complete", "city", city, "year", year, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func (r *Refresher) installFeeds(ctx context.Context, ds *panchanga.Dataset) {
	if len(r.feeds) == 0 {
		return
	}
	byID := make(map[string]ics.Feed, len(r.feeds))
	sources := make([]source.Source, 0, len(r.feeds))
	for _, f := range r.feeds {
		byID[f.ID] = f
		sources = append(sources, source.Source{ID: f.ID, URL: f.URL})
	}

	results, errs := r.fetcher.FetchAll(ctx, sources)
	if len(errs) > 0 {
		appLog.Warn("calendar feeds skipped", "failed", len(errs), "total", len(sources))
	}

	bounds := ds.Bounds()
	for _, res := range results {
		feed := byID[res.Source.ID]
		b, err := ics.FeedBand(feed, res.Body, bounds, r.loc)
		if err != nil {
			appLog.Error("calendar feed band failed", err, "feed", feed.ID)
			continue
		}
		b.Install(ds)
	}
}
