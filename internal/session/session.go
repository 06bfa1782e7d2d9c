// Package session owns the loaded dataset, rule set and the user's compose
// state, and runs the engine over them on request.
package session

import (
	"errors"
	"sync"
	"time"

	"muhurta/internal/compose"
	"muhurta/internal/interval"
	appLog "muhurta/internal/log"
	"muhurta/internal/metrics"
	"muhurta/internal/panchanga"
	"muhurta/internal/yoga"
)

var (
	ErrStaleLoad   = errors.New("session: stale load discarded")
	ErrNotLoaded   = errors.New("session: no dataset loaded")
	ErrNoCondition = errors.New("session: condition not found")
	ErrNilDataset  = errors.New("session: load has no dataset")
)

type Options struct {
	WindowDays float64
	FoldMode   compose.FoldMode
	// Normalizer folds weekday/nakshatra names in rules; nil uses
	// yoga.NormalizeName.
	Normalizer yoga.Normalizer
	Metrics    *metrics.Metrics
	// OnChange, when set, receives the persisted state after every change
	// to it. It runs outside the session lock.
	OnChange func(State)
}

// Load is one fetched dataset and rule set for a city and year.
type Load struct {
	City    string
	Year    int
	Dataset *panchanga.Dataset
	Rules   *yoga.Rules
}

// Ticket identifies one load attempt; see Begin.
type Ticket uint64

// Session is safe for concurrent use. Engine calls take a read lock and
// recompute from scratch; only the option label cache is kept between calls.
type Session struct {
	opts Options

	mu         sync.RWMutex
	generation uint64
	committed  uint64
	pending    map[uint64]struct{}

	city     string
	year     int
	ds       *panchanga.Dataset
	rules    *yoga.Rules
	options  *panchanga.OptionIndex
	resolved []yoga.Resolved

	conds      []compose.Condition
	foldMode   compose.FoldMode
	view       compose.View
	yogaFilter yoga.Filter
}

func New(opts Options) *Session {
	if !(opts.WindowDays > 0) {
		opts.WindowDays = compose.DefaultWindowDays
	}
	if opts.FoldMode == "" {
		opts.FoldMode = compose.FoldAll
	}
	return &Session{
		opts:     opts,
		foldMode: opts.FoldMode,
		conds:    []compose.Condition{},
		pending:  map[uint64]struct{}{},
		view:     compose.NewView(panchanga.DefaultBounds, opts.WindowDays),
	}
}

// Begin starts a load. A load may commit only while no newer load is still
// in flight or already committed, so a slow earlier fetch cannot overwrite
// a later one. Every ticket must end in Commit or Cancel.
func (s *Session) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.pending[s.generation] = struct{}{}
	return Ticket(s.generation)
}

// Cancel abandons a load that failed before Commit, so it no longer blocks
// older loads.
func (s *Session) Cancel(t Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, uint64(t))
}

// staleLocked reports whether a newer load than t is pending or committed.
func (s *Session) staleLocked(t Ticket) bool {
	if uint64(t) <= s.committed {
		return true
	}
	for g := range s.pending {
		if g > uint64(t) {
			return true
		}
	}
	return false
}

// Commit installs l unless a newer load is pending or committed, resolving
// every yoga rule once. Conditions and fold mode carry over; the view
// resets to the start of the new dataset. The ticket is spent either way.
func (s *Session) Commit(t Ticket, l Load) error {
	if l.Dataset == nil {
		s.Cancel(t)
		s.opts.Metrics.Load("error")
		return ErrNilDataset
	}

	start := time.Now()
	resolver := yoga.NewResolver(l.Dataset, l.Rules, s.opts.Normalizer)
	resolved := resolver.ResolveAll(l.Rules)
	windows := 0
	for _, r := range resolved {
		windows += len(r.Windows)
	}
	s.opts.Metrics.ObserveCompute("resolve", time.Since(start), windows)

	s.mu.Lock()
	delete(s.pending, uint64(t))
	if s.staleLocked(t) {
		current := s.generation
		s.mu.Unlock()
		appLog.Warn("discarding stale load", "city", l.City, "year", l.Year, "ticket", uint64(t), "current", current)
		s.opts.Metrics.Load("stale")
		return ErrStaleLoad
	}
	s.committed = uint64(t)
	s.city, s.year = l.City, l.Year
	s.ds = l.Dataset
	s.rules = l.Rules
	s.options = panchanga.NewOptionIndex(l.Dataset)
	s.resolved = resolved

	windowDays := s.view.WindowDays
	if !(windowDays > 0) {
		windowDays = s.opts.WindowDays
	}
	s.view = compose.NewView(l.Dataset.Bounds(), windowDays)
	st := s.stateLocked()
	s.mu.Unlock()

	rows := 0
	for _, b := range l.Dataset.Bands {
		rows += len(b.Intervals)
	}
	s.opts.Metrics.Load("ok")
	s.opts.Metrics.SetDatasetRows(rows)
	appLog.Info("dataset loaded",
		"city", l.City,
		"year", l.Year,
		"bands", len(l.Dataset.Bands),
		"rows", rows,
		"yogas", len(resolved),
	)
	s.notify(st)
	return nil
}

// Loaded reports whether a dataset has been committed.
func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds != nil
}

// Info describes the loaded dataset and current view.
type Info struct {
	City     string                        `json:"city"`
	Year     int                           `json:"year"`
	Loaded   bool                          `json:"loaded"`
	Meta     panchanga.Meta                `json:"meta"`
	Bounds   interval.Interval             `json:"bounds"`
	Bands    []string                      `json:"bands"`
	Filters  []panchanga.FilterDef         `json:"filters"`
	Presets  map[string][]panchanga.Preset `json:"presets"`
	FoldMode compose.FoldMode              `json:"foldMode"`
	View     compose.View                  `json:"view"`
	Yogas    int                           `json:"yogas"`
}

func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := Info{
		City:     s.city,
		Year:     s.year,
		Loaded:   s.ds != nil,
		Bounds:   panchanga.DefaultBounds,
		Bands:    []string{},
		Filters:  panchanga.FilterDefs,
		Presets:  panchanga.Presets,
		FoldMode: s.foldMode,
		View:     s.view,
		Yogas:    len(s.resolved),
	}
	if s.ds != nil {
		info.Meta = s.ds.Meta
		info.Bounds = s.ds.Bounds()
		info.Bands = s.ds.BandKeys()
	}
	return info
}

// Options lists the selectable values of a filter.
func (s *Session) Options(filterKey string) []panchanga.Option {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.options == nil {
		return []panchanga.Option{}
	}
	return s.options.Options(filterKey)
}

// Rules returns the loaded rule set, or nil.
func (s *Session) Rules() *yoga.Rules {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules
}

func (s *Session) notify(st State) {
	if s.opts.OnChange != nil {
		s.opts.OnChange(st)
	}
}
