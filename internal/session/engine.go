package session

import (
	"math"
	"time"

	"muhurta/internal/compose"
	"muhurta/internal/interval"
	"muhurta/internal/sweep"
	"muhurta/internal/yoga"
)

// ComposeResult is the composed match windows for the current view.
type ComposeResult struct {
	FoldMode compose.FoldMode    `json:"foldMode"`
	View     compose.View        `json:"view"`
	Windows  []interval.Interval `json:"windows"`
	Slots    []compose.Slot      `json:"slots"`
	Total    float64             `json:"totalDays"`
}

// Compose folds the current conditions over the current view.
func (s *Session) Compose() (ComposeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ds == nil {
		return ComposeResult{}, ErrNotLoaded
	}

	start := time.Now()
	windows := compose.Compose(s.ds, s.conds, s.foldMode, s.view.Range())
	s.opts.Metrics.ObserveCompute("compose", time.Since(start), len(windows))

	return ComposeResult{
		FoldMode: s.foldMode,
		View:     s.view,
		Windows:  windows,
		Slots:    compose.BuildSlots(s.ds, s.conds, windows, s.options),
		Total:    interval.Total(windows),
	}, nil
}

// YogaResult is the filtered yoga windows with a summary over the view.
type YogaResult struct {
	View    compose.View    `json:"view"`
	Yogas   []yoga.Resolved `json:"yogas"`
	Summary yoga.Summary    `json:"summary"`
	Total   int             `json:"totalRules"`
}

func (s *Session) Yogas() (YogaResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ds == nil {
		return YogaResult{}, ErrNotLoaded
	}
	filtered := s.filteredLocked()
	return YogaResult{
		View:    s.view,
		Yogas:   filtered,
		Summary: yoga.Summarize(filtered, s.view.Range()),
		Total:   len(s.resolved),
	}, nil
}

// ActiveAt lists the yogas active at t within the view.
func (s *Session) ActiveAt(t float64) (good, bad []string, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ds == nil {
		return nil, nil, ErrNotLoaded
	}
	good, bad = yoga.ActiveAt(s.filteredLocked(), s.view.Range(), t)
	return good, bad, nil
}

// GoodOnly sweeps the filtered yogas from base to the view end. A NaN base
// starts at the view start. names, when given, keep only slots containing
// one of them.
func (s *Session) GoodOnly(base float64, names []string) ([]sweep.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ds == nil {
		return nil, ErrNotLoaded
	}
	if math.IsNaN(base) {
		base = s.view.Start
	}

	start := time.Now()
	slots := sweep.GoodOnly(s.filteredLocked(), base, s.view.Range())
	s.opts.Metrics.ObserveCompute("good_only", time.Since(start), len(slots))
	return sweep.FilterSlots(slots, names), nil
}

// AllSlots lists every filtered yoga window ending after base.
func (s *Session) AllSlots(base float64, names []string) ([]sweep.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ds == nil {
		return nil, ErrNotLoaded
	}
	if math.IsNaN(base) {
		base = s.view.Start
	}
	return sweep.FilterEntries(sweep.AllSlots(s.filteredLocked(), base), names), nil
}

func (s *Session) filteredLocked() []yoga.Resolved {
	start := time.Now()
	out := s.yogaFilter.Apply(s.ds, s.resolved)
	s.opts.Metrics.ObserveCompute("yoga_filter", time.Since(start), len(out))
	return out
}
