package session

import (
	"slices"

	"muhurta/internal/compose"
	"muhurta/internal/panchanga"
	"muhurta/internal/yoga"
)

// Conditions returns a copy of the ordered condition list.
func (s *Session) Conditions() []compose.Condition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneConditions(s.conds)
}

// AddCondition normalizes c and appends it.
func (s *Session) AddCondition(c compose.Condition) compose.Condition {
	c = c.Normalize()
	s.mu.Lock()
	s.conds = append(s.conds, c)
	st := s.stateLocked()
	s.mu.Unlock()
	s.notify(st)
	return c
}

// ConditionPatch updates the non-nil fields of a condition.
type ConditionPatch struct {
	Label      *string           `json:"label"`
	Op         *compose.Op       `json:"op"`
	Polarity   *compose.Polarity `json:"polarity"`
	Selections *[]panchanga.Code `json:"selections"`
}

func (s *Session) UpdateCondition(id string, p ConditionPatch) (compose.Condition, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return compose.Condition{}, ErrNoCondition
	}
	c := s.conds[i]
	if p.Label != nil {
		c.Label = *p.Label
	}
	if p.Op != nil {
		c.Op = *p.Op
	}
	if p.Polarity != nil {
		c.Polarity = *p.Polarity
	}
	if p.Selections != nil {
		c.Selections = slices.Clone(*p.Selections)
	}
	c = c.Normalize()
	s.conds[i] = c
	st := s.stateLocked()
	s.mu.Unlock()
	s.notify(st)
	return c, nil
}

func (s *Session) RemoveCondition(id string) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNoCondition
	}
	s.conds = slices.Delete(s.conds, i, i+1)
	st := s.stateLocked()
	s.mu.Unlock()
	s.notify(st)
	return nil
}

func (s *Session) FoldMode() compose.FoldMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.foldMode
}

func (s *Session) SetFoldMode(m compose.FoldMode) {
	s.mu.Lock()
	if s.foldMode == m {
		s.mu.Unlock()
		return
	}
	s.foldMode = m
	st := s.stateLocked()
	s.mu.Unlock()
	s.notify(st)
}

// ViewUpdate moves or zooms the view. Zoom applies before pan, and an
// explicit Start wins over PanRatio.
type ViewUpdate struct {
	Start      *float64 `json:"start"`
	WindowDays *float64 `json:"windowDays"`
	PanRatio   *float64 `json:"panRatio"`
}

func (s *Session) View() compose.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// SetView applies u. A change of window days is persisted; panning is not.
func (s *Session) SetView(u ViewUpdate) compose.View {
	s.mu.Lock()
	days := s.view.WindowDays
	if u.WindowDays != nil {
		s.view.SetWindowDays(*u.WindowDays)
	}
	switch {
	case u.Start != nil:
		s.view.Apply(*u.Start)
	case u.PanRatio != nil:
		s.view.SetPanRatio(*u.PanRatio)
	}
	v := s.view
	zoomed := v.WindowDays != days
	st := s.stateLocked()
	s.mu.Unlock()
	if zoomed {
		s.notify(st)
	}
	return v
}

func (s *Session) YogaFilter() yoga.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.yogaFilter
}

func (s *Session) SetYogaFilter(f yoga.Filter) {
	s.mu.Lock()
	s.yogaFilter = f
	st := s.stateLocked()
	s.mu.Unlock()
	s.notify(st)
}

func (s *Session) indexLocked(id string) int {
	return slices.IndexFunc(s.conds, func(c compose.Condition) bool {
		return c.ID == id
	})
}

func cloneConditions(in []compose.Condition) []compose.Condition {
	out := make([]compose.Condition, len(in))
	for i, c := range in {
		c.Selections = slices.Clone(c.Selections)
		out[i] = c
	}
	return out
}
