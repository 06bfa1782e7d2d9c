package session

import (
	"muhurta/internal/compose"
	"muhurta/internal/yoga"
)

// State is the part of a session worth keeping across restarts.
type State struct {
	City       string              `json:"city"`
	Year       int                 `json:"year"`
	FoldMode   compose.FoldMode    `json:"foldMode"`
	WindowDays float64             `json:"windowDays,omitempty"`
	Conditions []compose.Condition `json:"conditions"`
	YogaFilter yoga.Filter         `json:"yogaFilter"`
}

// State snapshots the persisted state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	return State{
		City:       s.city,
		Year:       s.year,
		FoldMode:   s.foldMode,
		WindowDays: s.view.WindowDays,
		Conditions: cloneConditions(s.conds),
		YogaFilter: s.yogaFilter,
	}
}

// Restore applies a saved state. Conditions are normalized, so records
// missing an id, op, polarity or band key get defaults. City and year are
// returned for the caller to load; they are not applied until a Commit.
func (s *Session) Restore(st State) (city string, year int) {
	conds := make([]compose.Condition, 0, len(st.Conditions))
	for _, c := range st.Conditions {
		conds = append(conds, c.Normalize())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conds = conds
	if st.FoldMode != "" {
		s.foldMode = compose.ParseFoldMode(string(st.FoldMode))
	}
	if st.WindowDays > 0 {
		s.view.SetWindowDays(st.WindowDays)
	}
	s.yogaFilter = st.YogaFilter
	return st.City, st.Year
}
