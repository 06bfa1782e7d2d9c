package web

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"muhurta/internal/compose"
	"muhurta/internal/config"
	"muhurta/internal/ics"
	appLog "muhurta/internal/log"
	"muhurta/internal/session"
	"muhurta/internal/yoga"
)

type metaResponse struct {
	session.Info
	Datasets   []config.DatasetConfig `json:"datasets"`
	Conditions []compose.Condition    `json:"conditions"`
}

func (s *Server) handleMeta(w http.ResponseWriter, _ *http.Request) {
	resp := metaResponse{
		Info:       s.sess.Info(),
		Datasets:   []config.DatasetConfig{},
		Conditions: s.sess.Conditions(),
	}
	if s.cfg != nil {
		resp.Datasets = s.cfg.Datasets
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/options?filter=<key>
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("filter")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing filter")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"filter":  key,
		"options": s.sess.Options(key),
	})
}

func (s *Server) handleListConditions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Conditions())
}

func (s *Server) handleAddCondition(w http.ResponseWriter, r *http.Request) {
	var c compose.Condition
	if err := decodeBody(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// ids are assigned here, never taken from the client
	c.ID = ""
	c = s.sess.AddCondition(c)
	appLog.Debug("condition added", "id", c.ID, "filter", c.FilterKey)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCondition(w http.ResponseWriter, r *http.Request) {
	var p session.ConditionPatch
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.Op != nil && *p.Op != compose.OpAnd && *p.Op != compose.OpOr {
		writeError(w, http.StatusBadRequest, "op must be AND or OR")
		return
	}
	if p.Polarity != nil && *p.Polarity != compose.Include && *p.Polarity != compose.Exclude {
		writeError(w, http.StatusBadRequest, "polarity must be INCLUDE or EXCLUDE")
		return
	}
	c, err := s.sess.UpdateCondition(r.PathValue("id"), p)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleRemoveCondition(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.RemoveCondition(r.PathValue("id")); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFoldMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.sess.SetFoldMode(compose.ParseFoldMode(req.Mode))
	writeJSON(w, http.StatusOK, map[string]compose.FoldMode{"mode": s.sess.FoldMode()})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	var u session.ViewUpdate
	if err := decodeBody(r, &u); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.sess.SetView(u))
}

func (s *Server) handleCompose(w http.ResponseWriter, _ *http.Request) {
	res, err := s.sess.Compose()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleComposeICS(w http.ResponseWriter, _ *http.Request) {
	res, err := s.sess.Compose()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	st := s.sess.State()
	name := fmt.Sprintf("Muhurta matches %s %d", st.City, st.Year)
	writeCalendar(w, "matches.ics", ics.ExportMatches(name, res.Slots, s.now()))
}

func (s *Server) handleYogas(w http.ResponseWriter, _ *http.Request) {
	res, err := s.sess.Yogas()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetYogaFilter(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.YogaFilter())
}

func (s *Server) handleSetYogaFilter(w http.ResponseWriter, r *http.Request) {
	var f yoga.Filter
	if err := decodeBody(r, &f); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.sess.SetYogaFilter(f)
	writeJSON(w, http.StatusOK, f)
}

// GET /api/yogas/active?t=<jd>; t defaults to the view start.
func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	t := parseFloatOrNaN(r.URL.Query().Get("t"))
	if math.IsNaN(t) {
		t = s.sess.View().Start
	}
	good, bad, err := s.sess.ActiveAt(t)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"t": t, "good": good, "bad": bad})
}

// GET /api/slots?good_only=1&base=<jd>&yoga=<name>
//   - good_only: sweep good-only windows (default 1); 0 lists every yoga window
//   - base:      start instant in Julian days; defaults to the view start
//   - yoga:      repeatable; keep slots containing one of these yogas
func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	base := parseFloatOrNaN(q.Get("base"))
	names := yogaNames(q["yoga"])

	if parseIntDefault(q.Get("good_only"), 1) == 0 {
		entries, err := s.sess.AllSlots(base, names)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"goodOnly": false, "slots": entries})
		return
	}

	slots, err := s.sess.GoodOnly(base, names)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"goodOnly": true, "slots": slots})
}

func (s *Server) handleSlotsICS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	slots, err := s.sess.GoodOnly(parseFloatOrNaN(q.Get("base")), yogaNames(q["yoga"]))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	st := s.sess.State()
	name := fmt.Sprintf("Muhurta good windows %s %d", st.City, st.Year)
	writeCalendar(w, "good-windows.ics", ics.ExportGoodOnly(name, slots, s.now()))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.reload == nil {
		writeError(w, http.StatusNotImplemented, "reload not available")
		return
	}
	var req struct {
		City string `json:"city"`
		Year int    `json:"year"`
	}
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.City != "" && req.Year > 0 && s.cfg != nil && !s.cfg.HasDataset(req.City, req.Year) {
		writeError(w, http.StatusBadRequest, "unknown dataset")
		return
	}
	if err := s.reload(r.Context(), req.City, req.Year); err != nil {
		if errors.Is(err, session.ErrStaleLoad) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		appLog.Error("api reload failed", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Info())
}

func yogaNames(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func writeCalendar(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
