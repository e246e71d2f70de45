package httpapi

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"petfeeder/internal/feeder"
	logx "petfeeder/pkg/logx"
)

//go:embed index.html
var indexPage []byte

// stateResponse is the wire shape of the get-state snapshot. Day/hour/minute
// are -1 when unset; events always has exactly feeder.LogSize entries,
// oldest-first.
type stateResponse struct {
	FeedDay    int      `json:"feedDay"`
	FeedHour   int      `json:"feedHour"`
	FeedMinute int      `json:"feedMinute"`
	Events     []string `json:"events"`
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexPage)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if !s.allowFeed() {
		http.Error(w, "feeding too often; try again shortly", http.StatusTooManyRequests)
		return
	}
	msg := s.svc.ManualFeed(r.Context())
	s.log.Info("manual feed requested", logx.String("remote", r.RemoteAddr))
	writeText(w, http.StatusOK, msg)
}

func (s *Server) handleSetSchedule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var upd feeder.Update
	var err error
	if upd.Day, err = intParam(q.Get("day")); err != nil {
		http.Error(w, "bad day: "+err.Error(), http.StatusBadRequest)
		return
	}
	if upd.Hour, err = intParam(q.Get("hour")); err != nil {
		http.Error(w, "bad hour: "+err.Error(), http.StatusBadRequest)
		return
	}
	if upd.Minute, err = intParam(q.Get("minute")); err != nil {
		http.Error(w, "bad minute: "+err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := s.svc.SetSchedule(r.Context(), upd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeText(w, http.StatusOK, msg)
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	st := s.svc.GetState()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(stateResponse{
		FeedDay:    st.Day,
		FeedHour:   st.Hour,
		FeedMinute: st.Minute,
		Events:     st.Events,
	})
}

// intParam parses an optional integer query parameter.
// Absent means "leave the prior value untouched" (nil).
func intParam(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("not an integer: %q", raw)
	}
	return &v, nil
}

func writeText(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(msg + "\n"))
}
