package adapthttp

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"trainlog/internal/app"
	"trainlog/internal/domain"
	"trainlog/internal/errs"
)

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	key, err := domain.ParseWeekKey(strings.TrimPrefix(r.URL.Path, "/week/"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleWeekGet(w, r, key)
	case http.MethodPut:
		s.handleWeekPut(w, r, key)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleWeekGet(w http.ResponseWriter, r *http.Request, key domain.WeekKey) {
	refresh := r.URL.Query().Get("refresh") == "1"

	res := s.storage.Load(r.Context(), key, refresh)
	if res.IsErr() {
		writeError(w, statusFor(res.Err()), res.Err())
		return
	}
	load := res.Value()
	if !load.Found {
		writeError(w, http.StatusNotFound, errors.New("no record for "+key.String()))
		return
	}
	writeJSON(w, http.StatusOK, load)
}

type weekPutRequest struct {
	Target       domain.Target     `json:"target"`
	DailyLogs    []domain.DailyLog `json:"dailyLogs"`
	LastModified time.Time         `json:"lastModified"`
}

func (s *Server) handleWeekPut(w http.ResponseWriter, r *http.Request, key domain.WeekKey) {
	var req weekPutRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec := domain.WeekRecord{
		Year:         key.Year,
		Week:         key.Week,
		Target:       req.Target,
		DailyLogs:    req.DailyLogs,
		LastModified: req.LastModified,
	}
	if rec.LastModified.IsZero() {
		rec.LastModified = time.Now()
	}
	if err := rec.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res := s.storage.Save(r.Context(), rec)
	if res.IsErr() {
		err := res.Err()
		var conflict *app.ConflictError
		if errors.As(err, &conflict) {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":  conflict.Error(),
				"remote": conflict.Remote,
			})
			return
		}
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res.Value())
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.Auth:
		return http.StatusUnauthorized
	case errs.Network, errs.DoubleFailure:
		return http.StatusBadGateway
	case errs.Conflict:
		return http.StatusConflict
	case errs.Quota:
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}
