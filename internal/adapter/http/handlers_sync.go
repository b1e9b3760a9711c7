package adapthttp

import (
	"fmt"
	"net/http"
)

func (s *Server) handleSyncTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	res := s.sync.Trigger(r.Context())
	if res.IsErr() {
		writeJSON(w, statusFor(res.Err()), map[string]any{
			"success": false,
			"message": res.Err().Error(),
		})
		return
	}

	rep := res.Value()
	msg := fmt.Sprintf("synced %d, conflicts %d, failed %d", rep.Synced, rep.Conflicts, rep.Failed)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   rep.Failed == 0,
		"message":   msg,
		"synced":    rep.Synced,
		"conflicts": rep.Conflicts,
		"failed":    rep.Failed,
		"pending":   s.sync.PendingCount(),
	})
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.sync.Status())
}

func (s *Server) handleSyncClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.sync.Clear(r.Context()); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "cleared"})
}
