package http

import (
	"net/http"

	"fintrack/internal/log"
)

// handleNotifications serves the in-app feed: upcoming rule firings, the
// free-plan export warning and the weekly activity nudge.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user := currentUser(r)
	items, err := s.notifications.Notifications(r.Context(), user)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "build notifications failed",
			log.FieldUserID, user.ID, log.FieldError, err)
		writeServiceError(w, err)
		return
	}

	out := make([]notificationJSON, 0, len(items))
	for _, n := range items {
		out = append(out, notificationJSON{Message: n.Message, Read: n.Read})
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": out})
}
