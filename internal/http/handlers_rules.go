package http

import (
	"net/http"
)

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	switch r.Method {
	case http.MethodGet:
		rules, err := s.rules.List(r.Context(), user.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		out := make([]ruleJSON, 0, len(rules))
		for _, rule := range rules {
			out = append(out, toRuleJSON(rule))
		}
		writeJSON(w, http.StatusOK, map[string]any{"rules": out})

	case http.MethodPost:
		var req ruleRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rule, err := req.toRule()
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		created, err := s.rules.Create(r.Context(), user, rule)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRuleJSON(created))

	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRuleItem(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		rule, err := s.rules.Get(r.Context(), user.ID, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRuleJSON(rule))

	case http.MethodPut:
		var req ruleRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rule, err := req.toRule()
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		rule.ID = id

		updated, err := s.rules.Update(r.Context(), user.ID, rule)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRuleJSON(updated))

	case http.MethodDelete:
		if err := s.rules.Delete(r.Context(), user.ID, id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
