package http

import (
	"net/http"
)

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	switch r.Method {
	case http.MethodGet:
		categories, err := s.categories.List(r.Context(), user.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		out := make([]categoryJSON, 0, len(categories))
		for _, c := range categories {
			out = append(out, toCategoryJSON(c))
		}
		writeJSON(w, http.StatusOK, map[string]any{"categories": out})

	case http.MethodPost:
		var req categoryRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		created, err := s.categories.Create(r.Context(), user, req.toCategory())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toCategoryJSON(created))

	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCategoryItem(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req categoryRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		c := req.toCategory()
		c.ID = id

		updated, err := s.categories.Update(r.Context(), user.ID, c)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCategoryJSON(updated))

	case http.MethodDelete:
		if err := s.categories.Delete(r.Context(), user.ID, id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		w.Header().Set("Allow", "PUT, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
