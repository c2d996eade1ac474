package http

import (
	"net/http"

	"fintrack/internal/log"
)

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listEntries(w, r)
	case http.MethodPost:
		s.createEntry(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	entries, err := s.entries.List(r.Context(), user.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list entries failed",
			log.FieldUserID, user.ID, log.FieldError, err)
		writeServiceError(w, err)
		return
	}

	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryJSON(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	entry, receipt, err := parseEntryRequest(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.entries.Create(r.Context(), user, entry, receipt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryJSON(created))
}

func (s *Server) handleEntryItem(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		entry, err := s.entries.Get(r.Context(), user.ID, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEntryJSON(entry))

	case http.MethodPut:
		entry, receipt, err := parseEntryRequest(r)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		entry.ID = id

		updated, err := s.entries.Update(r.Context(), user.ID, entry, receipt)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEntryJSON(updated))

	case http.MethodDelete:
		if err := s.entries.Delete(r.Context(), user.ID, id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleEntryReceipt streams the stored receipt blob.
func (s *Server) handleEntryReceipt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user := currentUser(r)
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := s.entries.Receipt(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", receipt.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(receipt.Data)
}
