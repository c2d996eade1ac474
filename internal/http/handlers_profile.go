package http

import (
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/log"
)

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, toUserJSON(user))

	case http.MethodPut:
		var req struct {
			FullName     string `json:"fullName"`
			BusinessName string `json:"businessName"`
			AvatarURL    string `json:"avatarUrl"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		err := s.store.UpdateUserProfile(r.Context(), user.ID,
			sanitizeInput(req.FullName), sanitizeInput(req.BusinessName), sanitizeInput(req.AvatarURL))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		updated, err := s.store.GetUserByID(r.Context(), user.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserJSON(updated))

	default:
		w.Header().Set("Allow", "GET, PUT")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user := currentUser(r)
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, http.StatusUnprocessableEntity, "password must be at least 8 characters")
		return
	}

	hasher := auth.NewHasher(0)

	// Accounts created through Google sign-in have no password yet; they can
	// set one without proving the current one.
	if user.PasswordHash != "" {
		if err := hasher.Compare(user.PasswordHash, req.CurrentPassword); err != nil {
			writeError(w, http.StatusUnauthorized, "wrong current password")
			return
		}
	}

	hash, err := hasher.Hash(req.NewPassword)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := s.store.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		writeServiceError(w, err)
		return
	}

	s.logger.InfoContext(r.Context(), "password changed", log.FieldUserID, user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

func (s *Server) handleToggleTwoFactor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user := currentUser(r)
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.authService.SetTwoFactor(r.Context(), user.ID, req.Enabled); err != nil {
		writeServiceError(w, err)
		return
	}

	s.logger.InfoContext(r.Context(), "two factor toggled",
		log.FieldUserID, user.ID, "enabled", req.Enabled)
	writeJSON(w, http.StatusOK, map[string]bool{"twoFactorEnabled": req.Enabled})
}
