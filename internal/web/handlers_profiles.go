package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/euicc/internal/core"
)

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.service.ListProfiles(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, profiles)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// handleCreateProfile answers 200 with the stored profile, matching the
// status existing clients expect.
func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var in core.ProfileInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	p, err := s.service.CreateProfile(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// handleUpdateProfile merges the fields present in the body. Fields that are
// absent or null are left untouched.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var u core.ProfileUpdate
	if err := s.decodeJSON(w, r, &u); err != nil {
		s.respondError(w, r, err)
		return
	}

	p, err := s.service.UpdateProfile(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteProfile(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, core.DeleteResult{Message: "Profile deleted successfully"})
}

func (s *Server) handleEnableProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.EnableProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (s *Server) handleDisableProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.DisableProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, p)
}
