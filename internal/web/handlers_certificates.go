package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/euicc/internal/core"
)

// parseRequest is the body of POST /api/certificates/parse.
type parseRequest struct {
	PEMData string `json:"pem_data"`
}

func (s *Server) handleListCertificates(w http.ResponseWriter, r *http.Request) {
	certs, err := s.service.ListCertificates(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, certs)
}

func (s *Server) handleGetCertificate(w http.ResponseWriter, r *http.Request) {
	c, err := s.service.GetCertificate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, c)
}

func (s *Server) handleCreateCertificate(w http.ResponseWriter, r *http.Request) {
	var in core.CertificateInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	c, err := s.service.CreateCertificate(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, c)
}

func (s *Server) handleDeleteCertificate(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteCertificate(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, core.DeleteResult{Message: "Certificate deleted successfully"})
}

// handleParseCertificate previews a PEM certificate without storing it.
func (s *Server) handleParseCertificate(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	parsed, err := s.service.ParseCertificate(r.Context(), req.PEMData)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, parsed)
}
