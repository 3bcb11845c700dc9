package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/euicc/internal/core"
)

// importRequest is the body of the JSON and text import endpoints.
// Profiles is a pointer so that a missing key can be told apart from an
// empty list.
type importRequest struct {
	Profiles *[]core.RawFields `json:"profiles"`
}

// scanRequest is the body of POST /api/profiles/scan.
type scanRequest struct {
	Text *string `json:"text"`
}

func (s *Server) decodeImport(w http.ResponseWriter, r *http.Request) ([]core.RawFields, error) {
	var req importRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	if req.Profiles == nil {
		return nil, fieldRequired("profiles")
	}
	return *req.Profiles, nil
}

func (s *Server) handleImportJSON(w http.ResponseWriter, r *http.Request) {
	records, err := s.decodeImport(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.ImportJSON(r.Context(), records)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// handleImportText imports records previously returned by the scan endpoint,
// possibly edited by the client.
func (s *Server) handleImportText(w http.ResponseWriter, r *http.Request) {
	records, err := s.decodeImport(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.ImportText(r.Context(), records)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// handleImportCSV streams the uploaded "file" part into the importer.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.respondError(w, r, err)
			return
		}
		s.respondError(w, r, core.BadRequest(codeInvalidBody, "invalid multipart form: %s", err.Error()))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fieldRequired("file"))
		return
	}
	defer file.Close()

	result, err := s.service.ImportCSV(r.Context(), file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// handleScanText extracts candidate profiles from free text. Nothing is
// stored; the client reviews the result and posts it to /import/text.
func (s *Server) handleScanText(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Text == nil {
		s.respondError(w, r, fieldRequired("text"))
		return
	}

	writeJSON(w, core.ScanText(*req.Text))
}
