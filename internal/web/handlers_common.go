package web

// handlers_common.go holds request decoding shared by the JSON handlers.

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/JonMunkholm/euicc/internal/core"
)

// codeInvalidBody marks a request body that is not the expected JSON.
const codeInvalidBody = "REQ003"

// decodeJSON reads a single JSON value from the request body into v. The
// body is capped at the configured import size.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return core.BadRequest(codeInvalidBody, "request body is required")
		}
		return core.BadRequest(codeInvalidBody, "invalid JSON body: %s", err.Error())
	}
	if dec.More() {
		return core.BadRequest(codeInvalidBody, "invalid JSON body: unexpected data after top-level value")
	}
	return nil
}

// fieldRequired reports a missing top-level body field.
func fieldRequired(name string) error {
	return core.BadRequest(codeInvalidBody, "field required: %s", name)
}
