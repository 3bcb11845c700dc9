package web

// errors.go turns service errors into JSON responses.
//
// Every error body has the same shape:
//
//	{"detail": "Profile not found", "code": "PRF001"}
//
// Domain errors keep their message. Anything unclassified is logged in
// full and replaced by the mapped user message, plus an "action" hint, so
// store internals never reach the client.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/euicc/internal/core"
	"github.com/JonMunkholm/euicc/internal/logging"
)

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
	Action string `json:"action,omitempty"`
}

// statusFor maps an error kind to an HTTP status. A duplicate ICCID is a
// 400, not a 409, for compatibility with existing clients.
func statusFor(kind core.Kind) int {
	switch kind {
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict, core.KindBadRequest:
		return http.StatusBadRequest
	case core.KindUnavailable:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err with the request ID and writes the JSON envelope.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := core.KindOf(err)
	status := statusFor(kind)
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		status = http.StatusRequestEntityTooLarge
	}
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context()).With(
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
	)
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "error", err.Error())
	} else {
		logger.Debug("request rejected", "kind", kind.String(), "error", err.Error())
	}

	writeError(w, status, msg)
}

// writeError writes msg as an ErrorResponse with the given status.
func writeError(w http.ResponseWriter, status int, msg core.UserMessage) {
	writeJSONStatus(w, status, ErrorResponse{Detail: msg.Message, Code: msg.Code, Action: msg.Action})
}

// writeJSON encodes v as a 200 response.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
