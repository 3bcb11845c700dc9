package core

import (
	"errors"
	"fmt"
)

// Kind classifies service failures so the transport can pick a status code.
type Kind int

const (
	// KindInternal is a store fault or any unclassified failure.
	KindInternal Kind = iota
	// KindNotFound means an id did not resolve to a stored record.
	KindNotFound
	// KindConflict means a profile with the same ICCID already exists.
	KindConflict
	// KindBadRequest covers missing fields, empty PEM input, decode failures
	// and structurally invalid import payloads.
	KindBadRequest
	// KindUnavailable means the import limiter had no free slot in time.
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBadRequest:
		return "bad_request"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Support codes for domain errors. Store and transport faults use the
// pattern table in error_messages.go instead.
const (
	CodeProfileNotFound     = "PRF001"
	CodeDuplicateICCID      = "PRF002"
	CodeInvalidProfile      = "PRF003"
	CodeCertificateNotFound = "CRT001"
	CodeInvalidCertificate  = "CRT002"
	CodePEMRequired         = "CRT003"
	CodeCertificateParse    = "CRT004"
	CodeImportFailed        = "IMP001"
	CodeTooManyImports      = "IMP002"
)

// Error is a classified service error. Message is safe to show to clients;
// Err, when set, holds the underlying cause for logging.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound returns a KindNotFound error.
func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// Conflict returns a KindConflict error wrapping cause.
func Conflict(code, message string, cause error) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message, Err: cause}
}

// BadRequest returns a KindBadRequest error with a formatted message.
func BadRequest(code, format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Code: code, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the Kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a KindNotFound error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict reports whether err is a KindConflict error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsBadRequest reports whether err is a KindBadRequest error.
func IsBadRequest(err error) bool { return KindOf(err) == KindBadRequest }

func errProfileNotFound() error {
	return NotFound(CodeProfileNotFound, "Profile not found")
}

func errCertificateNotFound() error {
	return NotFound(CodeCertificateNotFound, "Certificate not found")
}

func errDuplicateICCID(cause error) error {
	return Conflict(CodeDuplicateICCID, "Profile with this ICCID already exists", cause)
}

// withPrefix rewrites a BadRequest message as "<prefix>: <message>".
// Other kinds pass through unchanged.
func withPrefix(prefix string, err error) error {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindBadRequest {
		return &Error{Kind: e.Kind, Code: e.Code, Message: prefix + ": " + e.Message, Err: e.Err}
	}
	return err
}
