package core

// error_messages.go maps technical errors (store, transport, request
// handling) to support-friendly messages with a code.
//
// Domain failures already carry a code on *Error (PRF, CRT, IMP ranges).
// Everything else is matched here by pattern:
//
//	STO001 - Duplicate key          "duplicate key"
//	STO002 - Record not found       "document not found"
//	STO003 - Store unreachable      "connection refused"
//	STO004 - Store interrupted      "connection reset"
//	STO005 - Store timeout          "timeout"
//	STO006 - Store busy             "deadlock"
//	FILE001 - File too large        "request body too large"
//	REQ001 - Request cancelled      "context canceled"
//	REQ002 - Request timeout        "context deadline exceeded"
//	RATE001 - Rate limited          "rate limit"
//	ERR000 - Unknown error          fallback
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"errors"
	"strings"
)

// UserMessage provides a user-facing description of a failure. Action is
// only set for mapped store and transport faults.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Store errors
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Check for duplicate ICCIDs and retry",
			Code:    "STO001",
		},
	},
	{
		pattern: "document not found",
		msg: UserMessage{
			Message: "Record not found",
			Action:  "Refresh the list and try again",
			Code:    "STO002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the record store",
			Action:  "Please try again in a few moments",
			Code:    "STO003",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Record store connection was interrupted",
			Action:  "Please try again",
			Code:    "STO004",
		},
	},
	// Request errors must precede "timeout" so deadline errors keep their own code.
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller import or try again later",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Record store operation timed out",
			Action:  "Please try again later",
			Code:    "STO005",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Record store was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "STO006",
		},
	},

	// Request limits
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches. Check the logs for
// the original error when a client reports ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-facing message.
// A classified *Error keeps its own message and code; anything else is
// matched against the pattern table, falling back to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return UserMessage{Message: e.Message, Code: e.Code}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}
