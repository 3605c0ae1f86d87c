package web

// # Error Codes Reference
//
// Error codes are grouped by category:
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Connection refused: Unable to connect to database
//	DB002 - Connection reset: Database connection was interrupted
//	DB003 - Timeout: Operation timed out
//	DB004 - Deadlock: Database was busy with conflicting operations
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - No records: The import contained no records
//	IMP002 - Missing model: Model name is required
//	IMP003 - Mixed models: All records of one import must share a model
//	IMP004 - Bad key: Switch and bit numbers must be non-negative
//	IMP005 - Too large: Request body exceeds the size limit
//	IMP006 - Invalid JSON: Request body is not a JSON array of records
//	IMP007 - Missing query: A model query parameter is required
//	IMP008 - Busy: Too many imports are running
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Bad format: The export format is not csv, json or sql
//	EXP002 - Unknown model: No records are stored for the model
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - File not found: The table dump does not exist
//	SRC002 - Unsupported format: The table dump has an unknown extension
//	SRC003 - Invalid patch: A patch rule is malformed
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// Patterns are matched case-insensitively using strings.Contains and the
// first match wins.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. Specific patterns come before general ones.
var errorPatterns = []errorPattern{
	// Import
	{
		pattern: "no records to import",
		msg: UserMessage{
			Message: "The import contained no records",
			Action:  "Check that the model has DIP switch tables",
			Code:    "IMP001",
		},
	},
	{
		pattern: "model name is required",
		msg: UserMessage{
			Message: "Model name is required",
			Action:  "Set model_name on every record",
			Code:    "IMP002",
		},
	},
	{
		pattern: "mixed models",
		msg: UserMessage{
			Message: "All records of one import must share a model",
			Action:  "Split the upload per model",
			Code:    "IMP003",
		},
	},
	{
		pattern: "invalid switch key",
		msg: UserMessage{
			Message: "Switch and bit numbers must be non-negative",
			Action:  "Review the records for negative switch or bit numbers",
			Code:    "IMP004",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "Request body exceeds the size limit",
			Action:  "Upload fewer records per request",
			Code:    "IMP005",
		},
	},
	{
		pattern: "invalid json",
		msg: UserMessage{
			Message: "Request body is not a JSON array of records",
			Action:  "Send the output of the parse command unchanged",
			Code:    "IMP006",
		},
	},
	{
		pattern: "model parameter is required",
		msg: UserMessage{
			Message: "A model query parameter is required",
			Action:  "Add ?model=<name> to the request",
			Code:    "IMP007",
		},
	},
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "Too many imports are running",
			Action:  "Please wait a moment and try again",
			Code:    "IMP008",
		},
	},

	// Export
	{
		pattern: "invalid export format",
		msg: UserMessage{
			Message: "Unknown export format",
			Action:  "Use format=csv, format=json or format=sql",
			Code:    "EXP001",
		},
	},
	{
		pattern: "no stored records",
		msg: UserMessage{
			Message: "No records are stored for this model",
			Action:  "Import the model first",
			Code:    "EXP002",
		},
	},

	// Source
	{
		pattern: "file not found",
		msg: UserMessage{
			Message: "The table dump does not exist",
			Action:  "Check the path to the extracted tables",
			Code:    "SRC001",
		},
	},
	{
		pattern: "unsupported table dump format",
		msg: UserMessage{
			Message: "The table dump has an unknown format",
			Action:  "Use a .json dump or an .xlsx workbook",
			Code:    "SRC002",
		},
	},
	{
		pattern: "invalid patch rule",
		msg: UserMessage{
			Message: "A patch rule is malformed",
			Action:  "Fix the patch file and retry",
			Code:    "SRC003",
		},
	},

	// Database
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try again with fewer records",
			Code:    "DB003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try again with fewer records",
			Code:    "DB003",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
