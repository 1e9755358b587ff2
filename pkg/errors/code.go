package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Submission input errors
// 12000-12999: Compilation errors
// 13000-13999: Execution errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	TooManyRequests     ErrorCode = 10004
	ServiceUnavailable  ErrorCode = 10005
	Timeout             ErrorCode = 10006

	// Infrastructure errors (10100-10199)
	WorkspaceError    ErrorCode = 10100
	ProcessSpawnError ErrorCode = 10101
	CacheError        ErrorCode = 10102

	// Validation errors (10300-10399)
	ValidationFailed ErrorCode = 10300

	// ========== Submission Input Errors (11000-11999) ==========

	EmptySource    ErrorCode = 11000
	SourceTooLarge ErrorCode = 11001
	NoClassFound   ErrorCode = 11002

	// ========== Compilation Errors (12000-12999) ==========

	CompileFailed  ErrorCode = 12000
	CompileTimeout ErrorCode = 12001

	// ========== Execution Errors (13000-13999) ==========

	ExecuteFailed  ErrorCode = 13000
	ExecuteTimeout ErrorCode = 13001
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	TooManyRequests:     "Too many requests, please try again later",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Infrastructure
	WorkspaceError:    "Failed to prepare submission workspace",
	ProcessSpawnError: "Failed to start sandbox process",
	CacheError:        "Artifact cache operation failed",

	// Validation
	ValidationFailed: "Validation failed",

	// Submission input
	EmptySource:    "Source code cannot be empty",
	SourceTooLarge: "Source code exceeds the maximum allowed size",
	NoClassFound:   "Could not find a class declaration in the source code",

	// Compilation
	CompileFailed:  "Compilation failed",
	CompileTimeout: "Compilation timed out",

	// Execution
	ExecuteFailed:  "Execution failed",
	ExecuteTimeout: "Execution timed out",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound:
		return 404
	case c == TooManyRequests:
		return 429
	case c == ServiceUnavailable:
		return 503
	case c == InvalidParams, c == ValidationFailed:
		return 400
	case c >= 11000 && c < 12000: // submission input errors
		return 400
	default:
		return 500
	}
}

// IsInputError reports whether the code denotes a problem with the
// submitted source rather than a server-side fault.
func (c ErrorCode) IsInputError() bool {
	return c >= 11000 && c < 12000
}
