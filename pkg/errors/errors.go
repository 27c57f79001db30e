package errors

import "fmt"

// ErrorType classifies failures from the Cloudflare API
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// IsRetryable reports whether an error type should be retried. Only
// rate limiting and transport failures are retried; every other remote
// failure abandons the item permanently.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeRateLimit, ErrorTypeNetwork:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode reports whether an HTTP status code indicates a
// retryable failure. Status 0 stands for a transport error with no
// response.
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0:
		return true
	case 429:
		return true
	default:
		return false
	}
}
