package upstream

import "fmt"

// APIError is the terminal failure for an upstream call: a non-2xx response
// that survived (or bypassed) the retry policy. Transport failures are
// propagated as-is and never wrapped in an APIError.
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream: %s (status %d)", e.Message, e.StatusCode)
	}
	return "upstream: " + e.Message
}
