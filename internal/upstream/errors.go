package upstream

import (
	"errors"
	"fmt"
)

// APIError is a failure the backend reported: either a non-2xx status or a
// 2xx body carrying success:false. Transport failures (no response at all)
// are ordinary wrapped errors, not APIErrors.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
}

// AsAPIError unwraps err into an *APIError when the backend answered with a
// failure, distinguishing "the backend said no" from "the backend was
// unreachable".
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
