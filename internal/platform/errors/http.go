package errors

import "net/http"

// HTTPStatus maps a domain error to the HTTP status code the JSON API
// should answer with. Nil maps to 200.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch {
	case IsValidation(err):
		return http.StatusBadRequest
	case IsUnsupported(err):
		return http.StatusUnprocessableEntity
	case IsTimeout(err):
		// Aggregate batch timeouts still return partial results; the
		// handler keeps 200 and marks the body. Other timeouts map here.
		return http.StatusGatewayTimeout
	case CodeOf(err) == CodeResourceNotFound:
		return http.StatusNotFound
	case IsTransient(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
