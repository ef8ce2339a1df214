package server

import (
	"context"
	"errors"
	"net/http"
)

// HTTPStatus returns the appropriate HTTP status code for a store error
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
