package riot

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrNotFound  = errors.New("riot: not found")
	ErrForbidden = errors.New("riot: forbidden, check RIOT_API_KEY")
)

// APIError is a non-2xx response from the Riot API.
type APIError struct {
	Status     int
	RetryAfter time.Duration
	Body       string
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("riot API request failed (%d), retry after %s", e.Status, e.RetryAfter)
	}
	return fmt.Sprintf("riot API request failed (%d)", e.Status)
}

// Is maps 404 and 403 onto the sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	}
	return false
}

// StatusOf returns the upstream status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
