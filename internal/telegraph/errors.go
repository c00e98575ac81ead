package telegraph

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Sentinel errors for page service failures.
var (
	ErrRateLimited    = errors.New("flood control exceeded")
	ErrAuth           = errors.New("access token invalid or missing")
	ErrInvalidContent = errors.New("page content rejected")
	ErrRemote         = errors.New("page service request failed")
)

var floodWait = regexp.MustCompile(`^FLOOD_WAIT_(\d+)$`)

// APIError is an error code returned by the page service. Flood-control
// codes carry the wait the service demands before the next request.
type APIError struct {
	Code       string
	RetryAfter time.Duration
}

func newAPIError(code string) *APIError {
	e := &APIError{Code: code}
	if m := floodWait.FindStringSubmatch(code); m != nil {
		n, _ := strconv.Atoi(m[1])
		e.RetryAfter = time.Duration(n) * time.Second
	}
	return e
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: retry in %d seconds", e.Code, int(e.RetryAfter.Seconds()))
	}
	return e.Code
}

// Unwrap maps API codes onto the sentinel taxonomy so callers can use
// errors.Is instead of matching code strings.
func (e *APIError) Unwrap() error {
	switch {
	case e.RetryAfter > 0:
		return ErrRateLimited
	case e.Code == "ACCESS_TOKEN_INVALID" || e.Code == "PAGE_ACCESS_DENIED":
		return ErrAuth
	case strings.HasPrefix(e.Code, "CONTENT_") || strings.HasPrefix(e.Code, "TITLE_"):
		return ErrInvalidContent
	default:
		return ErrRemote
	}
}
