package shared

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/httprate"

	"github.com/invoicer/invoicer/internal/platform/httpx"
)

// RateLimitKey keys limits by authenticated user, falling back to client IP.
func RateLimitKey(r *http.Request) (string, error) {
	if user := strings.TrimSpace(UserIDFromContext(r.Context())); user != "" {
		return "user:" + user, nil
	}
	if sess := SessionFromContext(r.Context()); sess != nil {
		if user := strings.TrimSpace(sess.User()); user != "" {
			return "user:" + user, nil
		}
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

// IsUnexpected reports whether err falls outside the client error taxonomy
// and deserves an error log line.
func IsUnexpected(err error) bool {
	for _, known := range []error{
		httpx.ErrNotFound, httpx.ErrDuplicate, httpx.ErrValidation, httpx.ErrForbidden,
		httpx.ErrUnauthorized, httpx.ErrInvalidState, httpx.ErrInvalidTransition, httpx.ErrDependentRecord,
	} {
		if errors.Is(err, known) {
			return false
		}
	}
	return true
}
