package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transitionErr struct{}

func (transitionErr) Error() string { return "invalid status transition: PAID -> SENT" }
func (transitionErr) Unwrap() error { return ErrInvalidTransition }
func (transitionErr) ProblemContext() map[string]any {
	return map[string]any{"from": "PAID", "to": "SENT", "allowed": []string{}}
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetail {
	t.Helper()
	var p ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		title  string
	}{
		{"not found", fmt.Errorf("%w: invoice", ErrNotFound), http.StatusNotFound, "Not Found"},
		{"duplicate", ErrDuplicate, http.StatusConflict, "Duplicate"},
		{"validation", fmt.Errorf("%w: bad", ErrValidation), http.StatusBadRequest, "Validation Failed"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "Forbidden"},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{"invalid state", fmt.Errorf("%w: not draft", ErrInvalidState), http.StatusConflict, "Invalid State"},
		{"dependent", ErrDependentRecord, http.StatusConflict, "Dependent Records Exist"},
		{"upstream", fmt.Errorf("%w: gotenberg", ErrUpstream), http.StatusBadGateway, "Upstream Failure"},
		{"unknown", errors.New("db down"), http.StatusInternalServerError, "Internal Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tc.title, decodeProblem(t, rec).Title)
		})
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("%w: dial tcp 10.0.0.1", ErrUpstream))
	assert.Empty(t, decodeProblem(t, rec).Detail)
}

func TestRespondErrorValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("invoice: %w", NewValidationError(map[string]string{"items[0].quantity": "must be at least 1"})))
	p := decodeProblem(t, rec)
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, "must be at least 1", p.Errors["items[0].quantity"])
}

func TestRespondErrorTransitionContext(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, transitionErr{})
	p := decodeProblem(t, rec)
	assert.Equal(t, http.StatusConflict, p.Status)
	assert.Equal(t, "PAID", p.Context["from"])
	assert.Equal(t, "SENT", p.Context["to"])
}

func TestValidationErrorMessageIsSorted(t *testing.T) {
	err := NewValidationError(map[string]string{"b": "two", "a": "one"})
	assert.Equal(t, "validation failed: a: one; b: two", err.Error())
	assert.ErrorIs(t, err, ErrValidation)
}
