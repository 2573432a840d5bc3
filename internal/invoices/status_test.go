package invoices

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicer/invoicer/internal/platform/httpx"
)

func TestTransitionTable(t *testing.T) {
	allowed := map[Status]map[Status]bool{
		StatusDraft:     {StatusSent: true, StatusCancelled: true},
		StatusSent:      {StatusPaid: true, StatusOverdue: true, StatusCancelled: true},
		StatusPaid:      {},
		StatusOverdue:   {StatusPaid: true, StatusCancelled: true},
		StatusCancelled: {StatusDraft: true},
	}
	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			next, err := Transition(from, to)
			if allowed[from][to] {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, next)
				continue
			}
			require.Error(t, err, "%s -> %s", from, to)
			assert.ErrorIs(t, err, httpx.ErrInvalidTransition)
			assert.Equal(t, from, next)
		}
	}
}

func TestPaidIsTerminal(t *testing.T) {
	assert.Empty(t, Allowed(StatusPaid))
	for _, to := range AllStatuses {
		_, err := Transition(StatusPaid, to)
		assert.Error(t, err)
	}
}

func TestTransitionErrorProblemContext(t *testing.T) {
	_, err := Transition(StatusSent, StatusDraft)
	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, map[string]any{
		"from":    "SENT",
		"to":      "DRAFT",
		"allowed": []string{"PAID", "OVERDUE", "CANCELLED"},
	}, te.ProblemContext())
	assert.Contains(t, te.Error(), "SENT -> DRAFT")
}

func TestAllowedReturnsCopy(t *testing.T) {
	next := Allowed(StatusDraft)
	next[0] = StatusPaid
	assert.True(t, CanTransition(StatusDraft, StatusSent))
	assert.False(t, CanTransition(StatusDraft, StatusPaid))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" overdue ")
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, s)

	_, err = ParseStatus("VOID")
	assert.ErrorIs(t, err, httpx.ErrValidation)
	assert.False(t, Status("VOID").Valid())
	assert.True(t, StatusDraft.CanEdit())
	assert.False(t, StatusSent.CanEdit())
}
