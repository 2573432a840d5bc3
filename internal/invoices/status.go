package invoices

import (
	"fmt"

	"github.com/invoicer/invoicer/internal/platform/httpx"
)

// transitions is the complete lifecycle table. PAID is terminal and a
// cancelled invoice may only be reopened as a draft.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusSent, StatusCancelled},
	StatusSent:      {StatusPaid, StatusOverdue, StatusCancelled},
	StatusPaid:      {},
	StatusOverdue:   {StatusPaid, StatusCancelled},
	StatusCancelled: {StatusDraft},
}

// Allowed returns the statuses reachable from s in one step.
func Allowed(s Status) []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from -> to is in the table.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionError reports a rejected status change.
type TransitionError struct {
	From    Status
	To      Status
	Allowed []Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", httpx.ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return httpx.ErrInvalidTransition }

// ProblemContext exposes the rejected edge to API clients.
func (e *TransitionError) ProblemContext() map[string]any {
	allowed := make([]string, 0, len(e.Allowed))
	for _, s := range e.Allowed {
		allowed = append(allowed, string(s))
	}
	return map[string]any{
		"from":    string(e.From),
		"to":      string(e.To),
		"allowed": allowed,
	}
}

// Transition validates current -> requested and returns the new status.
// Self transitions are rejected like any other missing edge.
func Transition(current, requested Status) (Status, error) {
	if !CanTransition(current, requested) {
		return current, &TransitionError{From: current, To: requested, Allowed: Allowed(current)}
	}
	return requested, nil
}
