package transitions

import (
	"fmt"

	apperrors "github.com/logitrack/logitrack-backend/pkg/errors"
)

// Table is a status graph keyed by source state. Both the shipment and the
// pickup lifecycles are instances of the same structure with different
// label sets.
type Table[S ~string] struct {
	entity string
	edges  map[S][]S
}

// NewTable builds a transition table for the named entity kind.
func NewTable[S ~string](entity string, edges map[S][]S) Table[S] {
	return Table[S]{entity: entity, edges: edges}
}

// Allowed reports whether from -> to is a legal edge.
func (t Table[S]) Allowed(from, to S) bool {
	for _, next := range t.edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Next returns the legal successor states of from.
func (t Table[S]) Next(from S) []S {
	targets := t.edges[from]
	out := make([]S, len(targets))
	copy(out, targets)
	return out
}

// Ensure returns a typed conflict error when from -> to is not a legal edge.
func (t Table[S]) Ensure(from, to S) error {
	if t.Allowed(from, to) {
		return nil
	}
	return apperrors.New(
		apperrors.CodeStateConflict,
		fmt.Sprintf("%s cannot move from %s to %s", t.entity, from, to),
	).WithDetails(map[string]any{"from": string(from), "to": string(to)})
}
