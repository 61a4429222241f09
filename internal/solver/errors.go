package solver

import (
	"errors"
	"fmt"
)

// ErrPlanningInvariant marks internal inconsistencies: the candidate model
// contradicts itself or the census. It signals a pruning bug, never bad luck.
var ErrPlanningInvariant = errors.New("planning invariant violated")

// InvariantError carries the detail of a planning invariant violation.
type InvariantError struct {
	Detail string
}

func (e *InvariantError) Error() string {
	return ErrPlanningInvariant.Error() + ": " + e.Detail
}

// Is lets errors.Is(err, ErrPlanningInvariant) match.
func (e *InvariantError) Is(target error) bool { return target == ErrPlanningInvariant }

func invariantf(format string, args ...any) error {
	return &InvariantError{Detail: fmt.Sprintf(format, args...)}
}
