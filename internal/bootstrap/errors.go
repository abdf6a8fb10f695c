package bootstrap

import (
	"errors"
	"fmt"

	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/stage"
)

// ErrRetryBudgetExhausted is returned once a run has used up its failed
// attempts. The error also wraps the last failure.
var ErrRetryBudgetExhausted = errors.New("retry budget exhausted")

// ErrIterationLimit is returned when the loop takes more steps than a run
// can need, whatever the budget says.
var ErrIterationLimit = errors.New("provisioning did not converge")

// StageError gives a fatal failure the stage and path it happened at.
type StageError struct {
	Stage stage.Stage
	Path  string
	Err   error
}

func (e *StageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Stage, e.Path, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Budget counts failed attempts across a whole run.
type Budget struct {
	ceiling int
	used    int
}

// NewBudget creates a budget allowing ceiling failed attempts. Values
// below one allow a single attempt.
func NewBudget(ceiling int) *Budget {
	if ceiling < 1 {
		ceiling = 1
	}
	return &Budget{ceiling: ceiling}
}

// Spend records one failed attempt caused by cause. It returns a non-nil
// error wrapping both ErrRetryBudgetExhausted and cause once the ceiling
// is reached.
func (b *Budget) Spend(cause error) error {
	b.used++
	if b.used >= b.ceiling {
		return fmt.Errorf("%w after %d attempts: %w", ErrRetryBudgetExhausted, b.used, cause)
	}
	return nil
}

// Used returns the failed attempts so far.
func (b *Budget) Used() int { return b.used }

// Ceiling returns the configured limit.
func (b *Budget) Ceiling() int { return b.ceiling }
