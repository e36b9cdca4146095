package recurrence

import (
	"errors"
	"fmt"
)

// ErrInvalidRule is the base class for malformed recurrence rules. A
// malformed rule never crashes the engine: the origin occurrence is still
// honored, no further occurrences are produced, and the error is returned so
// callers can tell "bad rule" apart from "rule with no future occurrences".
var ErrInvalidRule = errors.New("invalid recurrence rule")

var (
	ErrUnknownFrequency    = fmt.Errorf("%w: unknown frequency", ErrInvalidRule)
	ErrNonPositiveInterval = fmt.Errorf("%w: interval must be >= 1", ErrInvalidRule)
	ErrInvalidDayOfMonth   = fmt.Errorf("%w: day of month out of range", ErrInvalidRule)
	ErrInvalidWeekday      = fmt.Errorf("%w: weekday out of range", ErrInvalidRule)
	ErrNegativeCount       = fmt.Errorf("%w: end-after count must be >= 1", ErrInvalidRule)
)

// ErrStepNotAdvancing reports the defensive-termination case: a stepping
// function produced a date at or before the current one. The walk aborts and
// the occurrences gathered so far are returned alongside this error; they
// are individually correct.
var ErrStepNotAdvancing = errors.New("recurrence step did not advance")
