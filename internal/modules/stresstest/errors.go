package stresstest

import "errors"

var (
	// ErrInvalidScenario is returned for a scenario type outside the catalog.
	ErrInvalidScenario = errors.New("invalid stress test scenario")

	// ErrInvalidCovenant is returned when covenant thresholds are out of range.
	ErrInvalidCovenant = errors.New("invalid covenant thresholds")

	// ErrNonFiniteResult is returned when inputs are so large that a
	// calculation step overflows or becomes undefined.
	ErrNonFiniteResult = errors.New("stress test inputs produce a non-finite result")
)
