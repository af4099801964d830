package engine

import "errors"

// Per-turn error taxonomy. Retrieval unavailability and remote command
// failure are deliberately absent: the former is recovered inside the
// analysis handler, the latter is an expected outcome carried in the
// structured result, not an error.
var (
	// ErrRoutingFailure: the router returned a value outside the
	// closed decision set or the classification call failed. The turn
	// fails before any handler runs.
	ErrRoutingFailure = errors.New("routing failure")

	// ErrGenerationFailure: the language model call failed inside a
	// handler, or its structured output did not match the expected
	// shape. The turn fails but the user's query is still recorded.
	ErrGenerationFailure = errors.New("generation failure")
)
