package ideas

import (
	"errors"
	"fmt"
)

// ErrNoMatchingIdeas is returned when preference filtering leaves nothing to
// send. Terminal for the current cycle, never silently delivered as an empty
// digest.
var ErrNoMatchingIdeas = errors.New("ideas: no ideas match the user's preferences")

// GenerationError wraps any failure of the language-model call or of its
// output: transport errors, timeouts, unparseable or empty responses, and
// batches that stay short after the follow-up completion.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("idea generation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("idea generation failed: %s", e.Reason)
}

func (e *GenerationError) Unwrap() error { return e.Err }
