package delivery

import "fmt"

// Failure reasons recorded on batches and in the delivery log. These are
// stable strings surfaced to on-demand callers.
const (
	ReasonNotDue          = "not-due"
	ReasonNoVideos        = "no-videos"
	ReasonGenerationError = "generation-error"
	ReasonNoMatchingIdeas = "no-matching-ideas"
	ReasonRenderError     = "render-error"
	ReasonDeliveryError   = "delivery-error"
)

// DeliveryError wraps an email-provider rejection or timeout. The job is
// recorded as failed and not retried until the next eligible tick.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("digest delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
