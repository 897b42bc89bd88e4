package models

import (
	"fmt"
	"time"
)

// EvidenceType enumerates the kinds of supporting facts an idea may carry.
// Anything outside this set is dropped before persistence.
type EvidenceType string

const (
	EvidenceComment     EvidenceType = "comment"
	EvidencePerformance EvidenceType = "performance"
	EvidenceTrend       EvidenceType = "trend"
)

// Valid reports whether t is one of the three known evidence types.
func (t EvidenceType) Valid() bool {
	switch t {
	case EvidenceComment, EvidencePerformance, EvidenceTrend:
		return true
	}
	return false
}

// Evidence is one typed supporting fact attached to a generated idea.
type Evidence struct {
	Type EvidenceType `json:"type"`
	Text string       `json:"text"`
}

// Reasoning explains why an idea is expected to work.
type Reasoning struct {
	CommentDemand   string  `json:"comment_demand"`
	PastPerformance string  `json:"past_performance"`
	AudienceFit     string  `json:"audience_fit"`
	TrendingScore   float64 `json:"trending_score"`
}

// SuggestedStructure sketches how the video should be built.
type SuggestedStructure struct {
	Hook   string `json:"hook"`
	Format string `json:"format"`
	Length string `json:"length"`
	Tone   string `json:"tone"`
}

// Idea is one generated content idea.
type Idea struct {
	Rank                int                `json:"rank"`
	Title               string             `json:"title"`
	Reasoning           Reasoning          `json:"reasoning"`
	Evidence            []Evidence         `json:"evidence,omitempty"`
	PredictedEngagement float64            `json:"predicted_engagement"`
	Confidence          float64            `json:"confidence"`
	SuggestedStructure  SuggestedStructure `json:"suggested_structure"`
}

// DeliveryState is the lifecycle of an idea batch's digest delivery.
type DeliveryState string

const (
	DeliveryPending DeliveryState = "pending"
	DeliverySent    DeliveryState = "sent"
	DeliveryFailed  DeliveryState = "failed"
)

// Valid reports whether s is a known delivery state.
func (s DeliveryState) Valid() bool {
	switch s {
	case DeliveryPending, DeliverySent, DeliveryFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is a legal transition from s.
// Sent and failed are terminal.
func (s DeliveryState) CanTransitionTo(next DeliveryState) bool {
	return s == DeliveryPending && (next == DeliverySent || next == DeliveryFailed)
}

// Transition moves s to next, failing on anything outside the legal state
// machine rather than silently overwriting a terminal state.
func (s *DeliveryState) Transition(next DeliveryState) error {
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("illegal delivery transition %s -> %s", *s, next)
	}
	*s = next
	return nil
}

// IdeaBatch is one generation event: an ordered list of ideas plus its
// delivery outcome. Only the delivery state, failure reason and sent
// timestamp ever change after creation.
type IdeaBatch struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	CreatedAt     time.Time     `json:"created_at"`
	Ideas         []Idea        `json:"ideas"`
	DeliveryState DeliveryState `json:"delivery_state"`
	FailureReason string        `json:"failure_reason,omitempty"`
	SentAt        *time.Time    `json:"sent_at,omitempty"`
}
