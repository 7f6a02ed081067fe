package event

import "time"

const (
	RKReactionToggled = "reaction.toggled"

	RKVideoDeleted   = "video.deleted"
	RKCommentDeleted = "comment.deleted"
	RKTweetDeleted   = "tweet.deleted"
)

// DomainEventEnvelope is the canonical envelope consumed across services.
type DomainEventEnvelope[T any] struct {
	Version    int       `json:"version"`
	Producer   string    `json:"producer"`
	TraceID    string    `json:"trace_id,omitempty"`
	MessageID  string    `json:"message_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    T         `json:"payload"`
}

type ReactionToggledPayload struct {
	UserID        string    `json:"user_id"`
	TargetType    string    `json:"target_type"`
	TargetID      string    `json:"target_id"`
	State         string    `json:"state"`
	LikesCount    int64     `json:"likes_count"`
	DislikesCount int64     `json:"dislikes_count"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// TargetDeletedPayload is emitted by the owning CRUD services.
// Accept both target_id and legacy id.
type TargetDeletedPayload struct {
	TargetID string `json:"target_id,omitempty"`
	ID       string `json:"id,omitempty"`
}
