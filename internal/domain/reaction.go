package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type TargetType string

const (
	TargetVideo   TargetType = "video"
	TargetComment TargetType = "comment"
	TargetTweet   TargetType = "tweet"
)

func (t TargetType) Valid() bool {
	switch t {
	case TargetVideo, TargetComment, TargetTweet:
		return true
	default:
		return false
	}
}

func ParseTargetType(s string) (TargetType, error) {
	t := TargetType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrValidationMeta("invalid target type", map[string]string{
			"target_type": "must be one of video, comment, tweet",
		})
	}
	return t, nil
}

type Polarity string

const (
	PolarityLike    Polarity = "like"
	PolarityDislike Polarity = "dislike"
)

func (p Polarity) Valid() bool { return p == PolarityLike || p == PolarityDislike }

func ParsePolarity(s string) (Polarity, error) {
	p := Polarity(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ErrValidationMeta("invalid polarity", map[string]string{
			"polarity": "must be like or dislike",
		})
	}
	return p, nil
}

// ReactionState is what a single user currently expresses on a single target.
type ReactionState string

const (
	StateNone     ReactionState = "none"
	StateLiked    ReactionState = "liked"
	StateDisliked ReactionState = "disliked"
)

// StateOf maps a stored polarity to a state. An empty polarity means no row.
func StateOf(p Polarity) ReactionState {
	switch p {
	case PolarityLike:
		return StateLiked
	case PolarityDislike:
		return StateDisliked
	default:
		return StateNone
	}
}

// Polarity returns the polarity stored for the state, or "" for StateNone.
func (s ReactionState) Polarity() Polarity {
	switch s {
	case StateLiked:
		return PolarityLike
	case StateDisliked:
		return PolarityDislike
	default:
		return ""
	}
}

// Transition applies a toggle of polarity p to state s.
// Toggling the active polarity clears it, toggling the other one switches.
func Transition(s ReactionState, p Polarity) ReactionState {
	if s.Polarity() == p {
		return StateNone
	}
	return StateOf(p)
}

type TargetKey struct {
	Type TargetType
	ID   uuid.UUID
}

type ReactionKey struct {
	UserID uuid.UUID
	Target TargetKey
}

type Reaction struct {
	UserID     uuid.UUID
	TargetType TargetType
	TargetID   uuid.UUID
	Polarity   Polarity
	CreatedAt  time.Time
}

type Counts struct {
	Likes    int64 `json:"likes_count"`
	Dislikes int64 `json:"dislikes_count"`
}

// ReactedVideo is one row of a user's liked or disliked video listing.
type ReactedVideo struct {
	VideoID          uuid.UUID `json:"video_id"`
	Title            string    `json:"title"`
	ThumbnailRef     string    `json:"thumbnail_ref"`
	OwnerID          uuid.UUID `json:"owner_id"`
	OwnerDisplayName string    `json:"owner_display_name"`
	Polarity         Polarity  `json:"polarity"`
	ReactedAt        time.Time `json:"reacted_at"`
}
