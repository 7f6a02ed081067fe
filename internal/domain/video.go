package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Video struct {
	ID              uuid.UUID
	Title           string
	Description     string
	OwnerID         uuid.UUID
	IsPublished     bool
	CreatedAt       time.Time
	ViewCount       int64
	DurationSeconds int
	ThumbnailRef    string
}

type Owner struct {
	ID              uuid.UUID
	DisplayName     string
	AvatarRef       string
	SubscriberCount int64
}

// RankedResult is recomputed per request and never persisted.
type RankedResult struct {
	VideoID          uuid.UUID `json:"video_id"`
	Title            string    `json:"title"`
	ThumbnailRef     string    `json:"thumbnail_ref"`
	OwnerID          uuid.UUID `json:"owner_id"`
	OwnerDisplayName string    `json:"owner_display_name"`
	OwnerAvatarRef   string    `json:"owner_avatar_ref"`
	ViewCount        int64     `json:"view_count"`
	CreatedAt        time.Time `json:"created_at"`
	LikesCount       int64     `json:"likes_count"`
	DislikesCount    int64     `json:"dislikes_count"`
	Score            float64   `json:"score"`
}

type Mode string

const (
	ModeRecommend Mode = "recommend"
	ModeTrending  Mode = "trending"
	ModeRelated   Mode = "related"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeRecommend, ModeTrending, ModeRelated:
		return true
	default:
		return false
	}
}

// NeedsReference reports whether the mode ranks relative to a reference video.
func (m Mode) NeedsReference() bool { return m == ModeRecommend || m == ModeRelated }

type TimeRange string

const (
	Range1d  TimeRange = "1d"
	Range7d  TimeRange = "7d"
	Range30d TimeRange = "30d"

	DefaultTimeRange = Range7d
)

func ParseTimeRange(s string) (TimeRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTimeRange, nil
	}
	tr := TimeRange(strings.ToLower(s))
	switch tr {
	case Range1d, Range7d, Range30d:
		return tr, nil
	}
	return "", ErrValidationMeta("invalid time range", map[string]string{
		"time_range": "must be one of 1d, 7d, 30d",
	})
}

func (tr TimeRange) Duration() time.Duration {
	switch tr {
	case Range1d:
		return 24 * time.Hour
	case Range30d:
		return 30 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}
