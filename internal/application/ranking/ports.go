package ranking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

type CandidateFilter struct {
	// ExcludeID is left out of the pool when set.
	ExcludeID uuid.UUID
	// CreatedAfter bounds the pool from below when non-zero (inclusive).
	CreatedAfter time.Time
}

// VideoCatalog reads the video directory. GetVideo returns a not_found
// AppError for unknown ids. ListCandidates returns published videos only.
type VideoCatalog interface {
	GetVideo(ctx context.Context, id uuid.UUID) (*domain.Video, error)
	ListCandidates(ctx context.Context, f CandidateFilter) ([]domain.Video, error)
}

type OwnerDirectory interface {
	GetOwners(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Owner, error)
}

// WatchHistory answers membership in a viewer's full watch history: it
// returns the ids among the given candidates the viewer has watched.
type WatchHistory interface {
	WatchedAmong(ctx context.Context, viewerID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
}

type Engagement interface {
	CountsFor(ctx context.Context, t domain.TargetType, ids []uuid.UUID) (map[uuid.UUID]domain.Counts, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
}
