package reaction

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

// Repo is the reaction store. Exactly one row exists per (user, target).
type Repo interface {
	WithTx(ctx context.Context, fn func(tx TxRepo) error) error

	GetPolarity(ctx context.Context, key domain.ReactionKey) (domain.Polarity, error)
	Counts(ctx context.Context, target domain.TargetKey) (domain.Counts, error)
	CountsByTargets(ctx context.Context, t domain.TargetType, ids []uuid.UUID) (map[uuid.UUID]domain.Counts, error)
	ListReactedVideos(ctx context.Context, userID uuid.UUID, p domain.Polarity, limit int) ([]domain.ReactedVideo, error)
	DeleteByTarget(ctx context.Context, target domain.TargetKey) (int64, error)
}

// TxRepo is the write side used inside a single toggle attempt.
// Insert, Delete and Switch return domain.ErrConflict when a concurrent
// writer changed the row between the read and the write.
type TxRepo interface {
	LockPolarity(ctx context.Context, key domain.ReactionKey) (domain.Polarity, error)
	Insert(ctx context.Context, r domain.Reaction) error
	Delete(ctx context.Context, key domain.ReactionKey, expected domain.Polarity) error
	Switch(ctx context.Context, key domain.ReactionKey, from, to domain.Polarity, at time.Time) error
	Counts(ctx context.Context, target domain.TargetKey) (domain.Counts, error)
}

type TargetDirectory interface {
	TargetExists(ctx context.Context, target domain.TargetKey) (bool, error)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, routingKey string, payload any) error
}
