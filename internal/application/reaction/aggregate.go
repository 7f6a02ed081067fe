package reaction

import (
	"context"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/domain"
)

// Counts returns like/dislike totals for a target.
func (s *Service) Counts(ctx context.Context, targetType, targetID string) (domain.Counts, error) {
	target, err := parseTarget(targetType, targetID)
	if err != nil {
		return domain.Counts{}, err
	}

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	c, err := s.repo.Counts(qctx, target)
	if err != nil {
		return domain.Counts{}, storeErr(err)
	}
	return c, nil
}

// CountsFor batches Counts over many targets of one type. Targets with no
// reactions are present with zero counts.
func (s *Service) CountsFor(ctx context.Context, t domain.TargetType, ids []uuid.UUID) (map[uuid.UUID]domain.Counts, error) {
	out := make(map[uuid.UUID]domain.Counts, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	got, err := s.repo.CountsByTargets(qctx, t, ids)
	if err != nil {
		return nil, storeErr(err)
	}
	for _, id := range ids {
		out[id] = got[id]
	}
	return out, nil
}

// State reports what userID currently expresses on the target.
func (s *Service) State(ctx context.Context, userID uuid.UUID, targetType, targetID string) (domain.ReactionState, error) {
	if userID == uuid.Nil {
		return "", domain.ErrUnauthorized("authentication required")
	}
	target, err := parseTarget(targetType, targetID)
	if err != nil {
		return "", err
	}

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := s.repo.GetPolarity(qctx, domain.ReactionKey{UserID: userID, Target: target})
	if err != nil {
		return "", storeErr(err)
	}
	return domain.StateOf(p), nil
}

// ListReactedVideos lists the videos userID liked (or disliked), newest reaction first.
func (s *Service) ListReactedVideos(ctx context.Context, userID uuid.UUID, polarity string, limit int) ([]domain.ReactedVideo, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthorized("authentication required")
	}
	p, err := domain.ParsePolarity(polarity)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, domain.ErrValidation("limit must not be negative")
	}
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	items, err := s.repo.ListReactedVideos(qctx, userID, p, limit)
	if err != nil {
		return nil, storeErr(err)
	}
	return items, nil
}

// PurgeTarget drops every reaction attached to a deleted target.
func (s *Service) PurgeTarget(ctx context.Context, target domain.TargetKey) (int64, error) {
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.repo.DeleteByTarget(qctx, target)
	if err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}
