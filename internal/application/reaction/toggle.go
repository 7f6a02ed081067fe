package reaction

import (
	"context"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/contracts/event"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/metrics"
)

type toggleResult struct {
	prev   domain.ReactionState
	next   domain.ReactionState
	counts domain.Counts
}

// Toggle applies a like/dislike toggle for userID on the target and returns the
// target's counts as of the committed write. A lost race re-reads and re-decides
// up to the configured attempt budget, then surfaces domain.ErrConflict.
func (s *Service) Toggle(ctx context.Context, userID uuid.UUID, targetType, targetID, polarity string) (domain.Counts, error) {
	if userID == uuid.Nil {
		return domain.Counts{}, domain.ErrUnauthorized("authentication required")
	}
	target, err := parseTarget(targetType, targetID)
	if err != nil {
		return domain.Counts{}, err
	}
	p, err := domain.ParsePolarity(polarity)
	if err != nil {
		return domain.Counts{}, err
	}

	if err := s.ensureTarget(ctx, target); err != nil {
		return domain.Counts{}, err
	}

	key := domain.ReactionKey{UserID: userID, Target: target}

	var res toggleResult
	for attempt := 1; ; attempt++ {
		res, err = s.toggleOnce(ctx, key, p)
		if err == nil {
			break
		}
		if !domain.IsConflict(err) {
			metrics.RecordToggle(string(target.Type), "error")
			return domain.Counts{}, err
		}
		if attempt >= s.maxAttempts {
			metrics.RecordToggleConflict("exhausted")
			zlog.Warn().
				Str("user_id", userID.String()).
				Str("target_type", string(target.Type)).
				Str("target_id", target.ID.String()).
				Int("attempts", attempt).
				Msg("reaction toggle conflict not resolved")
			return domain.Counts{}, domain.ErrConflict
		}
		metrics.RecordToggleConflict("retried")
		zlog.Debug().Int("attempt", attempt).Msg("reaction toggle conflict, retrying")
	}

	metrics.RecordToggle(string(target.Type), string(res.next))
	s.publishToggled(ctx, key, res)
	return res.counts, nil
}

func (s *Service) ensureTarget(ctx context.Context, target domain.TargetKey) error {
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ok, err := s.targets.TargetExists(qctx, target)
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return domain.ErrNotFound(string(target.Type) + " not found")
	}
	return nil
}

func (s *Service) toggleOnce(ctx context.Context, key domain.ReactionKey, p domain.Polarity) (toggleResult, error) {
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var res toggleResult
	err := s.repo.WithTx(qctx, func(tx TxRepo) error {
		cur, err := tx.LockPolarity(qctx, key)
		if err != nil {
			return err
		}
		res.prev = domain.StateOf(cur)
		res.next = domain.Transition(res.prev, p)

		switch {
		case res.prev == domain.StateNone:
			err = tx.Insert(qctx, domain.Reaction{
				UserID:     key.UserID,
				TargetType: key.Target.Type,
				TargetID:   key.Target.ID,
				Polarity:   res.next.Polarity(),
				CreatedAt:  s.clock.Now(),
			})
		case res.next == domain.StateNone:
			err = tx.Delete(qctx, key, cur)
		default:
			err = tx.Switch(qctx, key, cur, res.next.Polarity(), s.clock.Now())
		}
		if err != nil {
			return err
		}

		res.counts, err = tx.Counts(qctx, key.Target)
		return err
	})
	if err != nil {
		return toggleResult{}, storeErr(err)
	}
	return res, nil
}

func (s *Service) publishToggled(ctx context.Context, key domain.ReactionKey, res toggleResult) {
	payload := event.ReactionToggledPayload{
		UserID:        key.UserID.String(),
		TargetType:    string(key.Target.Type),
		TargetID:      key.Target.ID.String(),
		State:         string(res.next),
		LikesCount:    res.counts.Likes,
		DislikesCount: res.counts.Dislikes,
		OccurredAt:    s.clock.Now(),
	}
	if err := s.pub.PublishEvent(ctx, event.RKReactionToggled, payload); err != nil {
		zlog.Warn().Err(err).Str("target_id", payload.TargetID).Msg("publish reaction.toggled failed")
	}
}
