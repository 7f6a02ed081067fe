package ranking

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/domain"
)

// enrich attaches owner display data and engagement counts after scoring.
func (s *Service) enrich(ctx context.Context, items []scored) ([]domain.RankedResult, error) {
	out := make([]domain.RankedResult, 0, len(items))
	if len(items) == 0 {
		return out, nil
	}

	videoIDs := make([]uuid.UUID, 0, len(items))
	ownerIDs := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, it := range items {
		videoIDs = append(videoIDs, it.video.ID)
		if _, ok := seen[it.video.OwnerID]; !ok {
			seen[it.video.OwnerID] = struct{}{}
			ownerIDs = append(ownerIDs, it.video.OwnerID)
		}
	}

	var (
		owners map[uuid.UUID]domain.Owner
		counts map[uuid.UUID]domain.Counts
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		owners, err = s.owners.GetOwners(gctx, ownerIDs)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.engagement.CountsFor(gctx, domain.TargetVideo, videoIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, it := range items {
		v := it.video
		o := owners[v.OwnerID]
		c := counts[v.ID]
		out = append(out, domain.RankedResult{
			VideoID:          v.ID,
			Title:            v.Title,
			ThumbnailRef:     v.ThumbnailRef,
			OwnerID:          v.OwnerID,
			OwnerDisplayName: o.DisplayName,
			OwnerAvatarRef:   o.AvatarRef,
			ViewCount:        v.ViewCount,
			CreatedAt:        v.CreatedAt,
			LikesCount:       c.Likes,
			DislikesCount:    c.Dislikes,
			Score:            it.score,
		})
	}
	return out, nil
}
