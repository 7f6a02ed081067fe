package ranking

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/domain"
)

type scored struct {
	video domain.Video
	score float64
}

// sortScored orders by score desc, createdAt desc, id asc.
func sortScored(items []scored) {
	slices.SortFunc(items, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		if c := b.video.CreatedAt.Compare(a.video.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.video.ID[:], b.video.ID[:])
	})
}

// eligible drops unpublished videos, the excluded id and anything older than
// createdAfter (when set).
func eligible(pool []domain.Video, exclude uuid.UUID, createdAfter time.Time) []domain.Video {
	out := pool[:0:0]
	for _, v := range pool {
		if !v.IsPublished || v.ID == exclude {
			continue
		}
		if !createdAfter.IsZero() && v.CreatedAt.Before(createdAfter) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (s *Service) loadReference(ctx context.Context, id uuid.UUID) (*domain.Video, error) {
	ref, err := s.videos.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	if ref == nil || !ref.IsPublished {
		return nil, domain.ErrNotFound("video not found")
	}
	return ref, nil
}

func (s *Service) scoreRecommendations(ctx context.Context, q query, ref *domain.Video, now time.Time) ([]scored, error) {
	pool, err := s.videos.ListCandidates(ctx, CandidateFilter{ExcludeID: ref.ID})
	if err != nil {
		return nil, err
	}
	pool = eligible(pool, ref.ID, time.Time{})

	var watched []uuid.UUID
	if q.viewerID != uuid.Nil && s.history != nil && len(pool) > 0 {
		candidateIDs := make([]uuid.UUID, 0, len(pool))
		for _, v := range pool {
			candidateIDs = append(candidateIDs, v.ID)
		}
		if watched, err = s.history.WatchedAmong(ctx, q.viewerID, candidateIDs); err != nil {
			return nil, err
		}
	}

	rc := NewRecommendationContext(s.extractor.Extract(*ref, now), watched)
	out := make([]scored, 0, len(pool))
	for _, v := range pool {
		out = append(out, scored{video: v, score: RecommendationScore(s.extractor.Extract(v, now), rc)})
	}
	return out, nil
}

func (s *Service) scoreTrending(ctx context.Context, q query, now time.Time) ([]scored, error) {
	cutoff := now.Add(-q.timeRange.Duration())
	pool, err := s.videos.ListCandidates(ctx, CandidateFilter{CreatedAfter: cutoff})
	if err != nil {
		return nil, err
	}

	pool = eligible(pool, uuid.Nil, cutoff)
	out := make([]scored, 0, len(pool))
	for _, v := range pool {
		out = append(out, scored{video: v, score: TrendingScore(s.extractor.Extract(v, now))})
	}
	return out, nil
}

func (s *Service) scoreRelated(ctx context.Context, ref *domain.Video, now time.Time) ([]scored, error) {
	pool, err := s.videos.ListCandidates(ctx, CandidateFilter{ExcludeID: ref.ID})
	if err != nil {
		return nil, err
	}

	refFeat := s.extractor.Extract(*ref, now)
	keywords := RelatedKeywords(refFeat)
	pool = eligible(pool, ref.ID, time.Time{})
	out := make([]scored, 0, len(pool))
	for _, v := range pool {
		out = append(out, scored{video: v, score: RelatedScore(s.extractor.Extract(v, now), refFeat, keywords, s.rel)})
	}
	return out, nil
}
