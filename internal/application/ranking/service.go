package ranking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/metrics"
)

const (
	DefaultRecommendLimit = 10
	DefaultTrendingLimit  = 20
	DefaultRelatedLimit   = 10
	MaxLimit              = 100
)

type Request struct {
	Mode             domain.Mode
	ReferenceVideoID string
	// ViewerID is uuid.Nil for anonymous viewers.
	ViewerID  uuid.UUID
	TimeRange string
	Limit     int
}

type Options struct {
	Timeout   time.Duration
	CacheTTL  time.Duration
	Relevance Relevance
}

type Service struct {
	videos     VideoCatalog
	owners     OwnerDirectory
	history    WatchHistory
	engagement Engagement
	cache      Cache
	clock      Clock

	rel       Relevance
	extractor Extractor

	timeout  time.Duration
	cacheTTL time.Duration
}

// New wires the pipeline. cache may be nil.
func New(
	videos VideoCatalog,
	owners OwnerDirectory,
	history WatchHistory,
	engagement Engagement,
	cache Cache,
	clock Clock,
	opt Options,
) *Service {
	if opt.Relevance == nil {
		opt.Relevance = KeywordRelevance{}
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 2 * time.Second
	}
	return &Service{
		videos:     videos,
		owners:     owners,
		history:    history,
		engagement: engagement,
		cache:      cache,
		clock:      clock,
		rel:        opt.Relevance,
		extractor:  NewExtractor(opt.Relevance),
		timeout:    opt.Timeout,
		cacheTTL:   opt.CacheTTL,
	}
}

func (s *Service) Recommendations(ctx context.Context, refID string, viewerID uuid.UUID, limit int) ([]domain.RankedResult, error) {
	return s.Rank(ctx, Request{Mode: domain.ModeRecommend, ReferenceVideoID: refID, ViewerID: viewerID, Limit: limit})
}

func (s *Service) Trending(ctx context.Context, timeRange string, limit int) ([]domain.RankedResult, error) {
	return s.Rank(ctx, Request{Mode: domain.ModeTrending, TimeRange: timeRange, Limit: limit})
}

func (s *Service) Related(ctx context.Context, refID string, limit int) ([]domain.RankedResult, error) {
	return s.Rank(ctx, Request{Mode: domain.ModeRelated, ReferenceVideoID: refID, Limit: limit})
}

// query is a validated Request.
type query struct {
	mode      domain.Mode
	refID     uuid.UUID
	viewerID  uuid.UUID
	timeRange domain.TimeRange
	limit     int
}

func normalize(req Request) (query, error) {
	q := query{mode: req.Mode, viewerID: req.ViewerID}
	if !req.Mode.Valid() {
		return q, domain.ErrValidationMeta("invalid mode", map[string]string{
			"mode": "must be one of recommend, trending, related",
		})
	}

	if req.Mode.NeedsReference() {
		raw := strings.TrimSpace(req.ReferenceVideoID)
		if raw == "" {
			return q, domain.ErrValidationMeta("missing reference video", map[string]string{
				"video_id": "required",
			})
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return q, domain.ErrValidationMeta("invalid reference video id", map[string]string{
				"video_id": "must be a valid uuid",
			})
		}
		q.refID = id
	}

	if req.Mode == domain.ModeTrending {
		tr, err := domain.ParseTimeRange(req.TimeRange)
		if err != nil {
			return q, err
		}
		q.timeRange = tr
	}
	if req.Mode != domain.ModeRecommend {
		// only recommendations are personalized
		q.viewerID = uuid.Nil
	}

	switch {
	case req.Limit < 0:
		return q, domain.ErrValidationMeta("invalid limit", map[string]string{"limit": "must not be negative"})
	case req.Limit == 0:
		q.limit = defaultLimit(req.Mode)
	case req.Limit > MaxLimit:
		q.limit = MaxLimit
	default:
		q.limit = req.Limit
	}
	return q, nil
}

func defaultLimit(m domain.Mode) int {
	switch m {
	case domain.ModeTrending:
		return DefaultTrendingLimit
	case domain.ModeRelated:
		return DefaultRelatedLimit
	default:
		return DefaultRecommendLimit
	}
}

// Rank runs one ranking request end to end.
func (s *Service) Rank(ctx context.Context, req Request) (out []domain.RankedResult, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordRanking(string(req.Mode), outcome(err), time.Since(start))
	}()

	q, err := normalize(req)
	if err != nil {
		return nil, err
	}

	qctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// A cached list never outlives its reference being removed or unpublished.
	var ref *domain.Video
	if q.mode.NeedsReference() {
		if ref, err = s.loadReference(qctx, q.refID); err != nil {
			return nil, timeoutErr(err)
		}
	}

	key := cacheKey(q)
	if s.cache != nil && s.cacheTTL > 0 {
		var cached []domain.RankedResult
		found, cerr := s.cache.Get(ctx, key, &cached)
		switch {
		case cerr != nil:
			zlog.Warn().Err(cerr).Str("key", key).Msg("ranking cache get failed")
		case found:
			metrics.RecordCache(true)
			return cached, nil
		default:
			metrics.RecordCache(false)
		}
	}

	out, err = s.rank(qctx, q, ref)
	if err != nil {
		return nil, timeoutErr(err)
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if cerr := s.cache.Set(ctx, key, out, s.cacheTTL); cerr != nil {
			zlog.Warn().Err(cerr).Str("key", key).Msg("ranking cache set failed")
		}
	}
	return out, nil
}

// rank scores the pool; ref is the loaded reference for recommend/related.
func (s *Service) rank(ctx context.Context, q query, ref *domain.Video) ([]domain.RankedResult, error) {
	now := s.clock.Now()

	var (
		scoredItems []scored
		err         error
	)
	switch q.mode {
	case domain.ModeRecommend:
		scoredItems, err = s.scoreRecommendations(ctx, q, ref, now)
	case domain.ModeTrending:
		scoredItems, err = s.scoreTrending(ctx, q, now)
	case domain.ModeRelated:
		scoredItems, err = s.scoreRelated(ctx, ref, now)
	}
	if err != nil {
		return nil, err
	}
	metrics.RecordCandidates(string(q.mode), len(scoredItems))

	sortScored(scoredItems)
	if len(scoredItems) > q.limit {
		scoredItems = scoredItems[:q.limit]
	}
	return s.enrich(ctx, scoredItems)
}

// timeoutErr surfaces an exhausted budget as retryable; never a partial list.
func timeoutErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrUnavailable("ranking query timed out")
	}
	return err
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if c := domain.CodeOf(err); c != "" {
		return string(c)
	}
	return "error"
}
