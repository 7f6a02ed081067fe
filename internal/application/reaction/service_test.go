package reaction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/contracts/event"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/domain"
)

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }

// memRepo serializes transactions with a mutex and rolls back on error.
type memRepo struct {
	mu   sync.Mutex
	rows map[domain.ReactionKey]domain.Reaction

	outside map[domain.ReactionKey]domain.Reaction

	txCalls int
	txErr   error
	// beforeWrite runs inside a tx right before Insert/Delete/Switch; a non-nil
	// return aborts the write with that error.
	beforeWrite func(m *memRepo, key domain.ReactionKey) error
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[domain.ReactionKey]domain.Reaction{}}
}

func (m *memRepo) WithTx(ctx context.Context, fn func(tx TxRepo) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCalls++
	if m.txErr != nil {
		return m.txErr
	}

	snapshot := make(map[domain.ReactionKey]domain.Reaction, len(m.rows))
	for k, v := range m.rows {
		snapshot[k] = v
	}
	m.outside = nil
	if err := fn(&memTx{m: m}); err != nil {
		m.rows = snapshot
		for k, r := range m.outside {
			m.rows[k] = r
		}
		return err
	}
	return nil
}

// commitOutside records a write made by another transaction; it survives
// rollback of the current one.
func (m *memRepo) commitOutside(key domain.ReactionKey, r domain.Reaction) {
	if m.outside == nil {
		m.outside = map[domain.ReactionKey]domain.Reaction{}
	}
	m.outside[key] = r
	m.rows[key] = r
}

func (m *memRepo) countsLocked(target domain.TargetKey) domain.Counts {
	var c domain.Counts
	for k, r := range m.rows {
		if k.Target != target {
			continue
		}
		if r.Polarity == domain.PolarityLike {
			c.Likes++
		} else {
			c.Dislikes++
		}
	}
	return c
}

func (m *memRepo) GetPolarity(ctx context.Context, key domain.ReactionKey) (domain.Polarity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[key].Polarity, nil
}

func (m *memRepo) Counts(ctx context.Context, target domain.TargetKey) (domain.Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countsLocked(target), nil
}

func (m *memRepo) CountsByTargets(ctx context.Context, t domain.TargetType, ids []uuid.UUID) (map[uuid.UUID]domain.Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[uuid.UUID]domain.Counts{}
	for _, id := range ids {
		if c := m.countsLocked(domain.TargetKey{Type: t, ID: id}); c != (domain.Counts{}) {
			out[id] = c
		}
	}
	return out, nil
}

func (m *memRepo) ListReactedVideos(ctx context.Context, userID uuid.UUID, p domain.Polarity, limit int) ([]domain.ReactedVideo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ReactedVideo
	for k, r := range m.rows {
		if k.UserID == userID && k.Target.Type == domain.TargetVideo && r.Polarity == p {
			out = append(out, domain.ReactedVideo{VideoID: k.Target.ID, Polarity: p, ReactedAt: r.CreatedAt})
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memRepo) DeleteByTarget(ctx context.Context, target domain.TargetKey) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.rows {
		if k.Target == target {
			delete(m.rows, k)
			n++
		}
	}
	return n, nil
}

type memTx struct{ m *memRepo }

func (tx *memTx) hook(key domain.ReactionKey) error {
	if tx.m.beforeWrite != nil {
		return tx.m.beforeWrite(tx.m, key)
	}
	return nil
}

func (tx *memTx) LockPolarity(ctx context.Context, key domain.ReactionKey) (domain.Polarity, error) {
	return tx.m.rows[key].Polarity, nil
}

func (tx *memTx) Insert(ctx context.Context, r domain.Reaction) error {
	key := domain.ReactionKey{UserID: r.UserID, Target: domain.TargetKey{Type: r.TargetType, ID: r.TargetID}}
	if err := tx.hook(key); err != nil {
		return err
	}
	if _, exists := tx.m.rows[key]; exists {
		return domain.ErrConflict
	}
	tx.m.rows[key] = r
	return nil
}

func (tx *memTx) Delete(ctx context.Context, key domain.ReactionKey, expected domain.Polarity) error {
	if err := tx.hook(key); err != nil {
		return err
	}
	r, ok := tx.m.rows[key]
	if !ok || r.Polarity != expected {
		return domain.ErrConflict
	}
	delete(tx.m.rows, key)
	return nil
}

func (tx *memTx) Switch(ctx context.Context, key domain.ReactionKey, from, to domain.Polarity, at time.Time) error {
	if err := tx.hook(key); err != nil {
		return err
	}
	r, ok := tx.m.rows[key]
	if !ok || r.Polarity != from {
		return domain.ErrConflict
	}
	r.Polarity = to
	r.CreatedAt = at
	tx.m.rows[key] = r
	return nil
}

func (tx *memTx) Counts(ctx context.Context, target domain.TargetKey) (domain.Counts, error) {
	return tx.m.countsLocked(target), nil
}

type stubTargets struct {
	missing map[uuid.UUID]bool
	err     error
}

func (s stubTargets) TargetExists(ctx context.Context, target domain.TargetKey) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return !s.missing[target.ID], nil
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) PublishEvent(ctx context.Context, routingKey string, payload any) error {
	args := m.Called(ctx, routingKey, payload)
	return args.Error(0)
}

func newTestService(repo *memRepo, targets TargetDirectory, pub EventPublisher) *Service {
	return New(repo, targets, fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}, pub, Options{
		QueryTimeout: time.Second,
		MaxAttempts:  2,
	})
}

func TestToggle_StateMachineThroughStore(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()
	comment := uuid.New().String()

	t.Run("like_then_dislike_switches_counts", func(t *testing.T) {
		svc := newTestService(newMemRepo(), stubTargets{}, nil)

		c, err := svc.Toggle(ctx, user, "comment", comment, "like")
		require.NoError(t, err)
		assert.Equal(t, domain.Counts{Likes: 1, Dislikes: 0}, c)

		c, err = svc.Toggle(ctx, user, "comment", comment, "dislike")
		require.NoError(t, err)
		assert.Equal(t, domain.Counts{Likes: 0, Dislikes: 1}, c)

		st, err := svc.State(ctx, user, "comment", comment)
		require.NoError(t, err)
		assert.Equal(t, domain.StateDisliked, st)
	})

	t.Run("same_polarity_twice_returns_to_none", func(t *testing.T) {
		svc := newTestService(newMemRepo(), stubTargets{}, nil)
		video := uuid.New().String()

		_, err := svc.Toggle(ctx, user, "video", video, "dislike")
		require.NoError(t, err)
		c, err := svc.Toggle(ctx, user, "video", video, "dislike")
		require.NoError(t, err)
		assert.Equal(t, domain.Counts{}, c)

		st, err := svc.State(ctx, user, "video", video)
		require.NoError(t, err)
		assert.Equal(t, domain.StateNone, st)
	})

	t.Run("switch_moves_exactly_one_count_each_way", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo, stubTargets{}, nil)
		tweet := uuid.New().String()

		for i := 0; i < 3; i++ {
			_, err := svc.Toggle(ctx, uuid.New(), "tweet", tweet, "like")
			require.NoError(t, err)
		}
		before, err := svc.Toggle(ctx, user, "tweet", tweet, "like")
		require.NoError(t, err)
		after, err := svc.Toggle(ctx, user, "tweet", tweet, "dislike")
		require.NoError(t, err)

		assert.Equal(t, before.Likes-1, after.Likes)
		assert.Equal(t, before.Dislikes+1, after.Dislikes)
	})
}

func TestToggle_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemRepo(), stubTargets{}, nil)
	id := uuid.New().String()

	tests := []struct {
		name     string
		user     uuid.UUID
		tt, tid  string
		polarity string
		code     domain.ErrCode
	}{
		{"no_identity", uuid.Nil, "video", id, "like", domain.CodeUnauthorized},
		{"malformed_target_id", uuid.New(), "video", "not-a-uuid", "like", domain.CodeValidation},
		{"unknown_target_type", uuid.New(), "playlist", id, "like", domain.CodeValidation},
		{"unknown_polarity", uuid.New(), "video", id, "meh", domain.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Toggle(ctx, tt.user, tt.tt, tt.tid, tt.polarity)
			require.Error(t, err)
			assert.Equal(t, tt.code, domain.CodeOf(err))
		})
	}

	t.Run("missing_target_is_not_found", func(t *testing.T) {
		missing := uuid.New()
		repo := newMemRepo()
		svc := newTestService(repo, stubTargets{missing: map[uuid.UUID]bool{missing: true}}, nil)

		_, err := svc.Toggle(ctx, uuid.New(), "video", missing.String(), "like")
		assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
		assert.Equal(t, 0, repo.txCalls)
	})
}

func TestToggle_ConflictRetry(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()
	video := uuid.New()

	t.Run("concurrent_insert_is_redecided_on_retry", func(t *testing.T) {
		repo := newMemRepo()
		fired := false
		// A twin request commits its like between our read and our insert.
		repo.beforeWrite = func(m *memRepo, key domain.ReactionKey) error {
			if fired {
				return nil
			}
			fired = true
			m.commitOutside(key, domain.Reaction{
				UserID: key.UserID, TargetType: key.Target.Type, TargetID: key.Target.ID,
				Polarity: domain.PolarityLike,
			})
			return nil
		}
		svc := newTestService(repo, stubTargets{}, nil)

		c, err := svc.Toggle(ctx, user, "video", video.String(), "like")
		require.NoError(t, err)
		assert.Equal(t, 2, repo.txCalls)
		assert.Equal(t, domain.Counts{}, c)

		st, _ := svc.State(ctx, user, "video", video.String())
		assert.Equal(t, domain.StateNone, st)
	})

	t.Run("exhausted_retries_surface_conflict", func(t *testing.T) {
		repo := newMemRepo()
		repo.beforeWrite = func(m *memRepo, key domain.ReactionKey) error { return domain.ErrConflict }
		svc := newTestService(repo, stubTargets{}, nil)

		_, err := svc.Toggle(ctx, user, "video", video.String(), "dislike")
		require.Error(t, err)
		assert.True(t, domain.IsConflict(err))
		assert.Equal(t, 2, repo.txCalls)
		assert.Empty(t, repo.rows)
	})

	t.Run("non_conflict_errors_are_not_retried", func(t *testing.T) {
		repo := newMemRepo()
		repo.txErr = errors.New("connection reset")
		svc := newTestService(repo, stubTargets{}, nil)

		_, err := svc.Toggle(ctx, user, "video", video.String(), "like")
		require.Error(t, err)
		assert.Equal(t, 1, repo.txCalls)
	})

	t.Run("deadline_is_retryable_unavailable", func(t *testing.T) {
		repo := newMemRepo()
		repo.txErr = context.DeadlineExceeded
		svc := newTestService(repo, stubTargets{}, nil)

		_, err := svc.Toggle(ctx, user, "video", video.String(), "like")
		require.Error(t, err)
		assert.True(t, domain.IsRetryable(err))
	})
}

func TestToggle_ConcurrentUsersKeepCountsConsistent(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo, stubTargets{}, nil)
	target := uuid.New().String()

	const users = 40
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := uuid.New()
			p := "like"
			if i%4 == 0 {
				p = "dislike"
			}
			_, err := svc.Toggle(ctx, u, "video", target, p)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	c, err := svc.Counts(ctx, "video", target)
	require.NoError(t, err)
	assert.Equal(t, int64(30), c.Likes)
	assert.Equal(t, int64(10), c.Dislikes)
	assert.Len(t, repo.rows, users)
}

func TestToggle_PublishesEvent(t *testing.T) {
	ctx := context.Background()
	pub := new(MockPublisher)
	svc := newTestService(newMemRepo(), stubTargets{}, pub)
	user := uuid.New()
	video := uuid.New()

	pub.On("PublishEvent", ctx, event.RKReactionToggled, mock.MatchedBy(func(p event.ReactionToggledPayload) bool {
		return p.UserID == user.String() && p.State == "liked" && p.LikesCount == 1
	})).Return(errors.New("broker down")).Once()

	c, err := svc.Toggle(ctx, user, "video", video.String(), "like")
	require.NoError(t, err, "publish failures must not fail the toggle")
	assert.Equal(t, int64(1), c.Likes)
	pub.AssertExpectations(t)
}

func TestAggregator(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo, stubTargets{}, nil)
	v1, v2, v3 := uuid.New(), uuid.New(), uuid.New()

	for i := 0; i < 2; i++ {
		_, err := svc.Toggle(ctx, uuid.New(), "video", v1.String(), "like")
		require.NoError(t, err)
	}
	_, err := svc.Toggle(ctx, uuid.New(), "video", v2.String(), "dislike")
	require.NoError(t, err)

	t.Run("counts_for_fills_missing_with_zero", func(t *testing.T) {
		got, err := svc.CountsFor(ctx, domain.TargetVideo, []uuid.UUID{v1, v2, v3})
		require.NoError(t, err)
		assert.Equal(t, domain.Counts{Likes: 2}, got[v1])
		assert.Equal(t, domain.Counts{Dislikes: 1}, got[v2])
		v3Counts, ok := got[v3]
		assert.True(t, ok)
		assert.Equal(t, domain.Counts{}, v3Counts)
	})

	t.Run("counts_rejects_malformed_id", func(t *testing.T) {
		_, err := svc.Counts(ctx, "video", "nope")
		assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
	})

	t.Run("state_requires_identity", func(t *testing.T) {
		_, err := svc.State(ctx, uuid.Nil, "video", v1.String())
		assert.Equal(t, domain.CodeUnauthorized, domain.CodeOf(err))
	})

	t.Run("purge_target_cascades", func(t *testing.T) {
		n, err := svc.PurgeTarget(ctx, domain.TargetKey{Type: domain.TargetVideo, ID: v1})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		c, err := svc.Counts(ctx, "video", v1.String())
		require.NoError(t, err)
		assert.Equal(t, domain.Counts{}, c)
	})
}

func TestListReactedVideos(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemRepo(), stubTargets{}, nil)
	user := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := svc.Toggle(ctx, user, "video", uuid.New().String(), "like")
		require.NoError(t, err)
	}
	_, err := svc.Toggle(ctx, user, "video", uuid.New().String(), "dislike")
	require.NoError(t, err)

	liked, err := svc.ListReactedVideos(ctx, user, "like", 0)
	require.NoError(t, err)
	assert.Len(t, liked, 3)

	disliked, err := svc.ListReactedVideos(ctx, user, "dislike", 10)
	require.NoError(t, err)
	assert.Len(t, disliked, 1)

	_, err = svc.ListReactedVideos(ctx, user, "like", -1)
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))

	_, err = svc.ListReactedVideos(ctx, uuid.Nil, "like", 10)
	assert.Equal(t, domain.CodeUnauthorized, domain.CodeOf(err))
}
