package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/application/reaction"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/domain"
)

type ReactionRepo struct {
	db *sql.DB
}

func NewReactionRepo(db *sql.DB) *ReactionRepo { return &ReactionRepo{db: db} }

func (r *ReactionRepo) WithTx(ctx context.Context, fn func(tx reaction.TxRepo) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return mapErr(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&txReactionRepo{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapErr(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

func (r *ReactionRepo) GetPolarity(ctx context.Context, key domain.ReactionKey) (domain.Polarity, error) {
	return scanPolarity(r.db.QueryRowContext(ctx, getPolaritySQL,
		key.UserID, string(key.Target.Type), key.Target.ID))
}

func (r *ReactionRepo) Counts(ctx context.Context, target domain.TargetKey) (domain.Counts, error) {
	return countTarget(ctx, r.db, target)
}

func (r *ReactionRepo) CountsByTargets(ctx context.Context, t domain.TargetType, ids []uuid.UUID) (map[uuid.UUID]domain.Counts, error) {
	out := make(map[uuid.UUID]domain.Counts, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, countReactionsBatchSQL, string(t), uuidStrings(ids))
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id uuid.UUID
			c  domain.Counts
		)
		if err := rows.Scan(&id, &c.Likes, &c.Dislikes); err != nil {
			return nil, mapErr(err)
		}
		out[id] = c
	}
	return out, mapErr(rows.Err())
}

func (r *ReactionRepo) ListReactedVideos(ctx context.Context, userID uuid.UUID, p domain.Polarity, limit int) ([]domain.ReactedVideo, error) {
	rows, err := r.db.QueryContext(ctx, listReactedVideosSQL, userID, string(p), limit)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]domain.ReactedVideo, 0, limit)
	for rows.Next() {
		var (
			it  domain.ReactedVideo
			pol string
		)
		if err := rows.Scan(&it.VideoID, &it.Title, &it.ThumbnailRef, &it.OwnerID,
			&it.OwnerDisplayName, &pol, &it.ReactedAt); err != nil {
			return nil, mapErr(err)
		}
		it.Polarity = domain.Polarity(pol)
		out = append(out, it)
	}
	return out, mapErr(rows.Err())
}

func (r *ReactionRepo) DeleteByTarget(ctx context.Context, target domain.TargetKey) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteByTargetSQL, string(target.Type), target.ID)
	if err != nil {
		return 0, mapErr(err)
	}
	n, err := res.RowsAffected()
	return n, mapErr(err)
}

type txReactionRepo struct {
	tx *sql.Tx
}

func (t *txReactionRepo) LockPolarity(ctx context.Context, key domain.ReactionKey) (domain.Polarity, error) {
	return scanPolarity(t.tx.QueryRowContext(ctx, lockPolaritySQL,
		key.UserID, string(key.Target.Type), key.Target.ID))
}

func (t *txReactionRepo) Insert(ctx context.Context, rc domain.Reaction) error {
	res, err := t.tx.ExecContext(ctx, insertReactionSQL,
		rc.UserID, string(rc.TargetType), rc.TargetID, string(rc.Polarity), rc.CreatedAt)
	return expectOneRow(res, err)
}

func (t *txReactionRepo) Delete(ctx context.Context, key domain.ReactionKey, expected domain.Polarity) error {
	res, err := t.tx.ExecContext(ctx, deleteReactionSQL,
		key.UserID, string(key.Target.Type), key.Target.ID, string(expected))
	return expectOneRow(res, err)
}

func (t *txReactionRepo) Switch(ctx context.Context, key domain.ReactionKey, from, to domain.Polarity, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, switchReactionSQL,
		key.UserID, string(key.Target.Type), key.Target.ID, string(from), string(to), at)
	return expectOneRow(res, err)
}

func (t *txReactionRepo) Counts(ctx context.Context, target domain.TargetKey) (domain.Counts, error) {
	return countTarget(ctx, t.tx, target)
}

// expectOneRow treats a write that matched nothing as a lost race.
func expectOneRow(res sql.Result, err error) error {
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err)
	}
	if n != 1 {
		return domain.ErrConflict
	}
	return nil
}

func scanPolarity(row *sql.Row) (domain.Polarity, error) {
	var p string
	err := row.Scan(&p)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", mapErr(err)
	}
	return domain.Polarity(p), nil
}

func countTarget(ctx context.Context, q queryer, target domain.TargetKey) (domain.Counts, error) {
	var c domain.Counts
	err := q.QueryRowContext(ctx, countReactionsSQL, string(target.Type), target.ID).
		Scan(&c.Likes, &c.Dislikes)
	if err != nil {
		return domain.Counts{}, mapErr(err)
	}
	return c, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
