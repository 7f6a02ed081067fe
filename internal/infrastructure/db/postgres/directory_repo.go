package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/domain"
)

// DirectoryRepo reads the user/channel directory and watch history.
type DirectoryRepo struct {
	db *sql.DB
}

func NewDirectoryRepo(db *sql.DB) *DirectoryRepo { return &DirectoryRepo{db: db} }

func (r *DirectoryRepo) GetOwners(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Owner, error) {
	out := make(map[uuid.UUID]domain.Owner, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, getOwnersSQL, uuidStrings(ids))
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		var o domain.Owner
		if err := rows.Scan(&o.ID, &o.DisplayName, &o.AvatarRef, &o.SubscriberCount); err != nil {
			return nil, mapErr(err)
		}
		out[o.ID] = o
	}
	return out, mapErr(rows.Err())
}

// WatchedAmong returns the subset of ids the viewer has ever watched, each once.
func (r *DirectoryRepo) WatchedAmong(ctx context.Context, viewerID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	if viewerID == uuid.Nil || len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, watchedAmongSQL, viewerID, uuidStrings(ids))
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, id)
	}
	return out, mapErr(rows.Err())
}
