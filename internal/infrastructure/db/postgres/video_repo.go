package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/application/ranking"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/domain"
)

// CatalogRepo reads the video, comment and tweet directories.
type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(s rowScanner) (domain.Video, error) {
	var v domain.Video
	err := s.Scan(&v.ID, &v.Title, &v.Description, &v.OwnerID, &v.IsPublished, &v.CreatedAt,
		&v.ViewCount, &v.DurationSeconds, &v.ThumbnailRef)
	return v, err
}

func (r *CatalogRepo) GetVideo(ctx context.Context, id uuid.UUID) (*domain.Video, error) {
	v, err := scanVideo(r.db.QueryRowContext(ctx, getVideoSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("video not found")
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return &v, nil
}

func (r *CatalogRepo) ListCandidates(ctx context.Context, f ranking.CandidateFilter) ([]domain.Video, error) {
	where := []string{"is_published = TRUE"}
	args := []any{}
	argPos := 1

	if f.ExcludeID != uuid.Nil {
		where = append(where, fmt.Sprintf("id <> $%d", argPos))
		args = append(args, f.ExcludeID)
		argPos++
	}
	if !f.CreatedAfter.IsZero() {
		where = append(where, fmt.Sprintf("created_at >= $%d", argPos))
		args = append(args, f.CreatedAfter)
	}

	q := "SELECT " + videoColumns + "\nFROM videos\nWHERE " + strings.Join(where, " AND ")

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []domain.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, v)
	}
	return out, mapErr(rows.Err())
}

func (r *CatalogRepo) TargetExists(ctx context.Context, target domain.TargetKey) (bool, error) {
	q, ok := targetExistsSQL[string(target.Type)]
	if !ok {
		return false, domain.ErrValidation("invalid target type")
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, target.ID).Scan(&exists); err != nil {
		return false, mapErr(err)
	}
	return exists, nil
}
