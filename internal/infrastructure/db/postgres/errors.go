package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/domain"
)

const (
	pgUniqueViolation = "23505"
	pgQueryCanceled   = "57014"
	pgSerialization   = "40001"
	pgDeadlock        = "40P01"
)

// mapErr translates driver errors into domain errors where the caller can act
// on them. Everything else is returned unchanged.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrUnavailable("database query timed out")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerialization, pgDeadlock:
			return domain.ErrConflict
		case pgQueryCanceled:
			return domain.ErrUnavailable("database query canceled")
		}
	}
	return err
}
