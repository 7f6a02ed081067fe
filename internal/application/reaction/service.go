package reaction

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/domain"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type Options struct {
	QueryTimeout time.Duration
	MaxAttempts  int
}

type Service struct {
	repo    Repo
	targets TargetDirectory
	pub     EventPublisher
	clock   Clock

	queryTimeout time.Duration
	maxAttempts  int
}

func New(repo Repo, targets TargetDirectory, clock Clock, pub EventPublisher, opt Options) *Service {
	if pub == nil {
		pub = NoopPublisher{}
	}
	if opt.QueryTimeout <= 0 {
		opt.QueryTimeout = 2 * time.Second
	}
	if opt.MaxAttempts < 1 {
		opt.MaxAttempts = 2
	}
	return &Service{
		repo:         repo,
		targets:      targets,
		pub:          pub,
		clock:        clock,
		queryTimeout: opt.QueryTimeout,
		maxAttempts:  opt.MaxAttempts,
	}
}

func parseTarget(targetType, targetID string) (domain.TargetKey, error) {
	tt, err := domain.ParseTargetType(targetType)
	if err != nil {
		return domain.TargetKey{}, err
	}
	id, err := uuid.Parse(strings.TrimSpace(targetID))
	if err != nil {
		return domain.TargetKey{}, domain.ErrValidationMeta("invalid target id", map[string]string{
			"target_id": "must be a valid uuid",
		})
	}
	return domain.TargetKey{Type: tt, ID: id}, nil
}

// storeErr turns a blown query budget into a retryable error.
func storeErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrUnavailable("reaction store timed out")
	}
	return err
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}
