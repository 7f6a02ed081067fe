package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/metrics"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/transport/http/response"
)

// Pinger is any dependency that can report liveness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	deps map[string]Pinger
}

// NewHealthHandler checks each named dependency on /healthz. Postgres is the
// only hard dependency; the rest are reported but do not fail the probe.
func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.deps))
	for name, p := range h.deps {
		if err := p.PingContext(ctx); err != nil {
			logger.WithCtx(r.Context()).Warn().Err(err).Str("dependency", name).Msg("health check failed")
			metrics.SetDependencyHealth(name, false)
			checks[name] = "down"
			if name == "postgres" {
				status = http.StatusServiceUnavailable
			}
			continue
		}
		metrics.SetDependencyHealth(name, true)
		checks[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	response.Data(w, status, map[string]any{"status": overall, "checks": checks})
}
