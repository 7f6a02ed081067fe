package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/metrics"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/transport/http/handlers"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/transport/http/response"
	appCtx "github.com/baechuer/real-time-ressys/services/ranking-service/internal/pkg/context"
)

func New(
	ranking *handlers.RankingHandler,
	reactions *handlers.ReactionsHandler,
	health *handlers.HealthHandler,
	auth *middleware.Auth,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.AccessLog)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, http.StatusNotFound, "not_found", "route not found", nil, appCtx.GetRequestID(r.Context()))
	})

	r.Get("/healthz", health.Healthz)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/ranking/v1", func(r chi.Router) {
		if cfg.RLEnabled {
			r.Use(httprate.LimitByIP(cfg.RLLimit, cfg.RLWindow))
		}

		r.Get("/videos/trending", ranking.Trending)
		r.Get("/videos/{video_id}/related", ranking.Related)
		r.With(auth.Optional).Get("/videos/{video_id}/recommendations", ranking.Recommendations)

		r.Get("/reactions/{target_type}/{target_id}/counts", reactions.Counts)

		r.Group(func(r chi.Router) {
			r.Use(auth.Require)
			r.Get("/reactions/{target_type}/{target_id}", reactions.State)
			r.Post("/reactions/{target_type}/{target_id}", reactions.Toggle)
			r.Get("/me/reactions/videos", reactions.MyReactedVideos)
		})
	})

	return r
}
