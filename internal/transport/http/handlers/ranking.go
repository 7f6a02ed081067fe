package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/transport/http/dto"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/transport/http/validate"
)

type RankingService interface {
	Recommendations(ctx context.Context, refID string, viewerID uuid.UUID, limit int) ([]domain.RankedResult, error)
	Trending(ctx context.Context, timeRange string, limit int) ([]domain.RankedResult, error)
	Related(ctx context.Context, refID string, limit int) ([]domain.RankedResult, error)
}

type RankingHandler struct {
	svc RankingService
}

func NewRankingHandler(svc RankingService) *RankingHandler {
	return &RankingHandler{svc: svc}
}

func (h *RankingHandler) Trending(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := validate.QueryInt("limit", q.Get("limit"))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	req := dto.TrendingQuery{TimeRange: q.Get("time_range"), Limit: limit}
	if err := validate.Struct(req); err != nil {
		response.Err(w, r, err)
		return
	}

	items, err := h.svc.Trending(r.Context(), req.TimeRange, req.Limit)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.NewList(items))
}

// Recommendations personalizes when the caller is signed in.
func (h *RankingHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	req, ok := h.rankingQuery(w, r)
	if !ok {
		return
	}

	viewer := uuid.Nil
	if ac, ok := middleware.GetAuth(r.Context()); ok {
		viewer = ac.UserID
	}

	items, err := h.svc.Recommendations(r.Context(), chi.URLParam(r, "video_id"), viewer, req.Limit)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.NewList(items))
}

func (h *RankingHandler) Related(w http.ResponseWriter, r *http.Request) {
	req, ok := h.rankingQuery(w, r)
	if !ok {
		return
	}

	items, err := h.svc.Related(r.Context(), chi.URLParam(r, "video_id"), req.Limit)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.NewList(items))
}

func (h *RankingHandler) rankingQuery(w http.ResponseWriter, r *http.Request) (dto.RankingQuery, bool) {
	limit, err := validate.QueryInt("limit", r.URL.Query().Get("limit"))
	if err != nil {
		response.Err(w, r, err)
		return dto.RankingQuery{}, false
	}
	req := dto.RankingQuery{Limit: limit}
	if err := validate.Struct(req); err != nil {
		response.Err(w, r, err)
		return dto.RankingQuery{}, false
	}
	return req, true
}
