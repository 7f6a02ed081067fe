package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/transport/http/dto"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/transport/http/validate"
)

const maxToggleBody = 1 << 10

type ReactionService interface {
	Toggle(ctx context.Context, userID uuid.UUID, targetType, targetID, polarity string) (domain.Counts, error)
	Counts(ctx context.Context, targetType, targetID string) (domain.Counts, error)
	State(ctx context.Context, userID uuid.UUID, targetType, targetID string) (domain.ReactionState, error)
	ListReactedVideos(ctx context.Context, userID uuid.UUID, polarity string, limit int) ([]domain.ReactedVideo, error)
}

type ReactionsHandler struct {
	svc ReactionService
}

func NewReactionsHandler(svc ReactionService) *ReactionsHandler {
	return &ReactionsHandler{svc: svc}
}

func (h *ReactionsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.GetAuth(r.Context())
	if !ok {
		response.Err(w, r, domain.ErrUnauthorized("authentication required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxToggleBody)
	var req dto.ToggleReactionReq
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		response.Err(w, r, domain.ErrValidationMeta("invalid json body", map[string]string{
			"body": "malformed JSON",
		}))
		return
	}
	req.Polarity = strings.ToLower(strings.TrimSpace(req.Polarity))
	if err := validate.Struct(req); err != nil {
		response.Err(w, r, err)
		return
	}

	tt, id := chi.URLParam(r, "target_type"), chi.URLParam(r, "target_id")
	counts, err := h.svc.Toggle(r.Context(), ac.UserID, tt, id, req.Polarity)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToCountsResp(tt, id, counts))
}

func (h *ReactionsHandler) Counts(w http.ResponseWriter, r *http.Request) {
	tt, id := chi.URLParam(r, "target_type"), chi.URLParam(r, "target_id")
	counts, err := h.svc.Counts(r.Context(), tt, id)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToCountsResp(tt, id, counts))
}

// State returns the caller's current reaction plus the target's counts.
func (h *ReactionsHandler) State(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.GetAuth(r.Context())
	if !ok {
		response.Err(w, r, domain.ErrUnauthorized("authentication required"))
		return
	}

	tt, id := chi.URLParam(r, "target_type"), chi.URLParam(r, "target_id")
	state, err := h.svc.State(r.Context(), ac.UserID, tt, id)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	counts, err := h.svc.Counts(r.Context(), tt, id)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ReactionStateResp{
		CountsResp: dto.ToCountsResp(tt, id, counts),
		State:      string(state),
	})
}

func (h *ReactionsHandler) MyReactedVideos(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.GetAuth(r.Context())
	if !ok {
		response.Err(w, r, domain.ErrUnauthorized("authentication required"))
		return
	}

	q := r.URL.Query()
	limit, err := validate.QueryInt("limit", q.Get("limit"))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	req := dto.ReactedVideosQuery{Polarity: q.Get("polarity"), Limit: limit}
	if err := validate.Struct(req); err != nil {
		response.Err(w, r, err)
		return
	}
	if req.Polarity == "" {
		req.Polarity = string(domain.PolarityLike)
	}

	items, err := h.svc.ListReactedVideos(r.Context(), ac.UserID, req.Polarity, req.Limit)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.NewList(items))
}
