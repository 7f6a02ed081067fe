package dto

import "github.com/baechuer/real-time-ressys/services/ranking-service/internal/domain"

type ListResp[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func NewList[T any](items []T) ListResp[T] {
	if items == nil {
		items = []T{}
	}
	return ListResp[T]{Items: items, Count: len(items)}
}

type CountsResp struct {
	TargetType    string `json:"target_type"`
	TargetID      string `json:"target_id"`
	LikesCount    int64  `json:"likes_count"`
	DislikesCount int64  `json:"dislikes_count"`
}

func ToCountsResp(targetType, targetID string, c domain.Counts) CountsResp {
	return CountsResp{
		TargetType:    targetType,
		TargetID:      targetID,
		LikesCount:    c.Likes,
		DislikesCount: c.Dislikes,
	}
}

type ReactionStateResp struct {
	CountsResp
	State string `json:"state"`
}
