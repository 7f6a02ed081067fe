package dto

type ToggleReactionReq struct {
	Polarity string `json:"polarity" validate:"required,oneof=like dislike"`
}

type TrendingQuery struct {
	TimeRange string `json:"time_range" validate:"omitempty,oneof=1d 7d 30d"`
	Limit     int    `json:"limit" validate:"min=0"`
}

type RankingQuery struct {
	Limit int `json:"limit" validate:"min=0"`
}

type ReactedVideosQuery struct {
	Polarity string `json:"polarity" validate:"omitempty,oneof=like dislike"`
	Limit    int    `json:"limit" validate:"min=0"`
}
