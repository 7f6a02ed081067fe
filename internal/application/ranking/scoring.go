package ranking

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

// Recommendation weights.
const (
	RecViewWeight        = 0.3
	RecAgeWeight         = -0.1
	RecSameOwnerBonus    = 2.0
	RecWatchedPenalty    = -1.0
	RecTitleKeywordBonus = 1.5

	// RecTitleKeywordWords is how many leading reference title words are matched.
	RecTitleKeywordWords = 3
)

// Trending weights. Both view terms are kept.
const (
	TrendLogViewWeight    = 0.4
	TrendAgeWeight        = -0.2
	TrendLinearViewWeight = 0.001
)

// Related weights.
const (
	RelSameOwnerBonus     = 3.0
	RelTitleOverlapWeight = 1.5
	RelDescOverlapWeight  = 0.5
	RelViewWeight         = 0.2
)

func Log10Views(views int64) float64 { return math.Log10(float64(max(views, 0)) + 1) }

func LnViews(views int64) float64 { return math.Log(float64(max(views, 0)) + 1) }

func SameOwner(a, b uuid.UUID) bool { return a != uuid.Nil && a == b }

func bonus(cond bool, weight float64) float64 {
	if cond {
		return weight
	}
	return 0
}

// LeadingTitleWords returns up to n lowercased whitespace-separated words.
func LeadingTitleWords(title string, n int) []string {
	words := strings.Fields(strings.ToLower(title))
	if len(words) > n {
		words = words[:n]
	}
	return words
}

// TitleContainsAny reports whether title contains any of words, case-insensitively.
// words must already be lowercase.
func TitleContainsAny(title string, words []string) bool {
	lt := strings.ToLower(title)
	for _, w := range words {
		if w != "" && strings.Contains(lt, w) {
			return true
		}
	}
	return false
}

type RecommendationContext struct {
	Reference  Features
	TitleWords []string
	Watched    map[uuid.UUID]struct{}
}

func NewRecommendationContext(ref Features, history []uuid.UUID) RecommendationContext {
	watched := make(map[uuid.UUID]struct{}, len(history))
	for _, id := range history {
		watched[id] = struct{}{}
	}
	return RecommendationContext{
		Reference:  ref,
		TitleWords: LeadingTitleWords(ref.Title, RecTitleKeywordWords),
		Watched:    watched,
	}
}

func (rc RecommendationContext) watched(id uuid.UUID) bool {
	_, ok := rc.Watched[id]
	return ok
}

func RecommendationScore(c Features, rc RecommendationContext) float64 {
	return RecViewWeight*Log10Views(c.ViewCount) +
		RecAgeWeight*c.AgeInDays +
		bonus(SameOwner(c.OwnerID, rc.Reference.OwnerID), RecSameOwnerBonus) +
		bonus(rc.watched(c.VideoID), RecWatchedPenalty) +
		bonus(TitleContainsAny(c.Title, rc.TitleWords), RecTitleKeywordBonus)
}

func TrendingScore(c Features) float64 {
	return TrendLogViewWeight*LnViews(c.ViewCount) +
		TrendAgeWeight*c.AgeInDays +
		TrendLinearViewWeight*float64(c.ViewCount)
}

// RelatedKeywords is the reference's title and description vocabulary.
func RelatedKeywords(ref Features) TokenSet {
	return ref.TitleTokens.Union(ref.DescriptionTokens)
}

func RelatedScore(c Features, ref Features, keywords TokenSet, rel Relevance) float64 {
	return bonus(SameOwner(c.OwnerID, ref.OwnerID), RelSameOwnerBonus) +
		RelTitleOverlapWeight*rel.Overlap(c.TitleTokens, keywords) +
		RelDescOverlapWeight*rel.Overlap(c.DescriptionTokens, keywords) +
		RelViewWeight*LnViews(c.ViewCount)
}
