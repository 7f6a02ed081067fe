package ranking

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/domain"
)

// minTokenRunes is exclusive: a token must be longer than this.
const minTokenRunes = 3

type TokenSet map[string]struct{}

func (s TokenSet) Has(w string) bool {
	_, ok := s[w]
	return ok
}

// Union returns a new set holding the members of both.
func (s TokenSet) Union(o TokenSet) TokenSet {
	out := make(TokenSet, len(s)+len(o))
	for w := range s {
		out[w] = struct{}{}
	}
	for w := range o {
		out[w] = struct{}{}
	}
	return out
}

// IntersectionSize counts members present in both sets.
func (s TokenSet) IntersectionSize(o TokenSet) int {
	small, large := s, o
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for w := range small {
		if large.Has(w) {
			n++
		}
	}
	return n
}

// Tokenize lowercases text, splits on whitespace and keeps words longer than
// three characters. No stemming or stop words.
func Tokenize(text string) TokenSet {
	out := TokenSet{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if utf8.RuneCountInString(w) > minTokenRunes {
			out[w] = struct{}{}
		}
	}
	return out
}

type Features struct {
	VideoID           uuid.UUID
	Title             string
	TitleTokens       TokenSet
	DescriptionTokens TokenSet
	OwnerID           uuid.UUID
	AgeInDays         float64
	ViewCount         int64
	CreatedAt         time.Time
}

// Extractor derives ranking features using the tokenizer of a Relevance.
type Extractor struct {
	rel Relevance
}

func NewExtractor(rel Relevance) Extractor {
	if rel == nil {
		rel = KeywordRelevance{}
	}
	return Extractor{rel: rel}
}

func (e Extractor) Extract(v domain.Video, now time.Time) Features {
	views := v.ViewCount
	if views < 0 {
		views = 0
	}
	return Features{
		VideoID:           v.ID,
		Title:             v.Title,
		TitleTokens:       e.rel.Tokenize(v.Title),
		DescriptionTokens: e.rel.Tokenize(v.Description),
		OwnerID:           v.OwnerID,
		AgeInDays:         AgeInDays(v.CreatedAt, now),
		ViewCount:         views,
		CreatedAt:         v.CreatedAt,
	}
}

// ExtractFeatures uses the default keyword tokenizer.
func ExtractFeatures(v domain.Video, now time.Time) Features {
	return NewExtractor(nil).Extract(v, now)
}

// AgeInDays is fractional and clamped at zero for clock skew.
func AgeInDays(createdAt, now time.Time) float64 {
	d := now.Sub(createdAt)
	if d < 0 {
		return 0
	}
	return d.Hours() / 24
}
