package ranking

// Relevance scores textual similarity. The pipeline only depends on this
// interface, so the tokenizer and overlap measure can be replaced together.
type Relevance interface {
	Tokenize(text string) TokenSet
	Overlap(candidate, keywords TokenSet) float64
}

// KeywordRelevance is the word-length > 3 keyword match.
type KeywordRelevance struct{}

func (KeywordRelevance) Tokenize(text string) TokenSet { return Tokenize(text) }

func (KeywordRelevance) Overlap(candidate, keywords TokenSet) float64 {
	return float64(candidate.IntersectionSize(keywords))
}
