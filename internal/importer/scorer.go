package importer

import "strings"

// Scorer rates how well a detected field name matches a dictionary
// parameter, 0 to 100. Pluggable so the heuristic can be swapped or tested
// independently of the mapping pipeline.
type Scorer interface {
	Score(candidate string, p Parameter) int
}

// Confidence tiers. Exact name hits land in the high tier, keyword hits in
// the medium tier, loose token overlap in the low tier.
const (
	scoreExact       = 95
	scoreKeyword     = 80
	scorePartial     = 60
	scoreTokenShared = 45

	// SelectionThreshold is the default cutoff: only mappings scoring
	// strictly above it are pre-selected for import.
	SelectionThreshold = 70
)

// KeywordScorer matches normalized names against a parameter's label, id
// and keyword list.
type KeywordScorer struct{}

func (KeywordScorer) Score(candidate string, p Parameter) int {
	c := Normalize(candidate)
	if c == "" {
		return 0
	}

	if c == Normalize(p.Label) || c == Normalize(p.FieldID) {
		return scoreExact
	}

	for _, kw := range p.Keywords {
		if c == Normalize(kw) {
			return scoreKeyword
		}
	}

	for _, kw := range p.Keywords {
		n := Normalize(kw)
		if len(n) >= 3 && (strings.Contains(c, n) || strings.Contains(n, c)) {
			return scorePartial
		}
	}

	if sharesToken(c, p) {
		return scoreTokenShared
	}

	return 0
}

func sharesToken(candidate string, p Parameter) bool {
	tokens := strings.Fields(candidate)
	for _, tok := range tokens {
		if len(tok) < 4 {
			continue
		}
		for _, kw := range p.Keywords {
			for _, kt := range strings.Fields(Normalize(kw)) {
				if tok == kt {
					return true
				}
			}
		}
	}
	return false
}
