package domain

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// SimilarityThreshold is the minimal trigram similarity counted as a match
const SimilarityThreshold = 0.3

// FoldText normalizes text for comparison: NFC, case folded
func FoldText(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// Words splits text into alphanumeric words, folded
func Words(s string) []string {
	return strings.FieldsFunc(FoldText(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Trigrams returns the trigram set of text. Each word is padded with two
// spaces in front and one behind before it is cut into trigrams.
func Trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range Words(s) {
		padded := []rune("  " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}
	return set
}

// Similarity is the share of trigrams two strings have in common
func Similarity(a, b string) float64 {
	ta, tb := Trigrams(a), Trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(ta)+len(tb)-shared)
}

// WordSimilarity is the best similarity between token and any word of text
func WordSimilarity(token, text string) float64 {
	best := 0.0
	for _, w := range Words(text) {
		if s := Similarity(token, w); s > best {
			best = s
		}
	}
	return best
}

// ScoredTrainer is a search hit
type ScoredTrainer struct {
	*TrainerWithUser
	Score float64 `json:"score"`
}

// RankTrainers keeps trainers where at least one search token is similar to
// a word of the first name, last name or description, ordered by the sum of
// per-token best similarity. An empty query keeps everyone ordered by
// experience.
func RankTrainers(query string, trainers []*TrainerWithUser) []*ScoredTrainer {
	tokens := Words(query)
	out := make([]*ScoredTrainer, 0, len(trainers))

	if len(tokens) == 0 {
		for _, t := range trainers {
			out = append(out, &ScoredTrainer{TrainerWithUser: t})
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].WholeExperience > out[j].WholeExperience
		})
		return out
	}

	for _, t := range trainers {
		fields := []string{t.FirstName, t.LastName, t.Description}
		score := 0.0
		matched := false
		for _, tok := range tokens {
			best := 0.0
			for _, f := range fields {
				if s := WordSimilarity(tok, f); s > best {
					best = s
				}
			}
			if best >= SimilarityThreshold {
				matched = true
				score += best
			}
		}
		if matched {
			out = append(out, &ScoredTrainer{TrainerWithUser: t, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
