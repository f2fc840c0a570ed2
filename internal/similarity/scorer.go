package similarity

import (
	"math"
	"sort"

	"admission-stories/internal/models"
)

// ScoredResult is a candidate story with its score against one profile.
type ScoredResult struct {
	Story           models.Story `json:"story"`
	Score           int          `json:"score"`
	MatchPercentage int          `json:"matchPercentage"`
	MatchedRules    []string     `json:"matchedRules,omitempty"`
}

// Score sums the weights of every rule the candidate satisfies.
func Score(story models.Story, profile models.ProfileQuery) int {
	score, _ := evaluate(story, profile)
	return score
}

// Breakdown returns the names of the rules that fired, in table order.
func Breakdown(story models.Story, profile models.ProfileQuery) []string {
	_, matched := evaluate(story, profile)
	return matched
}

func evaluate(story models.Story, profile models.ProfileQuery) (int, []string) {
	score := 0
	var matched []string
	for _, r := range Rules {
		if r.Match(profile, story) {
			score += r.Weight
			matched = append(matched, r.Name)
		}
	}
	return score, matched
}

// MatchPercentage normalizes a score against MaxScore, rounding half away from zero.
func MatchPercentage(score int) int {
	if MaxScore == 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(MaxScore) * 100))
}

// Search scores every published candidate in pool and returns them ordered
// by descending score. Candidates with equal scores keep their pool order.
// Unpublished candidates are dropped even if the caller passed them in.
func Search(profile models.ProfileQuery, pool []models.Story) []ScoredResult {
	results := make([]ScoredResult, 0, len(pool))
	for _, story := range pool {
		if !story.Published {
			continue
		}
		score, matched := evaluate(story, profile)
		results = append(results, ScoredResult{
			Story:           story,
			Score:           score,
			MatchPercentage: MatchPercentage(score),
			MatchedRules:    matched,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
