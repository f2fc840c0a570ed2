// internal/workers/search/search-similar-stories/models.go
package searchsimilarstories

// Input carries the searcher's profile. Profile holds typed values from a
// form or an upstream task; RawFilters holds loosely typed values, such as
// strings copied from query parameters, and wins on conflicting keys.
type Input struct {
	Profile    map[string]interface{} `json:"profile"`
	RawFilters map[string]interface{} `json:"rawFilters"`
	Limit      int                    `json:"limit"`
}

type Match struct {
	StoryID         int64    `json:"storyId"`
	Title           string   `json:"title"`
	University      string   `json:"university"`
	Faculty         string   `json:"faculty"`
	Score           int      `json:"score"`
	MatchPercentage int      `json:"matchPercentage"`
	MatchedRules    []string `json:"matchedRules"`
}

type Output struct {
	Matches  []Match `json:"matches"`
	Count    int     `json:"count"`
	Total    int     `json:"total"`
	MaxScore int     `json:"maxScore"`
}
