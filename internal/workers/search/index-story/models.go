// internal/workers/search/index-story/models.go
package indexstory

type Input struct {
	StoryID int64 `json:"storyId"`
}

// Result values.
const (
	ResultIndexed  = "INDEXED"
	ResultRemoved  = "REMOVED"
	ResultDisabled = "DISABLED"
)

type Output struct {
	StoryID     int64  `json:"storyId"`
	IndexResult string `json:"indexResult"`
}
