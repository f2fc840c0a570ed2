// internal/workers/moderation/moderate-story/models.go
package moderatestory

type Input struct {
	StoryID   int64  `json:"storyId"`
	Action    string `json:"action"`
	ActorID   string `json:"actorId"`
	ActorRole string `json:"actorRole"`
	Note      string `json:"note"`
}

type Output struct {
	StoryID         int64  `json:"storyId"`
	Status          string `json:"status"`
	PreviousStatus  string `json:"previousStatus"`
	Published       bool   `json:"published"`
	AuthorID        string `json:"authorId"`
	ModerationEvent string `json:"moderationEvent"`
}
