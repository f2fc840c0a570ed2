// internal/workers/communication/notify-moderation/models.go
package notifymoderation

type Input struct {
	StoryID         int64  `json:"storyId"`
	AuthorID        string `json:"authorId"`
	ModerationEvent string `json:"moderationEvent"`
	Title           string `json:"title"`
	Note            string `json:"note"`
}

// Delivery channels and statuses.
const (
	ChannelEmail = "email"
	ChannelSNS   = "sns"
	ChannelNone  = "none"

	StatusSent     = "SENT"
	StatusDisabled = "DISABLED"
	StatusSkipped  = "SKIPPED"
)
