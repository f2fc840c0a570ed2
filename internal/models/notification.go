// internal/models/notification.go
package models

// ModerationEvent names what happened to a story, as seen by notifications.
type ModerationEvent string

const (
	EventSubmitted   ModerationEvent = "SUBMITTED"
	EventPublished   ModerationEvent = "PUBLISHED"
	EventRejected    ModerationEvent = "REJECTED"
	EventUnpublished ModerationEvent = "UNPUBLISHED"
)

type Notification struct {
	ID          string                 `json:"id"`
	StoryID     int64                  `json:"storyId"`
	RecipientID string                 `json:"recipientId"`
	Event       ModerationEvent        `json:"event"`
	Channel     string                 `json:"channel"` // "email", "sns"
	Status      string                 `json:"status"`  // "SENT", "FAILED", "DISABLED"
	Payload     map[string]interface{} `json:"payload,omitempty"`
	SentAt      string                 `json:"sentAt,omitempty"`
}
