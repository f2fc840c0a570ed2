// internal/workers/communication/notify-moderation/config.go
package notifymoderation

import (
	"fmt"
	"strings"
	"time"

	"admission-stories/internal/common/config"
)

type Config struct {
	Enabled        bool
	Timeout        time.Duration
	EmailEnabled   bool
	FromEmail      string
	SiteURL        string
	SNSEnabled     bool
	ReviewTopicARN string
}

func LoadConfig(app *config.Config) *Config {
	wc := config.GetWorkerConfig(app, TaskType)
	n := app.Notifications
	return &Config{
		Enabled:        wc.Enabled,
		Timeout:        config.GetDuration(wc.Timeout),
		EmailEnabled:   n.Email.Enabled,
		FromEmail:      n.Email.FromEmail,
		SiteURL:        strings.TrimRight(n.Email.SiteURL, "/"),
		SNSEnabled:     n.SNS.Enabled,
		ReviewTopicARN: n.SNS.ReviewTopicARN,
	}
}

// Validate checks that every enabled channel has what it needs to send.
func (c *Config) Validate() error {
	if c.EmailEnabled && c.FromEmail == "" {
		return fmt.Errorf("notifications.email.from_email is required when email is enabled")
	}
	if c.SNSEnabled && c.ReviewTopicARN == "" {
		return fmt.Errorf("notifications.sns.review_topic_arn is required when sns is enabled")
	}
	return nil
}
