// internal/workers/communication/notify-moderation/handler.go
package notifymoderation

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	awsclient "admission-stories/internal/common/aws"
	"admission-stories/internal/common/errors"
	"admission-stories/internal/common/logger"
	"admission-stories/internal/models"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "notify-moderation"
)

type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type TopicPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type ContactLookup interface {
	GetAuthorContact(ctx context.Context, authorID string) (*models.AuthorContact, error)
}

// Dependencies groups the outbound clients. Senders for disabled channels
// may be nil.
type Dependencies struct {
	Email    EmailSender
	Topic    TopicPublisher
	Contacts ContactLookup
	Logger   logger.Logger
}

type Handler struct {
	config       *Config
	email        EmailSender
	topic        TopicPublisher
	contacts     ContactLookup
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	now          func() time.Time
}

func NewHandler(config *Config, deps Dependencies) *Handler {
	log := deps.Logger.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		email:        deps.Email,
		topic:        deps.Topic,
		contacts:     deps.Contacts,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
		now:          time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return h.errorHandler.HandleJobError(ctx, client, job,
			errors.NewBusinessRuleError("Invalid notification request", fmt.Sprintf("parse input: %v", err)))
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		return h.errorHandler.HandleJobError(ctx, client, job, err)
	}

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(map[string]interface{}{"notification": output})
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err})
		return err
	}
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*models.Notification, error) {
	event := models.ModerationEvent(input.ModerationEvent)
	n := &models.Notification{
		ID:          uuid.New().String(),
		StoryID:     input.StoryID,
		RecipientID: input.AuthorID,
		Event:       event,
	}

	switch event {
	case models.EventSubmitted:
		n.Channel = ChannelSNS
		n.RecipientID = "staff"
		return h.notifyReviewers(ctx, input, n)
	case models.EventPublished, models.EventRejected:
		n.Channel = ChannelEmail
		return h.notifyAuthor(ctx, input, n)
	default:
		n.Channel = ChannelNone
		n.Status = StatusSkipped
		h.logger.Debug("no notification for event", map[string]interface{}{"event": input.ModerationEvent})
		return n, nil
	}
}

func (h *Handler) notifyReviewers(ctx context.Context, input *Input, n *models.Notification) (*models.Notification, error) {
	if !h.config.SNSEnabled || h.topic == nil {
		n.Status = StatusDisabled
		return n, nil
	}

	body := fmt.Sprintf("Story %d %q is waiting for review.", input.StoryID, input.Title)
	if h.config.SiteURL != "" {
		body += fmt.Sprintf("\n%s/admin/stories/%d", h.config.SiteURL, input.StoryID)
	}
	msg := awsclient.TopicMessage(h.config.ReviewTopicARN, "Story awaiting review", body, map[string]string{
		"event":          string(n.Event),
		"storyId":        strconv.FormatInt(input.StoryID, 10),
		"notificationId": n.ID,
	})

	out, err := h.topic.Publish(ctx, msg)
	if err != nil {
		return nil, errors.NewNotificationSendFailedError(ChannelSNS, err)
	}
	return h.sent(n, sdkaws.ToString(out.MessageId)), nil
}

func (h *Handler) notifyAuthor(ctx context.Context, input *Input, n *models.Notification) (*models.Notification, error) {
	if !h.config.EmailEnabled || h.email == nil {
		n.Status = StatusDisabled
		return n, nil
	}

	contact, err := h.contacts.GetAuthorContact(ctx, input.AuthorID)
	if err != nil {
		return nil, err
	}

	subject, body := authorMessage(n.Event, input, contact, h.config.SiteURL)
	out, err := h.email.SendEmail(ctx, awsclient.TextEmail(h.config.FromEmail, contact.Email, subject, body))
	if err != nil {
		return nil, errors.NewNotificationSendFailedError(ChannelEmail, err)
	}
	return h.sent(n, sdkaws.ToString(out.MessageId)), nil
}

func (h *Handler) sent(n *models.Notification, messageID string) *models.Notification {
	n.Status = StatusSent
	n.SentAt = h.now().UTC().Format(time.RFC3339)
	n.Payload = map[string]interface{}{"messageId": messageID}
	h.logger.Info("notification sent", map[string]interface{}{
		"notificationId": n.ID,
		"storyId":        n.StoryID,
		"channel":        n.Channel,
		"event":          n.Event,
	})
	return n
}

func authorMessage(event models.ModerationEvent, input *Input, contact *models.AuthorContact, siteURL string) (string, string) {
	name := contact.DisplayName
	if name == "" {
		name = "there"
	}
	title := input.Title
	if title == "" {
		title = "your story"
	}

	if event == models.EventPublished {
		body := fmt.Sprintf("Hi %s,\n\n%q has been approved and is now published.", name, title)
		if siteURL != "" {
			body += fmt.Sprintf("\n\n%s/stories/%d", siteURL, input.StoryID)
		}
		return "Your story is published", body
	}

	body := fmt.Sprintf("Hi %s,\n\n%q was not approved.", name, title)
	if input.Note != "" {
		body += "\n\nReviewer note: " + input.Note
	}
	body += "\n\nYou can edit the story and submit it again."
	return "Your story needs changes", body
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*models.Notification, error) {
	return h.execute(ctx, input)
}
