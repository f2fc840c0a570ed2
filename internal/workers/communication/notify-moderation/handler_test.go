// internal/workers/communication/notify-moderation/handler_test.go
package notifymoderation

import (
	"context"
	"strings"
	"testing"
	"time"

	"admission-stories/internal/common/config"
	"admission-stories/internal/common/errors"
	"admission-stories/internal/common/logger"
	"admission-stories/internal/models"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEmail struct {
	mock.Mock
}

func (m *MockEmail) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ses.SendEmailOutput), args.Error(1)
}

type MockTopic struct {
	mock.Mock
}

func (m *MockTopic) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

type MockContacts struct {
	mock.Mock
}

func (m *MockContacts) GetAuthorContact(ctx context.Context, authorID string) (*models.AuthorContact, error) {
	args := m.Called(ctx, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthorContact), args.Error(1)
}

func createValidConfig() *Config {
	return &Config{
		Enabled:        true,
		Timeout:        5 * time.Second,
		EmailEnabled:   true,
		FromEmail:      "stories@example.com",
		SiteURL:        "https://stories.example.com",
		SNSEnabled:     true,
		ReviewTopicARN: "arn:aws:sns:ap-northeast-2:123456789012:story-review",
	}
}

type fixture struct {
	email    *MockEmail
	topic    *MockTopic
	contacts *MockContacts
	handler  *Handler
}

func newFixture(t *testing.T, cfg *Config) *fixture {
	f := &fixture{email: new(MockEmail), topic: new(MockTopic), contacts: new(MockContacts)}
	f.handler = NewHandler(cfg, Dependencies{
		Email:    f.email,
		Topic:    f.topic,
		Contacts: f.contacts,
		Logger:   logger.NewTestLogger(t),
	})
	f.handler.now = func() time.Time { return time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC) }
	return f
}

func TestLoadConfig(t *testing.T) {
	app := &config.Config{}
	app.Notifications.Email.Enabled = true
	app.Notifications.Email.FromEmail = "stories@example.com"
	app.Notifications.Email.SiteURL = "https://stories.example.com/"

	cfg := LoadConfig(app)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "https://stories.example.com", cfg.SiteURL)
	assert.NoError(t, cfg.Validate())

	cfg.SNSEnabled = true
	assert.Error(t, cfg.Validate())
}

func TestHandler_SubmittedPublishesToReviewTopic(t *testing.T) {
	f := newFixture(t, createValidConfig())
	f.topic.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return sdkaws.ToString(in.TopicArn) == createValidConfig().ReviewTopicARN &&
			sdkaws.ToString(in.MessageAttributes["storyId"].StringValue) == "7"
	})).Return(&sns.PublishOutput{MessageId: sdkaws.String("sns-1")}, nil)

	n, err := f.handler.Execute(context.Background(), &Input{StoryID: 7, AuthorID: "author-1", ModerationEvent: "SUBMITTED", Title: "Law school"})

	require.NoError(t, err)
	assert.Equal(t, ChannelSNS, n.Channel)
	assert.Equal(t, StatusSent, n.Status)
	assert.Equal(t, "2025-04-02T10:00:00Z", n.SentAt)
	assert.Equal(t, "sns-1", n.Payload["messageId"])
	_, err = uuid.Parse(n.ID)
	assert.NoError(t, err)
	f.email.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func TestHandler_PublishedEmailsAuthor(t *testing.T) {
	f := newFixture(t, createValidConfig())
	f.contacts.On("GetAuthorContact", mock.Anything, "author-1").
		Return(&models.AuthorContact{AuthorID: "author-1", Email: "min@example.com", DisplayName: "Min"}, nil)

	var sent *ses.SendEmailInput
	f.email.On("SendEmail", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*ses.SendEmailInput) }).
		Return(&ses.SendEmailOutput{MessageId: sdkaws.String("ses-1")}, nil)

	n, err := f.handler.Execute(context.Background(), &Input{StoryID: 7, AuthorID: "author-1", ModerationEvent: "PUBLISHED", Title: "Law school"})

	require.NoError(t, err)
	assert.Equal(t, ChannelEmail, n.Channel)
	assert.Equal(t, StatusSent, n.Status)
	require.NotNil(t, sent)
	assert.Equal(t, []string{"min@example.com"}, sent.Destination.ToAddresses)
	assert.Equal(t, "stories@example.com", sdkaws.ToString(sent.Source))
	assert.Contains(t, sdkaws.ToString(sent.Message.Body.Text.Data), "https://stories.example.com/stories/7")
}

func TestHandler_RejectedEmailCarriesNote(t *testing.T) {
	f := newFixture(t, createValidConfig())
	f.contacts.On("GetAuthorContact", mock.Anything, "author-1").
		Return(&models.AuthorContact{AuthorID: "author-1", Email: "min@example.com"}, nil)
	f.email.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		body := sdkaws.ToString(in.Message.Body.Text.Data)
		return sdkaws.ToString(in.Message.Subject.Data) == "Your story needs changes" &&
			strings.Contains(body, "Reviewer note: add your grade band")
	})).Return(&ses.SendEmailOutput{MessageId: sdkaws.String("ses-2")}, nil)

	n, err := f.handler.Execute(context.Background(), &Input{StoryID: 7, AuthorID: "author-1", ModerationEvent: "REJECTED", Note: "add your grade band"})

	require.NoError(t, err)
	assert.Equal(t, StatusSent, n.Status)
	f.email.AssertExpectations(t)
}

func TestHandler_DisabledChannels(t *testing.T) {
	cfg := createValidConfig()
	cfg.EmailEnabled = false
	cfg.SNSEnabled = false
	f := newFixture(t, cfg)

	for _, event := range []string{"SUBMITTED", "PUBLISHED", "REJECTED"} {
		n, err := f.handler.Execute(context.Background(), &Input{StoryID: 7, AuthorID: "author-1", ModerationEvent: event})
		require.NoError(t, err)
		assert.Equal(t, StatusDisabled, n.Status, event)
	}
	f.topic.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	f.email.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func TestHandler_UnpublishedIsSkipped(t *testing.T) {
	f := newFixture(t, createValidConfig())

	n, err := f.handler.Execute(context.Background(), &Input{StoryID: 7, ModerationEvent: "UNPUBLISHED"})

	require.NoError(t, err)
	assert.Equal(t, ChannelNone, n.Channel)
	assert.Equal(t, StatusSkipped, n.Status)
}

func TestHandler_SendFailuresAreRetryable(t *testing.T) {
	f := newFixture(t, createValidConfig())
	f.topic.On("Publish", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	_, err := f.handler.Execute(context.Background(), &Input{StoryID: 7, ModerationEvent: "SUBMITTED"})

	stdErr := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestHandler_UnknownAuthor(t *testing.T) {
	f := newFixture(t, createValidConfig())
	f.contacts.On("GetAuthorContact", mock.Anything, "ghost").
		Return(nil, errors.NewResourceNotFoundError("authors", "authorId: ghost"))

	_, err := f.handler.Execute(context.Background(), &Input{StoryID: 7, AuthorID: "ghost", ModerationEvent: "PUBLISHED"})

	assert.True(t, errors.HasCode(err, errors.ErrCodeResourceNotFound))
}
