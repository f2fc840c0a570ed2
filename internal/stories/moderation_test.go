package stories

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "admission-stories/internal/common/errors"
	"admission-stories/internal/common/logger"
	"admission-stories/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetStory(ctx context.Context, id int64) (*models.Story, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Story)
	return s, args.Error(1)
}

func (m *mockStore) ApplyStatusChange(ctx context.Context, change StatusChange) error {
	return m.Called(ctx, change).Error(0)
}

type mockInvalidator struct {
	mock.Mock
}

func (m *mockInvalidator) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func storyIn(status models.StoryStatus) *models.Story {
	s := &models.Story{ID: 7, AuthorID: "author-1", Status: status, ThemeIDs: []int64{}}
	if status == models.StatusPublished {
		now := time.Now()
		s.Published = true
		s.PublishedAt = &now
	}
	return s
}

func TestParseAction(t *testing.T) {
	assert.Equal(t, ActionApprove, ParseAction(" Approve "))
	assert.Equal(t, ActionUnpublish, ParseAction("UNPUBLISH"))
	assert.Equal(t, Action(""), ParseAction("delete"))
}

func TestModerator_Transitions(t *testing.T) {
	tests := []struct {
		name      string
		from      models.StoryStatus
		req       ModerationRequest
		wantTo    models.StoryStatus
		wantEvent models.ModerationEvent
	}{
		{
			name:      "author submits draft",
			from:      models.StatusDraft,
			req:       ModerationRequest{Action: ActionSubmit, ActorID: "author-1", ActorRole: models.RoleAuthor},
			wantTo:    models.StatusPending,
			wantEvent: models.EventSubmitted,
		},
		{
			name:      "author resubmits rejected story",
			from:      models.StatusRejected,
			req:       ModerationRequest{Action: ActionSubmit, ActorID: "author-1", ActorRole: models.RoleAuthor},
			wantTo:    models.StatusPending,
			wantEvent: models.EventSubmitted,
		},
		{
			name:      "staff approves",
			from:      models.StatusPending,
			req:       ModerationRequest{Action: ActionApprove, ActorID: "staff-1", ActorRole: models.RoleStaff},
			wantTo:    models.StatusPublished,
			wantEvent: models.EventPublished,
		},
		{
			name:      "admin rejects with note",
			from:      models.StatusPending,
			req:       ModerationRequest{Action: ActionReject, ActorID: "admin-1", ActorRole: models.RoleAdmin, Note: "missing details"},
			wantTo:    models.StatusRejected,
			wantEvent: models.EventRejected,
		},
		{
			name:      "admin unpublishes",
			from:      models.StatusPublished,
			req:       ModerationRequest{Action: ActionUnpublish, ActorID: "admin-1", ActorRole: models.RoleAdmin},
			wantTo:    models.StatusDraft,
			wantEvent: models.EventUnpublished,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockStore)
			cache := new(mockInvalidator)
			tt.req.StoryID = 7

			store.On("GetStory", mock.Anything, int64(7)).Return(storyIn(tt.from), nil)
			store.On("ApplyStatusChange", mock.Anything, StatusChange{
				StoryID:   7,
				From:      tt.from,
				To:        tt.wantTo,
				Action:    string(tt.req.Action),
				ActorID:   tt.req.ActorID,
				ActorRole: tt.req.ActorRole,
				Note:      tt.req.Note,
			}).Return(nil)
			cache.On("Invalidate", mock.Anything).Return(nil)

			res, err := NewModerator(store, cache, logger.NewTestLogger(t)).Apply(context.Background(), tt.req)

			require.NoError(t, err)
			assert.Equal(t, tt.from, res.From)
			assert.Equal(t, tt.wantTo, res.Story.Status)
			assert.Equal(t, tt.wantTo == models.StatusPublished, res.Story.Published)
			assert.Equal(t, tt.wantEvent, res.Event)
			if !res.Story.Published {
				assert.Nil(t, res.Story.PublishedAt)
			}
			store.AssertExpectations(t)

			touchesPublished := tt.from == models.StatusPublished || tt.wantTo == models.StatusPublished
			if touchesPublished {
				cache.AssertCalled(t, "Invalidate", mock.Anything)
			} else {
				cache.AssertNotCalled(t, "Invalidate", mock.Anything)
			}
		})
	}
}

func TestModerator_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		current  models.StoryStatus
		req      ModerationRequest
		wantCode apperrors.ErrorCode
		getStory bool
	}{
		{
			name:     "unknown action",
			req:      ModerationRequest{Action: "delete", ActorRole: models.RoleAdmin},
			wantCode: apperrors.ErrCodeInvalidModerationInput,
		},
		{
			name:     "author cannot approve",
			req:      ModerationRequest{Action: ActionApprove, ActorID: "author-1", ActorRole: models.RoleAuthor},
			wantCode: apperrors.ErrCodeForbiddenAction,
		},
		{
			name:     "staff cannot unpublish",
			req:      ModerationRequest{Action: ActionUnpublish, ActorID: "staff-1", ActorRole: models.RoleStaff},
			wantCode: apperrors.ErrCodeForbiddenAction,
		},
		{
			name:     "reject needs a note",
			req:      ModerationRequest{Action: ActionReject, ActorID: "staff-1", ActorRole: models.RoleStaff, Note: "  "},
			wantCode: apperrors.ErrCodeInvalidModerationInput,
		},
		{
			name:     "only the owner submits",
			current:  models.StatusDraft,
			req:      ModerationRequest{Action: ActionSubmit, ActorID: "author-2", ActorRole: models.RoleAuthor},
			wantCode: apperrors.ErrCodeForbiddenAction,
			getStory: true,
		},
		{
			name:     "cannot approve a draft",
			current:  models.StatusDraft,
			req:      ModerationRequest{Action: ActionApprove, ActorID: "staff-1", ActorRole: models.RoleStaff},
			wantCode: apperrors.ErrCodeInvalidTransition,
			getStory: true,
		},
		{
			name:     "cannot approve twice",
			current:  models.StatusPublished,
			req:      ModerationRequest{Action: ActionApprove, ActorID: "staff-1", ActorRole: models.RoleStaff},
			wantCode: apperrors.ErrCodeInvalidTransition,
			getStory: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockStore)
			cache := new(mockInvalidator)
			tt.req.StoryID = 7
			if tt.getStory {
				store.On("GetStory", mock.Anything, int64(7)).Return(storyIn(tt.current), nil)
			}

			_, err := NewModerator(store, cache, logger.NewNoOpLogger()).Apply(context.Background(), tt.req)

			assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
			store.AssertNotCalled(t, "ApplyStatusChange", mock.Anything, mock.Anything)
			cache.AssertNotCalled(t, "Invalidate", mock.Anything)
		})
	}
}

func TestModerator_StoryNotFound(t *testing.T) {
	store := new(mockStore)
	store.On("GetStory", mock.Anything, int64(7)).Return(nil, apperrors.NewStoryNotFoundError(7))

	_, err := NewModerator(store, nil, logger.NewNoOpLogger()).Apply(context.Background(), ModerationRequest{
		StoryID: 7, Action: ActionApprove, ActorID: "staff-1", ActorRole: models.RoleStaff,
	})

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStoryNotFound))
}

func TestModerator_UnpublishAbortsWhenCacheCannotBeCleared(t *testing.T) {
	store := new(mockStore)
	cache := new(mockInvalidator)
	store.On("GetStory", mock.Anything, int64(7)).Return(storyIn(models.StatusPublished), nil)
	cache.On("Invalidate", mock.Anything).Return(errors.New("connection refused"))

	_, err := NewModerator(store, cache, logger.NewNoOpLogger()).Apply(context.Background(), ModerationRequest{
		StoryID: 7, Action: ActionUnpublish, ActorID: "admin-1", ActorRole: models.RoleAdmin,
	})

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeExternalService))
	store.AssertNotCalled(t, "ApplyStatusChange", mock.Anything, mock.Anything)
}

func TestModerator_ApproveSurvivesCacheFailure(t *testing.T) {
	store := new(mockStore)
	cache := new(mockInvalidator)
	store.On("GetStory", mock.Anything, int64(7)).Return(storyIn(models.StatusPending), nil)
	store.On("ApplyStatusChange", mock.Anything, mock.Anything).Return(nil)
	cache.On("Invalidate", mock.Anything).Return(errors.New("connection refused"))

	res, err := NewModerator(store, cache, logger.NewNoOpLogger()).Apply(context.Background(), ModerationRequest{
		StoryID: 7, Action: ActionApprove, ActorID: "staff-1", ActorRole: models.RoleStaff,
	})

	require.NoError(t, err)
	assert.True(t, res.Story.Published)
	cache.AssertNumberOfCalls(t, "Invalidate", 1)
}

func TestModerator_StoreFailurePropagates(t *testing.T) {
	store := new(mockStore)
	store.On("GetStory", mock.Anything, int64(7)).Return(storyIn(models.StatusPending), nil)
	store.On("ApplyStatusChange", mock.Anything, mock.Anything).
		Return(apperrors.NewInvalidTransitionError("approve", "PENDING"))

	_, err := NewModerator(store, nil, logger.NewNoOpLogger()).Apply(context.Background(), ModerationRequest{
		StoryID: 7, Action: ActionApprove, ActorID: "staff-1", ActorRole: models.RoleStaff,
	})

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidTransition))
}
