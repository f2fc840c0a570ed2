// internal/workers/search/index-story/handler_test.go
package indexstory

import (
	"context"
	"testing"
	"time"

	"admission-stories/internal/common/errors"
	"admission-stories/internal/common/logger"
	"admission-stories/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStories struct {
	mock.Mock
}

func (m *MockStories) GetStory(ctx context.Context, id int64) (*models.Story, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Story), args.Error(1)
}

type MockIndexer struct {
	mock.Mock
}

func (m *MockIndexer) Put(ctx context.Context, story models.Story) error {
	return m.Called(ctx, story).Error(0)
}

func (m *MockIndexer) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func createTestConfig() *Config {
	return &Config{Enabled: true, Timeout: 5 * time.Second}
}

func TestHandler_Execute(t *testing.T) {
	published := &models.Story{ID: 3, Status: models.StatusPublished, Published: true}
	draft := &models.Story{ID: 4, Status: models.StatusDraft}

	tests := []struct {
		name       string
		storyID    int64
		setup      func(s *MockStories, i *MockIndexer)
		wantResult string
		wantCode   errors.ErrorCode
	}{
		{
			name:    "published story is indexed",
			storyID: 3,
			setup: func(s *MockStories, i *MockIndexer) {
				s.On("GetStory", mock.Anything, int64(3)).Return(published, nil)
				i.On("Put", mock.Anything, *published).Return(nil)
			},
			wantResult: ResultIndexed,
		},
		{
			name:    "unpublished story is removed",
			storyID: 4,
			setup: func(s *MockStories, i *MockIndexer) {
				s.On("GetStory", mock.Anything, int64(4)).Return(draft, nil)
				i.On("Put", mock.Anything, *draft).Return(nil)
			},
			wantResult: ResultRemoved,
		},
		{
			name:    "deleted story is removed",
			storyID: 5,
			setup: func(s *MockStories, i *MockIndexer) {
				s.On("GetStory", mock.Anything, int64(5)).Return(nil, errors.NewStoryNotFoundError(5))
				i.On("Delete", mock.Anything, int64(5)).Return(nil)
			},
			wantResult: ResultRemoved,
		},
		{
			name:    "index failure surfaces",
			storyID: 3,
			setup: func(s *MockStories, i *MockIndexer) {
				s.On("GetStory", mock.Anything, int64(3)).Return(published, nil)
				i.On("Put", mock.Anything, *published).Return(errors.NewIndexUpdateFailedError(3, assert.AnError))
			},
			wantCode: errors.ErrCodeIndexUpdateFailed,
		},
		{
			name:    "database failure surfaces",
			storyID: 3,
			setup: func(s *MockStories, i *MockIndexer) {
				s.On("GetStory", mock.Anything, int64(3)).Return(nil, errors.NewDatabaseConnectionFailedError(assert.AnError))
			},
			wantCode: errors.ErrCodeDatabaseConnectionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, i := new(MockStories), new(MockIndexer)
			tt.setup(s, i)
			h := NewHandler(createTestConfig(), s, i, logger.NewTestLogger(t))

			out, err := h.Execute(context.Background(), &Input{StoryID: tt.storyID})

			if tt.wantCode != "" {
				assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.storyID, out.StoryID)
			assert.Equal(t, tt.wantResult, out.IndexResult)
			s.AssertExpectations(t)
			i.AssertExpectations(t)
		})
	}
}

func TestHandler_Execute_IndexDisabled(t *testing.T) {
	s := new(MockStories)
	h := NewHandler(createTestConfig(), s, nil, logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{StoryID: 3})

	require.NoError(t, err)
	assert.Equal(t, ResultDisabled, out.IndexResult)
	s.AssertNotCalled(t, "GetStory", mock.Anything, mock.Anything)
}
