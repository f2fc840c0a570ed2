// internal/workers/search/index-story/handler.go
package indexstory

import (
	"context"
	"encoding/json"
	"fmt"

	"admission-stories/internal/common/errors"
	"admission-stories/internal/common/logger"
	"admission-stories/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "index-story"
)

type StoryGetter interface {
	GetStory(ctx context.Context, id int64) (*models.Story, error)
}

// Indexer mirrors stories into the keyword search index.
type Indexer interface {
	Put(ctx context.Context, story models.Story) error
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	config       *Config
	stories      StoryGetter
	index        Indexer
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

// NewHandler builds the handler. A nil index turns every job into a no-op
// reporting DISABLED.
func NewHandler(config *Config, stories StoryGetter, index Indexer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		stories:      stories,
		index:        index,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
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
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil || input.StoryID <= 0 {
		if err == nil {
			err = fmt.Errorf("storyId must be positive")
		}
		return h.errorHandler.HandleJobError(ctx, client, job,
			errors.NewBusinessRuleError("Invalid index request", err.Error()))
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		return h.errorHandler.HandleJobError(ctx, client, job, err)
	}

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
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

// execute reloads the story so the index reflects the committed state, not
// whatever the process variables captured earlier. A story that no longer
// exists is removed.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if h.index == nil {
		return &Output{StoryID: input.StoryID, IndexResult: ResultDisabled}, nil
	}

	story, err := h.stories.GetStory(ctx, input.StoryID)
	if errors.HasCode(err, errors.ErrCodeStoryNotFound) {
		if err := h.index.Delete(ctx, input.StoryID); err != nil {
			return nil, err
		}
		return &Output{StoryID: input.StoryID, IndexResult: ResultRemoved}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := h.index.Put(ctx, *story); err != nil {
		return nil, err
	}

	result := ResultRemoved
	if story.Published && story.Status == models.StatusPublished {
		result = ResultIndexed
	}
	h.logger.Info("search index updated", map[string]interface{}{
		"storyId": story.ID,
		"status":  story.Status,
		"result":  result,
	})
	return &Output{StoryID: story.ID, IndexResult: result}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
