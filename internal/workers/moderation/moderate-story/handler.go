// internal/workers/moderation/moderate-story/handler.go
package moderatestory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"admission-stories/internal/common/errors"
	"admission-stories/internal/common/logger"
	"admission-stories/internal/common/validation"
	"admission-stories/internal/models"
	"admission-stories/internal/stories"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "moderate-story"
)

// Moderator applies one moderation transition.
type Moderator interface {
	Apply(ctx context.Context, req stories.ModerationRequest) (*stories.ModerationResult, error)
}

type Handler struct {
	config       *Config
	moderator    Moderator
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, moderator Moderator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		moderator:    moderator,
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

	input, err := h.parseInput(job)
	if err != nil {
		return h.errorHandler.HandleJobError(ctx, client, job, err)
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		return h.errorHandler.HandleJobError(ctx, client, job, err)
	}

	return h.completeJob(ctx, client, job, output)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	result, err := validation.Validate(GetInputSchema(), job.Variables)
	if err != nil {
		return nil, errors.NewInvalidModerationInputError(fmt.Sprintf("parse input: %v", err))
	}
	if !result.Valid {
		return nil, errors.NewInvalidModerationInputError(strings.Join(result.GetErrorMessages(), "; ")).
			WithMetadata("validationErrors", result.Errors)
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidModerationInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.moderator.Apply(ctx, stories.ModerationRequest{
		StoryID:   input.StoryID,
		Action:    stories.ParseAction(input.Action),
		ActorID:   input.ActorID,
		ActorRole: models.ParseRole(input.ActorRole),
		Note:      input.Note,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		StoryID:         res.Story.ID,
		Status:          string(res.Story.Status),
		PreviousStatus:  string(res.From),
		Published:       res.Story.Published,
		AuthorID:        res.Story.AuthorID,
		ModerationEvent: string(res.Event),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return err
	}
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey":  job.Key,
		"storyId": output.StoryID,
		"status":  output.Status,
	})
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
