// internal/workers/search/search-similar-stories/handler.go
package searchsimilarstories

import (
	"context"
	"encoding/json"
	"fmt"

	"admission-stories/internal/common/errors"
	"admission-stories/internal/common/logger"
	"admission-stories/internal/common/metrics"
	"admission-stories/internal/models"
	"admission-stories/internal/similarity"
	"admission-stories/internal/stories"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "search-similar-stories"
)

// Searcher ranks published stories for a profile.
type Searcher interface {
	Search(ctx context.Context, profile models.ProfileQuery, limit int, surface string) (*stories.SearchResult, error)
}

type Handler struct {
	config       *Config
	searcher     Searcher
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, searcher Searcher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		searcher:     searcher,
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
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidSearchInputError(fmt.Sprintf("parse input: %v", err))
	}
	if input.Limit < 0 {
		return nil, errors.NewInvalidSearchInputError("limit must not be negative")
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	profile := similarity.ParseProfileMap(mergeFilters(input.Profile, input.RawFilters))

	limit := input.Limit
	if limit == 0 {
		limit = h.config.DefaultLimit
	}

	res, err := h.searcher.Search(ctx, profile, limit, metrics.SurfaceWorker)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(res.Results))
	for _, r := range res.Results {
		matches = append(matches, Match{
			StoryID:         r.Story.ID,
			Title:           r.Story.Title,
			University:      r.Story.University,
			Faculty:         r.Story.Faculty,
			Score:           r.Score,
			MatchPercentage: r.MatchPercentage,
			MatchedRules:    r.MatchedRules,
		})
	}

	h.logger.Info("similar stories found", map[string]interface{}{
		"count":      res.Count,
		"total":      res.Total,
		"emptyQuery": profile.IsEmpty(),
	})

	return &Output{
		Matches:  matches,
		Count:    res.Count,
		Total:    res.Total,
		MaxScore: res.MaxScore,
	}, nil
}

func mergeFilters(profile, raw map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(profile)+len(raw))
	for k, v := range profile {
		merged[k] = v
	}
	for k, v := range raw {
		merged[k] = v
	}
	return merged
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
	h.logger.Info("job completed successfully", map[string]interface{}{"jobKey": job.Key})
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
