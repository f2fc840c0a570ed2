package stories

import (
	"context"
	"fmt"
	"strings"

	"admission-stories/internal/common/errors"
	"admission-stories/internal/common/logger"
	"admission-stories/internal/common/metrics"
	"admission-stories/internal/models"
)

// Action is a moderation verb.
type Action string

const (
	ActionSubmit    Action = "submit"
	ActionApprove   Action = "approve"
	ActionReject    Action = "reject"
	ActionUnpublish Action = "unpublish"
)

// ParseAction returns "" for unknown verbs.
func ParseAction(s string) Action {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionSubmit, ActionApprove, ActionReject, ActionUnpublish:
		return a
	}
	return ""
}

type transition struct {
	from        []models.StoryStatus
	to          models.StoryStatus
	roles       []models.Role
	event       models.ModerationEvent
	ownerOnly   bool
	requireNote bool
}

var transitions = map[Action]transition{
	ActionSubmit: {
		from:      []models.StoryStatus{models.StatusDraft, models.StatusRejected},
		to:        models.StatusPending,
		roles:     []models.Role{models.RoleAuthor},
		event:     models.EventSubmitted,
		ownerOnly: true,
	},
	ActionApprove: {
		from:  []models.StoryStatus{models.StatusPending},
		to:    models.StatusPublished,
		roles: []models.Role{models.RoleStaff, models.RoleAdmin},
		event: models.EventPublished,
	},
	ActionReject: {
		from:        []models.StoryStatus{models.StatusPending},
		to:          models.StatusRejected,
		roles:       []models.Role{models.RoleStaff, models.RoleAdmin},
		event:       models.EventRejected,
		requireNote: true,
	},
	ActionUnpublish: {
		from:  []models.StoryStatus{models.StatusPublished},
		to:    models.StatusDraft,
		roles: []models.Role{models.RoleAdmin},
		event: models.EventUnpublished,
	},
}

// ModerationRequest asks for one transition on behalf of an actor.
type ModerationRequest struct {
	StoryID   int64
	Action    Action
	ActorID   string
	ActorRole models.Role
	Note      string
}

// ModerationResult describes an applied transition.
type ModerationResult struct {
	Story models.Story
	From  models.StoryStatus
	Event models.ModerationEvent
}

// StoryStore is the persistence the moderator needs.
type StoryStore interface {
	GetStory(ctx context.Context, id int64) (*models.Story, error)
	ApplyStatusChange(ctx context.Context, change StatusChange) error
}

// CacheInvalidator drops cached candidate pools.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Moderator applies the story moderation state machine.
type Moderator struct {
	store  StoryStore
	cache  CacheInvalidator
	logger logger.Logger
}

func NewModerator(store StoryStore, cache CacheInvalidator, log logger.Logger) *Moderator {
	return &Moderator{store: store, cache: cache, logger: log}
}

// Apply checks the actor and the story's current status, then persists the
// transition.
//
// Every write touching PUBLISHED is bracketed by cache invalidations, each
// of which moves the cache generation on. The bump before the write rejects
// pools fetched earlier; the bump after it rejects pools fetched while the
// write was in flight. When a story leaves PUBLISHED a failed first bump
// aborts the action. The second bump is best effort: the status has
// already changed by then.
func (m *Moderator) Apply(ctx context.Context, req ModerationRequest) (*ModerationResult, error) {
	t, ok := transitions[req.Action]
	if !ok {
		return nil, errors.NewInvalidModerationInputError(fmt.Sprintf("unknown action %q", req.Action))
	}
	if !containsRole(t.roles, req.ActorRole) {
		return nil, errors.NewForbiddenActionError(string(req.Action), string(req.ActorRole))
	}
	if t.requireNote && strings.TrimSpace(req.Note) == "" {
		return nil, errors.NewInvalidModerationInputError("a note is required to " + string(req.Action))
	}

	story, err := m.store.GetStory(ctx, req.StoryID)
	if err != nil {
		return nil, err
	}
	if t.ownerOnly && story.AuthorID != req.ActorID {
		return nil, errors.NewForbiddenActionError(string(req.Action), "non-owner")
	}
	if !containsStatus(t.from, story.Status) {
		return nil, errors.NewInvalidTransitionError(string(req.Action), string(story.Status))
	}

	leavingPublished := story.Status == models.StatusPublished
	if leavingPublished && m.cache != nil {
		if err := m.cache.Invalidate(ctx); err != nil {
			return nil, errors.NewExternalServiceError("redis", err)
		}
	}

	from := story.Status
	if err := m.store.ApplyStatusChange(ctx, StatusChange{
		StoryID:   story.ID,
		From:      from,
		To:        t.to,
		Action:    string(req.Action),
		ActorID:   req.ActorID,
		ActorRole: req.ActorRole,
		Note:      req.Note,
	}); err != nil {
		return nil, err
	}

	if (leavingPublished || t.to == models.StatusPublished) && m.cache != nil {
		if err := m.cache.Invalidate(ctx); err != nil {
			fields := map[string]interface{}{"storyId": story.ID, "error": err}
			if leavingPublished {
				m.logger.Error("candidate cache invalidation failed after unpublish", fields)
			} else {
				m.logger.Warn("candidate cache invalidation failed", fields)
			}
		}
	}

	story.Status = t.to
	story.Published = t.to == models.StatusPublished
	if !story.Published {
		story.PublishedAt = nil
	}

	metrics.ModerationTransitions.WithLabelValues(string(req.Action), string(t.to)).Inc()
	m.logger.Info("story moderated", map[string]interface{}{
		"storyId":   story.ID,
		"action":    req.Action,
		"from":      from,
		"to":        t.to,
		"actorId":   req.ActorID,
		"actorRole": req.ActorRole,
	})

	return &ModerationResult{Story: *story, From: from, Event: t.event}, nil
}

func containsRole(roles []models.Role, r models.Role) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}

func containsStatus(statuses []models.StoryStatus, s models.StoryStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}
