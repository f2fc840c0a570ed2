// Package stories holds the storage, caching, indexing and moderation
// services around admission stories, and the search service that feeds
// published stories into the similarity scorer.
package stories

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"admission-stories/internal/common/database"
	"admission-stories/internal/common/errors"
	"admission-stories/internal/models"

	"github.com/lib/pq"
)

// CandidateFilter narrows the published pool before scoring. Empty fields
// do not filter.
type CandidateFilter struct {
	University string `json:"university,omitempty"`
	Faculty    string `json:"faculty,omitempty"`
}

// FilterFor extracts the pre-filter fields of a profile.
func FilterFor(p models.ProfileQuery) CandidateFilter {
	return CandidateFilter{University: p.University, Faculty: p.Faculty}
}

// StatusChange is one moderation transition to persist.
type StatusChange struct {
	StoryID   int64
	From      models.StoryStatus
	To        models.StoryStatus
	Action    string
	ActorID   string
	ActorRole models.Role
	Note      string
}

// Repository reads and writes stories in Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const storyColumns = `id, author_id, title, content,
	COALESCE(university, ''), COALESCE(faculty, ''), COALESCE(admission_type, ''),
	COALESCE(high_school_level, ''), COALESCE(grade_average, ''), COALESCE(english_level, ''),
	has_sports_achievement, has_study_abroad, has_leader_experience,
	status, published, published_at, created_at, updated_at`

// ListPublished returns every published story matching the filter, newest
// publication first, with theme IDs attached.
func (r *Repository) ListPublished(ctx context.Context, f CandidateFilter) ([]models.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE published = TRUE AND status = 'PUBLISHED'`
	var args []interface{}
	if f.University != "" {
		args = append(args, f.University)
		query += fmt.Sprintf(" AND university = $%d", len(args))
	}
	if f.Faculty != "" {
		args = append(args, f.Faculty)
		query += fmt.Sprintf(" AND faculty = $%d", len(args))
	}
	query += " ORDER BY published_at DESC NULLS LAST, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query published stories: %w", err)
	}
	defer rows.Close()

	var out []models.Story
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stories: %w", err)
	}

	if err := r.attachThemes(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStory loads a story in any status.
func (r *Repository) GetStory(ctx context.Context, id int64) (*models.Story, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = $1`, id)

	s, err := scanStory(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewStoryNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get story %d: %w", id, err)
	}

	stories := []models.Story{s}
	if err := r.attachThemes(ctx, stories); err != nil {
		return nil, err
	}
	return &stories[0], nil
}

// GetPublishedStory loads a story only if it is published. Anything else
// reports not found so unpublished content never leaks through reads.
func (r *Repository) GetPublishedStory(ctx context.Context, id int64) (*models.Story, error) {
	s, err := r.GetStory(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.Published || s.Status != models.StatusPublished {
		return nil, errors.NewStoryNotFoundError(id)
	}
	return s, nil
}

// ListThemes returns the theme catalogue ordered by name.
func (r *Repository) ListThemes(ctx context.Context) ([]models.Theme, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM themes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query themes: %w", err)
	}
	defer rows.Close()

	themes := []models.Theme{}
	for rows.Next() {
		var t models.Theme
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		themes = append(themes, t)
	}
	return themes, rows.Err()
}

// GetAuthorContact returns where to send notices for an author.
func (r *Repository) GetAuthorContact(ctx context.Context, authorID string) (*models.AuthorContact, error) {
	var c models.AuthorContact
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, COALESCE(display_name, '') FROM authors WHERE id = $1`, authorID,
	).Scan(&c.AuthorID, &c.Email, &c.DisplayName)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewResourceNotFoundError("authors", "authorId: "+authorID)
	}
	if err != nil {
		return nil, fmt.Errorf("get author %s: %w", authorID, err)
	}
	return &c, nil
}

// ApplyStatusChange moves a story from change.From to change.To and appends
// to the moderation log in one transaction. The update is conditional on the
// current status so concurrent moderators cannot both win.
func (r *Repository) ApplyStatusChange(ctx context.Context, change StatusChange) error {
	published := change.To == models.StatusPublished

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE stories
			SET status = $1,
			    published = $2,
			    published_at = CASE WHEN $2 THEN COALESCE(published_at, NOW()) ELSE NULL END,
			    updated_at = NOW()
			WHERE id = $3 AND status = $4`,
			string(change.To), published, change.StoryID, string(change.From))
		if err != nil {
			return errors.NewDatabaseUpdateFailedError(err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return errors.NewInvalidTransitionError(change.Action, string(change.From)).
				WithMetadata("reason", "status changed concurrently")
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO moderation_log (story_id, action, actor_id, actor_role, from_status, to_status, note)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			change.StoryID, change.Action, change.ActorID, string(change.ActorRole),
			string(change.From), string(change.To), change.Note); err != nil {
			return errors.NewDatabaseUpdateFailedError(err)
		}
		return nil
	})
	if err != nil {
		if _, ok := errors.AsStandardError(err); ok {
			return err
		}
		return errors.NewDatabaseUpdateFailedError(err)
	}
	return nil
}

func (r *Repository) attachThemes(ctx context.Context, stories []models.Story) error {
	if len(stories) == 0 {
		return nil
	}

	ids := make([]int64, len(stories))
	pos := make(map[int64]int, len(stories))
	for i, s := range stories {
		ids[i] = s.ID
		pos[s.ID] = i
		stories[i].ThemeIDs = []int64{}
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT story_id, theme_id FROM story_themes WHERE story_id = ANY($1) ORDER BY story_id, theme_id`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query story themes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var storyID, themeID int64
		if err := rows.Scan(&storyID, &themeID); err != nil {
			return fmt.Errorf("scan story theme: %w", err)
		}
		if i, ok := pos[storyID]; ok {
			stories[i].ThemeIDs = append(stories[i].ThemeIDs, themeID)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStory(row rowScanner) (models.Story, error) {
	var (
		s           models.Story
		hsLevel     string
		grade       string
		english     string
		status      string
		publishedAt sql.NullTime
		createdAt   time.Time
		updatedAt   time.Time
	)
	err := row.Scan(
		&s.ID, &s.AuthorID, &s.Title, &s.Content,
		&s.University, &s.Faculty, &s.AdmissionType,
		&hsLevel, &grade, &english,
		&s.HasSportsAchievement, &s.HasStudyAbroad, &s.HasLeaderExperience,
		&status, &s.Published, &publishedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return s, err
	}

	// Stored codes that no longer parse are treated as unspecified.
	s.HighSchoolLevel, _ = models.ParseHighSchoolLevel(hsLevel)
	s.GradeAverage, _ = models.ParseGradeAverage(grade)
	s.EnglishLevel, _ = models.ParseEnglishLevel(english)
	s.Status = models.StoryStatus(status)
	if publishedAt.Valid {
		t := publishedAt.Time
		s.PublishedAt = &t
	}
	s.CreatedAt = createdAt
	s.UpdatedAt = updatedAt
	return s, nil
}
