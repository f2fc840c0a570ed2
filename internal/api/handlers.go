package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"admission-stories/internal/common/errors"
	"admission-stories/internal/common/metrics"
	"admission-stories/internal/models"
	"admission-stories/internal/similarity"

	chi "github.com/go-chi/chi/v5"
)

const defaultKeywordLimit = 20

func (s *Server) searchStories(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := parseLimit(query.Get("limit"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	profile := similarity.ParseProfile(query)
	res, err := s.deps.Search.Search(r.Context(), profile, limit, metrics.SurfaceHTTP)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) keywordSearch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Index == nil {
		s.writeError(w, r, errors.NewSearchIndexDisabledError())
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if limit == 0 {
		limit = defaultKeywordLimit
	}

	found, err := s.deps.Index.Keyword(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": found,
		"count":   len(found),
	})
}

func (s *Server) getStory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, r, errors.NewInvalidSearchInputError("story id must be a positive integer"))
		return
	}

	story, err := s.deps.Stories.GetPublishedStory(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, story)
}

func (s *Server) listThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := s.deps.Stories.ListThemes(r.Context())
	if err != nil {
		s.writeError(w, r, errors.NewDatabaseConnectionFailedError(err))
		return
	}
	if themes == nil {
		themes = []models.Theme{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"themes": themes})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.deps.Checks))
	status := http.StatusOK
	for name, p := range s.deps.Checks {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{"status": state, "checks": checks})
}

// parseLimit accepts an empty value as "use the default".
func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.NewInvalidSearchInputError("limit must be a non-negative integer")
	}
	return n, nil
}
