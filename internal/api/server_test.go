package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "admission-stories/internal/common/errors"
	"admission-stories/internal/common/logger"
	"admission-stories/internal/common/metrics"
	"admission-stories/internal/models"
	"admission-stories/internal/similarity"
	"admission-stories/internal/stories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) Search(ctx context.Context, profile models.ProfileQuery, limit int, surface string) (*stories.SearchResult, error) {
	args := m.Called(ctx, profile, limit, surface)
	res, _ := args.Get(0).(*stories.SearchResult)
	return res, args.Error(1)
}

type mockReader struct {
	mock.Mock
}

func (m *mockReader) GetPublishedStory(ctx context.Context, id int64) (*models.Story, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Story)
	return s, args.Error(1)
}

func (m *mockReader) ListThemes(ctx context.Context) ([]models.Theme, error) {
	args := m.Called(ctx)
	themes, _ := args.Get(0).([]models.Theme)
	return themes, args.Error(1)
}

type mockIndex struct {
	mock.Mock
}

func (m *mockIndex) Keyword(ctx context.Context, q string, limit int) ([]models.Story, error) {
	args := m.Called(ctx, q, limit)
	found, _ := args.Get(0).([]models.Story)
	return found, args.Error(1)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func serve(t *testing.T, deps Dependencies, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	if deps.Logger == nil {
		deps.Logger = logger.NewTestLogger(t)
	}
	rec := httptest.NewRecorder()
	NewServer(deps, 0).Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func TestSearchStories(t *testing.T) {
	search := new(mockSearcher)
	want := models.ProfileQuery{
		University:          "Korea University",
		AdmissionType:       "EARLY",
		ExplorationThemeIDs: []int64{3, 4},
		HasStudyAbroad:      true,
	}
	search.On("Search", mock.Anything, want, 5, metrics.SurfaceHTTP).Return(&stories.SearchResult{
		Results: []similarity.ScoredResult{{
			Story:           models.Story{ID: 11, Title: "From a rural school to Korea University"},
			Score:           7,
			MatchPercentage: 53,
			MatchedRules:    []string{"university", "admissionType"},
		}},
		Count:    1,
		Total:    4,
		MaxScore: similarity.MaxScore,
	}, nil)

	rec := serve(t, Dependencies{Search: search},
		http.MethodGet, "/api/stories/search?university=Korea+University&admissionType=EARLY&explorationThemeIds=3,4&hasStudyAbroad=true&limit=5")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Results []struct {
			Story struct {
				ID int64 `json:"id"`
			} `json:"story"`
			Score           int      `json:"score"`
			MatchPercentage int      `json:"matchPercentage"`
			MatchedRules    []string `json:"matchedRules"`
		} `json:"results"`
		Count    int `json:"count"`
		MaxScore int `json:"maxScore"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	assert.Equal(t, int64(11), body.Results[0].Story.ID)
	assert.Equal(t, 7, body.Results[0].Score)
	assert.Equal(t, 53, body.Results[0].MatchPercentage)
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, similarity.MaxScore, body.MaxScore)
	search.AssertExpectations(t)
}

func TestSearchStories_InvalidLimit(t *testing.T) {
	search := new(mockSearcher)

	for _, limit := range []string{"abc", "-1"} {
		rec := serve(t, Dependencies{Search: search}, http.MethodGet, "/api/stories/search?limit="+limit)

		assert.Equal(t, http.StatusBadRequest, rec.Code, limit)
		assert.Equal(t, string(apperrors.ErrCodeInvalidSearchInput), decodeError(t, rec).Code)
	}
	search.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchStories_RetryableFailure(t *testing.T) {
	search := new(mockSearcher)
	search.On("Search", mock.Anything, mock.Anything, 0, metrics.SurfaceHTTP).
		Return(nil, apperrors.NewCandidateFetchFailedError(errors.New("pq: too many connections")))

	rec := serve(t, Dependencies{Search: search}, http.MethodGet, "/api/stories/search")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, string(apperrors.ErrCodeCandidateFetchFailed), body.Code)
	assert.True(t, body.Retryable)
}

func TestGetStory(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		setup    func(r *mockReader)
		wantCode int
	}{
		{
			name: "published story",
			path: "/api/stories/8",
			setup: func(r *mockReader) {
				r.On("GetPublishedStory", mock.Anything, int64(8)).
					Return(&models.Story{ID: 8, Status: models.StatusPublished, Published: true}, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name: "hidden story",
			path: "/api/stories/9",
			setup: func(r *mockReader) {
				r.On("GetPublishedStory", mock.Anything, int64(9)).Return(nil, apperrors.NewStoryNotFoundError(9))
			},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "non numeric id",
			path:     "/api/stories/abc",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "zero id",
			path:     "/api/stories/0",
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := new(mockReader)
			if tt.setup != nil {
				tt.setup(reader)
			}

			rec := serve(t, Dependencies{Stories: reader}, http.MethodGet, tt.path)

			assert.Equal(t, tt.wantCode, rec.Code)
			reader.AssertExpectations(t)
		})
	}
}

func TestKeywordSearch(t *testing.T) {
	t.Run("index disabled", func(t *testing.T) {
		rec := serve(t, Dependencies{}, http.MethodGet, "/api/stories?q=law")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, string(apperrors.ErrCodeSearchIndexDisabled), decodeError(t, rec).Code)
	})

	t.Run("default limit", func(t *testing.T) {
		index := new(mockIndex)
		index.On("Keyword", mock.Anything, "law school", defaultKeywordLimit).
			Return([]models.Story{{ID: 1}, {ID: 2}}, nil)

		rec := serve(t, Dependencies{Index: index}, http.MethodGet, "/api/stories?q=+law+school+")

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 2, body.Count)
		index.AssertExpectations(t)
	})

	t.Run("query failure", func(t *testing.T) {
		index := new(mockIndex)
		index.On("Keyword", mock.Anything, "law", 3).
			Return(nil, apperrors.NewSearchQueryFailedError("keyword", errors.New("parsing_exception")))

		rec := serve(t, Dependencies{Index: index}, http.MethodGet, "/api/stories?q=law&limit=3")

		assert.Equal(t, string(apperrors.ErrCodeSearchQueryFailed), decodeError(t, rec).Code)
	})
}

func TestListThemes(t *testing.T) {
	reader := new(mockReader)
	reader.On("ListThemes", mock.Anything).Return(nil, nil)

	rec := serve(t, Dependencies{Stories: reader}, http.MethodGet, "/api/themes")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"themes":[]}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("dial tcp: connection refused") })

	rec := serve(t, Dependencies{Checks: map[string]Pinger{"postgres": ok}}, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, Dependencies{Checks: map[string]Pinger{"postgres": ok, "redis": down}}, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"dial tcp: connection refused"`)
}

func TestHealthAndMetrics(t *testing.T) {
	rec := serve(t, Dependencies{}, http.MethodGet, "/health")
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = serve(t, Dependencies{}, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, statusFor(apperrors.NewForbiddenActionError("approve", "AUTHOR")))
	assert.Equal(t, http.StatusConflict, statusFor(apperrors.NewInvalidTransitionError("approve", "DRAFT")))
	assert.Equal(t, http.StatusInternalServerError, statusFor(apperrors.NewInternalError(errors.New("boom"))))
}
