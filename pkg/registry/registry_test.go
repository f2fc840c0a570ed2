package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRegistry = `{
  "version": "1.0.0",
  "activities": [
    {
      "id": "search-similar-stories",
      "displayName": "Search Similar Stories",
      "category": "search",
      "taskType": "search-similar-stories",
      "implementationStatus": "completed",
      "errorCodes": ["INVALID_SEARCH_INPUT"],
      "timeout": "10s",
      "retries": 3
    },
    {
      "id": "index-story",
      "displayName": "Index Story",
      "category": "search",
      "taskType": "index-story",
      "implementationStatus": "completed",
      "timeout": "5s"
    }
  ]
}`

func TestValidate_Valid(t *testing.T) {
	problems, err := Validate([]byte(validRegistry), []string{"search-similar-stories", "index-story"})

	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestValidate_SchemaViolations(t *testing.T) {
	raw := `{"version":"1.0.0","activities":[{"id":"x","category":"search","taskType":"index-story","implementationStatus":"done"}]}`

	problems, err := Validate([]byte(raw), nil)

	require.NoError(t, err)
	assert.NotEmpty(t, problems)
}

func TestValidate_CrossActivityRules(t *testing.T) {
	raw := `{
  "version": "1.0.0",
  "activities": [
    {"id": "a", "displayName": "A", "category": "search", "taskType": "index-story", "implementationStatus": "planned", "timeout": "soon"},
    {"id": "a", "displayName": "B", "category": "search", "taskType": "index-story", "implementationStatus": "planned"},
    {"id": "c", "displayName": "C", "category": "search", "taskType": "Reindex", "implementationStatus": "planned", "errorCodes": ["oops"]}
  ]
}`

	problems, err := Validate([]byte(raw), []string{"index-story"})

	require.NoError(t, err)
	assert.Contains(t, problems, "duplicate activity id: a")
	assert.Contains(t, problems, "duplicate task type: index-story")
	assert.Contains(t, problems, `a: invalid timeout "soon"`)
	assert.Contains(t, problems, "c: unknown task type Reindex")
	assert.Contains(t, problems, "c: error code oops must be upper case")
}

func TestValidate_Empty(t *testing.T) {
	problems, err := Validate([]byte(`{"version":"1.0.0","activities":[]}`), nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"registry contains no activities"}, problems)
}

func TestValidate_MalformedJSON(t *testing.T) {
	_, err := Validate([]byte(`{"version":`), nil)
	assert.Error(t, err)
}

func TestLoadAndSaveRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "registry.json")
	reg := &ActivityRegistry{Version: "1.0.0", Activities: []Activity{{ID: "index-story", TaskType: "index-story"}}}

	require.NoError(t, SaveRegistry(reg, path))
	assert.NotEmpty(t, reg.LastUpdated)

	loaded, raw, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	found, ok := loaded.Find("index-story")
	assert.True(t, ok)
	assert.Equal(t, "index-story", found.ID)

	_, ok = loaded.Find("moderate-story")
	assert.False(t, ok)
}

func TestLoadRegistry_Missing(t *testing.T) {
	_, _, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.json"))
	assert.True(t, os.IsNotExist(err))
}
