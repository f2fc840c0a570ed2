package stories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"admission-stories/internal/common/errors"
	"admission-stories/internal/common/logger"
	"admission-stories/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// indexMapping keeps attribute codes as keywords so filters match exactly.
const indexMapping = `{
  "mappings": {
    "properties": {
      "title":           {"type": "text"},
      "content":         {"type": "text"},
      "university":      {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "faculty":         {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "admissionType":   {"type": "keyword"},
      "highSchoolLevel": {"type": "keyword"},
      "gradeAverage":    {"type": "keyword"},
      "englishLevel":    {"type": "keyword"},
      "themeIds":        {"type": "long"},
      "status":          {"type": "keyword"},
      "published":       {"type": "boolean"},
      "publishedAt":     {"type": "date"}
    }
  }
}`

// Index mirrors published stories into Elasticsearch for keyword search.
type Index struct {
	client *elasticsearch.Client
	name   string
	logger logger.Logger
}

func NewIndex(client *elasticsearch.Client, name string, log logger.Logger) *Index {
	return &Index{client: client, name: name, logger: log}
}

// Name returns the index name.
func (i *Index) Name() string {
	return i.name
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (i *Index) EnsureIndex(ctx context.Context) error {
	res, err := i.client.Indices.Exists([]string{i.name}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return errors.NewElasticsearchConnectionFailedError(err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = i.client.Indices.Create(i.name,
		i.client.Indices.Create.WithContext(ctx),
		i.client.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping))),
	)
	if err != nil {
		return errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.NewSearchQueryFailedError("create_index", responseError(res))
	}
	i.logger.Info("search index created", map[string]interface{}{"index": i.name})
	return nil
}

// Put writes a published story and removes anything else, so the index
// only ever holds published content.
func (i *Index) Put(ctx context.Context, story models.Story) error {
	if !story.Published || story.Status != models.StatusPublished {
		return i.Delete(ctx, story.ID)
	}

	body, err := json.Marshal(story)
	if err != nil {
		return errors.NewIndexUpdateFailedError(story.ID, err)
	}

	res, err := i.client.Index(i.name, bytes.NewReader(body),
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentID(strconv.FormatInt(story.ID, 10)),
	)
	if err != nil {
		return errors.NewIndexUpdateFailedError(story.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.NewIndexUpdateFailedError(story.ID, responseError(res))
	}
	return nil
}

// Delete removes a story. A missing document is not an error.
func (i *Index) Delete(ctx context.Context, id int64) error {
	res, err := i.client.Delete(i.name, strconv.FormatInt(id, 10), i.client.Delete.WithContext(ctx))
	if err != nil {
		return errors.NewIndexUpdateFailedError(id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return errors.NewIndexUpdateFailedError(id, responseError(res))
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Story `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Keyword runs a full-text query over published stories.
func (i *Index) Keyword(ctx context.Context, q string, limit int) ([]models.Story, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":  q,
							"fields": []string{"title^2", "content", "university", "faculty"},
						},
					},
				},
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"published": true}},
				},
			},
		},
	}
	if q == "" {
		query["query"] = map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"published": true}},
				},
			},
		}
		query["sort"] = []interface{}{map[string]interface{}{"publishedAt": "desc"}}
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, errors.NewSearchQueryFailedError("keyword", err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.name),
		i.client.Search.WithBody(&buf),
		i.client.Search.WithSize(limit),
	)
	if err != nil {
		return nil, errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError("keyword", responseError(res))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchQueryFailedError("keyword", err)
	}

	out := make([]models.Story, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		if !hit.Source.Published {
			continue
		}
		out = append(out, hit.Source)
	}
	return out, nil
}

func responseError(res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return fmt.Errorf("%s: %s", res.Status(), bytes.TrimSpace(body))
}
