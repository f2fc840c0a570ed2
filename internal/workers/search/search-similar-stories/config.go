// internal/workers/search/search-similar-stories/config.go
package searchsimilarstories

import (
	"time"

	"admission-stories/internal/common/config"
)

type Config struct {
	Enabled      bool
	Timeout      time.Duration
	DefaultLimit int
}

func LoadConfig(app *config.Config) *Config {
	wc := config.GetWorkerConfig(app, TaskType)
	limit := app.Search.MaxResults
	if limit <= 0 {
		limit = 10
	}
	return &Config{
		Enabled:      wc.Enabled,
		Timeout:      config.GetDuration(wc.Timeout),
		DefaultLimit: limit,
	}
}
