// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"admission-stories/internal/common/validation"
)

// LoadRegistry reads and decodes the registry file. Structural problems are
// reported by Validate, not here.
func LoadRegistry(path string) (*ActivityRegistry, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &reg, data, nil
}

// SaveRegistry writes reg as indented JSON, stamping LastUpdated.
func SaveRegistry(reg *ActivityRegistry, path string) error {
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Validate checks raw against the registry document schema, then the
// cross-activity rules: unique ids and task types, kebab case task types,
// parseable timeouts and, when known is non-empty, task types the service
// actually registers. Every problem is returned, sorted.
func Validate(raw []byte, known []string) ([]string, error) {
	res, err := validation.Validate(documentSchema(), raw)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return res.GetErrorMessages(), nil
	}

	var reg ActivityRegistry
	if err := json.Unmarshal(raw, &reg); err != nil {
		return nil, err
	}

	var problems []string
	if len(reg.Activities) == 0 {
		problems = append(problems, "registry contains no activities")
	}

	knownSet := make(map[string]bool, len(known))
	for _, k := range known {
		knownSet[k] = true
	}

	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for _, a := range reg.Activities {
		if ids[a.ID] {
			problems = append(problems, fmt.Sprintf("duplicate activity id: %s", a.ID))
		}
		ids[a.ID] = true

		if taskTypes[a.TaskType] {
			problems = append(problems, fmt.Sprintf("duplicate task type: %s", a.TaskType))
		}
		taskTypes[a.TaskType] = true

		if err := validation.ValidateTaskType(a.TaskType); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", a.ID, err))
		}
		if len(knownSet) > 0 && !knownSet[a.TaskType] {
			problems = append(problems, fmt.Sprintf("%s: unknown task type %s", a.ID, a.TaskType))
		}
		if a.Timeout != "" {
			if d, err := time.ParseDuration(a.Timeout); err != nil || d <= 0 {
				problems = append(problems, fmt.Sprintf("%s: invalid timeout %q", a.ID, a.Timeout))
			}
		}
		for _, code := range a.ErrorCodes {
			if code != strings.ToUpper(code) {
				problems = append(problems, fmt.Sprintf("%s: error code %s must be upper case", a.ID, code))
			}
		}
	}

	sort.Strings(problems)
	return problems, nil
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}
