// pkg/registry/schema.go
package registry

import "admission-stories/internal/common/validation"

// ActivityRegistry documents every job worker the story service can run.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	TaskType    string   `json:"taskType"`
	Status      string   `json:"implementationStatus"`
	// InputSchema is the JSON schema of the job variables the worker reads.
	InputSchema map[string]interface{} `json:"inputSchema,omitempty"`
	ErrorCodes  []string               `json:"errorCodes"`
	// Timeout is a Go duration string, e.g. "10s".
	Timeout   string   `json:"timeout"`
	Retries   int      `json:"retries"`
	Workflows []string `json:"workflows"`
}

// Implementation statuses accepted in the registry file.
const (
	StatusPlanned    = "planned"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusVerified   = "verified"
)

func documentSchema() validation.JSONSchema {
	activity := validation.Property{
		Type:     "object",
		Required: []string{"id", "displayName", "category", "taskType", "implementationStatus"},
		Properties: map[string]validation.Property{
			"id":          {Type: "string", MinLength: validation.IntPtr(1)},
			"displayName": {Type: "string", MinLength: validation.IntPtr(1)},
			"description": {Type: "string"},
			"category":    {Type: "string", MinLength: validation.IntPtr(1)},
			"taskType":    {Type: "string", MinLength: validation.IntPtr(1)},
			"implementationStatus": {
				Type: "string",
				Enum: []string{StatusPlanned, StatusInProgress, StatusCompleted, StatusVerified},
			},
			"inputSchema": {Type: "object"},
			"errorCodes":  {Type: "array", Items: &validation.Property{Type: "string"}},
			"timeout":     {Type: "string"},
			"retries":     {Type: "integer", Minimum: validation.FloatPtr(0)},
			"workflows":   {Type: "array", Items: &validation.Property{Type: "string"}},
		},
	}

	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"version", "activities"},
		Properties: map[string]validation.Property{
			"version":     {Type: "string"},
			"lastUpdated": {Type: "string"},
			"activities":  {Type: "array", Items: &activity},
		},
		AdditionalProperties: true,
	}
}
