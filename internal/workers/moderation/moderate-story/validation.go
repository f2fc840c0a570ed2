// internal/workers/moderation/moderate-story/validation.go
package moderatestory

import "admission-stories/internal/common/validation"

// GetInputSchema describes the variables the task reads. Other process
// variables are allowed through.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"storyId", "action", "actorId", "actorRole"},
		Properties: map[string]validation.Property{
			"storyId": {
				Type:        "integer",
				Description: "Story to moderate",
				Minimum:     validation.FloatPtr(1),
			},
			"action": {
				Type:        "string",
				Description: "submit, approve, reject or unpublish",
				Pattern:     `^(?i)\s*(submit|approve|reject|unpublish)\s*$`,
			},
			"actorId": {
				Type:        "string",
				Description: "User performing the action",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(255),
			},
			"actorRole": {
				Type:        "string",
				Description: "AUTHOR, STAFF or ADMIN",
				Pattern:     `^(?i)\s*(author|staff|admin)\s*$`,
			},
			"note": {
				Type:        []string{"string", "null"},
				Description: "Reviewer note, required when rejecting",
				MaxLength:   validation.IntPtr(2000),
			},
		},
		AdditionalProperties: true,
	}
}
