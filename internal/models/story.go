// internal/models/story.go
package models

import (
	"strings"
	"time"
)

// StoryStatus is the moderation state of a story.
type StoryStatus string

const (
	StatusDraft     StoryStatus = "DRAFT"
	StatusPending   StoryStatus = "PENDING"
	StatusPublished StoryStatus = "PUBLISHED"
	StatusRejected  StoryStatus = "REJECTED"
)

// Role is the actor role used for moderation decisions.
type Role string

const (
	RoleAuthor Role = "AUTHOR"
	RoleStaff  Role = "STAFF"
	RoleAdmin  Role = "ADMIN"
)

// ParseRole returns "" for unknown roles.
func ParseRole(s string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAuthor:
		return RoleAuthor
	case RoleStaff:
		return RoleStaff
	case RoleAdmin:
		return RoleAdmin
	}
	return ""
}

// Story is an admission success story together with the applicant
// attributes it was written from.
type Story struct {
	ID                   int64           `json:"id"`
	AuthorID             string          `json:"authorId"`
	Title                string          `json:"title"`
	Content              string          `json:"content"`
	University           string          `json:"university"`
	Faculty              string          `json:"faculty"`
	AdmissionType        string          `json:"admissionType"`
	HighSchoolLevel      HighSchoolLevel `json:"highSchoolLevel"`
	GradeAverage         GradeAverage    `json:"gradeAverage"`
	EnglishLevel         EnglishLevel    `json:"englishLevel"`
	HasSportsAchievement bool            `json:"hasSportsAchievement"`
	HasStudyAbroad       bool            `json:"hasStudyAbroad"`
	HasLeaderExperience  bool            `json:"hasLeaderExperience"`
	ThemeIDs             []int64         `json:"themeIds"`
	Status               StoryStatus     `json:"status"`
	Published            bool            `json:"published"`
	PublishedAt          *time.Time      `json:"publishedAt,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// Theme is an exploration theme a story can be tagged with.
type Theme struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AuthorContact is what notifications need to reach a story author.
type AuthorContact struct {
	AuthorID    string `json:"authorId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}
