// internal/models/profile.go
package models

// ProfileQuery is the searcher's self-description. Every field is optional;
// the zero value means the dimension was not specified.
//
// University and Faculty narrow the candidate pool before scoring and
// carry no weight of their own.
type ProfileQuery struct {
	HighSchoolLevel      HighSchoolLevel `json:"highSchoolLevel,omitempty"`
	GradeAverage         GradeAverage    `json:"gradeAverage,omitempty"`
	AdmissionType        string          `json:"admissionType,omitempty"`
	University           string          `json:"university,omitempty"`
	Faculty              string          `json:"faculty,omitempty"`
	ExplorationThemeIDs  []int64         `json:"explorationThemeIds,omitempty"`
	HasSportsAchievement bool            `json:"hasSportsAchievement,omitempty"`
	HasStudyAbroad       bool            `json:"hasStudyAbroad,omitempty"`
	HasLeaderExperience  bool            `json:"hasLeaderExperience,omitempty"`
	EnglishLevel         EnglishLevel    `json:"englishLevel,omitempty"`
}

// IsEmpty reports whether no dimension is specified.
func (p ProfileQuery) IsEmpty() bool {
	return p.HighSchoolLevel == "" &&
		p.GradeAverage == "" &&
		p.AdmissionType == "" &&
		p.University == "" &&
		p.Faculty == "" &&
		len(p.ExplorationThemeIDs) == 0 &&
		!p.HasSportsAchievement &&
		!p.HasStudyAbroad &&
		!p.HasLeaderExperience &&
		p.EnglishLevel == ""
}
