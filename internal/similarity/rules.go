// Package similarity ranks published admission stories by how closely the
// applicant attributes behind them match a searcher's profile.
//
// Scoring is a fixed table of weighted rules. Each rule inspects one
// dimension of the profile and the candidate and either fires, adding its
// weight, or does not. A dimension the profile leaves unspecified never
// fires. The theoretical maximum score is the sum of all weights.
package similarity

import "admission-stories/internal/models"

// Rule is a single weighted predicate over a profile and a candidate story.
type Rule struct {
	Name   string
	Weight int
	Match  func(profile models.ProfileQuery, story models.Story) bool
}

// Rules is the scoring table, in evaluation order.
var Rules = []Rule{
	{
		Name:   "high_school_level",
		Weight: 2,
		Match: func(p models.ProfileQuery, s models.Story) bool {
			return p.HighSchoolLevel != "" && p.HighSchoolLevel == s.HighSchoolLevel
		},
	},
	{
		Name:   "grade_average",
		Weight: 2,
		Match: func(p models.ProfileQuery, s models.Story) bool {
			return p.GradeAverage != "" && p.GradeAverage == s.GradeAverage
		},
	},
	{
		Name:   "admission_type",
		Weight: 2,
		Match: func(p models.ProfileQuery, s models.Story) bool {
			return p.AdmissionType != "" && p.AdmissionType == s.AdmissionType
		},
	},
	{
		// Awarded once however many themes overlap.
		Name:   "exploration_theme",
		Weight: 2,
		Match: func(p models.ProfileQuery, s models.Story) bool {
			return sharesTheme(p.ExplorationThemeIDs, s.ThemeIDs)
		},
	},
	{
		Name:   "english_level",
		Weight: 1,
		Match: func(p models.ProfileQuery, s models.Story) bool {
			return p.EnglishLevel != "" && p.EnglishLevel == s.EnglishLevel
		},
	},
	{
		// Stacks with english_level when both sides sit at LV3 or LV4.
		Name:   "english_upper_tier",
		Weight: 1,
		Match: func(p models.ProfileQuery, s models.Story) bool {
			return p.EnglishLevel.IsUpperTier() && s.EnglishLevel.IsUpperTier()
		},
	},
	{
		Name:   "sports_achievement",
		Weight: 1,
		Match: func(p models.ProfileQuery, s models.Story) bool {
			return p.HasSportsAchievement && s.HasSportsAchievement
		},
	},
	{
		Name:   "leader_experience",
		Weight: 1,
		Match: func(p models.ProfileQuery, s models.Story) bool {
			return p.HasLeaderExperience && s.HasLeaderExperience
		},
	},
	{
		Name:   "study_abroad",
		Weight: 1,
		Match: func(p models.ProfileQuery, s models.Story) bool {
			return p.HasStudyAbroad && s.HasStudyAbroad
		},
	},
}

// MaxScore is the highest score any candidate can reach.
var MaxScore = sumWeights(Rules)

func sumWeights(rules []Rule) int {
	total := 0
	for _, r := range rules {
		total += r.Weight
	}
	return total
}

func sharesTheme(want, have []int64) bool {
	if len(want) == 0 || len(have) == 0 {
		return false
	}
	set := make(map[int64]struct{}, len(have))
	for _, id := range have {
		set[id] = struct{}{}
	}
	for _, id := range want {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
