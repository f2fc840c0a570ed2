// internal/models/attributes.go
package models

import "strings"

// HighSchoolLevel is the ordinal band of the applicant's high school.
type HighSchoolLevel string

const (
	HighSchoolLevel1 HighSchoolLevel = "LEVEL_1"
	HighSchoolLevel2 HighSchoolLevel = "LEVEL_2"
	HighSchoolLevel3 HighSchoolLevel = "LEVEL_3"
	HighSchoolLevel4 HighSchoolLevel = "LEVEL_4"
)

// GradeAverage is the ordinal band of the applicant's grade average.
type GradeAverage string

const (
	GradeAverageRange1 GradeAverage = "RANGE_1"
	GradeAverageRange2 GradeAverage = "RANGE_2"
	GradeAverageRange3 GradeAverage = "RANGE_3"
	GradeAverageRange4 GradeAverage = "RANGE_4"
	GradeAverageRange5 GradeAverage = "RANGE_5"
)

// EnglishLevel is the self-reported English proficiency, LV0 (none) to LV4.
type EnglishLevel string

const (
	EnglishLV0 EnglishLevel = "LV0"
	EnglishLV1 EnglishLevel = "LV1"
	EnglishLV2 EnglishLevel = "LV2"
	EnglishLV3 EnglishLevel = "LV3"
	EnglishLV4 EnglishLevel = "LV4"
)

// IsUpperTier reports whether the level is LV3 or LV4.
func (e EnglishLevel) IsUpperTier() bool {
	return e == EnglishLV3 || e == EnglishLV4
}

var highSchoolLevels = map[string]HighSchoolLevel{
	"LEVEL_1": HighSchoolLevel1,
	"LEVEL_2": HighSchoolLevel2,
	"LEVEL_3": HighSchoolLevel3,
	"LEVEL_4": HighSchoolLevel4,
}

var gradeAverages = map[string]GradeAverage{
	"RANGE_1": GradeAverageRange1,
	"RANGE_2": GradeAverageRange2,
	"RANGE_3": GradeAverageRange3,
	"RANGE_4": GradeAverageRange4,
	"RANGE_5": GradeAverageRange5,
}

var englishLevels = map[string]EnglishLevel{
	"LV0": EnglishLV0,
	"LV1": EnglishLV1,
	"LV2": EnglishLV2,
	"LV3": EnglishLV3,
	"LV4": EnglishLV4,
}

// ParseHighSchoolLevel accepts codes case-insensitively and ignores surrounding blanks.
func ParseHighSchoolLevel(s string) (HighSchoolLevel, bool) {
	v, ok := highSchoolLevels[normalizeCode(s)]
	return v, ok
}

func ParseGradeAverage(s string) (GradeAverage, bool) {
	v, ok := gradeAverages[normalizeCode(s)]
	return v, ok
}

func ParseEnglishLevel(s string) (EnglishLevel, bool) {
	v, ok := englishLevels[normalizeCode(s)]
	return v, ok
}

func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
