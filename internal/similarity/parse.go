package similarity

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"admission-stories/internal/models"
)

// Query keys accepted by ParseProfile and ParseProfileMap.
const (
	KeyHighSchoolLevel      = "highSchoolLevel"
	KeyGradeAverage         = "gradeAverage"
	KeyAdmissionType        = "admissionType"
	KeyUniversity           = "university"
	KeyFaculty              = "faculty"
	KeyExplorationThemeIDs  = "explorationThemeIds"
	KeyHasSportsAchievement = "hasSportsAchievement"
	KeyHasStudyAbroad       = "hasStudyAbroad"
	KeyHasLeaderExperience  = "hasLeaderExperience"
	KeyEnglishLevel         = "englishLevel"
)

// ParseProfile builds a profile from URL query parameters. It never fails:
// a malformed value leaves its dimension unspecified so one bad filter does
// not sink the whole search.
//
// Theme IDs are comma separated and may repeat the key. Boolean flags are
// true when present with an empty value or any of true/1/on/yes.
func ParseProfile(values url.Values) models.ProfileQuery {
	var p models.ProfileQuery

	if v, ok := models.ParseHighSchoolLevel(values.Get(KeyHighSchoolLevel)); ok {
		p.HighSchoolLevel = v
	}
	if v, ok := models.ParseGradeAverage(values.Get(KeyGradeAverage)); ok {
		p.GradeAverage = v
	}
	if v, ok := models.ParseEnglishLevel(values.Get(KeyEnglishLevel)); ok {
		p.EnglishLevel = v
	}
	p.AdmissionType = strings.TrimSpace(values.Get(KeyAdmissionType))
	p.University = strings.TrimSpace(values.Get(KeyUniversity))
	p.Faculty = strings.TrimSpace(values.Get(KeyFaculty))

	for _, raw := range values[KeyExplorationThemeIDs] {
		p.ExplorationThemeIDs = appendThemeIDs(p.ExplorationThemeIDs, raw)
	}

	p.HasSportsAchievement = flagValue(values, KeyHasSportsAchievement)
	p.HasStudyAbroad = flagValue(values, KeyHasStudyAbroad)
	p.HasLeaderExperience = flagValue(values, KeyHasLeaderExperience)

	return p
}

// ParseProfileMap builds a profile from decoded JSON, as carried in process
// variables. Numbers, strings, arrays and booleans are all tolerated where
// they make sense; anything else is ignored.
func ParseProfileMap(raw map[string]interface{}) models.ProfileQuery {
	var p models.ProfileQuery
	if raw == nil {
		return p
	}

	if v, ok := models.ParseHighSchoolLevel(stringValue(raw[KeyHighSchoolLevel])); ok {
		p.HighSchoolLevel = v
	}
	if v, ok := models.ParseGradeAverage(stringValue(raw[KeyGradeAverage])); ok {
		p.GradeAverage = v
	}
	if v, ok := models.ParseEnglishLevel(stringValue(raw[KeyEnglishLevel])); ok {
		p.EnglishLevel = v
	}
	p.AdmissionType = strings.TrimSpace(stringValue(raw[KeyAdmissionType]))
	p.University = strings.TrimSpace(stringValue(raw[KeyUniversity]))
	p.Faculty = strings.TrimSpace(stringValue(raw[KeyFaculty]))

	switch ids := raw[KeyExplorationThemeIDs].(type) {
	case []interface{}:
		for _, item := range ids {
			if id, ok := int64Value(item); ok {
				p.ExplorationThemeIDs = append(p.ExplorationThemeIDs, id)
			}
		}
	case []int64:
		p.ExplorationThemeIDs = append(p.ExplorationThemeIDs, ids...)
	case string:
		p.ExplorationThemeIDs = appendThemeIDs(p.ExplorationThemeIDs, ids)
	default:
		if id, ok := int64Value(ids); ok {
			p.ExplorationThemeIDs = append(p.ExplorationThemeIDs, id)
		}
	}

	p.HasSportsAchievement = boolValue(raw[KeyHasSportsAchievement])
	p.HasStudyAbroad = boolValue(raw[KeyHasStudyAbroad])
	p.HasLeaderExperience = boolValue(raw[KeyHasLeaderExperience])

	return p
}

func appendThemeIDs(dst []int64, raw string) []int64 {
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		id, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			continue
		}
		dst = append(dst, id)
	}
	return dst
}

func flagValue(values url.Values, key string) bool {
	vs, present := values[key]
	if !present {
		return false
	}
	if len(vs) == 0 {
		return true
	}
	return parseFlag(vs[len(vs)-1])
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "true", "1", "on", "yes":
		return true
	}
	return false
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	}
	return ""
}

func int64Value(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case float64:
		if t != float64(int64(t)) {
			return 0, false
		}
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return id, err == nil
	}
	return 0, false
}

func boolValue(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != "" && parseFlag(t)
	case float64:
		return t != 0
	}
	return false
}
