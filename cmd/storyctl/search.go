package main

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"admission-stories/internal/common/database"
	"admission-stories/internal/common/metrics"
	"admission-stories/internal/similarity"
	"admission-stories/internal/stories"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Rank published stories against a student profile",
	Long: `Search runs the similarity search directly against the configured
database, bypassing the candidate cache, and prints the ranked results as JSON.
Unset flags leave their dimension unspecified.`,
	RunE: runSearch,
}

// searchFlags maps CLI flags onto the query keys ParseProfile understands.
var searchFlags = map[string]string{
	"high-school-level": similarity.KeyHighSchoolLevel,
	"grade-average":     similarity.KeyGradeAverage,
	"admission-type":    similarity.KeyAdmissionType,
	"university":        similarity.KeyUniversity,
	"faculty":           similarity.KeyFaculty,
	"themes":            similarity.KeyExplorationThemeIDs,
	"english-level":     similarity.KeyEnglishLevel,
}

var searchBoolFlags = map[string]string{
	"sports": similarity.KeyHasSportsAchievement,
	"abroad": similarity.KeyHasStudyAbroad,
	"leader": similarity.KeyHasLeaderExperience,
}

func init() {
	searchCmd.Flags().String("high-school-level", "", "LEVEL_1 .. LEVEL_4")
	searchCmd.Flags().String("grade-average", "", "RANGE_1 .. RANGE_5")
	searchCmd.Flags().String("admission-type", "", "admission track, e.g. EARLY")
	searchCmd.Flags().String("university", "", "exact university name")
	searchCmd.Flags().String("faculty", "", "exact faculty name")
	searchCmd.Flags().String("themes", "", "exploration theme ids (comma-separated)")
	searchCmd.Flags().String("english-level", "", "LV0 .. LV4")
	searchCmd.Flags().Bool("sports", false, "has a sports achievement")
	searchCmd.Flags().Bool("abroad", false, "has studied abroad")
	searchCmd.Flags().Bool("leader", false, "has leadership experience")
	searchCmd.Flags().Int("limit", 0, "maximum results (0 uses search.max_results)")

	rootCmd.AddCommand(searchCmd)
}

// profileQuery collects the set flags into url.Values so the CLI parses
// profiles exactly like the HTTP API.
func profileQuery(cmd *cobra.Command) url.Values {
	values := url.Values{}
	for flag, key := range searchFlags {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			values.Set(key, v)
		}
	}
	for flag, key := range searchBoolFlags {
		if v, _ := cmd.Flags().GetBool(flag); v {
			values.Set(key, "true")
		}
	}
	return values
}

func runSearch(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()

	svc := stories.NewSearchService(stories.NewRepository(pg.DB), nil, nil, cfg.Search.MaxResults, log)
	profile := similarity.ParseProfile(profileQuery(cmd))

	res, err := svc.Search(cmd.Context(), profile, limit, metrics.SurfaceCLI)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
