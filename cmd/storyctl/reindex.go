package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"admission-stories/internal/common/database"
	"admission-stories/internal/stories"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Push every published story into the keyword index",
	Long: `Reindex creates the index when missing and writes every published story
to it. Stories that fail to index are reported and the command exits non-zero.`,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd)
	ctx := cmd.Context()

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		return err
	}
	if es == nil {
		return fmt.Errorf("elasticsearch is not configured")
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()

	index := stories.NewIndex(es.Client, cfg.Search.IndexName, log)
	if err := index.EnsureIndex(ctx); err != nil {
		return err
	}

	published, err := stories.NewRepository(pg.DB).ListPublished(ctx, stories.CandidateFilter{})
	if err != nil {
		return err
	}

	failed := 0
	for _, story := range published {
		if err := index.Put(ctx, story); err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "story %d: %v\n", story.ID, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d of %d published stories into %s\n",
		len(published)-failed, len(published), index.Name())
	if failed > 0 {
		return fmt.Errorf("%d stories failed to index", failed)
	}
	return nil
}
