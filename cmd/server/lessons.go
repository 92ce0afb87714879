package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/codecoach/internal/catalog"
	"github.com/sakif/codecoach/internal/server"
	"github.com/sakif/codecoach/internal/service"
)

var languageFlag string

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "List the lesson catalog",
	Long: `Seed the configured database with the built-in catalog and list it.

Examples:
  codecoach lessons
  codecoach lessons --language python`,
	Args: cobra.NoArgs,
	RunE: runLessons,
}

func init() {
	lessonsCmd.Flags().StringVar(&languageFlag, "language", "", "only list lessons in this language")
	rootCmd.AddCommand(lessonsCmd)
}

func runLessons(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Log.Level = "warn"
	logger := newLogger(cfg.Log, cmd.ErrOrStderr())

	db, err := server.OpenDB(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()

	cat, err := catalog.Builtin()
	if err != nil {
		return err
	}
	if err := cat.Seed(ctx, db, logger); err != nil {
		return err
	}

	lessons, err := service.NewLessonService(db, logger).List(ctx, languageFlag)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLANGUAGE\tORDER\tDIFFICULTY\tMINUTES\tTITLE")
	for _, l := range lessons {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%s\n", l.ID, l.Language, l.Order, l.Difficulty, l.EstimatedTime, l.Title)
	}
	return tw.Flush()
}
