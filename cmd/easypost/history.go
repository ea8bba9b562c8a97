package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdulachik/easypost/internal/clock"
	"github.com/abdulachik/easypost/internal/db"
	"github.com/abdulachik/easypost/internal/finder"
	"github.com/abdulachik/easypost/internal/matcher"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show posts recorded in the local journal",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of posts to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	store, err := db.NewStore(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	total, err := store.CountPosts(ctx)
	if err != nil {
		return fmt.Errorf("count posts: %w", err)
	}
	dayStart := finder.DayStartCutoff(clock.Real().Now(), cfg.DayStartHour)
	today, err := store.CountPostsSince(ctx, dayStart)
	if err != nil {
		return fmt.Errorf("count today's posts: %w", err)
	}

	posts, err := store.ListRecentPosts(ctx, int64(historyLimit))
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}

	fmt.Println("=== easypost journal ===")
	fmt.Println()
	fmt.Printf("Total posts:  %d\n", total)
	fmt.Printf("Posted today: %d (since %s)\n", today, dayStart.Format("2006-01-02 15:04 MST"))
	fmt.Println()

	for _, p := range posts {
		marker := success("●")
		if p.ParentID.Valid {
			marker = info("↳")
		}
		fmt.Printf("%s %s  %s\n", marker, p.PostedAt.Local().Format("2006-01-02 15:04"), info(p.URL))
		fmt.Printf("    %s\n", matcher.MatchKey(p.Text))
		if p.MediaCount > 0 {
			fmt.Printf("    %s %d image(s)\n", warn("▣"), p.MediaCount)
		}
	}
	return nil
}
