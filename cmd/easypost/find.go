package main

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/abdulachik/easypost/internal/config"
	"github.com/abdulachik/easypost/internal/matcher"
)

var (
	findMax     int
	findSurface bool
)

var findCmd = &cobra.Command{
	Use:   "find QUERY",
	Short: "List today's posts a threaded post would reply to",
	Long: `Run the parent lookup used by "post --thread" and print the matches.

In own-history mode (the default) your posts since the start of the day
are matched against the text of QUERY before its first hyphen. With
--surface the query is sent as is to the platform's recent search.`,
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

func init() {
	findCmd.Flags().IntVar(&findMax, "max", 10, "Maximum posts to request")
	findCmd.Flags().BoolVar(&findSurface, "surface", false, "Search recent posts platform-wide")
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := args[0]

	if findSurface {
		cfg.SearchMode = config.SearchModeSurface
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = fmt.Sprintf(" Searching %s since %s...", cfg.SearchMode, a.Finder.Cutoff().Format(time.RFC3339))
	s.Start()
	posts, _, err := a.Finder.FindMatchingPosts(ctx, query, findMax)
	s.Stop()
	if err != nil {
		fmt.Printf("%s Search failed\n", fail("✗"))
		return err
	}

	if len(posts) == 0 {
		fmt.Printf("%s No matching posts\n", warn("!"))
		return nil
	}

	fmt.Printf("%s %d matching posts\n", success("✓"), len(posts))
	for i, p := range posts {
		fmt.Printf("%2d. %s  @%s\n", i+1, info(p.URL), p.AuthorUsername)
		fmt.Printf("    %s\n", matcher.MatchKey(p.Text))
	}
	return nil
}
