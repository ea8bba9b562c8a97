package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdulachik/easypost/internal/matcher"
	"github.com/abdulachik/easypost/internal/poster"
)

var (
	postReplyTo  string
	postContinue bool
	postThread   bool
	postQuery    string
	postImage    string
	postDryRun   bool
)

var postCmd = &cobra.Command{
	Use:   "post TEXT",
	Short: "Publish a post",
	Long: `Publish a post, standalone or as part of a thread.

With --thread the post replies to the newest earlier post of the day whose
leading line matches --query (default: the first line of TEXT). When none
is found the post is published standalone.

With --continue the post replies to the last post this tool published
today, as recorded in the local journal.

Examples:
  easypost post "Good morning"
  easypost post "Day 12 - more notes" --thread --query "Day 12"
  easypost post "Part two" --reply-to 1790000000000000000
  easypost post "Update" --continue --image chart.png
  easypost post "Good morning" --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runPost,
}

func init() {
	postCmd.Flags().StringVar(&postReplyTo, "reply-to", "", "Reply to this post id")
	postCmd.Flags().BoolVar(&postContinue, "continue", false, "Reply to the last post published today")
	postCmd.Flags().BoolVar(&postThread, "thread", false, "Reply to the newest post matching --query")
	postCmd.Flags().StringVar(&postQuery, "query", "", "Text identifying the thread (with --thread)")
	postCmd.Flags().StringVar(&postImage, "image", "", "Attach an image (requires WITH_IMAGES=true)")
	postCmd.Flags().BoolVar(&postDryRun, "dry-run", false, "Show what would be posted without posting")
	postCmd.MarkFlagsMutuallyExclusive("reply-to", "continue", "thread")
	rootCmd.AddCommand(postCmd)
}

func runPost(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	text := args[0]

	if err := poster.ValidateText(text); err != nil {
		return err
	}
	if postThread && postImage != "" {
		return fmt.Errorf("--thread cannot be combined with --image; use --reply-to or --continue")
	}

	query := postQuery
	if postThread && query == "" {
		query = matcher.MatchKey(text)
	}

	if postDryRun {
		fmt.Println()
		fmt.Println("=== Post Content ===")
		fmt.Println()
		fmt.Println(text)
		fmt.Println()
		switch {
		case postReplyTo != "":
			fmt.Printf("Reply to: %s\n", postReplyTo)
		case postContinue:
			fmt.Println("Reply to: last post published today")
		case postThread:
			fmt.Printf("Thread query: %q (mode %s)\n", query, cfg.SearchMode)
		}
		if postImage != "" {
			fmt.Printf("Image: %s\n", postImage)
		}
		fmt.Println()
		fmt.Println("=== DRY RUN - Not posting ===")
		return nil
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	parentID := postReplyTo
	if postContinue {
		last, err := a.LastPostToday(ctx)
		if err != nil {
			return err
		}
		if last == nil {
			fmt.Printf("%s Nothing posted today yet, publishing standalone\n", warn("!"))
		} else {
			parentID = last.TweetID
		}
	}
	isReply := parentID != ""

	var result *poster.PostResult
	switch {
	case postImage != "":
		result, err = a.Poster.PublishOrReplyWithImage(ctx, text, postImage, isReply, parentID)
	case postThread:
		result, err = a.Poster.PublishStandaloneOrThreaded(ctx, text, query, true)
	case isReply:
		result, err = a.Poster.PublishOrReply(ctx, text, true, parentID)
	default:
		result, err = a.Poster.PublishImmediate(ctx, text)
	}

	return finishPublish(ctx, a, result, err)
}
