package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdulachik/easypost/internal/config"
	"github.com/abdulachik/easypost/internal/errors"
	"github.com/abdulachik/easypost/internal/matcher"
	"github.com/abdulachik/easypost/internal/poster"
)

var (
	imagesSpecs      []string
	imagesQuery      string
	imagesSequential bool
)

var imagesCmd = &cobra.Command{
	Use:   "images HEADER",
	Short: "Publish images, alone or as a captioned thread",
	Long: `Publish images. Requires WITH_IMAGES=true.

Without --sequential exactly one --image is attached to HEADER.

With --sequential HEADER is posted first and every --image is posted as a
reply carrying its caption, each replying to the one before. Between
steps the command waits HEADER_DELAY and CHAIN_DELAY for the search index
to pick up the new post.

Examples:
  easypost images "Today's chart" --image "chart=chart.png"
  easypost images "Daily log" --sequential \
      --image "Morning=am.jpg" --image "Evening=pm.jpg"`,
	Args: cobra.ExactArgs(1),
	RunE: runImages,
}

func init() {
	imagesCmd.Flags().StringArrayVar(&imagesSpecs, "image", nil, "Image as caption=path (repeatable, in order)")
	imagesCmd.Flags().StringVar(&imagesQuery, "query", "", "Text identifying the header post (default: its first line)")
	imagesCmd.Flags().BoolVar(&imagesSequential, "sequential", false, "Post the images as a reply chain under HEADER")
	imagesCmd.MarkFlagRequired("image")
	rootCmd.AddCommand(imagesCmd)
}

func runImages(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	header := args[0]

	images := make([]poster.CaptionedImage, 0, len(imagesSpecs))
	for _, spec := range imagesSpecs {
		img, err := poster.ParseCaptionedImage(spec)
		if err != nil {
			return err
		}
		images = append(images, img)
	}

	query := imagesQuery
	if query == "" {
		query = matcher.MatchKey(header)
	}
	if imagesSequential {
		if err := checkHeaderQuery(cfg.SearchMode, header, query); err != nil {
			return err
		}
	}

	if err := cfg.ValidateForImages(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if imagesSequential {
		fmt.Printf("%s Publishing %d images under %q, this takes about %s\n",
			info("→"), len(images), header, cfg.HeaderDelay+cfg.ChainDelay*time.Duration(max(len(images), 1)-1))
	}

	result, err := a.Poster.PublishWithImages(ctx, header, images, query, imagesSequential)
	return finishPublish(ctx, a, result, err)
}

// checkHeaderQuery refuses a query that could never find the header in
// own-history mode, where the query is cut at its first hyphen before
// matching. A header whose first line holds a hyphen cannot be found that
// way at all.
func checkHeaderQuery(mode, header, query string) error {
	if mode != config.SearchModeOwnHistory {
		return nil
	}
	if !matcher.ForImages(true).Match(header, query) {
		return errors.Usage("query %q cannot find the header %q in own-history mode; drop hyphens from the header's first line or use SEARCH_MODE=surface",
			query, matcher.MatchKey(header))
	}
	return nil
}
