package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abdulachik/easypost/internal/app"
	"github.com/abdulachik/easypost/internal/config"
	"github.com/abdulachik/easypost/internal/logger"
	"github.com/abdulachik/easypost/internal/poster"
)

var (
	success = color.New(color.FgGreen).SprintFunc()
	fail    = color.New(color.FgRed).SprintFunc()
	info    = color.New(color.FgCyan).SprintFunc()
	warn    = color.New(color.FgYellow).SprintFunc()
)

// cfg is loaded once before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "easypost",
	Short: "Post status updates and threads to Twitter/X",
	Long: `easypost publishes posts to Twitter/X, optionally threading them under
an earlier post found by its leading text, and can publish a chain of
captioned images as replies under a header post.

Credentials and behaviour are read from the environment and from the
dotenv file named by ENV_FILE (default .env).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		logger.SetDefault(logger.Config{
			Level:      logger.ParseLevel(cfg.LogLevel),
			Output:     os.Stderr,
			JSONFormat: strings.EqualFold(cfg.LogFormat, "json"),
		})
		return nil
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// openApp validates the configuration for posting and wires the app.
func openApp(ctx context.Context) (*app.App, error) {
	if err := cfg.ValidateForPosting(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return a, nil
}

// finishPublish journals whatever was published and reports it. The
// publish error, if any, is returned after the partial result is shown.
func finishPublish(ctx context.Context, a *app.App, result *poster.PostResult, publishErr error) error {
	if err := a.Journal(ctx, result); err != nil {
		fmt.Printf("%s Failed to journal posts: %v\n", warn("!"), err)
	}

	if result != nil {
		for _, p := range result.Posts {
			line := fmt.Sprintf("%s Posted %s", success("✓"), info(p.URL))
			if p.ParentID != "" {
				line += fmt.Sprintf(" (reply to %s)", p.ParentID)
			}
			if len(p.MediaIDs) > 0 {
				line += fmt.Sprintf(" [%d image]", len(p.MediaIDs))
			}
			fmt.Println(line)
		}
	}

	if publishErr != nil {
		fmt.Printf("%s %v\n", fail("✗"), publishErr)
		return publishErr
	}
	return nil
}
