package main

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Check the credentials and show the account they belong to",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Verifying credentials..."
	s.Start()
	session, err := a.Twitter.NewSession(ctx)
	s.Stop()
	if err != nil {
		fmt.Printf("%s Credentials were rejected\n", fail("✗"))
		return err
	}

	fmt.Printf("%s Authenticated as %s (id %s)\n", success("✓"), info("@"+session.Username), session.UserID)
	fmt.Printf("  Search mode: %s\n", cfg.SearchMode)
	fmt.Printf("  Images:      %t\n", cfg.WithImages)
	return nil
}
