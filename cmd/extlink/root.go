package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for extlink.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extlink",
		Short: "Open external links of a built site in a new tab",
		Long: `extlink rewrites the HTML files of a built documentation site so that
every link to an http:// or https:// address carries target="_blank" and
rel="noreferrer nofollow noopener".

Internal, relative, anchor and mailto: links are left untouched, and running
extlink twice over the same site changes nothing the second time.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging (includes per-link trace)")

	cmd.AddCommand(NewAnnotateCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
