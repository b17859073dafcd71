package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// options are the flags shared by every subcommand
type options struct {
	configPath string
	output     string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "songdeck",
		Short: "Folder-based music player",
		Long: `songdeck plays albums laid out as songs/<album>/ folders.

It serves a web player and a remote control API (serve), plays from the
terminal (play), and lists albums and tracks (ls). Listings come from the
local library or from a remote server's directory listings.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "./config.toml", "path to the TOML configuration file")
	root.PersistentFlags().StringVar(&opts.output, "output", "", `media output override: "clock" or "speaker"`)

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newPlayCmd(opts))
	root.AddCommand(newLsCmd(opts))
	return root
}
