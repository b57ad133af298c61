// Package cli provides the command-line interface for tagscout.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

const defaultConfigDir = ".tagscout"

var configDir string

var rootCmd = &cobra.Command{
	Use:           "tagscout",
	Short:         "Find recent social posts for a hashtag",
	Long:          "tagscout looks up recent posts for a hashtag across the Instagram Graph API, a backend proxy, a scraping API and RSS bridges, caching results locally and falling back to stale data when every source fails.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("tagscout %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", defaultConfigDir, "config directory")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
