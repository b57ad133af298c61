package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var evictDays int

var evictCmd = &cobra.Command{
	Use:   "evict",
	Short: "Remove cached hashtags older than the retention window",
	RunE:  evictAction,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached posts and search history",
	RunE:  clearAction,
}

func init() {
	evictCmd.Flags().IntVar(&evictDays, "days", 0, "retention in days (default: cache.retain_days)")
	rootCmd.AddCommand(evictCmd)
	rootCmd.AddCommand(clearCmd)
}

func evictAction(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	days := a.cfg.Cache.RetainDays
	if cmd.Flags().Changed("days") {
		days = evictDays
	}
	if days <= 0 {
		fmt.Println("Retention disabled, nothing evicted.")
		return nil
	}

	n := a.cache.EvictOlderThan(cmd.Context(), days)
	fmt.Printf("Evicted %d hashtags older than %d days.\n", n, days)
	return nil
}

func clearAction(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	a.cache.Clear(cmd.Context())
	fmt.Println("Cache cleared.")
	return nil
}
