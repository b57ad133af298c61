package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ppiankov/tagscout/internal/cache"
	"github.com/spf13/cobra"
)

var statsFormat string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache usage",
	RunE:  statsAction,
}

func init() {
	statsCmd.Flags().StringVar(&statsFormat, "format", "terminal", "output format: terminal, json")
	rootCmd.AddCommand(statsCmd)
}

func statsAction(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	st := a.cache.Stats(cmd.Context())

	switch statsFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	case "terminal", "":
		printStats(os.Stdout, st, a.cfg.Cache.Path, time.Now())
		return nil
	default:
		return fmt.Errorf("unknown format %q (want terminal or json)", statsFormat)
	}
}

func printStats(w io.Writer, st cache.Stats, path string, now time.Time) {
	fmt.Fprintf(w, "Cache: %s\n\n", path)
	if st.TotalHashtags == 0 {
		fmt.Fprintln(w, "Cache is empty.")
		return
	}
	fmt.Fprintf(w, "  Hashtags:      %d\n", st.TotalHashtags)
	fmt.Fprintf(w, "  Posts:         %s\n", humanize.Comma(int64(st.TotalPosts)))
	fmt.Fprintf(w, "  Storage used:  %s\n", humanize.Bytes(uint64(st.StorageUsed)))
	if st.LastUpdated != nil {
		fmt.Fprintf(w, "  Last updated:  %s (%s)\n",
			st.LastUpdated.Local().Format("2006-01-02 15:04"),
			humanize.RelTime(*st.LastUpdated, now, "ago", "from now"))
	}
}
