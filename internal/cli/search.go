package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/tagscout/internal/render"
	"github.com/ppiankov/tagscout/internal/search"
	"github.com/ppiankov/tagscout/internal/trend"
	"github.com/spf13/cobra"
)

var (
	searchRealOnly bool
	searchFormat   string
	noColor        bool
)

var searchCmd = &cobra.Command{
	Use:   "search <hashtag>",
	Short: "Find recent posts for a hashtag",
	Args:  cobra.ExactArgs(1),
	RunE:  searchAction,
}

func init() {
	searchCmd.Flags().BoolVar(&searchRealOnly, "real-only", false, "skip the cache and synthetic sources")
	searchCmd.Flags().StringVar(&searchFormat, "format", "terminal", "output format: terminal, json, markdown")
	searchCmd.Flags().BoolVar(&noColor, "no-color", false, "disable ANSI colors")
	rootCmd.AddCommand(searchCmd)
}

func searchAction(cmd *cobra.Command, args []string) error {
	formatter, err := render.New(searchFormat, !noColor)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx := cmd.Context()

	var res search.Result
	if searchRealOnly {
		res, err = a.search.SearchRealOnly(ctx, args[0])
	} else {
		res, err = a.search.Search(ctx, args[0])
	}
	if err != nil {
		if errors.Is(err, search.ErrEmptyHashtag) {
			return fmt.Errorf("search: hashtag must not be empty")
		}
		return fmt.Errorf("search: %w", err)
	}

	return formatter.Format(os.Stdout, render.Report{
		Hashtag: res.Hashtag,
		Origin:  string(res.Origin),
		Source:  res.Source,
		Posts:   res.Posts,
		Related: trend.Find(res.Posts, res.Hashtag, trend.DefaultMinUsers),
		Now:     time.Now(),
	})
}
