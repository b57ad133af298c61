package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var historyFormat string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently searched hashtags",
	RunE:  historyAction,
}

func init() {
	historyCmd.Flags().StringVar(&historyFormat, "format", "terminal", "output format: terminal, json")
	rootCmd.AddCommand(historyCmd)
}

func historyAction(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	history := a.cache.History(cmd.Context())

	switch historyFormat {
	case "json":
		if history == nil {
			history = []string{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string][]string{"history": history})
	case "terminal", "":
		if len(history) == 0 {
			fmt.Println("No searches yet. Run 'tagscout search <hashtag>' first.")
			return nil
		}
		for i, tag := range history {
			fmt.Printf("%2d. #%s\n", i+1, tag)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (want terminal or json)", historyFormat)
	}
}
