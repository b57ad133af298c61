package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/ppiankov/tagscout/internal/config"
	"github.com/ppiankov/tagscout/internal/source"
	"github.com/ppiankov/tagscout/internal/store"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, cache database and sources",
	RunE:  doctorAction,
}

func doctorAction(cmd *cobra.Command, _ []string) error {
	ok := true

	// Config dir
	if info, err := os.Stat(configDir); err != nil || !info.IsDir() {
		printCheck(false, "config directory %s", configDir)
		ok = false
	} else {
		printCheck(true, "config directory %s", configDir)
	}

	// Config file
	cfg, err := config.Load(configDir)
	if err != nil {
		printCheck(false, "config.yaml: %v", err)
		return fmt.Errorf("some checks failed")
	}
	printCheck(true, "config.yaml")

	// Database
	db, err := store.Open(cfg.Cache.Path)
	if err != nil {
		printCheck(false, "database: %v", err)
		ok = false
	} else {
		defer func() { _ = db.Close() }()
		printCheck(true, "database %s", cfg.Cache.Path)

		keys, err := db.Keys(cmd.Context())
		if err != nil {
			printCheck(false, "database keys: %v", err)
			ok = false
		}
		for _, k := range keys {
			printInfo("%s: %s, updated %s", k.Key, humanize.Bytes(uint64(k.Size)), humanize.Time(k.UpdatedAt))
		}
	}

	// Sources
	live := 0
	for _, src := range buildSources(cfg) {
		if !source.IsConfigured(src) {
			reason := "not configured"
			if d, isDisabled := src.(*source.DisabledSource); isDisabled && !errors.Is(d.Err(), source.ErrNotConfigured) {
				reason = d.Err().Error()
				ok = false
			}
			printInfo("source %s: %s", src.Name(), reason)
			continue
		}
		if source.IsSynthetic(src) {
			printInfo("source %s: synthetic fallback", src.Name())
			continue
		}
		live++
		printCheck(true, "source %s", src.Name())
	}
	if live == 0 {
		printInfo("no real sources configured; only mock data will be returned")
	}

	if !ok {
		return fmt.Errorf("some checks failed")
	}
	fmt.Println("\nAll checks passed.")
	return nil
}

func printCheck(pass bool, format string, args ...any) {
	mark := "FAIL"
	if pass {
		mark = " OK "
	}
	fmt.Printf("[%s] %s\n", mark, fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Printf("[INFO] %s\n", fmt.Sprintf(format, args...))
}
