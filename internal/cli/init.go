package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/tagscout/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config directory with an example config",
	RunE:  initAction,
}

func initAction(_ *cobra.Command, _ []string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	configPath := filepath.Join(configDir, config.DefaultConfigFile)
	wrote, err := writeIfNotExists(configPath, []byte(exampleConfig))
	if err != nil {
		return err
	}

	if !wrote {
		fmt.Printf("Config directory %s already initialized.\n", configDir)
	} else {
		fmt.Printf("Initialized %s.\n", configDir)
	}
	return nil
}

// writeIfNotExists writes data to path if the file does not exist.
// Returns true if the file was created.
func writeIfNotExists(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  exists: %s\n", path)
		return false, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("  created: %s\n", path)
	return true, nil
}

const exampleConfig = `# tagscout configuration
#
# Sources are tried in this order: graph, proxy, rapidapi, feed, mock.
# A source with missing credentials is skipped.

sources:
  graph:
    access_token_env: INSTAGRAM_ACCESS_TOKEN
    account_id_env: INSTAGRAM_BUSINESS_ACCOUNT_ID
    api_version: v18.0
  proxy:
    base_url: ""
    base_url_env: TAGSCOUT_PROXY_URL
    # base_url: "http://localhost:3001"
  rapidapi:
    api_key_env: RAPIDAPI_KEY
    host: instagram-scraper-api2.p.rapidapi.com
  feed:
    url_template: ""
    # url_template: "https://rsshub.app/picuki/tag/{hashtag}"
  mock:
    disabled: false
    delay: 0s

cache:
  path: .tagscout/tagscout.db
  fresh_for: 30m
  retain_days: 7

http:
  timeout: 30s

server:
  addr: ":8080"

log:
  level: info
  format: text
`
