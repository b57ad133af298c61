package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ppiankov/tagscout/internal/cache"
	"github.com/ppiankov/tagscout/internal/config"
	"github.com/ppiankov/tagscout/internal/logging"
	"github.com/ppiankov/tagscout/internal/privacy"
	"github.com/ppiankov/tagscout/internal/search"
	"github.com/ppiankov/tagscout/internal/source"
	"github.com/ppiankov/tagscout/internal/store"
)

// logOutput is where diagnostic logs go; stdout is reserved for results.
var logOutput io.Writer = os.Stderr

// app is the wired set of components shared by the commands.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	store  *store.Store
	cache  *cache.Cache
	search *search.Service
}

func openApp() (*app, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	redact, err := privacy.Compile(cfg.Log.Redact)
	if err != nil {
		return nil, fmt.Errorf("compile log redact patterns: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, logOutput, redact...)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := store.Open(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	c := cache.New(db, cache.WithLogger(logger))
	svc := search.New(c, buildSources(cfg),
		search.WithLogger(logger),
		search.WithFreshFor(cfg.Cache.FreshFor.Duration),
	)

	return &app{cfg: cfg, log: logger, store: db, cache: c, search: svc}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// buildSources returns every source in priority order. Sources whose
// configuration is incomplete keep their slot as disabled placeholders.
func buildSources(cfg *config.Config) []source.Source {
	timeout := cfg.HTTP.Timeout.Duration
	var out []source.Source

	add := func(name string, src source.Source, err error) {
		if err != nil {
			out = append(out, source.Disabled(name, err))
			return
		}
		out = append(out, src)
	}

	g := cfg.Sources.Graph
	graph, err := source.NewGraph(source.GraphConfig{
		AccessToken: g.AccessToken,
		AccountID:   g.AccountID,
		BaseURL:     g.BaseURL,
		APIVersion:  g.APIVersion,
		Timeout:     timeout,
	})
	add("graph", graph, err)

	proxy, err := source.NewProxy(cfg.Sources.Proxy.BaseURL, timeout)
	add("proxy", proxy, err)

	rapid, err := source.NewRapidAPI(cfg.Sources.RapidAPI.APIKey, cfg.Sources.RapidAPI.Host, timeout)
	add("rapidapi", rapid, err)

	feed, err := source.NewFeed(cfg.Sources.Feed.URLTemplate, timeout)
	add("feed", feed, err)

	if !cfg.Sources.Mock.Disabled {
		out = append(out, source.NewMock(source.WithMockDelay(cfg.Sources.Mock.Delay.Duration)))
	}
	return out
}
