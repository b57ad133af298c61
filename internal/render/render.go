// Package render formats search results for terminals, JSON consumers and
// Markdown notes.
package render

import (
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/tagscout/internal/source"
	"github.com/ppiankov/tagscout/internal/trend"
)

// Report is the input for every formatter.
type Report struct {
	Hashtag string
	Origin  string // cache, source or stale
	Source  string // source name when Origin is "source"
	Posts   []source.Post
	Related []trend.Trend // co-occurring hashtags, may be empty
	Now     time.Time     // reference for relative timestamps
}

// Formatter writes a formatted report to w.
type Formatter interface {
	Format(w io.Writer, r Report) error
}

// New returns the formatter for format: terminal, json or markdown.
func New(format string, color bool) (Formatter, error) {
	switch format {
	case "", "terminal":
		return NewTerminal(color), nil
	case "json":
		return NewJSON(), nil
	case "markdown":
		return NewMarkdown(), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want terminal, json, or markdown)", format)
	}
}

func originLabel(r Report) string {
	switch r.Origin {
	case "cache":
		return "cached"
	case "stale":
		return "stale cache"
	case "source":
		if r.Source != "" {
			return "via " + r.Source
		}
	}
	return r.Origin
}

// truncate shortens s to at most n runes, appending an ellipsis when cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

func reference(r Report) time.Time {
	if r.Now.IsZero() {
		return time.Now()
	}
	return r.Now
}
