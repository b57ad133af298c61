package render

import (
	"encoding/json"
	"io"

	"github.com/ppiankov/tagscout/internal/source"
	"github.com/ppiankov/tagscout/internal/trend"
)

type jsonReport struct {
	Meta    jsonMeta      `json:"meta"`
	Related []trend.Trend `json:"related"`
	Posts   []source.Post `json:"posts"`
}

type jsonMeta struct {
	Hashtag string `json:"hashtag"`
	Origin  string `json:"origin"`
	Source  string `json:"source,omitempty"`
	Count   int    `json:"count"`
}

// JSONFormatter formats a report as JSON.
type JSONFormatter struct{}

// NewJSON creates a JSON formatter.
func NewJSON() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes the report as indented JSON to w.
func (f *JSONFormatter) Format(w io.Writer, r Report) error {
	posts := r.Posts
	if posts == nil {
		posts = []source.Post{}
	}
	related := r.Related
	if related == nil {
		related = []trend.Trend{}
	}

	out := jsonReport{
		Meta: jsonMeta{
			Hashtag: r.Hashtag,
			Origin:  r.Origin,
			Source:  r.Source,
			Count:   len(posts),
		},
		Related: related,
		Posts:   posts,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
