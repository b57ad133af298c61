package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ppiankov/tagscout/internal/source"
)

// MarkdownFormatter formats a report as Markdown.
type MarkdownFormatter struct{}

// NewMarkdown creates a Markdown formatter.
func NewMarkdown() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format writes the report as Markdown to w.
func (f *MarkdownFormatter) Format(w io.Writer, r Report) error {
	fmt.Fprintf(w, "# #%s\n\n", r.Hashtag)
	fmt.Fprintf(w, "%d posts, %s\n\n", len(r.Posts), originLabel(r))

	if len(r.Posts) == 0 {
		fmt.Fprintln(w, "No posts found.")
		return nil
	}

	if len(r.Related) > 0 {
		fmt.Fprintf(w, "## Related hashtags\n\n")
		for _, tr := range r.Related {
			fmt.Fprintf(w, "- **#%s** — %d accounts, %d posts\n", tr.Hashtag, tr.Accounts, tr.Posts)
		}
		fmt.Fprintln(w)
	}

	for _, p := range r.Posts {
		f.writePost(w, p, r)
	}
	return nil
}

func (f *MarkdownFormatter) writePost(w io.Writer, p source.Post, r Report) {
	title := "@" + p.Username
	if p.URL != "" {
		title = fmt.Sprintf("[@%s](%s)", p.Username, p.URL)
	}
	fmt.Fprintf(w, "## %s\n\n", title)

	if p.ImageURL != "" {
		fmt.Fprintf(w, "![post image](%s)\n\n", p.ImageURL)
	}
	if caption := strings.TrimSpace(p.Caption); caption != "" {
		for _, line := range strings.Split(caption, "\n") {
			fmt.Fprintf(w, "> %s\n", line)
		}
		fmt.Fprintln(w)
	}

	meta := []string{
		humanize.Comma(int64(p.Likes)) + " likes",
		humanize.Comma(int64(p.Comments)) + " comments",
	}
	if !p.Timestamp.IsZero() {
		meta = append(meta, humanize.RelTime(p.Timestamp, reference(r), "ago", "from now"))
	}
	fmt.Fprintf(w, "*%s*\n\n", strings.Join(meta, " · "))

	if len(p.Hashtags) > 0 {
		tags := make([]string, len(p.Hashtags))
		for i, t := range p.Hashtags {
			tags[i] = "`#" + t + "`"
		}
		fmt.Fprintf(w, "Tags: %s\n\n", strings.Join(tags, " "))
	}
}
