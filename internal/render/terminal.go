package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ppiankov/tagscout/internal/source"
)

const terminalCaptionWidth = 120

// TerminalFormatter formats a report for terminal output.
type TerminalFormatter struct {
	color bool
}

// NewTerminal creates a terminal formatter. Set color=true for ANSI colors.
func NewTerminal(color bool) *TerminalFormatter {
	return &TerminalFormatter{color: color}
}

// Format writes one block per post, newest source order preserved.
func (f *TerminalFormatter) Format(w io.Writer, r Report) error {
	header := fmt.Sprintf("tagscout — #%s, %d posts (%s)", r.Hashtag, len(r.Posts), originLabel(r))
	fmt.Fprintln(w, f.bold(header))
	fmt.Fprintln(w)

	if r.Origin == "stale" {
		fmt.Fprintln(w, f.yellow("All sources failed; showing previously cached posts."))
		fmt.Fprintln(w)
	}

	if len(r.Posts) == 0 {
		fmt.Fprintln(w, "No posts found.")
		return nil
	}

	if len(r.Related) > 0 {
		fmt.Fprintln(w, f.bold(fmt.Sprintf("--- Related hashtags (%d) ---", len(r.Related))))
		fmt.Fprintln(w)
		for _, tr := range r.Related {
			fmt.Fprintf(w, "  %s — %d accounts, %d posts\n", f.green("#"+tr.Hashtag), tr.Accounts, tr.Posts)
			if len(tr.Users) > 0 {
				fmt.Fprintf(w, "    %s\n", f.dim("@"+strings.Join(tr.Users, ", @")))
			}
		}
		fmt.Fprintln(w)
	}

	for i, p := range r.Posts {
		f.writePost(w, i+1, p, r)
	}
	return nil
}

func (f *TerminalFormatter) writePost(w io.Writer, n int, p source.Post, r Report) {
	when := ""
	if !p.Timestamp.IsZero() {
		when = humanize.RelTime(p.Timestamp, reference(r), "ago", "from now")
	}

	fmt.Fprintf(w, "  %s @%s  %s likes  %s comments  %s\n",
		f.bold(fmt.Sprintf("[%d]", n)),
		p.Username,
		humanize.Comma(int64(p.Likes)),
		humanize.Comma(int64(p.Comments)),
		f.dim(when),
	)

	if caption := strings.Join(strings.Fields(p.Caption), " "); caption != "" {
		fmt.Fprintf(w, "      %s\n", truncate(caption, terminalCaptionWidth))
	}
	if len(p.Hashtags) > 0 {
		fmt.Fprintf(w, "      %s\n", f.green("#"+strings.Join(p.Hashtags, " #")))
	}
	if p.URL != "" {
		fmt.Fprintf(w, "      %s\n", f.dim(p.URL))
	}
	fmt.Fprintln(w)
}

// ANSI helpers, no-op when color=false.

func (f *TerminalFormatter) bold(s string) string {
	if !f.color {
		return s
	}
	return "\033[1m" + s + "\033[0m"
}

func (f *TerminalFormatter) green(s string) string {
	if !f.color {
		return s
	}
	return "\033[32m" + s + "\033[0m"
}

func (f *TerminalFormatter) yellow(s string) string {
	if !f.color {
		return s
	}
	return "\033[33m" + s + "\033[0m"
}

func (f *TerminalFormatter) dim(s string) string {
	if !f.color {
		return s
	}
	return "\033[2m" + s + "\033[0m"
}
