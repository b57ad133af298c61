package source

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Post is a single social-media post normalized from any upstream.
type Post struct {
	ID         string    `json:"id"`       // unique within one fetch batch
	URL        string    `json:"url"`      // canonical link to the post
	Caption    string    `json:"caption"`  // may be empty
	ImageURL   string    `json:"imageUrl"` // media or thumbnail URL
	Username   string    `json:"username"`
	UserAvatar string    `json:"userAvatar"` // may be empty
	Likes      int       `json:"likes"`
	Comments   int       `json:"comments"`
	Timestamp  time.Time `json:"timestamp"`
	Hashtags   []string  `json:"hashtags"` // derived from Caption
}

// Source fetches posts for a hashtag from one upstream.
type Source interface {
	// Name returns the source identifier (e.g. "graph").
	Name() string

	// FetchByHashtag returns the first page of posts tagged with hashtag,
	// in upstream order.
	FetchByHashtag(ctx context.Context, hashtag string) ([]Post, error)
}

// ErrNotConfigured is returned by sources that lack credentials or an endpoint.
var ErrNotConfigured = errors.New("source not configured")

// UpstreamError reports a failed upstream call: a non-2xx status, an error
// payload from the vendor, a malformed body or a transport failure.
type UpstreamError struct {
	Source     string
	StatusCode int    // 0 when no HTTP response was received
	Message    string // vendor-provided or local description
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Source, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Source, msg)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func notConfigured(name, what string) error {
	return fmt.Errorf("%s: %s missing: %w", name, what, ErrNotConfigured)
}

// IsConfigured reports whether src has what it needs to reach its upstream.
// Sources without a Configured method are assumed ready.
func IsConfigured(src Source) bool {
	if c, ok := src.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}

// IsSynthetic reports whether src generates placeholder data instead of
// calling a real upstream.
func IsSynthetic(src Source) bool {
	if s, ok := src.(interface{ Synthetic() bool }); ok {
		return s.Synthetic()
	}
	return false
}

// nonNegative clamps upstream counters, which are occasionally -1 for hidden
// like counts.
func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// DisabledSource stands in for a source whose constructor rejected its
// configuration, so it keeps its place in the fallback order.
type DisabledSource struct {
	name string
	err  error
}

// Disabled returns a placeholder for name that reports err on every call.
func Disabled(name string, err error) *DisabledSource {
	if err == nil {
		err = fmt.Errorf("%s: %w", name, ErrNotConfigured)
	}
	return &DisabledSource{name: name, err: err}
}

func (d *DisabledSource) Name() string     { return d.name }
func (d *DisabledSource) Configured() bool { return false }
func (d *DisabledSource) Err() error       { return d.err }

func (d *DisabledSource) FetchByHashtag(context.Context, string) ([]Post, error) {
	return nil, d.err
}
