package source

import (
	"bytes"
	"context"
	"errors"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	feedSourceName  = "feed"
	feedPlaceholder = "{hashtag}"
	feedMaxRetries  = 3
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s{3,}`)
)

// FeedSource reads an RSS/Atom feed published per hashtag, such as an
// RSSHub bridge. The URL template must contain {hashtag}.
type FeedSource struct {
	template string
	client   *http.Client
}

// NewFeed creates a feed source from a URL template like
// "https://rsshub.app/picuki/tag/{hashtag}".
func NewFeed(template string, timeout time.Duration) (*FeedSource, error) {
	template = strings.TrimSpace(template)
	if template == "" {
		return nil, notConfigured(feedSourceName, "url template")
	}
	if !strings.Contains(template, feedPlaceholder) {
		return nil, errors.New("feed: url template must contain " + feedPlaceholder)
	}
	return &FeedSource{template: template, client: newHTTPClient(timeout)}, nil
}

func (f *FeedSource) Name() string {
	return feedSourceName
}

// feedSleepFunc waits out a retry backoff, returning early with ctx's error
// when ctx is done. Tests override it.
var feedSleepFunc = sleepCtx

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (f *FeedSource) FetchByHashtag(ctx context.Context, hashtag string) ([]Post, error) {
	feedURL := strings.ReplaceAll(f.template, feedPlaceholder, url.PathEscape(hashtag))

	var (
		body []byte
		err  error
	)
	for attempt := range feedMaxRetries {
		body, err = getBody(ctx, f.client, feedSourceName, feedURL, http.Header{
			"Accept": []string{"application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8"},
		})
		if err == nil || !isRetryable(err) || ctx.Err() != nil {
			break
		}
		if attempt < feedMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second // 1s, 2s
			if sleepErr := feedSleepFunc(ctx, backoff); sleepErr != nil {
				return nil, sleepErr
			}
		}
	}
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &UpstreamError{Source: feedSourceName, Message: "malformed feed", Err: err}
	}

	return postsFromFeed(feed), nil
}

// isRetryable reports transport failures and 5xx responses.
func isRetryable(err error) bool {
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		return false
	}
	return upErr.StatusCode == 0 || upErr.StatusCode >= 500
}

func postsFromFeed(feed *gofeed.Feed) []Post {
	posts := make([]Post, 0, len(feed.Items))
	seen := make(map[string]bool, len(feed.Items))
	for _, item := range feed.Items {
		id := itemID(item)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		caption := itemText(item)
		posts = append(posts, Post{
			ID:        id,
			URL:       item.Link,
			Caption:   caption,
			ImageURL:  itemImage(item),
			Username:  itemAuthor(item),
			Timestamp: itemPublishedTime(item),
			Hashtags:  ExtractHashtags(caption),
		})
	}
	return posts
}

func itemPublishedTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	return time.Time{}
}

func itemID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	return item.Link
}

func itemAuthor(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	return "unknown"
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}

func itemText(item *gofeed.Item) string {
	raw := item.Content
	if raw == "" {
		raw = item.Description
	}

	text := stripHTML(raw)

	if item.Title != "" && !strings.Contains(text, item.Title) {
		text = item.Title + "\n\n" + text
	}

	return strings.TrimSpace(text)
}

func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = whitespaceRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
