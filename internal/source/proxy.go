package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const proxySourceName = "proxy"

// ProxySource delegates to a caller-operated backend that serves
// GET /api/instagram/hashtag/{hashtag}.
type ProxySource struct {
	baseURL string
	client  *http.Client
}

// NewProxy creates a backend-proxy source for the service at baseURL.
func NewProxy(baseURL string, timeout time.Duration) (*ProxySource, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, notConfigured(proxySourceName, "base url")
	}
	return &ProxySource{baseURL: baseURL, client: newHTTPClient(timeout)}, nil
}

func (p *ProxySource) Name() string {
	return proxySourceName
}

// proxyPost mirrors Post on the wire. Every field is kept raw so a single
// oddly typed value degrades to its default instead of failing the batch.
type proxyPost struct {
	ID         json.RawMessage `json:"id"`
	URL        json.RawMessage `json:"url"`
	Caption    json.RawMessage `json:"caption"`
	ImageURL   json.RawMessage `json:"imageUrl"`
	Username   json.RawMessage `json:"username"`
	UserAvatar json.RawMessage `json:"userAvatar"`
	Likes      json.RawMessage `json:"likes"`
	Comments   json.RawMessage `json:"comments"`
	Timestamp  json.RawMessage `json:"timestamp"`
}

func (p *ProxySource) FetchByHashtag(ctx context.Context, hashtag string) ([]Post, error) {
	endpoint := fmt.Sprintf("%s/api/instagram/hashtag/%s", p.baseURL, url.PathEscape(hashtag))
	header := http.Header{"Accept": []string{"application/json"}}

	body, err := getBody(ctx, p.client, proxySourceName, endpoint, header)
	if err != nil {
		return nil, err
	}

	items, err := decodeProxyBody(body)
	if err != nil {
		return nil, err
	}

	posts := make([]Post, 0, len(items))
	for i, item := range items {
		posts = append(posts, postFromProxy(item, i))
	}
	return posts, nil
}

// decodeProxyBody accepts either a bare array or an object with a "posts"
// field. Array elements that are not objects are dropped.
func decodeProxyBody(body []byte) ([]proxyPost, error) {
	trimmed := bytes.TrimSpace(body)

	var raw []json.RawMessage
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := decodeJSON(proxySourceName, trimmed, &raw); err != nil {
			return nil, err
		}
	} else {
		var wrapped struct {
			Posts []json.RawMessage `json:"posts"`
		}
		if err := decodeJSON(proxySourceName, trimmed, &wrapped); err != nil {
			return nil, err
		}
		raw = wrapped.Posts
	}

	items := make([]proxyPost, 0, len(raw))
	for _, r := range raw {
		var item proxyPost
		if err := json.Unmarshal(r, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func postFromProxy(item proxyPost, index int) Post {
	id := rawString(item.ID)
	if id == "" {
		id = proxySourceName + "-" + strconv.Itoa(index)
	}
	username := rawString(item.Username)
	if username == "" {
		username = "unknown"
	}
	caption := rawString(item.Caption)

	return Post{
		ID:         id,
		URL:        rawString(item.URL),
		Caption:    caption,
		ImageURL:   rawString(item.ImageURL),
		Username:   username,
		UserAvatar: rawString(item.UserAvatar),
		Likes:      numberOrZero(item.Likes),
		Comments:   numberOrZero(item.Comments),
		Timestamp:  rawTime(item.Timestamp),
		Hashtags:   ExtractHashtags(caption),
	}
}

// rawString returns a JSON string or number as text, "" for anything else.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// numberOrZero accepts JSON numbers and numeric strings. Anything else is 0.
func numberOrZero(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil || n == "" {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return nonNegative(int(i))
	}
	if f, err := n.Float64(); err == nil {
		return nonNegative(int(f))
	}
	return 0
}

// epochMillisThreshold separates unix seconds from milliseconds; seconds stay
// below it until the year 33658.
const epochMillisThreshold = 1e12

// rawTime accepts an RFC 3339 string or a unix epoch in seconds or
// milliseconds. Anything else is the zero time.
func rawTime(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return ts.UTC()
		}
		return time.Time{}
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil || n == "" {
		return time.Time{}
	}
	f, err := n.Float64()
	if err != nil || f <= 0 {
		return time.Time{}
	}
	if f >= epochMillisThreshold {
		return time.UnixMilli(int64(f)).UTC()
	}
	return time.Unix(int64(f), 0).UTC()
}
