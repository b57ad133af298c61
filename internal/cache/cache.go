// Package cache keeps fetched posts per hashtag with their fetch time, a
// bounded search history and derived storage statistics.
//
// The cache is an optimization: every failure of the underlying medium is
// logged and treated as a miss or a skipped write, never returned.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/ppiankov/tagscout/internal/source"
)

const (
	// PostsKey holds the JSON map of hashtag to Entry.
	PostsKey = "hashtag_posts"
	// HistoryKey holds the JSON array of recent hashtags, newest first.
	HistoryKey = "search_history"

	// HistoryLimit bounds the search history.
	HistoryLimit = 10
)

// Medium is the persistent byte store behind the cache.
type Medium interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// Entry is the cached result for one hashtag. Count always equals len(Posts).
type Entry struct {
	Hashtag   string        `json:"hashtag"`
	Posts     []source.Post `json:"posts"`
	FetchedAt time.Time     `json:"fetchedAt"`
	Count     int           `json:"count"`
}

// Stats is computed from the stored entries on every call.
type Stats struct {
	TotalHashtags int        `json:"totalHashtags"`
	TotalPosts    int        `json:"totalPosts"`
	StorageUsed   int64      `json:"storageUsed"` // bytes of the serialized entry map
	LastUpdated   *time.Time `json:"lastUpdated"` // nil when the cache is empty
}

// Cache is safe for concurrent use.
type Cache struct {
	medium Medium
	log    *slog.Logger
	now    func() time.Time

	// mu serializes read-modify-write cycles on the medium.
	mu sync.Mutex
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for swallowed medium errors.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a cache over medium.
func New(medium Medium, opts ...Option) *Cache {
	c := &Cache{
		medium: medium,
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Put replaces the entry for hashtag and moves hashtag to the front of the
// search history. Nothing is written when the stored entries cannot be read,
// and the history is left untouched when the entry write fails.
func (c *Cache) Put(ctx context.Context, hashtag string, posts []source.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, _, err := c.loadEntries(ctx)
	if err != nil {
		c.ioError(ctx, "put skipped", PostsKey, err)
		return
	}

	fetchedAt := c.now().UTC()
	if prev, ok := entries[hashtag]; ok && fetchedAt.Before(prev.FetchedAt) {
		fetchedAt = prev.FetchedAt
	}

	stored := make([]source.Post, len(posts))
	copy(stored, posts)
	entries[hashtag] = Entry{
		Hashtag:   hashtag,
		Posts:     stored,
		FetchedAt: fetchedAt,
		Count:     len(stored),
	}

	if !c.saveEntries(ctx, entries) {
		return
	}
	c.pushHistory(ctx, hashtag)
}

// Get returns the cached posts for hashtag, or nil when there are none.
func (c *Cache) Get(ctx context.Context, hashtag string) []source.Post {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, _, _ := c.loadEntries(ctx)
	entry, ok := entries[hashtag]
	if !ok {
		return nil
	}
	return entry.Posts
}

// IsFresh reports whether an entry for hashtag exists and is younger than maxAge.
func (c *Cache) IsFresh(ctx context.Context, hashtag string, maxAge time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, _, _ := c.loadEntries(ctx)
	entry, ok := entries[hashtag]
	if !ok {
		return false
	}
	return c.now().Sub(entry.FetchedAt) < maxAge
}

// History returns recently stored hashtags, most recent first.
func (c *Cache) History(ctx context.Context) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	history, _ := c.loadHistory(ctx)
	return history
}

// Stats summarizes the stored entries.
func (c *Cache) Stats(ctx context.Context) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, size, _ := c.loadEntries(ctx)
	st := Stats{
		TotalHashtags: len(entries),
		StorageUsed:   int64(size),
	}
	for _, e := range entries {
		st.TotalPosts += e.Count
		if st.LastUpdated == nil || e.FetchedAt.After(*st.LastUpdated) {
			ts := e.FetchedAt
			st.LastUpdated = &ts
		}
	}
	return st
}

// EvictOlderThan removes entries fetched maxAgeDays or more days ago and
// returns how many were removed. maxAgeDays <= 0 is a no-op.
func (c *Cache) EvictOlderThan(ctx context.Context, maxAgeDays int) int {
	if maxAgeDays <= 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries, _, err := c.loadEntries(ctx)
	if err != nil {
		return 0
	}
	cutoff := c.now().AddDate(0, 0, -maxAgeDays)

	removed := 0
	for tag, e := range entries {
		if !e.FetchedAt.After(cutoff) {
			delete(entries, tag)
			removed++
		}
	}
	if removed == 0 {
		return 0
	}
	if !c.saveEntries(ctx, entries) {
		return 0
	}
	return removed
}

// Clear removes all entries and the search history.
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.medium.Delete(ctx, PostsKey, HistoryKey); err != nil {
		c.ioError(ctx, "clear", "", err)
	}
}

// loadEntries returns the stored map and its serialized size. A missing or
// corrupt blob yields an empty map. err is the medium read error, in which case
// the map is empty but the stored entries may still exist and must not be
// overwritten.
func (c *Cache) loadEntries(ctx context.Context) (map[string]Entry, int, error) {
	entries := make(map[string]Entry)

	raw, found, err := c.medium.Get(ctx, PostsKey)
	if err != nil {
		c.ioError(ctx, "read", PostsKey, err)
		return entries, 0, err
	}
	if !found || len(raw) == 0 {
		return entries, 0, nil
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.ioError(ctx, "parse", PostsKey, err)
		return make(map[string]Entry), 0, nil
	}
	for tag, e := range entries {
		if e.Count != len(e.Posts) {
			e.Count = len(e.Posts)
			entries[tag] = e
		}
	}
	return entries, len(raw), nil
}

func (c *Cache) saveEntries(ctx context.Context, entries map[string]Entry) bool {
	raw, err := json.Marshal(entries)
	if err != nil {
		c.ioError(ctx, "encode", PostsKey, err)
		return false
	}
	if err := c.medium.Set(ctx, PostsKey, raw); err != nil {
		c.ioError(ctx, "write", PostsKey, err)
		return false
	}
	return true
}

// loadHistory mirrors loadEntries: corrupt history reads as empty, a read
// error is returned.
func (c *Cache) loadHistory(ctx context.Context) ([]string, error) {
	raw, found, err := c.medium.Get(ctx, HistoryKey)
	if err != nil {
		c.ioError(ctx, "read", HistoryKey, err)
		return nil, err
	}
	if !found || len(raw) == 0 {
		return nil, nil
	}
	var history []string
	if err := json.Unmarshal(raw, &history); err != nil {
		c.ioError(ctx, "parse", HistoryKey, err)
		return nil, nil
	}
	return history, nil
}

func (c *Cache) pushHistory(ctx context.Context, hashtag string) {
	prev, err := c.loadHistory(ctx)
	if err != nil {
		c.ioError(ctx, "history skipped", HistoryKey, err)
		return
	}
	history := pushFront(prev, hashtag, HistoryLimit)

	raw, err := json.Marshal(history)
	if err != nil {
		c.ioError(ctx, "encode", HistoryKey, err)
		return
	}
	if err := c.medium.Set(ctx, HistoryKey, raw); err != nil {
		c.ioError(ctx, "write", HistoryKey, err)
	}
}

// pushFront puts tag first, drops any other occurrence and truncates to limit.
func pushFront(history []string, tag string, limit int) []string {
	out := make([]string, 0, limit)
	out = append(out, tag)
	for _, h := range history {
		if len(out) == limit {
			break
		}
		if h == tag {
			continue
		}
		out = append(out, h)
	}
	return out
}

func (c *Cache) ioError(ctx context.Context, op, key string, err error) {
	c.log.WarnContext(ctx, "cache io error",
		slog.String("op", op),
		slog.String("key", key),
		slog.Any("err", err),
	)
}
