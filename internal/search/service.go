// Package search resolves a hashtag to posts by consulting the cache and then
// each source in priority order, falling back to stale cached posts.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/tagscout/internal/source"
)

// DefaultFreshFor is how long cached posts are served without refetching.
const DefaultFreshFor = 30 * time.Minute

var (
	ErrEmptyHashtag  = errors.New("empty hashtag")
	ErrEmptyResult   = errors.New("source returned no posts")
	ErrExhausted     = errors.New("all sources failed and no cached posts")
	ErrNoRealSources = errors.New("no real data sources available")
)

// Cache is the subset of the post cache the orchestrator needs.
type Cache interface {
	Get(ctx context.Context, hashtag string) []source.Post
	Put(ctx context.Context, hashtag string, posts []source.Post)
	IsFresh(ctx context.Context, hashtag string, maxAge time.Duration) bool
}

// Origin says where the posts of a Result came from.
type Origin string

const (
	OriginCache  Origin = "cache"
	OriginSource Origin = "source"
	OriginStale  Origin = "stale"
)

// Result is the outcome of a search.
type Result struct {
	Hashtag string
	Posts   []source.Post
	Origin  Origin
	Source  string // set when Origin is OriginSource
}

// Attempt records one failed source call.
type Attempt struct {
	Source string
	Err    error
}

// ExhaustedError is returned when no source produced posts and the cache had
// nothing to fall back to.
type ExhaustedError struct {
	Hashtag  string
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("search %q: %s", e.Hashtag, ErrExhausted)
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Err.Error())
	}
	return fmt.Sprintf("search %q: %s: %s", e.Hashtag, ErrExhausted, strings.Join(parts, "; "))
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// Service is the fallback orchestrator. It holds no state of its own beyond
// its configuration and is safe for concurrent use.
type Service struct {
	cache    Cache
	sources  []source.Source
	log      *slog.Logger
	freshFor time.Duration
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithFreshFor sets the cache freshness window. Non-positive values keep the default.
func WithFreshFor(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.freshFor = d
		}
	}
}

// New creates an orchestrator over sources, consulted in the given order.
func New(cache Cache, sources []source.Source, opts ...Option) *Service {
	s := &Service{
		cache:    cache,
		sources:  append([]source.Source(nil), sources...),
		log:      slog.Default(),
		freshFor: DefaultFreshFor,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sources returns the configured sources in priority order.
func (s *Service) Sources() []source.Source {
	return append([]source.Source(nil), s.sources...)
}

// Search returns fresh cached posts, else the first non-empty source result,
// else stale cached posts.
func (s *Service) Search(ctx context.Context, hashtag string) (Result, error) {
	tag := source.NormalizeHashtag(hashtag)
	if tag == "" {
		return Result{}, ErrEmptyHashtag
	}

	if s.cache.IsFresh(ctx, tag, s.freshFor) {
		if posts := s.cache.Get(ctx, tag); len(posts) > 0 {
			s.log.DebugContext(ctx, "cache hit", slog.String("hashtag", tag))
			return Result{Hashtag: tag, Posts: posts, Origin: OriginCache}, nil
		}
	}

	res, attempts, err := s.tryAdapters(ctx, tag, s.sources)
	if err != nil {
		return Result{}, err
	}
	if res != nil {
		return *res, nil
	}

	if posts := s.cache.Get(ctx, tag); len(posts) > 0 {
		s.log.WarnContext(ctx, "serving stale cache",
			slog.String("hashtag", tag),
			slog.Int("posts", len(posts)),
		)
		return Result{Hashtag: tag, Posts: posts, Origin: OriginStale}, nil
	}

	return Result{}, &ExhaustedError{Hashtag: tag, Attempts: attempts}
}

// SearchRealOnly consults only non-synthetic sources and skips the cache
// check and the stale fallback. On failure it returns the last error a source
// raised; empty results are not errors, so when nothing was raised it returns
// ErrNoRealSources.
func (s *Service) SearchRealOnly(ctx context.Context, hashtag string) (Result, error) {
	tag := source.NormalizeHashtag(hashtag)
	if tag == "" {
		return Result{}, ErrEmptyHashtag
	}

	var live []source.Source
	for _, src := range s.sources {
		if !source.IsSynthetic(src) {
			live = append(live, src)
		}
	}
	if len(live) == 0 {
		return Result{}, ErrNoRealSources
	}

	res, attempts, err := s.tryAdapters(ctx, tag, live)
	if err != nil {
		return Result{}, err
	}
	if res != nil {
		return *res, nil
	}
	if err := lastRaised(attempts); err != nil {
		return Result{}, err
	}
	return Result{}, ErrNoRealSources
}

// lastRaised returns the most recent attempt error that was not an empty
// result, or nil when every attempt came back empty.
func lastRaised(attempts []Attempt) error {
	for i := len(attempts) - 1; i >= 0; i-- {
		if !errors.Is(attempts[i].Err, ErrEmptyResult) {
			return attempts[i].Err
		}
	}
	return nil
}

// tryAdapters walks srcs in order. It returns a persisted result on the first
// non-empty fetch, or the failed attempts. The error is non-nil only when ctx
// was cancelled.
func (s *Service) tryAdapters(ctx context.Context, tag string, srcs []source.Source) (*Result, []Attempt, error) {
	var attempts []Attempt
	for _, src := range srcs {
		if err := ctx.Err(); err != nil {
			return nil, attempts, err
		}

		name := src.Name()
		if !source.IsConfigured(src) {
			attempts = append(attempts, Attempt{Source: name, Err: notConfiguredErr(src)})
			s.log.DebugContext(ctx, "source skipped", slog.String("source", name))
			continue
		}

		posts, err := src.FetchByHashtag(ctx, tag)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, attempts, ctxErr
			}
			s.log.WarnContext(ctx, "source failed",
				slog.String("hashtag", tag),
				slog.String("source", name),
				slog.Any("err", err),
			)
			attempts = append(attempts, Attempt{Source: name, Err: err})
			continue
		}
		if len(posts) == 0 {
			s.log.InfoContext(ctx, "source returned no posts",
				slog.String("hashtag", tag),
				slog.String("source", name),
			)
			attempts = append(attempts, Attempt{Source: name, Err: fmt.Errorf("%s: %w", name, ErrEmptyResult)})
			continue
		}

		s.cache.Put(ctx, tag, posts)
		s.log.InfoContext(ctx, "fetched posts",
			slog.String("hashtag", tag),
			slog.String("source", name),
			slog.Int("posts", len(posts)),
		)
		return &Result{Hashtag: tag, Posts: posts, Origin: OriginSource, Source: name}, attempts, nil
	}
	return nil, attempts, nil
}

func notConfiguredErr(src source.Source) error {
	if e, ok := src.(interface{ Err() error }); ok && e.Err() != nil {
		return e.Err()
	}
	return fmt.Errorf("%s: %w", src.Name(), source.ErrNotConfigured)
}
