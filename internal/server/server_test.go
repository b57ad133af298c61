package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/tagscout/internal/cache"
	"github.com/ppiankov/tagscout/internal/search"
	"github.com/ppiankov/tagscout/internal/source"
)

type fakeSearcher struct {
	res      search.Result
	err      error
	lastTag  string
	realOnly bool
}

func (f *fakeSearcher) Search(_ context.Context, tag string) (search.Result, error) {
	f.lastTag = tag
	return f.res, f.err
}

func (f *fakeSearcher) SearchRealOnly(_ context.Context, tag string) (search.Result, error) {
	f.lastTag = tag
	f.realOnly = true
	return f.res, f.err
}

type fakeCache struct {
	history []string
	stats   cache.Stats
	cleared bool
}

func (f *fakeCache) History(context.Context) []string { return f.history }
func (f *fakeCache) Stats(context.Context) cache.Stats { return f.stats }
func (f *fakeCache) Clear(context.Context)             { f.cleared = true }

func newTestServer(s *fakeSearcher, c *fakeCache) (*Server, *bytes.Buffer) {
	var logs bytes.Buffer
	return New(s, c, slog.New(slog.NewTextHandler(&logs, nil))), &logs
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHashtag_OK(t *testing.T) {
	s := &fakeSearcher{res: search.Result{
		Hashtag: "sunset",
		Origin:  search.OriginSource,
		Source:  "graph",
		Posts:   []source.Post{{ID: "1", Username: "alice"}},
	}}
	srv, logs := newTestServer(s, &fakeCache{})

	rec := do(t, srv, http.MethodGet, "/api/instagram/hashtag/sunset")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}

	var body hashtagResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Hashtag != "sunset" || body.Origin != search.OriginSource || body.Source != "graph" || len(body.Posts) != 1 {
		t.Errorf("unexpected body: %+v", body)
	}
	if s.lastTag != "sunset" || s.realOnly {
		t.Errorf("searcher got tag=%q realOnly=%v", s.lastTag, s.realOnly)
	}

	id := rec.Header().Get(requestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("request id %q is not a uuid", id)
	}
	if !strings.Contains(logs.String(), "request_id="+id) || !strings.Contains(logs.String(), "status=200") {
		t.Errorf("expected request log line, got %q", logs.String())
	}
}

func TestHashtag_ProxyContract(t *testing.T) {
	s := &fakeSearcher{res: search.Result{
		Hashtag: "sunset",
		Origin:  search.OriginCache,
		Posts: []source.Post{{
			ID:        "1",
			Caption:   "hi #sunset",
			Username:  "alice",
			Likes:     3,
			Timestamp: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
			Hashtags:  []string{"sunset"},
		}},
	}}
	srv, _ := newTestServer(s, &fakeCache{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	proxy, err := source.NewProxy(ts.URL, time.Second)
	if err != nil {
		t.Fatalf("new proxy: %v", err)
	}
	posts, err := proxy.FetchByHashtag(context.Background(), "sunset")
	if err != nil {
		t.Fatalf("proxy fetch: %v", err)
	}
	if len(posts) != 1 || posts[0].Username != "alice" || posts[0].Likes != 3 {
		t.Errorf("unexpected posts through proxy: %+v", posts)
	}
}

func TestHashtag_RealOnly(t *testing.T) {
	s := &fakeSearcher{res: search.Result{Hashtag: "x", Origin: search.OriginSource}}
	srv, _ := newTestServer(s, &fakeCache{})

	rec := do(t, srv, http.MethodGet, "/api/instagram/hashtag/x?real=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !s.realOnly {
		t.Error("expected real-only search")
	}
	if !strings.Contains(rec.Body.String(), `"posts":[]`) {
		t.Errorf("expected empty posts array, got %s", rec.Body.String())
	}
}

func TestHashtag_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		status int
	}{
		{"empty hashtag", "/api/instagram/hashtag/", search.ErrEmptyHashtag, http.StatusBadRequest},
		{"exhausted", "/api/instagram/hashtag/x", &search.ExhaustedError{Hashtag: "x"}, http.StatusBadGateway},
		{"not configured", "/api/instagram/hashtag/x?real=1", source.ErrNotConfigured, http.StatusBadGateway},
		{"upstream", "/api/instagram/hashtag/x", &source.UpstreamError{Source: "graph", StatusCode: 500}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(&fakeSearcher{err: tt.err}, &fakeCache{})
			rec := do(t, srv, http.MethodGet, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tt.err.Error() {
				t.Errorf("error = %q, want %q", body.Error, tt.err.Error())
			}
		})
	}
}

func TestHistory(t *testing.T) {
	srv, _ := newTestServer(&fakeSearcher{}, &fakeCache{history: []string{"b", "a"}})

	rec := do(t, srv, http.MethodGet, "/api/history")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body historyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.History) != 2 || body.History[0] != "b" {
		t.Errorf("unexpected history: %v", body.History)
	}

	srv, _ = newTestServer(&fakeSearcher{}, &fakeCache{})
	rec = do(t, srv, http.MethodGet, "/api/history")
	if !strings.Contains(rec.Body.String(), `"history":[]`) {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}

func TestStats(t *testing.T) {
	last := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	srv, _ := newTestServer(&fakeSearcher{}, &fakeCache{stats: cache.Stats{
		TotalHashtags: 2,
		TotalPosts:    9,
		StorageUsed:   1024,
		LastUpdated:   &last,
	}})

	rec := do(t, srv, http.MethodGet, "/api/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body cache.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TotalHashtags != 2 || body.TotalPosts != 9 || body.StorageUsed != 1024 {
		t.Errorf("unexpected stats: %+v", body)
	}
	if body.LastUpdated == nil || !body.LastUpdated.Equal(last) {
		t.Errorf("last updated = %v", body.LastUpdated)
	}
}

func TestClear(t *testing.T) {
	c := &fakeCache{}
	srv, _ := newTestServer(&fakeSearcher{}, c)

	rec := do(t, srv, http.MethodDelete, "/api/cache")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if !c.cleared {
		t.Error("cache not cleared")
	}

	rec = do(t, srv, http.MethodGet, "/api/cache")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/cache status = %d, want 405", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(&fakeSearcher{}, &fakeCache{})
	rec := do(t, srv, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestRequestIDPropagated(t *testing.T) {
	srv, _ := newTestServer(&fakeSearcher{}, &fakeCache{})
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, id)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	srv, _ := newTestServer(&fakeSearcher{}, &fakeCache{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
