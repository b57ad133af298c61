package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func clientWith(rt roundTripFunc) *http.Client {
	return &http.Client{Timeout: DefaultHTTPTimeout, Transport: &uaTransport{base: rt}}
}

func TestUpstreamError_Message(t *testing.T) {
	err := &UpstreamError{Source: "proxy", StatusCode: 503, Message: "Service Unavailable"}
	if got := err.Error(); got != "proxy: status 503: Service Unavailable" {
		t.Errorf("error = %q", got)
	}

	inner := errors.New("dial tcp: refused")
	err = &UpstreamError{Source: "graph", Err: inner}
	if got := err.Error(); got != "graph: dial tcp: refused" {
		t.Errorf("error = %q", got)
	}
	if !errors.Is(err, inner) {
		t.Error("expected UpstreamError to unwrap to inner error")
	}
}

func TestNotConfiguredIsSentinel(t *testing.T) {
	_, err := NewProxy("", 0)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("NewProxy(\"\") error = %v, want ErrNotConfigured", err)
	}
	_, err = NewRapidAPI(" ", "", 0)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("NewRapidAPI error = %v, want ErrNotConfigured", err)
	}
	_, err = NewGraph(GraphConfig{AccessToken: "tok"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("NewGraph without account error = %v, want ErrNotConfigured", err)
	}
	_, err = NewFeed("", 0)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("NewFeed error = %v, want ErrNotConfigured", err)
	}
}

type stubSource struct{ configured, synthetic bool }

func (stubSource) Name() string { return "stub" }
func (stubSource) FetchByHashtag(context.Context, string) ([]Post, error) {
	return nil, nil
}
func (s stubSource) Configured() bool { return s.configured }
func (s stubSource) Synthetic() bool  { return s.synthetic }

func TestCapabilities(t *testing.T) {
	if IsConfigured(stubSource{configured: false}) {
		t.Error("expected unconfigured stub")
	}
	if !IsSynthetic(stubSource{synthetic: true}) {
		t.Error("expected synthetic stub")
	}
	if !IsConfigured(NewMock()) || !IsSynthetic(NewMock()) {
		t.Error("mock should be configured and synthetic")
	}
	p, _ := NewProxy("http://localhost", 0)
	if IsSynthetic(p) {
		t.Error("proxy should not be synthetic")
	}
}

func TestDisabled(t *testing.T) {
	_, cause := NewGraph(GraphConfig{})
	d := Disabled("graph", cause)
	if IsConfigured(d) {
		t.Error("disabled source should not be configured")
	}
	if d.Name() != "graph" {
		t.Errorf("name = %q, want graph", d.Name())
	}
	if _, err := d.FetchByHashtag(context.Background(), "x"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("fetch error = %v, want ErrNotConfigured", err)
	}
	if err := Disabled("feed", nil).Err(); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("default error = %v, want ErrNotConfigured", err)
	}
}

func TestUserAgentInjected(t *testing.T) {
	var got string
	c := clientWith(func(r *http.Request) (*http.Response, error) {
		got = r.Header.Get("User-Agent")
		return response(200, "[]"), nil
	})
	if _, err := getBody(context.Background(), c, "test", "https://example.test/", nil); err != nil {
		t.Fatalf("getBody: %v", err)
	}
	if got != userAgent {
		t.Errorf("user-agent = %q, want %q", got, userAgent)
	}
}
