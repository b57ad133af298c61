package privacy

import (
	"strings"
	"testing"
)

func TestCompile(t *testing.T) {
	patterns, err := Compile([]string{`(?i)session=\w+`, `\b\d{16}\b`})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(patterns) != 2 {
		t.Errorf("got %d patterns, want 2", len(patterns))
	}

	if _, err := Compile([]string{`[invalid`}); err == nil {
		t.Fatal("expected error for invalid pattern")
	}

	patterns, err = Compile(nil)
	if err != nil || len(patterns) != 0 {
		t.Errorf("Compile(nil) = %d patterns, %v", len(patterns), err)
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		in       string
		want     string
	}{
		{"single", []string{`(?i)session=\w+`}, "cookie Session=abc123 set", "cookie [REDACTED] set"},
		{"multiple patterns", []string{`alice`, `bob`}, "alice follows bob", "[REDACTED] follows [REDACTED]"},
		{"repeated match", []string{`secret`}, "secret and secret", "[REDACTED] and [REDACTED]"},
		{"no match", []string{`token`}, "nothing here", "nothing here"},
		{"no patterns", nil, "unchanged", "unchanged"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patterns, err := Compile(tt.patterns)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			if got := Apply(tt.in, patterns); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScrub(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		secret string
	}{
		{
			name:   "graph url",
			in:     `Get "https://graph.facebook.com/v18.0/ig_hashtag_search?access_token=EAAG123&q=sunset": dial tcp: timeout`,
			want:   `access_token=[REDACTED]&q=sunset`,
			secret: "EAAG123",
		},
		{
			name:   "api key param",
			in:     "https://example.test/?api_key=k-42",
			want:   "api_key=[REDACTED]",
			secret: "k-42",
		},
		{
			name:   "rapidapi header",
			in:     "X-RapidAPI-Key: 9f8e7d",
			want:   "X-RapidAPI-Key: [REDACTED]",
			secret: "9f8e7d",
		},
		{
			name:   "bearer token",
			in:     "Authorization: Bearer abc.def",
			want:   "Authorization: Bearer [REDACTED]",
			secret: "abc.def",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scrub(tt.in)
			if !strings.Contains(got, tt.want) {
				t.Errorf("Scrub(%q) = %q, want containing %q", tt.in, got, tt.want)
			}
			if strings.Contains(got, tt.secret) {
				t.Errorf("secret %q leaked in %q", tt.secret, got)
			}
		})
	}

	if got := Scrub("no credentials here"); got != "no credentials here" {
		t.Errorf("Scrub changed clean text: %q", got)
	}
}
