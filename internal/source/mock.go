package source

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"time"
)

const (
	mockSourceName = "mock"
	mockImageBase  = "https://images.pexels.com/photos"
)

var mockTemplates = []struct {
	user    string
	caption string
	ageHrs  int
}{
	{"sorteos_increibles", "Mega giveaway! Follow us and tag three friends to enter. #%s #giveaway #premio", 2},
	{"premios_diarios", "Don't miss this #%s special, prizes worth more than $500. Rules in our highlights. #premios #regalo", 4},
	{"concursos_mx", "Last day to join our #%s! Thanks for the support as always. #gracias", 6},
	{"express_sorteos", "#%s express: only 24 hours to enter. Like and comment! #24horas #facil", 8},
	{"comunidad_premios", "Celebrating 10K followers with a huge #%s. Thank you for being part of this community. #comunidad", 12},
	{"marcas_premium", "This #%s is different: collaborations with brands known worldwide. #colaboracion #marcas", 16},
}

var mockPhotos = []int{1721939, 264547, 1667088, 1029604, 1478685, 1616403, 1239291, 771742, 1043471, 733872, 1559486, 1674752}

// MockSource generates deterministic placeholder posts. It never fails and is
// meant as a last resort or for demos.
type MockSource struct {
	delay time.Duration
	now   func() time.Time
}

// MockOption configures a MockSource.
type MockOption func(*MockSource)

// WithMockDelay simulates network latency before returning.
func WithMockDelay(d time.Duration) MockOption {
	return func(m *MockSource) { m.delay = d }
}

// WithMockClock sets the clock used for post timestamps.
func WithMockClock(now func() time.Time) MockOption {
	return func(m *MockSource) { m.now = now }
}

// NewMock creates a synthetic source.
func NewMock(opts ...MockOption) *MockSource {
	m := &MockSource{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MockSource) Name() string {
	return mockSourceName
}

func (m *MockSource) Synthetic() bool {
	return true
}

func (m *MockSource) FetchByHashtag(ctx context.Context, hashtag string) ([]Post, error) {
	if m.delay > 0 {
		t := time.NewTimer(m.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return MockPosts(hashtag, m.now()), nil
}

// MockPosts returns the placeholder posts for hashtag relative to now. The
// same hashtag always yields the same ids, users and counts.
func MockPosts(hashtag string, now time.Time) []Post {
	h := fnv.New64a()
	_, _ = h.Write([]byte(hashtag))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	posts := make([]Post, 0, len(mockTemplates))
	for i, tpl := range mockTemplates {
		caption := fmt.Sprintf(tpl.caption, hashtag)
		photo := mockPhotos[(int(seed%uint64(len(mockPhotos)))+i)%len(mockPhotos)]
		avatar := mockPhotos[(int(seed%uint64(len(mockPhotos)))+i+len(mockTemplates))%len(mockPhotos)]
		id := fmt.Sprintf("mock-%x-%d", seed&0xffffff, i+1)

		posts = append(posts, Post{
			ID:         id,
			URL:        instagramPostURL + id,
			Caption:    caption,
			ImageURL:   fmt.Sprintf("%s/%d/pexels-photo-%d.jpeg?auto=compress&cs=tinysrgb&w=400", mockImageBase, photo, photo),
			Username:   tpl.user,
			UserAvatar: fmt.Sprintf("%s/%d/pexels-photo-%d.jpeg?auto=compress&cs=tinysrgb&w=100", mockImageBase, avatar, avatar),
			Likes:      500 + rng.IntN(4500),
			Comments:   100 + rng.IntN(1900),
			Timestamp:  now.Add(-time.Duration(tpl.ageHrs) * time.Hour).UTC(),
			Hashtags:   ExtractHashtags(caption),
		})
	}
	return posts
}
