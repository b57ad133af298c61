package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	graphSourceName    = "graph"
	graphBaseURL       = "https://graph.facebook.com"
	graphAPIVersion    = "v18.0"
	graphMediaFields   = "id,media_type,media_url,permalink,caption,timestamp,like_count,comments_count,owner"
	graphOwnerFields   = "username,profile_picture_url"
	graphOwnerWorkers  = 5
	graphUnknownUser   = "unknown_user"
	graphTimestampForm = "2006-01-02T15:04:05-0700"
)

// GraphConfig holds the credentials for the Instagram Graph API.
type GraphConfig struct {
	AccessToken string
	AccountID   string // business account id used as user_id
	BaseURL     string // defaults to https://graph.facebook.com
	APIVersion  string // defaults to v18.0
	Timeout     time.Duration
}

// GraphSource queries hashtag media through the Instagram Graph API.
type GraphSource struct {
	cfg    GraphConfig
	client *http.Client
}

// NewGraph creates a Graph API source. Both the access token and the account
// id are required.
func NewGraph(cfg GraphConfig) (*GraphSource, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, notConfigured(graphSourceName, "access token")
	}
	if strings.TrimSpace(cfg.AccountID) == "" {
		return nil, notConfigured(graphSourceName, "account id")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = graphBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = graphAPIVersion
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &GraphSource{cfg: cfg, client: newHTTPClient(cfg.Timeout)}, nil
}

func (g *GraphSource) Name() string {
	return graphSourceName
}

type graphError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

type graphHashtagSearch struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
	Error *graphError `json:"error"`
}

type graphMediaList struct {
	Data  []graphMedia `json:"data"`
	Error *graphError  `json:"error"`
}

type graphMedia struct {
	ID            string `json:"id"`
	MediaType     string `json:"media_type"`
	MediaURL      string `json:"media_url"`
	Permalink     string `json:"permalink"`
	Caption       string `json:"caption"`
	Timestamp     string `json:"timestamp"`
	LikeCount     int    `json:"like_count"`
	CommentsCount int    `json:"comments_count"`
	Owner         *struct {
		ID                string `json:"id"`
		Username          string `json:"username"`
		ProfilePictureURL string `json:"profile_picture_url"`
	} `json:"owner"`
}

type graphOwner struct {
	Username          string      `json:"username"`
	ProfilePictureURL string      `json:"profile_picture_url"`
	Error             *graphError `json:"error"`
}

func (g *GraphSource) FetchByHashtag(ctx context.Context, hashtag string) ([]Post, error) {
	hashtagID, err := g.resolveHashtag(ctx, hashtag)
	if err != nil {
		return nil, err
	}

	media, err := g.recentMedia(ctx, hashtagID)
	if err != nil {
		return nil, err
	}

	posts := make([]Post, len(media))
	for i, m := range media {
		posts[i] = postFromGraphMedia(m)
	}
	g.resolveOwners(ctx, media, posts)

	return posts, nil
}

func (g *GraphSource) endpoint(path string, q url.Values) string {
	q.Set("access_token", g.cfg.AccessToken)
	return fmt.Sprintf("%s/%s/%s?%s", g.cfg.BaseURL, g.cfg.APIVersion, path, q.Encode())
}

// get fetches a Graph endpoint into v and converts vendor error objects,
// including those sent with a non-2xx status, into *UpstreamError.
func (g *GraphSource) get(ctx context.Context, endpoint string, v interface{ vendorError() *graphError }) error {
	body, err := getBody(ctx, g.client, graphSourceName, endpoint, nil)
	var upErr *UpstreamError
	if err != nil && !(errors.As(err, &upErr) && upErr.StatusCode != 0) {
		return err
	}

	if decErr := decodeJSON(graphSourceName, body, v); decErr != nil {
		if err != nil {
			return err
		}
		return decErr
	}
	if ve := v.vendorError(); ve != nil {
		status := 0
		if upErr != nil {
			status = upErr.StatusCode
		}
		return &UpstreamError{Source: graphSourceName, StatusCode: status, Message: ve.Message}
	}
	return err
}

func (r *graphHashtagSearch) vendorError() *graphError { return r.Error }
func (r *graphMediaList) vendorError() *graphError     { return r.Error }
func (r *graphOwner) vendorError() *graphError         { return r.Error }

func (g *GraphSource) resolveHashtag(ctx context.Context, hashtag string) (string, error) {
	q := url.Values{}
	q.Set("user_id", g.cfg.AccountID)
	q.Set("q", hashtag)

	var res graphHashtagSearch
	if err := g.get(ctx, g.endpoint("ig_hashtag_search", q), &res); err != nil {
		return "", err
	}
	if len(res.Data) == 0 || res.Data[0].ID == "" {
		return "", &UpstreamError{Source: graphSourceName, Message: fmt.Sprintf("hashtag %q not found", hashtag)}
	}
	return res.Data[0].ID, nil
}

func (g *GraphSource) recentMedia(ctx context.Context, hashtagID string) ([]graphMedia, error) {
	q := url.Values{}
	q.Set("user_id", g.cfg.AccountID)
	q.Set("fields", graphMediaFields)

	var res graphMediaList
	if err := g.get(ctx, g.endpoint(url.PathEscape(hashtagID)+"/recent_media", q), &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// resolveOwners fills username and avatar for posts whose owner was not
// inlined. Lookup failures leave the defaults in place.
func (g *GraphSource) resolveOwners(ctx context.Context, media []graphMedia, posts []Post) {
	jobs := make(chan int, len(media))
	for i, m := range media {
		if m.Owner == nil || m.Owner.ID == "" || m.Owner.Username != "" {
			continue
		}
		jobs <- i
	}
	close(jobs)

	workers := graphOwnerWorkers
	if len(jobs) < workers {
		workers = len(jobs)
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				owner, err := g.owner(ctx, media[i].Owner.ID)
				if err != nil {
					continue
				}
				if owner.Username != "" {
					posts[i].Username = owner.Username
				}
				posts[i].UserAvatar = owner.ProfilePictureURL
			}
		}()
	}
	wg.Wait()
}

func (g *GraphSource) owner(ctx context.Context, ownerID string) (*graphOwner, error) {
	q := url.Values{}
	q.Set("fields", graphOwnerFields)

	var res graphOwner
	if err := g.get(ctx, g.endpoint(url.PathEscape(ownerID), q), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func postFromGraphMedia(m graphMedia) Post {
	p := Post{
		ID:       m.ID,
		URL:      m.Permalink,
		Caption:  m.Caption,
		ImageURL: m.MediaURL,
		Username: graphUnknownUser,
		Likes:    nonNegative(m.LikeCount),
		Comments: nonNegative(m.CommentsCount),
		Hashtags: ExtractHashtags(m.Caption),
	}
	if m.Owner != nil && m.Owner.Username != "" {
		p.Username = m.Owner.Username
		p.UserAvatar = m.Owner.ProfilePictureURL
	}
	p.Timestamp = parseGraphTime(m.Timestamp)
	return p
}

// parseGraphTime accepts the Graph API's "+0000" offsets as well as RFC 3339.
func parseGraphTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(graphTimestampForm, s); err == nil {
		return ts.UTC()
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC()
	}
	return time.Time{}
}
