package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	rapidAPISourceName  = "rapidapi"
	DefaultRapidAPIHost = "instagram-scraper-api2.p.rapidapi.com"
	instagramPostURL    = "https://instagram.com/p/"
)

// RapidAPISource queries a commercial Instagram scraping API on RapidAPI.
type RapidAPISource struct {
	apiKey  string
	host    string
	baseURL string
	client  *http.Client
}

// NewRapidAPI creates a third-party scraper source. apiKey is required; host
// defaults to DefaultRapidAPIHost.
func NewRapidAPI(apiKey, host string, timeout time.Duration) (*RapidAPISource, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, notConfigured(rapidAPISourceName, "api key")
	}
	if host == "" {
		host = DefaultRapidAPIHost
	}
	return &RapidAPISource{
		apiKey:  apiKey,
		host:    host,
		baseURL: "https://" + host,
		client:  newHTTPClient(timeout),
	}, nil
}

func (r *RapidAPISource) Name() string {
	return rapidAPISourceName
}

type rapidAPIResponse struct {
	Data *struct {
		Recent json.RawMessage `json:"recent"`
	} `json:"data"`
}

type rapidAPIItem struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Caption *struct {
		Text string `json:"text"`
	} `json:"caption"`
	DisplayURL   string `json:"display_url"`
	ThumbnailSrc string `json:"thumbnail_src"`
	Owner        *struct {
		Username      string `json:"username"`
		ProfilePicURL string `json:"profile_pic_url"`
	} `json:"owner"`
	EdgeLikedBy struct {
		Count int `json:"count"`
	} `json:"edge_liked_by"`
	EdgeMediaToComment struct {
		Count int `json:"count"`
	} `json:"edge_media_to_comment"`
	TakenAtTimestamp int64 `json:"taken_at_timestamp"`
}

func (r *RapidAPISource) FetchByHashtag(ctx context.Context, hashtag string) ([]Post, error) {
	endpoint := fmt.Sprintf("%s/v1/hashtag?hashtag=%s", r.baseURL, url.QueryEscape(hashtag))
	header := http.Header{
		"X-RapidAPI-Key":  []string{r.apiKey},
		"X-RapidAPI-Host": []string{r.host},
	}

	body, err := getBody(ctx, r.client, rapidAPISourceName, endpoint, header)
	if err != nil {
		return nil, err
	}

	var res rapidAPIResponse
	if err := decodeJSON(rapidAPISourceName, body, &res); err != nil {
		return nil, err
	}
	if res.Data == nil || len(res.Data.Recent) == 0 || res.Data.Recent[0] != '[' {
		return nil, &UpstreamError{Source: rapidAPISourceName, Message: "malformed payload: data.recent is not a list"}
	}

	var items []rapidAPIItem
	if err := decodeJSON(rapidAPISourceName, res.Data.Recent, &items); err != nil {
		return nil, err
	}

	posts := make([]Post, 0, len(items))
	for i, item := range items {
		posts = append(posts, postFromRapidAPI(item, i))
	}
	return posts, nil
}

func postFromRapidAPI(item rapidAPIItem, index int) Post {
	id := item.ID
	if id == "" {
		id = item.Code
	}
	if id == "" {
		id = rapidAPISourceName + "-" + strconv.Itoa(index)
	}

	var caption string
	if item.Caption != nil {
		caption = item.Caption.Text
	}

	image := item.DisplayURL
	if image == "" {
		image = item.ThumbnailSrc
	}

	username := "unknown"
	var avatar string
	if item.Owner != nil {
		if item.Owner.Username != "" {
			username = item.Owner.Username
		}
		avatar = item.Owner.ProfilePicURL
	}

	var link string
	if item.Code != "" {
		link = instagramPostURL + item.Code
	}

	var ts time.Time
	if item.TakenAtTimestamp > 0 {
		ts = time.Unix(item.TakenAtTimestamp, 0).UTC()
	}

	return Post{
		ID:         id,
		URL:        link,
		Caption:    caption,
		ImageURL:   image,
		Username:   username,
		UserAvatar: avatar,
		Likes:      nonNegative(item.EdgeLikedBy.Count),
		Comments:   nonNegative(item.EdgeMediaToComment.Count),
		Timestamp:  ts,
		Hashtags:   ExtractHashtags(caption),
	}
}
