package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// httpClient talks to the internal platform gateway, which fronts the actual
// social platform sessions. One HTTP call here corresponds to one platform
// call, which is why every request carries a pool credential.
type httpClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, userAgent string, timeout time.Duration) Client {
	return &httpClient{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type wirePost struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	URL          string    `json:"url"`
	Caption      string    `json:"caption"`
	MediaType    string    `json:"media_type"`
	TakenAt      time.Time `json:"taken_at"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	PlayCount    *int      `json:"play_count"`
}

type wireProfile struct {
	PlatformUID   string `json:"platform_uid"`
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	FollowerCount int    `json:"follower_count"`
	MediaCount    int    `json:"media_count"`
}

func (c *httpClient) FetchRecentPosts(ctx context.Context, cred Credential, platformUID string, limit int) ([]Post, error) {
	url := fmt.Sprintf("%s/v1/users/%s/posts?limit=%d", c.baseURL, platformUID, limit)

	var wire struct {
		Posts []wirePost `json:"posts"`
	}
	if err := c.get(ctx, cred, url, &wire); err != nil {
		return nil, err
	}

	posts := make([]Post, len(wire.Posts))
	for i, wp := range wire.Posts {
		posts[i] = Post(wp)
	}
	return posts, nil
}

func (c *httpClient) FetchPostDetail(ctx context.Context, cred Credential, postID int64) (*PostDetail, error) {
	url := fmt.Sprintf("%s/v1/posts/%s", c.baseURL, strconv.FormatInt(postID, 10))

	var wire wirePost
	if err := c.get(ctx, cred, url, &wire); err != nil {
		return nil, err
	}

	return &PostDetail{
		ID:           wire.ID,
		LikeCount:    wire.LikeCount,
		CommentCount: wire.CommentCount,
		PlayCount:    wire.PlayCount,
	}, nil
}

func (c *httpClient) FetchProfile(ctx context.Context, cred Credential, platformUID string) (*Profile, error) {
	url := fmt.Sprintf("%s/v1/users/%s", c.baseURL, platformUID)

	var wire wireProfile
	if err := c.get(ctx, cred, url, &wire); err != nil {
		return nil, err
	}

	profile := Profile(wire)
	return &profile, nil
}

func (c *httpClient) get(ctx context.Context, cred Credential, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("X-Session-Account", cred.Username)
	if cred.Proxy != "" {
		req.Header.Set("X-Session-Proxy", cred.Proxy)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("gateway error: %d %s", resp.StatusCode, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return nil
}
