package social

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy for platform calls. ErrNotFound is definitive; everything
// else is retryable.
var (
	ErrNotFound      = errors.New("post not found")
	ErrRateLimited   = errors.New("rate limited by platform")
	ErrPoolExhausted = errors.New("access pool exhausted")
	ErrNoCredentials = errors.New("no credentials configured")
)

// Post media types as reported by the platform gateway
const (
	MediaTypePhoto = "photo"
	MediaTypeVideo = "video"
	MediaTypeAlbum = "album"
)

type Post struct {
	ID           int64 // monotonically increasing per account
	Code         string
	URL          string
	Caption      string
	MediaType    string
	TakenAt      time.Time
	LikeCount    int
	CommentCount int
	PlayCount    *int // videos only
}

type PostDetail struct {
	ID           int64
	LikeCount    int
	CommentCount int
	PlayCount    *int
}

type Profile struct {
	PlatformUID   string
	Username      string
	FullName      string
	FollowerCount int
	MediaCount    int
}

type Credential struct {
	Username string `yaml:"username"`
	Token    string `yaml:"token"`
	Proxy    string `yaml:"proxy"`
}

// Client is the platform access abstraction. The wire format behind it is a
// gateway detail; the pipeline only relies on these three capabilities.
type Client interface {
	FetchRecentPosts(ctx context.Context, cred Credential, platformUID string, limit int) ([]Post, error)
	FetchPostDetail(ctx context.Context, cred Credential, postID int64) (*PostDetail, error)
	FetchProfile(ctx context.Context, cred Credential, platformUID string) (*Profile, error)
}
