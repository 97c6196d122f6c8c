package database

import (
	"time"
)

// Scan priority tiers for tracked accounts
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Registered content statuses. Review transitions (approved, revision_requested,
// rejected) are driven by the advertiser review flow; "deleted" is set only by
// the existence checker.
const (
	ContentStatusPending           = "pending"
	ContentStatusApproved          = "approved"
	ContentStatusRevisionRequested = "revision_requested"
	ContentStatusRejected          = "rejected"
	ContentStatusDeleted           = "deleted"
)

// Campaign content type requirements
const (
	ContentTypePhoto = "photo"
	ContentTypeVideo = "video"
	ContentTypeAny   = "any"
)

// Log kinds written to scan_logs
const (
	LogKindScan      = "scan"
	LogKindMetrics   = "metrics"
	LogKindExistence = "existence"
)

type TrackedAccount struct {
	ID              string
	PlatformUID     string // platform-specific user identifier
	Username        string
	ScanPriority    string
	LastCheckedAt   *time.Time
	LastKnownPostID int64 // watermark; 0 means no post seen yet

	// Profile snapshot, refreshed by the daily profile cycle
	FullName           string
	FollowerCount      int
	MediaCount         int
	ProfileRefreshedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Campaign is read-only to the pipeline; campaign lifecycle is owned by the
// campaign management surface.
type Campaign struct {
	ID               string
	Title            string
	RequiredHashtags []string
	RequiredMentions []string
	ContentType      string // photo, video or any
	StartAt          time.Time
	EndAt            time.Time
	Status           string
	CreatedAt        time.Time
}

type RegisteredContent struct {
	ID            string
	CampaignID    string
	AccountID     string
	PostID        int64
	PostURL       string
	PostType      string
	Status        string
	CoverageScore float64
	MatchDetail   string // JSON breakdown of the match evaluation
	PostedAt      time.Time
	SubmittedAt   time.Time
	SettledAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type MetricSample struct {
	ID           string
	ContentID    string
	LikeCount    int
	CommentCount int
	PlayCount    *int // videos only
	CollectedAt  time.Time
}

type ScanLog struct {
	ID            string
	Kind          string
	AccountID     *string
	ContentID     *string
	PostsExamined int
	NewPosts      int
	Matches       int
	Error         string
	ScannedAt     time.Time
}
