package database

import (
	"time"
)

type AccountRepository interface {
	GetAccount(accountID string) (*TrackedAccount, error)
	GetAccountByPlatformUID(platformUID string) (*TrackedAccount, error)
	ListAccounts() ([]TrackedAccount, error)
	GetAccountCount() (int, error)

	// GetAccountsDueForScan returns accounts participating in an open campaign
	// whose last check is older than their priority tier's interval.
	GetAccountsDueForScan(now time.Time, high, medium, low time.Duration) ([]TrackedAccount, error)
	GetAccountsWithOpenCampaigns(now time.Time) ([]TrackedAccount, error)

	UpsertAccount(platformUID, username, priority string) (string, error)
	UpdateLastChecked(accountID string, checkedAt time.Time) error

	// AdvanceWatermark raises last_known_post_id, never lowers it.
	AdvanceWatermark(accountID string, postID int64) error
	UpdateProfile(accountID, fullName string, followerCount, mediaCount int, refreshedAt time.Time) error
}

type CampaignRepository interface {
	GetCampaign(campaignID string) (*Campaign, error)
	GetActiveCampaignCount(now time.Time) (int, error)

	// GetCandidateCampaigns returns active campaigns the account is a selected
	// participant of and has no registered content for yet.
	GetCandidateCampaigns(accountID string, now time.Time) ([]Campaign, error)
	GetSelectedParticipants(campaignID string) ([]string, error)
}

type ContentRepository interface {
	GetContent(contentID string) (*RegisteredContent, error)
	GetContentCount() (int, error)
	ContentExists(campaignID string, postID int64) (bool, error)
	CreateContent(content RegisteredContent) (string, error)

	// GetMonitorableContents returns contents eligible for metrics collection.
	GetMonitorableContents() ([]RegisteredContent, error)
	// GetUnsettledContents returns contents eligible for existence checking.
	GetUnsettledContents() ([]RegisteredContent, error)

	// MarkDeleted transitions a content to deleted status; returns true only
	// for the caller that performed the transition.
	MarkDeleted(contentID string) (bool, error)
}

type MetricRepository interface {
	AppendSample(sample MetricSample) error
	GetSamples(contentID string) ([]MetricSample, error)
	GetSampleBounds(contentID string) (first *MetricSample, latest *MetricSample, err error)
}

type ScanLogRepository interface {
	Append(log ScanLog) error
	GetRecentForAccount(accountID string, limit int) ([]ScanLog, error)
}
