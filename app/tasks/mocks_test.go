package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/tagvine/postwatch/app/database"
	"github.com/tagvine/postwatch/app/notify"
	"github.com/tagvine/postwatch/app/social"
)

type mockPool struct {
	mu       sync.Mutex
	acquires int
	outcomes []social.Outcome
}

func (m *mockPool) Acquire(ctx context.Context) (social.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquires++
	return social.Credential{Username: "test_cred", Token: "test-token"}, nil
}

func (m *mockPool) Release(cred social.Credential, outcome social.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

type mockClient struct {
	fetchRecentPosts func(platformUID string, limit int) ([]social.Post, error)
	fetchPostDetail  func(postID int64) (*social.PostDetail, error)
	fetchProfile     func(platformUID string) (*social.Profile, error)
}

func (m *mockClient) FetchRecentPosts(ctx context.Context, cred social.Credential, platformUID string, limit int) ([]social.Post, error) {
	return m.fetchRecentPosts(platformUID, limit)
}

func (m *mockClient) FetchPostDetail(ctx context.Context, cred social.Credential, postID int64) (*social.PostDetail, error) {
	return m.fetchPostDetail(postID)
}

func (m *mockClient) FetchProfile(ctx context.Context, cred social.Credential, platformUID string) (*social.Profile, error) {
	return m.fetchProfile(platformUID)
}

type mockAccountRepo struct {
	database.AccountRepository

	lastCheckedCalls  []string
	watermarkAccount  string
	watermarkValue    int64
	profileUpdates    int
	updatedFullName   string
	updatedFollowers  int
	updatedMediaCount int
}

func (m *mockAccountRepo) UpdateLastChecked(accountID string, checkedAt time.Time) error {
	m.lastCheckedCalls = append(m.lastCheckedCalls, accountID)
	return nil
}

func (m *mockAccountRepo) AdvanceWatermark(accountID string, postID int64) error {
	m.watermarkAccount = accountID
	m.watermarkValue = postID
	return nil
}

func (m *mockAccountRepo) UpdateProfile(accountID, fullName string, followerCount, mediaCount int, refreshedAt time.Time) error {
	m.profileUpdates++
	m.updatedFullName = fullName
	m.updatedFollowers = followerCount
	m.updatedMediaCount = mediaCount
	return nil
}

type mockCampaignRepo struct {
	database.CampaignRepository

	candidates     []database.Campaign
	candidateCalls int
}

func (m *mockCampaignRepo) GetCandidateCampaigns(accountID string, now time.Time) ([]database.Campaign, error) {
	m.candidateCalls++
	return m.candidates, nil
}

type mockContentRepo struct {
	database.ContentRepository

	existing         map[int64]bool
	created          []database.RegisteredContent
	createErr        error
	markDeletedCalls int
	markDeletedWins  bool
}

func (m *mockContentRepo) ContentExists(campaignID string, postID int64) (bool, error) {
	return m.existing[postID], nil
}

func (m *mockContentRepo) CreateContent(content database.RegisteredContent) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.created = append(m.created, content)
	return "content-id-1", nil
}

func (m *mockContentRepo) MarkDeleted(contentID string) (bool, error) {
	m.markDeletedCalls++
	return m.markDeletedWins, nil
}

type mockMetricRepo struct {
	database.MetricRepository

	samples []database.MetricSample
}

func (m *mockMetricRepo) AppendSample(sample database.MetricSample) error {
	m.samples = append(m.samples, sample)
	return nil
}

type mockScanLogRepo struct {
	database.ScanLogRepository

	logs []database.ScanLog
}

func (m *mockScanLogRepo) Append(log database.ScanLog) error {
	m.logs = append(m.logs, log)
	return nil
}

type mockNotifier struct {
	events []notify.Event
}

func (m *mockNotifier) Notify(event notify.Event) {
	m.events = append(m.events, event)
}
