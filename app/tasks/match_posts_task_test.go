package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/tagvine/postwatch/app/database"
	"github.com/tagvine/postwatch/app/matching"
	"github.com/tagvine/postwatch/app/notify"
	"github.com/tagvine/postwatch/app/social"
)

func testAccount() database.TrackedAccount {
	return database.TrackedAccount{
		ID:              "acc-1",
		PlatformUID:     "123456",
		Username:        "creator_one",
		ScanPriority:    database.PriorityHigh,
		LastKnownPostID: 1000,
	}
}

func openCampaign() database.Campaign {
	return database.Campaign{
		ID:               "camp-1",
		Title:            "Summer Launch",
		RequiredHashtags: []string{"#ad"},
		ContentType:      database.ContentTypeAny,
		StartAt:          time.Now().UTC().Add(-24 * time.Hour),
		EndAt:            time.Now().UTC().Add(24 * time.Hour),
		Status:           "active",
	}
}

func matchingPost(id int64) social.Post {
	return social.Post{
		ID:        id,
		Caption:   "new drop #ad",
		MediaType: social.MediaTypePhoto,
		TakenAt:   time.Now().UTC(),
	}
}

func TestMatchPostsTask_RegistersNewPostsAboveWatermark(t *testing.T) {
	account := testAccount()
	campaignRepo := &mockCampaignRepo{candidates: []database.Campaign{openCampaign()}}
	accountRepo := &mockAccountRepo{}
	contentRepo := &mockContentRepo{existing: map[int64]bool{}}
	scanLogRepo := &mockScanLogRepo{}
	notifier := &mockNotifier{}

	// Posts 998 and 999 are at or below the watermark; 1001 and 1002 are new,
	// but 1002 lacks the required hashtag
	noise := matchingPost(1002)
	noise.Caption = "just a regular post"

	fetched := []social.Post{
		matchingPost(998),
		matchingPost(999),
		matchingPost(1001),
		noise,
	}

	task := NewMatchPostsTask(account, fetched, matching.NewMatcher(),
		accountRepo, campaignRepo, contentRepo, scanLogRepo, notifier)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(contentRepo.created) != 1 {
		t.Fatalf("Expected 1 registered content, got %d", len(contentRepo.created))
	}
	if contentRepo.created[0].PostID != 1001 {
		t.Errorf("Expected the matching post registered, got post %d", contentRepo.created[0].PostID)
	}
	if contentRepo.created[0].Status != database.ContentStatusPending {
		t.Errorf("Expected pending status, got %s", contentRepo.created[0].Status)
	}

	// The watermark covers every fetched post, matching or not
	if accountRepo.watermarkValue != 1002 {
		t.Errorf("Expected watermark advanced to 1002, got %d", accountRepo.watermarkValue)
	}

	if len(notifier.events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(notifier.events))
	}
	if _, ok := notifier.events[0].(notify.ContentMatched); !ok {
		t.Errorf("Expected ContentMatched event, got %T", notifier.events[0])
	}

	if len(scanLogRepo.logs) != 1 {
		t.Fatalf("Expected 1 scan log, got %d", len(scanLogRepo.logs))
	}
	log := scanLogRepo.logs[0]
	if log.PostsExamined != 4 || log.NewPosts != 2 || log.Matches != 1 {
		t.Errorf("Expected examined=4 new=2 matches=1, got examined=%d new=%d matches=%d",
			log.PostsExamined, log.NewPosts, log.Matches)
	}
}

func TestMatchPostsTask_NoFreshPosts(t *testing.T) {
	account := testAccount()
	campaignRepo := &mockCampaignRepo{candidates: []database.Campaign{openCampaign()}}
	accountRepo := &mockAccountRepo{}
	contentRepo := &mockContentRepo{existing: map[int64]bool{}}
	scanLogRepo := &mockScanLogRepo{}
	notifier := &mockNotifier{}

	fetched := []social.Post{matchingPost(998), matchingPost(1000)}

	task := NewMatchPostsTask(account, fetched, matching.NewMatcher(),
		accountRepo, campaignRepo, contentRepo, scanLogRepo, notifier)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if campaignRepo.candidateCalls != 0 {
		t.Error("Expected no candidate lookup when nothing is above the watermark")
	}
	if len(contentRepo.created) != 0 {
		t.Errorf("Expected no registrations, got %d", len(contentRepo.created))
	}
	if accountRepo.watermarkValue != 0 {
		t.Errorf("Expected watermark untouched, got advance to %d", accountRepo.watermarkValue)
	}
	if len(scanLogRepo.logs) != 1 || scanLogRepo.logs[0].NewPosts != 0 {
		t.Errorf("Expected a scan log with zero new posts, got %+v", scanLogRepo.logs)
	}
}

func TestMatchPostsTask_RescanIsIdempotent(t *testing.T) {
	account := testAccount()
	campaignRepo := &mockCampaignRepo{candidates: []database.Campaign{openCampaign()}}
	accountRepo := &mockAccountRepo{}
	contentRepo := &mockContentRepo{existing: map[int64]bool{1001: true}}
	scanLogRepo := &mockScanLogRepo{}
	notifier := &mockNotifier{}

	fetched := []social.Post{matchingPost(1001)}

	task := NewMatchPostsTask(account, fetched, matching.NewMatcher(),
		accountRepo, campaignRepo, contentRepo, scanLogRepo, notifier)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(contentRepo.created) != 0 {
		t.Errorf("Expected no duplicate registration, got %d", len(contentRepo.created))
	}
	if len(notifier.events) != 0 {
		t.Errorf("Expected no events for an already registered post, got %d", len(notifier.events))
	}

	// The watermark still advances so the post is not re-examined
	if accountRepo.watermarkValue != 1001 {
		t.Errorf("Expected watermark advanced to 1001, got %d", accountRepo.watermarkValue)
	}
}

func TestMatchPostsTask_NonMatchingPostsAdvanceWatermark(t *testing.T) {
	account := testAccount()
	campaignRepo := &mockCampaignRepo{candidates: []database.Campaign{openCampaign()}}
	accountRepo := &mockAccountRepo{}
	contentRepo := &mockContentRepo{existing: map[int64]bool{}}
	scanLogRepo := &mockScanLogRepo{}
	notifier := &mockNotifier{}

	post := matchingPost(1050)
	post.Caption = "vacation photos, no tags"

	task := NewMatchPostsTask(account, []social.Post{post}, matching.NewMatcher(),
		accountRepo, campaignRepo, contentRepo, scanLogRepo, notifier)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(contentRepo.created) != 0 {
		t.Errorf("Expected no registrations, got %d", len(contentRepo.created))
	}
	if accountRepo.watermarkValue != 1050 {
		t.Errorf("Expected watermark advanced past the noise post, got %d", accountRepo.watermarkValue)
	}
}

func TestMatchPostsTask_OnePostCanServeMultipleCampaigns(t *testing.T) {
	account := testAccount()

	second := openCampaign()
	second.ID = "camp-2"
	second.Title = "Autumn Launch"

	campaignRepo := &mockCampaignRepo{candidates: []database.Campaign{openCampaign(), second}}
	accountRepo := &mockAccountRepo{}
	contentRepo := &mockContentRepo{existing: map[int64]bool{}}
	scanLogRepo := &mockScanLogRepo{}
	notifier := &mockNotifier{}

	task := NewMatchPostsTask(account, []social.Post{matchingPost(1001)}, matching.NewMatcher(),
		accountRepo, campaignRepo, contentRepo, scanLogRepo, notifier)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(contentRepo.created) != 2 {
		t.Fatalf("Expected a registration per campaign, got %d", len(contentRepo.created))
	}
	if contentRepo.created[0].CampaignID == contentRepo.created[1].CampaignID {
		t.Error("Expected registrations for distinct campaigns")
	}
}
