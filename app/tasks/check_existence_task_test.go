package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tagvine/postwatch/app/database"
	"github.com/tagvine/postwatch/app/notify"
	"github.com/tagvine/postwatch/app/social"
)

func approvedContent() database.RegisteredContent {
	return database.RegisteredContent{
		ID:         "content-1",
		CampaignID: "camp-1",
		AccountID:  "acc-1",
		PostID:     1001,
		Status:     database.ContentStatusApproved,
	}
}

func TestCheckExistenceTask_ConfirmsExistingPost(t *testing.T) {
	pool := &mockPool{}
	contentRepo := &mockContentRepo{}
	scanLogRepo := &mockScanLogRepo{}
	notifier := &mockNotifier{}

	client := &mockClient{
		fetchPostDetail: func(postID int64) (*social.PostDetail, error) {
			return &social.PostDetail{ID: postID, LikeCount: 10}, nil
		},
	}

	task := NewCheckExistenceTask(approvedContent(), pool, client, contentRepo, scanLogRepo, notifier, time.Second)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if contentRepo.markDeletedCalls != 0 {
		t.Error("Expected no deletion for an existing post")
	}
	if len(scanLogRepo.logs) != 1 || scanLogRepo.logs[0].Kind != database.LogKindExistence {
		t.Errorf("Expected one existence log, got %+v", scanLogRepo.logs)
	}
	if len(notifier.events) != 0 {
		t.Errorf("Expected no events, got %d", len(notifier.events))
	}
}

func TestCheckExistenceTask_MissingPostMarksDeletedOnce(t *testing.T) {
	pool := &mockPool{}
	contentRepo := &mockContentRepo{markDeletedWins: true}
	scanLogRepo := &mockScanLogRepo{}
	notifier := &mockNotifier{}

	client := &mockClient{
		fetchPostDetail: func(postID int64) (*social.PostDetail, error) {
			return nil, social.ErrNotFound
		},
	}

	task := NewCheckExistenceTask(approvedContent(), pool, client, contentRepo, scanLogRepo, notifier, time.Second)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if contentRepo.markDeletedCalls != 1 {
		t.Fatalf("Expected one MarkDeleted call, got %d", contentRepo.markDeletedCalls)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("Expected one deletion event, got %d", len(notifier.events))
	}
	if _, ok := notifier.events[0].(notify.ContentDeleted); !ok {
		t.Errorf("Expected ContentDeleted event, got %T", notifier.events[0])
	}
}

func TestCheckExistenceTask_LoserEmitsNoEvent(t *testing.T) {
	pool := &mockPool{}
	// The guarded update reports another check already made the transition
	contentRepo := &mockContentRepo{markDeletedWins: false}
	scanLogRepo := &mockScanLogRepo{}
	notifier := &mockNotifier{}

	client := &mockClient{
		fetchPostDetail: func(postID int64) (*social.PostDetail, error) {
			return nil, social.ErrNotFound
		},
	}

	task := NewCheckExistenceTask(approvedContent(), pool, client, contentRepo, scanLogRepo, notifier, time.Second)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(notifier.events) != 0 {
		t.Errorf("Expected no event when the transition already happened, got %d", len(notifier.events))
	}
}

func TestCheckExistenceTask_TransientErrorIsNotDeletion(t *testing.T) {
	pool := &mockPool{}
	contentRepo := &mockContentRepo{markDeletedWins: true}
	scanLogRepo := &mockScanLogRepo{}
	notifier := &mockNotifier{}

	client := &mockClient{
		fetchPostDetail: func(postID int64) (*social.PostDetail, error) {
			return nil, errors.New("gateway timeout")
		},
	}

	task := NewCheckExistenceTask(approvedContent(), pool, client, contentRepo, scanLogRepo, notifier, time.Second)

	err := task.Execute(context.Background())

	if err == nil {
		t.Fatal("Expected error from transient failure")
	}
	if contentRepo.markDeletedCalls != 0 {
		t.Error("Expected no deletion on a transient error")
	}
	if len(notifier.events) != 0 {
		t.Errorf("Expected no events, got %d", len(notifier.events))
	}
}
