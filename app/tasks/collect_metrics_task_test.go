package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tagvine/postwatch/app/database"
	"github.com/tagvine/postwatch/app/social"
)

func TestCollectMetricsTask_AppendsSample(t *testing.T) {
	pool := &mockPool{}
	metricRepo := &mockMetricRepo{}
	scanLogRepo := &mockScanLogRepo{}

	plays := 500
	client := &mockClient{
		fetchPostDetail: func(postID int64) (*social.PostDetail, error) {
			return &social.PostDetail{ID: postID, LikeCount: 120, CommentCount: 8, PlayCount: &plays}, nil
		},
	}

	task := NewCollectMetricsTask(approvedContent(), pool, client, metricRepo, scanLogRepo, time.Second)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(metricRepo.samples) != 1 {
		t.Fatalf("Expected 1 sample, got %d", len(metricRepo.samples))
	}
	sample := metricRepo.samples[0]
	if sample.LikeCount != 120 || sample.CommentCount != 8 {
		t.Errorf("Expected likes=120 comments=8, got likes=%d comments=%d", sample.LikeCount, sample.CommentCount)
	}
	if sample.PlayCount == nil || *sample.PlayCount != 500 {
		t.Errorf("Expected play count 500, got %v", sample.PlayCount)
	}
	if len(scanLogRepo.logs) != 1 || scanLogRepo.logs[0].Kind != database.LogKindMetrics {
		t.Errorf("Expected one metrics log, got %+v", scanLogRepo.logs)
	}
}

func TestCollectMetricsTask_MissingPostSkipsSample(t *testing.T) {
	pool := &mockPool{}
	metricRepo := &mockMetricRepo{}
	scanLogRepo := &mockScanLogRepo{}

	client := &mockClient{
		fetchPostDetail: func(postID int64) (*social.PostDetail, error) {
			return nil, social.ErrNotFound
		},
	}

	task := NewCollectMetricsTask(approvedContent(), pool, client, metricRepo, scanLogRepo, time.Second)

	// A missing post is not an error here; deletion handling belongs to the
	// existence checker
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected nil error for a missing post, got %v", err)
	}

	if len(metricRepo.samples) != 0 {
		t.Errorf("Expected no samples, got %d", len(metricRepo.samples))
	}
	if len(scanLogRepo.logs) != 1 || scanLogRepo.logs[0].Error == "" {
		t.Errorf("Expected a skip note in the metrics log, got %+v", scanLogRepo.logs)
	}
}

func TestCollectMetricsTask_TransientErrorPropagates(t *testing.T) {
	pool := &mockPool{}
	metricRepo := &mockMetricRepo{}
	scanLogRepo := &mockScanLogRepo{}

	client := &mockClient{
		fetchPostDetail: func(postID int64) (*social.PostDetail, error) {
			return nil, errors.New("gateway timeout")
		},
	}

	task := NewCollectMetricsTask(approvedContent(), pool, client, metricRepo, scanLogRepo, time.Second)

	if err := task.Execute(context.Background()); err == nil {
		t.Fatal("Expected error from transient failure")
	}
	if len(metricRepo.samples) != 0 {
		t.Errorf("Expected no samples, got %d", len(metricRepo.samples))
	}
}
