package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tagvine/postwatch/app/database"
	"github.com/tagvine/postwatch/app/social"
)

// CollectMetricsTask appends one engagement sample for a registered content.
// A missing post is not acted on here: existence handling belongs to
// CheckExistenceTask, this task only skips the sample and leaves a note.
type CollectMetricsTask struct {
	Task
	content     database.RegisteredContent
	pool        AccessPool
	client      social.Client
	metricRepo  database.MetricRepository
	scanLogRepo database.ScanLogRepository
	timeout     time.Duration
}

func NewCollectMetricsTask(content database.RegisteredContent, pool AccessPool, client social.Client,
	metricRepo database.MetricRepository, scanLogRepo database.ScanLogRepository,
	timeout time.Duration) *CollectMetricsTask {
	return &CollectMetricsTask{
		Task:        NewTask(TaskTypeCollectMetrics, content.ID),
		content:     content,
		pool:        pool,
		client:      client,
		metricRepo:  metricRepo,
		scanLogRepo: scanLogRepo,
		timeout:     timeout,
	}
}

func (t *CollectMetricsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	cred, err := t.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire credential: %w", err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, t.timeout)
	detail, err := t.client.FetchPostDetail(fetchCtx, cred, t.content.PostID)
	cancel()

	t.pool.Release(cred, outcomeFor(err))

	if err != nil {
		if errors.Is(err, social.ErrNotFound) {
			contentID := t.content.ID
			if logErr := t.scanLogRepo.Append(database.ScanLog{
				Kind:      database.LogKindMetrics,
				ContentID: &contentID,
				Error:     "post not found, sample skipped",
				ScannedAt: time.Now().UTC(),
			}); logErr != nil {
				slog.Error("Failed to append metrics log", "content_id", t.content.ID, "error", logErr)
			}
			slog.Debug("Post missing during metrics collection, skipping sample", "content_id", t.content.ID)
			return nil
		}
		return fmt.Errorf("failed to fetch post detail for content %s: %w", t.content.ID, err)
	}

	now := time.Now().UTC()
	if err := t.metricRepo.AppendSample(database.MetricSample{
		ContentID:    t.content.ID,
		LikeCount:    detail.LikeCount,
		CommentCount: detail.CommentCount,
		PlayCount:    detail.PlayCount,
		CollectedAt:  now,
	}); err != nil {
		return fmt.Errorf("failed to append metric sample: %w", err)
	}

	contentID := t.content.ID
	if err := t.scanLogRepo.Append(database.ScanLog{
		Kind:      database.LogKindMetrics,
		ContentID: &contentID,
		ScannedAt: now,
	}); err != nil {
		return fmt.Errorf("failed to append metrics log: %w", err)
	}

	slog.Info("Task completed",
		"type", "CollectMetrics",
		"content_id", t.content.ID,
		"duration", t.GetDuration(),
		"likes", detail.LikeCount,
		"comments", detail.CommentCount)

	return nil
}
