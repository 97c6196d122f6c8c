package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tagvine/postwatch/app/database"
	"github.com/tagvine/postwatch/app/notify"
	"github.com/tagvine/postwatch/app/social"
)

// CheckExistenceTask verifies a registered post is still up. It is the sole
// writer of the deleted status; the guarded repository update keeps the
// transition (and its event) single-shot even with overlapping checks.
type CheckExistenceTask struct {
	Task
	content     database.RegisteredContent
	pool        AccessPool
	client      social.Client
	contentRepo database.ContentRepository
	scanLogRepo database.ScanLogRepository
	notifier    notify.Notifier
	timeout     time.Duration
}

func NewCheckExistenceTask(content database.RegisteredContent, pool AccessPool, client social.Client,
	contentRepo database.ContentRepository, scanLogRepo database.ScanLogRepository,
	notifier notify.Notifier, timeout time.Duration) *CheckExistenceTask {
	return &CheckExistenceTask{
		Task:        NewTask(TaskTypeCheckExistence, content.ID),
		content:     content,
		pool:        pool,
		client:      client,
		contentRepo: contentRepo,
		scanLogRepo: scanLogRepo,
		notifier:    notifier,
		timeout:     timeout,
	}
}

func (t *CheckExistenceTask) Execute(ctx context.Context) error {

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
	_, err = t.client.FetchPostDetail(fetchCtx, cred, t.content.PostID)
	cancel()

	t.pool.Release(cred, outcomeFor(err))

	if err != nil {
		if errors.Is(err, social.ErrNotFound) {
			return t.handleDeleted()
		}
		// Timeouts and transient errors are never treated as deletion.
		return fmt.Errorf("failed to verify content %s: %w", t.content.ID, err)
	}

	contentID := t.content.ID
	if err := t.scanLogRepo.Append(database.ScanLog{
		Kind:      database.LogKindExistence,
		ContentID: &contentID,
		ScannedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("failed to append existence log: %w", err)
	}

	slog.Debug("Content existence confirmed", "content_id", t.content.ID)

	return nil
}

func (t *CheckExistenceTask) handleDeleted() error {
	transitioned, err := t.contentRepo.MarkDeleted(t.content.ID)
	if err != nil {
		return fmt.Errorf("failed to mark content deleted: %w", err)
	}

	contentID := t.content.ID
	if logErr := t.scanLogRepo.Append(database.ScanLog{
		Kind:      database.LogKindExistence,
		ContentID: &contentID,
		Error:     "post no longer exists",
		ScannedAt: time.Now().UTC(),
	}); logErr != nil {
		slog.Error("Failed to append existence log", "content_id", t.content.ID, "error", logErr)
	}

	if !transitioned {
		// Another check already transitioned this content; the event was
		// emitted by the winner.
		slog.Debug("Content already marked deleted", "content_id", t.content.ID)
		return nil
	}

	t.notifier.Notify(notify.NewContentDeleted(t.content.ID, t.content.CampaignID))

	slog.Warn("Content deletion detected",
		"content_id", t.content.ID,
		"campaign_id", t.content.CampaignID,
		"previous_status", t.content.Status)

	return nil
}
