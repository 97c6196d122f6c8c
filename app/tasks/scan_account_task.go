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

// ScanAccountTask fetches the most recent posts for one tracked account and
// hands any posts above the watermark to a MatchPostsTask on the local queue.
// It runs on the API worker pool because it spends a platform call.
type ScanAccountTask struct {
	Task
	account     database.TrackedAccount
	pool        AccessPool
	client      social.Client
	accountRepo database.AccountRepository
	scanLogRepo database.ScanLogRepository
	fetchLimit  int
	timeout     time.Duration
	handoff     func(account database.TrackedAccount, fetched []social.Post) error
}

func NewScanAccountTask(account database.TrackedAccount, pool AccessPool, client social.Client,
	accountRepo database.AccountRepository, scanLogRepo database.ScanLogRepository,
	fetchLimit int, timeout time.Duration,
	handoff func(account database.TrackedAccount, fetched []social.Post) error) *ScanAccountTask {
	return &ScanAccountTask{
		Task:        NewTask(TaskTypeScanAccount, account.Username),
		account:     account,
		pool:        pool,
		client:      client,
		accountRepo: accountRepo,
		scanLogRepo: scanLogRepo,
		fetchLimit:  fetchLimit,
		timeout:     timeout,
		handoff:     handoff,
	}
}

func (t *ScanAccountTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	cred, err := t.pool.Acquire(ctx)
	if err != nil {
		// Pool exhaustion past max wait abandons the unit of work for this
		// cycle; the scheduler's retry/backoff path picks it up.
		return fmt.Errorf("failed to acquire credential: %w", err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, t.timeout)
	posts, err := t.client.FetchRecentPosts(fetchCtx, cred, t.account.PlatformUID, t.fetchLimit)
	cancel()

	t.pool.Release(cred, outcomeFor(err))

	if err != nil {
		if errors.Is(err, social.ErrRateLimited) {
			return fmt.Errorf("scan rate limited for %s: %w", t.account.Username, err)
		}

		// Soft failure: the attempt still counts as a check, the watermark
		// stays untouched so the same posts are retried next cycle.
		now := time.Now().UTC()
		if updateErr := t.accountRepo.UpdateLastChecked(t.account.ID, now); updateErr != nil {
			slog.Error("Failed to update last checked time", "account", t.account.Username, "error", updateErr)
		}
		accountID := t.account.ID
		if logErr := t.scanLogRepo.Append(database.ScanLog{
			Kind:      database.LogKindScan,
			AccountID: &accountID,
			Error:     err.Error(),
			ScannedAt: now,
		}); logErr != nil {
			slog.Error("Failed to append scan log", "account", t.account.Username, "error", logErr)
		}

		return fmt.Errorf("failed to fetch posts for %s: %w", t.account.Username, err)
	}

	if err := t.accountRepo.UpdateLastChecked(t.account.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update last checked time: %w", err)
	}

	if err := t.handoff(t.account, posts); err != nil {
		return fmt.Errorf("failed to hand off fetched posts: %w", err)
	}

	slog.Debug("Account scan fetched",
		"account", t.account.Username,
		"posts", len(posts),
		"watermark", t.account.LastKnownPostID)

	return nil
}

func outcomeFor(err error) social.Outcome {
	switch {
	case err == nil:
		return social.OutcomeSuccess
	case errors.Is(err, social.ErrRateLimited):
		return social.OutcomeRateLimited
	case errors.Is(err, social.ErrNotFound):
		// A definitive not-found is a successful call as far as the
		// credential budget is concerned.
		return social.OutcomeSuccess
	default:
		return social.OutcomeError
	}
}
