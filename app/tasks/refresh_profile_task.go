package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tagvine/postwatch/app/database"
	"github.com/tagvine/postwatch/app/social"
)

// RefreshProfileTask updates the stored profile snapshot for a tracked
// account; runs once per account on the daily profile cycle.
type RefreshProfileTask struct {
	Task
	account     database.TrackedAccount
	pool        AccessPool
	client      social.Client
	accountRepo database.AccountRepository
	timeout     time.Duration
}

func NewRefreshProfileTask(account database.TrackedAccount, pool AccessPool, client social.Client,
	accountRepo database.AccountRepository, timeout time.Duration) *RefreshProfileTask {
	return &RefreshProfileTask{
		Task:        NewTask(TaskTypeRefreshProfile, account.Username),
		account:     account,
		pool:        pool,
		client:      client,
		accountRepo: accountRepo,
		timeout:     timeout,
	}
}

func (t *RefreshProfileTask) Execute(ctx context.Context) error {

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
	profile, err := t.client.FetchProfile(fetchCtx, cred, t.account.PlatformUID)
	cancel()

	t.pool.Release(cred, outcomeFor(err))

	if err != nil {
		return fmt.Errorf("failed to fetch profile for %s: %w", t.account.Username, err)
	}

	err = t.accountRepo.UpdateProfile(t.account.ID, profile.FullName,
		profile.FollowerCount, profile.MediaCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	slog.Info("Task completed",
		"type", "RefreshProfile",
		"account", t.account.Username,
		"duration", t.GetDuration(),
		"followers", profile.FollowerCount)

	return nil
}
