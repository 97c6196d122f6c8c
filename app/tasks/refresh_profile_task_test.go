package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/tagvine/postwatch/app/social"
)

func TestRefreshProfileTask_UpdatesSnapshot(t *testing.T) {
	account := testAccount()
	pool := &mockPool{}
	accountRepo := &mockAccountRepo{}

	client := &mockClient{
		fetchProfile: func(platformUID string) (*social.Profile, error) {
			return &social.Profile{
				PlatformUID:   platformUID,
				Username:      account.Username,
				FullName:      "Creator One",
				FollowerCount: 45000,
				MediaCount:    312,
			}, nil
		},
	}

	task := NewRefreshProfileTask(account, pool, client, accountRepo, time.Second)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if accountRepo.profileUpdates != 1 {
		t.Fatalf("Expected one profile update, got %d", accountRepo.profileUpdates)
	}
	if accountRepo.updatedFullName != "Creator One" {
		t.Errorf("Expected full name updated, got %q", accountRepo.updatedFullName)
	}
	if accountRepo.updatedFollowers != 45000 || accountRepo.updatedMediaCount != 312 {
		t.Errorf("Expected followers=45000 media=312, got followers=%d media=%d",
			accountRepo.updatedFollowers, accountRepo.updatedMediaCount)
	}
}
