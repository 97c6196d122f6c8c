package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tagvine/postwatch/app/database"
	"github.com/tagvine/postwatch/app/matching"
	"github.com/tagvine/postwatch/app/notify"
	"github.com/tagvine/postwatch/app/social"
)

// MatchPostsTask evaluates freshly fetched posts against the account's
// candidate campaigns, registers matches, advances the watermark and writes
// the scan log. It runs on the local worker pool; no platform calls happen
// here.
type MatchPostsTask struct {
	Task
	account      database.TrackedAccount
	fetched      []social.Post
	matcher      *matching.Matcher
	accountRepo  database.AccountRepository
	campaignRepo database.CampaignRepository
	contentRepo  database.ContentRepository
	scanLogRepo  database.ScanLogRepository
	notifier     notify.Notifier
}

func NewMatchPostsTask(account database.TrackedAccount, fetched []social.Post, matcher *matching.Matcher,
	accountRepo database.AccountRepository, campaignRepo database.CampaignRepository,
	contentRepo database.ContentRepository, scanLogRepo database.ScanLogRepository,
	notifier notify.Notifier) *MatchPostsTask {
	return &MatchPostsTask{
		Task:         NewTask(TaskTypeMatchPosts, account.Username),
		account:      account,
		fetched:      fetched,
		matcher:      matcher,
		accountRepo:  accountRepo,
		campaignRepo: campaignRepo,
		contentRepo:  contentRepo,
		scanLogRepo:  scanLogRepo,
		notifier:     notifier,
	}
}

func (t *MatchPostsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Posts strictly above the watermark are new; the watermark itself
	// advances over every fetched post so noise posts are not re-examined.
	var fresh []social.Post
	var maxPostID int64
	for _, post := range t.fetched {
		if post.ID > maxPostID {
			maxPostID = post.ID
		}
		if post.ID > t.account.LastKnownPostID {
			fresh = append(fresh, post)
		}
	}

	matches := 0
	if len(fresh) > 0 {
		candidates, err := t.campaignRepo.GetCandidateCampaigns(t.account.ID, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to get candidate campaigns: %w", err)
		}

		for _, campaign := range candidates {
			registered, err := t.matchCampaign(campaign, fresh)
			if err != nil {
				return err
			}
			if registered {
				matches++
			}
		}
	}

	if maxPostID > t.account.LastKnownPostID {
		if err := t.accountRepo.AdvanceWatermark(t.account.ID, maxPostID); err != nil {
			return fmt.Errorf("failed to advance watermark: %w", err)
		}
	}

	accountID := t.account.ID
	if err := t.scanLogRepo.Append(database.ScanLog{
		Kind:          database.LogKindScan,
		AccountID:     &accountID,
		PostsExamined: len(t.fetched),
		NewPosts:      len(fresh),
		Matches:       matches,
		ScannedAt:     time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("failed to append scan log: %w", err)
	}

	slog.Info("Task completed",
		"type", "MatchPosts",
		"account", t.account.Username,
		"duration", t.GetDuration(),
		"examined", len(t.fetched),
		"new", len(fresh),
		"matches", matches)

	return nil
}

// matchCampaign registers at most one post per campaign; an account submits
// a single content per campaign.
func (t *MatchPostsTask) matchCampaign(campaign database.Campaign, fresh []social.Post) (bool, error) {
	for _, post := range fresh {
		eval := t.matcher.Run(post, campaign)
		if !eval.Match {
			slog.Debug("Post did not match campaign",
				"account", t.account.Username,
				"campaign", campaign.Title,
				"post_id", post.ID,
				"coverage", eval.CoverageScore)
			continue
		}

		exists, err := t.contentRepo.ContentExists(campaign.ID, post.ID)
		if err != nil {
			return false, fmt.Errorf("failed to check existing content: %w", err)
		}
		if exists {
			// Already registered by an overlapping cycle; skip silently.
			continue
		}

		detail, err := json.Marshal(eval)
		if err != nil {
			return false, fmt.Errorf("failed to encode match detail: %w", err)
		}

		contentID, err := t.contentRepo.CreateContent(database.RegisteredContent{
			CampaignID:    campaign.ID,
			AccountID:     t.account.ID,
			PostID:        post.ID,
			PostURL:       post.URL,
			PostType:      post.MediaType,
			Status:        database.ContentStatusPending,
			CoverageScore: eval.CoverageScore,
			MatchDetail:   string(detail),
			PostedAt:      post.TakenAt,
			SubmittedAt:   time.Now().UTC(),
		})
		if err != nil {
			// A concurrent duplicate registration loses to the unique
			// constraint; discard quietly, the winner already registered.
			if isUniqueViolation(err) {
				slog.Debug("Duplicate registration discarded",
					"campaign", campaign.Title, "post_id", post.ID)
				continue
			}
			return false, fmt.Errorf("failed to register content: %w", err)
		}

		t.notifier.Notify(notify.NewContentMatched(campaign.ID, t.account.ID, post.ID, contentID))

		slog.Info("Content matched and registered",
			"campaign", campaign.Title,
			"account", t.account.Username,
			"post_id", post.ID,
			"content_id", contentID,
			"coverage", eval.CoverageScore)

		return true, nil
	}

	return false, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
