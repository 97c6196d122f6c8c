package notify

import (
	"time"

	"github.com/google/uuid"
)

type Event interface {
	Kind() string
}

// ContentMatched is emitted once per newly registered content. Downstream
// delivery (advertiser notification, review queue) is owned by the consumer.
type ContentMatched struct {
	EventID             string    `json:"event_id"`
	CampaignID          string    `json:"campaign_id"`
	AccountID           string    `json:"account_id"`
	PostID              int64     `json:"post_id"`
	RegisteredContentID string    `json:"registered_content_id"`
	OccurredAt          time.Time `json:"occurred_at"`
}

func (ContentMatched) Kind() string { return "content_matched" }

// ContentDeleted is emitted exactly once when the existence checker detects a
// post was taken down. Settlement/refund handling is the consumer's job.
type ContentDeleted struct {
	EventID             string    `json:"event_id"`
	RegisteredContentID string    `json:"registered_content_id"`
	CampaignID          string    `json:"campaign_id"`
	OccurredAt          time.Time `json:"occurred_at"`
}

func (ContentDeleted) Kind() string { return "content_deleted" }

func NewContentMatched(campaignID, accountID string, postID int64, contentID string) ContentMatched {
	return ContentMatched{
		EventID:             uuid.NewString(),
		CampaignID:          campaignID,
		AccountID:           accountID,
		PostID:              postID,
		RegisteredContentID: contentID,
		OccurredAt:          time.Now().UTC(),
	}
}

func NewContentDeleted(contentID, campaignID string) ContentDeleted {
	return ContentDeleted{
		EventID:             uuid.NewString(),
		RegisteredContentID: contentID,
		CampaignID:          campaignID,
		OccurredAt:          time.Now().UTC(),
	}
}
