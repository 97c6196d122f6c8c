package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type campaignRepository struct {
	db *DB
}

func NewCampaignRepository(db *DB) CampaignRepository {
	return &campaignRepository{db: db}
}

const campaignColumns = `id, title, required_hashtags, required_mentions, content_type,
		start_at, end_at, status, created_at`

func scanCampaign(row interface{ Scan(...any) error }) (*Campaign, error) {
	var c Campaign
	var hashtags, mentions string
	err := row.Scan(
		&c.ID, &c.Title, &hashtags, &mentions, &c.ContentType,
		&c.StartAt, &c.EndAt, &c.Status, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Requirement sets are stored as JSON arrays in TEXT columns.
	if err := json.Unmarshal([]byte(hashtags), &c.RequiredHashtags); err != nil {
		return nil, fmt.Errorf("failed to decode required hashtags: %w", err)
	}
	if err := json.Unmarshal([]byte(mentions), &c.RequiredMentions); err != nil {
		return nil, fmt.Errorf("failed to decode required mentions: %w", err)
	}

	return &c, nil
}

func (r *campaignRepository) GetCampaign(campaignID string) (*Campaign, error) {
	campaign, err := scanCampaign(r.db.QueryRow(`
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE id = ?
	`, campaignID))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return campaign, nil
}

func (r *campaignRepository) GetActiveCampaignCount(now time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM campaigns WHERE status = 'active' AND end_at > ?
	`, now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get active campaign count: %w", err)
	}
	return count, nil
}

func (r *campaignRepository) GetCandidateCampaigns(accountID string, now time.Time) ([]Campaign, error) {
	rows, err := r.db.Query(`
		SELECT c.id, c.title, c.required_hashtags, c.required_mentions, c.content_type,
		       c.start_at, c.end_at, c.status, c.created_at
		FROM campaigns c
		JOIN campaign_participants p ON p.campaign_id = c.id AND p.account_id = ? AND p.is_selected = 1
		WHERE c.status = 'active'
		  AND c.end_at > ?
		  AND NOT EXISTS (
			SELECT 1 FROM registered_contents rc
			WHERE rc.campaign_id = c.id AND rc.account_id = ?
		  )
	`, accountID, now, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []Campaign
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign row: %w", err)
		}
		campaigns = append(campaigns, *campaign)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaign rows: %w", err)
	}

	return campaigns, nil
}

func (r *campaignRepository) GetSelectedParticipants(campaignID string) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT account_id FROM campaign_participants
		WHERE campaign_id = ? AND is_selected = 1
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign participants: %w", err)
	}
	defer rows.Close()

	var accountIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		accountIDs = append(accountIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}

	return accountIDs, nil
}
