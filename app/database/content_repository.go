package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type contentRepository struct {
	db *DB
}

func NewContentRepository(db *DB) ContentRepository {
	return &contentRepository{db: db}
}

const contentColumns = `id, campaign_id, account_id, post_id, post_url, post_type, status,
		coverage_score, match_detail, posted_at, submitted_at, settled_at, created_at, updated_at`

func scanContent(row interface{ Scan(...any) error }) (*RegisteredContent, error) {
	var c RegisteredContent
	err := row.Scan(
		&c.ID, &c.CampaignID, &c.AccountID, &c.PostID, &c.PostURL, &c.PostType, &c.Status,
		&c.CoverageScore, &c.MatchDetail, &c.PostedAt, &c.SubmittedAt, &c.SettledAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contentRepository) GetContent(contentID string) (*RegisteredContent, error) {
	content, err := scanContent(r.db.QueryRow(`
		SELECT `+contentColumns+`
		FROM registered_contents
		WHERE id = ?
	`, contentID))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	return content, nil
}

func (r *contentRepository) GetContentCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM registered_contents").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get content count: %w", err)
	}
	return count, nil
}

func (r *contentRepository) ContentExists(campaignID string, postID int64) (bool, error) {
	var id string
	err := r.db.QueryRow(`
		SELECT id FROM registered_contents
		WHERE campaign_id = ? AND post_id = ?
		LIMIT 1
	`, campaignID, postID).Scan(&id)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check content existence: %w", err)
	}

	return true, nil
}

func (r *contentRepository) CreateContent(content RegisteredContent) (string, error) {
	id := content.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()

	// The UNIQUE(campaign_id, post_id) constraint backs the idempotence check;
	// a racing duplicate insert surfaces as a constraint error for the loser.
	_, err := r.db.Exec(`
		INSERT INTO registered_contents (
			id, campaign_id, account_id, post_id, post_url, post_type, status,
			coverage_score, match_detail, posted_at, submitted_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, content.CampaignID, content.AccountID, content.PostID, content.PostURL,
		content.PostType, content.Status, content.CoverageScore, content.MatchDetail,
		content.PostedAt, content.SubmittedAt, now, now)

	if err != nil {
		return "", fmt.Errorf("failed to create content: %w", err)
	}

	return id, nil
}

func (r *contentRepository) GetMonitorableContents() ([]RegisteredContent, error) {
	rows, err := r.db.Query(`
		SELECT ` + contentColumns + `
		FROM registered_contents
		WHERE status IN ('pending', 'approved', 'revision_requested')
		ORDER BY submitted_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get monitorable contents: %w", err)
	}
	defer rows.Close()

	return collectContents(rows)
}

func (r *contentRepository) GetUnsettledContents() ([]RegisteredContent, error) {
	rows, err := r.db.Query(`
		SELECT ` + contentColumns + `
		FROM registered_contents
		WHERE status NOT IN ('deleted', 'rejected')
		  AND settled_at IS NULL
		ORDER BY submitted_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get unsettled contents: %w", err)
	}
	defer rows.Close()

	return collectContents(rows)
}

func collectContents(rows *sql.Rows) ([]RegisteredContent, error) {
	var contents []RegisteredContent
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		contents = append(contents, *content)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content rows: %w", err)
	}

	return contents, nil
}

func (r *contentRepository) MarkDeleted(contentID string) (bool, error) {
	// Guarded so concurrent checkers transition a content at most once, and
	// settled contents stay immutable.
	result, err := r.db.Exec(`
		UPDATE registered_contents
		SET status = 'deleted', updated_at = ?
		WHERE id = ? AND status != 'deleted' AND settled_at IS NULL
	`, time.Now().UTC(), contentID)

	if err != nil {
		return false, fmt.Errorf("failed to mark content deleted: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}
