package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type accountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, platform_uid, username, scan_priority, last_checked_at,
		last_known_post_id, full_name, follower_count, media_count,
		profile_refreshed_at, created_at, updated_at`

func (r *accountRepository) scanAccount(row interface{ Scan(...any) error }) (*TrackedAccount, error) {
	var a TrackedAccount
	err := row.Scan(
		&a.ID, &a.PlatformUID, &a.Username, &a.ScanPriority, &a.LastCheckedAt,
		&a.LastKnownPostID, &a.FullName, &a.FollowerCount, &a.MediaCount,
		&a.ProfileRefreshedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) GetAccount(accountID string) (*TrackedAccount, error) {
	account, err := r.scanAccount(r.db.QueryRow(`
		SELECT `+accountColumns+`
		FROM tracked_accounts
		WHERE id = ?
	`, accountID))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

func (r *accountRepository) GetAccountByPlatformUID(platformUID string) (*TrackedAccount, error) {
	account, err := r.scanAccount(r.db.QueryRow(`
		SELECT `+accountColumns+`
		FROM tracked_accounts
		WHERE platform_uid = ?
	`, platformUID))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by platform uid: %w", err)
	}

	return account, nil
}

func (r *accountRepository) ListAccounts() ([]TrackedAccount, error) {
	rows, err := r.db.Query(`
		SELECT ` + accountColumns + `
		FROM tracked_accounts
		ORDER BY username
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	return r.collectAccounts(rows)
}

func (r *accountRepository) GetAccountCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM tracked_accounts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get account count: %w", err)
	}
	return count, nil
}

func (r *accountRepository) GetAccountsDueForScan(now time.Time, high, medium, low time.Duration) ([]TrackedAccount, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT a.id, a.platform_uid, a.username, a.scan_priority, a.last_checked_at,
		       a.last_known_post_id, a.full_name, a.follower_count, a.media_count,
		       a.profile_refreshed_at, a.created_at, a.updated_at
		FROM tracked_accounts a
		JOIN campaign_participants p ON p.account_id = a.id AND p.is_selected = 1
		JOIN campaigns c ON c.id = p.campaign_id AND c.status = 'active' AND c.end_at > ?
		WHERE a.last_checked_at IS NULL
		   OR (a.scan_priority = 'high' AND a.last_checked_at <= ?)
		   OR (a.scan_priority = 'medium' AND a.last_checked_at <= ?)
		   OR (a.scan_priority = 'low' AND a.last_checked_at <= ?)
	`, now, now.Add(-high), now.Add(-medium), now.Add(-low))
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts due for scan: %w", err)
	}
	defer rows.Close()

	return r.collectAccounts(rows)
}

func (r *accountRepository) GetAccountsWithOpenCampaigns(now time.Time) ([]TrackedAccount, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT a.id, a.platform_uid, a.username, a.scan_priority, a.last_checked_at,
		       a.last_known_post_id, a.full_name, a.follower_count, a.media_count,
		       a.profile_refreshed_at, a.created_at, a.updated_at
		FROM tracked_accounts a
		JOIN campaign_participants p ON p.account_id = a.id AND p.is_selected = 1
		JOIN campaigns c ON c.id = p.campaign_id AND c.status = 'active' AND c.end_at > ?
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts with open campaigns: %w", err)
	}
	defer rows.Close()

	return r.collectAccounts(rows)
}

func (r *accountRepository) collectAccounts(rows *sql.Rows) ([]TrackedAccount, error) {
	var accounts []TrackedAccount
	for rows.Next() {
		account, err := r.scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, *account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}

	return accounts, nil
}

func (r *accountRepository) UpsertAccount(platformUID, username, priority string) (string, error) {
	existing, err := r.GetAccountByPlatformUID(platformUID)
	if err != nil {
		return "", fmt.Errorf("failed to check existing account: %w", err)
	}

	now := time.Now().UTC()

	if existing != nil {
		_, err = r.db.Exec(`
			UPDATE tracked_accounts
			SET username = ?, scan_priority = ?, updated_at = ?
			WHERE id = ?
		`, username, priority, now, existing.ID)
		if err != nil {
			return "", fmt.Errorf("failed to update account: %w", err)
		}
		return existing.ID, nil
	}

	id := uuid.NewString()
	_, err = r.db.Exec(`
		INSERT INTO tracked_accounts (id, platform_uid, username, scan_priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, platformUID, username, priority, now, now)
	if err != nil {
		return "", fmt.Errorf("failed to insert account: %w", err)
	}

	return id, nil
}

func (r *accountRepository) UpdateLastChecked(accountID string, checkedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE tracked_accounts
		SET last_checked_at = ?, updated_at = ?
		WHERE id = ?
	`, checkedAt, time.Now().UTC(), accountID)

	if err != nil {
		return fmt.Errorf("failed to update last checked time: %w", err)
	}

	return nil
}

func (r *accountRepository) AdvanceWatermark(accountID string, postID int64) error {
	// The guard keeps the watermark monotonically non-decreasing even if scan
	// cycles complete out of order.
	_, err := r.db.Exec(`
		UPDATE tracked_accounts
		SET last_known_post_id = ?, updated_at = ?
		WHERE id = ? AND last_known_post_id < ?
	`, postID, time.Now().UTC(), accountID, postID)

	if err != nil {
		return fmt.Errorf("failed to advance watermark: %w", err)
	}

	return nil
}

func (r *accountRepository) UpdateProfile(accountID, fullName string, followerCount, mediaCount int, refreshedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE tracked_accounts
		SET full_name = ?, follower_count = ?, media_count = ?, profile_refreshed_at = ?, updated_at = ?
		WHERE id = ?
	`, fullName, followerCount, mediaCount, refreshedAt, time.Now().UTC(), accountID)

	if err != nil {
		return fmt.Errorf("failed to update account profile: %w", err)
	}

	return nil
}
