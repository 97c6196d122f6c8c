package database

import (
	"fmt"

	"github.com/google/uuid"
)

type scanLogRepository struct {
	db *DB
}

func NewScanLogRepository(db *DB) ScanLogRepository {
	return &scanLogRepository{db: db}
}

func (r *scanLogRepository) Append(log ScanLog) error {
	id := log.ID
	if id == "" {
		id = uuid.NewString()
	}

	var errText any
	if log.Error != "" {
		errText = log.Error
	}

	_, err := r.db.Exec(`
		INSERT INTO scan_logs (id, kind, account_id, content_id, posts_examined, new_posts, matches, error, scanned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, log.Kind, log.AccountID, log.ContentID, log.PostsExamined, log.NewPosts, log.Matches, errText, log.ScannedAt)

	if err != nil {
		return fmt.Errorf("failed to append scan log: %w", err)
	}

	return nil
}

func (r *scanLogRepository) GetRecentForAccount(accountID string, limit int) ([]ScanLog, error) {
	rows, err := r.db.Query(`
		SELECT id, kind, account_id, content_id, posts_examined, new_posts, matches, COALESCE(error, ''), scanned_at
		FROM scan_logs
		WHERE account_id = ?
		ORDER BY scanned_at DESC
		LIMIT ?
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan logs: %w", err)
	}
	defer rows.Close()

	var logs []ScanLog
	for rows.Next() {
		var l ScanLog
		err := rows.Scan(&l.ID, &l.Kind, &l.AccountID, &l.ContentID, &l.PostsExamined, &l.NewPosts, &l.Matches, &l.Error, &l.ScannedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating log rows: %w", err)
	}

	return logs, nil
}
