package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type metricRepository struct {
	db *DB
}

func NewMetricRepository(db *DB) MetricRepository {
	return &metricRepository{db: db}
}

func (r *metricRepository) AppendSample(sample MetricSample) error {
	id := sample.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := r.db.Exec(`
		INSERT INTO metric_samples (id, content_id, like_count, comment_count, play_count, collected_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, sample.ContentID, sample.LikeCount, sample.CommentCount, sample.PlayCount, sample.CollectedAt)

	if err != nil {
		return fmt.Errorf("failed to append metric sample: %w", err)
	}

	return nil
}

func (r *metricRepository) GetSamples(contentID string) ([]MetricSample, error) {
	rows, err := r.db.Query(`
		SELECT id, content_id, like_count, comment_count, play_count, collected_at
		FROM metric_samples
		WHERE content_id = ?
		ORDER BY collected_at
	`, contentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get metric samples: %w", err)
	}
	defer rows.Close()

	var samples []MetricSample
	for rows.Next() {
		var s MetricSample
		err := rows.Scan(&s.ID, &s.ContentID, &s.LikeCount, &s.CommentCount, &s.PlayCount, &s.CollectedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metric sample row: %w", err)
		}
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metric sample rows: %w", err)
	}

	return samples, nil
}

func (r *metricRepository) GetSampleBounds(contentID string) (*MetricSample, *MetricSample, error) {
	first, err := r.getSampleAtBound(contentID, "ASC")
	if err != nil {
		return nil, nil, err
	}
	latest, err := r.getSampleAtBound(contentID, "DESC")
	if err != nil {
		return nil, nil, err
	}
	return first, latest, nil
}

func (r *metricRepository) getSampleAtBound(contentID, direction string) (*MetricSample, error) {
	var s MetricSample
	err := r.db.QueryRow(`
		SELECT id, content_id, like_count, comment_count, play_count, collected_at
		FROM metric_samples
		WHERE content_id = ?
		ORDER BY collected_at `+direction+`
		LIMIT 1
	`, contentID).Scan(&s.ID, &s.ContentID, &s.LikeCount, &s.CommentCount, &s.PlayCount, &s.CollectedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metric sample bound: %w", err)
	}

	return &s, nil
}
