package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/pillard/internal/correlation"
	"github.com/fyrsmithlabs/pillard/internal/metrics"
)

// SaveCorrelationBatch persists one engine run as a batch. Implements
// correlation.Store.
func (s *Store) SaveCorrelationBatch(ctx context.Context, userID, batchID string, batch []*correlation.Correlation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO correlations (
			id, user_id, batch_id, pillar_1, metric_1, pillar_2, metric_2,
			coefficient, p_value, sample_size, strength, direction,
			explanation, is_significant, discovered_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range batch {
		if _, err := stmt.ExecContext(ctx,
			c.ID, userID, batchID,
			string(c.Pillar1), c.Metric1, string(c.Pillar2), c.Metric2,
			c.Coefficient, c.PValue, c.SampleSize,
			string(c.Strength), string(c.Direction),
			c.Explanation, boolToInt(c.IsSignificant), c.DiscoveredAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert correlation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit correlation batch: %w", err)
	}
	return nil
}

// LatestCorrelations returns the user's most recent batch, restricted to
// correlations discovered within the trailing number of days. Implements
// correlation.Store.
func (s *Store) LatestCorrelations(ctx context.Context, userID string, days int) ([]*correlation.Correlation, error) {
	var batchID string
	err := s.db.QueryRowContext(ctx, `
		SELECT batch_id FROM correlations
		WHERE user_id = ?
		ORDER BY discovered_at DESC LIMIT 1`, userID).Scan(&batchID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest batch: %w", err)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, batch_id, pillar_1, metric_1, pillar_2, metric_2,
			coefficient, p_value, sample_size, strength, direction,
			explanation, is_significant, discovered_at
		FROM correlations
		WHERE user_id = ? AND batch_id = ? AND discovered_at >= ?
		ORDER BY ABS(coefficient) DESC`,
		userID, batchID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query correlations: %w", err)
	}
	defer rows.Close()

	var out []*correlation.Correlation
	for rows.Next() {
		c := &correlation.Correlation{UserID: userID}
		var pillar1, pillar2, strength, direction string
		var significant int
		if err := rows.Scan(
			&c.ID, &c.BatchID, &pillar1, &c.Metric1, &pillar2, &c.Metric2,
			&c.Coefficient, &c.PValue, &c.SampleSize, &strength, &direction,
			&c.Explanation, &significant, &c.DiscoveredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan correlation: %w", err)
		}
		c.Pillar1 = metrics.Pillar(pillar1)
		c.Pillar2 = metrics.Pillar(pillar2)
		c.Strength = correlation.Strength(strength)
		c.Direction = correlation.Direction(direction)
		c.IsSignificant = significant != 0
		out = append(out, c)
	}
	return out, rows.Err()
}
