package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/pillard/internal/metrics"
	"github.com/fyrsmithlabs/pillard/internal/recommend"
)

// SaveRecommendations persists a generated batch. Implements recommend.Store.
func (s *Store) SaveRecommendations(ctx context.Context, batch []*recommend.Recommendation) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recommendations (
			id, user_id, pillar, category, title, description, action_items,
			priority, expected_impact, estimated_effort, quadrant, reasoning,
			source_correlation_id, status, outcome, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range batch {
		items, err := marshalJSON(r.ActionItems)
		if err != nil {
			return err
		}
		var completedAt any
		if r.CompletedAt != nil {
			completedAt = r.CompletedAt.UTC()
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.UserID, string(r.Pillar), r.Category, r.Title, r.Description,
			items, r.Priority, string(r.ExpectedImpact), string(r.EstimatedEffort),
			string(r.Quadrant), r.Reasoning, r.SourceCorrelationID,
			string(r.Status), r.Outcome, r.CreatedAt.UTC(), completedAt,
		); err != nil {
			return fmt.Errorf("failed to insert recommendation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recommendations: %w", err)
	}
	return nil
}

// ListRecommendations returns the user's recommendations ordered by
// priority then recency. Implements recommend.Store.
func (s *Store) ListRecommendations(ctx context.Context, userID string, f recommend.ListFilter) ([]*recommend.Recommendation, error) {
	query := `
		SELECT id, pillar, category, title, description, action_items,
			priority, expected_impact, estimated_effort, quadrant, reasoning,
			source_correlation_id, status, outcome, created_at, completed_at
		FROM recommendations WHERE user_id = ?`
	args := []any{userID}

	var conds []string
	if f.Pillar != "" {
		conds = append(conds, "pillar = ?")
		args = append(args, string(f.Pillar))
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if len(conds) > 0 {
		query += " AND " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY priority DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var out []*recommend.Recommendation
	for rows.Next() {
		r := &recommend.Recommendation{UserID: userID}
		var pillar, impact, effort, quadrant, status, items string
		var completedAt sql.NullTime
		if err := rows.Scan(
			&r.ID, &pillar, &r.Category, &r.Title, &r.Description, &items,
			&r.Priority, &impact, &effort, &quadrant, &r.Reasoning,
			&r.SourceCorrelationID, &status, &r.Outcome, &r.CreatedAt, &completedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		r.Pillar = metrics.Pillar(pillar)
		r.ExpectedImpact = recommend.Impact(impact)
		r.EstimatedEffort = recommend.Effort(effort)
		r.Quadrant = recommend.Quadrant(quadrant)
		r.Status = recommend.Status(status)
		if completedAt.Valid {
			t := completedAt.Time
			r.CompletedAt = &t
		}
		if err := unmarshalJSON(items, &r.ActionItems); err != nil {
			return nil, fmt.Errorf("failed to decode action items: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateRecommendationStatus transitions one recommendation. Implements
// recommend.Store.
func (s *Store) UpdateRecommendationStatus(ctx context.Context, userID, id string, status recommend.Status, outcome string, completedAt *time.Time) error {
	var completed any
	if completedAt != nil {
		completed = completedAt.UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE recommendations
		SET status = ?, outcome = ?, completed_at = ?
		WHERE user_id = ? AND id = ?`,
		string(status), outcome, completed, userID, id)
	if err != nil {
		return fmt.Errorf("failed to update recommendation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recommendation %q not found", id)
	}
	return nil
}

// HasPendingRecommendation reports whether a pending recommendation exists
// for (user, pillar, category). Implements recommend.Store.
func (s *Store) HasPendingRecommendation(ctx context.Context, userID string, pillar metrics.Pillar, category string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM recommendations
			WHERE user_id = ? AND pillar = ? AND category = ? AND status = ?
		)`, userID, string(pillar), category, string(recommend.StatusPending)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending recommendation: %w", err)
	}
	return exists != 0, nil
}
