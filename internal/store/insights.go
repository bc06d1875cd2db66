package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/pillard/internal/insight"
	"github.com/fyrsmithlabs/pillard/internal/metrics"
)

// SaveInsights persists a generated batch. Implements insight.Store.
func (s *Store) SaveInsights(ctx context.Context, batch []*insight.Insight) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO insights (
			id, user_id, type, pillar, metric, title, description, severity,
			confidence, supporting_data, time_period, actionable, is_read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, in := range batch {
		data, err := marshalJSON(in.SupportingData)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			in.ID, in.UserID, string(in.Type), string(in.Pillar), in.Metric,
			in.Title, in.Description, string(in.Severity),
			in.Confidence, data, string(in.TimePeriod),
			boolToInt(in.Actionable), boolToInt(in.IsRead), in.CreatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert insight: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit insights: %w", err)
	}
	return nil
}

// ListInsights returns the user's insights, newest first. Implements
// insight.Store.
func (s *Store) ListInsights(ctx context.Context, userID string, f insight.ListFilter) ([]*insight.Insight, error) {
	query := `
		SELECT id, type, pillar, metric, title, description, severity,
			confidence, supporting_data, time_period, actionable, is_read, created_at
		FROM insights WHERE user_id = ?`
	args := []any{userID}

	var conds []string
	if f.Pillar != "" {
		conds = append(conds, "pillar = ?")
		args = append(args, string(f.Pillar))
	}
	if f.Severity != "" {
		conds = append(conds, "severity = ?")
		args = append(args, string(f.Severity))
	}
	if f.TimePeriod != "" {
		conds = append(conds, "time_period = ?")
		args = append(args, string(f.TimePeriod))
	}
	if f.UnreadOnly {
		conds = append(conds, "is_read = 0")
	}
	if !f.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.Since.UTC())
	}
	if len(conds) > 0 {
		query += " AND " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}
	defer rows.Close()

	var out []*insight.Insight
	for rows.Next() {
		in := &insight.Insight{UserID: userID}
		var typ, pillar, severity, period, data string
		var actionable, isRead int
		if err := rows.Scan(
			&in.ID, &typ, &pillar, &in.Metric, &in.Title, &in.Description,
			&severity, &in.Confidence, &data, &period, &actionable, &isRead,
			&in.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		in.Type = insight.Type(typ)
		in.Pillar = metrics.Pillar(pillar)
		in.Severity = insight.Severity(severity)
		in.TimePeriod = insight.TimePeriod(period)
		in.Actionable = actionable != 0
		in.IsRead = isRead != 0
		if err := unmarshalJSON(data, &in.SupportingData); err != nil {
			return nil, fmt.Errorf("failed to decode supporting data: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// MarkInsightRead flags one insight as read. Implements insight.Store.
func (s *Store) MarkInsightRead(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE insights SET is_read = 1 WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to mark insight read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("insight %q not found", id)
	}
	return nil
}

// HasRecentInsight reports whether an insight with the same
// (type, pillar, metric) exists at or after since. Implements insight.Store.
func (s *Store) HasRecentInsight(ctx context.Context, userID string, typ insight.Type, pillar metrics.Pillar, metricName string, since time.Time) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM insights
			WHERE user_id = ? AND type = ? AND pillar = ? AND metric = ?
				AND created_at >= ?
		)`, userID, string(typ), string(pillar), metricName, since.UTC()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check recent insight: %w", err)
	}
	return exists != 0, nil
}
