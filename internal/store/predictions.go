package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fyrsmithlabs/pillard/internal/metrics"
	"github.com/fyrsmithlabs/pillard/internal/predict"
)

// ReplacePredictions atomically swaps the user's predictions of one type
// for a fresh batch. Implements predict.Store.
func (s *Store) ReplacePredictions(ctx context.Context, userID string, typ predict.Type, batch []*predict.Prediction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM predictions WHERE user_id = ? AND type = ?`,
		userID, string(typ)); err != nil {
		return fmt.Errorf("failed to clear predictions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO predictions (
			id, user_id, type, pillar, target_metric, current_value,
			predicted_value, target_date, predicted_date, confidence_level,
			factors, trend_direction, likelihood, suggestions, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range batch {
		factors, err := marshalJSON(p.Factors)
		if err != nil {
			return err
		}
		suggestions, err := marshalJSON(p.Suggestions)
		if err != nil {
			return err
		}
		var predictedDate any
		if p.PredictedDate != nil {
			predictedDate = p.PredictedDate.UTC()
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID, userID, string(p.Type), string(p.Pillar), p.TargetMetric,
			p.CurrentValue, p.PredictedValue, p.TargetDate.UTC(), predictedDate,
			p.ConfidenceLevel, factors, string(p.TrendDirection),
			string(p.Likelihood), suggestions, p.CreatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert prediction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit predictions: %w", err)
	}
	return nil
}

// ListPredictions returns the user's stored predictions, optionally
// filtered by type. Implements predict.Store.
func (s *Store) ListPredictions(ctx context.Context, userID string, typ predict.Type) ([]*predict.Prediction, error) {
	query := `
		SELECT id, type, pillar, target_metric, current_value, predicted_value,
			target_date, predicted_date, confidence_level, factors,
			trend_direction, likelihood, suggestions, created_at
		FROM predictions WHERE user_id = ?`
	args := []any{userID}
	if typ != "" {
		query += " AND type = ?"
		args = append(args, string(typ))
	}
	query += " ORDER BY type, target_metric"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var out []*predict.Prediction
	for rows.Next() {
		p := &predict.Prediction{UserID: userID}
		var ptype, pillar, trend, likelihood, factors, suggestions string
		var predictedDate sql.NullTime
		if err := rows.Scan(
			&p.ID, &ptype, &pillar, &p.TargetMetric, &p.CurrentValue,
			&p.PredictedValue, &p.TargetDate, &predictedDate,
			&p.ConfidenceLevel, &factors, &trend, &likelihood, &suggestions,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		p.Type = predict.Type(ptype)
		p.Pillar = metrics.Pillar(pillar)
		p.TrendDirection = predict.TrendDirection(trend)
		p.Likelihood = predict.Likelihood(likelihood)
		if predictedDate.Valid {
			t := predictedDate.Time
			p.PredictedDate = &t
		}
		if err := unmarshalJSON(factors, &p.Factors); err != nil {
			return nil, fmt.Errorf("failed to decode factors: %w", err)
		}
		if err := unmarshalJSON(suggestions, &p.Suggestions); err != nil {
			return nil, fmt.Errorf("failed to decode suggestions: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
