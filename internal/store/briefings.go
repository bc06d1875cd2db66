package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/pillard/internal/briefing"
	"github.com/fyrsmithlabs/pillard/internal/metrics"
)

// Briefing documents are stored as JSON with the period key lifted into
// columns. The compiler regenerates whole documents; nothing queries
// inside them.

// UpsertDailyBriefing stores or replaces the briefing for (user, date).
// Implements briefing.Store.
func (s *Store) UpsertDailyBriefing(ctx context.Context, b *briefing.DailyBriefing) error {
	doc, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal daily briefing: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO daily_briefings (user_id, date, document, generated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, date) DO UPDATE SET
			document = excluded.document,
			generated_at = excluded.generated_at`,
		b.UserID, metrics.Day(b.Date), string(doc), b.GeneratedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert daily briefing: %w", err)
	}
	return nil
}

// GetDailyBriefing loads the briefing for (user, date). Implements
// briefing.Store.
func (s *Store) GetDailyBriefing(ctx context.Context, userID string, date time.Time) (*briefing.DailyBriefing, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `
		SELECT document FROM daily_briefings
		WHERE user_id = ? AND date = ?`,
		userID, metrics.Day(date)).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, briefing.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load daily briefing: %w", err)
	}

	var b briefing.DailyBriefing
	if err := json.Unmarshal([]byte(doc), &b); err != nil {
		return nil, fmt.Errorf("failed to decode daily briefing: %w", err)
	}
	b.UserID = userID
	return &b, nil
}

// UpsertWeeklyReview stores or replaces the review for (user, week_start).
// Implements briefing.Store.
func (s *Store) UpsertWeeklyReview(ctx context.Context, r *briefing.WeeklyReview) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal weekly review: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO weekly_reviews (user_id, week_start, document, generated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, week_start) DO UPDATE SET
			document = excluded.document,
			generated_at = excluded.generated_at`,
		r.UserID, metrics.Day(r.WeekStart), string(doc), r.GeneratedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert weekly review: %w", err)
	}
	return nil
}

// GetWeeklyReview loads the review for (user, week_start). Implements
// briefing.Store.
func (s *Store) GetWeeklyReview(ctx context.Context, userID string, weekStart time.Time) (*briefing.WeeklyReview, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `
		SELECT document FROM weekly_reviews
		WHERE user_id = ? AND week_start = ?`,
		userID, metrics.Day(weekStart)).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, briefing.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly review: %w", err)
	}
	return decodeReview(userID, doc)
}

// LatestWeeklyReview loads the user's most recent review. Implements
// briefing.Store.
func (s *Store) LatestWeeklyReview(ctx context.Context, userID string) (*briefing.WeeklyReview, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `
		SELECT document FROM weekly_reviews
		WHERE user_id = ?
		ORDER BY week_start DESC LIMIT 1`, userID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, briefing.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest weekly review: %w", err)
	}
	return decodeReview(userID, doc)
}

func decodeReview(userID, doc string) (*briefing.WeeklyReview, error) {
	var r briefing.WeeklyReview
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("failed to decode weekly review: %w", err)
	}
	r.UserID = userID
	return &r, nil
}
