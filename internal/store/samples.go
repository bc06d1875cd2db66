package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fyrsmithlabs/pillard/internal/metrics"
)

// Sample is one raw observation reported by a pillar collaborator.
type Sample struct {
	Key        metrics.Key `json:"key"`
	Value      float64     `json:"value"`
	RecordedAt time.Time   `json:"recorded_at"`
}

// IngestSamples appends raw samples for a user.
func (s *Store) IngestSamples(ctx context.Context, userID string, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO metric_samples (user_id, pillar, metric, value, recorded_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, sample := range samples {
		if _, ok := metrics.Lookup(sample.Key); !ok {
			return fmt.Errorf("unknown metric %q", sample.Key)
		}
		if _, err := stmt.ExecContext(ctx, userID,
			string(sample.Key.Pillar), sample.Key.Metric,
			sample.Value, sample.RecordedAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit samples: %w", err)
	}
	return nil
}

// Fetch returns the user's series for one metric over [from, to), averaged
// to one point per UTC day. Implements metrics.Source.
func (s *Store) Fetch(ctx context.Context, userID string, key metrics.Key, from, to time.Time) (metrics.Series, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT value, recorded_at FROM metric_samples
		WHERE user_id = ? AND pillar = ? AND metric = ?
			AND recorded_at >= ? AND recorded_at < ?
		ORDER BY recorded_at`,
		userID, string(key.Pillar), key.Metric, from.UTC(), to.UTC())
	if err != nil {
		return metrics.Series{}, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	type acc struct {
		sum float64
		n   int
	}
	byDay := map[time.Time]*acc{}
	for rows.Next() {
		var value float64
		var recordedAt time.Time
		if err := rows.Scan(&value, &recordedAt); err != nil {
			return metrics.Series{}, fmt.Errorf("failed to scan sample: %w", err)
		}
		day := metrics.Day(recordedAt)
		a, ok := byDay[day]
		if !ok {
			a = &acc{}
			byDay[day] = a
		}
		a.sum += value
		a.n++
	}
	if err := rows.Err(); err != nil {
		return metrics.Series{}, fmt.Errorf("failed to iterate samples: %w", err)
	}

	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	series := metrics.Series{Key: key}
	for _, day := range days {
		a := byDay[day]
		series.Points = append(series.Points, metrics.Point{
			Date:  day,
			Value: a.sum / float64(a.n),
		})
	}
	return series, nil
}
