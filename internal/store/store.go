// Package store provides SQLite persistence for pillard. One Store
// implements the persistence interfaces of every analysis engine, so the
// engines stay decoupled from the schema.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed persistence layer. Safe for concurrent use;
// database/sql handles pooling and modernc.org/sqlite serializes writers.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the database at path and runs migrations.
// ":memory:" opens an in-memory database, used by tests.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connStr := path
	if path == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	logger.Info("store opened", zap.String("path", path))
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS metric_samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		pillar TEXT NOT NULL,
		metric TEXT NOT NULL,
		value REAL NOT NULL,
		recorded_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_samples_lookup
		ON metric_samples(user_id, pillar, metric, recorded_at);

	CREATE TABLE IF NOT EXISTS correlations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		batch_id TEXT NOT NULL,
		pillar_1 TEXT NOT NULL,
		metric_1 TEXT NOT NULL,
		pillar_2 TEXT NOT NULL,
		metric_2 TEXT NOT NULL,
		coefficient REAL NOT NULL,
		p_value REAL NOT NULL,
		sample_size INTEGER NOT NULL,
		strength TEXT NOT NULL,
		direction TEXT NOT NULL,
		explanation TEXT NOT NULL,
		is_significant INTEGER NOT NULL,
		discovered_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_correlations_user_batch
		ON correlations(user_id, batch_id);
	CREATE INDEX IF NOT EXISTS idx_correlations_user_discovered
		ON correlations(user_id, discovered_at DESC);

	CREATE TABLE IF NOT EXISTS insights (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		pillar TEXT NOT NULL,
		metric TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		severity TEXT NOT NULL,
		confidence REAL NOT NULL,
		supporting_data TEXT,
		time_period TEXT NOT NULL,
		actionable INTEGER NOT NULL,
		is_read INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_insights_user_created
		ON insights(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_insights_dedup
		ON insights(user_id, type, pillar, metric, created_at);

	CREATE TABLE IF NOT EXISTS recommendations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		pillar TEXT NOT NULL,
		category TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		action_items TEXT,
		priority INTEGER NOT NULL,
		expected_impact TEXT NOT NULL,
		estimated_effort TEXT NOT NULL,
		quadrant TEXT NOT NULL,
		reasoning TEXT NOT NULL,
		source_correlation_id TEXT,
		status TEXT NOT NULL,
		outcome TEXT,
		created_at DATETIME NOT NULL,
		completed_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_recommendations_user_status
		ON recommendations(user_id, status);

	CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		pillar TEXT NOT NULL,
		target_metric TEXT NOT NULL,
		current_value REAL NOT NULL,
		predicted_value REAL NOT NULL,
		target_date DATETIME NOT NULL,
		predicted_date DATETIME,
		confidence_level REAL NOT NULL,
		factors TEXT,
		trend_direction TEXT NOT NULL,
		likelihood TEXT NOT NULL,
		suggestions TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_predictions_user_type
		ON predictions(user_id, type);

	CREATE TABLE IF NOT EXISTS daily_briefings (
		user_id TEXT NOT NULL,
		date DATETIME NOT NULL,
		document TEXT NOT NULL,
		generated_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, date)
	);

	CREATE TABLE IF NOT EXISTS weekly_reviews (
		user_id TEXT NOT NULL,
		week_start DATETIME NOT NULL,
		document TEXT NOT NULL,
		generated_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, week_start)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// ListUsers returns every user with at least one recorded sample.
func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM metric_samples ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

func marshalJSON(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal field: %w", err)
	}
	return string(b), nil
}

func unmarshalJSON(data string, v any) error {
	if data == "" {
		return nil
	}
	return json.Unmarshal([]byte(data), v)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
