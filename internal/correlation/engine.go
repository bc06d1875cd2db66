package correlation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pillard/internal/metrics"
	"github.com/fyrsmithlabs/pillard/internal/stats"
	"github.com/fyrsmithlabs/pillard/internal/worker"
)

const instrumentationName = "github.com/fyrsmithlabs/pillard/internal/correlation"

// Config configures the correlation engine.
type Config struct {
	// WindowDays is the trailing window both series are fetched over.
	WindowDays int

	// MinSampleSize is the minimum number of shared days a pair needs.
	MinSampleSize int

	// SignificanceLevel is the p-value threshold for significance.
	SignificanceLevel float64

	// Concurrency bounds the pair fan-out. <= 0 means NumCPU.
	Concurrency int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		WindowDays:        90,
		MinSampleSize:     10,
		SignificanceLevel: 0.05,
	}
}

// Engine computes pairwise correlations over the candidate metric pairs.
type Engine struct {
	config *Config
	source metrics.Source
	store  Store
	logger *zap.Logger

	tracer      trace.Tracer
	meter       metric.Meter
	runCounter  metric.Int64Counter
	pairCounter metric.Int64Counter
}

// NewEngine creates a correlation engine.
func NewEngine(cfg *Config, source metrics.Source, store Store, logger *zap.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if source == nil {
		return nil, errors.New("metric source is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		config: cfg,
		source: source,
		store:  store,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
	e.initMetrics()
	return e, nil
}

func (e *Engine) initMetrics() {
	var err error

	e.runCounter, err = e.meter.Int64Counter(
		"pillard.correlation.runs_total",
		metric.WithDescription("Total correlation analysis runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		e.logger.Warn("failed to create run counter", zap.Error(err))
	}

	e.pairCounter, err = e.meter.Int64Counter(
		"pillard.correlation.pairs_total",
		metric.WithDescription("Metric pairs examined, by outcome"),
		metric.WithUnit("{pair}"),
	)
	if err != nil {
		e.logger.Warn("failed to create pair counter", zap.Error(err))
	}
}

// pairOutcome is the per-pair fan-out result.
type pairOutcome struct {
	corr        *Correlation
	unavailable bool
}

// Analyze runs the engine over the candidate pairs for one user and writes
// a fresh batch. An optional pillar filter restricts both sides of every
// pair. Pairs with insufficient shared history or degenerate variance are
// skipped, never errors. If a pillar source is unreachable its pairs are
// skipped and the batch is still committed; partial reports that case.
func (e *Engine) Analyze(ctx context.Context, userID string, pillars []metrics.Pillar) (batch []*Correlation, partial bool, err error) {
	ctx, span := e.tracer.Start(ctx, "correlation.analyze")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.Int("window_days", e.config.WindowDays),
	)

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -e.config.WindowDays)
	pairs := metrics.CandidatePairs(pillars)
	batchID := uuid.New().String()

	pool := worker.NewPool[[2]metrics.Key, pairOutcome](e.config.Concurrency)
	results := pool.Process(ctx, pairs, func(ctx context.Context, pair [2]metrics.Key) (pairOutcome, error) {
		return e.analyzePair(ctx, userID, pair, from, now, batchID)
	})

	for _, r := range results {
		if r.Err != nil {
			span.RecordError(r.Err)
			return nil, false, r.Err
		}
		if r.Value.unavailable {
			partial = true
			continue
		}
		if r.Value.corr != nil {
			batch = append(batch, r.Value.corr)
		}
	}

	if err := e.store.SaveCorrelationBatch(ctx, userID, batchID, batch); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("failed to save correlation batch: %w", err)
	}

	if e.runCounter != nil {
		e.runCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("partial", partial)))
	}

	e.logger.Info("correlation analysis complete",
		zap.String("user_id", userID),
		zap.String("batch_id", batchID),
		zap.Int("pairs_examined", len(pairs)),
		zap.Int("correlations", len(batch)),
		zap.Bool("partial", partial),
	)

	span.SetAttributes(attribute.Int("correlations", len(batch)))
	return batch, partial, nil
}

// analyzePair computes one pair. A nil correlation with no error means the
// pair was skipped (insufficient data or degenerate variance).
func (e *Engine) analyzePair(ctx context.Context, userID string, pair [2]metrics.Key, from, to time.Time, batchID string) (pairOutcome, error) {
	s1, err := e.source.Fetch(ctx, userID, pair[0], from, to)
	if err != nil {
		e.logger.Warn("metric source unavailable, skipping pair",
			zap.String("metric", pair[0].String()), zap.Error(err))
		e.countPair(ctx, "unavailable")
		return pairOutcome{unavailable: true}, nil
	}
	s2, err := e.source.Fetch(ctx, userID, pair[1], from, to)
	if err != nil {
		e.logger.Warn("metric source unavailable, skipping pair",
			zap.String("metric", pair[1].String()), zap.Error(err))
		e.countPair(ctx, "unavailable")
		return pairOutcome{unavailable: true}, nil
	}

	x, y := metrics.InnerJoin(s1, s2)
	n := len(x)
	if n < e.config.MinSampleSize {
		e.countPair(ctx, "insufficient_data")
		return pairOutcome{}, nil
	}

	r, ok := stats.Pearson(x, y)
	if !ok {
		// Zero variance on either side: the coefficient is undefined.
		e.countPair(ctx, "degenerate")
		return pairOutcome{}, nil
	}
	p := stats.PearsonPValue(r, n)

	c := &Correlation{
		ID:            uuid.New().String(),
		UserID:        userID,
		BatchID:       batchID,
		Pillar1:       pair[0].Pillar,
		Metric1:       pair[0].Metric,
		Pillar2:       pair[1].Pillar,
		Metric2:       pair[1].Metric,
		Coefficient:   r,
		PValue:        p,
		SampleSize:    n,
		Strength:      ClassifyStrength(r),
		Direction:     ClassifyDirection(r),
		Explanation:   Explain(pair[0], pair[1], r, n),
		IsSignificant: p < e.config.SignificanceLevel && n >= e.config.MinSampleSize,
		DiscoveredAt:  time.Now().UTC(),
	}
	e.countPair(ctx, "correlated")
	return pairOutcome{corr: c}, nil
}

func (e *Engine) countPair(ctx context.Context, outcome string) {
	if e.pairCounter != nil {
		e.pairCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

// List returns the user's latest batch restricted to the trailing window.
func (e *Engine) List(ctx context.Context, userID string, days int) ([]*Correlation, error) {
	ctx, span := e.tracer.Start(ctx, "correlation.list")
	defer span.End()

	if days <= 0 {
		days = e.config.WindowDays
	}
	out, err := e.store.LatestCorrelations(ctx, userID, days)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list correlations: %w", err)
	}
	span.SetAttributes(attribute.Int("result_count", len(out)))
	return out, nil
}
