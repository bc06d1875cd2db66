package insight

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

	"github.com/fyrsmithlabs/pillard/internal/correlation"
	"github.com/fyrsmithlabs/pillard/internal/metrics"
	"github.com/fyrsmithlabs/pillard/internal/worker"
)

const instrumentationName = "github.com/fyrsmithlabs/pillard/internal/insight"

// CorrelationLister provides the latest correlation batch. Satisfied by the
// correlation engine.
type CorrelationLister interface {
	List(ctx context.Context, userID string, days int) ([]*correlation.Correlation, error)
}

// Config configures the insight generator.
type Config struct {
	// DetectorWindowDays is the trailing window the per-metric detectors
	// look at, independent of the tagged time period.
	DetectorWindowDays int

	// AnomalySigma is the deviation threshold in standard deviations.
	AnomalySigma float64

	// MinPriorPoints is the minimum history an anomaly check needs before
	// the latest value.
	MinPriorPoints int

	// TrendThreshold is the relative half-window change that counts as a trend.
	TrendThreshold float64

	// MinTrendPoints is the minimum series length for trend detection.
	MinTrendPoints int

	// DedupWindow suppresses re-emitting an insight with the same
	// (type, pillar, metric) created within this lookback.
	DedupWindow time.Duration

	// CorrelationDays is the window passed to the correlation lister.
	CorrelationDays int

	// Concurrency bounds the per-metric fan-out. <= 0 means NumCPU.
	Concurrency int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DetectorWindowDays: 30,
		AnomalySigma:       2,
		MinPriorPoints:     7,
		TrendThreshold:     0.15,
		MinTrendPoints:     6,
		DedupWindow:        24 * time.Hour,
		CorrelationDays:    90,
	}
}

// Generator runs the insight detectors across the tracked metrics.
type Generator struct {
	config       *Config
	source       metrics.Source
	store        Store
	correlations CorrelationLister
	logger       *zap.Logger

	tracer         trace.Tracer
	meter          metric.Meter
	insightCounter metric.Int64Counter
}

// NewGenerator creates an insight generator.
func NewGenerator(cfg *Config, source metrics.Source, store Store, correlations CorrelationLister, logger *zap.Logger) (*Generator, error) {
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

	g := &Generator{
		config:       cfg,
		source:       source,
		store:        store,
		correlations: correlations,
		logger:       logger,
		tracer:       otel.Tracer(instrumentationName),
		meter:        otel.Meter(instrumentationName),
	}

	var err error
	g.insightCounter, err = g.meter.Int64Counter(
		"pillard.insight.generated_total",
		metric.WithDescription("Insights generated, by type"),
		metric.WithUnit("{insight}"),
	)
	if err != nil {
		logger.Warn("failed to create insight counter", zap.Error(err))
	}

	return g, nil
}

// Generate runs all detectors for one user and persists the surviving
// insights. Metrics whose pillar source is unreachable are skipped and the
// run completes with partial set. Dedup happens against recent stored
// insights before saving.
func (g *Generator) Generate(ctx context.Context, userID string, period TimePeriod) (out []*Insight, partial bool, err error) {
	ctx, span := g.tracer.Start(ctx, "insight.generate")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("period", string(period)),
	)

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -g.config.DetectorWindowDays)

	type metricInsights struct {
		insights    []*Insight
		unavailable bool
	}

	pool := worker.NewPool[metrics.Definition, metricInsights](g.config.Concurrency)
	results := pool.Process(ctx, metrics.Catalog, func(ctx context.Context, def metrics.Definition) (metricInsights, error) {
		series, err := g.source.Fetch(ctx, userID, def.Key, from, now)
		if err != nil {
			g.logger.Warn("metric source unavailable, skipping detectors",
				zap.String("metric", def.Key.String()), zap.Error(err))
			return metricInsights{unavailable: true}, nil
		}
		var found []*Insight
		if in := detectAnomaly(def, series, g.config.AnomalySigma, g.config.MinPriorPoints); in != nil {
			found = append(found, in)
		}
		if in := detectTrend(def, series, g.config.TrendThreshold, g.config.MinTrendPoints); in != nil {
			found = append(found, in)
		}
		if in := detectAchievement(def, series); in != nil {
			found = append(found, in)
		}
		return metricInsights{insights: found}, nil
	})

	var candidates []*Insight
	for _, r := range results {
		if r.Err != nil {
			span.RecordError(r.Err)
			return nil, false, r.Err
		}
		if r.Value.unavailable {
			partial = true
			continue
		}
		candidates = append(candidates, r.Value.insights...)
	}

	// Cross-pillar insights from the latest correlation batch.
	if g.correlations != nil {
		corrs, err := g.correlations.List(ctx, userID, g.config.CorrelationDays)
		if err != nil {
			g.logger.Warn("correlations unavailable, generating without them", zap.Error(err))
			partial = true
		} else {
			for _, c := range corrs {
				if in := fromCorrelation(c); in != nil {
					candidates = append(candidates, in)
				}
			}
		}
	}

	// Deduplicate against recent history and within this batch.
	dedupSince := now.Add(-g.config.DedupWindow)
	seen := make(map[string]bool, len(candidates))
	for _, in := range candidates {
		key := string(in.Type) + "|" + string(in.Pillar) + "|" + in.Metric
		if seen[key] {
			continue
		}
		exists, err := g.store.HasRecentInsight(ctx, userID, in.Type, in.Pillar, in.Metric, dedupSince)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, false, fmt.Errorf("failed to check insight dedup: %w", err)
		}
		if exists {
			continue
		}
		seen[key] = true

		in.ID = uuid.New().String()
		in.UserID = userID
		in.TimePeriod = period
		in.CreatedAt = now
		out = append(out, in)
	}

	if len(out) > 0 {
		if err := g.store.SaveInsights(ctx, out); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, false, fmt.Errorf("failed to save insights: %w", err)
		}
	}

	if g.insightCounter != nil {
		for _, in := range out {
			g.insightCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(in.Type))))
		}
	}

	g.logger.Info("insight generation complete",
		zap.String("user_id", userID),
		zap.Int("candidates", len(candidates)),
		zap.Int("saved", len(out)),
		zap.Bool("partial", partial),
	)

	span.SetAttributes(attribute.Int("insights", len(out)))
	return out, partial, nil
}

// List returns stored insights matching the filter.
func (g *Generator) List(ctx context.Context, userID string, f ListFilter) ([]*Insight, error) {
	out, err := g.store.ListInsights(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	return out, nil
}

// MarkRead toggles an insight's read state.
func (g *Generator) MarkRead(ctx context.Context, userID, id string) error {
	if err := g.store.MarkInsightRead(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to mark insight read: %w", err)
	}
	return nil
}
