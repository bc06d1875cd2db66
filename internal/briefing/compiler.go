package briefing

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pillard/internal/insight"
	"github.com/fyrsmithlabs/pillard/internal/metrics"
	"github.com/fyrsmithlabs/pillard/internal/recommend"
)

const instrumentationName = "github.com/fyrsmithlabs/pillard/internal/briefing"

// InsightSource supplies insights to the compiler.
type InsightSource interface {
	List(ctx context.Context, userID string, f insight.ListFilter) ([]*insight.Insight, error)
}

// RecommendationSource supplies recommendations to the compiler.
type RecommendationSource interface {
	List(ctx context.Context, userID string, f recommend.ListFilter) ([]*recommend.Recommendation, error)
}

// Config configures the compiler.
type Config struct {
	// TopN caps the insight and priority lists in a daily briefing.
	TopN int

	// WinThreshold is the week-over-week pillar score delta that counts
	// as a win (positive) or concern (negative).
	WinThreshold float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TopN:         3,
		WinThreshold: 5,
	}
}

// Compiler builds daily briefings and weekly reviews.
type Compiler struct {
	config   *Config
	source   metrics.Source
	insights InsightSource
	recs     RecommendationSource
	store    Store
	logger   *zap.Logger

	tracer     trace.Tracer
	meter      metric.Meter
	runCounter metric.Int64Counter
}

// NewCompiler creates a briefing compiler.
func NewCompiler(cfg *Config, source metrics.Source, insights InsightSource, recs RecommendationSource, store Store, logger *zap.Logger) (*Compiler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if source == nil {
		return nil, errors.New("metric source is required")
	}
	if insights == nil {
		return nil, errors.New("insight source is required")
	}
	if recs == nil {
		return nil, errors.New("recommendation source is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Compiler{
		config:   cfg,
		source:   source,
		insights: insights,
		recs:     recs,
		store:    store,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
		meter:    otel.Meter(instrumentationName),
	}

	var err error
	c.runCounter, err = c.meter.Int64Counter(
		"pillard.briefing.compiled_total",
		metric.WithDescription("Compiled briefing documents, by kind"),
		metric.WithUnit("{document}"),
	)
	if err != nil {
		logger.Warn("failed to create briefing counter", zap.Error(err))
	}

	return c, nil
}

func (c *Compiler) recordRun(ctx context.Context, kind string) {
	if c.runCounter != nil {
		c.runCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
}

func spanFail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func wrapSave(err error) error {
	return fmt.Errorf("failed to save briefing document: %w", err)
}
