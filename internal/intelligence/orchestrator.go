// Package intelligence orchestrates the analysis pipeline: correlations,
// insights, recommendations, predictions, and the daily briefing run in
// sequence, each stage feeding the next through the store.
package intelligence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pillard/internal/briefing"
	"github.com/fyrsmithlabs/pillard/internal/correlation"
	"github.com/fyrsmithlabs/pillard/internal/insight"
	"github.com/fyrsmithlabs/pillard/internal/predict"
	"github.com/fyrsmithlabs/pillard/internal/recommend"
)

const instrumentationName = "github.com/fyrsmithlabs/pillard/internal/intelligence"

// ErrRunInProgress is returned when a full analysis run is requested while
// another run for the same user is still executing.
var ErrRunInProgress = errors.New("analysis run already in progress for user")

// Report summarizes one full analysis run.
type Report struct {
	UserID          string        `json:"user_id"`
	Correlations    int           `json:"correlations"`
	Insights        int           `json:"insights"`
	Recommendations int           `json:"recommendations"`
	Predictions     int           `json:"predictions"`
	Partial         bool          `json:"partial"`
	Duration        time.Duration `json:"duration"`
	StartedAt       time.Time     `json:"started_at"`
}

// Orchestrator sequences the analysis engines. One run per user at a time;
// concurrent requests for the same user fail fast with ErrRunInProgress.
type Orchestrator struct {
	correlations    *correlation.Engine
	insights        *insight.Generator
	recommendations *recommend.Engine
	predictions     *predict.Service
	briefings       *briefing.Compiler
	logger          *zap.Logger

	mu     sync.Mutex
	active map[string]bool

	tracer     trace.Tracer
	meter      metric.Meter
	runCounter metric.Int64Counter
	runSeconds metric.Float64Histogram
}

// NewOrchestrator wires the five engines into a pipeline.
func NewOrchestrator(
	correlations *correlation.Engine,
	insights *insight.Generator,
	recommendations *recommend.Engine,
	predictions *predict.Service,
	briefings *briefing.Compiler,
	logger *zap.Logger,
) (*Orchestrator, error) {
	if correlations == nil || insights == nil || recommendations == nil ||
		predictions == nil || briefings == nil {
		return nil, errors.New("all engines are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &Orchestrator{
		correlations:    correlations,
		insights:        insights,
		recommendations: recommendations,
		predictions:     predictions,
		briefings:       briefings,
		logger:          logger,
		active:          make(map[string]bool),
		tracer:          otel.Tracer(instrumentationName),
		meter:           otel.Meter(instrumentationName),
	}

	var err error
	o.runCounter, err = o.meter.Int64Counter(
		"pillard.intelligence.runs_total",
		metric.WithDescription("Full analysis runs, by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		logger.Warn("failed to create run counter", zap.Error(err))
	}
	o.runSeconds, err = o.meter.Float64Histogram(
		"pillard.intelligence.run_duration_seconds",
		metric.WithDescription("Full analysis run duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.Warn("failed to create run histogram", zap.Error(err))
	}

	return o, nil
}

func (o *Orchestrator) acquire(userID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active[userID] {
		return false
	}
	o.active[userID] = true
	return true
}

func (o *Orchestrator) release(userID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, userID)
}

// RunAll executes the full pipeline for one user: correlation analysis,
// insight generation, recommendations, predictions, and the daily
// briefing. Stage failures abort the run; pillar unavailability inside a
// stage only marks the report partial.
func (o *Orchestrator) RunAll(ctx context.Context, userID string, period insight.TimePeriod) (*Report, error) {
	if !o.acquire(userID) {
		return nil, ErrRunInProgress
	}
	defer o.release(userID)

	ctx, span := o.tracer.Start(ctx, "intelligence.run_all")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", userID))

	start := time.Now()
	report := &Report{UserID: userID, StartedAt: start.UTC()}

	fail := func(stage string, err error) (*Report, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.countRun(ctx, "error")
		return nil, fmt.Errorf("%s stage failed: %w", stage, err)
	}

	corrs, partial, err := o.correlations.Analyze(ctx, userID, nil)
	if err != nil {
		return fail("correlation", err)
	}
	report.Correlations = len(corrs)
	report.Partial = report.Partial || partial

	ins, partial, err := o.insights.Generate(ctx, userID, period)
	if err != nil {
		return fail("insight", err)
	}
	report.Insights = len(ins)
	report.Partial = report.Partial || partial

	recs, err := o.recommendations.Generate(ctx, userID)
	if err != nil {
		return fail("recommendation", err)
	}
	report.Recommendations = len(recs)

	preds, err := o.predictions.GenerateAll(ctx, userID)
	if err != nil {
		return fail("prediction", err)
	}
	report.Predictions = len(preds)

	daily, err := o.briefings.GenerateDaily(ctx, userID, start)
	if err != nil {
		return fail("briefing", err)
	}
	report.Partial = report.Partial || daily.Partial

	report.Duration = time.Since(start)
	o.countRun(ctx, "ok")
	if o.runSeconds != nil {
		o.runSeconds.Record(ctx, report.Duration.Seconds())
	}

	o.logger.Info("full analysis run complete",
		zap.String("user_id", userID),
		zap.Int("correlations", report.Correlations),
		zap.Int("insights", report.Insights),
		zap.Int("recommendations", report.Recommendations),
		zap.Int("predictions", report.Predictions),
		zap.Bool("partial", report.Partial),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (o *Orchestrator) countRun(ctx context.Context, outcome string) {
	if o.runCounter != nil {
		o.runCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}
