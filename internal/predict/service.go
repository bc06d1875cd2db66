package predict

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
)

const instrumentationName = "github.com/fyrsmithlabs/pillard/internal/predict"

// Config configures the prediction service.
type Config struct {
	// WindowDays is the trailing window the input aggregates cover.
	WindowDays int

	// HealthMetric is the series behind the health_trend prediction.
	HealthMetric metrics.Key

	// HealthHorizonDays is how far the health trend is projected.
	HealthHorizonDays int

	// DefaultSleepQuality stands in when no sleep data exists; a neutral
	// midpoint so the sleep term neither inflates nor masks the score.
	DefaultSleepQuality float64

	// Goals are the tracked goal series for goal_achievement forecasts.
	Goals []GoalSpec
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		WindowDays:          30,
		HealthMetric:        metrics.Key{Pillar: metrics.PillarHealth, Metric: "sleep_quality"},
		HealthHorizonDays:   7,
		DefaultSleepQuality: 5,
	}
}

// Service computes predictions.
type Service struct {
	config *Config
	source metrics.Source
	store  Store
	logger *zap.Logger

	tracer     trace.Tracer
	meter      metric.Meter
	runCounter metric.Int64Counter
}

// NewService creates a prediction service.
func NewService(cfg *Config, source metrics.Source, store Store, logger *zap.Logger) (*Service, error) {
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

	s := &Service{
		config: cfg,
		source: source,
		store:  store,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}

	var err error
	s.runCounter, err = s.meter.Int64Counter(
		"pillard.predict.runs_total",
		metric.WithDescription("Prediction runs, by type"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		logger.Warn("failed to create prediction counter", zap.Error(err))
	}

	return s, nil
}

// Generate recomputes and stores the predictions of one type, replacing
// the user's previous set of that type.
func (s *Service) Generate(ctx context.Context, userID string, typ Type) ([]*Prediction, error) {
	ctx, span := s.tracer.Start(ctx, "predict.generate")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("type", string(typ)),
	)

	var (
		batch []*Prediction
		err   error
	)
	switch typ {
	case TypeBurnout:
		batch, err = s.generateBurnout(ctx, userID)
	case TypeGoalAchievement:
		batch, err = s.generateGoals(ctx, userID)
	case TypeHealthTrend:
		batch, err = s.generateHealthTrend(ctx, userID)
	default:
		return nil, fmt.Errorf("unknown prediction type %q", typ)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	now := time.Now().UTC()
	for _, p := range batch {
		p.ID = uuid.New().String()
		p.UserID = userID
		p.CreatedAt = now
	}

	if err := s.store.ReplacePredictions(ctx, userID, typ, batch); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to save predictions: %w", err)
	}

	if s.runCounter != nil {
		s.runCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(typ))))
	}

	s.logger.Info("predictions generated",
		zap.String("user_id", userID),
		zap.String("type", string(typ)),
		zap.Int("count", len(batch)),
	)
	return batch, nil
}

// GenerateAll recomputes every prediction type.
func (s *Service) GenerateAll(ctx context.Context, userID string) ([]*Prediction, error) {
	var out []*Prediction
	for _, typ := range []Type{TypeBurnout, TypeGoalAchievement, TypeHealthTrend} {
		batch, err := s.Generate(ctx, userID, typ)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

// List returns stored predictions, optionally filtered by type.
func (s *Service) List(ctx context.Context, userID string, typ Type) ([]*Prediction, error) {
	out, err := s.store.ListPredictions(ctx, userID, typ)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	return out, nil
}

func (s *Service) generateBurnout(ctx context.Context, userID string) ([]*Prediction, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -s.config.WindowDays)

	in := BurnoutInputs{AvgSleepQuality: s.config.DefaultSleepQuality}

	if series, err := s.fetch(ctx, userID, metrics.Key{Pillar: metrics.PillarWorkLife, Metric: "work_hours"}, from, now); err == nil && !series.IsEmpty() {
		in.AvgDailyWorkHours = stats.Mean(series.Values())
	}
	if series, err := s.fetch(ctx, userID, metrics.Key{Pillar: metrics.PillarWorkLife, Metric: "boundary_violations"}, from, now); err == nil {
		for _, v := range series.Values() {
			in.BoundaryViolations += v
		}
	}
	if series, err := s.fetch(ctx, userID, metrics.Key{Pillar: metrics.PillarHealth, Metric: "sleep_quality"}, from, now); err == nil && !series.IsEmpty() {
		in.AvgSleepQuality = stats.Mean(series.Values())
	}

	score := BurnoutScore(in)
	p := &Prediction{
		Type:         TypeBurnout,
		Pillar:       metrics.PillarWorkLife,
		TargetMetric: "burnout_risk",
		CurrentValue: score,
		// Project the current trajectory forward rather than assuming decay.
		PredictedValue:  stats.Clamp(score*1.1, 0, 100),
		TargetDate:      now.AddDate(0, 0, s.config.WindowDays),
		ConfidenceLevel: 75,
		Factors: map[string]float64{
			"avg_daily_work_hours": in.AvgDailyWorkHours,
			"boundary_violations":  in.BoundaryViolations,
			"avg_sleep_quality":    in.AvgSleepQuality,
		},
		TrendDirection: burnoutTrend(score),
		Likelihood:     LikelihoodFromScore(score),
		Suggestions:    burnoutSuggestions(score),
	}
	return []*Prediction{p}, nil
}

func (s *Service) generateGoals(ctx context.Context, userID string) ([]*Prediction, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -s.config.WindowDays*3)

	var out []*Prediction
	for _, goal := range s.config.Goals {
		series, err := s.fetch(ctx, userID, goal.Metric, from, now)
		if err != nil {
			continue
		}
		out = append(out, goalForecast(goal, series, now))
	}
	return out, nil
}

func (s *Service) generateHealthTrend(ctx context.Context, userID string) ([]*Prediction, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -s.config.WindowDays)

	def, ok := metrics.Lookup(s.config.HealthMetric)
	if !ok {
		return nil, fmt.Errorf("unknown health metric %q", s.config.HealthMetric)
	}
	series, err := s.fetch(ctx, userID, def.Key, from, now)
	if err != nil {
		// Degrade to no prediction rather than failing the run.
		return nil, nil
	}
	return []*Prediction{healthForecast(def, series, s.config.HealthHorizonDays)}, nil
}

// fetch wraps the source with unavailability logging. Callers treat an
// error as the pillar being unreachable and degrade.
func (s *Service) fetch(ctx context.Context, userID string, key metrics.Key, from, to time.Time) (metrics.Series, error) {
	series, err := s.source.Fetch(ctx, userID, key, from, to)
	if err != nil {
		s.logger.Warn("metric source unavailable for prediction",
			zap.String("metric", key.String()), zap.Error(err))
		return metrics.Series{}, err
	}
	return series, nil
}
