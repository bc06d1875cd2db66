package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pillard/internal/correlation"
	"github.com/fyrsmithlabs/pillard/internal/insight"
	"github.com/fyrsmithlabs/pillard/internal/metrics"
)

const instrumentationName = "github.com/fyrsmithlabs/pillard/internal/recommend"

// InsightSource lists stored insights. Satisfied by the insight generator.
type InsightSource interface {
	List(ctx context.Context, userID string, f insight.ListFilter) ([]*insight.Insight, error)
}

// CorrelationSource lists the latest correlation batch. Satisfied by the
// correlation engine.
type CorrelationSource interface {
	List(ctx context.Context, userID string, days int) ([]*correlation.Correlation, error)
}

// Config configures the recommendation engine.
type Config struct {
	// InsightLookback bounds how far back eligible source insights reach.
	InsightLookback time.Duration

	// CorrelationDays is the window passed to the correlation source.
	CorrelationDays int

	// MaxPerRun caps how many recommendations one run may create.
	MaxPerRun int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		InsightLookback: 7 * 24 * time.Hour,
		CorrelationDays: 90,
		MaxPerRun:       10,
	}
}

// Engine turns insights and correlations into recommendations.
type Engine struct {
	config       *Config
	store        Store
	insights     InsightSource
	correlations CorrelationSource
	logger       *zap.Logger

	tracer     trace.Tracer
	meter      metric.Meter
	recCounter metric.Int64Counter
}

// NewEngine creates a recommendation engine.
func NewEngine(cfg *Config, store Store, insights InsightSource, correlations CorrelationSource, logger *zap.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if store == nil {
		return nil, errors.New("store is required")
	}
	if insights == nil {
		return nil, errors.New("insight source is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		config:       cfg,
		store:        store,
		insights:     insights,
		correlations: correlations,
		logger:       logger,
		tracer:       otel.Tracer(instrumentationName),
		meter:        otel.Meter(instrumentationName),
	}

	var err error
	e.recCounter, err = e.meter.Int64Counter(
		"pillard.recommend.generated_total",
		metric.WithDescription("Recommendations generated"),
		metric.WithUnit("{recommendation}"),
	)
	if err != nil {
		logger.Warn("failed to create recommendation counter", zap.Error(err))
	}

	return e, nil
}

// trigger is one eligible source for a recommendation.
type trigger struct {
	key           TemplateKey
	severity      insight.Severity
	reasoning     string
	correlationID string
	createdAt     time.Time
}

// Generate examines unread recent insights and significant correlations,
// applies the rule table, prioritizes, and persists new recommendations.
// A pending recommendation in the same (pillar, category) blocks creation.
func (e *Engine) Generate(ctx context.Context, userID string) ([]*Recommendation, error) {
	ctx, span := e.tracer.Start(ctx, "recommend.generate")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	now := time.Now().UTC()
	triggers, err := e.collectTriggers(ctx, userID, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var created []*Recommendation
	seenCategory := make(map[string]bool)
	for _, tr := range triggers {
		if len(created) >= e.config.MaxPerRun {
			break
		}
		tmpl, ok := lookupTemplate(tr.key)
		if !ok {
			continue
		}

		catKey := string(tr.key.Pillar) + "|" + tmpl.Category
		if seenCategory[catKey] {
			continue
		}
		blocked, err := e.store.HasPendingRecommendation(ctx, userID, tr.key.Pillar, tmpl.Category)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to check pending recommendations: %w", err)
		}
		if blocked {
			continue
		}
		seenCategory[catKey] = true

		rec := &Recommendation{
			ID:                  uuid.New().String(),
			UserID:              userID,
			Pillar:              tr.key.Pillar,
			Category:            tmpl.Category,
			Title:               tmpl.Title,
			Description:         tmpl.Description,
			ActionItems:         tmpl.ActionItems,
			Priority:            priorityFor(tr.severity, tmpl.Impact),
			ExpectedImpact:      tmpl.Impact,
			EstimatedEffort:     tmpl.Effort,
			Quadrant:            Classify(tmpl.Impact, tmpl.Effort),
			Reasoning:           tr.reasoning,
			SourceCorrelationID: tr.correlationID,
			Status:              StatusPending,
			CreatedAt:           now,
		}
		created = append(created, rec)
	}

	if len(created) > 0 {
		if err := e.store.SaveRecommendations(ctx, created); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to save recommendations: %w", err)
		}
	}

	if e.recCounter != nil {
		e.recCounter.Add(ctx, int64(len(created)))
	}

	e.logger.Info("recommendation generation complete",
		zap.String("user_id", userID),
		zap.Int("triggers", len(triggers)),
		zap.Int("created", len(created)),
	)

	span.SetAttributes(attribute.Int("created", len(created)))
	return created, nil
}

// collectTriggers gathers eligible sources ordered by severity, then
// recency (newest first). Recency is the documented tie-break for equal
// severity and impact.
func (e *Engine) collectTriggers(ctx context.Context, userID string, now time.Time) ([]trigger, error) {
	ins, err := e.insights.List(ctx, userID, insight.ListFilter{
		UnreadOnly: true,
		Since:      now.Add(-e.config.InsightLookback),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list source insights: %w", err)
	}

	var triggers []trigger
	for _, in := range ins {
		cond, ok := conditionFor(in)
		if !ok {
			continue
		}
		triggers = append(triggers, trigger{
			key:       TemplateKey{Pillar: in.Pillar, Metric: in.Metric, Condition: cond},
			severity:  in.Severity,
			reasoning: in.Description,
			createdAt: in.CreatedAt,
		})
	}

	if e.correlations != nil {
		corrs, err := e.correlations.List(ctx, userID, e.config.CorrelationDays)
		if err != nil {
			// Correlations are an enrichment; insights alone still produce
			// useful recommendations.
			e.logger.Warn("correlations unavailable for recommendations", zap.Error(err))
		} else {
			for _, c := range corrs {
				if !c.IsSignificant || c.Strength == correlation.StrengthWeak {
					continue
				}
				if metrics.GoodnessAlignment(c.Key1(), c.Key2(), c.Coefficient) >= 0 {
					continue
				}
				sev := insight.SeverityMedium
				if c.Strength == correlation.StrengthStrong {
					sev = insight.SeverityHigh
				}
				triggers = append(triggers, trigger{
					key:           TemplateKey{Pillar: c.Pillar1, Metric: c.Metric1, Condition: CondTradeoff},
					severity:      sev,
					reasoning:     c.Explanation,
					correlationID: c.ID,
					createdAt:     c.DiscoveredAt,
				})
			}
		}
	}

	sort.SliceStable(triggers, func(i, j int) bool {
		if triggers[i].severity.Rank() != triggers[j].severity.Rank() {
			return triggers[i].severity.Rank() > triggers[j].severity.Rank()
		}
		return triggers[i].createdAt.After(triggers[j].createdAt)
	})
	return triggers, nil
}

// conditionFor maps an insight onto a rule condition. Positive findings
// (achievements, improving trends) do not trigger recommendations.
func conditionFor(in *insight.Insight) (Condition, bool) {
	switch in.Type {
	case insight.TypeAnomaly:
		return CondAnomaly, true
	case insight.TypeTrend:
		if in.Actionable {
			return CondWorsening, true
		}
	case insight.TypeWarning:
		return CondTradeoff, true
	}
	return "", false
}

// priorityFor derives the 1-5 priority: critical and high severity sources
// map to 4-5, and high expected impact nudges priority up by one, capped
// at 5.
func priorityFor(severity insight.Severity, impact Impact) int {
	var p int
	switch severity {
	case insight.SeverityCritical:
		p = 5
	case insight.SeverityHigh:
		p = 4
	case insight.SeverityMedium:
		p = 3
	case insight.SeverityLow:
		p = 2
	default:
		p = 1
	}
	if impact == ImpactHigh {
		p++
	}
	if p > 5 {
		p = 5
	}
	return p
}

// List returns stored recommendations matching the filter.
func (e *Engine) List(ctx context.Context, userID string, f ListFilter) ([]*Recommendation, error) {
	out, err := e.store.ListRecommendations(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	return out, nil
}

// UpdateStatus transitions a recommendation's lifecycle state. CompletedAt
// is stamped when the new status is completed.
func (e *Engine) UpdateStatus(ctx context.Context, userID, id string, status Status, outcome string) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	var completedAt *time.Time
	if status == StatusCompleted {
		t := time.Now().UTC()
		completedAt = &t
	}
	if err := e.store.UpdateRecommendationStatus(ctx, userID, id, status, outcome, completedAt); err != nil {
		return fmt.Errorf("failed to update recommendation: %w", err)
	}
	return nil
}
