package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pillard/internal/briefing"
	"github.com/fyrsmithlabs/pillard/internal/insight"
	"github.com/fyrsmithlabs/pillard/internal/intelligence"
	"github.com/fyrsmithlabs/pillard/internal/metrics"
	"github.com/fyrsmithlabs/pillard/internal/predict"
	"github.com/fyrsmithlabs/pillard/internal/recommend"
	"github.com/fyrsmithlabs/pillard/internal/store"
)

// IngestRequest is the request body for POST /api/v1/samples.
type IngestRequest struct {
	Samples []store.Sample `json:"samples"`
}

func (s *Server) handleIngestSamples(c echo.Context) error {
	var req IngestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Samples) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "samples field is required")
	}
	if err := s.registry.Store().IngestSamples(c.Request().Context(), userID(c), req.Samples); err != nil {
		s.logger.Warn("sample ingest failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusAccepted, map[string]int{"ingested": len(req.Samples)})
}

func (s *Server) handleRunAll(c echo.Context) error {
	period, err := periodParam(c)
	if err != nil {
		return err
	}
	report, err := s.registry.Intelligence().RunAll(c.Request().Context(), userID(c), period)
	if errors.Is(err, intelligence.ErrRunInProgress) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if err != nil {
		s.logger.Error("full analysis run failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "analysis run failed")
	}
	return c.JSON(http.StatusOK, report)
}

// GenerateResponse wraps a generated batch with the partial-result flag.
type GenerateResponse struct {
	Count   int  `json:"count"`
	Partial bool `json:"partial"`
	Results any  `json:"results"`
}

func (s *Server) handleGenerateCorrelations(c echo.Context) error {
	var pillars []metrics.Pillar
	for _, raw := range c.QueryParams()["pillar"] {
		p := metrics.Pillar(raw)
		if !p.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid pillar "+raw)
		}
		pillars = append(pillars, p)
	}

	batch, partial, err := s.registry.Correlations().Analyze(c.Request().Context(), userID(c), pillars)
	if err != nil {
		s.logger.Error("correlation analysis failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "correlation analysis failed")
	}
	return c.JSON(http.StatusOK, GenerateResponse{Count: len(batch), Partial: partial, Results: batch})
}

func (s *Server) handleListCorrelations(c echo.Context) error {
	days := 90
	if raw := c.QueryParam("days"); raw != "" {
		var err error
		if days, err = strconv.Atoi(raw); err != nil || days < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be a positive integer")
		}
	}
	out, err := s.registry.Correlations().List(c.Request().Context(), userID(c), days)
	if err != nil {
		s.logger.Error("correlation listing failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "correlation listing failed")
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGenerateInsights(c echo.Context) error {
	period, err := periodParam(c)
	if err != nil {
		return err
	}
	out, partial, err := s.registry.Insights().Generate(c.Request().Context(), userID(c), period)
	if err != nil {
		s.logger.Error("insight generation failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "insight generation failed")
	}
	return c.JSON(http.StatusOK, GenerateResponse{Count: len(out), Partial: partial, Results: out})
}

func (s *Server) handleListInsights(c echo.Context) error {
	f := insight.ListFilter{
		Pillar:     metrics.Pillar(c.QueryParam("pillar")),
		Severity:   insight.Severity(c.QueryParam("severity")),
		TimePeriod: insight.TimePeriod(c.QueryParam("period")),
		UnreadOnly: c.QueryParam("unread_only") == "true",
	}
	if f.Pillar != "" && !f.Pillar.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pillar")
	}
	out, err := s.registry.Insights().List(c.Request().Context(), userID(c), f)
	if err != nil {
		s.logger.Error("insight listing failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "insight listing failed")
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleMarkInsightRead(c echo.Context) error {
	if err := s.registry.Insights().MarkRead(c.Request().Context(), userID(c), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleGenerateRecommendations(c echo.Context) error {
	out, err := s.registry.Recommendations().Generate(c.Request().Context(), userID(c))
	if err != nil {
		s.logger.Error("recommendation generation failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "recommendation generation failed")
	}
	return c.JSON(http.StatusOK, GenerateResponse{Count: len(out), Results: out})
}

func (s *Server) handleListRecommendations(c echo.Context) error {
	f := recommend.ListFilter{
		Pillar: metrics.Pillar(c.QueryParam("pillar")),
		Status: recommend.Status(c.QueryParam("status")),
	}
	if f.Pillar != "" && !f.Pillar.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pillar")
	}
	if f.Status != "" && !f.Status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	out, err := s.registry.Recommendations().List(c.Request().Context(), userID(c), f)
	if err != nil {
		s.logger.Error("recommendation listing failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "recommendation listing failed")
	}
	return c.JSON(http.StatusOK, out)
}

// StatusUpdateRequest is the request body for PATCH
// /api/v1/recommendations/:id/status.
type StatusUpdateRequest struct {
	Status  recommend.Status `json:"status"`
	Outcome string           `json:"outcome"`
}

func (s *Server) handleUpdateRecommendationStatus(c echo.Context) error {
	var req StatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !req.Status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	if err := s.registry.Recommendations().UpdateStatus(c.Request().Context(), userID(c), c.Param("id"), req.Status, req.Outcome); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleGeneratePredictions(c echo.Context) error {
	ctx := c.Request().Context()
	raw := c.QueryParam("type")
	if raw == "" {
		out, err := s.registry.Predictions().GenerateAll(ctx, userID(c))
		if err != nil {
			s.logger.Error("prediction generation failed", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "prediction generation failed")
		}
		return c.JSON(http.StatusOK, GenerateResponse{Count: len(out), Results: out})
	}

	typ := predict.Type(raw)
	if !typ.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prediction type")
	}
	out, err := s.registry.Predictions().Generate(ctx, userID(c), typ)
	if err != nil {
		s.logger.Error("prediction generation failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "prediction generation failed")
	}
	return c.JSON(http.StatusOK, GenerateResponse{Count: len(out), Results: out})
}

func (s *Server) handleListPredictions(c echo.Context) error {
	typ := predict.Type(c.QueryParam("type"))
	if typ != "" && !typ.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prediction type")
	}
	out, err := s.registry.Predictions().List(c.Request().Context(), userID(c), typ)
	if err != nil {
		s.logger.Error("prediction listing failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "prediction listing failed")
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetDailyBriefing(c echo.Context) error {
	date, err := dateParam(c, time.Now().UTC())
	if err != nil {
		return err
	}
	out, err := s.registry.Briefings().GetDaily(c.Request().Context(), userID(c), date)
	if err != nil {
		s.logger.Error("daily briefing lookup failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "daily briefing lookup failed")
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGenerateDailyBriefing(c echo.Context) error {
	date, err := dateParam(c, time.Now().UTC())
	if err != nil {
		return err
	}
	out, err := s.registry.Briefings().GenerateDaily(c.Request().Context(), userID(c), date)
	if err != nil {
		s.logger.Error("daily briefing generation failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "daily briefing generation failed")
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetWeeklyReview(c echo.Context) error {
	ctx := c.Request().Context()
	if c.QueryParam("date") == "" {
		out, err := s.registry.Briefings().LatestWeekly(ctx, userID(c))
		if errors.Is(err, briefing.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no weekly review yet")
		}
		if err != nil {
			s.logger.Error("weekly review lookup failed", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "weekly review lookup failed")
		}
		return c.JSON(http.StatusOK, out)
	}

	date, err := dateParam(c, time.Time{})
	if err != nil {
		return err
	}
	out, err := s.registry.Briefings().GetWeekly(ctx, userID(c), date)
	if err != nil {
		s.logger.Error("weekly review lookup failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "weekly review lookup failed")
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGenerateWeeklyReview(c echo.Context) error {
	date, err := dateParam(c, time.Now().UTC())
	if err != nil {
		return err
	}
	out, err := s.registry.Briefings().GenerateWeekly(c.Request().Context(), userID(c), date)
	if err != nil {
		s.logger.Error("weekly review generation failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "weekly review generation failed")
	}
	return c.JSON(http.StatusOK, out)
}

// periodParam parses the period query parameter, defaulting to daily.
func periodParam(c echo.Context) (insight.TimePeriod, error) {
	raw := c.QueryParam("period")
	if raw == "" {
		return insight.PeriodDaily, nil
	}
	period := insight.TimePeriod(raw)
	switch period {
	case insight.PeriodDaily, insight.PeriodWeekly, insight.PeriodMonthly:
		return period, nil
	}
	return "", echo.NewHTTPError(http.StatusBadRequest, "invalid period")
}

// dateParam parses the date query parameter (YYYY-MM-DD), falling back to
// fallback when absent.
func dateParam(c echo.Context, fallback time.Time) (time.Time, error) {
	raw := c.QueryParam("date")
	if raw == "" {
		return fallback, nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	return date, nil
}
