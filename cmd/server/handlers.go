package main

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/creative-o-meter/internal/creativity"
	apperrors "github.com/ZanzyTHEbar/creative-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/types"
)

const healthCheckTimeout = 2 * time.Second

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(apperrors.NewValidationError("invalid JSON body", err.Error()))
		return false
	}
	return true
}

func synergyResponse(v creativity.AttributeVector, withAttributes bool) types.SynergyResponse {
	d := creativity.SynergyDetails(v)
	resp := types.SynergyResponse{
		Score:     d.Score,
		LinearSum: d.LinearSum,
		Synergy:   d.Synergy,
		Matrix:    creativity.SynergyMatrix(v),
	}
	if withAttributes {
		resp.Attributes = &v
	}
	return resp
}

func (s *server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	resp := types.HealthResponse{
		Status:    "ok",
		Version:   version,
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    map[string]string{},
		Metrics:   s.metrics.GetStats(),
	}
	code := http.StatusOK

	if err := s.db.HealthCheck(ctx); err != nil {
		resp.Checks["database"] = "error: " + err.Error()
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	} else {
		resp.Checks["database"] = "ok"
	}

	switch {
	case !s.redis.IsEnabled():
		resp.Checks["redis"] = "disabled"
	case s.redis.HealthCheck(ctx) != nil:
		// limiting continues in memory
		resp.Checks["redis"] = "error"
		resp.Status = "degraded"
	default:
		resp.Checks["redis"] = "ok"
	}

	c.JSON(code, resp)
}

func (s *server) handleDefaultAttributes(c *gin.Context) {
	c.JSON(http.StatusOK, synergyResponse(creativity.DefaultAttributeVector(), true))
}

func (s *server) handleRandomAttributes(c *gin.Context) {
	v := creativity.RandomAttributeVector(s.engine.Source())
	c.JSON(http.StatusOK, synergyResponse(v, true))
}

func (s *server) handleSynergy(c *gin.Context) {
	var req types.SynergyRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := problemsError(types.ValidateVector(req.AttributeVector)); err != nil {
		_ = c.Error(err)
		return
	}

	resp := synergyResponse(req.AttributeVector, false)
	s.metrics.IncrementSynergyScore()
	s.logger.ScoreLogger(resp.Score, resp.LinearSum, resp.Synergy, false)

	c.JSON(http.StatusOK, resp)
}

func (s *server) handleComposePrompt(c *gin.Context) {
	var req types.PromptRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := problemsError(types.ValidateVector(req.AttributeVector)); err != nil {
		_ = c.Error(err)
		return
	}

	threshold := s.composer.Threshold
	if req.Threshold != nil {
		if *req.Threshold < 0 {
			_ = c.Error(apperrors.NewValidationError("threshold must not be negative", *req.Threshold))
			return
		}
		threshold = *req.Threshold
	}

	composer := *s.composer
	if req.Lead != "" {
		lead, err := s.security.CleanInput("lead", req.Lead)
		if err != nil {
			_ = c.Error(err)
			return
		}
		if lead != "" {
			composer.Lead = lead + " "
		}
	}

	result, err := composer.ComposeWithThreshold(req.AttributeVector, threshold)
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp := types.PromptResponse{CreatedAt: time.Now().UTC(), Result: result}

	// a history failure does not lose the composed prompt
	if rec, err := s.history.Record(c.Request.Context(), result); err != nil {
		slog.Warn("Failed to record prompt history", "error", err)
	} else {
		resp.ID = rec.ID
		resp.CreatedAt = rec.CreatedAt
	}

	s.metrics.RecordPrompt(result.TwistApplied != nil)
	s.logger.PromptLogger(resp.ID, result.Score, result.Threshold, result.TwistApplied != nil, len(result.Prompt))

	c.JSON(http.StatusCreated, resp)
}

func (s *server) handleRecentPrompts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		_ = c.Error(apperrors.NewValidationError("limit must be an integer", c.Query("limit")))
		return
	}

	page, err := s.history.Recent(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (s *server) handleFrame(c *gin.Context) {
	var req types.FrameRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Cols == 0 && req.Rows == 0 && req.Width == 0 && req.Height == 0 {
		req.Width, req.Height = s.cfg.CanvasWidth, s.cfg.CanvasHeight
	}
	if err := problemsError(req.Validate(s.cfg.CellSize, s.cfg.MaxGridCells)); err != nil {
		_ = c.Error(err)
		return
	}

	engine := s.engine
	if req.Seed != nil {
		engine = creativity.NewEngine(creativity.NewSeededSource(*req.Seed))
	}

	cols, rows := req.Grid(s.cfg.CellSize)
	start := time.Now()
	grid := engine.ScoreGrid(cols, rows, float64(req.Iteration), req.ScoreParameters())

	s.metrics.RecordFrame(cols * rows)
	s.logger.FrameLogger(req.Iteration, cols, rows, grid.AvgScore, grid.ThresholdReached, time.Since(start))

	if !req.WantsCells() {
		grid = grid.Summary()
	}
	c.JSON(http.StatusOK, grid)
}

func problemsError(problems map[string]string) error {
	if len(problems) == 0 {
		return nil
	}
	return apperrors.NewValidationErrorWithMap(problems)
}
