package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/creative-o-meter/internal/creativity"
	apperrors "github.com/ZanzyTHEbar/creative-o-meter/internal/errors"
)

var errStreamComplete = errors.New("frame limit reached")

// streamQuery holds the /api/canvas/stream query string. Fields keep their
// preset value when the key is absent.
type streamQuery struct {
	Alpha     float64 `form:"alpha"`
	Beta      float64 `form:"beta"`
	Gamma     float64 `form:"gamma"`
	Delta     float64 `form:"delta"`
	Theta     float64 `form:"theta"`
	Cols      int     `form:"cols"`
	Rows      int     `form:"rows"`
	Iteration int     `form:"iteration"`
	Playing   bool    `form:"playing"`
	Frames    int     `form:"frames"` // 0 streams until the client leaves
	Cells     bool    `form:"cells"`
}

func (s *server) defaultStreamQuery() streamQuery {
	p := creativity.DefaultScoreParameters()
	cols, rows := creativity.GridDimensions(s.cfg.CanvasWidth, s.cfg.CanvasHeight, s.cfg.CellSize)
	return streamQuery{
		Alpha: p.Alpha, Beta: p.Beta, Gamma: p.Gamma, Delta: p.Delta, Theta: p.Theta,
		Cols:    cols,
		Rows:    rows,
		Playing: true,
		Cells:   true,
	}
}

func (q streamQuery) params() creativity.ScoreParameters {
	return creativity.ScoreParameters{Alpha: q.Alpha, Beta: q.Beta, Gamma: q.Gamma, Delta: q.Delta, Theta: q.Theta}
}

func (s *server) validateStream(q streamQuery) error {
	problems := q.params().Validate()
	if q.Cols <= 0 || q.Rows <= 0 {
		problems["grid"] = "cols and rows must be positive"
	} else if n, ok := creativity.CellCount(q.Cols, q.Rows); !ok || n > s.cfg.MaxGridCells {
		problems["grid"] = "grid exceeds the cell limit"
	}
	if q.Iteration < 0 {
		problems["iteration"] = "must not be negative"
	}
	if q.Frames < 0 {
		problems["frames"] = "must not be negative"
	}
	return problemsError(problems)
}

// handleStream runs the animation loop for one client and sends each frame
// as a server-sent "frame" event. The loop ends when the client disconnects
// or the server shuts down, and otherwise once the requested frame count is
// reached. A paused stream sends its single frame and ends
func (s *server) handleStream(c *gin.Context) {
	q := s.defaultStreamQuery()
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(apperrors.NewValidationError("invalid stream parameters", err.Error()))
		return
	}
	if err := s.validateStream(q); err != nil {
		_ = c.Error(err)
		return
	}

	done := s.metrics.StreamOpened()
	defer done()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	animator := creativity.NewAnimator(s.engine, q.Cols, q.Rows, s.cfg.FrameRate)
	state := &creativity.AnimationState{Iteration: q.Iteration, Playing: q.Playing}
	cells := q.Cols * q.Rows

	// a paused animation without commands never draws past its first frame
	limit := q.Frames
	if !q.Playing {
		limit = 1
	}

	sent := 0
	emit := func(f creativity.Frame) error {
		if !q.Cells {
			f.Grid = f.Grid.Summary()
		}
		c.SSEvent("frame", f)
		c.Writer.Flush()

		s.metrics.RecordFrame(cells)
		sent++
		if limit > 0 && sent >= limit {
			return errStreamComplete
		}
		return nil
	}

	err := animator.Run(c.Request.Context(), state, q.params(), nil, emit)
	switch {
	case errors.Is(err, errStreamComplete):
		c.SSEvent("end", gin.H{"frames": sent, "iteration": state.Iteration})
		c.Writer.Flush()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		slog.Debug("Frame stream closed by client", "frames", sent, "ip", c.ClientIP())
	default:
		slog.Error("Frame stream failed", "error", err, "frames", sent)
	}
}
