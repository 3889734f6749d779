package types

import (
	"fmt"
	"time"

	"github.com/ZanzyTHEbar/creative-o-meter/internal/creativity"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/prompt"
)

// SynergyRequest is the body of POST /api/synergy
type SynergyRequest struct {
	creativity.AttributeVector
}

// SynergyResponse carries the score, its parts and the display matrix
type SynergyResponse struct {
	Attributes *creativity.AttributeVector `json:"attributes,omitempty"`
	Score      float64                     `json:"score"`
	LinearSum  float64                     `json:"linear_sum"`
	Synergy    float64                     `json:"synergy"`
	Matrix     []creativity.SynergyPair    `json:"matrix"`
}

// PromptRequest is the body of POST /api/prompts
type PromptRequest struct {
	creativity.AttributeVector
	Threshold *float64 `json:"threshold,omitempty"`
	Lead      string   `json:"lead,omitempty"`
}

// PromptResponse is a composed prompt as stored in history
type PromptResponse struct {
	ID        string    `json:"id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	*prompt.Result
}

// FrameRequest is the body of POST /api/canvas/frame. Either Cols/Rows or
// Width/Height (with CellSize) selects the grid.
type FrameRequest struct {
	Params       *creativity.ScoreParameters `json:"params,omitempty"`
	Cols         int                         `json:"cols,omitempty"`
	Rows         int                         `json:"rows,omitempty"`
	Width        int                         `json:"width,omitempty"`
	Height       int                         `json:"height,omitempty"`
	CellSize     int                         `json:"cell_size,omitempty"`
	Iteration    int                         `json:"iteration"`
	Seed         *int64                      `json:"seed,omitempty"`
	IncludeCells *bool                       `json:"include_cells,omitempty"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]string      `json:"checks"`
	Metrics   map[string]interface{} `json:"metrics,omitempty"`
}

// ErrorResponse is the JSON shape of every error body
type ErrorResponse struct {
	Error     string                 `json:"error"`
	Message   string                 `json:"message"`
	Category  string                 `json:"category"`
	RequestID string                 `json:"request_id,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// ValidateVector reports attribute values outside [0, 1]
func ValidateVector(v creativity.AttributeVector) map[string]string {
	problems := make(map[string]string)
	vals := v.Values()
	for k, name := range creativity.AttributeNames {
		if vals[k] < 0 || vals[k] > 1 {
			problems[name] = fmt.Sprintf("must be within [0, 1], got %g", vals[k])
		}
	}
	return problems
}

// Grid resolves the requested grid size, preferring explicit Cols/Rows
func (r FrameRequest) Grid(defaultCellSize int) (cols, rows int) {
	if r.Cols > 0 || r.Rows > 0 {
		return r.Cols, r.Rows
	}
	cellSize := r.CellSize
	if cellSize <= 0 {
		cellSize = defaultCellSize
	}
	return creativity.GridDimensions(r.Width, r.Height, cellSize)
}

// ScoreParameters returns the requested parameters or the canvas defaults
func (r FrameRequest) ScoreParameters() creativity.ScoreParameters {
	if r.Params == nil {
		return creativity.DefaultScoreParameters()
	}
	return *r.Params
}

// WantsCells reports whether the per-cell slice should be returned
func (r FrameRequest) WantsCells() bool {
	return r.IncludeCells == nil || *r.IncludeCells
}

// Validate checks the grid bounds and parameter ranges
func (r FrameRequest) Validate(defaultCellSize, maxCells int) map[string]string {
	problems := r.ScoreParameters().Validate()

	cols, rows := r.Grid(defaultCellSize)
	count, ok := creativity.CellCount(cols, rows)
	switch {
	case cols <= 0 || rows <= 0:
		problems["grid"] = "cols and rows (or width and height) must describe at least one cell"
	case !ok || (maxCells > 0 && count > maxCells):
		problems["grid"] = fmt.Sprintf("grid of %dx%d exceeds %d cells", cols, rows, maxCells)
	}
	if r.Iteration < 0 {
		problems["iteration"] = "must not be negative"
	}
	return problems
}
