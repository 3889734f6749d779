package creativity

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultCellSize is the canvas cell edge in pixels
const DefaultCellSize = 20

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// GridDimensions converts a canvas size into whole cells
func GridDimensions(width, height, cellSize int) (cols, rows int) {
	if cellSize <= 0 || width <= 0 || height <= 0 {
		return 0, 0
	}
	return width / cellSize, height / cellSize
}

// CellCount returns cols*rows, reporting false when either side is not
// positive or the product does not fit in an int
func CellCount(cols, rows int) (int, bool) {
	if cols <= 0 || rows <= 0 || cols > math.MaxInt/rows {
		return 0, false
	}
	return cols * rows, true
}

// ScoreGrid runs both passes over a cols x rows grid at iteration t
//
// The first pass scores every cell and gathers max, total and the count at
// or above theta; the second normalises each cell by the max. A grid with
// no cells yields a zero summary
func (e *Engine) ScoreGrid(cols, rows int, t float64, p ScoreParameters) GridResult {
	res := GridResult{Cols: cols, Rows: rows, Iteration: t}
	total, ok := CellCount(cols, rows)
	if !ok {
		res.Cols, res.Rows = 0, 0
		return res
	}

	cells := make([]CellScore, 0, total)
	scores := make([]float64, 0, total)

	// pass 1
	for i := 0; i < cols; i++ {
		for j := 0; j < rows; j++ {
			cell := e.CompositeCell(i, j, t, cols, rows, p)
			cells = append(cells, cell)
			scores = append(scores, cell.Score)
			if cell.Score >= p.Theta {
				res.CellsAboveThreshold++
			}
		}
	}

	// max starts at zero, so an all-negative frame has max 0
	res.MaxScore = math.Max(0, floats.Max(scores))
	res.TotalScore = floats.Sum(scores)
	res.AvgScore = res.TotalScore / float64(total)
	res.ThresholdPercentage = float64(res.CellsAboveThreshold) / float64(total) * 100
	res.ScorePercentage = math.Min(res.AvgScore/p.Theta*100, 100)
	res.ThresholdReached = res.AvgScore >= p.Theta

	// pass 2
	for k := range cells {
		normalizeCell(&cells[k], res.MaxScore, t, p.Theta)
	}
	res.Cells = cells
	return res
}

// normalizeCell fills the rendering-only fields. The reported score is left
// untouched; only Visual is clamped
func normalizeCell(c *CellScore, maxScore, t, theta float64) {
	if maxScore > 0 {
		c.Normalized = c.Score / maxScore
	} else {
		c.Normalized = 0
	}
	c.Visual = clip(c.Normalized, 0, 1)
	c.Twist = c.Score >= theta
	if c.Twist {
		c.Hue = math.Mod(float64((c.I*c.J)%360)+t*0.1, 360)
		c.Brightness = 0
		return
	}
	c.Hue = 0
	c.Brightness = int(math.Floor(c.Visual * 255))
}
