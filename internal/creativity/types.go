package creativity

import "fmt"

// Attribute names in the fixed iteration order used by every pairwise sum
const (
	Subject = "subject"
	Style   = "style"
	Mood    = "mood"
	Detail  = "detail"
	Context = "context"
)

// AttributeNames is the stable order of the five creative dimensions
var AttributeNames = [5]string{Subject, Style, Mood, Detail, Context}

// AttributeVector holds the five creative dimensions, nominally in [0,1]
type AttributeVector struct {
	Subject float64 `json:"subject" yaml:"subject"`
	Style   float64 `json:"style" yaml:"style"`
	Mood    float64 `json:"mood" yaml:"mood"`
	Detail  float64 `json:"detail" yaml:"detail"`
	Context float64 `json:"context" yaml:"context"`
}

// DefaultAttributeVector returns the starting slider positions
func DefaultAttributeVector() AttributeVector {
	return AttributeVector{
		Subject: 0.7,
		Style:   0.6,
		Mood:    0.5,
		Detail:  0.8,
		Context: 0.4,
	}
}

// RandomAttributeVector draws every component independently from src
func RandomAttributeVector(src Source) AttributeVector {
	return AttributeVector{
		Subject: src.Float64(),
		Style:   src.Float64(),
		Mood:    src.Float64(),
		Detail:  src.Float64(),
		Context: src.Float64(),
	}
}

// Values returns the components in AttributeNames order
func (v AttributeVector) Values() [5]float64 {
	return [5]float64{v.Subject, v.Style, v.Mood, v.Detail, v.Context}
}

// Get returns the component with the given name
func (v AttributeVector) Get(name string) (float64, bool) {
	switch name {
	case Subject:
		return v.Subject, true
	case Style:
		return v.Style, true
	case Mood:
		return v.Mood, true
	case Detail:
		return v.Detail, true
	case Context:
		return v.Context, true
	}
	return 0, false
}

// Set mutates a single component in place, as a slider drag does
func (v *AttributeVector) Set(name string, value float64) error {
	switch name {
	case Subject:
		v.Subject = value
	case Style:
		v.Style = value
	case Mood:
		v.Mood = value
	case Detail:
		v.Detail = value
	case Context:
		v.Context = value
	default:
		return fmt.Errorf("unknown attribute %q", name)
	}
	return nil
}

// ScoreParameters are the canvas controls. They are owned by the caller and
// passed by value on every call
type ScoreParameters struct {
	Alpha float64 `json:"alpha"` // deterministic weight, [0,1]
	Beta  float64 `json:"beta"`  // random amplitude, [0,1]
	Gamma float64 `json:"gamma"` // creativity factor, [0,1]
	Delta float64 `json:"delta"` // decay factor, [0,0.2]
	Theta float64 `json:"theta"` // creativity threshold, [0.1,1]
}

// DefaultScoreParameters returns the canvas start-up values
func DefaultScoreParameters() ScoreParameters {
	return ScoreParameters{
		Alpha: 0.5,
		Beta:  0.3,
		Gamma: 0.7,
		Delta: 0.05,
		Theta: 0.6,
	}
}

// Validate reports parameters outside their slider ranges. The engine itself
// never calls this; it is for request binding at the edges
func (p ScoreParameters) Validate() map[string]string {
	problems := make(map[string]string)
	check := func(name string, v, lo, hi float64) {
		if v < lo || v > hi {
			problems[name] = fmt.Sprintf("must be within [%g, %g], got %g", lo, hi, v)
		}
	}
	check("alpha", p.Alpha, 0, 1)
	check("beta", p.Beta, 0, 1)
	check("gamma", p.Gamma, 0, 1)
	check("delta", p.Delta, 0, 0.2)
	check("theta", p.Theta, 0.1, 1)
	return problems
}

// CellScore is one grid cell for one frame
type CellScore struct {
	I int `json:"i"`
	J int `json:"j"`

	S1 float64 `json:"s1"`
	S2 float64 `json:"s2"`
	S3 float64 `json:"s3"`

	N             float64 `json:"n"`
	Deterministic float64 `json:"deterministic"`
	Epsilon       float64 `json:"epsilon"`
	Decay         float64 `json:"decay"`
	Score         float64 `json:"score"`

	// Rendering-only values filled by the second grid pass
	Normalized float64 `json:"normalized"`
	Visual     float64 `json:"visual"`
	Twist      bool    `json:"twist"`
	Hue        float64 `json:"hue,omitempty"`
	Brightness int     `json:"brightness,omitempty"`
}

// GridResult is the outcome of one frame over a cols x rows grid
type GridResult struct {
	Cols      int     `json:"cols"`
	Rows      int     `json:"rows"`
	Iteration float64 `json:"iteration"`

	// Cells is column-major: cell (i, j) lives at i*Rows + j
	Cells []CellScore `json:"cells,omitempty"`

	MaxScore            float64 `json:"max_score"`
	TotalScore          float64 `json:"total_score"`
	AvgScore            float64 `json:"avg_score"`
	CellsAboveThreshold int     `json:"cells_above_threshold"`
	ThresholdPercentage float64 `json:"threshold_percentage"`
	ScorePercentage     float64 `json:"score_percentage"`
	ThresholdReached    bool    `json:"threshold_reached"`
}

// At returns cell (i, j)
func (g GridResult) At(i, j int) CellScore {
	return g.Cells[i*g.Rows+j]
}

// Summary returns a copy without the per-cell slice
func (g GridResult) Summary() GridResult {
	g.Cells = nil
	return g
}
