package creativity

import "math"

var (
	// per-axis growth rates of the positional attributes over iterations
	s1Growth float64 = 0.0005
	s2Growth float64 = 0.0003
	s3Growth float64 = 0.0001

	// fixed cross-pair coefficients of the three-attribute grid model
	lambda12 float64 = 0.2
	lambda13 float64 = 0.15
	lambda23 float64 = 0.25

	squashSteepness float64 = 5
	omega           float64 = 0.01 // angular frequency of the perturbation
	phaseStep       float64 = 0.1  // phase offset per unit of i*j
	noiseAmplitude  float64 = 0.1  // xi ~ U[0, noiseAmplitude)
	decayRate       float64 = 0.01
)

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// DecayTerm computes ln(1 + 0.01*t); zero at t=0
func DecayTerm(t float64) float64 {
	return math.Log(1 + t*decayRate)
}

// PositionalAttributes derives s1, s2, s3 for cell (i, j) at iteration t
func PositionalAttributes(i, j int, t float64, cols, rows int) (s1, s2, s3 float64) {
	fi, fj := float64(i), float64(j)
	s1 = (fi / float64(cols)) * (1 + t*s1Growth)
	s2 = (fj / float64(rows)) * (1 + t*s2Growth)
	s3 = ((fi + fj) / float64(cols+rows)) * (1 + t*s3Growth)
	return s1, s2, s3
}

// threeAttributeGridSynergy is the neighbourhood influence
// N = a*s1 + b*s2 + g*s3 + l12*s1*s2 + l13*s1*s3 + l23*s2*s3
func threeAttributeGridSynergy(s1, s2, s3 float64, p ScoreParameters) float64 {
	return p.Alpha*s1 + p.Beta*s2 + p.Gamma*s3 +
		(lambda12*s1*s2 + lambda13*s1*s3 + lambda23*s2*s3)
}

// Engine computes scores. Its only state is the randomness source
type Engine struct {
	rng Source
}

// NewEngine creates an engine drawing noise from rng. A nil rng falls back
// to GlobalSource
func NewEngine(rng Source) *Engine {
	if rng == nil {
		rng = GlobalSource()
	}
	return &Engine{rng: rng}
}

// Source returns the engine's randomness source
func (e *Engine) Source() Source { return e.rng }

// SynergyScore is the static five-attribute score
func (e *Engine) SynergyScore(v AttributeVector) float64 {
	return SynergyScore(v)
}

// DeterministicCell computes every term of the composite score except the
// noise draw. Epsilon holds only the sinusoidal part
func DeterministicCell(i, j int, t float64, cols, rows int, p ScoreParameters) CellScore {
	s1, s2, s3 := PositionalAttributes(i, j, t, cols, rows)
	n := threeAttributeGridSynergy(s1, s2, s3, p)
	det := sigmoid(squashSteepness * n)
	phi := float64(i*j) * phaseStep
	wave := p.Beta * math.Sin(omega*t+phi)
	decay := p.Delta * DecayTerm(t)

	return CellScore{
		I:             i,
		J:             j,
		S1:            s1,
		S2:            s2,
		S3:            s3,
		N:             n,
		Deterministic: det,
		Epsilon:       wave,
		Decay:         decay,
		Score:         p.Gamma*det + wave - decay,
	}
}

// CompositeCell computes the full composite score for one cell, drawing one
// noise value from the engine's source
func (e *Engine) CompositeCell(i, j int, t float64, cols, rows int, p ScoreParameters) CellScore {
	cell := DeterministicCell(i, j, t, cols, rows, p)
	xi := e.rng.Float64() * noiseAmplitude
	cell.Epsilon += xi
	cell.Score += xi
	return cell
}

// CompositeScore is Score = g*C_det + eps - d*ln(1 + 0.01t). Never clamped
func (e *Engine) CompositeScore(i, j int, t float64, cols, rows int, p ScoreParameters) float64 {
	return e.CompositeCell(i, j, t, cols, rows, p).Score
}
