package creativity

// The prompt path and the canvas path use different synergy models. They
// share a name in the UI but are not the same formula, so they stay separate
const (
	// uniform coefficient over all ten attribute pairs
	pairwiseCoefficient = 0.2
	// coefficient shown in the attribute matrix table; unrelated to the score
	matrixDisplayCoefficient = 1.2
)

// SynergyBreakdown splits the synergy score into its two sums
type SynergyBreakdown struct {
	LinearSum float64 `json:"linear_sum"`
	Synergy   float64 `json:"synergy"`
	Score     float64 `json:"score"`
}

// SynergyPair is one off-diagonal entry of the attribute matrix
type SynergyPair struct {
	Row   string  `json:"row"`
	Col   string  `json:"col"`
	Value float64 `json:"value"`
}

// fiveAttributeSynergy is the linear sum plus 0.2 times the sum of v_i * v_j
// over every unordered pair. No clamping: all-ones gives 7
func fiveAttributeSynergy(v AttributeVector) SynergyBreakdown {
	vals := v.Values()

	linear := 0.0
	for _, x := range vals {
		linear += x
	}

	products := 0.0
	for i := 0; i < len(vals); i++ {
		for j := i + 1; j < len(vals); j++ {
			products += vals[i] * vals[j]
		}
	}
	synergy := products * pairwiseCoefficient

	return SynergyBreakdown{
		LinearSum: linear,
		Synergy:   synergy,
		Score:     linear + synergy,
	}
}

// SynergyScore computes the static score for an attribute vector
func SynergyScore(v AttributeVector) float64 {
	return fiveAttributeSynergy(v).Score
}

// SynergyDetails returns the score together with its components
func SynergyDetails(v AttributeVector) SynergyBreakdown {
	return fiveAttributeSynergy(v)
}

// SynergyMatrix lists a*b*1.2 for every ordered pair of distinct attributes,
// row-major in AttributeNames order
func SynergyMatrix(v AttributeVector) []SynergyPair {
	vals := v.Values()
	pairs := make([]SynergyPair, 0, len(vals)*(len(vals)-1))
	for i, row := range AttributeNames {
		for j, col := range AttributeNames {
			if i == j {
				continue
			}
			pairs = append(pairs, SynergyPair{
				Row:   row,
				Col:   col,
				Value: vals[i] * vals[j] * matrixDisplayCoefficient,
			})
		}
	}
	return pairs
}
