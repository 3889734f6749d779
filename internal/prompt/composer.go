package prompt

import (
	"fmt"
	"math"

	"github.com/ZanzyTHEbar/creative-o-meter/internal/creativity"
)

// Result is one composed prompt
type Result struct {
	Prompt          string            `json:"prompt"`
	SelectedPhrases map[string]string `json:"selected_phrases"`
	TwistApplied    *string           `json:"twist_applied"`
	Score           float64           `json:"score"`
	Threshold       float64           `json:"threshold"`
	ThresholdMet    bool              `json:"threshold_met"`
}

// PhraseIndex maps an attribute value onto a bucket of n phrases as
// floor(value*n) mod n. The result is always within [0, n) for n > 0,
// including value == 1 and out-of-range values
func PhraseIndex(value float64, n int) int {
	if n <= 0 {
		return 0
	}
	idx := int(math.Floor(value * float64(n)))
	return ((idx % n) + n) % n
}

func pickTwist(twists []string, src creativity.Source) *string {
	if len(twists) == 0 {
		return nil
	}
	idx := int(src.Float64() * float64(len(twists)))
	idx = min(max(idx, 0), len(twists)-1)
	twist := twists[idx]
	return &twist
}

// Compose selects one phrase per attribute and appends a twist drawn from
// src when the synergy score reaches threshold
func Compose(v creativity.AttributeVector, vocab Vocabulary, twists []string, threshold float64, src creativity.Source) (*Result, error) {
	if err := vocab.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		src = creativity.GlobalSource()
	}

	selected := make(map[string]string, len(creativity.AttributeNames))
	values := v.Values()
	for k, key := range creativity.AttributeNames {
		bucket := vocab[key]
		selected[key] = bucket[PhraseIndex(values[k], len(bucket))]
	}

	score := creativity.SynergyScore(v)
	res := &Result{
		SelectedPhrases: selected,
		Score:           score,
		Threshold:       threshold,
		ThresholdMet:    score >= threshold,
	}

	suffix := ""
	if res.ThresholdMet {
		res.TwistApplied = pickTwist(twists, src)
		if res.TwistApplied != nil {
			suffix = *res.TwistApplied
		}
	}

	res.Prompt = fmt.Sprintf("%s depicted as a %s in a %s tone, featuring %s %s%s",
		selected[creativity.Subject],
		selected[creativity.Style],
		selected[creativity.Mood],
		selected[creativity.Detail],
		selected[creativity.Context],
		suffix,
	)
	return res, nil
}

// Composer holds a vocabulary and threshold for repeated use
type Composer struct {
	Vocabulary Vocabulary
	Twists     []string
	Threshold  float64
	// Lead is prepended verbatim, e.g. "Imagine "
	Lead   string
	Source creativity.Source
}

// NewComposer returns a composer over the built-in vocabulary
func NewComposer(src creativity.Source) *Composer {
	return &Composer{
		Vocabulary: DefaultVocabulary(),
		Twists:     DefaultTwists(),
		Threshold:  DefaultThreshold,
		Source:     src,
	}
}

// Compose runs Compose with the composer's settings
func (c *Composer) Compose(v creativity.AttributeVector) (*Result, error) {
	return c.ComposeWithThreshold(v, c.Threshold)
}

// ComposeWithThreshold overrides the configured threshold for one call
func (c *Composer) ComposeWithThreshold(v creativity.AttributeVector, threshold float64) (*Result, error) {
	res, err := Compose(v, c.Vocabulary, c.Twists, threshold, c.Source)
	if err != nil {
		return nil, err
	}
	res.Prompt = c.Lead + res.Prompt
	return res, nil
}
