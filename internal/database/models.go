package database

import (
	"time"

	"github.com/google/uuid"
)

// PromptRecord is one composed prompt kept in history
type PromptRecord struct {
	ID        string            `json:"id" db:"id"`
	Prompt    string            `json:"prompt" db:"prompt"`
	Score     float64           `json:"score" db:"score"`
	Threshold float64           `json:"threshold" db:"threshold"`
	Twist     *string           `json:"twist,omitempty" db:"twist"`
	Selected  map[string]string `json:"selected_phrases" db:"selected_json"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}

// NewPromptRecord creates a record with a fresh ID and timestamp
func NewPromptRecord(prompt string, score, threshold float64, twist *string, selected map[string]string) *PromptRecord {
	return &PromptRecord{
		ID:        uuid.New().String(),
		Prompt:    prompt,
		Score:     score,
		Threshold: threshold,
		Twist:     twist,
		Selected:  selected,
		CreatedAt: time.Now().UTC(),
	}
}

// TwistApplied reports whether the prompt carries a twist
func (p *PromptRecord) TwistApplied() bool {
	return p.Twist != nil
}
