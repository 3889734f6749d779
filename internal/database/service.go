package database

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/creative-o-meter/internal/prompt"
)

// HistoryService records composed prompts and serves them back
type HistoryService struct {
	repo *Repository
}

// NewHistoryService creates a new history service
func NewHistoryService(repo *Repository) *HistoryService {
	return &HistoryService{repo: repo}
}

// Record persists a composer result and returns the stored record
func (s *HistoryService) Record(ctx context.Context, result *prompt.Result) (*PromptRecord, error) {
	if result == nil {
		return nil, fmt.Errorf("nil prompt result")
	}

	rec := NewPromptRecord(result.Prompt, result.Score, result.Threshold, result.TwistApplied, result.SelectedPhrases)
	if err := s.repo.SavePrompt(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// HistoryPage is a page of recent prompts plus the overall total
type HistoryPage struct {
	Prompts []PromptRecord `json:"prompts"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
}

// Recent returns the newest prompts and the stored total
func (s *HistoryService) Recent(ctx context.Context, limit int) (*HistoryPage, error) {
	limit = ClampLimit(limit)

	prompts, err := s.repo.RecentPrompts(ctx, limit)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.CountPrompts(ctx)
	if err != nil {
		return nil, err
	}

	return &HistoryPage{Prompts: prompts, Total: total, Limit: limit}, nil
}
