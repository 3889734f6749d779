package database

import (
	"context"
	"database/sql"
	"encoding/json"

	apperrors "github.com/ZanzyTHEbar/creative-o-meter/internal/errors"
)

const (
	// DefaultRecentLimit is used when a caller asks for zero or fewer records
	DefaultRecentLimit = 20
	// MaxRecentLimit caps a single history page
	MaxRecentLimit = 100
)

// Repository handles prompt history persistence
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// SavePrompt stores one composed prompt
func (r *Repository) SavePrompt(ctx context.Context, rec *PromptRecord) error {
	selected, err := json.Marshal(rec.Selected)
	if err != nil {
		return apperrors.NewStorageError("encode selected phrases", err)
	}

	var twist sql.NullString
	if rec.Twist != nil {
		twist = sql.NullString{String: *rec.Twist, Valid: true}
	}

	stmt, err := r.db.GetPreparedStatement(stmtInsertPrompt)
	if err != nil {
		return apperrors.NewStorageError("save prompt", err)
	}

	if _, err := stmt.ExecContext(ctx, rec.ID, rec.Prompt, rec.Score, rec.Threshold, twist, string(selected), rec.CreatedAt); err != nil {
		return apperrors.NewStorageError("save prompt", err)
	}

	return nil
}

// ClampLimit normalizes a requested page size
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRecentLimit
	case limit > MaxRecentLimit:
		return MaxRecentLimit
	}
	return limit
}

// RecentPrompts returns up to limit prompts, newest first
func (r *Repository) RecentPrompts(ctx context.Context, limit int) ([]PromptRecord, error) {
	stmt, err := r.db.GetPreparedStatement(stmtRecentPrompts)
	if err != nil {
		return nil, apperrors.NewStorageError("load recent prompts", err)
	}

	rows, err := stmt.QueryContext(ctx, ClampLimit(limit))
	if err != nil {
		return nil, apperrors.NewStorageError("load recent prompts", err)
	}
	defer rows.Close()

	records := make([]PromptRecord, 0, ClampLimit(limit))
	for rows.Next() {
		var (
			rec      PromptRecord
			twist    sql.NullString
			selected string
		)
		if err := rows.Scan(&rec.ID, &rec.Prompt, &rec.Score, &rec.Threshold, &twist, &selected, &rec.CreatedAt); err != nil {
			return nil, apperrors.NewStorageError("scan prompt", err)
		}
		if twist.Valid {
			t := twist.String
			rec.Twist = &t
		}
		if err := json.Unmarshal([]byte(selected), &rec.Selected); err != nil {
			return nil, apperrors.NewStorageError("decode selected phrases", apperrors.WrapError(err, "prompt %s", rec.ID))
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("load recent prompts", err)
	}

	return records, nil
}

// CountPrompts returns the number of stored prompts
func (r *Repository) CountPrompts(ctx context.Context) (int, error) {
	stmt, err := r.db.GetPreparedStatement(stmtCountPrompts)
	if err != nil {
		return 0, apperrors.NewStorageError("count prompts", err)
	}

	var count int
	if err := stmt.QueryRowContext(ctx).Scan(&count); err != nil {
		return 0, apperrors.NewStorageError("count prompts", err)
	}
	return count, nil
}
