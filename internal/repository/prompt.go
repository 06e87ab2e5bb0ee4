package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"spam-classifier/internal/apperr"
	"spam-classifier/internal/models"
)

type PromptRepository interface {
	SavePrompt(ctx context.Context, prompt *models.Prompt) error
	GetAllPrompts(ctx context.Context) ([]*models.Prompt, error)
	DeletePrompt(ctx context.Context, id int64) error
	ClearPrompts(ctx context.Context) (int64, error)
}

type promptRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPromptRepository(db *sqlx.DB, logger *zap.Logger) PromptRepository {
	return &promptRepository{db: db, logger: logger}
}

// SavePrompt inserts the prompt and sets its ID.
func (r *promptRepository) SavePrompt(ctx context.Context, prompt *models.Prompt) error {
	query := `INSERT INTO prompts (text, classification) VALUES (?, ?)`
	result, err := r.db.ExecContext(ctx, query, prompt.Text, prompt.Classification)
	if err != nil {
		return fmt.Errorf("failed to save prompt: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	prompt.ID = id
	return nil
}

// GetAllPrompts returns every prompt in insertion order. An empty table yields an
// empty, non-nil slice.
func (r *promptRepository) GetAllPrompts(ctx context.Context) ([]*models.Prompt, error) {
	prompts := []*models.Prompt{}
	query := `SELECT id, text, classification FROM prompts ORDER BY id ASC`
	if err := r.db.SelectContext(ctx, &prompts, query); err != nil {
		return nil, fmt.Errorf("failed to query prompts: %w", err)
	}
	return prompts, nil
}

func (r *promptRepository) DeletePrompt(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM prompts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete prompt: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete prompt: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: prompt %d", apperr.ErrNotFound, id)
	}
	return nil
}

// ClearPrompts removes every prompt and reports how many were deleted.
func (r *promptRepository) ClearPrompts(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM prompts`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear prompts: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to clear prompts: %w", err)
	}
	r.logger.Info("Prompts cleared", zap.Int64("deleted", n))
	return n, nil
}
