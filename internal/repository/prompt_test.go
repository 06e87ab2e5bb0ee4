package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"spam-classifier/internal/apperr"
	"spam-classifier/internal/models"
)

func newTestRepo(t *testing.T) PromptRepository {
	t.Helper()
	logger := zap.NewNop()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "data", "prompts.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, MigrateDB(db, logger))
	return NewPromptRepository(db, logger)
}

func TestPromptLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	empty, err := repo.GetAllPrompts(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	first := &models.Prompt{Text: "win cash", Classification: "spam"}
	second := &models.Prompt{Text: "lunch at noon", Classification: "ham"}
	require.NoError(t, repo.SavePrompt(ctx, first))
	require.NoError(t, repo.SavePrompt(ctx, second))
	assert.Equal(t, first.ID+1, second.ID)

	all, err := repo.GetAllPrompts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []*models.Prompt{first, second}, all)

	require.NoError(t, repo.DeletePrompt(ctx, first.ID))
	err = repo.DeletePrompt(ctx, first.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	n, err := repo.ClearPrompts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.ClearPrompts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMigrateIsIdempotent(t *testing.T) {
	logger := zap.NewNop()
	path := filepath.Join(t.TempDir(), "prompts.db")

	db, err := NewSQLiteDB(path, logger)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, MigrateDB(db, logger))
	require.NoError(t, MigrateDB(db, logger))
}

func TestIDsAreNotReused(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	p := &models.Prompt{Text: "a", Classification: "ham"}
	require.NoError(t, repo.SavePrompt(ctx, p))
	_, err := repo.ClearPrompts(ctx)
	require.NoError(t, err)

	q := &models.Prompt{Text: "b", Classification: "ham"}
	require.NoError(t, repo.SavePrompt(ctx, q))
	assert.Greater(t, q.ID, p.ID)
}
