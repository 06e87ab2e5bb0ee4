package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"spam-classifier/internal/apperr"
	"spam-classifier/internal/inference"
	"spam-classifier/internal/models"
	"spam-classifier/internal/repository"
)

// Classifier scores a text.
type Classifier interface {
	Predict(text string) inference.Prediction
}

// SpamService handles prediction and prompt bookkeeping
type SpamService struct {
	classifier Classifier
	repo       repository.PromptRepository
	logger     *zap.Logger
}

// NewSpamService creates a new spam service
func NewSpamService(classifier Classifier, repo repository.PromptRepository, logger *zap.Logger) *SpamService {
	return &SpamService{
		classifier: classifier,
		repo:       repo,
		logger:     logger,
	}
}

// Predict returns the class name of text.
func (s *SpamService) Predict(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: Text is required", apperr.ErrValidation)
	}
	p := s.classifier.Predict(text)
	s.logger.Debug("Text classified",
		zap.String("prediction", p.Label.String()),
		zap.Float64("spam_probability", p.Probability))
	return p.Label.String(), nil
}

// SavePrompt stores a user-labelled example verbatim. Only empty fields are rejected.
func (s *SpamService) SavePrompt(ctx context.Context, text, classification string) (*models.Prompt, error) {
	if text == "" || classification == "" {
		return nil, fmt.Errorf("%w: Missing text or classification", apperr.ErrValidation)
	}
	if utf8.RuneCountInString(classification) > models.MaxClassificationLen {
		return nil, fmt.Errorf("%w: classification must be at most %d characters",
			apperr.ErrValidation, models.MaxClassificationLen)
	}

	prompt := &models.Prompt{Text: text, Classification: classification}
	if err := s.repo.SavePrompt(ctx, prompt); err != nil {
		return nil, err
	}

	s.logger.Info("Prompt saved",
		zap.Int64("id", prompt.ID),
		zap.String("classification", classification))
	return prompt, nil
}

func (s *SpamService) ListPrompts(ctx context.Context) ([]*models.Prompt, error) {
	return s.repo.GetAllPrompts(ctx)
}

// DeletePrompt removes one prompt; a missing id yields apperr.ErrNotFound.
func (s *SpamService) DeletePrompt(ctx context.Context, id int64) error {
	if err := s.repo.DeletePrompt(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Prompt deleted", zap.Int64("id", id))
	return nil
}

func (s *SpamService) ClearPrompts(ctx context.Context) error {
	_, err := s.repo.ClearPrompts(ctx)
	return err
}
