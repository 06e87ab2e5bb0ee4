package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"spam-classifier/internal/apperr"
	"spam-classifier/internal/models"
	"spam-classifier/internal/service"
)

// ServiceName is reported by the health check.
const ServiceName = "spam-classifier"

// ModelInfo describes the loaded predictor for the health check.
type ModelInfo struct {
	Model   string
	Version string
}

// Handler handles HTTP requests
type Handler struct {
	spam   *service.SpamService
	info   ModelInfo
	logger *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(spam *service.SpamService, info ModelInfo, logger *zap.Logger) *Handler {
	return &Handler{
		spam:   spam,
		info:   info,
		logger: logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/predict", h.Predict)

	api := r.Group("/api")
	{
		api.POST("/savePrompt", h.SavePrompt)
		api.GET("/getPrompts", h.GetPrompts)
		api.DELETE("/clearPrompts", h.ClearPrompts)
		api.DELETE("/deletePrompt/:id", h.DeletePrompt)
	}

	r.GET("/health", h.HealthCheck)
}

// Predict classifies a single text
func (h *Handler) Predict(c *gin.Context) {
	var req models.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text is required"})
		return
	}

	prediction, err := h.spam.Predict(req.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PredictResponse{Prediction: prediction})
}

// SavePrompt stores a labelled example
func (h *Handler) SavePrompt(c *gin.Context) {
	var req models.SavePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing text or classification"})
		return
	}

	if _, err := h.spam.SavePrompt(c.Request.Context(), req.Text, req.Classification); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "Prompt saved successfully!"})
}

// GetPrompts returns every stored prompt, oldest first
func (h *Handler) GetPrompts(c *gin.Context) {
	prompts, err := h.spam.ListPrompts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, prompts)
}

// ClearPrompts deletes every prompt
func (h *Handler) ClearPrompts(c *gin.Context) {
	if err := h.spam.ClearPrompts(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "All prompts deleted"})
}

// DeletePrompt deletes one prompt by id
func (h *Handler) DeletePrompt(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid prompt ID"})
		return
	}

	if err := h.spam.DeletePrompt(c.Request.Context(), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Prompt not found"})
			return
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "Prompt deleted"})
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:          "healthy",
		Service:         ServiceName,
		Model:           h.info.Model,
		ArtifactVersion: h.info.Version,
	})
}

// respondError maps the error taxonomy onto HTTP status codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": detail(err, apperr.ErrValidation)})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": detail(err, apperr.ErrNotFound)})
	default:
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// detail drops the sentinel prefix so clients see only the specific message.
func detail(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}
