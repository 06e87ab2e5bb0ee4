package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"spam-classifier/internal/models"
)

// Client is a client for the spam classifier HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Predict classifies a single text
func (c *Client) Predict(ctx context.Context, text string) (*models.PredictResponse, error) {
	var result models.PredictResponse
	if err := c.do(ctx, http.MethodPost, "/predict", models.PredictRequest{Text: text}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SavePrompt stores a labelled example
func (c *Client) SavePrompt(ctx context.Context, text, classification string) (*models.MessageResponse, error) {
	var result models.MessageResponse
	req := models.SavePromptRequest{Text: text, Classification: classification}
	if err := c.do(ctx, http.MethodPost, "/api/savePrompt", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPrompts lists the stored prompts
func (c *Client) GetPrompts(ctx context.Context) ([]models.Prompt, error) {
	var result []models.Prompt
	if err := c.do(ctx, http.MethodGet, "/api/getPrompts", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// DeletePrompt deletes one prompt by id
func (c *Client) DeletePrompt(ctx context.Context, id int64) (*models.MessageResponse, error) {
	var result models.MessageResponse
	if err := c.do(ctx, http.MethodDelete, "/api/deletePrompt/"+strconv.FormatInt(id, 10), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ClearPrompts deletes every prompt
func (c *Client) ClearPrompts(ctx context.Context) (*models.MessageResponse, error) {
	var result models.MessageResponse
	if err := c.do(ctx, http.MethodDelete, "/api/clearPrompts", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// HealthCheck checks if the service is healthy
func (c *Client) HealthCheck(ctx context.Context) (*models.HealthResponse, error) {
	var result models.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("service returned status %d: %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		var e models.ErrorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return &StatusError{StatusCode: resp.StatusCode, Message: e.Error}
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: string(data)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
