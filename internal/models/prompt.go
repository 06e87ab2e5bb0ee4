package models

// MaxClassificationLen is the width of the prompts.classification column.
const MaxClassificationLen = 10

// Prompt is a user-submitted example with the class the user assigned to it.
type Prompt struct {
	ID             int64  `json:"id" db:"id"`
	Text           string `json:"text" db:"text"`
	Classification string `json:"classification" db:"classification"`
}

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	Text string `json:"text"`
}

// PredictResponse carries the predicted class name, "ham" or "spam".
type PredictResponse struct {
	Prediction string `json:"prediction"`
}

// SavePromptRequest is the body of POST /api/savePrompt.
type SavePromptRequest struct {
	Text           string `json:"text"`
	Classification string `json:"classification"`
}

// MessageResponse is the acknowledgement returned by mutating endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status          string `json:"status"`
	Service         string `json:"service"`
	Model           string `json:"model"`
	ArtifactVersion string `json:"artifact_version"`
}
