// Package apperr defines the error taxonomy shared by the pipeline and the service.
package apperr

import "errors"

var (
	// ErrValidation is returned when a required field is missing or malformed.
	ErrValidation = errors.New("validation error")
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrArtifactLoad is returned when a model or vectorizer artifact is missing or corrupt.
	ErrArtifactLoad = errors.New("artifact load error")
	// ErrTraining is returned when training input is degenerate.
	ErrTraining = errors.New("training error")
)
