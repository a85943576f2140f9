package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors in the scoring pipeline
type ErrorType string

const (
	// ErrorTypeDecode indicates an unreadable or corrupt image; recovered
	// per item, never fatal to a batch.
	ErrorTypeDecode ErrorType = "decode"
	// ErrorTypeLowQuality indicates a curation-time rejection for images
	// below the minimum dimensions.
	ErrorTypeLowQuality ErrorType = "low_quality"
	// ErrorTypeDuplicate indicates a curation-time rejection for an image
	// whose pixel fingerprint was already seen in the run.
	ErrorTypeDuplicate ErrorType = "duplicate"
	// ErrorTypeEmptyCorpus indicates a calibration run that produced zero
	// valid samples; fatal to that calibration run.
	ErrorTypeEmptyCorpus ErrorType = "empty_corpus"
	// ErrorTypeModelLoad indicates a missing or corrupt weight artifact;
	// fatal at startup, no retry.
	ErrorTypeModelLoad ErrorType = "model_load"
	// ErrorTypeArchive indicates a malformed archive; fatal to that batch
	// call only.
	ErrorTypeArchive ErrorType = "archive_extraction"
	// ErrorTypePersistence indicates the persistence collaborator failed;
	// reported separately from scoring outcomes.
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeValidation indicates invalid caller input.
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeInternal indicates an unexpected internal failure.
	ErrorTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewDecodeError creates an error for unreadable or corrupt image input
func NewDecodeError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeDecode,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewLowQualityError creates a curation rejection for undersized images
func NewLowQualityError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeLowQuality,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewDuplicateError creates a curation rejection for an already-seen fingerprint
func NewDuplicateError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeDuplicate,
		Message:    message,
		StatusCode: http.StatusConflict,
		Cause:      cause,
	}
}

// NewEmptyCorpusError creates an error for calibration over zero valid samples
func NewEmptyCorpusError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeEmptyCorpus,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewModelLoadError creates an error for a missing or corrupt weight artifact
func NewModelLoadError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeModelLoad,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewArchiveError creates an error for a malformed batch archive
func NewArchiveError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeArchive,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewPersistenceError creates an error for a failed persistence collaborator call
func NewPersistenceError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypePersistence,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewValidationError creates an error for invalid caller input
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewInternalError creates an error for unexpected internal failures
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
