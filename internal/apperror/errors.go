package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Coded is implemented by every error that knows which HTTP status it maps to.
type Coded interface {
	error
	HTTPCode() int
}

// ValidationError is a bad user input: phone, size, type, copies or a missing upload.
type ValidationError struct {
	Field   string
	File    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) HTTPCode() int { return http.StatusBadRequest }

// UnreadableDocumentError means the page count could not be extracted at all.
// It is distinct from a document that parsed fine and has zero pages.
type UnreadableDocumentError struct {
	File string
	Err  error
}

func (e *UnreadableDocumentError) Error() string {
	return fmt.Sprintf("%s: unreadable document: %v", e.File, e.Err)
}

func (e *UnreadableDocumentError) Unwrap() error { return e.Err }

func (e *UnreadableDocumentError) HTTPCode() int { return http.StatusUnprocessableEntity }

// UploadError aborts the whole submission.
type UploadError struct {
	File string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s failed: %v", e.File, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

func (e *UploadError) HTTPCode() int { return http.StatusBadGateway }

// PersistenceError wraps a failed order store call.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("order store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) HTTPCode() int { return http.StatusInternalServerError }

// ConfigurationError lists required settings that are missing at startup.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "missing required configuration: " + strings.Join(e.Missing, ", ")
}

func (e *ConfigurationError) HTTPCode() int { return http.StatusInternalServerError }

// HTTPCode returns the status of the first coded error in err's chain, or 500.
func HTTPCode(err error) int {
	var coded Coded
	if errors.As(err, &coded) {
		return coded.HTTPCode()
	}
	return http.StatusInternalServerError
}

// Kind is a short label used for metrics and JSON error bodies.
func Kind(err error) string {
	var (
		ve *ValidationError
		ue *UnreadableDocumentError
		up *UploadError
		pe *PersistenceError
		ce *ConfigurationError
	)
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &ue):
		return "unreadable_document"
	case errors.As(err, &up):
		return "upload"
	case errors.As(err, &pe):
		return "persistence"
	case errors.As(err, &ce):
		return "configuration"
	default:
		return "internal"
	}
}
