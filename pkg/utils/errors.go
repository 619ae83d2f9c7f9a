package utils

import (
	"fmt"
	"net/http"
)

// CustomError represents a custom application error
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e *CustomError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// NewTimeoutError signals a navigation that never got its turn before the
// per-site deadline
func NewTimeoutError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusRequestTimeout,
		Message: message,
	}
}

func NewValidationError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Message: "Validation failed",
		Detail:  detail,
	}
}

// Crawl specific errors

// NewAdapterNotFoundError is the structural failure for an unknown company name
func NewAdapterNotFoundError(company string) *CustomError {
	return &CustomError{
		Code:    http.StatusNotFound,
		Message: "No adapter registered for company",
		Detail:  company,
	}
}

// NewRegistryCollisionError signals a duplicate adapter registration
func NewRegistryCollisionError(company string) *CustomError {
	return &CustomError{
		Code:    http.StatusConflict,
		Message: "Adapter already registered",
		Detail:  company,
	}
}

func NewNavigationError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadGateway,
		Message: "Navigation failed",
		Detail:  detail,
	}
}

func NewCaptureError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusUnprocessableEntity,
		Message: "Snapshot capture failed",
		Detail:  detail,
	}
}

func NewStorageError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusInternalServerError,
		Message: "Storage operation failed",
		Detail:  detail,
	}
}

// NewChallengeError signals an unresolved bot-verification interstitial
func NewChallengeError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusForbidden,
		Message: "Bot challenge not cleared",
		Detail:  detail,
	}
}
