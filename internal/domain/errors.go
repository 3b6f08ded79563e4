package domain

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeConflict     ErrorCode = "CONFLICT"

	// Quiz specific errors
	CodeExamNotFound         ErrorCode = "EXAM_NOT_FOUND"
	CodeSessionNotFound      ErrorCode = "SESSION_NOT_FOUND"
	CodeSessionCompleted     ErrorCode = "SESSION_COMPLETED"
	CodeExamHasNoQuestions   ErrorCode = "EXAM_HAS_NO_QUESTIONS"
	CodeInvalidChoices       ErrorCode = "INVALID_CHOICES"
	CodeInsufficientTokens   ErrorCode = "INSUFFICIENT_TOKENS"
	CodeAssistantUnavailable ErrorCode = "ASSISTANT_UNAVAILABLE"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, cause error) *DomainError {
	return NewError(CodeInternal, message, cause)
}

func NewUnauthorizedError(message string) *DomainError {
	return NewError(CodeUnauthorized, message, nil)
}

func NewExamNotFoundError(examID string) *DomainError {
	return NewError(CodeExamNotFound, fmt.Sprintf("Exam not found with ID: %s", examID), nil)
}

func NewSessionNotFoundError(sessionID string) *DomainError {
	return NewError(CodeSessionNotFound, fmt.Sprintf("Quiz session not found with ID: %s", sessionID), nil)
}

func NewSessionCompletedError(sessionID string) *DomainError {
	return NewError(CodeSessionCompleted, fmt.Sprintf("Quiz session %s is already completed", sessionID), nil)
}

func NewInvalidChoicesError(message string) *DomainError {
	return NewError(CodeInvalidChoices, message, nil)
}

func NewInsufficientTokensError(balance int) *DomainError {
	return &DomainError{
		Code:    CodeInsufficientTokens,
		Message: fmt.Sprintf("Insufficient tokens: %d remaining", balance),
		Context: map[string]interface{}{"tokens": balance},
	}
}

func NewAssistantUnavailableError(cause error) *DomainError {
	return NewError(CodeAssistantUnavailable, "AI assistant is not configured", cause)
}
