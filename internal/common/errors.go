package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternal          = errors.New("internal error")
	ErrDatabase          = errors.New("database error")
	ErrValidation        = errors.New("validation failed")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrWorkbookOpen      = errors.New("workbook could not be opened")
	ErrEmptyText         = errors.New("no text extracted")
	ErrNoInputs          = errors.New("no input files")
)

// Upstream model errors, classified from the provider response.
var (
	ErrUpstreamConnection = errors.New("upstream connection failed")
	ErrRateLimited        = errors.New("upstream rate limit exceeded")
	ErrAuthentication     = errors.New("upstream authentication failed")
	ErrContextLength      = errors.New("document exceeds the model context window")
	ErrUpstreamAPI        = errors.New("upstream api error")
	ErrUnrecognizedShape  = errors.New("unrecognized response shape")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
