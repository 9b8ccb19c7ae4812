package services

import (
	"errors"
	"fmt"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	// ErrVersionConflict — штатная ситуация при конкурентном редактировании:
	// клиент должен перечитать комнату и повторить запрос
	ErrVersionConflict = errors.New("room was modified, refresh and retry")
	ErrRoomClosed      = errors.New("room is not active")
	ErrInvalidPassword = errors.New("invalid room password")
)

// ValidationError указывает конкретное поле, не прошедшее проверку
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
