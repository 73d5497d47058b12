package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/map-metadata/internal/domain"
)

type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails returns a copy of e carrying details. The predefined errors
// are shared, so they are never modified in place.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	out := *e
	out.Details = details
	return &out
}

// WithMessage returns a copy of e with a request-specific message.
func (e *AppError) WithMessage(message string) *AppError {
	out := *e
	out.Message = message
	return &out
}

// FromDomain maps domain sentinel errors onto API errors. Errors that are
// already *AppError pass through; anything else is an internal error.
func FromDomain(err error) *AppError {
	var appErr *AppError
	switch {
	case err == nil:
		return nil
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, domain.ErrInvalidRegion):
		return ErrInvalidRegion.WithDetails(map[string]interface{}{"reason": err.Error()})
	case stderrors.Is(err, domain.ErrUnknownTable):
		return ErrUnknownTable.WithDetails(map[string]interface{}{"reason": err.Error()})
	case stderrors.Is(err, domain.ErrNotFound):
		return ErrMetadataNotFound
	case stderrors.Is(err, domain.ErrSchema):
		return ErrInvalidInput.WithDetails(map[string]interface{}{"reason": err.Error()})
	case stderrors.Is(err, domain.ErrFormat):
		return ErrInvalidRequest.WithDetails(map[string]interface{}{"reason": err.Error()})
	default:
		return ErrInternalServer
	}
}
