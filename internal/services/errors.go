package services

import "errors"

type ErrorCode string

const (
	ErrorInvalid         ErrorCode = "invalid"
	ErrorNotActive       ErrorCode = "not_active"
	ErrorMisconfigured   ErrorCode = "misconfigured"
	ErrorUnknownQuestion ErrorCode = "unknown_question"
	ErrorUnknownOption   ErrorCode = "unknown_option"
	ErrorForbidden       ErrorCode = "forbidden"
	ErrorNotFound        ErrorCode = "not_found"
	ErrorConflict        ErrorCode = "conflict"
	ErrorUnauthorized    ErrorCode = "unauthorized"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewNotActiveError(msg string) error { return &ServiceError{Code: ErrorNotActive, Message: msg} }
func NewMisconfiguredError(msg string) error {
	return &ServiceError{Code: ErrorMisconfigured, Message: msg}
}
func NewUnknownQuestionError(msg string) error {
	return &ServiceError{Code: ErrorUnknownQuestion, Message: msg}
}
func NewUnknownOptionError(msg string) error {
	return &ServiceError{Code: ErrorUnknownOption, Message: msg}
}
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsCode reports whether err is a ServiceError carrying code.
func IsCode(err error, code ErrorCode) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == code
}
