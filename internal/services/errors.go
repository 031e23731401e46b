package services

import "errors"

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUnauthorized ErrorCode = "unauthorized"
	ErrorUnavailable  ErrorCode = "unavailable"
)

// ServiceError is a typed failure: a kind plus an optional human-readable message.
type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func NewInvalidError(msg string) error  { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewNotFoundError(msg string) error { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func NewUnavailableError(msg string) error {
	return &ServiceError{Code: ErrorUnavailable, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

var (
	// ErrUnknownAssessmentType is only reachable from unparsed input.
	ErrUnknownAssessmentType = NewInvalidError("unknown assessment type")
	// ErrSendFailed is returned when a chat message could not be delivered or answered.
	ErrSendFailed = NewUnavailableError("message could not be sent")
	// ErrReportUnavailable is returned when a required report source fails.
	ErrReportUnavailable = NewUnavailableError("failed to generate report")
)
