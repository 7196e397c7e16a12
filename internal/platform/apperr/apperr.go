package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConflict           Code = "CONFLICT"
	CodePreconditionFailed Code = "PRECONDITION_FAILED"
	CodeUnavailable        Code = "UNAVAILABLE"
	CodeInternal           Code = "INTERNAL"
)

// APIError is the error value every service returns for an expected failure.
// Code drives the HTTP status, Reason identifies the exact business rule that
// rejected the call (e.g. QUOTA_EXCEEDED), Message is human-readable.
type APIError struct {
	Code    Code
	Reason  string
	Message string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s/%s: %s", e.Code, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func ErrInvalid(msg string) *APIError {
	return &APIError{Code: CodeInvalidArgument, Message: msg}
}

func ErrNotFound(reason, msg string) *APIError {
	return &APIError{Code: CodeNotFound, Reason: reason, Message: msg}
}

func ErrConflict(reason, msg string) *APIError {
	return &APIError{Code: CodeConflict, Reason: reason, Message: msg}
}

func ErrPrecondition(reason, msg string) *APIError {
	return &APIError{Code: CodePreconditionFailed, Reason: reason, Message: msg}
}

func ErrUnavailable(msg string) *APIError {
	return &APIError{Code: CodeUnavailable, Reason: ReasonStorage, Message: msg}
}

func ErrInternal(msg string) *APIError {
	return &APIError{Code: CodeInternal, Message: msg}
}

// Shared reasons; feature packages define their own on top of these.
const (
	ReasonDuplicateKey = "DUPLICATE_KEY"
	ReasonLockConflict = "LOCK_CONFLICT"
	ReasonStorage      = "STORAGE"
)

// Reason extracts the machine-readable reason, or "" for unexpected errors.
func Reason(err error) string {
	var api *APIError
	if errors.As(err, &api) {
		return api.Reason
	}
	return ""
}

func CodeOf(err error) Code {
	var api *APIError
	if errors.As(err, &api) {
		return api.Code
	}
	return CodeInternal
}

func ToHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return http.StatusBadRequest
		case CodeNotFound:
			return http.StatusNotFound
		case CodeConflict:
			return http.StatusConflict
		case CodePreconditionFailed:
			return http.StatusUnprocessableEntity
		case CodeUnavailable:
			return http.StatusServiceUnavailable
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
