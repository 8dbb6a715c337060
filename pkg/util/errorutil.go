package util

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// DomainError standardizes application errors. Code is the numeric HTTP
// status rendered as a string, which is what legacy clients key on.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Validation map[string]string
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError for the given status.
func NewDomainError(status int, message string, validation map[string]string) *DomainError {
	return &DomainError{
		Code:       strconv.Itoa(status),
		Message:    message,
		HTTPStatus: status,
		Validation: validation,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(http.StatusUnauthorized, message, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(http.StatusForbidden, message, nil)
}

func NewMethodNotSupported(method string) error {
	return NewDomainError(http.StatusMethodNotAllowed, fmt.Sprintf("method %s not supported", method), nil)
}

func NewMalformedRequest(message string, validation map[string]string) error {
	return NewDomainError(http.StatusBadRequest, message, validation)
}

func NewAlreadyExists(message string) error {
	return NewDomainError(http.StatusBadRequest, message, nil)
}

func NewNotFound(resource string) error {
	return NewDomainError(http.StatusNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// ToDomainError converts any error to a DomainError. Unrecognized errors
// collapse to a generic bad-request body so internal error text is never
// serialized to clients.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       strconv.Itoa(http.StatusBadRequest),
		Message:    "bad request",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}
