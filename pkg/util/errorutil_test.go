package util

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{name: "unauthorized", err: NewUnauthorized("nope"), code: "401", status: 401},
		{name: "forbidden", err: NewForbidden("nope"), code: "403", status: 403},
		{name: "method not supported", err: NewMethodNotSupported("GET"), code: "405", status: 405},
		{name: "malformed request", err: NewMalformedRequest("bad", nil), code: "400", status: 400},
		{name: "already exists", err: NewAlreadyExists("taken"), code: "400", status: 400},
		{name: "not found", err: NewNotFound("post"), code: "404", status: 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var domainErr *DomainError
			require.ErrorAs(t, tt.err, &domainErr)
			assert.Equal(t, tt.code, domainErr.Code)
			assert.Equal(t, tt.status, domainErr.HTTPStatus)
		})
	}
}

func TestToDomainError_PassesThrough(t *testing.T) {
	original := NewForbidden("nope")
	wrapped := fmt.Errorf("handler: %w", original)

	domainErr := ToDomainError(wrapped)
	assert.Equal(t, "403", domainErr.Code)
	assert.Equal(t, "nope", domainErr.Message)
}

func TestToDomainError_UnknownErrorsStayGeneric(t *testing.T) {
	domainErr := ToDomainError(errors.New("pq: relation sessions does not exist"))

	assert.Equal(t, "400", domainErr.Code)
	assert.Equal(t, "bad request", domainErr.Message)
	// The internal cause is kept for logging but never in the message.
	assert.NotContains(t, domainErr.Message, "relation")
	assert.Error(t, domainErr.Err)
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestDomainError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	domainErr := &DomainError{Code: "400", Message: "bad request", HTTPStatus: 400, Err: cause}

	assert.Equal(t, "bad request: boom", domainErr.Error())
	assert.ErrorIs(t, domainErr, cause)
}
