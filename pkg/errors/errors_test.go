package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHTTPStatus(t *testing.T) {
	tests := []struct {
		code     int
		expected ErrorType
	}{
		{401, ErrorTypeAuthentication},
		{403, ErrorTypeAuthentication},
		{404, ErrorTypeNotFound},
		{408, ErrorTypeTimeout},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeConnection},
		{502, ErrorTypeConnection},
		{504, ErrorTypeTimeout},
		{400, ErrorTypeConfig},
		{422, ErrorTypeConfig},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.code), func(t *testing.T) {
			err := FromHTTPStatus(tt.code, "body")
			assert.Equal(t, tt.expected, err.Type)
			assert.Equal(t, tt.code, err.Details["status_code"])
			assert.Equal(t, "body", err.Details["body"])
		})
	}
}

func TestStatusCode(t *testing.T) {
	inner := FromHTTPStatus(403, "")
	outer := Wrap(inner, ErrorTypeConnection, "list docs")

	assert.Equal(t, 403, StatusCode(outer))
	assert.Equal(t, 0, StatusCode(stderrors.New("plain")))
	assert.Equal(t, 0, StatusCode(New(ErrorTypeData, "no status")))
}

func TestWrapPreservesStack(t *testing.T) {
	inner := New(ErrorTypeConnection, "dial")
	outer := Wrap(inner, ErrorTypeInternal, "outer")

	require.NotNil(t, outer)
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.Nil(t, Wrap(nil, ErrorTypeInternal, "nothing"))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeInternal, TypeOf(stderrors.New("foreign")))
	assert.Equal(t, ErrorTypeData, TypeOf(fmt.Errorf("ctx: %w", New(ErrorTypeData, "bad json"))))
}
