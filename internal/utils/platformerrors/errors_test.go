package platformerrors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsErrorKeepsPlatformType(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	inner := NewError(ctx, LayerRepository, ErrorTypeNotFound, "bucket missing", nil, "b1")

	wrapped := AsError(ctx, LayerDomain, fmt.Errorf("lookup: %w", inner), "failed")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrorTypeNotFound, wrapped.Type)
	assert.Equal(t, "bucket missing", wrapped.Message)
	assert.Equal(t, "b1", wrapped.UUID)
	assert.Equal(t, "req-1", wrapped.RequestID)
	assert.Equal(t, LayerDomain, wrapped.Layer)
	assert.True(t, IsErrorType(wrapped, ErrorTypeNotFound))
}

func TestAsErrorWrapsPlainErrorsAsInternal(t *testing.T) {
	wrapped := AsError(context.Background(), LayerHandler, errors.New("boom"), "failed")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrorTypeInternal, wrapped.Type)
	assert.Equal(t, "failed", wrapped.Message)
	assert.Nil(t, AsError(context.Background(), LayerHandler, nil, "ignored"))
}

func TestErrorTypeToHTTPStatus(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		status    int
	}{
		{ErrorTypeNotFound, http.StatusNotFound},
		{ErrorTypeValidation, http.StatusBadRequest},
		{ErrorTypeConflict, http.StatusConflict},
		{ErrorTypeUnauthorized, http.StatusUnauthorized},
		{ErrorTypeForbidden, http.StatusForbidden},
		{ErrorTypeExternal, http.StatusBadGateway},
		{ErrorTypeDatabaseError, http.StatusInternalServerError},
		{ErrorTypeInternal, http.StatusInternalServerError},
		{ErrorType("UNKNOWN"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.errorType), func(t *testing.T) {
			assert.Equal(t, tt.status, ErrorTypeToHTTPStatus(tt.errorType))
		})
	}
}

func TestMarshalZerologObject(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	err := NewError(context.Background(), LayerDomain, ErrorTypeValidation, "bad upload", errors.New("too large"), "c1")

	log.Error().Object("error", err).Msg("request failed")

	assert.Contains(t, buf.String(), `"code":"c1"`)
	assert.Contains(t, buf.String(), `"type":"VALIDATION"`)
	assert.Contains(t, buf.String(), `"cause":"too large"`)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
}
