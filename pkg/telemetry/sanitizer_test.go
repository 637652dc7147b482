package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePIILevel(t *testing.T) {
	tests := []struct {
		raw  string
		want PIILevel
	}{
		{"none", PIILevelNone},
		{" FULL ", PIILevelFull},
		{"hashed", PIILevelHashed},
		{"", PIILevelHashed},
		{"garbage", PIILevelHashed},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePIILevel(tt.raw))
		})
	}
}

func TestSanitizeTextNone(t *testing.T) {
	s := NewSanitizer(PIILevelNone, "assistant-api")
	assert.Equal(t, "[REDACTED]", s.SanitizeText("My email is john@example.com"))
}

func TestSanitizeTextFull(t *testing.T) {
	s := NewSanitizer(PIILevelFull, "assistant-api")
	input := "My email is john@example.com"
	assert.Equal(t, input, s.SanitizeText(input))
}

func TestSanitizeTextHashed(t *testing.T) {
	s := NewSanitizer(PIILevelHashed, "assistant-api")

	result := s.SanitizeText("Contact john.doe@example.com or 4111 1111 1111 1111 from 10.0.0.1")

	assert.NotContains(t, result, "john.doe@example.com")
	assert.NotContains(t, result, "4111")
	assert.NotContains(t, result, "10.0.0.1")
	assert.Contains(t, result, "[EMAIL:")
	assert.Contains(t, result, "[CC:REDACTED]")
	assert.Contains(t, result, "[IP:")
}

func TestSanitizeTextHashIsStable(t *testing.T) {
	s := NewSanitizer(PIILevelHashed, "assistant-api")
	other := NewSanitizer(PIILevelHashed, "other-service")

	first := s.SanitizeText("mail me at a@b.io")
	second := s.SanitizeText("mail me at a@b.io")
	require.Equal(t, first, second)
	assert.NotEqual(t, first, other.SanitizeText("mail me at a@b.io"))
}

func TestSanitizeUserID(t *testing.T) {
	assert.Equal(t, "", NewSanitizer(PIILevelHashed, "x").SanitizeUserID(""))
	assert.Equal(t, "[REDACTED]", NewSanitizer(PIILevelNone, "x").SanitizeUserID("user-1"))
	assert.Equal(t, "user-1", NewSanitizer(PIILevelFull, "x").SanitizeUserID("user-1"))
	assert.Len(t, NewSanitizer(PIILevelHashed, "x").SanitizeUserID("user-1"), 8)
}

func TestSanitizeFileNameKeepsExtension(t *testing.T) {
	assert.Equal(t, "[REDACTED].pdf", NewSanitizer(PIILevelNone, "x").SanitizeFileName("salary.pdf"))
	assert.Equal(t, "salary.pdf", NewSanitizer(PIILevelFull, "x").SanitizeFileName("salary.pdf"))

	hashed := NewSanitizer(PIILevelHashed, "x").SanitizeFileName("salary.pdf")
	assert.Len(t, hashed, 12)
	assert.Equal(t, ".pdf", hashed[8:])
}
