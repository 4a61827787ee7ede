package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateReportID(t *testing.T) {
	id := GenerateReportID()

	assert.True(t, strings.HasPrefix(id, "sos_"))
	assert.NotEqual(t, id, GenerateReportID())
}

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+91 98123 45678", "+919812345678"},
		{"(981) 234-5678", "9812345678"},
		{"+1-415-555-0100", "+14155550100"},
		{"98+12345678", "9812345678"}, // plus only counts at the front
		{"", ""},
		{"abc", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhoneNumber(tt.in), "input %q", tt.in)
	}
}

func TestCalculateDistance(t *testing.T) {
	// Bengaluru to Chennai is roughly 290 km.
	d := CalculateDistance(12.9716, 77.5946, 13.0827, 80.2707)
	assert.InDelta(t, 290, d, 15)

	assert.Zero(t, CalculateDistance(12.97, 77.59, 12.97, 77.59))
}

func TestIsValidCoordinate(t *testing.T) {
	assert.True(t, IsValidCoordinate(12.97, 77.59))
	assert.True(t, IsValidCoordinate(-90, 180))
	assert.False(t, IsValidCoordinate(91, 0))
	assert.False(t, IsValidCoordinate(0, -181))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "long st...", TruncateString("long string here", 10))
}
