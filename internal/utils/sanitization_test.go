package utils

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"short", "abc", "***"},
		{"exactly eight", "abcdefgh", "********"},
		{"long", "0123456789abcdef", "0123********cdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskSecret(tt.input))
		})
	}
}

func TestSanitizeHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Training-Key", "0123456789abcdef")
	headers.Set("Content-Type", "application/json")
	headers["Empty"] = []string{}

	sanitized := SanitizeHeaders(headers)

	assert.Equal(t, "0123********cdef", sanitized["Training-Key"])
	assert.Equal(t, "application/json", sanitized["Content-Type"])
	assert.NotContains(t, sanitized, "Empty")
}

func TestMaskURICredentials(t *testing.T) {
	assert.Equal(t, "mongodb://***:***@db:27017/runs", MaskURICredentials("mongodb://user:pass@db:27017/runs"))
	assert.Equal(t, "mongodb://db:27017", MaskURICredentials("mongodb://db:27017"))
	assert.Equal(t, "not a uri", MaskURICredentials("not a uri"))
}
