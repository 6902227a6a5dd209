package utils

import (
	"regexp"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRequestID(t *testing.T) {
	id := GenerateRequestID()
	assert.Len(t, id, 16)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{16}$`), id)
}

func TestGenerateCorrelationID(t *testing.T) {
	_, err := uuid.Parse(GenerateCorrelationID())
	assert.NoError(t, err)
}

func TestGenerateRunIDIsTimeOrdered(t *testing.T) {
	ids := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		id := GenerateRunID()
		parsed, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), parsed.Version())
		ids = append(ids, id)
	}
	assert.True(t, sort.StringsAreSorted(ids))
}

func TestIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateRequestID()
		assert.False(t, seen[id], "duplicate request id %s", id)
		seen[id] = true
	}
}

func TestGenerateTimestampID(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^\d+_[0-9a-f]{8}$`), GenerateTimestampID())
}
