package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateRequestID generates a unique request ID (16 hex characters)
func GenerateRequestID() string {
	return generateHex(8)
}

// GenerateCorrelationID generates a UUID for correlation tracking
func GenerateCorrelationID() string {
	return uuid.New().String()
}

// GenerateRunID returns a time-ordered identifier for a training run.
// UUIDv7 keeps object-store prefixes for the same tag sorted by creation time.
func GenerateRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// GenerateTimestampID generates a timestamp-based ID for ordering
func GenerateTimestampID() string {
	return fmt.Sprintf("%d_%s", time.Now().UnixNano(), generateHex(4))
}

func generateHex(byteLength int) string {
	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is not recoverable in a meaningful way; fall back to a uuid slice
		return hex.EncodeToString([]byte(uuid.New().String()))[:byteLength*2]
	}
	return hex.EncodeToString(buf)
}
