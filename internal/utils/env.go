package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnvString returns the trimmed value of key, or defaultValue when unset or blank.
func GetEnvString(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets an integer from environment variable with a default fallback
func GetEnvInt(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvInt64 gets an int64 from environment variable with a default fallback
func GetEnvInt64(key string, defaultValue int64) int64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvFloat64 gets a float64 from environment variable with a default fallback
func GetEnvFloat64(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvBool accepts the usual spellings (true/1/yes/on and their negatives).
func GetEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// GetEnvSeconds reads a whole number of seconds. Non-positive values fall back to the default.
func GetEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

// GetEnvPort gets a port number from environment variable with validation
func GetEnvPort(key string, defaultValue int) int {
	port := GetEnvInt(key, defaultValue)
	if port < 1 || port > 65535 {
		return defaultValue
	}
	return port
}

// IsProduction checks if the application is running in production mode
func IsProduction() bool {
	env := strings.ToLower(GetEnvString("ENVIRONMENT", "development"))
	return env == "production" || env == "prod"
}
