package database

import (
	"fmt"
	"strings"

	"github.com/wheelscan/go-wheel-trainer/internal/utils"
)

// DatabaseConfig holds MongoDB connection configuration
type DatabaseConfig struct {
	URI string
	// Environment is normalised to production, local, test or development.
	Environment  string
	DatabaseName string
	AppName      string
}

// NewDatabaseConfig derives the database name from the service name and
// environment: {env-prefix}-{service-name without "go-"}.
func NewDatabaseConfig(uri, serviceName, environment string) *DatabaseConfig {
	environment = strings.ToLower(strings.TrimSpace(environment))
	if serviceName == "" {
		serviceName = utils.ServiceName
	}

	var envPrefix string
	switch environment {
	case "production", "prod":
		envPrefix = "prod"
		environment = "production"
	case "local":
		envPrefix = "loc"
	case "test":
		envPrefix = "test"
	default:
		envPrefix = "dev"
		environment = "development"
	}

	dbServiceName := strings.ReplaceAll(serviceName, "_", "-")
	dbServiceName = strings.TrimPrefix(dbServiceName, "go-")

	return &DatabaseConfig{
		URI:          uri,
		Environment:  environment,
		DatabaseName: fmt.Sprintf("%s-%s", envPrefix, dbServiceName),
		AppName:      serviceName,
	}
}

// MaskSensitiveData returns a copy safe for logging.
func (c *DatabaseConfig) MaskSensitiveData() *DatabaseConfig {
	masked := *c
	masked.URI = utils.MaskURICredentials(c.URI)
	return &masked
}
