package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads variables from an env file without overriding ones already
// set in the process environment. A missing file is not an error.
func LoadEnvFile(envFilePath ...string) error {
	envFile := ".env"
	if len(envFilePath) > 0 && envFilePath[0] != "" {
		envFile = envFilePath[0]
	}

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		return nil
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("error loading %s file: %w", envFile, err)
	}
	return nil
}

// LoadEnvFromMultiplePaths loads the first env file found in the usual locations.
func LoadEnvFromMultiplePaths() error {
	possiblePaths := []string{
		".env",
		"configs/.env",
		"../.env",
	}
	if home, err := os.UserHomeDir(); err == nil {
		possiblePaths = append(possiblePaths, filepath.Join(home, ".wheel-trainer.env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadEnvFile(path)
	}
	return nil
}
