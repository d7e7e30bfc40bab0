package utils

import (
	"os"
	"strconv"
	"strings"
)

// GetEnvWithDefault returns the trimmed environment variable or the default.
func GetEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvInt(key string, defaultValue int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(v)
}

