package config

import (
	"fmt"
	"os"
	"strings"
)

// getEnv retrieves an environment variable value with surrounding
// whitespace removed.
func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// getEnvOrFile retrieves a value from either a direct environment variable
// or a file path specified by the file key (Docker secrets pattern).
//
// If both are set, the file takes precedence. An unreadable file is an
// error rather than a silent fallback: a daemon signing requests with the
// wrong secret fails much later and far less clearly.
//
// The file contents are trimmed of leading/trailing whitespace.
func getEnvOrFile(directKey, fileKey string) (string, error) {
	if filePath := getEnv(fileKey); filePath != "" {
		content, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("%s: %w", fileKey, err)
		}
		return strings.TrimSpace(string(content)), nil
	}

	return getEnv(directKey), nil
}

// getEnvWithFileFallback retrieves a value supporting the _FILE suffix pattern.
// Given a key like "DNSPOD_SECRET_KEY", it checks:
//  1. DNSPOD_SECRET_KEY_FILE - reads file contents if set
//  2. DNSPOD_SECRET_KEY - returns direct value if set
func getEnvWithFileFallback(key string) (string, error) {
	return getEnvOrFile(key, key+"_FILE")
}

// parseBool parses a boolean string.
// Accepts: true/false, 1/0, yes/no, on/off (case-insensitive).
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}
