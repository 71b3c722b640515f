package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Size and length limits for request fields
const (
	MaxIDLength       = 128
	MaxCategoryLength = 64
	MaxQueryLength    = 16 * 1024
	MaxCommandLength  = 64 * 1024
	MaxEnvEntries     = 256
	MaxEnvValueLength = 32 * 1024
)

// Regular expressions for validation
var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// ToolIDPattern allows alphanumeric, hyphens, underscores, and dots (for service.tool format)
	ToolIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	// EnvNamePattern matches portable environment variable names
	EnvNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	categoryPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field such as a session id
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateToolID validates a tool ID field (allows dots for service.tool format)
func ValidateToolID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !ToolIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, dots, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateCategory validates a category field
func ValidateCategory(category string, required bool) error {
	if err := ValidateString(category, "category", 0, MaxCategoryLength, required); err != nil {
		return err
	}

	if category != "" && !categoryPattern.MatchString(category) {
		return fmt.Errorf("category must contain only lowercase letters, numbers, and hyphens")
	}

	return nil
}

// ValidateQuery validates a free-text discovery query
func ValidateQuery(query string) error {
	if err := ValidateString(query, "query", 1, MaxQueryLength, true); err != nil {
		return err
	}
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query must not be blank")
	}
	return nil
}

// ValidateCommand validates a shell command line
func ValidateCommand(command string) error {
	if err := ValidateString(command, "command", 1, MaxCommandLength, true); err != nil {
		return err
	}
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("command must not be blank")
	}
	return nil
}

// ValidateEnv validates extra environment variables for a command
func ValidateEnv(env map[string]string) error {
	if len(env) > MaxEnvEntries {
		return fmt.Errorf("too many env entries (maximum %d)", MaxEnvEntries)
	}
	for name, value := range env {
		if !EnvNamePattern.MatchString(name) {
			return fmt.Errorf("invalid env name %q", name)
		}
		if err := ValidateString(value, "env "+name, 0, MaxEnvValueLength, false); err != nil {
			return err
		}
	}
	return nil
}
