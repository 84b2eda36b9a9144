package shared

import (
	"fmt"
	"regexp"
	"strings"
)

// Input validation utilities shared across all botstrap packages

var (
	// SafeStringPattern allows only alphanumeric, hyphens, underscores, and dots
	SafeStringPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

	// SafePathPattern allows safe absolute or relative paths
	SafePathPattern = regexp.MustCompile(`^[a-zA-Z0-9._/-]+$`)

	// HostnamePattern matches RFC 1123 host names (labels of alphanumerics and
	// hyphens separated by dots, no leading/trailing hyphen per label)
	HostnamePattern = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)
)

// ValidateSafeString ensures input contains only safe characters
func ValidateSafeString(input string, maxLength int, fieldName string) error {
	if input == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	if len(input) > maxLength {
		return fmt.Errorf("%s too long: %d characters (max %d)", fieldName, len(input), maxLength)
	}

	if !SafeStringPattern.MatchString(input) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, dots, hyphens, underscores allowed)", fieldName)
	}

	if strings.Contains(input, "..") {
		return fmt.Errorf("%s cannot contain consecutive dots", fieldName)
	}

	return nil
}

// ValidateHostname ensures input is a plausible DNS host name. Values that
// pass are safe to substitute into a server_name directive: no slashes,
// spaces, semicolons or braces survive the pattern.
func ValidateHostname(input string, fieldName string) error {
	if input == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	if len(input) > 253 {
		return fmt.Errorf("%s too long: %d characters (max 253)", fieldName, len(input))
	}

	if !HostnamePattern.MatchString(input) {
		return fmt.Errorf("%s is not a valid host name", fieldName)
	}

	return nil
}

// ValidatePort ensures a TCP port number is usable
func ValidatePort(port int, fieldName string) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", fieldName, port)
	}
	return nil
}
