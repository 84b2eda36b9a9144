// pkg/strap_err/classified.go
//
// Error classification with process exit codes. The pipeline is fail-fast
// for missing dependencies and invalid rendered configuration, fail-soft for
// best-effort steps and connectivity problems; the classification here is
// what Execute() turns into the final exit status.

package strap_err

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory classifies errors for exit-code selection
type ErrorCategory int

const (
	// CategorySystem - OS/filesystem issues (exit 1)
	CategorySystem ErrorCategory = iota
	// CategoryValidation - input validation failures (exit 2)
	CategoryValidation
	// CategoryNetwork - connectivity issues (exit 1)
	CategoryNetwork
	// CategoryUser - operator cancelled or declined (exit 130)
	CategoryUser
	// CategoryInternal - bugs in botstrap itself (exit 3)
	CategoryInternal
	// CategoryDependency - required external tool missing (exit 1)
	CategoryDependency
	// CategoryConfig - a rendered configuration failed validation (exit 1)
	CategoryConfig
)

// ClassifiedError wraps an error with a category and remediation steps
type ClassifiedError struct {
	Category    ErrorCategory
	Message     string
	Cause       error
	Remediation []string
}

func (e *ClassifiedError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Cause != nil && e.Cause.Error() != e.Message {
		sb.WriteString(fmt.Sprintf("\n\nCause: %v", e.Cause))
	}

	if len(e.Remediation) > 0 {
		sb.WriteString("\n\nHow to fix:")
		for i, step := range e.Remediation {
			sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, step))
		}
	}

	return sb.String()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the process exit code for this category
func (e *ClassifiedError) ExitCode() int {
	switch e.Category {
	case CategoryUser:
		return 130 // convention for SIGINT-style cancellation
	case CategoryValidation:
		return 2
	case CategoryInternal:
		return 3
	default:
		return 1
	}
}

// GetExitCode extracts an exit code from any error: 0 for nil, the category
// code for classified errors, 1 otherwise. A declined confirmation or an
// interrupt is an abort and must exit non-zero.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.ExitCode()
	}

	return 1
}

// NewValidationError creates an error for input validation failures
func NewValidationError(message string, remediation ...string) error {
	return &ClassifiedError{
		Category:    CategoryValidation,
		Message:     message,
		Remediation: remediation,
	}
}

// NewDependencyError creates an error for a missing external tool. The
// remediation lines carry the install hint the operator sees.
func NewDependencyError(dependency, operation string, remediation ...string) error {
	return &ClassifiedError{
		Category:    CategoryDependency,
		Message:     fmt.Sprintf("%s is required for %s but not found", dependency, operation),
		Remediation: remediation,
	}
}

// NewConfigError creates an error for a rendered configuration that failed
// validation; the previous configuration remains in effect.
func NewConfigError(message string, cause error, remediation ...string) error {
	return &ClassifiedError{
		Category:    CategoryConfig,
		Message:     message,
		Cause:       cause,
		Remediation: remediation,
	}
}

// NewNetworkError creates an error for connectivity issues
func NewNetworkError(message string, cause error, remediation ...string) error {
	return &ClassifiedError{
		Category:    CategoryNetwork,
		Message:     message,
		Cause:       cause,
		Remediation: remediation,
	}
}

// NewInternalError creates an error for botstrap bugs
func NewInternalError(message string, cause error) error {
	return &ClassifiedError{
		Category: CategoryInternal,
		Message:  message,
		Cause:    cause,
	}
}

// NewUserCancelledError creates an error for operator-initiated cancellation;
// also marked expected so no stack trace is printed.
func NewUserCancelledError(operation string) error {
	return NewExpectedError(&ClassifiedError{
		Category: CategoryUser,
		Message:  fmt.Sprintf("operation cancelled by user: %s", operation),
	})
}

// IsRetryable reports whether an error looks transient enough that a single
// retry is worthwhile.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "try again") ||
		strings.Contains(errStr, "resource temporarily unavailable")
}
