package deviceconfig

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrKeyTooLong is returned when key material exceeds MaxKeyLen.
var ErrKeyTooLong = errors.New("key material too long")

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (connection refused, timeout, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeAuth indicates an authentication failure (invalid credentials)
	ErrTypeAuth
	// ErrTypeHTTP indicates an HTTP-level error (non-200 status code)
	ErrTypeHTTP
	// ErrTypeParse indicates a parsing error (malformed JSON, invalid response)
	ErrTypeParse
	// ErrTypeValidation indicates a validation error (invalid configuration)
	ErrTypeValidation
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the device refused the connection
	ErrTypeConnectionRefused
	// ErrTypeStorage indicates the persistent store failed to load or save the record
	ErrTypeStorage
	// ErrTypeProvisioning indicates the provisioning subsystem could not start
	ErrTypeProvisioning
	// ErrTypeStartup indicates a fatal boot step failure
	ErrTypeStartup
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeStorage:
		return "Storage Error"
	case ErrTypeProvisioning:
		return "Provisioning Error"
	case ErrTypeStartup:
		return "Startup Error"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError represents an error raised by the lifecycle controller or
// by a client talking to the device's local configuration server.
type DeviceError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Step       string    // Boot step or operation that failed (if applicable)
	Err        error     // Underlying error (if any)
	Retryable  bool      // Whether the error is retryable
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	prefix := e.Type.String()
	if e.Step != "" {
		prefix = fmt.Sprintf("%s [%s]", prefix, e.Step)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes an error and returns a more specific error type
func ClassifyNetworkError(err error) *DeviceError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &DeviceError{Type: ErrTypeTimeout, Message: "Request timed out", Err: err, Retryable: true}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return &DeviceError{Type: ErrTypeConnectionRefused, Message: "Device refused connection", Err: err, Retryable: true}
	}

	// Check for URL errors
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return ClassifyNetworkError(urlErr.Err)
	}

	return &DeviceError{Type: ErrTypeNetwork, Message: "Network error occurred", Err: err, Retryable: true}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *DeviceError {
	classified := ClassifyNetworkError(err)
	if classified == nil {
		return &DeviceError{Type: ErrTypeNetwork, Message: message, Retryable: true}
	}
	classified.Message = message
	return classified
}

// NewAuthError creates an authentication error
func NewAuthError(message string) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeAuth,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(statusCode int, message string) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500, // Server errors are retryable
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *DeviceError {
	return &DeviceError{Type: ErrTypeParse, Message: message, Err: err}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *DeviceError {
	return &DeviceError{Type: ErrTypeValidation, Message: message}
}

// NewStorageError wraps a persistent store failure.
func NewStorageError(message string, err error) *DeviceError {
	return &DeviceError{Type: ErrTypeStorage, Message: message, Err: err}
}

// NewProvisioningError wraps a provisioning start failure.
func NewProvisioningError(message string, err error) *DeviceError {
	return &DeviceError{Type: ErrTypeProvisioning, Message: message, Err: err}
}

// NewStartupError marks a fatal boot step failure.
func NewStartupError(step string, err error) *DeviceError {
	return &DeviceError{Type: ErrTypeStartup, Step: step, Message: "boot aborted", Err: err}
}

func hasType(err error, types ...ErrorType) bool {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return false
	}
	for _, t := range types {
		if devErr.Type == t {
			return true
		}
	}
	return false
}

// IsNetworkError checks if an error is a network error (including timeout and connection refused)
func IsNetworkError(err error) bool {
	return hasType(err, ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused)
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	return hasType(err, ErrTypeAuth)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return hasType(err, ErrTypeValidation)
}

// IsStorageError checks if an error came from the persistent store
func IsStorageError(err error) bool {
	return hasType(err, ErrTypeStorage)
}

// IsStartupError checks if an error aborted boot
func IsStartupError(err error) bool {
	return hasType(err, ErrTypeStartup)
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Retryable
	}
	// Unknown errors are not retryable by default
	return false
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return "An unexpected error occurred. Please try again."
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The device did not respond in time.",
			"Troubleshooting:",
			"  • Check that your device is powered on",
			"  • Verify you're connected to the device's network",
			"  • Try increasing the timeout duration",
		}, "\n")

	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"The device refused the connection.",
			"Troubleshooting:",
			"  • The local configuration server may be disabled in the device record",
			"  • Check the port number (default is 8080)",
			"  • Try a short button press to put the device back into provisioning mode",
		}, "\n")

	case ErrTypeAuth:
		return strings.Join([]string{
			"Authentication failed.",
			"Troubleshooting:",
			"  • The default credentials are SmarTap:yeswecan",
			"  • A long button press restores factory credentials",
		}, "\n")

	case ErrTypeHTTP:
		if devErr.StatusCode >= 500 {
			return fmt.Sprintf("The device returned an error (HTTP %d). Check the device log.", devErr.StatusCode)
		}
		return fmt.Sprintf("The device returned HTTP error %d. Check the request parameters.", devErr.StatusCode)

	case ErrTypeValidation:
		return "The configuration values are invalid. Check the error message for details."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return err.Error()
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return "Device not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Device refused connection - is the config server enabled?"
	case ErrTypeAuth:
		return "Authentication failed - check credentials"
	case ErrTypeNetwork:
		return "Network error - check connection"
	case ErrTypeHTTP:
		return fmt.Sprintf("Device error (HTTP %d)", devErr.StatusCode)
	case ErrTypeParse:
		return "Failed to parse device response"
	default:
		return devErr.Message
	}
}
