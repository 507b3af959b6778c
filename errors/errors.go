package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// CodeOf returns the code of err, or ErrCodeInternal for non-AppErrors.
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// --- Schema constructors ---

// SpecConflict creates an error for a namespace that is already registered.
func SpecConflict(namespace string) *AppError {
	return &AppError{
		Code: ErrCodeSpecConflict, Message: fmt.Sprintf("configuration namespace %q is already registered", namespace),
		Details: map[string]any{"namespace": namespace},
	}
}

// SpecSealed creates an error for a registration attempted after the configure phase.
func SpecSealed(namespace string) *AppError {
	return &AppError{
		Code: ErrCodeSpecSealed, Message: fmt.Sprintf("cannot register %q: specification is sealed", namespace),
		Details: map[string]any{"namespace": namespace},
	}
}

// PathNotFound creates an error for a path that does not resolve in the specification.
func PathNotFound(path, nearest, remaining string) *AppError {
	return &AppError{
		Code: ErrCodePathNotFound, Message: fmt.Sprintf("no specification at %q", path),
		Details: map[string]any{"path": path, "nearest": nearest, "remaining": remaining},
	}
}

// SchemaMismatch creates an error for a value whose shape does not match its node.
func SchemaMismatch(path, expected, actual string) *AppError {
	return &AppError{
		Code: ErrCodeSchemaMismatch, Message: fmt.Sprintf("%s: expected %s, got %s", path, expected, actual),
		Details: map[string]any{"path": path, "expected": expected, "actual": actual},
	}
}

// InvalidConfig creates an error for configuration that failed validation or decoding.
func InvalidConfig(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidConfig, Message: message}
}

// --- Remote constructors ---

// ConnectionFailed creates an error for a host that could not be reached.
func ConnectionFailed(host string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("unable to connect to %s", host),
		Details: map[string]any{"host": host}, Cause: cause,
	}
}

// AuthenticationFailed creates an error for rejected credentials.
func AuthenticationFailed(user, host string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeAuthenticationFailed, Message: fmt.Sprintf("authentication failed for %s@%s", user, host),
		Details: map[string]any{"host": host, "user": user}, Cause: cause,
	}
}

// TransferFailed creates an error for a file that could not be pushed.
func TransferFailed(localPath, remotePath string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTransferFailed, Message: fmt.Sprintf("failed to transfer %s to %s", localPath, remotePath),
		Details: map[string]any{"local": localPath, "remote": remotePath}, Cause: cause,
	}
}

// RemoteCommandFailed creates an error for a remote command with a non-zero exit status.
func RemoteCommandFailed(command string, exitCode int, stderr string) *AppError {
	details := map[string]any{"command": command, "exit_code": exitCode}
	if stderr != "" {
		details["stderr"] = stderr
	}
	return &AppError{
		Code: ErrCodeRemoteCommandFailed, Message: fmt.Sprintf("remote command exited with status %d", exitCode),
		Details: details,
	}
}

// FetchFailed creates an error for a remote output file that could not be read.
func FetchFailed(remotePath string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeFetchFailed, Message: fmt.Sprintf("failed to fetch %s", remotePath),
		Details: map[string]any{"remote": remotePath}, Cause: cause,
	}
}

// --- Local constructors ---

// OutputUnavailable creates an error for a local output file that could not be created.
func OutputUnavailable(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeOutputUnavailable, Message: fmt.Sprintf("cannot create output file %s", path),
		Details: map[string]any{"path": path}, Cause: cause,
	}
}

// MachinesFailed creates an error summarising the failed machines of a scenario.
func MachinesFailed(scenario string, hosts []string) *AppError {
	return &AppError{
		Code: ErrCodeMachinesFailed, Message: fmt.Sprintf("%s: %d machine(s) failed", scenario, len(hosts)),
		Details: map[string]any{"scenario": scenario, "hosts": hosts},
	}
}

// Canceled creates an error for work interrupted by context cancellation.
func Canceled(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeCanceled, Message: fmt.Sprintf("%s canceled", operation),
		Details: map[string]any{"operation": operation}, Cause: cause,
	}
}

// Internal creates a new AppError for an unexpected error.
func Internal(cause error) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: "an unexpected error occurred", Cause: cause}
}
