package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Schema errors. Lookups never return these; they surface from validation
// and registration.
const (
	// ErrCodeSchemaMismatch indicates a value exists but has the wrong node variant.
	ErrCodeSchemaMismatch ErrorCode = "SCHEMA_MISMATCH"
	// ErrCodePathNotFound indicates a path does not resolve in the specification tree.
	ErrCodePathNotFound ErrorCode = "PATH_NOT_FOUND"
	// ErrCodeSpecConflict indicates two plugins claimed the same namespace.
	ErrCodeSpecConflict ErrorCode = "SPEC_CONFLICT"
	// ErrCodeSpecSealed indicates the specification tree no longer accepts registrations.
	ErrCodeSpecSealed ErrorCode = "SPEC_SEALED"
	// ErrCodeInvalidConfig indicates configuration failed validation or decoding.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// Remote session errors, attached to a single machine.
const (
	// ErrCodeConnectionFailed indicates the remote host could not be reached.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeAuthenticationFailed indicates the remote host rejected the credentials.
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	// ErrCodeTransferFailed indicates a file could not be pushed to the remote host.
	ErrCodeTransferFailed ErrorCode = "TRANSFER_FAILED"
	// ErrCodeRemoteCommandFailed indicates a remote command exited non-zero.
	ErrCodeRemoteCommandFailed ErrorCode = "REMOTE_COMMAND_FAILED"
	// ErrCodeFetchFailed indicates the remote output file was missing or unreadable.
	ErrCodeFetchFailed ErrorCode = "FETCH_FAILED"
)

// Local and lifecycle errors
const (
	// ErrCodeOutputUnavailable indicates the local output file could not be created.
	ErrCodeOutputUnavailable ErrorCode = "OUTPUT_UNAVAILABLE"
	// ErrCodeMachinesFailed indicates a scenario finished with failed machines
	// and the run was configured to treat that as an error.
	ErrCodeMachinesFailed ErrorCode = "MACHINES_FAILED"
	// ErrCodeCanceled indicates the surrounding task was canceled or timed out.
	ErrCodeCanceled ErrorCode = "CANCELED"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var remoteCodes = map[ErrorCode]bool{
	ErrCodeConnectionFailed:     true,
	ErrCodeAuthenticationFailed: true,
	ErrCodeTransferFailed:       true,
	ErrCodeRemoteCommandFailed:  true,
	ErrCodeFetchFailed:          true,
}

// IsRemoteCode reports whether the code belongs to a remote session failure.
func IsRemoteCode(code ErrorCode) bool {
	return remoteCodes[code]
}
