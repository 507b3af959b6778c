// Package errors provides the structured error type used across remoter.
// Every failure that crosses a package boundary is an AppError carrying a
// machine-readable code, so callers can tell a schema problem from a
// connection problem without string matching.
package errors
