// Package errors defines the behavioral error taxonomy of the plan
// execution engine (spec §7): schema errors, key validation errors,
// signature errors, missing-allowed-signers errors, transport errors,
// action failures, and reporter errors. Each type carries enough
// structured context to let callers use errors.As/errors.Is without
// parsing message text.
package errors

import (
	"errors"
	"fmt"
)

// SchemaError indicates a plan/task file failed to parse or is missing a
// required field. Fatal to the whole run: no pipelines start (spec §7).
type SchemaError struct {
	Path    string
	Message string
	Err     error
}

func NewSchemaError(path, message string, err error) error {
	return &SchemaError{Path: path, Message: message, Err: err}
}

func (e *SchemaError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("schema error: %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("schema error: %s", e.Message)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// KeyValidationError indicates a key or allowed-signers name is empty or
// non-alphabetic. Fatal to the action attempting it (spec §4.2, §7).
type KeyValidationError struct {
	Name string
}

func NewKeyValidationError(name string) error {
	return &KeyValidationError{Name: name}
}

func (e *KeyValidationError) Error() string {
	return fmt.Sprintf("key validation error: %q must be non-empty and alphabetic", e.Name)
}

// AllowedSignersMissingError indicates no allowed-signers file exists for
// the requested identity. Fatal to the action; carries an operator hint
// (spec §4.3, §6, §7).
type AllowedSignersMissingError struct {
	Name string
}

func NewAllowedSignersMissingError(name string) error {
	return &AllowedSignersMissingError{Name: name}
}

func (e *AllowedSignersMissingError) Error() string {
	return fmt.Sprintf("allowed-signers file %q is not installed; Hint: install it under the configured allowed_signers directory before sending signed instructions", e.Name)
}

// SignatureError indicates a signature failed verification, or a signing
// or verification subprocess itself failed. Fatal to the action.
type SignatureError struct {
	Op  string // "sign" or "verify"
	Err error
}

func NewSignatureError(op string, err error) error {
	return &SignatureError{Op: op, Err: err}
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Op, e.Err)
}

func (e *SignatureError) Unwrap() error { return e.Err }

// TransportError indicates a dial/send/receive failure on the transport.
// Fatal to the pipeline for its host; other hosts continue (spec §4.5, §7).
type TransportError struct {
	Host string
	Op   string
	Err  error
}

func NewTransportError(host, op string, err error) error {
	return &TransportError{Host: host, Op: op, Err: err}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error on %s (%s): %v", e.Host, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ActionFailureError wraps a non-zero client-executor exit, captured
// stderr, and an optional exit code. Fatal to the pipeline for that host
// (spec §4.4, §7).
type ActionFailureError struct {
	Host     string
	Title    string
	ExitCode int
	Stderr   string
}

func NewActionFailureError(host, title string, exitCode int, stderr string) error {
	return &ActionFailureError{Host: host, Title: title, ExitCode: exitCode, Stderr: stderr}
}

func (e *ActionFailureError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("action failed on %s (%s): exit %d: %s", e.Host, e.Title, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("action failed on %s (%s): exit %d", e.Host, e.Title, e.ExitCode)
}

// ReportError indicates the reporter itself failed to write an outcome.
// Surfaces as an action failure for that host (spec §7).
type ReportError struct {
	Host string
	Err  error
}

func NewReportError(host string, err error) error {
	return &ReportError{Host: host, Err: err}
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("reporter write error on %s: %v", e.Host, e.Err)
}

func (e *ReportError) Unwrap() error { return e.Err }

// AsSchemaError reports whether err (or anything it wraps) is a *SchemaError.
func AsSchemaError(err error) (*SchemaError, bool) {
	var target *SchemaError
	ok := errors.As(err, &target)
	return target, ok
}

// AsActionFailureError reports whether err is a *ActionFailureError.
func AsActionFailureError(err error) (*ActionFailureError, bool) {
	var target *ActionFailureError
	ok := errors.As(err, &target)
	return target, ok
}

// AsTransportError reports whether err is a *TransportError.
func AsTransportError(err error) (*TransportError, bool) {
	var target *TransportError
	ok := errors.As(err, &target)
	return target, ok
}
