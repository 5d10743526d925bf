// Package errors provides structured error handling for pocket.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess    = 0 // Successful execution
	ExitGeneral    = 1 // General/unknown error
	ExitInput      = 2 // Invalid input
	ExitAuth       = 3 // Authorization refused by the wallet
	ExitNotFound   = 4 // Resource not found
	ExitPermission = 5 // Permission denied or insufficient funds
)

// PocketError is the structured error type for pocket.
type PocketError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *PocketError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *PocketError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for PocketError.
func (e *PocketError) Is(target error) bool {
	var t *PocketError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &PocketError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &PocketError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrNotFound = &PocketError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	ErrInsufficientFunds = &PocketError{
		Code:     "INSUFFICIENT_FUNDS",
		Message:  "insufficient funds for transaction",
		ExitCode: ExitPermission,
	}

	// Session errors.
	ErrProviderMissing = &PocketError{
		Code:       "PROVIDER_MISSING",
		Message:    "wallet provider not found",
		Suggestion: "Open this dashboard inside the TokenPocket app or configure a local wallet with 'pocket key import'",
		ExitCode:   ExitNotFound,
	}

	ErrWrongWalletApp = &PocketError{
		Code:     "WRONG_WALLET_APP",
		Message:  "please use TokenPocket browser to connect",
		ExitCode: ExitInput,
	}

	ErrNoAccounts = &PocketError{
		Code:     "NO_ACCOUNTS",
		Message:  "no accounts found",
		ExitCode: ExitAuth,
	}

	ErrNotConnected = &PocketError{
		Code:       "NOT_CONNECTED",
		Message:    "wallet not connected",
		Suggestion: "Run 'pocket connect' first",
		ExitCode:   ExitInput,
	}

	// Chain errors.
	ErrInvalidAddress = &PocketError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}

	ErrInvalidAmount = &PocketError{
		Code:     "INVALID_AMOUNT",
		Message:  "invalid amount format",
		ExitCode: ExitInput,
	}

	ErrTokenNotFound = &PocketError{
		Code:     "TOKEN_NOT_FOUND",
		Message:  "token not found",
		ExitCode: ExitNotFound,
	}

	ErrNetworkError = &PocketError{
		Code:     "NETWORK_ERROR",
		Message:  "network communication failed",
		ExitCode: ExitGeneral,
	}

	ErrTxRejected = &PocketError{
		Code:     "TX_REJECTED",
		Message:  "transaction rejected",
		ExitCode: ExitGeneral,
	}

	// Config errors.
	ErrConfigInvalid = &PocketError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownConfigKey = &PocketError{
		Code:     "UNKNOWN_CONFIG_KEY",
		Message:  "unknown configuration key",
		ExitCode: ExitInput,
	}

	ErrInvalidFormat = &PocketError{
		Code:     "INVALID_FORMAT",
		Message:  "invalid value",
		ExitCode: ExitInput,
	}

	// Store errors.
	ErrStoreLocked = &PocketError{
		Code:       "STORE_LOCKED",
		Message:    "wallet database is in use",
		Suggestion: "Another pocket process holds the database. Stop 'pocket watch' or use its HTTP endpoints",
		ExitCode:   ExitGeneral,
	}

	// Key errors.
	ErrKeyNotFound = &PocketError{
		Code:       "KEY_NOT_FOUND",
		Message:    "no wallet key configured",
		Suggestion: "Run 'pocket key import' to add a signing key",
		ExitCode:   ExitNotFound,
	}

	ErrKeyExists = &PocketError{
		Code:       "KEY_EXISTS",
		Message:    "a wallet key is already configured",
		Suggestion: "Use --force to replace it",
		ExitCode:   ExitInput,
	}

	ErrDecryptionFailed = &PocketError{
		Code:     "DECRYPTION_FAILED",
		Message:  "decryption failed - wrong password or corrupted file",
		ExitCode: ExitAuth,
	}
)

// New creates a new PocketError with the given code and message.
func New(code, message string) *PocketError {
	return &PocketError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var pe *PocketError
	if errors.As(err, &pe) {
		return &PocketError{
			Code:       pe.Code,
			Message:    fmt.Sprintf("%s: %s", msg, pe.Message),
			Details:    pe.Details,
			Suggestion: pe.Suggestion,
			Cause:      err,
			ExitCode:   pe.ExitCode,
		}
	}

	return &PocketError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var pe *PocketError
	if errors.As(err, &pe) {
		return &PocketError{
			Code:       pe.Code,
			Message:    pe.Message,
			Details:    details,
			Suggestion: pe.Suggestion,
			Cause:      pe.Cause,
			ExitCode:   pe.ExitCode,
		}
	}

	return &PocketError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var pe *PocketError
	if errors.As(err, &pe) {
		return &PocketError{
			Code:       pe.Code,
			Message:    pe.Message,
			Details:    pe.Details,
			Suggestion: suggestion,
			Cause:      pe.Cause,
			ExitCode:   pe.ExitCode,
		}
	}

	return &PocketError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var pe *PocketError
	if errors.As(err, &pe) {
		return pe.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var pe *PocketError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return "GENERAL_ERROR"
}

// Message returns the human-readable message for an error. For a
// PocketError this is its Message without details or cause, otherwise the
// plain error text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var pe *PocketError
	if errors.As(err, &pe) && pe.Cause == nil && len(pe.Details) == 0 {
		return pe.Message
	}
	return err.Error()
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
