package engine

import (
	"errors"
	"fmt"
)

// ActionError is returned by Do when an action cannot be processed at all.
// Illegal game moves are not errors; they come back with Applied false.
type ActionError struct {
	// Code identifies the error category.
	Code ActionErrorCode

	// Kind is the action that failed.
	Kind ActionKind

	// Message is a human-readable description.
	Message string
}

// ActionErrorCode categorizes action errors.
type ActionErrorCode string

const (
	// ErrCodeUnknownAction indicates an action kind the loop does not handle.
	ErrCodeUnknownAction ActionErrorCode = "UNKNOWN_ACTION"

	// ErrCodeEngineStopped indicates the loop is no longer running.
	ErrCodeEngineStopped ActionErrorCode = "ENGINE_STOPPED"

	// ErrCodeGameDisabled indicates an action for a game this engine was
	// built without.
	ErrCodeGameDisabled ActionErrorCode = "GAME_DISABLED"
)

// Error implements the error interface.
func (e *ActionError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s: %s (action=%s)", e.Code, e.Message, e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsStopped returns true if err reports a stopped engine.
// Uses errors.As to handle wrapped errors.
func IsStopped(err error) bool {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Code == ErrCodeEngineStopped
	}
	return false
}

// IsUnknownAction returns true if err reports an unhandled action kind.
func IsUnknownAction(err error) bool {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Code == ErrCodeUnknownAction
	}
	return false
}

// IsGameDisabled returns true if err reports an action for a game the
// engine does not run.
func IsGameDisabled(err error) bool {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Code == ErrCodeGameDisabled
	}
	return false
}

func newStoppedError(kind ActionKind) *ActionError {
	return &ActionError{Code: ErrCodeEngineStopped, Kind: kind, Message: "engine is not running"}
}

func newUnknownActionError(kind ActionKind) *ActionError {
	return &ActionError{Code: ErrCodeUnknownAction, Kind: kind, Message: "no handler for action"}
}

func newGameDisabledError(kind ActionKind) *ActionError {
	return &ActionError{Code: ErrCodeGameDisabled, Kind: kind, Message: "game not running in this engine"}
}
