package domain

import (
	"errors"
	"fmt"
)

// ErrExit is returned by an action handler to end the conversation.
var ErrExit = errors.New("conversation ended")

// ErrFragmentNotFound is returned by resolvers when a reference cannot be found.
var ErrFragmentNotFound = errors.New("fragment not found")

// ErrFragmentCycle is returned when fragments reference each other in a loop.
var ErrFragmentCycle = errors.New("fragment reference cycle")

// ErrInvalidFlow is returned when a flow definition is structurally malformed.
var ErrInvalidFlow = errors.New("invalid flow")

// ErrMissingHandler is wrapped by ConfigError when a handler name is not registered.
var ErrMissingHandler = errors.New("handler not registered")

// ErrSlotAttemptsExceeded is returned when a bounded slot loop gives up.
var ErrSlotAttemptsExceeded = errors.New("slot attempts exceeded")

// ErrSettingsNotFound is returned when no run settings exist for an image.
var ErrSettingsNotFound = errors.New("settings not found")

// HandlerKind names a handler registry.
type HandlerKind string

const (
	KindAction    HandlerKind = "action"
	KindMatcher   HandlerKind = "matcher"
	KindValidator HandlerKind = "validator"
	KindFiller    HandlerKind = "filler"
	KindFragment  HandlerKind = "fragment"
	KindJump      HandlerKind = "jump"
	KindBinding   HandlerKind = "binding"
)

// ConfigError reports a malformed flow definition or incomplete host setup.
// It is never retried.
type ConfigError struct {
	Kind HandlerKind
	Name string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s '%s': %v", e.Kind, e.Name, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// MissingHandler builds the ConfigError for an unregistered handler.
func MissingHandler(kind HandlerKind, name string) *ConfigError {
	return &ConfigError{Kind: kind, Name: name, Err: ErrMissingHandler}
}
