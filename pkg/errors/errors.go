// Unified error handling for the baby-step controller
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import "fmt"

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Configuration errors
	ErrConfigSection    ErrorCode = "CONFIG_SECTION"
	ErrConfigOption     ErrorCode = "CONFIG_OPTION"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"
	ErrConfigType       ErrorCode = "CONFIG_TYPE"

	// Controller errors
	ErrLimits   ErrorCode = "LIMITS"
	ErrActuator ErrorCode = "ACTUATOR"

	// Parameter store errors
	ErrParamRead   ErrorCode = "PARAM_READ"
	ErrParamWrite  ErrorCode = "PARAM_WRITE"
	ErrParamCommit ErrorCode = "PARAM_COMMIT"

	// Transport errors
	ErrTransport      ErrorCode = "TRANSPORT"
	ErrTransportReply ErrorCode = "TRANSPORT_REPLY"

	// Runtime errors
	ErrRuntime     ErrorCode = "RUNTIME"
	ErrRuntimeInit ErrorCode = "RUNTIME_INIT"
)

// BabystepError is the unified error type for the controller and its collaborators
type BabystepError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Section is the config section or context
	Section string

	// Option is the config option name (if applicable)
	Option string

	// Err wraps the underlying error
	Err error

	// Context provides additional context
	Context map[string]interface{}
}

// Error implements the error interface
func (e *BabystepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	if e.Option != "" {
		return fmt.Sprintf("[%s:%s.%s] %s", e.Code, e.Section, e.Option, e.Message)
	}
	if e.Section != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Code, e.Section, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *BabystepError) Unwrap() error {
	return e.Err
}

// SetSection sets the context section
func (e *BabystepError) SetSection(section string) *BabystepError {
	e.Section = section
	return e
}

// SetOption sets the config option
func (e *BabystepError) SetOption(option string) *BabystepError {
	e.Option = option
	return e
}

// SetContext adds additional context
func (e *BabystepError) SetContext(key string, value interface{}) *BabystepError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *BabystepError {
	return &BabystepError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// New creates a new BabystepError
func New(code ErrorCode, message string) *BabystepError {
	return &BabystepError{
		Code:    code,
		Message: message,
	}
}

// Config errors

// ConfigSectionError creates an error for missing config section
func ConfigSectionError(section string) *BabystepError {
	return New(ErrConfigSection, fmt.Sprintf("section '%s' not found", section)).
		SetSection(section)
}

// ConfigValidationError creates an error for config validation failure
func ConfigValidationError(section, option string, reason string) *BabystepError {
	return New(ErrConfigValidation, fmt.Sprintf("option '%s' in section '%s': %s", option, section, reason)).
		SetSection(section).
		SetOption(option)
}

// ConfigTypeError creates an error for config type conversion failure
func ConfigTypeError(section, option, value string, targetType string, err error) *BabystepError {
	return Wrap(err, ErrConfigType, fmt.Sprintf("option '%s' in section '%s': failed to parse '%s' as %s", option, section, value, targetType)).
		SetSection(section).
		SetOption(option)
}

// Controller errors

// LimitsError creates an error for an inconsistent set of offset limits
func LimitsError(reason string) *BabystepError {
	return New(ErrLimits, reason)
}

// ActuatorError wraps a failed actuator call with the delta that was refused
func ActuatorError(delta float64, err error) *BabystepError {
	return Wrap(err, ErrActuator, fmt.Sprintf("apply delta %.3f failed", delta)).
		SetContext("delta", delta)
}

// Parameter store errors

// ParamReadError wraps a failed parameter read
func ParamReadError(param, axis string, err error) *BabystepError {
	return Wrap(err, ErrParamRead, fmt.Sprintf("read %s[%s] failed", param, axis)).
		SetContext("param", param).
		SetContext("axis", axis)
}

// ParamWriteError wraps a failed parameter write
func ParamWriteError(param, axis string, value float64, err error) *BabystepError {
	return Wrap(err, ErrParamWrite, fmt.Sprintf("write %s[%s]=%.3f failed", param, axis, value)).
		SetContext("param", param).
		SetContext("axis", axis)
}

// ParamCommitError wraps a failed commit to persistent storage
func ParamCommitError(err error) *BabystepError {
	return Wrap(err, ErrParamCommit, "commit to persistent storage failed")
}

// Transport errors

// TransportError creates an error for a link failure
func TransportError(operation string, err error) *BabystepError {
	return Wrap(err, ErrTransport, fmt.Sprintf("%s failed", operation))
}

// TransportReplyError creates an error for an unexpected or error reply
func TransportReplyError(command, reply string) *BabystepError {
	return New(ErrTransportReply, fmt.Sprintf("command '%s' rejected: %s", command, reply)).
		SetContext("command", command)
}

// Runtime errors

// RuntimeError creates a general runtime error
func RuntimeError(message string) *BabystepError {
	return New(ErrRuntime, message)
}

// RuntimeErrorInit creates an error for initialization failure
func RuntimeErrorInit(component string, reason string) *BabystepError {
	return New(ErrRuntimeInit, fmt.Sprintf("failed to initialize %s: %s", component, reason))
}

// codeOf returns the code of the first BabystepError in the chain
func codeOf(err error) (ErrorCode, bool) {
	for err != nil {
		if be, ok := err.(*BabystepError); ok {
			return be.Code, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return "", false
		}
		err = u.Unwrap()
	}
	return "", false
}

// Is checks if error matches given error code
func Is(err error, code ErrorCode) bool {
	c, ok := codeOf(err)
	return ok && c == code
}

// IsConfig checks if error is a config error
func IsConfig(err error) bool {
	return Is(err, ErrConfigSection) ||
		Is(err, ErrConfigOption) ||
		Is(err, ErrConfigValidation) ||
		Is(err, ErrConfigType)
}

// IsParam checks if error came from the parameter store
func IsParam(err error) bool {
	return Is(err, ErrParamRead) ||
		Is(err, ErrParamWrite) ||
		Is(err, ErrParamCommit)
}

// IsTransport checks if error is a link error
func IsTransport(err error) bool {
	return Is(err, ErrTransport) || Is(err, ErrTransportReply)
}
