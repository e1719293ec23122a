package plugin

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by the plugin system, matched with errors.Is.
var (
	// ErrUnknownFamily is returned when no plugin is registered for a family.
	ErrUnknownFamily = errors.New("unknown database family")

	// ErrInvalidConfig is returned when a connection configuration misses a
	// required parameter.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed is returned when a plugin could not connect.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNoMatchingPlugin is returned when the family is known but no plugin
	// declares a range covering the observed server version.
	ErrNoMatchingPlugin = errors.New("no plugin matches server version")

	// ErrCapabilityUnsupported is returned when a plugin exists but does not
	// implement the requested capability.
	ErrCapabilityUnsupported = errors.New("capability not supported")

	// ErrPluginNotFound is returned when a plugin id is not registered.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrNoCandidateSucceeded is returned by Attempt when every candidate
	// rejected the operation.
	ErrNoCandidateSucceeded = errors.New("no candidate succeeded")

	// ErrVersionRejected is returned by a plugin refusing a driver version it
	// does not recognise.
	ErrVersionRejected = errors.New("version rejected")

	// ErrTimeout is returned when the caller supplied deadline expired.
	ErrTimeout = errors.New("operation timed out")
)

// ConfigError describes a configuration problem.
type ConfigError struct {
	Family string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration for %s: field '%s': %s", e.Family, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid configuration for %s: %s", e.Family, e.Reason)
}

// Is reports ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError creates a ConfigError.
func NewConfigError(family, field, reason string) *ConfigError {
	return &ConfigError{Family: family, Field: field, Reason: reason}
}

// ConnectError wraps a driver failure raised while connecting.
type ConnectError struct {
	PluginID string
	Host     string
	Port     int
	Cause    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("%s: failed to connect to %s:%d: %v", e.PluginID, e.Host, e.Port, e.Cause)
}

// Unwrap returns the driver error.
func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// Is reports ErrConnectionFailed.
func (e *ConnectError) Is(target error) bool {
	return target == ErrConnectionFailed
}

// NewConnectError creates a ConnectError.
func NewConnectError(pluginID, host string, port int, cause error) *ConnectError {
	return &ConnectError{PluginID: pluginID, Host: host, Port: port, Cause: cause}
}

// CoverageError is returned when no declared range covers a server version.
type CoverageError struct {
	Family  string
	Version string
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("%s: no plugin covers server version %q", e.Family, e.Version)
}

// Is reports ErrNoMatchingPlugin.
func (e *CoverageError) Is(target error) bool {
	return target == ErrNoMatchingPlugin
}

// CapabilityError is returned when a plugin lacks a capability.
type CapabilityError struct {
	PluginID   string
	Capability Capability
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("plugin %s does not implement capability %s", e.PluginID, e.Capability)
}

// Is reports ErrCapabilityUnsupported.
func (e *CapabilityError) Is(target error) bool {
	return target == ErrCapabilityUnsupported
}

// NoCandidateError aggregates the rejections collected by Attempt.
type NoCandidateError struct {
	Failures []error
}

func (e *NoCandidateError) Error() string {
	if len(e.Failures) == 0 {
		return ErrNoCandidateSucceeded.Error() + ": no candidates"
	}
	messages := make([]string, 0, len(e.Failures))
	for _, failure := range e.Failures {
		messages = append(messages, failure.Error())
	}
	return fmt.Sprintf("%v (%d attempts: %s)", ErrNoCandidateSucceeded, len(e.Failures), strings.Join(messages, "; "))
}

// Is reports ErrNoCandidateSucceeded. Individual failures are not unwrapped.
func (e *NoCandidateError) Is(target error) bool {
	return target == ErrNoCandidateSucceeded
}

// IsRejection reports whether err lets Attempt move on to the next candidate.
func IsRejection(err error) bool {
	return errors.Is(err, ErrConnectionFailed) ||
		errors.Is(err, ErrVersionRejected) ||
		errors.Is(err, ErrCapabilityUnsupported)
}
