// Package coherence holds the definitions shared by every stage of the
// coherence fabric builder: the error taxonomy and the protocol identity.
package coherence

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every ConfigurationError.
var ErrConfiguration = errors.New("configuration error")

// ErrStructuralWiring is matched by every StructuralWiringError.
var ErrStructuralWiring = errors.New("structural wiring error")

// A ConfigurationError reports a configuration that can never produce a valid
// fabric. It is always raised before any controller is built.
type ConfigurationError struct {
	Field  string
	Reason string
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(field, format string, args ...any) error {
	return &ConfigurationError{
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Reason
	}

	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrConfiguration) succeed.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// A StructuralWiringError reports a fabric that is assembled inconsistently,
// such as a port connected twice or a sequencer bound to two controllers.
type StructuralWiringError struct {
	Component string
	Reason    string
}

// NewStructuralWiringError creates a StructuralWiringError.
func NewStructuralWiringError(component, format string, args ...any) error {
	return &StructuralWiringError{
		Component: component,
		Reason:    fmt.Sprintf(format, args...),
	}
}

func (e *StructuralWiringError) Error() string {
	if e.Component == "" {
		return "structural wiring error: " + e.Reason
	}

	return fmt.Sprintf("structural wiring error: %s: %s",
		e.Component, e.Reason)
}

// Is makes errors.Is(err, ErrStructuralWiring) succeed.
func (e *StructuralWiringError) Is(target error) bool {
	return target == ErrStructuralWiring
}
