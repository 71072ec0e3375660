package config

import (
	"errors"
	"fmt"
)

var (
	// ErrNoInstances indicates a multimode registry without any instance.
	ErrNoInstances = errors.New("registry defines no instances")
	// ErrNotMultimode indicates an instance switch outside multimode.
	ErrNotMultimode = errors.New("config: multimode is not enabled")
)

// ConfigError reports a configuration file that could not be used. Field
// names the offending member when the problem is narrower than the file.
type ConfigError struct {
	File  string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config: %s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("config: %s: %s: %v", e.File, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// InstanceNotFoundError indicates a multimode instance name that is not in
// the registry.
type InstanceNotFoundError struct {
	Name     string
	Registry string
}

func (e InstanceNotFoundError) Error() string {
	return fmt.Sprintf("config: could not find instance with name %q in %s", e.Name, e.Registry)
}

// IsInstanceNotFound returns true when err is (or wraps) an InstanceNotFoundError.
func IsInstanceNotFound(err error) bool {
	var target InstanceNotFoundError
	return errors.As(err, &target)
}
