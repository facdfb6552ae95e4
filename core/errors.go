package core

import "fmt"

// InvalidArgumentError reports malformed caller input: incomplete or
// ambiguous Fit data, malformed validation data, misaligned dataset
// columns.
type InvalidArgumentError struct {
	Msg string
}

// Error returns the error message.
func (e *InvalidArgumentError) Error() string {
	return "invalid argument: " + e.Msg
}

// InvalidArgumentf constructs an InvalidArgumentError with a formatted
// message.
func InvalidArgumentf(format string, args ...any) error {
	return &InvalidArgumentError{Msg: fmt.Sprintf(format, args...)}
}

// ConfigurationError reports a misconfigured registry or strategy:
// duplicate listener attachment, a hook bound to an unknown event, or an
// optimizer/loss that does not satisfy the convention the default update
// strategy assumes.
type ConfigurationError struct {
	Msg string
}

// Error returns the error message.
func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

// Configurationf constructs a ConfigurationError with a formatted message.
func Configurationf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// StateError reports an operation invoked outside its valid lifecycle
// window, such as reporting metrics with no active aggregation scope.
type StateError struct {
	Msg string
}

// Error returns the error message.
func (e *StateError) Error() string {
	return "state error: " + e.Msg
}

// Statef constructs a StateError with a formatted message.
func Statef(format string, args ...any) error {
	return &StateError{Msg: fmt.Sprintf(format, args...)}
}
