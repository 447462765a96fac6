// Package exes carries the external executable paths selected at the CLI
// boundary. A Tools value is constructed once and passed into every
// component that shells out; there is no ambient global state.
package exes

import "fmt"

// Tools names the external executables meta-dds wraps.
type Tools struct {
	CMake string
	DDS   string
}

// ExitError reports a wrapped executable exiting non-zero.
type ExitError struct {
	Exe  string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with non-zero exit status %d", e.Exe, e.Code)
}
