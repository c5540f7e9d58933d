package cli

import "fmt"

// Exit codes for the posecheck CLI. These support scripting and CI
// integration: acceptance pipelines branch on the code, not the output.
const (
	// ExitSuccess indicates the dataset conforms.
	ExitSuccess = 0
	// ExitValidationFailed indicates the report contains errors
	// (or advisories, in strict mode).
	ExitValidationFailed = 1
	// ExitEnvironmentFailure indicates the run could not start or finish,
	// e.g. an unreadable dataset root.
	ExitEnvironmentFailure = 2
	// ExitInvalidArguments indicates invalid command arguments or config.
	ExitInvalidArguments = 3
)

// exitError is a custom error type that carries an exit code.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// NewExitError creates a new exit error with the given code.
func NewExitError(code int) error {
	return &exitError{code: code}
}

// ExitCode returns the exit code from an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if e, ok := err.(*exitError); ok {
		return e.code
	}
	return ExitValidationFailed
}
