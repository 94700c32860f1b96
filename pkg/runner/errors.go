package runner

import (
	"fmt"
	"strings"
)

// CommandError is returned if a task's command can't be parsed by the launcher.
type CommandError struct {
	Task    string
	Command string
	Err     error
}

var _ error = (*CommandError)(nil)

func (e *CommandError) Error() string {
	return fmt.Sprintf("invalid command for task %s: %v", e.Task, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// TaskFailedError is returned when a task's command exits with a non-zero status.
type TaskFailedError struct {
	Task       string
	ExitStatus uint8
	// Stderr holds the tail of the command's error output
	Stderr string
}

var _ error = (*TaskFailedError)(nil)

func (e *TaskFailedError) Error() string {
	msg := fmt.Sprintf("task %s failed with exit status %d", e.Task, e.ExitStatus)
	if tail := strings.TrimSpace(e.Stderr); tail != "" {
		msg += ":\n" + tail
	}
	return msg
}
