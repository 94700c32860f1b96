package cmd

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ngld/b/pkg/runner"
	"github.com/ngld/b/pkg/taskfile"
	"github.com/ngld/b/pkg/taskgraph"
)

// ArgumentError is returned for invalid command line arguments
type ArgumentError struct {
	Msg string
}

var _ error = (*ArgumentError)(nil)

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments: %s", e.Msg)
}

// argsBetween accepts between min and max positional arguments
func argsBetween(min, max int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < min || len(args) > max {
			return &ArgumentError{Msg: usage}
		}
		return nil
	}
}

const (
	exitOK         = 0
	exitFailure    = 1
	exitUsage      = 2
	exitStructural = 3
)

// exitCode maps an error to the process exit status
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var (
		argErr     *ArgumentError
		failed     *runner.TaskFailedError
		fileErr    *taskfile.FileOpenError
		parseErr   *taskfile.ParseError
		cycleErr   *taskgraph.CycleError
		unknownErr *taskgraph.UnknownTaskError
		cmdErr     *runner.CommandError
	)

	switch {
	case eris.As(err, &argErr):
		return exitUsage
	case eris.As(err, &failed), eris.As(err, &fileErr):
		return exitFailure
	case eris.As(err, &parseErr), eris.As(err, &cycleErr), eris.As(err, &unknownErr), eris.As(err, &cmdErr):
		return exitStructural
	}

	return exitFailure
}
