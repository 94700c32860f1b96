package runner

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/ngld/b/pkg/taskgraph"
)

const stderrTail = 4096

// ShellLauncher runs commands in an embedded POSIX shell interpreter. Every command runs with "set -e".
type ShellLauncher struct {
	// Dir is the working directory, the current directory if empty
	Dir string
	// Env replaces the process environment if it's not nil
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

var _ Checker = (*ShellLauncher)(nil)

// NewShellLauncher returns a launcher that runs commands in dir and connects them to the process' stdio
func NewShellLauncher(dir string) *ShellLauncher {
	return &ShellLauncher{
		Dir:    dir,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

var defaultOpenHandler = interp.DefaultOpenHandler()

func openHandler(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	if path == "/dev/null" {
		path = os.DevNull
	}

	return defaultOpenHandler(ctx, path, flag, perm)
}

func (l *ShellLauncher) parse(task *taskgraph.Task) (*syntax.File, error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(task.Command), task.Name)
	if err != nil {
		return nil, &CommandError{Task: task.Name, Command: task.Command, Err: err}
	}

	return file, nil
}

// Check parses the task's command without running it
func (l *ShellLauncher) Check(task *taskgraph.Task) error {
	_, err := l.parse(task)
	return err
}

// Launch runs the task's command and waits for it to finish
func (l *ShellLauncher) Launch(ctx context.Context, task *taskgraph.Task) (Result, error) {
	file, err := l.parse(task)
	if err != nil {
		return Result{}, err
	}

	env := l.Env
	if env == nil {
		env = os.Environ()
	}

	stdout := l.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := l.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	tail := newTailBuffer(stderrTail)

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.ExecHandlers(builtinsMiddleware),
		interp.OpenHandler(openHandler),
		interp.StdIO(l.Stdin, stdout, io.MultiWriter(stderr, tail)),
		interp.Params("-e"),
	}
	if l.Dir != "" {
		opts = append(opts, interp.Dir(l.Dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return Result{}, eris.Wrap(err, "failed to initialize shell")
	}

	start := time.Now()
	err = runner.Run(ctx, file)
	result := Result{
		Duration: time.Since(start),
		Stderr:   tail.Bytes(),
	}

	if err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			result.ExitStatus = status
			return result, nil
		}

		return result, eris.Wrapf(err, "failed to run %s", task.Command)
	}

	return result, nil
}
