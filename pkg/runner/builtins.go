package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	"mvdan.cc/sh/v3/interp"
)

type builtin struct {
	flags func(fs *pflag.FlagSet)
	run   func(dir string, fs *pflag.FlagSet, args []string) error
}

// The shell delegates these commands to our own implementations so task files behave the same on every platform.
// Invocations using flags we don't implement are passed on to the system's command.
var builtins = map[string]builtin{
	"mv": {
		flags: func(fs *pflag.FlagSet) {
			fs.BoolP("force", "f", false, "overwrite existing files")
		},
		run: builtinMv,
	},
	"rm": {
		flags: func(fs *pflag.FlagSet) {
			fs.BoolP("recursive", "r", false, "remove directories and their contents")
			fs.BoolP("force", "f", false, "ignore missing files")
		},
		run: builtinRm,
	},
	"mkdir": {
		flags: func(fs *pflag.FlagSet) {
			fs.BoolP("parents", "p", false, "create missing parent directories")
		},
		run: builtinMkdir,
	},
}

func builtinsMiddleware(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) == 0 {
			return next(ctx, args)
		}

		cmd, ok := builtins[args[0]]
		if !ok {
			return next(ctx, args)
		}

		fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
		fs.SetOutput(io.Discard)
		cmd.flags(fs)
		if err := fs.Parse(args[1:]); err != nil {
			return next(ctx, args)
		}

		hc := interp.HandlerCtx(ctx)
		if err := cmd.run(hc.Dir, fs, fs.Args()); err != nil {
			fmt.Fprintf(hc.Stderr, "%s: %s\n", args[0], err)
			return interp.NewExitStatus(1)
		}
		return nil
	}
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// expandArgs resolves glob patterns on Windows where the shell doesn't have a native mv or rm to hand them to
func expandArgs(dir string, args []string, allowEmpty bool) ([]string, error) {
	items := make([]string, 0, len(args))
	for _, arg := range args {
		path := resolve(dir, arg)
		if runtime.GOOS != "windows" {
			items = append(items, path)
			continue
		}

		matches, err := filepath.Glob(path)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to resolve pattern %s", arg)
		}
		if matches == nil && !allowEmpty {
			return nil, eris.Errorf("pattern %s produced no matches", arg)
		}
		items = append(items, matches...)
	}

	return items, nil
}

func builtinMv(dir string, _ *pflag.FlagSet, args []string) error {
	if len(args) < 2 {
		return eris.New("not enough parameters")
	}

	dest := resolve(dir, args[len(args)-1])
	items, err := expandArgs(dir, args[:len(args)-1], false)
	if err != nil {
		return err
	}

	info, err := os.Stat(dest)
	if err != nil && !eris.Is(err, os.ErrNotExist) {
		return eris.Wrapf(err, "failed to check destination %s", dest)
	}
	destIsDir := err == nil && info.IsDir()

	if len(items) > 1 && !destIsDir {
		return eris.Errorf("can't move multiple items to %s because it is not a directory", dest)
	}

	for _, item := range items {
		target := dest
		if destIsDir {
			target = filepath.Join(dest, filepath.Base(item))
		}

		if err = os.Rename(item, target); err != nil {
			return eris.Wrapf(err, "failed to move %s to %s", item, target)
		}
	}

	return nil
}

func builtinRm(dir string, fs *pflag.FlagSet, args []string) error {
	recursive, err := fs.GetBool("recursive")
	if err != nil {
		return err
	}
	force, err := fs.GetBool("force")
	if err != nil {
		return err
	}

	items, err := expandArgs(dir, args, force)
	if err != nil {
		return err
	}

	for _, item := range items {
		info, err := os.Stat(item)
		if err != nil {
			if force && eris.Is(err, os.ErrNotExist) {
				continue
			}
			return eris.Wrapf(err, "could not stat %s", item)
		}

		if info.IsDir() && !recursive {
			return eris.Errorf("%s is a directory but -r wasn't passed", item)
		}
	}

	for _, item := range items {
		if err := os.RemoveAll(item); err != nil {
			return eris.Wrapf(err, "could not delete %s", item)
		}
	}

	return nil
}

func builtinMkdir(dir string, fs *pflag.FlagSet, args []string) error {
	parents, err := fs.GetBool("parents")
	if err != nil {
		return err
	}

	for _, item := range args {
		path := resolve(dir, item)
		if parents {
			err = os.MkdirAll(path, 0o770)
		} else {
			err = os.Mkdir(path, 0o770)
		}

		if err != nil {
			return eris.Wrapf(err, "failed to create %s", item)
		}
	}

	return nil
}
