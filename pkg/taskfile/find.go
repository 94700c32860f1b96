package taskfile

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// DefaultName is the task file looked up when none is configured
const DefaultName = "b.txt"

// Find returns the path to the task file called name inside start. If search is set, the parent directories are
// checked as well until the file is found or the filesystem root is reached.
func Find(start, name string, search bool) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", &FileOpenError{Path: name, Err: err}
		}
		return name, nil
	}

	path, err := filepath.Abs(start)
	if err != nil {
		return "", eris.Wrapf(err, "failed to resolve %s", start)
	}

	for {
		taskPath := filepath.Join(path, name)
		_, err := os.Stat(taskPath)
		if err == nil {
			return taskPath, nil
		}
		if !eris.Is(err, os.ErrNotExist) {
			return "", &FileOpenError{Path: taskPath, Err: err}
		}

		parent := filepath.Dir(path)
		if !search || parent == path {
			return "", &FileOpenError{Path: filepath.Join(start, name), Err: os.ErrNotExist}
		}

		path = parent
	}
}
