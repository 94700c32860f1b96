package runner

import (
	"context"
	"sync"
	"time"

	"github.com/ngld/b/pkg/taskgraph"
)

// Result describes a finished command
type Result struct {
	ExitStatus uint8
	Duration   time.Duration
	Stderr     []byte
}

// Launcher executes a task's command and waits for it to finish. A non-zero exit status is reported through the
// Result; the error is reserved for commands that couldn't be started at all.
type Launcher interface {
	Launch(ctx context.Context, task *taskgraph.Task) (Result, error)
}

// Checker is implemented by launchers that can validate a command without running it
type Checker interface {
	Check(task *taskgraph.Task) error
}

// tailBuffer keeps the last limit bytes written to it
type tailBuffer struct {
	lock  sync.Mutex
	data  []byte
	limit int
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.data = append(b.data, p...)
	if overflow := len(b.data) - b.limit; overflow > 0 {
		b.data = append(b.data[:0], b.data[overflow:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) Bytes() []byte {
	b.lock.Lock()
	defer b.lock.Unlock()

	return append([]byte(nil), b.data...)
}
