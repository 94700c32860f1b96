package runner

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngld/b/pkg/blog"
	"github.com/ngld/b/pkg/taskgraph"
)

// fakeLauncher records every launch instead of running anything
type fakeLauncher struct {
	lock       sync.Mutex
	calls      []string
	events     []string
	running    int
	maxRunning int

	fail    map[string]uint8
	invalid map[string]bool
	delay   map[string]time.Duration
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{
		fail:    make(map[string]uint8),
		invalid: make(map[string]bool),
		delay:   make(map[string]time.Duration),
	}
}

func (f *fakeLauncher) Launch(ctx context.Context, task *taskgraph.Task) (Result, error) {
	f.lock.Lock()
	f.calls = append(f.calls, task.Name)
	f.events = append(f.events, "start "+task.Name)
	f.running++
	if f.running > f.maxRunning {
		f.maxRunning = f.running
	}
	delay := f.delay[task.Name]
	f.lock.Unlock()

	defer func() {
		f.lock.Lock()
		f.running--
		f.events = append(f.events, "end "+task.Name)
		f.lock.Unlock()
	}()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	status := f.fail[task.Name]
	result := Result{ExitStatus: status}
	if status != 0 {
		result.Stderr = []byte("boom\n")
	}
	return result, nil
}

func (f *fakeLauncher) Check(task *taskgraph.Task) error {
	if f.invalid[task.Name] {
		return &CommandError{Task: task.Name, Command: task.Command}
	}
	return nil
}

func (f *fakeLauncher) eventIndex(event string) int {
	for idx, item := range f.events {
		if item == event {
			return idx
		}
	}
	return -1
}

func exampleGraph() *taskgraph.Graph {
	return taskgraph.New(
		taskgraph.Task{Name: "A", Command: "echo A", Deps: []string{"B", "C"}},
		taskgraph.Task{Name: "B", Command: "echo B"},
		taskgraph.Task{Name: "C", Command: "echo C", Deps: []string{"B"}},
	)
}

func testContext(buf *bytes.Buffer) context.Context {
	logger := zerolog.New(buf)
	return blog.WithLogger(context.Background(), &logger)
}

func TestRun_RunsDependenciesThenTarget(t *testing.T) {
	launcher := newFakeLauncher()
	err := New(launcher, Options{}).Run(context.Background(), exampleGraph(), "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "A"}, launcher.calls)
}

func TestRun_DepsOnlySkipsTarget(t *testing.T) {
	launcher := newFakeLauncher()
	err := New(launcher, Options{DepsOnly: true}).Run(context.Background(), exampleGraph(), "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, launcher.calls)
}

func TestRun_NoDependencies(t *testing.T) {
	for _, depsOnly := range []bool{false, true} {
		launcher := newFakeLauncher()
		err := New(launcher, Options{DepsOnly: depsOnly}).Run(context.Background(), exampleGraph(), "B")
		require.NoError(t, err)
		assert.Equal(t, []string{"B"}, launcher.calls)
	}
}

func TestRun_UnknownTarget(t *testing.T) {
	launcher := newFakeLauncher()
	err := New(launcher, Options{}).Run(context.Background(), exampleGraph(), "Z")

	var unknown *taskgraph.UnknownTaskError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Z", unknown.Name)
	assert.Empty(t, launcher.calls)
}

func TestRun_UnknownDependency(t *testing.T) {
	g := taskgraph.New(
		taskgraph.Task{Name: "A", Deps: []string{"B"}},
		taskgraph.Task{Name: "B", Deps: []string{"ghost"}},
	)

	launcher := newFakeLauncher()
	err := New(launcher, Options{}).Run(context.Background(), g, "A")

	var unknown *taskgraph.UnknownTaskError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ghost", unknown.Name)
	assert.Empty(t, launcher.calls)
}

func TestRun_CycleRunsNothing(t *testing.T) {
	g := taskgraph.New(
		taskgraph.Task{Name: "A", Deps: []string{"B", "leaf"}},
		taskgraph.Task{Name: "B", Deps: []string{"A"}},
		taskgraph.Task{Name: "leaf"},
	)

	for _, jobs := range []int{1, 4} {
		launcher := newFakeLauncher()
		err := New(launcher, Options{Jobs: jobs}).Run(context.Background(), g, "A")

		var cycle *taskgraph.CycleError
		require.ErrorAs(t, err, &cycle)
		assert.ElementsMatch(t, []string{"A", "B"}, cycle.Unresolved)
		assert.Empty(t, launcher.calls)
	}
}

func TestRun_InvalidCommandRunsNothing(t *testing.T) {
	launcher := newFakeLauncher()
	launcher.invalid["A"] = true

	err := New(launcher, Options{}).Run(context.Background(), exampleGraph(), "A")
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "A", cmdErr.Task)
	assert.Empty(t, launcher.calls)
}

func TestRun_FailureStopsRun(t *testing.T) {
	launcher := newFakeLauncher()
	launcher.fail["C"] = 2

	err := New(launcher, Options{}).Run(context.Background(), exampleGraph(), "A")
	var failed *TaskFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "C", failed.Task)
	assert.Equal(t, uint8(2), failed.ExitStatus)
	assert.Contains(t, failed.Error(), "boom")
	assert.Equal(t, []string{"B", "C"}, launcher.calls)
}

func TestRun_DryRun(t *testing.T) {
	var buf bytes.Buffer
	launcher := newFakeLauncher()

	err := New(launcher, Options{DryRun: true}).Run(testContext(&buf), exampleGraph(), "A")
	require.NoError(t, err)
	assert.Empty(t, launcher.calls)
	assert.Contains(t, buf.String(), `"message":"echo A"`)
}

func TestRun_LogsTaskBeforeInvocation(t *testing.T) {
	var buf bytes.Buffer
	err := New(newFakeLauncher(), Options{}).Run(testContext(&buf), exampleGraph(), "A")
	require.NoError(t, err)

	out := buf.String()
	posB := strings.Index(out, `"task":"B"`)
	posC := strings.Index(out, `"task":"C"`)
	posA := strings.Index(out, `"task":"A"`)
	require.True(t, posB >= 0 && posC >= 0 && posA >= 0, out)
	assert.Less(t, posB, posC)
	assert.Less(t, posC, posA)
}

func TestRun_Progress(t *testing.T) {
	var calls []string
	opts := Options{Progress: func(done, total int, task string) {
		calls = append(calls, task)
		assert.Equal(t, 3, total)
		assert.Equal(t, len(calls), done)
	}}

	runner := New(newFakeLauncher(), opts)
	require.NoError(t, runner.Run(context.Background(), exampleGraph(), "A"))
	assert.Equal(t, []string{"B", "C", "A"}, calls)

	// the counter starts over for every run
	calls = nil
	require.NoError(t, runner.Run(context.Background(), exampleGraph(), "C"))
	assert.Equal(t, []string{"B", "C"}, calls)
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	launcher := newFakeLauncher()
	err := New(launcher, Options{}).Run(ctx, exampleGraph(), "A")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, launcher.calls)
}

func TestRun_RepeatedRunsAreIndependent(t *testing.T) {
	g := exampleGraph()
	launcher := newFakeLauncher()
	runner := New(launcher, Options{})

	require.NoError(t, runner.Run(context.Background(), g, "A"))
	require.NoError(t, runner.Run(context.Background(), g, "A"))
	assert.Equal(t, []string{"B", "C", "A", "B", "C", "A"}, launcher.calls)
}

func TestPlan(t *testing.T) {
	plan, err := New(newFakeLauncher(), Options{}).Plan(exampleGraph(), "C")
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, "B", plan[0].Name)
	assert.Equal(t, "C", plan[1].Name)
}

func diamondGraph() *taskgraph.Graph {
	return taskgraph.New(
		taskgraph.Task{Name: "release", Deps: []string{"docs", "test", "lint"}},
		taskgraph.Task{Name: "docs", Deps: []string{"build"}},
		taskgraph.Task{Name: "test", Deps: []string{"build"}},
		taskgraph.Task{Name: "lint"},
		taskgraph.Task{Name: "build", Deps: []string{"fetch"}},
		taskgraph.Task{Name: "fetch"},
	)
}

func TestRunParallel_PreservesPartialOrder(t *testing.T) {
	g := diamondGraph()
	launcher := newFakeLauncher()
	for _, name := range g.Names() {
		launcher.delay[name] = 5 * time.Millisecond
	}

	err := New(launcher, Options{Jobs: 3}).Run(context.Background(), g, "release")
	require.NoError(t, err)
	assert.ElementsMatch(t, g.Names(), launcher.calls)
	assert.LessOrEqual(t, launcher.maxRunning, 3)

	for _, task := range g.Tasks() {
		for _, dep := range task.Deps {
			assert.Less(t, launcher.eventIndex("end "+dep), launcher.eventIndex("start "+task.Name),
				"%s started before its dependency %s finished", task.Name, dep)
		}
	}
}

func TestRunParallel_RespectsLimit(t *testing.T) {
	tasks := []taskgraph.Task{{Name: "all"}}
	launcher := newFakeLauncher()
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		tasks[0].Deps = append(tasks[0].Deps, name)
		tasks = append(tasks, taskgraph.Task{Name: name})
		launcher.delay[name] = 10 * time.Millisecond
	}

	err := New(launcher, Options{Jobs: 2}).Run(context.Background(), taskgraph.New(tasks...), "all")
	require.NoError(t, err)
	assert.Len(t, launcher.calls, 7)
	assert.LessOrEqual(t, launcher.maxRunning, 2)
	assert.Equal(t, "all", launcher.calls[6])
}

func TestRunParallel_FailureStopsDependents(t *testing.T) {
	g := diamondGraph()
	launcher := newFakeLauncher()
	launcher.fail["build"] = 1
	launcher.delay["lint"] = 50 * time.Millisecond

	err := New(launcher, Options{Jobs: 4}).Run(context.Background(), g, "release")
	var failed *TaskFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "build", failed.Task)

	assert.NotContains(t, launcher.calls, "docs")
	assert.NotContains(t, launcher.calls, "test")
	assert.NotContains(t, launcher.calls, "release")
}
