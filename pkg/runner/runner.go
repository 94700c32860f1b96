// Package runner executes a task after all of its transitive dependencies.
package runner

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/ngld/b/pkg/blog"
	"github.com/ngld/b/pkg/taskgraph"
)

// Options control how a plan is executed
type Options struct {
	// DryRun only logs the commands
	DryRun bool
	// DepsOnly runs the dependencies of the target but not the target itself
	DepsOnly bool
	// Jobs is the maximum number of tasks running at the same time; values below 2 run tasks sequentially
	Jobs int
	// Progress is called after each finished task
	Progress func(done, total int, task string)
}

// Runner plans and executes tasks from a graph
type Runner struct {
	launcher Launcher
	opts     Options

	progressLock sync.Mutex
	done         int
}

// New returns a Runner that hands commands to the given launcher
func New(launcher Launcher, opts Options) *Runner {
	return &Runner{
		launcher: launcher,
		opts:     opts,
	}
}

// Plan returns the tasks Run would execute for target, in execution order
func (r *Runner) Plan(g *taskgraph.Graph, target string) ([]*taskgraph.Task, error) {
	task, ok := g.Task(target)
	if !ok {
		return nil, &taskgraph.UnknownTaskError{Name: target}
	}

	if len(task.Deps) == 0 {
		return []*taskgraph.Task{task}, nil
	}

	sub, err := taskgraph.Select(g, target)
	if err != nil {
		return nil, err
	}

	order, err := taskgraph.Sort(sub)
	if err != nil {
		return nil, err
	}

	if r.opts.DepsOnly {
		// the closure's root is always last
		order = order[:len(order)-1]
	}
	return order, nil
}

// Run executes target and its dependencies. Nothing is executed if the graph contains a cycle, references unknown
// tasks or a command can't be parsed. The first failing task stops the run.
func (r *Runner) Run(ctx context.Context, g *taskgraph.Graph, target string) error {
	plan, err := r.Plan(g, target)
	if err != nil {
		return err
	}

	if checker, ok := r.launcher.(Checker); ok {
		for _, task := range plan {
			if err := checker.Check(task); err != nil {
				return err
			}
		}
	}

	blog.Log(ctx).Debug().
		Str("target", target).
		Int("tasks", len(plan)).
		Msg("starting run")

	r.done = 0
	if r.opts.Jobs > 1 && len(plan) > 1 {
		return r.runParallel(ctx, plan)
	}

	for _, task := range plan {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := r.runTask(ctx, task, len(plan)); err != nil {
			return err
		}
	}

	return nil
}

func (r *Runner) runTask(ctx context.Context, task *taskgraph.Task, total int) error {
	ctx = blog.WithTask(ctx, task.Name)
	blog.Log(ctx).Info().
		Bool("command", true).
		Msg(task.Command)

	if !r.opts.DryRun {
		result, err := r.launcher.Launch(ctx, task)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return eris.Wrapf(err, "failed to launch task %s", task.Name)
		}

		if result.ExitStatus != 0 {
			return &TaskFailedError{
				Task:       task.Name,
				ExitStatus: result.ExitStatus,
				Stderr:     string(result.Stderr),
			}
		}

		blog.Log(ctx).Debug().
			Dur("duration", result.Duration).
			Msg("finished")
	}

	r.reportProgress(total, task.Name)
	return nil
}

func (r *Runner) reportProgress(total int, name string) {
	r.progressLock.Lock()
	defer r.progressLock.Unlock()

	r.done++
	if r.opts.Progress != nil {
		r.opts.Progress(r.done, total, name)
	}
}
