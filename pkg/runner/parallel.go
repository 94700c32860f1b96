package runner

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ngld/b/pkg/taskgraph"
)

// runParallel starts every task as soon as all of its planned dependencies have finished, with at most Jobs tasks
// running at once. The first failure cancels the remaining tasks.
func (r *Runner) runParallel(ctx context.Context, plan []*taskgraph.Task) error {
	index := make(map[string]int, len(plan))
	for idx, task := range plan {
		index[task.Name] = idx
	}

	pending := make([]int, len(plan))
	dependents := make([][]int, len(plan))
	for idx, task := range plan {
		seen := make(map[string]bool, len(task.Deps))
		for _, dep := range task.Deps {
			pos, ok := index[dep]
			if !ok || seen[dep] {
				continue
			}
			seen[dep] = true
			pending[idx]++
			dependents[pos] = append(dependents[pos], idx)
		}
	}

	ready := make([]int, 0, len(plan))
	for idx := range plan {
		if pending[idx] == 0 {
			ready = append(ready, idx)
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.opts.Jobs)

	// buffered so that workers never block after finishing their task
	finished := make(chan int, len(plan))
	completed := 0

	for completed < len(plan) {
		for _, idx := range ready {
			idx := idx
			group.Go(func() error {
				if err := groupCtx.Err(); err != nil {
					return err
				}

				if err := r.runTask(groupCtx, plan[idx], len(plan)); err != nil {
					return err
				}

				finished <- idx
				return nil
			})
		}
		ready = ready[:0]

		select {
		case idx := <-finished:
			completed++
			for _, dependent := range dependents[idx] {
				pending[dependent]--
				if pending[dependent] == 0 {
					ready = append(ready, dependent)
				}
			}
		case <-groupCtx.Done():
			if err := group.Wait(); err != nil {
				return err
			}
			return ctx.Err()
		}
	}

	return group.Wait()
}
