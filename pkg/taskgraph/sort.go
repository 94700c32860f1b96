package taskgraph

// Sort orders the tasks of g so that every task comes after all of its dependencies (Kahn's algorithm).
//
// The pending dependency counters live in a private slice; the tasks in g are never modified. When several tasks are
// ready at the same time, they are emitted in graph order. Dependencies that aren't part of g are reported as
// UnknownTaskError and cycles as CycleError.
func Sort(g *Graph) ([]*Task, error) {
	size := len(g.tasks)
	pending := make([]int, size)
	dependents := make([][]int, size)

	for idx, task := range g.tasks {
		seen := make(map[string]bool, len(task.Deps))
		for _, dep := range task.Deps {
			if seen[dep] {
				continue
			}
			seen[dep] = true

			pos, ok := g.index[dep]
			if !ok {
				return nil, &UnknownTaskError{Name: dep, RequiredBy: task.Name}
			}

			pending[idx]++
			dependents[pos] = append(dependents[pos], idx)
		}
	}

	queue := make([]int, 0, size)
	for idx := range g.tasks {
		if pending[idx] == 0 {
			queue = append(queue, idx)
		}
	}

	order := make([]*Task, 0, size)
	for head := 0; head < len(queue); head++ {
		idx := queue[head]
		order = append(order, g.tasks[idx])

		for _, dependent := range dependents[idx] {
			pending[dependent]--
			if pending[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) == size {
		return order, nil
	}

	unresolved := make([]string, 0, size-len(order))
	for idx, task := range g.tasks {
		if pending[idx] > 0 {
			unresolved = append(unresolved, task.Name)
		}
	}

	return nil, &CycleError{
		Unresolved: unresolved,
		Cycle:      findCycle(g, pending),
	}
}

// findCycle follows unresolved dependencies starting at the first unresolved task. Every unresolved task has at
// least one unresolved dependency so the walk always ends up in a cycle.
func findCycle(g *Graph, pending []int) []string {
	current := -1
	for idx := range pending {
		if pending[idx] > 0 {
			current = idx
			break
		}
	}
	if current < 0 {
		return nil
	}

	positions := make(map[int]int)
	path := make([]int, 0)
	for {
		if start, ok := positions[current]; ok {
			cycle := make([]string, 0, len(path)-start+1)
			for _, idx := range path[start:] {
				cycle = append(cycle, g.tasks[idx].Name)
			}
			return append(cycle, g.tasks[current].Name)
		}

		positions[current] = len(path)
		path = append(path, current)

		next := -1
		for _, dep := range g.tasks[current].Deps {
			if pos := g.index[dep]; pending[pos] > 0 {
				next = pos
				break
			}
		}
		if next < 0 {
			return nil
		}
		current = next
	}
}
