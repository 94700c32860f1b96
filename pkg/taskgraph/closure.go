package taskgraph

// Closure returns start and every task it transitively depends on, in discovery order.
// The traversal terminates on cyclic graphs; detecting cycles is left to Sort.
func Closure(g *Graph, start string) ([]string, error) {
	if !g.Contains(start) {
		return nil, &UnknownTaskError{Name: start}
	}

	type frame struct {
		name       string
		requiredBy string
	}

	visited := make(map[string]bool)
	result := make([]string, 0)
	stack := []frame{{name: start}}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[current.name] {
			continue
		}

		task, ok := g.Task(current.name)
		if !ok {
			return nil, &UnknownTaskError{Name: current.name, RequiredBy: current.requiredBy}
		}

		visited[current.name] = true
		result = append(result, current.name)

		// push in reverse so the first dependency is visited first
		for idx := len(task.Deps) - 1; idx >= 0; idx-- {
			if !visited[task.Deps[idx]] {
				stack = append(stack, frame{name: task.Deps[idx], requiredBy: task.Name})
			}
		}
	}

	return result, nil
}

// Subgraph returns a new graph holding copies of the named tasks in g's order. Indegree is recomputed from the
// edges inside the subgraph only.
func Subgraph(g *Graph, names []string) (*Graph, error) {
	selected := make(map[string]bool, len(names))
	for _, name := range names {
		if !g.Contains(name) {
			return nil, &UnknownTaskError{Name: name}
		}
		selected[name] = true
	}

	inside := func(name string) bool { return selected[name] }
	sub := newGraph(len(selected))
	for _, task := range g.tasks {
		if !selected[task.Name] {
			continue
		}

		c := task.clone()
		c.Indegree = countDistinct(c.Deps, inside)
		sub.add(c)
	}

	return sub, nil
}

// Select returns the closure of start as a standalone graph
func Select(g *Graph, start string) (*Graph, error) {
	names, err := Closure(g, start)
	if err != nil {
		return nil, err
	}

	return Subgraph(g, names)
}
