package taskgraph

import "fmt"

// Task is a single named unit of work
type Task struct {
	Name    string
	Command string
	Deps    []string
	// Indegree is the number of distinct dependencies present in the graph holding the task.
	Indegree int
	Line     int
}

func (t *Task) String() string {
	return fmt.Sprintf("<Task %s: %s>", t.Name, t.Command)
}

func (t *Task) clone() *Task {
	c := *t
	c.Deps = append([]string(nil), t.Deps...)
	return &c
}

// Graph is an ordered collection of tasks indexed by name
type Graph struct {
	tasks      []*Task
	index      map[string]int
	duplicates []string
}

func newGraph(capacity int) *Graph {
	return &Graph{
		tasks: make([]*Task, 0, capacity),
		index: make(map[string]int, capacity),
	}
}

// add appends the task or replaces an existing task with the same name in place
func (g *Graph) add(task *Task) {
	if pos, ok := g.index[task.Name]; ok {
		g.tasks[pos] = task
		g.duplicates = append(g.duplicates, task.Name)
		return
	}

	g.index[task.Name] = len(g.tasks)
	g.tasks = append(g.tasks, task)
}

// Len returns the number of tasks
func (g *Graph) Len() int {
	return len(g.tasks)
}

// Tasks returns the tasks in source order. The slice is a copy; the tasks are shared and must not be modified.
func (g *Graph) Tasks() []*Task {
	out := make([]*Task, len(g.tasks))
	copy(out, g.tasks)
	return out
}

// Names returns the task names in source order
func (g *Graph) Names() []string {
	names := make([]string, len(g.tasks))
	for idx, task := range g.tasks {
		names[idx] = task.Name
	}
	return names
}

// Task looks up a task by name
func (g *Graph) Task(name string) (*Task, bool) {
	pos, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.tasks[pos], true
}

// Contains reports whether a task called name exists
func (g *Graph) Contains(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Duplicates lists the names that were defined more than once. The last definition wins.
func (g *Graph) Duplicates() []string {
	return append([]string(nil), g.duplicates...)
}
