package taskgraph

import (
	"fmt"
	"strings"
)

// UnknownTaskError is returned when a task name can't be found in the graph.
type UnknownTaskError struct {
	Name string
	// RequiredBy is the task that referenced Name, empty for lookups by the caller.
	RequiredBy string
}

var _ error = (*UnknownTaskError)(nil)

func (e *UnknownTaskError) Error() string {
	if e.RequiredBy != "" {
		return fmt.Sprintf("task %s (required by %s) does not exist", e.Name, e.RequiredBy)
	}
	return fmt.Sprintf("task %s does not exist", e.Name)
}

// CycleError is returned by Sort if the graph contains at least one dependency cycle.
type CycleError struct {
	// Unresolved lists every task that never became ready, in graph order.
	Unresolved []string
	// Cycle is one concrete cycle among the unresolved tasks; the first name is repeated at the end.
	Cycle []string
}

var _ error = (*CycleError)(nil)

func (e *CycleError) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("circular dependencies: %s", strings.Join(e.Cycle, " -> "))
	}
	return fmt.Sprintf("circular dependencies between %s", strings.Join(e.Unresolved, ", "))
}
