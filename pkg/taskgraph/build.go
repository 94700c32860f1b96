package taskgraph

import (
	"strings"

	"github.com/ngld/b/pkg/taskfile"
)

// SplitDeps splits a raw dependency list on whitespace
func SplitDeps(raw string) []string {
	return strings.Fields(raw)
}

// countDistinct returns the number of distinct names in deps that satisfy keep
func countDistinct(deps []string, keep func(string) bool) int {
	seen := make(map[string]struct{}, len(deps))
	for _, dep := range deps {
		if keep(dep) {
			seen[dep] = struct{}{}
		}
	}
	return len(seen)
}

func all(string) bool { return true }

// Build converts parsed records into a Graph. Records keep their source order; if a name appears twice, the later
// record replaces the earlier one at the earlier one's position.
//
// Dependency names are not checked here. Unknown names are reported when the graph is traversed.
func Build(records []taskfile.Record) *Graph {
	g := newGraph(len(records))
	for _, rec := range records {
		deps := SplitDeps(rec.Deps)
		g.add(&Task{
			Name:     rec.Name,
			Command:  rec.Command,
			Deps:     deps,
			Indegree: countDistinct(deps, all),
			Line:     rec.Line,
		})
	}

	return g
}

// New builds a Graph from task values using the same rules as Build. Indegree is derived from Deps.
func New(tasks ...Task) *Graph {
	g := newGraph(len(tasks))
	for idx := range tasks {
		task := tasks[idx].clone()
		task.Indegree = countDistinct(task.Deps, all)
		g.add(task)
	}

	return g
}
