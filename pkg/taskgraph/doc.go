// Package taskgraph implements the dependency graph behind the task runner: building the graph from parsed task
// records, selecting the closure of a target task and ordering it topologically.
//
// Edges run from a task to each of its dependencies. Graphs are treated as read-only once built; Subgraph and Sort
// work on copies so the same Graph can be planned any number of times.
package taskgraph
