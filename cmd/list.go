package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ngld/b/pkg"
)

// listTasks prints every task with its dependencies, sorted by name
func (a *app) listTasks(sess *session) error {
	printer := pkg.Printer{Out: a.stdout, NoColor: a.cfg.NoColor}
	printer.PrintTask("Available tasks:")

	maxNameLen := 0
	sortedNames := sess.graph.Names()
	for _, name := range sortedNames {
		if len(name) > maxNameLen {
			maxNameLen = len(name)
		}
	}
	sort.Strings(sortedNames)

	lineFmt := fmt.Sprintf("%%-%ds %%s", maxNameLen+1)
	for _, name := range sortedNames {
		task, _ := sess.graph.Task(name)
		deps := "-"
		if len(task.Deps) > 0 {
			deps = strings.Join(task.Deps, " ")
		}
		printer.PrintSubtask(fmt.Sprintf(lineFmt, name+":", deps))
	}

	for _, name := range sess.graph.Duplicates() {
		printer.PrintError(fmt.Sprintf("%s is defined more than once, only the last definition is used", name))
	}

	return nil
}
