package cmd

import (
	"fmt"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/ngld/b/pkg"
)

type planEntry struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Deps    []string `yaml:"deps,omitempty"`
}

// printPlan prints the tasks that would run for target, in execution order
func (a *app) printPlan(sess *session, target string, asYAML bool) error {
	plan, err := a.newRunner().Plan(sess.graph, target)
	if err != nil {
		return err
	}

	if asYAML {
		entries := make([]planEntry, len(plan))
		for idx, task := range plan {
			entries[idx] = planEntry{Name: task.Name, Command: task.Command, Deps: task.Deps}
		}

		encoder := yaml.NewEncoder(a.stdout)
		encoder.SetIndent(2)
		if err := encoder.Encode(entries); err != nil {
			return eris.Wrap(err, "failed to encode plan")
		}
		return encoder.Close()
	}

	printer := pkg.Printer{Out: a.stdout, NoColor: a.cfg.NoColor}
	printer.PrintTask(fmt.Sprintf("Plan for %s:", target))
	for idx, task := range plan {
		printer.PrintSubtask(fmt.Sprintf("%d. %s: %s", idx+1, task.Name, task.Command))
	}
	return nil
}
