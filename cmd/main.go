// Package cmd implements the command line interface of b
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ngld/b/pkg/blog"
	"github.com/ngld/b/pkg/config"
	"github.com/ngld/b/pkg/runner"
	"github.com/ngld/b/pkg/taskfile"
	"github.com/ngld/b/pkg/taskgraph"
)

type app struct {
	stdout io.Writer
	stderr io.Writer
	logger zerolog.Logger
	cfg    *config.Config
	// workDir holds the directory of the parsed task file
	workDir string
}

// session is everything a command needs once the task file has been parsed
type session struct {
	ctx   context.Context
	graph *taskgraph.Graph
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		logger: zerolog.New(NewConsoleWriter(stderr)),
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "b [task]",
		Short: "Minimal task runner",
		Long: fmt.Sprintf(`This command parses the first %s file it finds and runs the given task
after all of its dependencies. Without a task it only checks the task file.`, taskfile.DefaultName),
		Args:          argsBetween(0, 1, "expected at most one task name"),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			list, _ := flags.GetBool("list")
			plan, _ := flags.GetBool("plan")
			asYAML, _ := flags.GetBool("yaml")

			switch {
			case list && plan:
				return &ArgumentError{Msg: "--list and --plan can't be combined"}
			case list && len(args) > 0:
				return &ArgumentError{Msg: "--list doesn't take a task name"}
			case plan && len(args) != 1:
				return &ArgumentError{Msg: "--plan expects exactly one task name"}
			case asYAML && !plan:
				return &ArgumentError{Msg: "--yaml requires --plan"}
			}

			sess, err := a.load()
			if err != nil {
				return err
			}

			switch {
			case list:
				return a.listTasks(sess)
			case plan:
				return a.printPlan(sess, args[0], asYAML)
			case len(args) == 0:
				return nil
			}

			err = a.newRunner().Run(sess.ctx, sess.graph, args[0])
			var unknown *taskgraph.UnknownTaskError
			if eris.As(err, &unknown) && unknown.Name == args[0] && unknown.RequiredBy == "" {
				blog.Log(sess.ctx).Warn().Msgf("Task %s does not exist", args[0])
				return nil
			}
			return err
		},
	}

	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &ArgumentError{Msg: err.Error()}
	})

	flags := root.PersistentFlags()
	flags.String("config", "b.toml", "configuration file")
	flags.StringP("file", "f", "", fmt.Sprintf("task file (default %q)", taskfile.DefaultName))
	flags.StringP("dir", "C", "", "directory to start looking for the task file")
	flags.Bool("no-search", false, "don't look for the task file in parent directories")
	flags.BoolP("dry", "n", false, "dry run; only print the commands, don't execute anything")
	flags.IntP("jobs", "j", 0, "maximum number of tasks running in parallel (default 1)")
	flags.Bool("deps-only", false, "only run the dependencies of the given task")
	flags.Bool("progress", false, "display a progress bar")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error)")
	flags.Bool("log-json", false, "print log events as JSON lines")
	flags.Bool("no-color", false, "disable colored output")

	root.Flags().BoolP("list", "l", false, "list the available tasks")
	root.Flags().Bool("plan", false, "print the tasks that would run for the given task, in order")
	root.Flags().Bool("yaml", false, "print the plan as YAML (requires --plan)")
	return root
}

// resolveConfig loads the configuration and applies the command line overrides
func resolveConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfgFile, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if flags.Changed("file") {
		cfg.File, _ = flags.GetString("file")
	}
	if flags.Changed("dir") {
		cfg.Dir, _ = flags.GetString("dir")
	}
	if flags.Changed("no-search") {
		noSearch, _ := flags.GetBool("no-search")
		cfg.Search = !noSearch
	}
	if flags.Changed("dry") {
		cfg.DryRun, _ = flags.GetBool("dry")
	}
	if flags.Changed("jobs") {
		cfg.Jobs, _ = flags.GetInt("jobs")
	}
	if flags.Changed("deps-only") {
		cfg.DepsOnly, _ = flags.GetBool("deps-only")
	}
	if flags.Changed("progress") {
		cfg.Progress, _ = flags.GetBool("progress")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON, _ = flags.GetBool("log-json")
	}
	if flags.Changed("no-color") {
		cfg.NoColor, _ = flags.GetBool("no-color")
	}

	return cfg, nil
}

// configure loads and validates the configuration and sets up the logger
func (a *app) configure(flags *pflag.FlagSet) error {
	cfg, err := resolveConfig(flags)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return &ArgumentError{Msg: err.Error()}
	}

	a.setupLogger(cfg.Log.JSON, cfg.NoColor, cfg.LogLevel())
	a.cfg = cfg
	return nil
}

func (a *app) setupLogger(logJSON, noColor bool, level zerolog.Level) {
	var out io.Writer = a.stderr
	if !logJSON {
		writer := NewConsoleWriter(a.stderr)
		writer.NoColor = noColor
		out = writer
	}

	a.logger = zerolog.New(out).
		Level(level).
		With().
		Str("run", nanoid.New()).
		Logger()
}

// load finds and parses the task file
func (a *app) load() (*session, error) {
	ctx := blog.WithLogger(context.Background(), &a.logger)

	start := a.cfg.Dir
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, eris.Wrap(err, "failed to retrieve the current working directory")
		}
		start = wd
	}

	taskPath, err := taskfile.Find(start, a.cfg.File, a.cfg.Search)
	if err != nil {
		return nil, err
	}

	records, err := taskfile.ParseFile(taskPath)
	if err != nil {
		return nil, err
	}

	graph := taskgraph.Build(records)
	for _, name := range graph.Duplicates() {
		blog.Log(ctx).Warn().
			Str("task", name).
			Msg("defined more than once, the last definition wins")
	}

	blog.Log(ctx).Debug().
		Str("path", taskPath).
		Int("tasks", graph.Len()).
		Msg("parsed task file")

	a.workDir = filepath.Dir(taskPath)
	return &session{ctx: ctx, graph: graph}, nil
}

func (a *app) newRunner() *runner.Runner {
	opts := runner.Options{
		DryRun:   a.cfg.DryRun,
		DepsOnly: a.cfg.DepsOnly,
		Jobs:     a.cfg.Jobs,
	}

	if a.cfg.Progress {
		var bar *progressbar.ProgressBar
		opts.Progress = func(done, total int, task string) {
			if bar == nil {
				bar = newProgressBar(a.stderr, total)
			}
			bar.Describe(task)
			_ = bar.Add(1)
		}
	}

	launcher := runner.NewShellLauncher(a.workDir)
	launcher.Stdout = a.stdout
	launcher.Stderr = a.stderr
	return runner.New(launcher, opts)
}

func newProgressBar(out io.Writer, total int) *progressbar.ProgressBar {
	if os.Getenv("CI") == "true" {
		return progressbar.NewOptions(total, progressbar.OptionSetVisibility(false))
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(out, "\n")
		}),
	)
}

// exit reports err and returns the matching exit status. Errors raised before the configuration was applied (flag
// parsing, argument checks, validation) are logged with whatever output settings can be recovered.
func (a *app) exit(root *cobra.Command, err error) int {
	code := exitCode(err)
	if err == nil {
		return code
	}

	if a.cfg == nil {
		logJSON, noColor := false, false
		if cfg, cfgErr := resolveConfig(root.Flags()); cfgErr == nil {
			logJSON, noColor = cfg.Log.JSON, cfg.NoColor
		}
		a.setupLogger(logJSON, noColor, zerolog.InfoLevel)
	}

	a.logger.Error().Err(err).Msg("b failed")
	return code
}

// Execute runs the command line interface and returns the process exit status
func Execute() int {
	a := newApp(os.Stdout, os.Stderr)
	root := a.rootCmd()
	return a.exit(root, root.Execute())
}
