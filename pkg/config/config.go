package config

import (
	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/ngld/b/pkg/taskfile"
)

// Config describes all configuration options
type Config struct {
	File     string `usage:"Task definition file" toml:"file"`
	Search   bool   `default:"true" usage:"Look for the task file in parent directories" toml:"search"`
	Dir      string `usage:"Directory to start looking for the task file (defaults to the working directory)" toml:"dir"`
	Jobs     int    `default:"1" usage:"Maximum number of tasks running in parallel" toml:"jobs"`
	DepsOnly bool   `default:"false" usage:"Only run the dependencies of the requested task" toml:"deps_only"`
	DryRun   bool   `default:"false" usage:"Only print the commands, don't execute anything" toml:"dry_run"`
	Progress bool   `default:"false" usage:"Display a progress bar" toml:"progress"`
	NoColor  bool   `default:"false" usage:"Disable colored output" toml:"no_color"`
	Log      struct {
		Level string `default:"info" toml:"level"`
		JSON  bool   `default:"false" usage:"Output JSONND instead of pretty console messages" toml:"json"`
	} `toml:"log"`
}

var logLevels = map[string]zerolog.Level{
	"trace":   zerolog.TraceLevel,
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
}

// Loader initializes an empty config object and returns a new Loader for this object
func Loader(files ...string) (*Config, *aconfig.Loader) {
	if len(files) == 0 {
		files = []string{"b.toml"}
	}

	cfg := Config{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags: true,
		EnvPrefix: "B",
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// Load reads the configuration from the defaults, the config files and the environment
func Load(files ...string) (*Config, error) {
	cfg, loader := Loader(files...)
	if err := loader.Load(); err != nil {
		return nil, eris.Wrap(err, "failed to load configuration")
	}

	if cfg.File == "" {
		cfg.File = taskfile.DefaultName
	}

	return cfg, nil
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	if cfg.File == "" {
		return eris.New("Invalid value for file: must not be empty")
	}

	if cfg.Jobs < 1 {
		return eris.Errorf("Invalid value for jobs: %d (must be at least 1)", cfg.Jobs)
	}

	_, ok := logLevels[cfg.Log.Level]
	if !ok {
		return eris.Errorf("Invalid value for log.level: %s", cfg.Log.Level)
	}

	return nil
}

// LogLevel converts the .Log.Level field to a zerolog.Level
func (cfg *Config) LogLevel() zerolog.Level {
	return logLevels[cfg.Log.Level]
}
