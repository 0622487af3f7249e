package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/globalmod/globalmod/internal/config"
	"github.com/globalmod/globalmod/internal/globalmod"
	"github.com/globalmod/globalmod/internal/logger"
	"github.com/globalmod/globalmod/pkg/api"
)

const usage = `
globalmod rewrites ES modules and CommonJS files into a single call that
registers the module with a global module registry.

It provides two operations:
  - transform: Rewrite one file (or stdin) and print the result
  - batch:     Rewrite many files concurrently into an output directory

Defaults for most options can be set with GLOBALMOD_* environment variables
or in a .env file.
`

// Options shared by both commands
type transformFlags struct {
	Phase      string   `long:"phase" env:"GLOBALMOD_PHASE" default:"bundle" description:"Output phase: bundle, runtime"`
	Paths      []string `long:"paths" env:"GLOBALMOD_PATHS" env-delim:"," description:"Replace an import specifier (from:to)"`
	Format     string   `long:"format" env:"GLOBALMOD_FORMAT" default:"auto" description:"Input format: auto, esm, cjs"`
	GlobalName string   `long:"global-name" env:"GLOBALMOD_GLOBAL_NAME" description:"Where the registry lives under \"global\" (default: __modules)"`
	Color      string   `long:"color" env:"GLOBALMOD_COLOR" default:"auto" choice:"auto" choice:"always" choice:"never" description:"Use color terminal escapes in messages"`
}

type transformCommand struct {
	Options transformFlags `group:"Transform Options"`

	ModuleID     string   `long:"id" env:"GLOBALMOD_ID" description:"The id the module is registered under"`
	Dependencies []string `long:"dependency" description:"Id of a static dependency, in import order (repeatable)"`
	Sourcefile   string   `long:"sourcefile" description:"File name to use in messages (default: the input file or <stdin>)"`

	Args struct {
		File string `positional-arg-name:"file" description:"Input file (default: stdin)"`
	} `positional-args:"true"`
}

type batchCommand struct {
	Options transformFlags `group:"Transform Options"`

	OutDir    string `short:"o" long:"out-dir" required:"true" env:"GLOBALMOD_OUT_DIR" description:"Output directory for the rewritten files"`
	Jobs      int    `short:"j" long:"jobs" env:"GLOBALMOD_JOBS" description:"Files to rewrite at once (default: number of CPUs)"`
	CacheSize int    `long:"cache-size" env:"GLOBALMOD_CACHE_SIZE" default:"1024" description:"Results to keep for identical inputs"`

	Args struct {
		Files []string `positional-arg-name:"files" required:"1" description:"Input files. Each one is registered under its path."`
	} `positional-args:"true" required:"true"`
}

type options struct {
	Transform transformCommand `command:"transform" alias:"t" description:"Rewrite a single file and print it to stdout"`
	Batch     batchCommand     `command:"batch" alias:"b" description:"Rewrite many files into an output directory"`
}

func (flags *transformFlags) apiOptions() (api.TransformOptions, error) {
	var options api.TransformOptions

	phase, err := globalmod.ParsePhase(flags.Phase)
	if err != nil {
		return options, err
	}
	if phase == globalmod.PhaseRuntime {
		options.Phase = api.PhaseRuntime
	}

	format, err := config.ParseFormat(flags.Format)
	if err != nil {
		return options, err
	}
	switch format {
	case config.FormatModule:
		options.Format = api.FormatESModule
	case config.FormatScript:
		options.Format = api.FormatCommonJS
	}

	options.Paths, err = parsePaths(flags.Paths)
	if err != nil {
		return options, err
	}

	options.GlobalName = flags.GlobalName
	return options, nil
}

func (flags *transformFlags) stderrOptions() logger.StderrOptions {
	options := logger.StderrOptions{IncludeSource: true, LogLevel: logger.LevelInfo}
	switch flags.Color {
	case "always":
		options.Color = logger.ColorAlways
	case "never":
		options.Color = logger.ColorNever
	}
	return options
}

// The specifier ends at the first colon, so "--paths=node:fs:./fs" doesn't
// work but "--paths=fs:node:fs" does
func parsePaths(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	paths := make(map[string]string, len(values))
	for _, value := range values {
		from, to, ok := strings.Cut(value, ":")
		if !ok || from == "" || to == "" {
			return nil, fmt.Errorf("Invalid path mapping: %q (expected from:to)", value)
		}
		paths[from] = to
	}
	return paths, nil
}

// A nil result means the dependency ids are unknown
func parseDependencies(values []string) ([]uint32, error) {
	if len(values) == 0 {
		return nil, nil
	}
	ids := make([]uint32, 0, len(values))
	for _, value := range values {
		id, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("Invalid dependency id: %q", value)
		}
		ids = append(ids, uint32(id))
	}
	return ids, nil
}
