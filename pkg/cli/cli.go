package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/globalmod/globalmod/internal/exitcode"
	"github.com/globalmod/globalmod/internal/logger"
	"github.com/globalmod/globalmod/pkg/api"
	"github.com/joho/godotenv"
	"github.com/thought-machine/go-flags"
)

// This is returned once the problem has already been reported to stderr
var errAlreadyReported = errors.New("already reported")

// Runs the command line with "osArgs", which excludes the program name, and
// returns the exit code
func Run(osArgs []string) int {
	return runImpl(osArgs, os.Stdin, os.Stdout)
}

func runImpl(osArgs []string, stdin io.Reader, stdout io.Writer) int {
	if err := loadEnvFile(); err != nil {
		logger.PrintErrorToStderr(osArgs, err.Error())
		return 1
	}

	var opts options
	p := flags.NewParser(&opts, flags.Default)
	p.LongDescription = usage
	if _, err := p.ParseArgs(osArgs); err != nil {
		// The parser has already printed the problem or the help text
		return exitcode.Get(err)
	}

	var err error
	switch p.Active.Name {
	case "transform":
		err = runTransform(&opts.Transform, stdin, stdout)
	case "batch":
		err = runBatch(&opts.Batch)
	default:
		err = fmt.Errorf("Unknown command: %q", p.Active.Name)
	}

	if err != nil && err != errAlreadyReported {
		logger.PrintErrorToStderr(osArgs, err.Error())
	}
	return exitcode.Get(err)
}

// Values in the file never override variables that are already set. The
// file is optional unless it was named explicitly.
func loadEnvFile() error {
	if path := os.Getenv("GLOBALMOD_ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("Failed to load %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("Failed to load .env: %w", err)
	}
	return nil
}

func runTransform(cmd *transformCommand, stdin io.Reader, stdout io.Writer) error {
	options, err := cmd.Options.apiOptions()
	if err != nil {
		return err
	}
	options.ModuleID = cmd.ModuleID
	options.Sourcefile = cmd.Sourcefile
	if options.Dependencies, err = parseDependencies(cmd.Dependencies); err != nil {
		return err
	}

	var contents []byte
	if cmd.Args.File != "" {
		if contents, err = os.ReadFile(cmd.Args.File); err != nil {
			return fmt.Errorf("Could not read from input file: %w", err)
		}
		if options.Sourcefile == "" {
			options.Sourcefile = cmd.Args.File
		}
	} else if contents, err = io.ReadAll(stdin); err != nil {
		return fmt.Errorf("Could not read from stdin: %w", err)
	}

	result := api.Transform(string(contents), options)

	log := logger.NewStderrLog(cmd.Options.stderrOptions())
	reportMessages(log, result)
	log.Done()
	if len(result.Errors) > 0 {
		return errAlreadyReported
	}

	if _, err := stdout.Write(result.Code); err != nil {
		return fmt.Errorf("Failed to write to stdout: %w", err)
	}
	return nil
}

func runBatch(cmd *batchCommand) error {
	options, err := cmd.Options.apiOptions()
	if err != nil {
		return err
	}

	service, err := api.NewService(cmd.CacheSize)
	if err != nil {
		return fmt.Errorf("Failed to create the result cache: %w", err)
	}

	// Every output file is named after its input file
	files := make([]api.File, 0, len(cmd.Args.Files))
	outPaths := make([]string, 0, len(cmd.Args.Files))
	inputForOutput := make(map[string]string)
	for _, path := range cmd.Args.Files {
		outPath := filepath.Join(cmd.OutDir, filepath.Base(path))
		if other, ok := inputForOutput[outPath]; ok {
			return fmt.Errorf("Both %q and %q would be written to %q", other, path, outPath)
		}
		inputForOutput[outPath] = path

		contents, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("Could not read from input file: %w", err)
		}
		files = append(files, api.File{
			Path:     path,
			Contents: string(contents),
			ModuleID: filepath.ToSlash(path),
		})
		outPaths = append(outPaths, outPath)
	}

	if err := os.MkdirAll(cmd.OutDir, 0755); err != nil {
		return fmt.Errorf("Failed to create output directory: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	results, err := service.TransformFiles(ctx, files, options, cmd.Jobs)
	if err != nil {
		return err
	}

	// Messages are printed in input order regardless of which file finished
	// first
	log := logger.NewStderrLog(cmd.Options.stderrOptions())
	defer log.Done()
	for i, result := range results {
		reportMessages(log, result.TransformResult)
		if len(result.Errors) > 0 {
			continue
		}
		if err := os.WriteFile(outPaths[i], result.Code, 0644); err != nil {
			return fmt.Errorf("Failed to write to output file: %w", err)
		}
	}
	if log.HasErrors() {
		return errAlreadyReported
	}
	return nil
}

func reportMessages(log logger.Log, result api.TransformResult) {
	for _, msg := range result.Errors {
		log.AddMsg(messageToLog(logger.Error, msg))
	}
	for _, msg := range result.Warnings {
		log.AddMsg(messageToLog(logger.Warning, msg))
	}
}

func messageToLog(kind logger.MsgKind, msg api.Message) logger.Msg {
	var location *logger.MsgLocation
	if loc := msg.Location; loc != nil {
		location = &logger.MsgLocation{
			File:     loc.File,
			Line:     loc.Line,
			Column:   loc.Column,
			Length:   loc.Length,
			LineText: loc.LineText,
		}
	}
	return logger.Msg{Kind: kind, Text: msg.Text, Location: location}
}
