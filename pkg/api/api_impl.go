package api

import (
	"context"
	"fmt"
	"runtime"

	"github.com/globalmod/globalmod/internal/config"
	"github.com/globalmod/globalmod/internal/globalmod"
	"github.com/globalmod/globalmod/internal/js_ast"
	"github.com/globalmod/globalmod/internal/js_parser"
	"github.com/globalmod/globalmod/internal/js_printer"
	"github.com/globalmod/globalmod/internal/logger"
	"github.com/globalmod/globalmod/internal/renamer"
	"golang.org/x/sync/errgroup"
)

func validateFormat(value Format) config.Format {
	switch value {
	case FormatDefault:
		return config.FormatAuto
	case FormatESModule:
		return config.FormatModule
	case FormatCommonJS:
		return config.FormatScript
	default:
		panic("Invalid format")
	}
}

func validatePhase(value Phase) globalmod.Phase {
	switch value {
	case PhaseBundle:
		return globalmod.PhaseBundle
	case PhaseRuntime:
		return globalmod.PhaseRuntime
	default:
		panic("Invalid phase")
	}
}

func validateColor(value StderrColor) logger.StderrColor {
	switch value {
	case ColorIfTerminal:
		return logger.ColorIfTerminal
	case ColorNever:
		return logger.ColorNever
	case ColorAlways:
		return logger.ColorAlways
	default:
		panic("Invalid color")
	}
}

func validateLogLevel(value LogLevel) logger.LogLevel {
	switch value {
	case LogLevelInfo:
		return logger.LevelInfo
	case LogLevelWarning:
		return logger.LevelWarning
	case LogLevelError:
		return logger.LevelError
	case LogLevelSilent:
		return logger.LevelSilent
	default:
		panic("Invalid log level")
	}
}

func validatePaths(log logger.Log, paths map[string]string) map[string]string {
	for from, to := range paths {
		if from == "" {
			log.AddError(nil, logger.Loc{}, fmt.Sprintf("Invalid path mapping with an empty specifier (to %q)", to))
		} else if to == "" {
			log.AddError(nil, logger.Loc{}, fmt.Sprintf("Invalid path mapping for %q: the replacement is empty", from))
		}
	}
	return paths
}

func messagesOfKind(kind logger.MsgKind, msgs []logger.Msg) []Message {
	var filtered []Message
	for _, msg := range msgs {
		if msg.Kind == kind {
			var location *Location

			if msg.Location != nil {
				loc := msg.Location
				location = &Location{
					File:     loc.File,
					Line:     loc.Line,
					Column:   loc.Column,
					Length:   loc.Length,
					LineText: loc.LineText,
				}
			}

			filtered = append(filtered, Message{
				Text:     msg.Text,
				Location: location,
			})
		}
	}
	return filtered
}

func transformImpl(input string, options TransformOptions) TransformResult {
	var log logger.Log
	if options.LogLevel == LogLevelSilent {
		log = logger.NewDeferLog()
	} else {
		log = logger.NewStderrLog(logger.StderrOptions{
			IncludeSource: true,
			ErrorLimit:    options.ErrorLimit,
			Color:         validateColor(options.Color),
			LogLevel:      validateLogLevel(options.LogLevel),
		})
	}

	// Convert and validate the options
	parseOptions := config.Options{
		Format:     validateFormat(options.Format),
		Sourcefile: options.Sourcefile,
	}
	transformOptions := globalmod.Options{
		ModuleID:     options.ModuleID,
		Phase:        validatePhase(options.Phase),
		Paths:        validatePaths(log, options.Paths),
		Dependencies: options.Dependencies,
		GlobalName:   options.GlobalName,
	}

	// Stop now if there were errors
	var code []byte
	if !log.HasErrors() {
		code = transformSource(log, input, parseOptions, transformOptions)
	}

	msgs := log.Done()
	return TransformResult{
		Errors:   messagesOfKind(logger.Error, msgs),
		Warnings: messagesOfKind(logger.Warning, msgs),
		Code:     code,
	}
}

// Returns nil if there were errors
func transformSource(log logger.Log, input string, parseOptions config.Options, transformOptions globalmod.Options) []byte {
	source := logger.Source{
		KeyPath:    parseOptions.PrettyPath(),
		PrettyPath: parseOptions.PrettyPath(),
		Contents:   input,
	}

	tree, ok := js_parser.Parse(log, source, parseOptions)
	if !ok || log.HasErrors() {
		return nil
	}
	if !globalmod.Transform(log, source, &tree, transformOptions) {
		return nil
	}

	symbols := js_ast.NewSymbolMap(1)
	symbols.SymbolsForSource[0] = tree.Symbols
	r := renamer.NewNumberRenamer(symbols, renamer.ComputeReservedNames(tree.UsedNames))
	r.AssignGeneratedNames(0)
	return js_printer.Print(tree, symbols, r, js_printer.Options{}).JS
}

func transformFilesImpl(
	ctx context.Context,
	files []File,
	options TransformOptions,
	concurrency int,
	transform func(string, TransformOptions) TransformResult,
) ([]FileResult, error) {
	if concurrency < 1 {
		concurrency = runtime.NumCPU()
	}

	results := make([]FileResult, len(files))
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, file := range files {
		if groupCtx.Err() != nil {
			break
		}
		i, file := i, file
		g.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			fileOptions := options
			fileOptions.Sourcefile = file.Path
			if file.ModuleID != "" {
				fileOptions.ModuleID = file.ModuleID
			}
			if file.Dependencies != nil {
				fileOptions.Dependencies = file.Dependencies
			}
			results[i] = FileResult{
				Path:            file.Path,
				TransformResult: transform(file.Contents, fileOptions),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("transforming %d files: %w", len(files), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("transforming %d files: %w", len(files), err)
	}
	return results, nil
}
