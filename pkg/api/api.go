package api

import "context"

type Format uint8

const (
	FormatDefault Format = iota
	FormatESModule
	FormatCommonJS
)

type Phase uint8

const (
	PhaseBundle Phase = iota
	PhaseRuntime
)

type Location struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int // in bytes
	LineText string
}

type Message struct {
	Text     string
	Location *Location
}

type StderrColor uint8

const (
	ColorIfTerminal StderrColor = iota
	ColorNever
	ColorAlways
)

type LogLevel uint8

const (
	LogLevelSilent LogLevel = iota
	LogLevelInfo
	LogLevelWarning
	LogLevelError
)

////////////////////////////////////////////////////////////////////////////////
// Transform API

type TransformOptions struct {
	Color      StderrColor
	ErrorLimit int
	LogLevel   LogLevel

	// The id the module is registered under. This is required.
	ModuleID string
	Phase    Phase

	// Import specifiers are looked up in this map and replaced by the mapped
	// value before they are written to the output
	Paths map[string]string

	// The ids of the module's static dependencies in the order they are
	// first imported. Leave this nil if the ids are not known.
	Dependencies []uint32

	Format     Format
	GlobalName string
	Sourcefile string
}

type TransformResult struct {
	Errors   []Message
	Warnings []Message

	Code []byte
}

func Transform(input string, options TransformOptions) TransformResult {
	return transformImpl(input, options)
}

////////////////////////////////////////////////////////////////////////////////
// Batch API

type File struct {
	Path     string
	Contents string

	// These override the shared options for this file when they are set
	ModuleID     string
	Dependencies []uint32
}

type FileResult struct {
	Path string
	TransformResult
}

// Transforms every file with at most "concurrency" transforms running at
// once. Results are returned in the same order as the files. Transform
// errors are reported in each result. The returned error is only non-nil
// if the context was canceled before every file was transformed.
func TransformFiles(ctx context.Context, files []File, options TransformOptions, concurrency int) ([]FileResult, error) {
	return transformFilesImpl(ctx, files, options, concurrency, transformImpl)
}
