package config

import "fmt"

type Format uint8

const (
	// This is the default. A file is treated as an ES module if it contains an
	// "import" or "export" keyword and as a CommonJS script otherwise.
	FormatAuto Format = iota

	// The file is always treated as an ES module, even if it contains no
	// import or export syntax. It still publishes an (empty) exports object.
	FormatModule

	// The file is always treated as a CommonJS script. Import and export
	// syntax is a syntax error in this case.
	FormatScript
)

func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatModule:
		return "esm"
	case FormatScript:
		return "cjs"
	default:
		panic("Internal error")
	}
}

func ParseFormat(text string) (Format, error) {
	switch text {
	case "", "auto":
		return FormatAuto, nil
	case "esm", "module":
		return FormatModule, nil
	case "cjs", "commonjs", "script":
		return FormatScript, nil
	default:
		return FormatAuto, fmt.Errorf("Invalid format: %q (valid: auto, esm, cjs)", text)
	}
}

type Options struct {
	Format Format

	// This is the name of the input file used in diagnostics. The input is
	// read from memory so the name doesn't need to exist on disk.
	Sourcefile string
}

func (options Options) PrettyPath() string {
	if options.Sourcefile == "" {
		return "<stdin>"
	}
	return options.Sourcefile
}
