package globalmod

import "fmt"

// The two shapes the output can take. Bundle output keeps enough native
// import and export syntax for a static graph extractor to see the module's
// edges. Runtime output is executed by the loader directly and keeps none.
type Phase uint8

const (
	PhaseBundle Phase = iota
	PhaseRuntime
)

func (phase Phase) String() string {
	switch phase {
	case PhaseBundle:
		return "bundle"
	case PhaseRuntime:
		return "runtime"
	default:
		panic("Internal error")
	}
}

func ParsePhase(text string) (Phase, error) {
	switch text {
	case "", "bundle", "register":
		return PhaseBundle, nil
	case "runtime":
		return PhaseRuntime, nil
	default:
		return PhaseBundle, fmt.Errorf("Invalid phase: %q (valid: bundle, runtime)", text)
	}
}

// Whether static "import" statements stay at the top of the output. The
// runtime phase loads every dependency through the context instead.
func (phase Phase) KeepImports() bool {
	return phase == PhaseBundle
}

func (phase Phase) EmitDependencyTable() bool {
	return phase == PhaseBundle
}

// Whether the output ends with "export" statements mirroring the module's
// exports
func (phase Phase) KeepExportSyntax() bool {
	return phase == PhaseBundle
}

// Whether dependencies that are only loaded by "require()" and "import()"
// calls are listed in the dependency table
func (phase Phase) ListRuntimeDeps() bool {
	return phase == PhaseBundle
}
