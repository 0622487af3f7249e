package renamer

import (
	"strconv"

	"github.com/globalmod/globalmod/internal/ast"
	"github.com/globalmod/globalmod/internal/js_ast"
	"github.com/globalmod/globalmod/internal/js_lexer"
)

// Every name the user wrote is left alone, so the only names that can clash
// are the generated ones. Reserving all user names up front keeps a generated
// name from shadowing anything, no matter which scope it ends up in.
func ComputeReservedNames(usedNames map[string]bool) map[string]uint32 {
	names := make(map[string]uint32)

	// All keywords and strict mode reserved words are reserved names
	for k := range js_lexer.Keywords {
		names[k] = 1
	}
	for k := range js_lexer.StrictModeReservedWords {
		names[k] = 1
	}

	for name := range usedNames {
		names[name] = 1
	}

	return names
}

type Renamer interface {
	NameForSymbol(ref ast.Ref) string
}

////////////////////////////////////////////////////////////////////////////////
// noOpRenamer

type noOpRenamer struct {
	symbols js_ast.SymbolMap
}

func NewNoOpRenamer(symbols js_ast.SymbolMap) Renamer {
	return &noOpRenamer{
		symbols: symbols,
	}
}

func (r *noOpRenamer) NameForSymbol(ref ast.Ref) string {
	ref = js_ast.FollowSymbols(r.symbols, ref)
	return r.symbols.Get(ref).OriginalName
}

////////////////////////////////////////////////////////////////////////////////
// NumberRenamer

type NumberRenamer struct {
	symbols js_ast.SymbolMap
	names   [][]string
	root    numberScope
}

func NewNumberRenamer(symbols js_ast.SymbolMap, reservedNames map[string]uint32) *NumberRenamer {
	return &NumberRenamer{
		symbols: symbols,
		names:   make([][]string, len(symbols.SymbolsForSource)),
		root:    numberScope{nameCounts: reservedNames},
	}
}

func (r *NumberRenamer) NameForSymbol(ref ast.Ref) string {
	ref = js_ast.FollowSymbols(r.symbols, ref)
	if inner := r.names[ref.SourceIndex]; inner != nil {
		if name := inner[ref.InnerIndex]; name != "" {
			return name
		}
	}
	return r.symbols.Get(ref).OriginalName
}

// Generated symbols are named in the order they were created, so the first
// namespace for "./x" is "import_x" and the next one is "import_x2"
func (r *NumberRenamer) AssignGeneratedNames(sourceIndex uint32) {
	for i, symbol := range r.symbols.SymbolsForSource[sourceIndex] {
		if symbol.Flags.Has(js_ast.IsGenerated) && symbol.Link == ast.InvalidRef {
			r.assignName(&r.root, ast.Ref{SourceIndex: sourceIndex, InnerIndex: uint32(i)})
		}
	}
}

func (r *NumberRenamer) assignName(scope *numberScope, ref ast.Ref) {
	// Don't rename the same symbol more than once
	inner := r.names[ref.SourceIndex]
	if inner != nil && inner[ref.InnerIndex] != "" {
		return
	}

	name := scope.findUnusedName(r.symbols.Get(ref).OriginalName)

	if inner == nil {
		inner = make([]string, len(r.symbols.SymbolsForSource[ref.SourceIndex]))
		r.names[ref.SourceIndex] = inner
	}
	inner[ref.InnerIndex] = name
}

type numberScope struct {
	// This is used as a set of used names in this scope. This also maps the name
	// to the number of times the name has experienced a collision. When a name
	// collides with an already-used name, we need to rename it. This is done by
	// incrementing a number at the end until the name is unused. We save the
	// count here so that subsequent collisions can start counting from where the
	// previous collision ended instead of having to start counting from 1.
	nameCounts map[string]uint32
}

func (s *numberScope) findUnusedName(name string) string {
	if tries, ok := s.nameCounts[name]; ok {
		prefix := name

		// Keep incrementing the number until the name is unused
		for {
			tries++
			name = prefix + strconv.Itoa(int(tries))
			if _, ok := s.nameCounts[name]; !ok {
				break
			}
		}

		// Store the count so we can start here next time instead of starting
		// from 1. This means we avoid O(n^2) behavior.
		s.nameCounts[prefix] = tries
	}

	// Each name starts off with a count of 1 so that the first collision with
	// "name" is called "name2"
	s.nameCounts[name] = 1
	return name
}
