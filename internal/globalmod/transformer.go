package globalmod

import (
	"fmt"
	"strconv"

	"github.com/globalmod/globalmod/internal/ast"
	"github.com/globalmod/globalmod/internal/js_ast"
	"github.com/globalmod/globalmod/internal/js_parser"
	"github.com/globalmod/globalmod/internal/logger"
)

const DefaultGlobalName = "__modules"

type Options struct {
	// The id the module is registered under. This is required. It is printed
	// as a number if it consists only of digits and as a string otherwise.
	ModuleID string

	Phase Phase

	// Specifiers found in this map are replaced by the mapped value before
	// they are used as dependency keys
	Paths map[string]string

	// The ids of the static dependencies in first-sighted order. A nil slice
	// means the ids are not known.
	Dependencies []uint32

	// The property chain the registry object lives under, relative to
	// "global". This defaults to "__modules".
	GlobalName string
}

// The collector panics with this after it has logged an error so that the
// rest of the traversal is skipped
type rewriteAbort struct{}

// State shared by the collector and the builder for the duration of a single
// call to "Transform"
type transformer struct {
	log     logger.Log
	source  logger.Source
	options Options
	kind    js_ast.ASTKind

	// Working copies of the tree's tables. They are only written back to the
	// tree once the whole transform has succeeded.
	symbols       []js_ast.Symbol
	importRecords []ast.ImportRecord

	globalName []string
	ctxRef     ast.Ref
	depsRef    ast.Ref
	globalRef  ast.Ref
}

// Rewrites the module in "tree" into a single registration call. Errors are
// reported to "log" and cause false to be returned. In that case the tree
// must be discarded instead of printed since some expressions may already
// have been rewritten.
func Transform(log logger.Log, source logger.Source, tree *js_ast.AST, options Options) (ok bool) {
	if options.ModuleID == "" {
		log.AddError(nil, logger.Loc{}, "Missing module id")
		return false
	}

	globalName := options.GlobalName
	if globalName == "" {
		globalName = DefaultGlobalName
	}
	globalNameParts, ok := js_parser.ParseGlobalName(log, logger.Source{
		KeyPath:    "(global name)",
		PrettyPath: "(global name)",
		Contents:   globalName,
	})
	if !ok {
		return false
	}

	t := &transformer{
		log:           log,
		source:        source,
		options:       options,
		kind:          tree.Kind,
		symbols:       append([]js_ast.Symbol{}, tree.Symbols...),
		importRecords: append([]ast.ImportRecord{}, tree.ImportRecords...),
		globalName:    globalNameParts,
	}

	defer func() {
		if r := recover(); r != nil {
			if _, isAbort := r.(rewriteAbort); !isAbort {
				log.AddError(&source, logger.Loc{}, fmt.Sprintf("Internal error while rewriting %q: %v", source.PrettyPath, r))
			}
			ok = false
		}
	}()

	t.ctxRef = t.newGeneratedSymbol(js_ast.SymbolOther, "__ctx")
	t.depsRef = t.newGeneratedSymbol(js_ast.SymbolOther, "__deps")
	t.globalRef = t.newSymbol(js_ast.SymbolUnbound, "global")

	c := &collector{transformer: t, depsByKey: make(map[string]*Dep)}
	items := c.collect(tree.Stmts)
	t.assignDependencyIDs(c.deps)

	b := &builder{transformer: t}
	stmts := b.build(c.deps, c.exps, items)

	tree.Stmts = stmts
	tree.Symbols = t.symbols
	tree.ImportRecords = t.importRecords
	return true
}

func (t *transformer) newSymbol(kind js_ast.SymbolKind, name string) ast.Ref {
	ref := ast.Ref{SourceIndex: 0, InnerIndex: uint32(len(t.symbols))}
	t.symbols = append(t.symbols, js_ast.Symbol{
		Kind:         kind,
		OriginalName: name,
		Link:         ast.InvalidRef,
	})
	return ref
}

func (t *transformer) newGeneratedSymbol(kind js_ast.SymbolKind, name string) ast.Ref {
	ref := t.newSymbol(kind, name)
	t.symbols[ref.InnerIndex].Flags |= js_ast.IsGenerated
	return ref
}

// The symbol table may have grown since the last call, so this must not be
// cached
func (t *transformer) symbolMap() js_ast.SymbolMap {
	return js_ast.SymbolMap{SymbolsForSource: [][]js_ast.Symbol{t.symbols}}
}

func (t *transformer) rewritePath(path string) string {
	if rewritten, ok := t.options.Paths[path]; ok {
		return rewritten
	}
	return path
}

func (t *transformer) addError(r logger.Range, text string) {
	t.log.AddRangeError(&t.source, r, text)
	panic(rewriteAbort{})
}

func (t *transformer) assignDependencyIDs(deps []*Dep) {
	if t.options.Dependencies == nil {
		return
	}

	count := 0
	for _, dep := range deps {
		if dep.Kind == DepStatic {
			count++
		}
	}
	if count != len(t.options.Dependencies) {
		t.log.AddError(nil, logger.Loc{}, fmt.Sprintf("Expected %d dependency ids but got %d", count, len(t.options.Dependencies)))
		panic(rewriteAbort{})
	}

	i := 0
	for _, dep := range deps {
		if dep.Kind == DepStatic {
			dep.ID = ast.MakeIndex32(t.options.Dependencies[i])
			i++
		}
	}
}

func (t *transformer) moduleIDExpr() js_ast.Expr {
	id := t.options.ModuleID
	isNumeric := true
	for _, c := range id {
		if c < '0' || c > '9' {
			isNumeric = false
			break
		}
	}
	if isNumeric {
		if value, err := strconv.ParseFloat(id, 64); err == nil && strconv.FormatFloat(value, 'f', -1, 64) == id {
			return js_ast.Expr{Data: &js_ast.ENumber{Value: value}}
		}
	}
	return js_ast.StringExpr(logger.Loc{}, id)
}
