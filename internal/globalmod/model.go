package globalmod

import (
	"github.com/globalmod/globalmod/internal/ast"
	"github.com/globalmod/globalmod/internal/js_ast"
	"github.com/globalmod/globalmod/internal/logger"
)

type DepKind uint8

const (
	// The dependency was named by an import or re-export statement, so the
	// dependency table lists it and the loader resolves it ahead of time
	DepStatic DepKind = iota

	// The dependency was only seen in "require()" or "import()" calls, which
	// are resolved when the call runs
	DepRuntime
)

func (kind DepKind) String() string {
	switch kind {
	case DepStatic:
		return "static"
	case DepRuntime:
		return "runtime"
	default:
		panic("Internal error")
	}
}

type MemberKind uint8

const (
	MemberDefault MemberKind = iota
	MemberNamed
	MemberNamespace
)

// One binding requested from a dependency. "Imported" is the name in the
// other module, which is "default" for default imports and "*" for namespace
// imports. "Ref" is the local symbol it is bound to.
type Member struct {
	Kind     MemberKind
	Imported string
	Ref      ast.Ref
}

type Dep struct {
	// The specifier after path rewriting. Every sighting of the same
	// specifier shares one Dep.
	Specifier string

	// The bindings requested from this module, in first-sighted order and
	// without duplicates
	Members []Member

	// Every member that was sighted, duplicates included. Each local symbol
	// has to be rewritten even if its binding was already requested.
	sightings []Member

	// The object that re-exports and namespace imports read from. This is
	// either the user's "import * as ns" symbol or a generated one.
	NamespaceRef ast.Ref

	// The dependency id supplied by the host, if any
	ID ast.Index32

	Loc  logger.Loc
	Kind DepKind

	HasReExport bool
}

func (dep *Dep) addMember(member Member) {
	dep.sightings = append(dep.sightings, member)
	for _, existing := range dep.Members {
		if existing.Kind == member.Kind && existing.Imported == member.Imported {
			return
		}
	}
	dep.Members = append(dep.Members, member)
}

// Whether anything in the module body reads from this dependency
func (dep *Dep) hasBindings() bool {
	return len(dep.Members) > 0 || dep.HasReExport
}

// Returns the value stored in the dependency table for this dependency
func (dep *Dep) getter() js_ast.Expr {
	if dep.Kind == DepRuntime {
		return js_ast.Expr{Loc: dep.Loc, Data: js_ast.ENullShared}
	}

	var value js_ast.Expr
	if dep.NamespaceRef != ast.InvalidRef {
		value = js_ast.Expr{Loc: dep.Loc, Data: &js_ast.EIdentifier{Ref: dep.NamespaceRef}}
	} else {
		properties := []js_ast.Property{}
		for _, member := range dep.Members {
			properties = append(properties, js_ast.Property{
				Key:        js_ast.StringExpr(dep.Loc, member.Imported),
				ValueOrNil: js_ast.Expr{Loc: dep.Loc, Data: &js_ast.EImportIdentifier{Ref: member.Ref}},
			})
		}
		value = js_ast.Expr{Loc: dep.Loc, Data: &js_ast.EObject{Properties: properties, IsSingleLine: true}}
	}

	return js_ast.Expr{Loc: dep.Loc, Data: &js_ast.EArrow{
		Body:       js_ast.FnBody{Loc: dep.Loc, Stmts: []js_ast.Stmt{{Loc: dep.Loc, Data: &js_ast.SReturn{ValueOrNil: value}}}},
		PreferExpr: true,
	}}
}

type ExpKind uint8

const (
	// "export {a, b as c}" and exported declarations
	ExpNamed ExpKind = iota

	// "export default"
	ExpDefault

	// "export * from" and "export * as ns from"
	ExpReExportAll

	// "export {a as b} from"
	ExpReExportNamed
)

type ExportName struct {
	// The name other modules see
	Exported string

	// The name in the other module for "export {a as b} from"
	Imported string

	// The local symbol holding the value. This is invalid for re-exports and
	// for default expressions.
	LocalRef ast.Ref

	// The generated "__<name>" symbol the value is captured in
	BindingRef ast.Ref
}

type Exp struct {
	// Only set for re-exports
	Dep *Dep

	Names []ExportName
	Loc   logger.Loc
	Kind  ExpKind

	// "export default <expr>" assigns its binding where the statement was
	// instead of in the assignment sequence
	IsInline bool
}

// An unaliased "export *" has no binding of its own. It publishes every
// export of the other module.
func (exp *Exp) isSpread() bool {
	return exp.Kind == ExpReExportAll && len(exp.Names) == 0
}

// Returns the properties this export contributes to the published exports
// object
func (exp *Exp) properties() []js_ast.Property {
	if exp.isSpread() {
		return []js_ast.Property{{
			Kind:       js_ast.PropertySpread,
			ValueOrNil: js_ast.Expr{Loc: exp.Loc, Data: &js_ast.EIdentifier{Ref: exp.Dep.NamespaceRef}},
		}}
	}

	properties := make([]js_ast.Property, 0, len(exp.Names))
	for _, name := range exp.Names {
		properties = append(properties, js_ast.Property{
			Key:        js_ast.StringExpr(exp.Loc, name.Exported),
			ValueOrNil: js_ast.Expr{Loc: exp.Loc, Data: &js_ast.EIdentifier{Ref: name.BindingRef}},
		})
	}
	return properties
}

// Returns the "__name = value" items for the assignment sequence at the end
// of the module body. The symbol table is needed to tell imports apart from
// other locals.
func (exp *Exp) assignments(symbols []js_ast.Symbol) []js_ast.Expr {
	if exp.IsInline || exp.isSpread() {
		return nil
	}

	exprs := make([]js_ast.Expr, 0, len(exp.Names))
	for _, name := range exp.Names {
		var value js_ast.Expr
		switch exp.Kind {
		case ExpReExportAll:
			value = js_ast.Expr{Loc: exp.Loc, Data: &js_ast.EIdentifier{Ref: exp.Dep.NamespaceRef}}

		case ExpReExportNamed:
			target := js_ast.Expr{Loc: exp.Loc, Data: &js_ast.EIdentifier{Ref: exp.Dep.NamespaceRef}}
			if js_ast.IsIdentifier(name.Imported) {
				value = js_ast.Expr{Loc: exp.Loc, Data: &js_ast.EDot{Target: target, Name: name.Imported}}
			} else {
				value = js_ast.Expr{Loc: exp.Loc, Data: &js_ast.EIndex{Target: target, Index: js_ast.StringExpr(exp.Loc, name.Imported)}}
			}

		default:
			if symbols[name.LocalRef.InnerIndex].Kind == js_ast.SymbolImport {
				value = js_ast.Expr{Loc: exp.Loc, Data: &js_ast.EImportIdentifier{Ref: name.LocalRef}}
			} else {
				value = js_ast.Expr{Loc: exp.Loc, Data: &js_ast.EIdentifier{Ref: name.LocalRef}}
			}
		}

		binding := js_ast.Expr{Loc: exp.Loc, Data: &js_ast.EIdentifier{Ref: name.BindingRef}}
		exprs = append(exprs, js_ast.Assign(binding, value))
	}
	return exprs
}

// Returns the items this export contributes to the "export {}" clause that
// is kept for static analysis
func (exp *Exp) clauseItems() []js_ast.ClauseItem {
	items := make([]js_ast.ClauseItem, 0, len(exp.Names))
	for _, name := range exp.Names {
		items = append(items, js_ast.ClauseItem{
			Alias: name.Exported,
			Name:  js_ast.LocRef{Loc: exp.Loc, Ref: name.BindingRef},
		})
	}
	return items
}

func (exp *Exp) bindingRefs() []ast.Ref {
	refs := make([]ast.Ref, 0, len(exp.Names))
	for _, name := range exp.Names {
		refs = append(refs, name.BindingRef)
	}
	return refs
}
