package globalmod

import (
	"github.com/globalmod/globalmod/internal/ast"
	"github.com/globalmod/globalmod/internal/js_ast"
	"github.com/globalmod/globalmod/internal/logger"
)

// The builder turns the collected model back into statements. The output is
// laid out like this, where the bracketed parts are only present in the
// bundle phase:
//
//	[import statements]
//	[const __deps = { ... };]
//	global.__modules.register(id, [__deps,] function(__ctx) { ... });
//	[export { ... }; export * from "...";]
//	var __a, __b;
type builder struct {
	*transformer
	phase Phase
}

func (b *builder) build(deps []*Dep, exps []*Exp, items []item) []js_ast.Stmt {
	b.phase = b.options.Phase

	var directives, imports, body, exportStars []js_ast.Stmt
	for _, item := range items {
		switch item.kind {
		case itemDirective:
			directives = append(directives, item.stmt)
		case itemImport:
			if b.phase.KeepImports() {
				imports = append(imports, item.stmt)
			}
		case itemExportStar:
			if b.phase.KeepExportSyntax() {
				exportStars = append(exportStars, item.stmt)
			}
		default:
			body = append(body, item.stmt)
		}
	}

	var stmts []js_ast.Stmt
	var prelude []js_ast.Stmt
	if b.phase == PhaseRuntime {
		prelude = b.bindRuntimeNamespaces(deps)
	} else {
		imports = append(imports, b.generateNamespaceImports(deps)...)
	}
	stmts = append(stmts, imports...)

	if b.phase.EmitDependencyTable() {
		stmts = append(stmts, b.dependencyTable(deps))
	}

	factory := make([]js_ast.Stmt, 0, len(directives)+len(prelude)+len(body)+2)
	factory = append(factory, directives...)
	factory = append(factory, prelude...)
	factory = append(factory, body...)
	if b.kind == js_ast.ModuleAST {
		var assignments []js_ast.Expr
		for _, exp := range exps {
			assignments = append(assignments, exp.assignments(b.symbols)...)
		}
		if len(assignments) > 0 {
			value := js_ast.JoinAllWithComma(assignments)
			factory = append(factory, js_ast.Stmt{Loc: value.Loc, Data: &js_ast.SExpr{Value: value}})
		}
		factory = append(factory, b.publishCall(exps))
	}
	stmts = append(stmts, b.registrationCall(factory))

	if b.phase.KeepExportSyntax() {
		var clauseItems []js_ast.ClauseItem
		for _, exp := range exps {
			clauseItems = append(clauseItems, exp.clauseItems()...)
		}
		if len(clauseItems) > 0 {
			stmts = append(stmts, js_ast.Stmt{Data: &js_ast.SExportClause{Items: clauseItems, IsSingleLine: true}})
		}
		stmts = append(stmts, exportStars...)
	}

	// The bindings are declared last since "var" is hoisted anyway
	var decls []js_ast.Decl
	for _, exp := range exps {
		for _, ref := range exp.bindingRefs() {
			decls = append(decls, js_ast.Decl{Binding: js_ast.Binding{Loc: exp.Loc, Data: &js_ast.BIdentifier{Ref: ref}}})
		}
	}
	if len(decls) > 0 {
		stmts = append(stmts, js_ast.Stmt{Data: &js_ast.SLocal{Kind: js_ast.LocalVar, Decls: decls}})
	}

	return stmts
}

func (b *builder) newNamespace(dep *Dep) ast.Ref {
	dep.NamespaceRef = b.newGeneratedSymbol(js_ast.SymbolOther, "import_"+ast.GenerateNonUniqueNameFromPath(dep.Specifier))
	return dep.NamespaceRef
}

// Re-exports read from the namespace of the other module. In the bundle
// phase that namespace comes from an import statement, which has to be
// generated if the module didn't import the namespace itself.
func (b *builder) generateNamespaceImports(deps []*Dep) (stmts []js_ast.Stmt) {
	for _, dep := range deps {
		if dep.Kind != DepStatic || !dep.HasReExport || dep.NamespaceRef != ast.InvalidRef {
			continue
		}
		ref := b.newNamespace(dep)
		recordIndex := uint32(len(b.importRecords))
		b.importRecords = append(b.importRecords, ast.ImportRecord{
			Path:  dep.Specifier,
			Range: logger.Range{Loc: dep.Loc},
			Kind:  ast.ImportStmt,
		})
		starLoc := dep.Loc
		stmts = append(stmts, js_ast.Stmt{Loc: dep.Loc, Data: &js_ast.SImport{
			StarNameLoc:       &starLoc,
			NamespaceRef:      ref,
			ImportRecordIndex: recordIndex,
		}})
	}
	return
}

// In the runtime phase every static dependency is loaded at the top of the
// factory body. Imported names are then read off the loaded namespace.
func (b *builder) bindRuntimeNamespaces(deps []*Dep) (stmts []js_ast.Stmt) {
	for _, dep := range deps {
		if dep.Kind != DepStatic {
			continue
		}

		args := []js_ast.Expr{js_ast.StringExpr(dep.Loc, dep.Specifier)}
		if dep.ID.IsValid() {
			args = append(args, js_ast.Expr{Loc: dep.Loc, Data: &js_ast.ENumber{Value: float64(dep.ID.GetIndex())}})
		}
		load := b.ctxRequire(dep.Loc, args...)

		if !dep.hasBindings() {
			stmts = append(stmts, js_ast.Stmt{Loc: dep.Loc, Data: &js_ast.SExpr{Value: load}})
			continue
		}

		if dep.NamespaceRef == ast.InvalidRef {
			b.newNamespace(dep)
		}
		for _, member := range dep.sightings {
			switch member.Kind {
			case MemberNamespace:
				js_ast.MergeSymbols(b.symbolMap(), member.Ref, dep.NamespaceRef)
			default:
				b.symbols[member.Ref.InnerIndex].NamespaceAlias = &js_ast.NamespaceAlias{
					NamespaceRef: dep.NamespaceRef,
					Alias:        member.Imported,
				}
			}
		}

		stmts = append(stmts, js_ast.Stmt{Loc: dep.Loc, Data: &js_ast.SLocal{
			Kind: js_ast.LocalVar,
			Decls: []js_ast.Decl{{
				Binding:    js_ast.Binding{Loc: dep.Loc, Data: &js_ast.BIdentifier{Ref: dep.NamespaceRef}},
				ValueOrNil: load,
			}},
		}})
	}
	return
}

// Returns "const __deps = { ... };". Static dependencies map to a getter
// for the values the module imports. Dependencies that are only loaded at
// run time map to null.
func (b *builder) dependencyTable(deps []*Dep) js_ast.Stmt {
	properties := []js_ast.Property{}
	for _, dep := range deps {
		if dep.Kind == DepRuntime && !b.phase.ListRuntimeDeps() {
			continue
		}
		properties = append(properties, js_ast.Property{
			Key:        js_ast.StringExpr(dep.Loc, dep.Specifier),
			ValueOrNil: dep.getter(),
		})
	}

	return js_ast.Stmt{Data: &js_ast.SLocal{
		Kind: js_ast.LocalConst,
		Decls: []js_ast.Decl{{
			Binding:    js_ast.Binding{Data: &js_ast.BIdentifier{Ref: b.depsRef}},
			ValueOrNil: js_ast.Expr{Data: &js_ast.EObject{Properties: properties}},
		}},
	}}
}

// Returns "__ctx.exports({ ... });"
func (b *builder) publishCall(exps []*Exp) js_ast.Stmt {
	properties := []js_ast.Property{}
	for _, exp := range exps {
		properties = append(properties, exp.properties()...)
	}

	return js_ast.Stmt{Data: &js_ast.SExpr{Value: js_ast.Expr{Data: &js_ast.ECall{
		Target: js_ast.Expr{Data: &js_ast.EDot{
			Target: js_ast.Expr{Data: &js_ast.EIdentifier{Ref: b.ctxRef}},
			Name:   "exports",
		}},
		Args: []js_ast.Expr{{Data: &js_ast.EObject{Properties: properties, IsSingleLine: true}}},
	}}}}
}

// Returns "global.__modules.register(id, [__deps,] function(__ctx) { ... });"
func (b *builder) registrationCall(factory []js_ast.Stmt) js_ast.Stmt {
	registry := js_ast.Expr{Data: &js_ast.EIdentifier{Ref: b.globalRef}}
	for _, part := range b.globalName {
		if js_ast.IsIdentifier(part) {
			registry = js_ast.Expr{Data: &js_ast.EDot{Target: registry, Name: part}}
		} else {
			registry = js_ast.Expr{Data: &js_ast.EIndex{Target: registry, Index: js_ast.StringExpr(logger.Loc{}, part)}}
		}
	}

	args := []js_ast.Expr{b.moduleIDExpr()}
	if b.phase.EmitDependencyTable() {
		args = append(args, js_ast.Expr{Data: &js_ast.EIdentifier{Ref: b.depsRef}})
	}
	args = append(args, js_ast.Expr{Data: &js_ast.EFunction{Fn: js_ast.Fn{
		Args:         []js_ast.Arg{{Binding: js_ast.Binding{Data: &js_ast.BIdentifier{Ref: b.ctxRef}}}},
		Body:         js_ast.FnBody{Stmts: factory},
		ArgumentsRef: ast.InvalidRef,
	}}})

	return js_ast.Stmt{Data: &js_ast.SExpr{Value: js_ast.Expr{Data: &js_ast.ECall{
		Target: js_ast.Expr{Data: &js_ast.EDot{Target: registry, Name: "register"}},
		Args:   args,
	}}}}
}
