package globalmod

import (
	"fmt"

	"github.com/globalmod/globalmod/internal/ast"
	"github.com/globalmod/globalmod/internal/helpers"
	"github.com/globalmod/globalmod/internal/js_ast"
	"github.com/globalmod/globalmod/internal/js_lexer"
	"github.com/globalmod/globalmod/internal/logger"
)

type itemKind uint8

const (
	// A statement that ends up inside the factory function
	itemPlain itemKind = iota

	// A leading directive such as "use strict". These have to stay first in
	// the factory body to keep their meaning.
	itemDirective

	// A static import statement
	itemImport

	// An unaliased "export * from" statement
	itemExportStar
)

// A top-level statement that survived collection, tagged with where the
// builder should put it
type item struct {
	stmt js_ast.Stmt
	kind itemKind
}

// The collector makes one pass over the module in source order. It builds
// the dependency and export model, removes the statements that only exist to
// declare exports, and rewrites "require()" and "import()" calls in place.
type collector struct {
	*transformer
	deps      []*Dep
	depsByKey map[string]*Dep
	exps      []*Exp
}

func (c *collector) collect(stmts []js_ast.Stmt) []item {
	items := make([]item, 0, len(stmts))
	isLeading := true
	for _, stmt := range stmts {
		if _, ok := stmt.Data.(*js_ast.SDirective); ok && isLeading {
			items = append(items, item{stmt: stmt, kind: itemDirective})
			continue
		}
		isLeading = false
		items = c.collectStmt(items, stmt)
	}
	return items
}

func (c *collector) collectStmt(items []item, stmt js_ast.Stmt) []item {
	switch s := stmt.Data.(type) {
	case *js_ast.SImport:
		dep := c.depForRecord(s.ImportRecordIndex)
		if s.DefaultName != nil {
			dep.addMember(Member{Kind: MemberDefault, Imported: "default", Ref: s.DefaultName.Ref})
		}
		if s.Items != nil {
			for _, clause := range *s.Items {
				// "import {default as b}" asks for the same binding as "import b"
				if clause.Alias == "default" {
					dep.addMember(Member{Kind: MemberDefault, Imported: "default", Ref: clause.Name.Ref})
					continue
				}
				dep.addMember(Member{Kind: MemberNamed, Imported: clause.Alias, Ref: clause.Name.Ref})
			}
		}
		if s.StarNameLoc != nil {
			dep.addMember(Member{Kind: MemberNamespace, Imported: "*", Ref: s.NamespaceRef})
			if dep.NamespaceRef == ast.InvalidRef {
				dep.NamespaceRef = s.NamespaceRef
			}
		}
		return append(items, item{stmt: stmt, kind: itemImport})

	case *js_ast.SExportFrom:
		dep := c.depForRecord(s.ImportRecordIndex)
		dep.HasReExport = true
		exp := &Exp{Dep: dep, Loc: stmt.Loc, Kind: ExpReExportNamed}
		for _, clause := range s.Items {
			c.checkExportAlias(clause)
			exp.Names = append(exp.Names, ExportName{
				Exported:   clause.Alias,
				Imported:   clause.OriginalName,
				LocalRef:   ast.InvalidRef,
				BindingRef: c.newBinding(clause.Alias),
			})
		}
		c.exps = append(c.exps, exp)
		return items

	case *js_ast.SExportStar:
		dep := c.depForRecord(s.ImportRecordIndex)
		dep.HasReExport = true
		exp := &Exp{Dep: dep, Loc: stmt.Loc, Kind: ExpReExportAll}
		c.exps = append(c.exps, exp)
		if s.Alias == nil {
			return append(items, item{stmt: stmt, kind: itemExportStar})
		}
		if s.Alias.IsStringLiteral {
			c.addError(c.source.RangeOfString(s.Alias.Loc), "Exporting under a string literal name is not supported")
		}
		exp.Names = []ExportName{{
			Exported:   s.Alias.Name,
			LocalRef:   ast.InvalidRef,
			BindingRef: c.newBinding(s.Alias.Name),
		}}
		return items

	case *js_ast.SExportClause:
		exp := &Exp{Loc: stmt.Loc, Kind: ExpNamed}
		for _, clause := range s.Items {
			c.checkExportAlias(clause)
			exp.Names = append(exp.Names, ExportName{
				Exported:   clause.Alias,
				LocalRef:   clause.Name.Ref,
				BindingRef: c.newBinding(clause.Alias),
			})
		}
		c.exps = append(c.exps, exp)
		return items

	case *js_ast.SExportDefault:
		return c.collectExportDefault(items, stmt, s)

	case *js_ast.SLocal:
		if s.IsExport {
			if len(s.Decls) > 1 {
				c.addError(js_lexer.RangeOfIdentifier(c.source, stmt.Loc), "Cannot export a declaration with more than one declarator")
			}
			exp := &Exp{Loc: stmt.Loc, Kind: ExpNamed}
			for _, decl := range s.Decls {
				js_ast.ForEachIdentifierBinding(decl.Binding, func(loc logger.Loc, b *js_ast.BIdentifier) {
					name := c.symbols[b.Ref.InnerIndex].OriginalName
					exp.Names = append(exp.Names, ExportName{
						Exported:   name,
						LocalRef:   b.Ref,
						BindingRef: c.newBinding(name),
					})
				})
			}
			c.exps = append(c.exps, exp)
			s.IsExport = false
		}

	case *js_ast.SFunction:
		if s.IsExport {
			c.exportDeclaration(stmt.Loc, s.Fn.Name)
			s.IsExport = false
		}

	case *js_ast.SClass:
		if s.IsExport {
			c.exportDeclaration(stmt.Loc, s.Class.Name)
			s.IsExport = false
		}
	}

	c.visitStmt(stmt)
	return append(items, item{stmt: stmt, kind: itemPlain})
}

// A default-exported function or class keeps its declaration so that it is
// still hoisted. An expression is assigned to its binding where it was.
func (c *collector) collectExportDefault(items []item, stmt js_ast.Stmt, s *js_ast.SExportDefault) []item {
	exp := &Exp{Loc: stmt.Loc, Kind: ExpDefault}
	name := ExportName{Exported: "default", LocalRef: s.DefaultName.Ref, BindingRef: c.newBinding("default")}
	exp.Names = []ExportName{name}
	c.exps = append(c.exps, exp)

	switch v := s.Value.Data.(type) {
	case *js_ast.SFunction:
		if v.Fn.Name == nil {
			v.Fn.Name = &js_ast.LocRef{Loc: s.DefaultName.Loc, Ref: s.DefaultName.Ref}
		}
		c.visitFn(&v.Fn)
		stmt = js_ast.Stmt{Loc: stmt.Loc, Data: v}

	case *js_ast.SClass:
		if v.Class.Name == nil {
			v.Class.Name = &js_ast.LocRef{Loc: s.DefaultName.Loc, Ref: s.DefaultName.Ref}
		}
		c.visitClass(&v.Class)
		stmt = js_ast.Stmt{Loc: stmt.Loc, Data: v}

	case *js_ast.SExpr:
		exp.IsInline = true
		exp.Names[0].LocalRef = ast.InvalidRef
		value := c.visitExpr(v.Value)
		stmt = js_ast.AssignStmt(js_ast.Expr{Loc: stmt.Loc, Data: &js_ast.EIdentifier{Ref: name.BindingRef}}, value)

	default:
		panic("Internal error")
	}

	return append(items, item{stmt: stmt, kind: itemPlain})
}

func (c *collector) exportDeclaration(loc logger.Loc, name *js_ast.LocRef) {
	// The parser doesn't allow exported declarations without a name
	if name == nil {
		panic("Internal error")
	}
	originalName := c.symbols[name.Ref.InnerIndex].OriginalName
	c.exps = append(c.exps, &Exp{Loc: loc, Kind: ExpNamed, Names: []ExportName{{
		Exported:   originalName,
		LocalRef:   name.Ref,
		BindingRef: c.newBinding(originalName),
	}}})
}

// Exported names are published as properties of a plain object, so only
// names that are valid identifiers can be supported
func (c *collector) checkExportAlias(clause js_ast.ClauseItem) {
	if clause.AliasIsStringLiteral {
		c.addError(c.source.RangeOfString(clause.AliasLoc), "Exporting under a string literal name is not supported")
	}
}

// Every exported name is captured in a variable of its own
func (c *collector) newBinding(exported string) ast.Ref {
	return c.newGeneratedSymbol(js_ast.SymbolHoisted, "__"+exported)
}

// Returns the dependency for an import record, rewriting the record's path
// in the process. A dependency is static as soon as one of its records is.
func (c *collector) depForRecord(importRecordIndex uint32) *Dep {
	record := &c.importRecords[importRecordIndex]
	record.Path = c.rewritePath(record.Path)
	dep := c.dep(record.Path, record.Range.Loc)
	if !record.Kind.IsRuntime() {
		dep.Kind = DepStatic
	}
	return dep
}

// The parser only records statements, so "require()" and "import()" calls
// get their import records here. Returns the rewritten path.
func (c *collector) recordRuntimeImport(kind ast.ImportKind, r logger.Range, path string) string {
	index := uint32(len(c.importRecords))
	c.importRecords = append(c.importRecords, ast.ImportRecord{Path: path, Range: r, Kind: kind})
	return c.depForRecord(index).Specifier
}

// Returns the dependency for a specifier that was already rewritten. New
// dependencies start out as runtime dependencies.
func (c *collector) dep(specifier string, loc logger.Loc) *Dep {
	if dep, ok := c.depsByKey[specifier]; ok {
		return dep
	}
	dep := &Dep{
		Specifier:    specifier,
		NamespaceRef: ast.InvalidRef,
		Loc:          loc,
		Kind:         DepRuntime,
	}
	c.deps = append(c.deps, dep)
	c.depsByKey[specifier] = dep
	return dep
}

////////////////////////////////////////////////////////////////////////////////
// Nested traversal

func (c *collector) visitStmts(stmts []js_ast.Stmt) {
	for _, stmt := range stmts {
		c.visitStmt(stmt)
	}
}

func (c *collector) visitStmt(stmt js_ast.Stmt) {
	switch s := stmt.Data.(type) {
	case *js_ast.SDirective, *js_ast.SEmpty, *js_ast.SDebugger, *js_ast.SBreak, *js_ast.SContinue,
		*js_ast.SImport, *js_ast.SExportFrom, *js_ast.SExportStar, *js_ast.SExportClause:

	case *js_ast.SExportDefault:
		panic("Internal error")

	case *js_ast.SExpr:
		s.Value = c.visitExpr(s.Value)

	case *js_ast.SFunction:
		c.visitFn(&s.Fn)

	case *js_ast.SClass:
		c.visitClass(&s.Class)

	case *js_ast.SLocal:
		for i := range s.Decls {
			decl := &s.Decls[i]
			c.visitBinding(decl.Binding)
			if decl.ValueOrNil.Data != nil {
				decl.ValueOrNil = c.visitExpr(decl.ValueOrNil)
			}
		}

	case *js_ast.SLabel:
		c.visitStmt(s.Stmt)

	case *js_ast.SIf:
		s.Test = c.visitExpr(s.Test)
		c.visitStmt(s.Yes)
		if s.NoOrNil.Data != nil {
			c.visitStmt(s.NoOrNil)
		}

	case *js_ast.SDoWhile:
		c.visitStmt(s.Body)
		s.Test = c.visitExpr(s.Test)

	case *js_ast.SWhile:
		s.Test = c.visitExpr(s.Test)
		c.visitStmt(s.Body)

	case *js_ast.SWith:
		s.Value = c.visitExpr(s.Value)
		c.visitStmt(s.Body)

	case *js_ast.SFor:
		if s.InitOrNil.Data != nil {
			c.visitStmt(s.InitOrNil)
		}
		if s.TestOrNil.Data != nil {
			s.TestOrNil = c.visitExpr(s.TestOrNil)
		}
		if s.UpdateOrNil.Data != nil {
			s.UpdateOrNil = c.visitExpr(s.UpdateOrNil)
		}
		c.visitStmt(s.Body)

	case *js_ast.SForIn:
		c.visitStmt(s.Init)
		s.Value = c.visitExpr(s.Value)
		c.visitStmt(s.Body)

	case *js_ast.SForOf:
		c.visitStmt(s.Init)
		s.Value = c.visitExpr(s.Value)
		c.visitStmt(s.Body)

	case *js_ast.SBlock:
		c.visitStmts(s.Stmts)

	case *js_ast.STry:
		c.visitStmts(s.Body)
		if s.Catch != nil {
			if s.Catch.BindingOrNil.Data != nil {
				c.visitBinding(s.Catch.BindingOrNil)
			}
			c.visitStmts(s.Catch.Body)
		}
		if s.Finally != nil {
			c.visitStmts(s.Finally.Stmts)
		}

	case *js_ast.SSwitch:
		s.Test = c.visitExpr(s.Test)
		for i := range s.Cases {
			cas := &s.Cases[i]
			if cas.ValueOrNil.Data != nil {
				cas.ValueOrNil = c.visitExpr(cas.ValueOrNil)
			}
			c.visitStmts(cas.Body)
		}

	case *js_ast.SReturn:
		if s.ValueOrNil.Data != nil {
			s.ValueOrNil = c.visitExpr(s.ValueOrNil)
		}

	case *js_ast.SThrow:
		s.Value = c.visitExpr(s.Value)

	default:
		panic(fmt.Sprintf("Unexpected statement of type %T", stmt.Data))
	}
}

// Default values in binding patterns are expressions too
func (c *collector) visitBinding(binding js_ast.Binding) {
	switch b := binding.Data.(type) {
	case *js_ast.BMissing, *js_ast.BIdentifier:

	case *js_ast.BArray:
		for i := range b.Items {
			item := &b.Items[i]
			c.visitBinding(item.Binding)
			if item.DefaultValueOrNil.Data != nil {
				item.DefaultValueOrNil = c.visitExpr(item.DefaultValueOrNil)
			}
		}

	case *js_ast.BObject:
		for i := range b.Properties {
			property := &b.Properties[i]
			if property.IsComputed {
				property.Key = c.visitExpr(property.Key)
			}
			c.visitBinding(property.Value)
			if property.DefaultValueOrNil.Data != nil {
				property.DefaultValueOrNil = c.visitExpr(property.DefaultValueOrNil)
			}
		}

	default:
		panic(fmt.Sprintf("Unexpected binding of type %T", binding.Data))
	}
}

func (c *collector) visitArgs(args []js_ast.Arg) {
	for i := range args {
		arg := &args[i]
		c.visitBinding(arg.Binding)
		if arg.DefaultOrNil.Data != nil {
			arg.DefaultOrNil = c.visitExpr(arg.DefaultOrNil)
		}
	}
}

func (c *collector) visitFn(fn *js_ast.Fn) {
	c.visitArgs(fn.Args)
	c.visitStmts(fn.Body.Stmts)
}

func (c *collector) visitClass(class *js_ast.Class) {
	if class.ExtendsOrNil.Data != nil {
		class.ExtendsOrNil = c.visitExpr(class.ExtendsOrNil)
	}
	c.visitProperties(class.Properties)
}

func (c *collector) visitProperties(properties []js_ast.Property) {
	for i := range properties {
		property := &properties[i]
		if property.IsComputed {
			property.Key = c.visitExpr(property.Key)
		}
		if property.ValueOrNil.Data != nil {
			property.ValueOrNil = c.visitExpr(property.ValueOrNil)
		}
		if property.InitializerOrNil.Data != nil {
			property.InitializerOrNil = c.visitExpr(property.InitializerOrNil)
		}
	}
}

func (c *collector) visitExprs(exprs []js_ast.Expr) {
	for i := range exprs {
		exprs[i] = c.visitExpr(exprs[i])
	}
}

// Returns the expression to use in place of "expr"
func (c *collector) visitExpr(expr js_ast.Expr) js_ast.Expr {
	switch e := expr.Data.(type) {
	case *js_ast.ENull, *js_ast.ESuper, *js_ast.EBoolean, *js_ast.EUndefined,
		*js_ast.EThis, *js_ast.ENewTarget, *js_ast.EImportMeta, *js_ast.EMissing,
		*js_ast.EPrivateIdentifier, *js_ast.ENumber, *js_ast.EBigInt,
		*js_ast.EString, *js_ast.ERegExp, *js_ast.EIdentifier, *js_ast.EImportIdentifier:

	case *js_ast.EArray:
		c.visitExprs(e.Items)

	case *js_ast.EUnary:
		e.Value = c.visitExpr(e.Value)

	case *js_ast.EBinary:
		e.Left = c.visitExpr(e.Left)
		e.Right = c.visitExpr(e.Right)

	case *js_ast.ENew:
		e.Target = c.visitExpr(e.Target)
		c.visitExprs(e.Args)

	case *js_ast.ECall:
		if c.isRequire(e.Target) && e.OptionalChain == js_ast.OptionalChainNone {
			return c.rewriteRequire(expr, e)
		}
		e.Target = c.visitExpr(e.Target)
		c.visitExprs(e.Args)

	case *js_ast.EImportCall:
		return c.rewriteImportCall(expr, e)

	case *js_ast.EDot:
		e.Target = c.visitExpr(e.Target)

	case *js_ast.EIndex:
		e.Target = c.visitExpr(e.Target)
		e.Index = c.visitExpr(e.Index)

	case *js_ast.EArrow:
		c.visitArgs(e.Args)
		c.visitStmts(e.Body.Stmts)

	case *js_ast.EFunction:
		c.visitFn(&e.Fn)

	case *js_ast.EClass:
		c.visitClass(&e.Class)

	case *js_ast.EObject:
		c.visitProperties(e.Properties)

	case *js_ast.ESpread:
		e.Value = c.visitExpr(e.Value)

	case *js_ast.ETemplate:
		if e.TagOrNil.Data != nil {
			e.TagOrNil = c.visitExpr(e.TagOrNil)
		}
		for i := range e.Parts {
			e.Parts[i].Value = c.visitExpr(e.Parts[i].Value)
		}

	case *js_ast.EAwait:
		e.Value = c.visitExpr(e.Value)

	case *js_ast.EYield:
		if e.ValueOrNil.Data != nil {
			e.ValueOrNil = c.visitExpr(e.ValueOrNil)
		}

	case *js_ast.EIf:
		e.Test = c.visitExpr(e.Test)
		e.Yes = c.visitExpr(e.Yes)
		e.No = c.visitExpr(e.No)

	default:
		panic(fmt.Sprintf("Unexpected expression of type %T", expr.Data))
	}

	return expr
}

// Only the global "require" is rewritten. A local variable or parameter
// with that name is left alone.
func (c *collector) isRequire(target js_ast.Expr) bool {
	if id, ok := target.Data.(*js_ast.EIdentifier); ok {
		ref := js_ast.FollowSymbols(c.symbolMap(), id.Ref)
		symbol := &c.symbols[ref.InnerIndex]
		return symbol.Kind == js_ast.SymbolUnbound && symbol.OriginalName == "require"
	}
	return false
}

// Only the first argument names the module. Any others are evaluated first
// for their side effects and then discarded, since the loader's second
// argument is the dependency id.
func (c *collector) rewriteRequire(expr js_ast.Expr, call *js_ast.ECall) js_ast.Expr {
	if len(call.Args) > 0 {
		if text, ok := js_ast.StringValue(call.Args[0]); ok {
			specifier := c.recordRuntimeImport(ast.ImportRequire, c.source.RangeOfString(call.Args[0].Loc), helpers.UTF16ToString(text))
			var extra js_ast.Expr
			for _, arg := range call.Args[1:] {
				if js_ast.IsPrimitiveLiteral(arg.Data) {
					continue
				}
				arg = c.visitExpr(arg)
				if spread, ok := arg.Data.(*js_ast.ESpread); ok {
					arg = js_ast.Expr{Loc: arg.Loc, Data: &js_ast.EArray{Items: []js_ast.Expr{{Loc: arg.Loc, Data: spread}}, IsSingleLine: true}}
				}
				extra = js_ast.JoinWithComma(extra, arg)
			}
			return js_ast.JoinWithComma(extra, c.ctxRequire(expr.Loc, js_ast.StringExpr(call.Args[0].Loc, specifier)))
		}
	}

	c.addError(js_lexer.RangeOfIdentifier(c.source, call.Target.Loc), "\"require\" must be called with a string literal")
	return expr
}

// A dynamic import with a string literal loads a dependency like "require()"
// does. One with an identifier can't be known ahead of time, so it is passed
// through to the loader without registering anything. The second argument
// has no meaning to the loader and is dropped.
func (c *collector) rewriteImportCall(expr js_ast.Expr, call *js_ast.EImportCall) js_ast.Expr {
	switch arg := call.Expr.Data.(type) {
	case *js_ast.EString:
		specifier := c.recordRuntimeImport(ast.ImportDynamic, c.source.RangeOfString(call.Expr.Loc), helpers.UTF16ToString(arg.Value))
		return c.ctxRequire(expr.Loc, js_ast.StringExpr(call.Expr.Loc, specifier))

	case *js_ast.EIdentifier, *js_ast.EImportIdentifier:
		return c.ctxRequire(expr.Loc, call.Expr)
	}

	c.addError(logger.Range{Loc: expr.Loc, Len: int32(len("import"))}, "\"import()\" must be called with a string literal or an identifier")
	return expr
}

// Returns "__ctx.require(<arg>)"
func (t *transformer) ctxRequire(loc logger.Loc, args ...js_ast.Expr) js_ast.Expr {
	return js_ast.Expr{Loc: loc, Data: &js_ast.ECall{
		Target: js_ast.Expr{Loc: loc, Data: &js_ast.EDot{
			Target: js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Ref: t.ctxRef}},
			Name:   "require",
		}},
		Args: args,
	}}
}
