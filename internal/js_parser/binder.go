package js_parser

import (
	"fmt"

	"github.com/globalmod/globalmod/internal/ast"
	"github.com/globalmod/globalmod/internal/helpers"
	"github.com/globalmod/globalmod/internal/js_ast"
	"github.com/globalmod/globalmod/internal/js_lexer"
	"github.com/globalmod/globalmod/internal/logger"
)

// The binder is the second pass over the AST. It replaces every name that
// the first pass stashed in a ref with a real symbol. Each block is handled
// in two steps: first every declaration in the block is declared, then every
// statement is visited. That way a function can be referenced before its
// declaration in the same block.
type binder struct {
	log            logger.Log
	source         logger.Source
	symbols        []js_ast.Symbol
	allocatedNames []string
	importRecords  []ast.ImportRecord
	moduleScope    *js_ast.Scope
	currentScope   *js_ast.Scope

	// Every export alias seen so far, used to report duplicates
	exportAliases map[string]logger.Loc
}

func newBinder(log logger.Log, source logger.Source, allocatedNames []string, importRecords []ast.ImportRecord) *binder {
	b := &binder{
		log:            log,
		source:         source,
		allocatedNames: allocatedNames,
		importRecords:  importRecords,
		exportAliases:  make(map[string]logger.Loc),
	}
	b.pushScope(js_ast.ScopeEntry)
	b.moduleScope = b.currentScope
	return b
}

func (b *binder) addError(loc logger.Loc, text string) {
	b.log.AddError(&b.source, loc, text)
}

func (b *binder) addRangeError(r logger.Range, text string) {
	b.log.AddRangeError(&b.source, r, text)
}

func (b *binder) newSymbol(kind js_ast.SymbolKind, name string) ast.Ref {
	ref := ast.Ref{SourceIndex: 0, InnerIndex: uint32(len(b.symbols))}
	b.symbols = append(b.symbols, js_ast.Symbol{
		Kind:         kind,
		OriginalName: name,
		Link:         ast.InvalidRef,
	})
	return ref
}

func (b *binder) newGeneratedSymbol(kind js_ast.SymbolKind, name string) ast.Ref {
	ref := b.newSymbol(kind, name)
	b.symbols[ref.InnerIndex].Flags |= js_ast.IsGenerated
	return ref
}

func (b *binder) pushScope(kind js_ast.ScopeKind) {
	parent := b.currentScope
	scope := &js_ast.Scope{
		Kind:     kind,
		Parent:   parent,
		Members:  make(map[string]js_ast.ScopeMember),
		LabelRef: ast.InvalidRef,
	}
	if parent != nil {
		parent.Children = append(parent.Children, scope)
	}
	b.currentScope = scope
}

func (b *binder) popScope() {
	b.currentScope = b.currentScope.Parent
}

func (b *binder) loadNameFromRef(ref ast.Ref) string {
	if ref.SourceIndex != 0x80000000 {
		panic("Internal error: invalid symbol reference")
	}
	return b.allocatedNames[ref.InnerIndex]
}

func (b *binder) follow(ref ast.Ref) ast.Ref {
	for {
		link := b.symbols[ref.InnerIndex].Link
		if link == ast.InvalidRef {
			return ref
		}
		ref = link
	}
}

// Names that are never declared become unbound symbols in the module scope
// so that every use of the same global shares one symbol.
func (b *binder) findSymbol(loc logger.Loc, name string) ast.Ref {
	for s := b.currentScope; s != nil; s = s.Parent {
		if member, ok := s.Members[name]; ok {
			return b.follow(member.Ref)
		}
	}

	ref := b.newSymbol(js_ast.SymbolUnbound, name)
	b.moduleScope.Members[name] = js_ast.ScopeMember{Ref: ref, Loc: loc}
	return ref
}

func (b *binder) findLabelSymbol(loc logger.Loc, name string) (ref ast.Ref, isLoop bool) {
	for s := b.currentScope; s != nil && !s.Kind.StopsHoisting(); s = s.Parent {
		if s.Kind == js_ast.ScopeLabel && b.symbols[s.LabelRef.InnerIndex].OriginalName == name {
			return s.LabelRef, s.LabelStmtIsLoop
		}
	}

	r := js_lexer.RangeOfIdentifier(b.source, loc)
	b.addRangeError(r, fmt.Sprintf("There is no containing label named %q", name))
	return b.newSymbol(js_ast.SymbolUnbound, name), false
}

func canMergeSymbols(existing js_ast.SymbolKind, new js_ast.SymbolKind) bool {
	// "var x; var x" and "var x; function x() {}"
	if existing.IsHoisted() && new.IsHoisted() {
		return true
	}

	// "function f(arguments) {}" and "function f() { var arguments }"
	if existing == js_ast.SymbolArguments {
		return true
	}

	// "try {} catch (e) { var e }"
	if existing == js_ast.SymbolCatchIdentifier && new == js_ast.SymbolHoisted {
		return true
	}

	return false
}

func (b *binder) declareSymbol(kind js_ast.SymbolKind, loc logger.Loc, name string) ast.Ref {
	ref := b.newSymbol(kind, name)
	scope := b.currentScope

	if existing, ok := scope.Members[name]; ok {
		existingRef := b.follow(existing.Ref)
		symbol := &b.symbols[existingRef.InnerIndex]
		switch {
		case symbol.Kind == js_ast.SymbolUnbound:
			// A global that turned out to be declared later in the same scope
			symbol.Link = ref

		case symbol.Kind == js_ast.SymbolArguments:
			// The implicit "arguments" symbol is replaced by the declaration

		case canMergeSymbols(symbol.Kind, kind):
			if kind == js_ast.SymbolHoistedFunction {
				symbol.Kind = kind
			}
			b.symbols[ref.InnerIndex].Link = existingRef
			return existingRef

		default:
			r := js_lexer.RangeOfIdentifier(b.source, loc)
			b.addRangeError(r, fmt.Sprintf("%q has already been declared", name))
			return existingRef
		}
	}
	scope.Members[name] = js_ast.ScopeMember{Ref: ref, Loc: loc}

	// "var" declarations are hoisted out of blocks into the enclosing function
	// or module. Function declarations stay in their block like "let".
	if kind == js_ast.SymbolHoisted {
		for s := scope; !s.Kind.StopsHoisting(); {
			s = s.Parent
			existing, ok := s.Members[name]
			if !ok {
				s.Members[name] = js_ast.ScopeMember{Ref: ref, Loc: loc}
				continue
			}

			existingRef := b.follow(existing.Ref)
			symbol := &b.symbols[existingRef.InnerIndex]
			switch {
			case symbol.Kind == js_ast.SymbolUnbound:
				symbol.Link = ref
				s.Members[name] = js_ast.ScopeMember{Ref: ref, Loc: loc}
				continue

			case symbol.Kind == js_ast.SymbolCatchIdentifier:
				// Hoisting stops at a catch binding with the same name
				b.symbols[ref.InnerIndex].Link = existingRef
				return existingRef

			case symbol.Kind.IsHoisted() || symbol.Kind == js_ast.SymbolArguments:
				b.symbols[ref.InnerIndex].Link = existingRef
				return existingRef

			default:
				r := js_lexer.RangeOfIdentifier(b.source, loc)
				b.addRangeError(r, fmt.Sprintf("%q has already been declared", name))
				return existingRef
			}
		}
	}

	return ref
}

func (b *binder) recordExport(loc logger.Loc, alias string) {
	if _, ok := b.exportAliases[alias]; ok {
		b.addError(loc, fmt.Sprintf("Multiple exports with the same name %q", alias))
		return
	}
	b.exportAliases[alias] = loc
}

func (b *binder) markExported(ref ast.Ref) {
	b.symbols[ref.InnerIndex].Flags |= js_ast.IsExported
}

func (b *binder) declareBinding(kind js_ast.SymbolKind, binding js_ast.Binding) {
	js_ast.ForEachIdentifierBinding(binding, func(loc logger.Loc, id *js_ast.BIdentifier) {
		id.Ref = b.declareSymbol(kind, loc, b.loadNameFromRef(id.Ref))
	})
}

func localKindToSymbolKind(kind js_ast.LocalKind) js_ast.SymbolKind {
	switch kind {
	case js_ast.LocalVar:
		return js_ast.SymbolHoisted
	case js_ast.LocalConst:
		return js_ast.SymbolConst
	default:
		return js_ast.SymbolOther
	}
}

func (b *binder) declareAndVisitStmts(stmts []js_ast.Stmt) []js_ast.Stmt {
	for _, stmt := range stmts {
		b.declareStmt(stmt)
	}
	for _, stmt := range stmts {
		b.visitStmt(stmt)
	}
	return stmts
}

// Statements in a position that only allows a single statement, such as the
// body of an "if", still declare their own names
func (b *binder) declareAndVisitStmt(stmt js_ast.Stmt) {
	b.declareStmt(stmt)
	b.visitStmt(stmt)
}

func (b *binder) declareStmt(stmt js_ast.Stmt) {
	switch s := stmt.Data.(type) {
	case *js_ast.SImport:
		if s.DefaultName != nil {
			s.DefaultName.Ref = b.declareSymbol(js_ast.SymbolImport, s.DefaultName.Loc, b.loadNameFromRef(s.DefaultName.Ref))
		}
		if s.StarNameLoc != nil {
			s.NamespaceRef = b.declareSymbol(js_ast.SymbolImport, *s.StarNameLoc, b.loadNameFromRef(s.NamespaceRef))
		}
		if s.Items != nil {
			for i := range *s.Items {
				item := &(*s.Items)[i]
				item.Name.Ref = b.declareSymbol(js_ast.SymbolImport, item.Name.Loc, b.loadNameFromRef(item.Name.Ref))
			}
		}

	case *js_ast.SFunction:
		if s.Fn.Name != nil {
			name := b.loadNameFromRef(s.Fn.Name.Ref)
			s.Fn.Name.Ref = b.declareSymbol(js_ast.SymbolHoistedFunction, s.Fn.Name.Loc, name)
			if s.IsExport {
				b.markExported(s.Fn.Name.Ref)
				b.recordExport(s.Fn.Name.Loc, name)
			}
		}

	case *js_ast.SClass:
		if s.Class.Name != nil {
			name := b.loadNameFromRef(s.Class.Name.Ref)
			s.Class.Name.Ref = b.declareSymbol(js_ast.SymbolClass, s.Class.Name.Loc, name)
			if s.IsExport {
				b.markExported(s.Class.Name.Ref)
				b.recordExport(s.Class.Name.Loc, name)
			}
		}

	case *js_ast.SLocal:
		kind := localKindToSymbolKind(s.Kind)
		for _, decl := range s.Decls {
			b.declareBinding(kind, decl.Binding)
			if s.IsExport {
				js_ast.ForEachIdentifierBinding(decl.Binding, func(loc logger.Loc, id *js_ast.BIdentifier) {
					b.markExported(id.Ref)
					b.recordExport(loc, b.symbols[id.Ref.InnerIndex].OriginalName)
				})
			}
		}

	case *js_ast.SExportDefault:
		switch v := s.Value.Data.(type) {
		case *js_ast.SFunction:
			if v.Fn.Name != nil {
				v.Fn.Name.Ref = b.declareSymbol(js_ast.SymbolHoistedFunction, v.Fn.Name.Loc, b.loadNameFromRef(v.Fn.Name.Ref))
				s.DefaultName.Ref = v.Fn.Name.Ref
			}

		case *js_ast.SClass:
			if v.Class.Name != nil {
				v.Class.Name.Ref = b.declareSymbol(js_ast.SymbolClass, v.Class.Name.Loc, b.loadNameFromRef(v.Class.Name.Ref))
				s.DefaultName.Ref = v.Class.Name.Ref
			}
		}
		if s.DefaultName.Ref.SourceIndex == 0x80000000 {
			s.DefaultName.Ref = b.newGeneratedSymbol(js_ast.SymbolOther, "_default")
		}
		b.markExported(s.DefaultName.Ref)
		b.recordExport(s.DefaultName.Loc, "default")

	case *js_ast.SExportClause:
		for _, item := range s.Items {
			b.recordExport(item.AliasLoc, item.Alias)
		}

	case *js_ast.SExportFrom:
		// These names only exist in the other module, so they are not added to
		// any scope
		for i := range s.Items {
			item := &s.Items[i]
			item.Name.Ref = b.newSymbol(js_ast.SymbolOther, item.OriginalName)
			b.recordExport(item.AliasLoc, item.Alias)
		}

	case *js_ast.SExportStar:
		if s.Alias != nil {
			b.recordExport(s.Alias.Loc, s.Alias.Name)
		}
	}
}

func (b *binder) visitStmt(stmt js_ast.Stmt) {
	switch s := stmt.Data.(type) {
	case *js_ast.SDirective, *js_ast.SEmpty, *js_ast.SDebugger,
		*js_ast.SImport, *js_ast.SExportFrom, *js_ast.SExportStar:

	case *js_ast.SExportClause:
		for i := range s.Items {
			item := &s.Items[i]
			name := b.loadNameFromRef(item.Name.Ref)
			ref := b.findSymbol(item.Name.Loc, name)
			if b.symbols[ref.InnerIndex].Kind == js_ast.SymbolUnbound {
				r := js_lexer.RangeOfIdentifier(b.source, item.Name.Loc)
				b.addRangeError(r, fmt.Sprintf("%q is not declared in this file", name))
			}
			item.Name.Ref = ref
			b.markExported(ref)
		}

	case *js_ast.SExportDefault:
		switch v := s.Value.Data.(type) {
		case *js_ast.SExpr:
			v.Value = b.visitExpr(v.Value)
		case *js_ast.SFunction:
			b.visitFn(&v.Fn)
		case *js_ast.SClass:
			b.visitClass(&v.Class)
		}

	case *js_ast.SExpr:
		s.Value = b.visitExpr(s.Value)

	case *js_ast.SFunction:
		b.visitFn(&s.Fn)

	case *js_ast.SClass:
		b.visitClass(&s.Class)

	case *js_ast.SLocal:
		for i := range s.Decls {
			decl := &s.Decls[i]
			b.visitBinding(decl.Binding)
			if decl.ValueOrNil.Data != nil {
				decl.ValueOrNil = b.visitExpr(decl.ValueOrNil)
			}
		}

	case *js_ast.SLabel:
		b.pushScope(js_ast.ScopeLabel)
		name := b.loadNameFromRef(s.Name.Ref)
		s.Name.Ref = b.newSymbol(js_ast.SymbolLabel, name)
		b.currentScope.LabelRef = s.Name.Ref
		switch s.Stmt.Data.(type) {
		case *js_ast.SFor, *js_ast.SForIn, *js_ast.SForOf, *js_ast.SWhile, *js_ast.SDoWhile:
			b.currentScope.LabelStmtIsLoop = true
		}
		b.visitSingleStmt(s.Stmt)
		b.popScope()

	case *js_ast.SBreak:
		if s.Label != nil {
			name := b.loadNameFromRef(s.Label.Ref)
			s.Label.Ref, _ = b.findLabelSymbol(s.Label.Loc, name)
		}

	case *js_ast.SContinue:
		if s.Label != nil {
			name := b.loadNameFromRef(s.Label.Ref)
			var isLoop bool
			s.Label.Ref, isLoop = b.findLabelSymbol(s.Label.Loc, name)
			if !isLoop && b.symbols[s.Label.Ref.InnerIndex].Kind == js_ast.SymbolLabel {
				r := js_lexer.RangeOfIdentifier(b.source, s.Label.Loc)
				b.addRangeError(r, fmt.Sprintf("Cannot continue to label %q", name))
			}
		}

	case *js_ast.SIf:
		s.Test = b.visitExpr(s.Test)
		b.visitSingleStmt(s.Yes)
		if s.NoOrNil.Data != nil {
			b.visitSingleStmt(s.NoOrNil)
		}

	case *js_ast.SDoWhile:
		b.visitSingleStmt(s.Body)
		s.Test = b.visitExpr(s.Test)

	case *js_ast.SWhile:
		s.Test = b.visitExpr(s.Test)
		b.visitSingleStmt(s.Body)

	case *js_ast.SWith:
		s.Value = b.visitExpr(s.Value)
		b.pushScope(js_ast.ScopeWith)
		b.visitSingleStmt(s.Body)
		b.popScope()

	case *js_ast.SFor:
		b.pushScope(js_ast.ScopeBlock)
		if s.InitOrNil.Data != nil {
			b.declareAndVisitStmt(s.InitOrNil)
		}
		if s.TestOrNil.Data != nil {
			s.TestOrNil = b.visitExpr(s.TestOrNil)
		}
		if s.UpdateOrNil.Data != nil {
			s.UpdateOrNil = b.visitExpr(s.UpdateOrNil)
		}
		b.visitSingleStmt(s.Body)
		b.popScope()

	case *js_ast.SForIn:
		b.pushScope(js_ast.ScopeBlock)
		b.declareAndVisitStmt(s.Init)
		s.Value = b.visitExpr(s.Value)
		b.visitSingleStmt(s.Body)
		b.popScope()

	case *js_ast.SForOf:
		b.pushScope(js_ast.ScopeBlock)
		b.declareAndVisitStmt(s.Init)
		s.Value = b.visitExpr(s.Value)
		b.visitSingleStmt(s.Body)
		b.popScope()

	case *js_ast.SBlock:
		b.pushScope(js_ast.ScopeBlock)
		s.Stmts = b.declareAndVisitStmts(s.Stmts)
		b.popScope()

	case *js_ast.STry:
		b.pushScope(js_ast.ScopeBlock)
		s.Body = b.declareAndVisitStmts(s.Body)
		b.popScope()

		if s.Catch != nil {
			b.pushScope(js_ast.ScopeCatchBinding)
			if s.Catch.BindingOrNil.Data != nil {
				if id, ok := s.Catch.BindingOrNil.Data.(*js_ast.BIdentifier); ok {
					id.Ref = b.declareSymbol(js_ast.SymbolCatchIdentifier, s.Catch.BindingOrNil.Loc, b.loadNameFromRef(id.Ref))
				} else {
					b.declareBinding(js_ast.SymbolOther, s.Catch.BindingOrNil)
				}
				b.visitBinding(s.Catch.BindingOrNil)
			}
			b.pushScope(js_ast.ScopeBlock)
			s.Catch.Body = b.declareAndVisitStmts(s.Catch.Body)
			b.popScope()
			b.popScope()
		}

		if s.Finally != nil {
			b.pushScope(js_ast.ScopeBlock)
			s.Finally.Stmts = b.declareAndVisitStmts(s.Finally.Stmts)
			b.popScope()
		}

	case *js_ast.SSwitch:
		s.Test = b.visitExpr(s.Test)
		b.pushScope(js_ast.ScopeBlock)

		// All cases share one scope
		for _, c := range s.Cases {
			for _, stmt := range c.Body {
				b.declareStmt(stmt)
			}
		}
		for i := range s.Cases {
			c := &s.Cases[i]
			if c.ValueOrNil.Data != nil {
				c.ValueOrNil = b.visitExpr(c.ValueOrNil)
			}
			for _, stmt := range c.Body {
				b.visitStmt(stmt)
			}
		}
		b.popScope()

	case *js_ast.SReturn:
		if s.ValueOrNil.Data != nil {
			s.ValueOrNil = b.visitExpr(s.ValueOrNil)
		}

	case *js_ast.SThrow:
		s.Value = b.visitExpr(s.Value)

	default:
		panic(fmt.Sprintf("Unexpected statement of type %T", stmt.Data))
	}
}

func (b *binder) visitSingleStmt(stmt js_ast.Stmt) {
	if _, ok := stmt.Data.(*js_ast.SBlock); ok {
		b.visitStmt(stmt)
		return
	}

	// "if (a) var b = 1" still needs a scope for "b" to be hoisted out of
	b.pushScope(js_ast.ScopeBlock)
	b.declareAndVisitStmt(stmt)
	b.popScope()
}

func (b *binder) visitBinding(binding js_ast.Binding) {
	switch d := binding.Data.(type) {
	case *js_ast.BMissing, *js_ast.BIdentifier:

	case *js_ast.BArray:
		for i := range d.Items {
			item := &d.Items[i]
			b.visitBinding(item.Binding)
			if item.DefaultValueOrNil.Data != nil {
				item.DefaultValueOrNil = b.visitExpr(item.DefaultValueOrNil)
			}
		}

	case *js_ast.BObject:
		for i := range d.Properties {
			property := &d.Properties[i]
			if property.IsComputed {
				property.Key = b.visitExpr(property.Key)
			}
			b.visitBinding(property.Value)
			if property.DefaultValueOrNil.Data != nil {
				property.DefaultValueOrNil = b.visitExpr(property.DefaultValueOrNil)
			}
		}

	default:
		panic("Internal error")
	}
}

func (b *binder) visitArgs(args []js_ast.Arg) {
	for _, arg := range args {
		b.declareBinding(js_ast.SymbolHoisted, arg.Binding)
	}
	for i := range args {
		arg := &args[i]
		b.visitBinding(arg.Binding)
		if arg.DefaultOrNil.Data != nil {
			arg.DefaultOrNil = b.visitExpr(arg.DefaultOrNil)
		}
	}
}

// The name of a function statement has already been declared in the
// enclosing scope. Only the names of function expressions are not.
func (b *binder) visitFn(fn *js_ast.Fn) {
	b.pushScope(js_ast.ScopeFunctionArgs)
	fn.ArgumentsRef = b.newSymbol(js_ast.SymbolArguments, "arguments")
	b.currentScope.Members["arguments"] = js_ast.ScopeMember{Ref: fn.ArgumentsRef, Loc: fn.Body.Loc}
	b.visitArgs(fn.Args)

	b.pushScope(js_ast.ScopeFunctionBody)
	fn.Body.Stmts = b.declareAndVisitStmts(fn.Body.Stmts)
	b.popScope()
	b.popScope()
}

func (b *binder) visitFnExpr(fn *js_ast.Fn) {
	if fn.Name == nil {
		b.visitFn(fn)
		return
	}

	b.pushScope(js_ast.ScopeFunctionName)
	fn.Name.Ref = b.declareSymbol(js_ast.SymbolHoistedFunction, fn.Name.Loc, b.loadNameFromRef(fn.Name.Ref))
	b.visitFn(fn)
	b.popScope()
}

func (b *binder) visitClass(class *js_ast.Class) {
	if class.ExtendsOrNil.Data != nil {
		class.ExtendsOrNil = b.visitExpr(class.ExtendsOrNil)
	}

	b.pushScope(js_ast.ScopeClassBody)
	for i := range class.Properties {
		property := &class.Properties[i]
		if property.IsComputed {
			property.Key = b.visitExpr(property.Key)
		}
		if property.ValueOrNil.Data != nil {
			property.ValueOrNil = b.visitExpr(property.ValueOrNil)
		}
		if property.InitializerOrNil.Data != nil {
			property.InitializerOrNil = b.visitExpr(property.InitializerOrNil)
		}
	}
	b.popScope()
}

func (b *binder) visitClassExpr(class *js_ast.Class) {
	if class.Name == nil {
		b.visitClass(class)
		return
	}

	b.pushScope(js_ast.ScopeClassName)
	class.Name.Ref = b.declareSymbol(js_ast.SymbolClass, class.Name.Loc, b.loadNameFromRef(class.Name.Ref))
	b.visitClass(class)
	b.popScope()
}

func (b *binder) checkAssignTarget(target js_ast.Expr) {
	if id, ok := target.Data.(*js_ast.EImportIdentifier); ok {
		r := js_lexer.RangeOfIdentifier(b.source, target.Loc)
		b.addRangeError(r, fmt.Sprintf("Cannot assign to import %q", b.symbols[id.Ref.InnerIndex].OriginalName))
	}
}

func (b *binder) visitExprs(exprs []js_ast.Expr) {
	for i, expr := range exprs {
		exprs[i] = b.visitExpr(expr)
	}
}

func (b *binder) visitExpr(expr js_ast.Expr) js_ast.Expr {
	switch e := expr.Data.(type) {
	case *js_ast.ENull, *js_ast.ESuper, *js_ast.EBoolean, *js_ast.EUndefined,
		*js_ast.EThis, *js_ast.ENewTarget, *js_ast.EImportMeta, *js_ast.EMissing,
		*js_ast.EPrivateIdentifier, *js_ast.ENumber, *js_ast.EBigInt,
		*js_ast.EString, *js_ast.ERegExp:

	case *js_ast.EIdentifier:
		ref := b.findSymbol(expr.Loc, b.loadNameFromRef(e.Ref))

		// References to imports are tracked separately because they may be
		// printed as a property access on the namespace of the import
		if b.symbols[ref.InnerIndex].Kind == js_ast.SymbolImport {
			return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EImportIdentifier{Ref: ref}}
		}
		e.Ref = ref

	case *js_ast.EImportIdentifier:
		panic("Internal error")

	case *js_ast.EArray:
		b.visitExprs(e.Items)

	case *js_ast.EUnary:
		e.Value = b.visitExpr(e.Value)
		switch e.Op {
		case js_ast.UnOpPreDec, js_ast.UnOpPreInc, js_ast.UnOpPostDec, js_ast.UnOpPostInc:
			b.checkAssignTarget(e.Value)
		}

	case *js_ast.EBinary:
		e.Left = b.visitExpr(e.Left)
		e.Right = b.visitExpr(e.Right)
		if e.Op >= js_ast.BinOpAssign {
			b.checkAssignTarget(e.Left)
		}

	case *js_ast.ENew:
		e.Target = b.visitExpr(e.Target)
		b.visitExprs(e.Args)

	case *js_ast.ECall:
		e.Target = b.visitExpr(e.Target)
		b.visitExprs(e.Args)

	case *js_ast.EDot:
		e.Target = b.visitExpr(e.Target)

	case *js_ast.EIndex:
		e.Target = b.visitExpr(e.Target)
		e.Index = b.visitExpr(e.Index)

	case *js_ast.EArrow:
		b.pushScope(js_ast.ScopeFunctionArgs)
		b.visitArgs(e.Args)
		b.pushScope(js_ast.ScopeFunctionBody)
		e.Body.Stmts = b.declareAndVisitStmts(e.Body.Stmts)
		b.popScope()
		b.popScope()

	case *js_ast.EFunction:
		b.visitFnExpr(&e.Fn)

	case *js_ast.EClass:
		b.visitClassExpr(&e.Class)

	case *js_ast.EObject:
		for i := range e.Properties {
			property := &e.Properties[i]
			if property.IsComputed {
				property.Key = b.visitExpr(property.Key)
			}
			if property.ValueOrNil.Data != nil {
				property.ValueOrNil = b.visitExpr(property.ValueOrNil)
			}
			if property.InitializerOrNil.Data != nil {
				property.InitializerOrNil = b.visitExpr(property.InitializerOrNil)
			}
		}

	case *js_ast.ESpread:
		e.Value = b.visitExpr(e.Value)

	case *js_ast.ETemplate:
		if e.TagOrNil.Data != nil {
			e.TagOrNil = b.visitExpr(e.TagOrNil)
		}
		for i := range e.Parts {
			e.Parts[i].Value = b.visitExpr(e.Parts[i].Value)
		}

	case *js_ast.EAwait:
		e.Value = b.visitExpr(e.Value)

	case *js_ast.EYield:
		if e.ValueOrNil.Data != nil {
			e.ValueOrNil = b.visitExpr(e.ValueOrNil)
		}

	case *js_ast.EIf:
		e.Test = b.visitExpr(e.Test)
		e.Yes = b.visitExpr(e.Yes)
		e.No = b.visitExpr(e.No)

	case *js_ast.EImportCall:
		e.Expr = b.visitExpr(e.Expr)
		if e.OptionsOrNil.Data != nil {
			e.OptionsOrNil = b.visitExpr(e.OptionsOrNil)
		}

	default:
		panic(fmt.Sprintf("Unexpected expression of type %T", expr.Data))
	}

	return expr
}

func (b *binder) toAST(stmts []js_ast.Stmt) js_ast.AST {
	// Every name the user wrote is reserved, even the ones that are never
	// declared. Generated names must not shadow them.
	usedNames := make(map[string]bool)
	for _, symbol := range b.symbols {
		if !symbol.Flags.Has(js_ast.IsGenerated) {
			usedNames[symbol.OriginalName] = true
		}
	}

	var directives []string
	for _, stmt := range stmts {
		directive, ok := stmt.Data.(*js_ast.SDirective)
		if !ok {
			break
		}
		directives = append(directives, helpers.UTF16ToString(directive.Value))
	}

	return js_ast.AST{
		Directives:    directives,
		Stmts:         stmts,
		Symbols:       b.symbols,
		ModuleScope:   b.moduleScope,
		ImportRecords: b.importRecords,
		UsedNames:     usedNames,
	}
}
