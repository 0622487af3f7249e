package js_parser

// This parser does two passes:
//
//  1. Parse the source into an AST. Identifiers are not bound yet. Their
//     names are temporarily stashed in the refs.
//
//  2. Visit each node in the AST, create scopes, declare symbols and bind
//     every identifier to a symbol. This happens in the binder.
//
// Binding in a separate pass is necessary because of the grammar ambiguities
// around arrow functions. It's impossible to know whether "(a, b)" is an
// expression or a list of arguments until the "=>" token is reached.

import (
	"fmt"

	"github.com/globalmod/globalmod/internal/ast"
	"github.com/globalmod/globalmod/internal/config"
	"github.com/globalmod/globalmod/internal/helpers"
	"github.com/globalmod/globalmod/internal/js_ast"
	"github.com/globalmod/globalmod/internal/js_lexer"
	"github.com/globalmod/globalmod/internal/logger"
)

type fnOpts struct {
	allowAwait bool
	allowYield bool
}

type parser struct {
	log            logger.Log
	source         logger.Source
	options        config.Options
	lexer          js_lexer.Lexer
	importRecords  []ast.ImportRecord
	allowIn        bool
	currentFnOpts  fnOpts
	allocatedNames []string

	// The first "import" and "export" keywords decide whether this file is a
	// module. Only the first of each is remembered.
	importKeyword logger.Range
	exportKeyword logger.Range
}

func (p *parser) addError(loc logger.Loc, text string) {
	p.log.AddError(&p.source, loc, text)
}

func (p *parser) addRangeError(r logger.Range, text string) {
	p.log.AddRangeError(&p.source, r, text)
}

// The name is temporarily stored in the ref until the binding pass happens,
// at which point a symbol will be generated and the ref will point to the
// symbol instead. The top bit of the source index marks a ref that still
// holds a name so that forgetting to call "loadNameFromRef" is caught.
func (p *parser) storeNameInRef(name string) ast.Ref {
	ref := ast.Ref{SourceIndex: 0x80000000, InnerIndex: uint32(len(p.allocatedNames))}
	p.allocatedNames = append(p.allocatedNames, name)
	return ref
}

func (p *parser) markImportKeyword(r logger.Range) {
	if p.importKeyword.Len == 0 {
		p.importKeyword = r
	}
}

func (p *parser) markExportKeyword(r logger.Range) {
	if p.exportKeyword.Len == 0 {
		p.exportKeyword = r
	}
}

func (p *parser) addImportRecord(kind ast.ImportKind, r logger.Range, path string) uint32 {
	index := uint32(len(p.importRecords))
	p.importRecords = append(p.importRecords, ast.ImportRecord{
		Kind:  kind,
		Range: r,
		Path:  path,
	})
	return index
}

// Due to ES6 destructuring patterns, there are many cases where it's
// impossible to distinguish between an array or object literal and a
// destructuring assignment until we hit the "=" operator later on.
// This object defers errors about being in one state or the other
// until we discover which state we're in.
type deferredErrors struct {
	// These are errors for expressions
	invalidExprDefaultValue logger.Range

	// These are errors for destructuring patterns
	invalidBindingCommaAfterSpread logger.Range
}

func (from *deferredErrors) mergeInto(to *deferredErrors) {
	if from.invalidExprDefaultValue.Len > 0 {
		to.invalidExprDefaultValue = from.invalidExprDefaultValue
	}
	if from.invalidBindingCommaAfterSpread.Len > 0 {
		to.invalidBindingCommaAfterSpread = from.invalidBindingCommaAfterSpread
	}
}

type propertyContext int

const (
	propertyContextObject propertyContext = iota
	propertyContextClass
)

type propertyOpts struct {
	isAsync     bool
	isGenerator bool
	isStatic    bool
}

func (p *parser) parseProperty(context propertyContext, kind js_ast.PropertyKind, opts propertyOpts, errors *deferredErrors) js_ast.Property {
	var key js_ast.Expr
	isComputed := false

	switch p.lexer.Token {
	case js_lexer.TNumericLiteral:
		key = js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.ENumber{Value: p.lexer.Number}}
		p.lexer.Next()

	case js_lexer.TStringLiteral:
		key = js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.EString{Value: p.lexer.StringLiteral}}
		p.lexer.Next()

	case js_lexer.TBigIntegerLiteral:
		key = js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.EBigInt{Value: p.lexer.Identifier}}
		p.lexer.Next()

	case js_lexer.TPrivateIdentifier:
		if context != propertyContextClass {
			p.lexer.Unexpected()
		}
		key = js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.EPrivateIdentifier{Name: p.lexer.Identifier}}
		p.lexer.Next()

	case js_lexer.TOpenBracket:
		isComputed = true
		p.lexer.Next()
		key = p.parseExprWithAllowIn(js_ast.LComma)
		p.lexer.Expect(js_lexer.TCloseBracket)

	case js_lexer.TAsterisk:
		if kind != js_ast.PropertyNormal || opts.isGenerator {
			p.lexer.Unexpected()
		}
		p.lexer.Next()
		opts.isGenerator = true
		return p.parseProperty(context, js_ast.PropertyNormal, opts, errors)

	default:
		name := p.lexer.Identifier
		raw := p.lexer.Raw()
		loc := p.lexer.Loc()
		if !p.lexer.IsIdentifierOrKeyword() {
			p.lexer.Expect(js_lexer.TIdentifier)
		}
		p.lexer.Next()

		// Support contextual keywords
		if kind == js_ast.PropertyNormal && !opts.isGenerator {
			// Does the following token look like a key?
			couldBeModifierKeyword := p.lexer.IsIdentifierOrKeyword()
			if !couldBeModifierKeyword {
				switch p.lexer.Token {
				case js_lexer.TOpenBracket, js_lexer.TNumericLiteral, js_lexer.TStringLiteral,
					js_lexer.TAsterisk, js_lexer.TPrivateIdentifier, js_lexer.TBigIntegerLiteral:
					couldBeModifierKeyword = true
				}
			}

			// If so, check for a modifier keyword
			if couldBeModifierKeyword {
				switch raw {
				case "get":
					if !opts.isAsync {
						return p.parseProperty(context, js_ast.PropertyGet, opts, nil)
					}

				case "set":
					if !opts.isAsync {
						return p.parseProperty(context, js_ast.PropertySet, opts, nil)
					}

				case "async":
					if !opts.isAsync && !p.lexer.HasNewlineBefore {
						opts.isAsync = true
						return p.parseProperty(context, kind, opts, nil)
					}

				case "static":
					if !opts.isStatic && !opts.isAsync && context == propertyContextClass {
						opts.isStatic = true
						return p.parseProperty(context, kind, opts, nil)
					}
				}
			}
		}

		key = js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: helpers.StringToUTF16(name)}}

		// Parse a shorthand property
		if context == propertyContextObject && kind == js_ast.PropertyNormal && !opts.isAsync &&
			p.lexer.Token != js_lexer.TColon && p.lexer.Token != js_lexer.TOpenParen && !opts.isGenerator {
			if !js_ast.IsIdentifier(name) || js_lexer.Keywords[name] != 0 {
				p.addRangeError(logger.Range{Loc: loc, Len: int32(len(raw))}, fmt.Sprintf("Unexpected %q", raw))
				panic(js_lexer.LexerPanic{})
			}
			ref := p.storeNameInRef(name)
			value := js_ast.Expr{Loc: key.Loc, Data: &js_ast.EIdentifier{Ref: ref}}

			// Destructuring patterns have an optional default value
			var initializerOrNil js_ast.Expr
			if errors != nil && p.lexer.Token == js_lexer.TEquals {
				errors.invalidExprDefaultValue = p.lexer.Range()
				p.lexer.Next()
				initializerOrNil = p.parseExpr(js_ast.LComma)
			}

			return js_ast.Property{
				Kind:             kind,
				Key:              key,
				ValueOrNil:       value,
				InitializerOrNil: initializerOrNil,
				WasShorthand:     true,
			}
		}
	}

	// Parse a field
	if context == propertyContextClass && kind == js_ast.PropertyNormal &&
		!opts.isAsync && !opts.isGenerator && p.lexer.Token != js_lexer.TOpenParen {
		var initializerOrNil js_ast.Expr
		if p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()
			initializerOrNil = p.parseExpr(js_ast.LComma)
		}
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Property{
			Kind:             kind,
			IsComputed:       isComputed,
			IsStatic:         opts.isStatic,
			Key:              key,
			InitializerOrNil: initializerOrNil,
		}
	}

	// Parse a method expression
	if p.lexer.Token == js_lexer.TOpenParen || kind != js_ast.PropertyNormal ||
		context == propertyContextClass || opts.isAsync || opts.isGenerator {
		loc := p.lexer.Loc()
		fn := p.parseFn(nil, fnOpts{
			allowAwait: opts.isAsync,
			allowYield: opts.isGenerator,
		})
		return js_ast.Property{
			Kind:       kind,
			IsComputed: isComputed,
			IsMethod:   true,
			IsStatic:   opts.isStatic,
			Key:        key,
			ValueOrNil: js_ast.Expr{Loc: loc, Data: &js_ast.EFunction{Fn: fn}},
		}
	}

	p.lexer.Expect(js_lexer.TColon)
	value := p.parseExprOrBindings(js_ast.LComma, errors)
	return js_ast.Property{
		Kind:       kind,
		IsComputed: isComputed,
		Key:        key,
		ValueOrNil: value,
	}
}

func (p *parser) parsePropertyBinding() js_ast.PropertyBinding {
	var key js_ast.Expr
	isComputed := false

	switch p.lexer.Token {
	case js_lexer.TDotDotDot:
		p.lexer.Next()
		value := js_ast.Binding{Loc: p.lexer.Loc(), Data: &js_ast.BIdentifier{Ref: p.storeNameInRef(p.lexer.Identifier)}}
		p.lexer.Expect(js_lexer.TIdentifier)
		return js_ast.PropertyBinding{
			IsSpread: true,
			Value:    value,
		}

	case js_lexer.TNumericLiteral:
		key = js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.ENumber{Value: p.lexer.Number}}
		p.lexer.Next()

	case js_lexer.TStringLiteral:
		key = js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.EString{Value: p.lexer.StringLiteral}}
		p.lexer.Next()

	case js_lexer.TBigIntegerLiteral:
		key = js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.EBigInt{Value: p.lexer.Identifier}}
		p.lexer.Next()

	case js_lexer.TOpenBracket:
		isComputed = true
		p.lexer.Next()
		key = p.parseExprWithAllowIn(js_ast.LComma)
		p.lexer.Expect(js_lexer.TCloseBracket)

	default:
		name := p.lexer.Identifier
		loc := p.lexer.Loc()
		isIdentifier := p.lexer.Token == js_lexer.TIdentifier
		if !p.lexer.IsIdentifierOrKeyword() {
			p.lexer.Expect(js_lexer.TIdentifier)
		}
		p.lexer.Next()
		key = js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: helpers.StringToUTF16(name)}}

		if p.lexer.Token != js_lexer.TColon && p.lexer.Token != js_lexer.TOpenParen {
			if !isIdentifier {
				p.addRangeError(js_lexer.RangeOfIdentifier(p.source, loc), fmt.Sprintf("Unexpected %q", name))
				panic(js_lexer.LexerPanic{})
			}
			ref := p.storeNameInRef(name)
			value := js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Ref: ref}}

			var defaultValueOrNil js_ast.Expr
			if p.lexer.Token == js_lexer.TEquals {
				p.lexer.Next()
				defaultValueOrNil = p.parseExprWithAllowIn(js_ast.LComma)
			}

			return js_ast.PropertyBinding{
				Key:               key,
				Value:             value,
				DefaultValueOrNil: defaultValueOrNil,
			}
		}
	}

	p.lexer.Expect(js_lexer.TColon)
	value := p.parseBinding()

	var defaultValueOrNil js_ast.Expr
	if p.lexer.Token == js_lexer.TEquals {
		p.lexer.Next()
		defaultValueOrNil = p.parseExprWithAllowIn(js_ast.LComma)
	}

	return js_ast.PropertyBinding{
		IsComputed:        isComputed,
		Key:               key,
		Value:             value,
		DefaultValueOrNil: defaultValueOrNil,
	}
}

// "in" expressions are allowed inside brackets, parentheses and default
// values even when the enclosing "for" initializer forbids them
func (p *parser) parseExprWithAllowIn(level js_ast.L) js_ast.Expr {
	oldAllowIn := p.allowIn
	p.allowIn = true
	expr := p.parseExpr(level)
	p.allowIn = oldAllowIn
	return expr
}

// This assumes that the "=>" token has already been parsed by the caller
func (p *parser) parseArrowBody(opts fnOpts) (body js_ast.FnBody, preferExpr bool) {
	body.Loc = p.lexer.Loc()
	if p.lexer.Token == js_lexer.TOpenBrace {
		body.Stmts = p.parseFnBodyStmts(opts)
		return
	}

	oldFnOpts := p.currentFnOpts
	p.currentFnOpts = opts
	expr := p.parseExpr(js_ast.LComma)
	p.currentFnOpts = oldFnOpts
	body.Stmts = []js_ast.Stmt{{Loc: expr.Loc, Data: &js_ast.SReturn{ValueOrNil: expr}}}
	preferExpr = true
	return
}

// This parses an expression. This assumes we've already parsed the "async"
// keyword and are currently looking at the following token.
func (p *parser) parseAsyncExpr(asyncRange logger.Range, level js_ast.L) js_ast.Expr {
	loc := asyncRange.Loc

	// "async function() {}"
	if !p.lexer.HasNewlineBefore && p.lexer.Token == js_lexer.TFunction {
		return p.parseFnExpr(loc, true /* isAsync */)
	}

	switch p.lexer.Token {
	// "async => {}"
	case js_lexer.TEqualsGreaterThan:
		p.lexer.Next()
		arg := js_ast.Arg{Binding: js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Ref: p.storeNameInRef("async")}}}
		body, preferExpr := p.parseArrowBody(fnOpts{})
		return js_ast.Expr{Loc: loc, Data: &js_ast.EArrow{Args: []js_ast.Arg{arg}, Body: body, PreferExpr: preferExpr}}

	// "async x => {}"
	case js_lexer.TIdentifier:
		if p.lexer.HasNewlineBefore {
			break
		}
		ref := p.storeNameInRef(p.lexer.Identifier)
		arg := js_ast.Arg{Binding: js_ast.Binding{Loc: p.lexer.Loc(), Data: &js_ast.BIdentifier{Ref: ref}}}
		p.lexer.Next()
		if p.lexer.HasNewlineBefore {
			p.lexer.Unexpected()
		}
		p.lexer.Expect(js_lexer.TEqualsGreaterThan)
		body, preferExpr := p.parseArrowBody(fnOpts{allowAwait: true})
		return js_ast.Expr{Loc: loc, Data: &js_ast.EArrow{
			IsAsync:    true,
			Args:       []js_ast.Arg{arg},
			Body:       body,
			PreferExpr: preferExpr,
		}}

	// "async()"
	// "async () => {}"
	case js_lexer.TOpenParen:
		p.lexer.Next()
		return p.parseParenExpr(loc, level, true /* isAsync */)
	}

	// "async"
	// "async + 1"
	expr := js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Ref: p.storeNameInRef("async")}}
	return p.parseSuffix(expr, level)
}

func (p *parser) parseFnExpr(loc logger.Loc, isAsync bool) js_ast.Expr {
	p.lexer.Next()
	isGenerator := p.lexer.Token == js_lexer.TAsterisk
	if isGenerator {
		p.lexer.Next()
	}
	var name *js_ast.LocRef

	if p.lexer.Token == js_lexer.TIdentifier {
		name = &js_ast.LocRef{Loc: p.lexer.Loc(), Ref: p.storeNameInRef(p.lexer.Identifier)}
		p.lexer.Next()
	}

	fn := p.parseFn(name, fnOpts{
		allowAwait: isAsync,
		allowYield: isGenerator,
	})
	return js_ast.Expr{Loc: loc, Data: &js_ast.EFunction{Fn: fn}}
}

func (p *parser) logExprErrors(errors *deferredErrors) {
	if errors.invalidExprDefaultValue.Len > 0 {
		p.addRangeError(errors.invalidExprDefaultValue, "Unexpected \"=\"")
		panic(js_lexer.LexerPanic{})
	}
}

func (p *parser) logBindingErrors(errors *deferredErrors) {
	if errors.invalidBindingCommaAfterSpread.Len > 0 {
		p.addRangeError(errors.invalidBindingCommaAfterSpread, "Unexpected \",\" after rest pattern")
		panic(js_lexer.LexerPanic{})
	}
}

// This assumes that the open parenthesis has already been parsed by the caller
func (p *parser) parseParenExpr(loc logger.Loc, level js_ast.L, isAsync bool) js_ast.Expr {
	items := []js_ast.Expr{}
	errors := deferredErrors{}
	spreadRange := logger.Range{}

	// "in" expressions are allowed inside parentheses
	oldAllowIn := p.allowIn
	p.allowIn = true

	// Scan over the comma-separated arguments or expressions
	for p.lexer.Token != js_lexer.TCloseParen {
		itemLoc := p.lexer.Loc()
		isSpread := p.lexer.Token == js_lexer.TDotDotDot

		if isSpread {
			spreadRange = p.lexer.Range()
			p.lexer.Next()
		}

		// We don't know yet whether these are arguments or expressions, so parse
		// a superset of the expression syntax. Errors about things that are valid
		// in one but not in the other are deferred.
		item := p.parseExprOrBindings(js_ast.LComma, &errors)

		if isSpread {
			item = js_ast.Expr{Loc: itemLoc, Data: &js_ast.ESpread{Value: item}}
		}

		items = append(items, item)
		if p.lexer.Token != js_lexer.TComma {
			break
		}

		// Spread arguments must come last. If there's a spread argument followed
		// by a comma, throw an error if we use these expressions as bindings.
		if isSpread {
			errors.invalidBindingCommaAfterSpread = p.lexer.Range()
		}

		// Eat the comma token
		p.lexer.Next()
	}

	// The parenthetical construct must end with a close parenthesis
	p.lexer.Expect(js_lexer.TCloseParen)
	p.allowIn = oldAllowIn

	// Are these arguments to an arrow function?
	if p.lexer.Token == js_lexer.TEqualsGreaterThan {
		if p.lexer.HasNewlineBefore {
			p.lexer.Unexpected()
		}
		p.logBindingErrors(&errors)
		p.lexer.Next()
		args := []js_ast.Arg{}
		for _, item := range items {
			if spread, ok := item.Data.(*js_ast.ESpread); ok {
				item = spread.Value
			}
			binding, initializerOrNil := p.convertExprToBindingAndInitializer(item)
			args = append(args, js_ast.Arg{Binding: binding, DefaultOrNil: initializerOrNil})
		}
		body, preferExpr := p.parseArrowBody(fnOpts{allowAwait: isAsync})
		return js_ast.Expr{Loc: loc, Data: &js_ast.EArrow{
			IsAsync:    isAsync,
			Args:       args,
			HasRestArg: spreadRange.Len > 0,
			Body:       body,
			PreferExpr: preferExpr,
		}}
	}

	// Are these arguments for a call to a function named "async"?
	if isAsync {
		p.logExprErrors(&errors)
		async := js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Ref: p.storeNameInRef("async")}}
		return p.parseSuffix(js_ast.Expr{Loc: loc, Data: &js_ast.ECall{Target: async, Args: items}}, level)
	}

	// Is this a chain of expressions and comma operators?
	if len(items) > 0 {
		p.logExprErrors(&errors)
		if spreadRange.Len > 0 {
			p.addRangeError(spreadRange, "Unexpected \"...\"")
			panic(js_lexer.LexerPanic{})
		}
		value := js_ast.JoinAllWithComma(items)
		return value
	}

	// Indicate that we expected an arrow function
	p.lexer.Expected(js_lexer.TEqualsGreaterThan)
	return js_ast.Expr{}
}

func (p *parser) convertExprToBindingAndInitializer(expr js_ast.Expr) (binding js_ast.Binding, initializerOrNil js_ast.Expr) {
	if assign, ok := expr.Data.(*js_ast.EBinary); ok && assign.Op == js_ast.BinOpAssign {
		initializerOrNil = assign.Right
		expr = assign.Left
	}
	binding = p.convertExprToBinding(expr)
	return
}

func (p *parser) convertExprToBinding(expr js_ast.Expr) js_ast.Binding {
	switch e := expr.Data.(type) {
	case *js_ast.EMissing:
		return js_ast.Binding{Loc: expr.Loc, Data: js_ast.BMissingShared}

	case *js_ast.EIdentifier:
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BIdentifier{Ref: e.Ref}}

	case *js_ast.EArray:
		items := []js_ast.ArrayBinding{}
		isSpread := false
		for _, item := range e.Items {
			if i, ok := item.Data.(*js_ast.ESpread); ok {
				isSpread = true
				item = i.Value
			}
			binding, initializerOrNil := p.convertExprToBindingAndInitializer(item)
			items = append(items, js_ast.ArrayBinding{Binding: binding, DefaultValueOrNil: initializerOrNil})
		}
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BArray{
			Items:        items,
			HasSpread:    isSpread,
			IsSingleLine: e.IsSingleLine,
		}}

	case *js_ast.EObject:
		items := []js_ast.PropertyBinding{}
		for _, item := range e.Properties {
			if item.Kind == js_ast.PropertyGet || item.IsMethod ||
				item.Kind == js_ast.PropertySet {
				p.addError(item.Key.Loc, "Invalid binding pattern")
				panic(js_lexer.LexerPanic{})
			}
			binding, initializerOrNil := p.convertExprToBindingAndInitializer(item.ValueOrNil)
			if initializerOrNil.Data == nil {
				initializerOrNil = item.InitializerOrNil
			}
			items = append(items, js_ast.PropertyBinding{
				IsSpread:          item.Kind == js_ast.PropertySpread,
				IsComputed:        item.IsComputed,
				Key:               item.Key,
				Value:             binding,
				DefaultValueOrNil: initializerOrNil,
			})
		}
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BObject{
			Properties:   items,
			IsSingleLine: e.IsSingleLine,
		}}

	default:
		p.addError(expr.Loc, "Invalid binding pattern")
		panic(js_lexer.LexerPanic{})
	}
}

func (p *parser) parsePrefix(level js_ast.L, errors *deferredErrors) js_ast.Expr {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TSuper:
		p.lexer.Next()

		switch p.lexer.Token {
		case js_lexer.TOpenParen:
			if level < js_ast.LCall {
				return js_ast.Expr{Loc: loc, Data: js_ast.ESuperShared}
			}

		case js_lexer.TDot, js_lexer.TOpenBracket:
			return js_ast.Expr{Loc: loc, Data: js_ast.ESuperShared}
		}

		p.lexer.Unexpected()
		return js_ast.Expr{}

	case js_lexer.TOpenParen:
		p.lexer.Next()

		// Arrow functions aren't allowed in the middle of expressions
		if level > js_ast.LAssign {
			value := p.parseExprWithAllowIn(js_ast.LLowest)
			p.lexer.Expect(js_lexer.TCloseParen)
			return value
		}

		return p.parseParenExpr(loc, level, false /* isAsync */)

	case js_lexer.TFalse:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: false}}

	case js_lexer.TTrue:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: true}}

	case js_lexer.TNull:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: js_ast.ENullShared}

	case js_lexer.TThis:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: js_ast.EThisShared}

	case js_lexer.TIdentifier:
		name := p.lexer.Identifier
		nameRange := p.lexer.Range()
		raw := p.lexer.Raw()
		p.lexer.Next()

		// Handle async and await expressions
		switch {
		case raw == "async":
			return p.parseAsyncExpr(nameRange, level)

		case raw == "await" && p.currentFnOpts.allowAwait:
			return js_ast.Expr{Loc: loc, Data: &js_ast.EAwait{Value: p.parseExpr(js_ast.LPrefix)}}

		case raw == "yield" && p.currentFnOpts.allowYield:
			if level > js_ast.LAssign {
				p.addRangeError(nameRange, "Cannot use a \"yield\" expression here without parentheses")
				panic(js_lexer.LexerPanic{})
			}
			return p.parseYieldExpr(loc)
		}

		// Handle the start of an arrow expression
		if p.lexer.Token == js_lexer.TEqualsGreaterThan && !p.lexer.HasNewlineBefore && level <= js_ast.LAssign {
			p.lexer.Next()
			ref := p.storeNameInRef(name)
			arg := js_ast.Arg{Binding: js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Ref: ref}}}
			body, preferExpr := p.parseArrowBody(fnOpts{})
			return js_ast.Expr{Loc: loc, Data: &js_ast.EArrow{Args: []js_ast.Arg{arg}, Body: body, PreferExpr: preferExpr}}
		}

		ref := p.storeNameInRef(name)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Ref: ref}}

	case js_lexer.TStringLiteral:
		value := p.lexer.StringLiteral
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: value}}

	case js_lexer.TNoSubstitutionTemplateLiteral:
		headRaw := p.lexer.RawTemplateContents()
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ETemplate{HeadLoc: loc, HeadRaw: headRaw}}

	case js_lexer.TTemplateHead:
		headRaw := p.lexer.RawTemplateContents()
		parts := p.parseTemplateParts()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ETemplate{HeadLoc: loc, HeadRaw: headRaw, Parts: parts}}

	case js_lexer.TNumericLiteral:
		value := p.lexer.Number
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: value}}

	case js_lexer.TBigIntegerLiteral:
		value := p.lexer.Identifier
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBigInt{Value: value}}

	case js_lexer.TSlash, js_lexer.TSlashEquals:
		p.lexer.ScanRegExp()
		value := p.lexer.Raw()
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ERegExp{Value: value}}

	case js_lexer.TVoid:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpVoid, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TTypeof:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpTypeof, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TDelete:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpDelete, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TPlus:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPos, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TMinus:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpNeg, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TTilde:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpCpl, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TExclamation:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpNot, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TMinusMinus:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPreDec, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TPlusPlus:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPreInc, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TFunction:
		return p.parseFnExpr(loc, false /* isAsync */)

	case js_lexer.TClass:
		p.lexer.Next()
		var name *js_ast.LocRef

		if p.lexer.Token == js_lexer.TIdentifier && !p.lexer.IsContextualKeyword("implements") {
			name = &js_ast.LocRef{Loc: p.lexer.Loc(), Ref: p.storeNameInRef(p.lexer.Identifier)}
			p.lexer.Next()
		}

		class := p.parseClass(name)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EClass{Class: class}}

	case js_lexer.TNew:
		p.lexer.Next()

		// Special-case the weird "new.target" expression here
		if p.lexer.Token == js_lexer.TDot {
			p.lexer.Next()
			if p.lexer.Token != js_lexer.TIdentifier || p.lexer.Raw() != "target" {
				p.lexer.Unexpected()
			}
			p.lexer.Next()
			return js_ast.Expr{Loc: loc, Data: &js_ast.ENewTarget{}}
		}

		target := p.parseExpr(js_ast.LCall)
		args := []js_ast.Expr{}

		if p.lexer.Token == js_lexer.TOpenParen {
			args = p.parseCallArgs()
		}

		return js_ast.Expr{Loc: loc, Data: &js_ast.ENew{Target: target, Args: args}}

	case js_lexer.TOpenBracket:
		p.lexer.Next()
		isSingleLine := !p.lexer.HasNewlineBefore
		items := []js_ast.Expr{}
		selfErrors := deferredErrors{}

		// Allow "in" inside arrays
		oldAllowIn := p.allowIn
		p.allowIn = true

		for p.lexer.Token != js_lexer.TCloseBracket {
			switch p.lexer.Token {
			case js_lexer.TComma:
				items = append(items, js_ast.Expr{Loc: p.lexer.Loc(), Data: js_ast.EMissingShared})

			case js_lexer.TDotDotDot:
				dotsLoc := p.lexer.Loc()
				p.lexer.Next()
				item := p.parseExprOrBindings(js_ast.LComma, &selfErrors)
				items = append(items, js_ast.Expr{Loc: dotsLoc, Data: &js_ast.ESpread{Value: item}})

				// Commas are not allowed here when destructuring
				if p.lexer.Token == js_lexer.TComma {
					selfErrors.invalidBindingCommaAfterSpread = p.lexer.Range()
				}

			default:
				item := p.parseExprOrBindings(js_ast.LComma, &selfErrors)
				items = append(items, item)
			}

			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
			if p.lexer.HasNewlineBefore {
				isSingleLine = false
			}
		}

		if p.lexer.HasNewlineBefore {
			isSingleLine = false
		}
		p.lexer.Expect(js_lexer.TCloseBracket)
		p.allowIn = oldAllowIn

		if p.willNeedBindingPattern() {
			// Is this a binding pattern?
			p.logBindingErrors(&selfErrors)
		} else if errors == nil {
			// Is this an expression?
			p.logExprErrors(&selfErrors)
		} else {
			// In this case, we can't distinguish between the two yet
			selfErrors.mergeInto(errors)
		}

		return js_ast.Expr{Loc: loc, Data: &js_ast.EArray{Items: items, IsSingleLine: isSingleLine}}

	case js_lexer.TOpenBrace:
		p.lexer.Next()
		isSingleLine := !p.lexer.HasNewlineBefore
		properties := []js_ast.Property{}
		selfErrors := deferredErrors{}

		// Allow "in" inside object literals
		oldAllowIn := p.allowIn
		p.allowIn = true

		for p.lexer.Token != js_lexer.TCloseBrace {
			if p.lexer.Token == js_lexer.TDotDotDot {
				p.lexer.Next()
				value := p.parseExprOrBindings(js_ast.LComma, &selfErrors)
				properties = append(properties, js_ast.Property{
					Kind:       js_ast.PropertySpread,
					ValueOrNil: value,
				})

				// Commas are not allowed here when destructuring
				if p.lexer.Token == js_lexer.TComma {
					selfErrors.invalidBindingCommaAfterSpread = p.lexer.Range()
				}
			} else {
				property := p.parseProperty(propertyContextObject, js_ast.PropertyNormal, propertyOpts{}, &selfErrors)
				properties = append(properties, property)
			}

			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
			if p.lexer.HasNewlineBefore {
				isSingleLine = false
			}
		}

		if p.lexer.HasNewlineBefore {
			isSingleLine = false
		}
		p.lexer.Expect(js_lexer.TCloseBrace)
		p.allowIn = oldAllowIn

		if p.willNeedBindingPattern() {
			// Is this a binding pattern?
			p.logBindingErrors(&selfErrors)
		} else if errors == nil {
			// Is this an expression?
			p.logExprErrors(&selfErrors)
		} else {
			// In this case, we can't distinguish between the two yet
			selfErrors.mergeInto(errors)
		}

		return js_ast.Expr{Loc: loc, Data: &js_ast.EObject{Properties: properties, IsSingleLine: isSingleLine}}

	case js_lexer.TImport:
		p.lexer.Next()
		return p.parseImportExpr(loc, level)

	default:
		p.lexer.Unexpected()
		return js_ast.Expr{}
	}
}

// This assumes the "yield" keyword has already been parsed
func (p *parser) parseYieldExpr(loc logger.Loc) js_ast.Expr {
	// Parse a yield-from expression, which yields from an iterator
	isStar := p.lexer.Token == js_lexer.TAsterisk
	if isStar {
		if p.lexer.HasNewlineBefore {
			p.lexer.Unexpected()
		}
		p.lexer.Next()
	}

	var valueOrNil js_ast.Expr

	// The yield expression only has a value in certain cases
	switch p.lexer.Token {
	case js_lexer.TCloseBrace, js_lexer.TCloseBracket, js_lexer.TCloseParen,
		js_lexer.TColon, js_lexer.TComma, js_lexer.TSemicolon:

	default:
		if isStar || !p.lexer.HasNewlineBefore {
			valueOrNil = p.parseExpr(js_ast.LYield)
		}
	}

	return js_ast.Expr{Loc: loc, Data: &js_ast.EYield{ValueOrNil: valueOrNil, IsStar: isStar}}
}

func (p *parser) willNeedBindingPattern() bool {
	switch p.lexer.Token {
	case js_lexer.TEquals:
		// "[a] = b;"
		return true

	case js_lexer.TIn:
		// "for ([a] in b) {}"
		return !p.allowIn

	case js_lexer.TIdentifier:
		// "for ([a] of b) {}"
		return !p.allowIn && p.lexer.IsContextualKeyword("of")

	default:
		return false
	}
}

// This assumes the "import" keyword has already been parsed
func (p *parser) parseImportExpr(loc logger.Loc, level js_ast.L) js_ast.Expr {
	// Parse an "import.meta" expression
	if p.lexer.Token == js_lexer.TDot {
		p.lexer.Next()
		if !p.lexer.IsContextualKeyword("meta") {
			p.lexer.ExpectedString("\"meta\"")
		}
		p.markImportKeyword(logger.Range{Loc: loc, Len: int32(len("import"))})
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EImportMeta{}}
	}

	if level > js_ast.LCall {
		r := logger.Range{Loc: loc, Len: int32(len("import"))}
		p.addRangeError(r, "Cannot use an \"import\" expression here without parentheses")
		panic(js_lexer.LexerPanic{})
	}

	// Allow "in" inside call arguments
	oldAllowIn := p.allowIn
	p.allowIn = true

	p.lexer.Expect(js_lexer.TOpenParen)
	value := p.parseExpr(js_ast.LComma)
	var optionsOrNil js_ast.Expr

	// "import('path', { with: { type: 'json' } })"
	if p.lexer.Token == js_lexer.TComma {
		p.lexer.Next()
		if p.lexer.Token != js_lexer.TCloseParen {
			optionsOrNil = p.parseExpr(js_ast.LComma)

			// "import('path', {},)"
			if p.lexer.Token == js_lexer.TComma {
				p.lexer.Next()
			}
		}
	}

	p.lexer.Expect(js_lexer.TCloseParen)
	p.allowIn = oldAllowIn

	return js_ast.Expr{Loc: loc, Data: &js_ast.EImportCall{Expr: value, OptionsOrNil: optionsOrNil}}
}

func (p *parser) parseExprOrBindings(level js_ast.L, errors *deferredErrors) js_ast.Expr {
	return p.parseSuffix(p.parsePrefix(level, errors), level)
}

func (p *parser) parseExpr(level js_ast.L) js_ast.Expr {
	return p.parseSuffix(p.parsePrefix(level, nil), level)
}

type binaryOp struct {
	op    js_ast.OpCode
	level js_ast.L
}

// Binary operators that need no special handling in "parseSuffix". The right
// operand is parsed at the operator's own level, except for right-associative
// operators which parse it one level lower.
var binaryOps = map[js_lexer.T]binaryOp{
	js_lexer.TPlus:                             {js_ast.BinOpAdd, js_ast.LAdd},
	js_lexer.TMinus:                            {js_ast.BinOpSub, js_ast.LAdd},
	js_lexer.TAsterisk:                         {js_ast.BinOpMul, js_ast.LMultiply},
	js_lexer.TSlash:                            {js_ast.BinOpDiv, js_ast.LMultiply},
	js_lexer.TPercent:                          {js_ast.BinOpRem, js_ast.LMultiply},
	js_lexer.TAsteriskAsterisk:                 {js_ast.BinOpPow, js_ast.LExponentiation},
	js_lexer.TLessThan:                         {js_ast.BinOpLt, js_ast.LCompare},
	js_lexer.TLessThanEquals:                   {js_ast.BinOpLe, js_ast.LCompare},
	js_lexer.TGreaterThan:                      {js_ast.BinOpGt, js_ast.LCompare},
	js_lexer.TGreaterThanEquals:                {js_ast.BinOpGe, js_ast.LCompare},
	js_lexer.TInstanceof:                       {js_ast.BinOpInstanceof, js_ast.LCompare},
	js_lexer.TLessThanLessThan:                 {js_ast.BinOpShl, js_ast.LShift},
	js_lexer.TGreaterThanGreaterThan:           {js_ast.BinOpShr, js_ast.LShift},
	js_lexer.TGreaterThanGreaterThanGreaterThan: {js_ast.BinOpUShr, js_ast.LShift},
	js_lexer.TEqualsEquals:                     {js_ast.BinOpLooseEq, js_ast.LEquals},
	js_lexer.TExclamationEquals:                {js_ast.BinOpLooseNe, js_ast.LEquals},
	js_lexer.TEqualsEqualsEquals:               {js_ast.BinOpStrictEq, js_ast.LEquals},
	js_lexer.TExclamationEqualsEquals:          {js_ast.BinOpStrictNe, js_ast.LEquals},
	js_lexer.TQuestionQuestion:                 {js_ast.BinOpNullishCoalescing, js_ast.LNullishCoalescing},
	js_lexer.TBarBar:                           {js_ast.BinOpLogicalOr, js_ast.LLogicalOr},
	js_lexer.TAmpersandAmpersand:               {js_ast.BinOpLogicalAnd, js_ast.LLogicalAnd},
	js_lexer.TBar:                              {js_ast.BinOpBitwiseOr, js_ast.LBitwiseOr},
	js_lexer.TAmpersand:                        {js_ast.BinOpBitwiseAnd, js_ast.LBitwiseAnd},
	js_lexer.TCaret:                            {js_ast.BinOpBitwiseXor, js_ast.LBitwiseXor},

	js_lexer.TEquals:                                  {js_ast.BinOpAssign, js_ast.LAssign},
	js_lexer.TPlusEquals:                              {js_ast.BinOpAddAssign, js_ast.LAssign},
	js_lexer.TMinusEquals:                             {js_ast.BinOpSubAssign, js_ast.LAssign},
	js_lexer.TAsteriskEquals:                          {js_ast.BinOpMulAssign, js_ast.LAssign},
	js_lexer.TSlashEquals:                             {js_ast.BinOpDivAssign, js_ast.LAssign},
	js_lexer.TPercentEquals:                           {js_ast.BinOpRemAssign, js_ast.LAssign},
	js_lexer.TAsteriskAsteriskEquals:                  {js_ast.BinOpPowAssign, js_ast.LAssign},
	js_lexer.TLessThanLessThanEquals:                  {js_ast.BinOpShlAssign, js_ast.LAssign},
	js_lexer.TGreaterThanGreaterThanEquals:            {js_ast.BinOpShrAssign, js_ast.LAssign},
	js_lexer.TGreaterThanGreaterThanGreaterThanEquals: {js_ast.BinOpUShrAssign, js_ast.LAssign},
	js_lexer.TBarEquals:                               {js_ast.BinOpBitwiseOrAssign, js_ast.LAssign},
	js_lexer.TAmpersandEquals:                         {js_ast.BinOpBitwiseAndAssign, js_ast.LAssign},
	js_lexer.TCaretEquals:                             {js_ast.BinOpBitwiseXorAssign, js_ast.LAssign},
	js_lexer.TQuestionQuestionEquals:                  {js_ast.BinOpNullishCoalescingAssign, js_ast.LAssign},
	js_lexer.TBarBarEquals:                            {js_ast.BinOpLogicalOrAssign, js_ast.LAssign},
	js_lexer.TAmpersandAmpersandEquals:                {js_ast.BinOpLogicalAndAssign, js_ast.LAssign},
}

func (p *parser) parseSuffix(left js_ast.Expr, level js_ast.L) js_ast.Expr {
	optionalChain := js_ast.OptionalChainNone

	for {
		oldOptionalChain := optionalChain
		optionalChain = js_ast.OptionalChainNone

		switch p.lexer.Token {
		case js_lexer.TDot:
			p.lexer.Next()
			if p.lexer.Token == js_lexer.TPrivateIdentifier {
				name := p.lexer.Identifier
				nameLoc := p.lexer.Loc()
				p.lexer.Next()
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EDot{Target: left, Name: name, NameLoc: nameLoc, OptionalChain: oldOptionalChain}}
			} else {
				if !p.lexer.IsIdentifierOrKeyword() {
					p.lexer.Expect(js_lexer.TIdentifier)
				}
				name := p.lexer.Identifier
				nameLoc := p.lexer.Loc()
				p.lexer.Next()
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EDot{Target: left, Name: name, NameLoc: nameLoc, OptionalChain: oldOptionalChain}}
			}
			optionalChain = oldOptionalChain

		case js_lexer.TQuestionDot:
			p.lexer.Next()

			switch p.lexer.Token {
			case js_lexer.TOpenBracket:
				p.lexer.Next()
				index := p.parseExprWithAllowIn(js_ast.LLowest)
				p.lexer.Expect(js_lexer.TCloseBracket)
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIndex{Target: left, Index: index, OptionalChain: js_ast.OptionalChainStart}}

			case js_lexer.TOpenParen:
				if level >= js_ast.LCall {
					return left
				}
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.ECall{Target: left, Args: p.parseCallArgs(), OptionalChain: js_ast.OptionalChainStart}}

			default:
				if !p.lexer.IsIdentifierOrKeyword() && p.lexer.Token != js_lexer.TPrivateIdentifier {
					p.lexer.Expect(js_lexer.TIdentifier)
				}
				name := p.lexer.Identifier
				nameLoc := p.lexer.Loc()
				p.lexer.Next()
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EDot{Target: left, Name: name, NameLoc: nameLoc, OptionalChain: js_ast.OptionalChainStart}}
			}
			optionalChain = js_ast.OptionalChainContinue

		case js_lexer.TNoSubstitutionTemplateLiteral, js_lexer.TTemplateHead:
			if level >= js_ast.LPrefix {
				return left
			}
			if oldOptionalChain != js_ast.OptionalChainNone {
				p.addRangeError(p.lexer.Range(), "Template literals cannot have an optional chain as a tag")
				panic(js_lexer.LexerPanic{})
			}
			headLoc := p.lexer.Loc()
			headRaw := p.lexer.RawTemplateContents()
			var parts []js_ast.TemplatePart
			if p.lexer.Token == js_lexer.TTemplateHead {
				parts = p.parseTemplateParts()
			} else {
				p.lexer.Next()
			}
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.ETemplate{TagOrNil: left, HeadLoc: headLoc, HeadRaw: headRaw, Parts: parts}}

		case js_lexer.TOpenBracket:
			p.lexer.Next()
			index := p.parseExprWithAllowIn(js_ast.LLowest)
			p.lexer.Expect(js_lexer.TCloseBracket)
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIndex{Target: left, Index: index, OptionalChain: oldOptionalChain}}
			optionalChain = oldOptionalChain

		case js_lexer.TOpenParen:
			if level >= js_ast.LCall {
				return left
			}
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.ECall{Target: left, Args: p.parseCallArgs(), OptionalChain: oldOptionalChain}}
			optionalChain = oldOptionalChain

		case js_lexer.TQuestion:
			if level >= js_ast.LConditional {
				return left
			}
			p.lexer.Next()

			// Allow "in" in between "?" and ":"
			yes := p.parseExprWithAllowIn(js_ast.LComma)

			p.lexer.Expect(js_lexer.TColon)
			no := p.parseExpr(js_ast.LComma)
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIf{Test: left, Yes: yes, No: no}}

		case js_lexer.TMinusMinus:
			if p.lexer.HasNewlineBefore || level >= js_ast.LPostfix {
				return left
			}
			p.lexer.Next()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPostDec, Value: left}}

		case js_lexer.TPlusPlus:
			if p.lexer.HasNewlineBefore || level >= js_ast.LPostfix {
				return left
			}
			p.lexer.Next()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPostInc, Value: left}}

		case js_lexer.TComma:
			if level >= js_ast.LComma {
				return left
			}
			p.lexer.Next()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EBinary{Op: js_ast.BinOpComma, Left: left, Right: p.parseExpr(js_ast.LComma)}}

		case js_lexer.TIn:
			if level >= js_ast.LCompare || !p.allowIn {
				return left
			}
			p.lexer.Next()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EBinary{Op: js_ast.BinOpIn, Left: left, Right: p.parseExpr(js_ast.LCompare)}}

		default:
			b, ok := binaryOps[p.lexer.Token]
			if !ok || level >= b.level {
				return left
			}
			p.lexer.Next()
			rightLevel := b.level
			if b.op.IsRightAssociative() {
				rightLevel--
			}
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EBinary{Op: b.op, Left: left, Right: p.parseExpr(rightLevel)}}
		}
	}
}

func (p *parser) parseCallArgs() []js_ast.Expr {
	// Allow "in" inside call arguments
	oldAllowIn := p.allowIn
	p.allowIn = true

	args := []js_ast.Expr{}
	p.lexer.Expect(js_lexer.TOpenParen)

	for p.lexer.Token != js_lexer.TCloseParen {
		loc := p.lexer.Loc()
		isSpread := p.lexer.Token == js_lexer.TDotDotDot
		if isSpread {
			p.lexer.Next()
		}
		arg := p.parseExpr(js_ast.LComma)
		if isSpread {
			arg = js_ast.Expr{Loc: loc, Data: &js_ast.ESpread{Value: arg}}
		}
		args = append(args, arg)
		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TCloseParen)
	p.allowIn = oldAllowIn
	return args
}

// Only the raw text of each part is kept since templates are printed exactly
// as they were written
func (p *parser) parseTemplateParts() []js_ast.TemplatePart {
	parts := []js_ast.TemplatePart{}

	// Allow "in" inside template literals
	oldAllowIn := p.allowIn
	p.allowIn = true

	for {
		p.lexer.Next()
		value := p.parseExpr(js_ast.LLowest)
		tailLoc := p.lexer.Loc()
		p.lexer.RescanCloseBraceAsTemplateToken()
		tailRaw := p.lexer.RawTemplateContents()
		parts = append(parts, js_ast.TemplatePart{Value: value, TailLoc: tailLoc, TailRaw: tailRaw})
		if p.lexer.Token == js_lexer.TTemplateTail {
			p.lexer.Next()
			break
		}
	}

	p.allowIn = oldAllowIn
	return parts
}

func (p *parser) parseDecls() []js_ast.Decl {
	decls := []js_ast.Decl{}

	for {
		var valueOrNil js_ast.Expr
		local := p.parseBinding()

		if p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()
			valueOrNil = p.parseExpr(js_ast.LComma)
		}

		decls = append(decls, js_ast.Decl{Binding: local, ValueOrNil: valueOrNil})

		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	return decls
}

func (p *parser) requireInitializers(decls []js_ast.Decl) {
	for _, d := range decls {
		if d.ValueOrNil.Data == nil {
			if _, ok := d.Binding.Data.(*js_ast.BIdentifier); ok {
				p.addError(d.Binding.Loc, "This constant must be initialized")
			}
		}
	}
}

func (p *parser) forbidInitializers(decls []js_ast.Decl, loopType string, isVar bool) {
	if len(decls) > 1 {
		p.addError(decls[0].Binding.Loc, fmt.Sprintf("for-%s loops must have a single declaration", loopType))
	} else if len(decls) == 1 && decls[0].ValueOrNil.Data != nil {
		if isVar {
			if _, ok := decls[0].Binding.Data.(*js_ast.BIdentifier); ok {
				// This is a weird special case. Initializers are allowed in "var"
				// statements with identifier bindings.
				return
			}
		}
		p.addError(decls[0].ValueOrNil.Loc, fmt.Sprintf("for-%s loop variables cannot have an initializer", loopType))
	}
}

// Import and export clauses accept a string literal wherever a name is
// allowed, as in "import {'a b' as c} from 'path'"
func (p *parser) parseClauseAlias(kind string) (alias string, isStringLiteral bool) {
	if p.lexer.Token == js_lexer.TStringLiteral {
		return helpers.UTF16ToString(p.lexer.StringLiteral), true
	}
	if !p.lexer.IsIdentifierOrKeyword() {
		p.lexer.ExpectedString(fmt.Sprintf("%s name", kind))
	}
	return p.lexer.Identifier, false
}

func (p *parser) parseImportClause() (items []js_ast.ClauseItem, isSingleLine bool) {
	items = []js_ast.ClauseItem{}
	p.lexer.Expect(js_lexer.TOpenBrace)
	isSingleLine = !p.lexer.HasNewlineBefore

	for p.lexer.Token != js_lexer.TCloseBrace {
		isIdentifier := p.lexer.Token == js_lexer.TIdentifier
		aliasLoc := p.lexer.Loc()
		alias, isStringLiteral := p.parseClauseAlias("import")
		name := js_ast.LocRef{Loc: aliasLoc, Ref: p.storeNameInRef(alias)}
		originalName := alias
		p.lexer.Next()

		if p.lexer.IsContextualKeyword("as") {
			p.lexer.Next()
			originalName = p.lexer.Identifier
			name = js_ast.LocRef{Loc: p.lexer.Loc(), Ref: p.storeNameInRef(originalName)}
			p.lexer.Expect(js_lexer.TIdentifier)
		} else if !isIdentifier {
			// An import where the name is a keyword or a string must have an alias
			p.lexer.ExpectedString("\"as\"")
		}

		items = append(items, js_ast.ClauseItem{
			Alias:                alias,
			AliasLoc:             aliasLoc,
			Name:                 name,
			OriginalName:         originalName,
			AliasIsStringLiteral: isStringLiteral,
		})

		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
		if p.lexer.HasNewlineBefore {
			isSingleLine = false
		}
	}

	if p.lexer.HasNewlineBefore {
		isSingleLine = false
	}
	p.lexer.Expect(js_lexer.TCloseBrace)
	return
}

func (p *parser) parseExportClause() (items []js_ast.ClauseItem, isSingleLine bool) {
	items = []js_ast.ClauseItem{}
	firstNonIdentifierLoc := logger.Loc{}
	p.lexer.Expect(js_lexer.TOpenBrace)
	isSingleLine = !p.lexer.HasNewlineBefore

	for p.lexer.Token != js_lexer.TCloseBrace {
		aliasLoc := p.lexer.Loc()
		alias, isStringLiteral := p.parseClauseAlias("export")
		name := js_ast.LocRef{Loc: aliasLoc, Ref: p.storeNameInRef(alias)}
		originalName := alias

		// The name can actually be a keyword or a string if we're really an
		// "export from" statement. However, we won't know until later. Allow
		// them for now and throw an error later if there's no "from".
		//
		//   // This is fine
		//   export { default } from 'path'
		//
		//   // This is a syntax error
		//   export { default }
		//
		if p.lexer.Token != js_lexer.TIdentifier && firstNonIdentifierLoc.Start == 0 {
			firstNonIdentifierLoc = p.lexer.Loc()
		}
		p.lexer.Next()

		if p.lexer.IsContextualKeyword("as") {
			p.lexer.Next()
			aliasLoc = p.lexer.Loc()
			alias, isStringLiteral = p.parseClauseAlias("export")
			p.lexer.Next()
		}

		items = append(items, js_ast.ClauseItem{
			Alias:                alias,
			AliasLoc:             aliasLoc,
			Name:                 name,
			OriginalName:         originalName,
			AliasIsStringLiteral: isStringLiteral,
		})

		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
		if p.lexer.HasNewlineBefore {
			isSingleLine = false
		}
	}

	if p.lexer.HasNewlineBefore {
		isSingleLine = false
	}
	p.lexer.Expect(js_lexer.TCloseBrace)

	// Throw an error here if we found a keyword earlier and this isn't an
	// "export from" statement after all
	if firstNonIdentifierLoc.Start != 0 && !p.lexer.IsContextualKeyword("from") {
		r := js_lexer.RangeOfIdentifier(p.source, firstNonIdentifierLoc)
		if r.Len == 0 {
			r = p.source.RangeOfString(firstNonIdentifierLoc)
		}
		p.addRangeError(r, fmt.Sprintf("Expected identifier but found %q", p.source.TextForRange(r)))
		panic(js_lexer.LexerPanic{})
	}

	return
}

func (p *parser) parseBinding() js_ast.Binding {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TIdentifier:
		ref := p.storeNameInRef(p.lexer.Identifier)
		p.lexer.Next()
		return js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Ref: ref}}

	case js_lexer.TOpenBracket:
		p.lexer.Next()
		isSingleLine := !p.lexer.HasNewlineBefore
		items := []js_ast.ArrayBinding{}
		hasSpread := false

		for p.lexer.Token != js_lexer.TCloseBracket {
			if p.lexer.Token == js_lexer.TComma {
				binding := js_ast.Binding{Loc: p.lexer.Loc(), Data: js_ast.BMissingShared}
				items = append(items, js_ast.ArrayBinding{Binding: binding})
			} else {
				if p.lexer.Token == js_lexer.TDotDotDot {
					p.lexer.Next()
					hasSpread = true
				}

				binding := p.parseBinding()

				var defaultValueOrNil js_ast.Expr
				if !hasSpread && p.lexer.Token == js_lexer.TEquals {
					p.lexer.Next()
					defaultValueOrNil = p.parseExprWithAllowIn(js_ast.LComma)
				}

				items = append(items, js_ast.ArrayBinding{Binding: binding, DefaultValueOrNil: defaultValueOrNil})

				// Commas after spread elements are not allowed
				if hasSpread && p.lexer.Token == js_lexer.TComma {
					p.addRangeError(p.lexer.Range(), "Unexpected \",\" after rest pattern")
					panic(js_lexer.LexerPanic{})
				}
			}

			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
			if p.lexer.HasNewlineBefore {
				isSingleLine = false
			}
		}

		if p.lexer.HasNewlineBefore {
			isSingleLine = false
		}
		p.lexer.Expect(js_lexer.TCloseBracket)
		return js_ast.Binding{Loc: loc, Data: &js_ast.BArray{Items: items, HasSpread: hasSpread, IsSingleLine: isSingleLine}}

	case js_lexer.TOpenBrace:
		p.lexer.Next()
		isSingleLine := !p.lexer.HasNewlineBefore
		properties := []js_ast.PropertyBinding{}

		for p.lexer.Token != js_lexer.TCloseBrace {
			property := p.parsePropertyBinding()
			properties = append(properties, property)

			// Commas after spread elements are not allowed
			if property.IsSpread && p.lexer.Token == js_lexer.TComma {
				p.addRangeError(p.lexer.Range(), "Unexpected \",\" after rest pattern")
				panic(js_lexer.LexerPanic{})
			}

			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
			if p.lexer.HasNewlineBefore {
				isSingleLine = false
			}
		}

		if p.lexer.HasNewlineBefore {
			isSingleLine = false
		}
		p.lexer.Expect(js_lexer.TCloseBrace)
		return js_ast.Binding{Loc: loc, Data: &js_ast.BObject{Properties: properties, IsSingleLine: isSingleLine}}
	}

	p.lexer.Expect(js_lexer.TIdentifier)
	return js_ast.Binding{}
}

func (p *parser) parseFn(name *js_ast.LocRef, opts fnOpts) js_ast.Fn {
	args := []js_ast.Arg{}
	hasRestArg := false
	p.lexer.Expect(js_lexer.TOpenParen)

	// Default values may use "await" and "yield" the same way the body does
	oldFnOpts := p.currentFnOpts
	p.currentFnOpts = opts

	for p.lexer.Token != js_lexer.TCloseParen {
		if !hasRestArg && p.lexer.Token == js_lexer.TDotDotDot {
			p.lexer.Next()
			hasRestArg = true
		}

		arg := p.parseBinding()

		var defaultOrNil js_ast.Expr
		if !hasRestArg && p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()
			defaultOrNil = p.parseExprWithAllowIn(js_ast.LComma)
		}

		args = append(args, js_ast.Arg{Binding: arg, DefaultOrNil: defaultOrNil})
		if p.lexer.Token != js_lexer.TComma {
			break
		}
		if hasRestArg {
			p.lexer.Expect(js_lexer.TCloseParen)
		}
		p.lexer.Next()
	}

	p.currentFnOpts = oldFnOpts
	p.lexer.Expect(js_lexer.TCloseParen)
	bodyLoc := p.lexer.Loc()
	stmts := p.parseFnBodyStmts(opts)

	return js_ast.Fn{
		Name:         name,
		Args:         args,
		HasRestArg:   hasRestArg,
		IsAsync:      opts.allowAwait,
		IsGenerator:  opts.allowYield,
		Body:         js_ast.FnBody{Loc: bodyLoc, Stmts: stmts},
		ArgumentsRef: ast.InvalidRef,
	}
}

func (p *parser) parseClass(name *js_ast.LocRef) js_ast.Class {
	var extendsOrNil js_ast.Expr

	if p.lexer.Token == js_lexer.TExtends {
		p.lexer.Next()
		extendsOrNil = p.parseExpr(js_ast.LNew)
	}

	bodyLoc := p.lexer.Loc()
	p.lexer.Expect(js_lexer.TOpenBrace)
	properties := []js_ast.Property{}

	// Allow "in" inside class bodies
	oldAllowIn := p.allowIn
	p.allowIn = true

	// Class bodies are always strict mode code, but "await" and "yield" are
	// only special inside of methods
	oldFnOpts := p.currentFnOpts
	p.currentFnOpts = fnOpts{}

	for p.lexer.Token != js_lexer.TCloseBrace {
		if p.lexer.Token == js_lexer.TSemicolon {
			p.lexer.Next()
			continue
		}

		property := p.parseProperty(propertyContextClass, js_ast.PropertyNormal, propertyOpts{}, nil)
		properties = append(properties, property)
	}

	p.currentFnOpts = oldFnOpts
	p.allowIn = oldAllowIn

	p.lexer.Expect(js_lexer.TCloseBrace)
	return js_ast.Class{Name: name, ExtendsOrNil: extendsOrNil, BodyLoc: bodyLoc, Properties: properties}
}

func (p *parser) parseLabelName() *js_ast.LocRef {
	if p.lexer.Token != js_lexer.TIdentifier || p.lexer.HasNewlineBefore {
		return nil
	}

	name := js_ast.LocRef{Loc: p.lexer.Loc(), Ref: p.storeNameInRef(p.lexer.Identifier)}
	p.lexer.Next()
	return &name
}

func (p *parser) parsePath() (logger.Range, string) {
	r := p.lexer.Range()
	path := helpers.UTF16ToString(p.lexer.StringLiteral)
	p.lexer.Expect(js_lexer.TStringLiteral)
	return r, path
}

// This assumes the "function" token has already been parsed
func (p *parser) parseFnStmt(loc logger.Loc, opts parseStmtOpts, isAsync bool) js_ast.Stmt {
	isGenerator := p.lexer.Token == js_lexer.TAsterisk
	if isGenerator {
		p.lexer.Next()
	}
	var name *js_ast.LocRef
	if !opts.isNameOptional || p.lexer.Token == js_lexer.TIdentifier {
		name = &js_ast.LocRef{Loc: p.lexer.Loc(), Ref: p.storeNameInRef(p.lexer.Identifier)}
		p.lexer.Expect(js_lexer.TIdentifier)
	}
	fn := p.parseFn(name, fnOpts{
		allowAwait: isAsync,
		allowYield: isGenerator,
	})
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SFunction{Fn: fn, IsExport: opts.isExport}}
}

type parseStmtOpts struct {
	allowImportAndExport bool
	allowDirectives      bool
	isExport             bool
	isNameOptional       bool // For "export default" pseudo-statements
}

func (p *parser) parseStmt(opts parseStmtOpts) js_ast.Stmt {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TSemicolon:
		p.lexer.Next()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SEmpty{}}

	case js_lexer.TExport:
		if !opts.allowImportAndExport {
			p.lexer.Unexpected()
		}
		p.markExportKeyword(p.lexer.Range())
		p.lexer.Next()

		switch p.lexer.Token {
		case js_lexer.TClass, js_lexer.TConst, js_lexer.TFunction, js_lexer.TVar:
			opts.isExport = true
			return p.parseStmt(opts)

		case js_lexer.TIdentifier:
			if p.lexer.IsContextualKeyword("let") {
				opts.isExport = true
				return p.parseStmt(opts)
			}

			if p.lexer.IsContextualKeyword("async") {
				p.lexer.Next()
				if p.lexer.HasNewlineBefore {
					p.lexer.Unexpected()
				}
				p.lexer.Expect(js_lexer.TFunction)
				opts.isExport = true
				return p.parseFnStmt(loc, opts, true /* isAsync */)
			}

			p.lexer.Unexpected()
			return js_ast.Stmt{}

		case js_lexer.TDefault:
			defaultLoc := p.lexer.Loc()
			p.lexer.Next()

			// The default name is lazily generated only if no other name is present
			createDefaultName := func() js_ast.LocRef {
				return js_ast.LocRef{Loc: defaultLoc, Ref: p.storeNameInRef("default")}
			}

			// "export default async function() {}"
			// "export default async function foo() {}"
			if p.lexer.IsContextualKeyword("async") {
				asyncRange := p.lexer.Range()
				p.lexer.Next()

				if p.lexer.Token == js_lexer.TFunction && !p.lexer.HasNewlineBefore {
					p.lexer.Next()
					stmt := p.parseFnStmt(loc, parseStmtOpts{isNameOptional: true}, true /* isAsync */)
					return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportDefault{DefaultName: createDefaultName(), Value: stmt}}
				}

				expr := p.parseSuffix(p.parseAsyncExpr(asyncRange, js_ast.LComma), js_ast.LLowest)
				p.lexer.ExpectOrInsertSemicolon()
				return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportDefault{
					DefaultName: createDefaultName(),
					Value:       js_ast.Stmt{Loc: defaultLoc, Data: &js_ast.SExpr{Value: expr}},
				}}
			}

			// "export default function() {}"
			// "export default class {}"
			if p.lexer.Token == js_lexer.TFunction || p.lexer.Token == js_lexer.TClass {
				stmt := p.parseStmt(parseStmtOpts{isNameOptional: true})
				return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportDefault{DefaultName: createDefaultName(), Value: stmt}}
			}

			// "export default 1 + 2"
			exprLoc := p.lexer.Loc()
			expr := p.parseExpr(js_ast.LComma)
			p.lexer.ExpectOrInsertSemicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportDefault{
				DefaultName: createDefaultName(),
				Value:       js_ast.Stmt{Loc: exprLoc, Data: &js_ast.SExpr{Value: expr}},
			}}

		case js_lexer.TAsterisk:
			p.lexer.Next()
			var alias *js_ast.ExportStarAlias
			if p.lexer.IsContextualKeyword("as") {
				// "export * as ns from 'path'"
				// "export * as 'ns' from 'path'"
				p.lexer.Next()
				name, isStringLiteral := p.parseClauseAlias("export")
				alias = &js_ast.ExportStarAlias{Loc: p.lexer.Loc(), Name: name, IsStringLiteral: isStringLiteral}
				p.lexer.Next()
			}
			p.lexer.ExpectContextualKeyword("from")
			pathRange, path := p.parsePath()
			p.lexer.ExpectOrInsertSemicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportStar{
				NamespaceRef:      ast.InvalidRef,
				Alias:             alias,
				ImportRecordIndex: p.addImportRecord(ast.ImportReExport, pathRange, path),
			}}

		case js_lexer.TOpenBrace:
			items, isSingleLine := p.parseExportClause()
			if p.lexer.IsContextualKeyword("from") {
				// "export {a, b as c} from 'path'"
				p.lexer.Next()
				pathRange, path := p.parsePath()
				p.lexer.ExpectOrInsertSemicolon()
				return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportFrom{
					Items:             items,
					NamespaceRef:      ast.InvalidRef,
					ImportRecordIndex: p.addImportRecord(ast.ImportReExport, pathRange, path),
					IsSingleLine:      isSingleLine,
				}}
			}
			p.lexer.ExpectOrInsertSemicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportClause{Items: items, IsSingleLine: isSingleLine}}

		default:
			p.lexer.Unexpected()
			return js_ast.Stmt{}
		}

	case js_lexer.TFunction:
		p.lexer.Next()
		return p.parseFnStmt(loc, opts, false /* isAsync */)

	case js_lexer.TEnum:
		p.addRangeError(p.lexer.Range(), "The \"enum\" keyword is reserved")
		panic(js_lexer.LexerPanic{})

	case js_lexer.TClass:
		p.lexer.Next()
		var name *js_ast.LocRef
		if !opts.isNameOptional || (p.lexer.Token == js_lexer.TIdentifier && !p.lexer.IsContextualKeyword("implements")) {
			name = &js_ast.LocRef{Loc: p.lexer.Loc(), Ref: p.storeNameInRef(p.lexer.Identifier)}
			p.lexer.Expect(js_lexer.TIdentifier)
		}
		class := p.parseClass(name)
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SClass{Class: class, IsExport: opts.isExport}}

	case js_lexer.TVar:
		p.lexer.Next()
		decls := p.parseDecls()
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: js_ast.LocalVar, Decls: decls, IsExport: opts.isExport}}

	case js_lexer.TConst:
		p.lexer.Next()
		decls := p.parseDecls()
		p.lexer.ExpectOrInsertSemicolon()
		p.requireInitializers(decls)
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: js_ast.LocalConst, Decls: decls, IsExport: opts.isExport}}

	case js_lexer.TIf:
		p.lexer.Next()
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseExpr(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)
		yes := p.parseStmt(parseStmtOpts{})
		var noOrNil js_ast.Stmt
		if p.lexer.Token == js_lexer.TElse {
			p.lexer.Next()
			noOrNil = p.parseStmt(parseStmtOpts{})
		}
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SIf{Test: test, Yes: yes, NoOrNil: noOrNil}}

	case js_lexer.TDo:
		p.lexer.Next()
		body := p.parseStmt(parseStmtOpts{})
		p.lexer.Expect(js_lexer.TWhile)
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseExpr(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)

		// This is a weird corner case where automatic semicolon insertion applies
		// even without a newline present
		if p.lexer.Token == js_lexer.TSemicolon {
			p.lexer.Next()
		}
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SDoWhile{Body: body, Test: test}}

	case js_lexer.TWhile:
		p.lexer.Next()
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseExpr(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)
		body := p.parseStmt(parseStmtOpts{})
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SWhile{Test: test, Body: body}}

	case js_lexer.TWith:
		p.lexer.Next()
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseExpr(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)
		bodyLoc := p.lexer.Loc()
		body := p.parseStmt(parseStmtOpts{})
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SWith{Value: test, BodyLoc: bodyLoc, Body: body}}

	case js_lexer.TSwitch:
		p.lexer.Next()
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseExpr(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)
		bodyLoc := p.lexer.Loc()
		p.lexer.Expect(js_lexer.TOpenBrace)
		cases := []js_ast.Case{}
		foundDefault := false

		for p.lexer.Token != js_lexer.TCloseBrace {
			var valueOrNil js_ast.Expr
			caseLoc := p.lexer.Loc()
			body := []js_ast.Stmt{}

			if p.lexer.Token == js_lexer.TDefault {
				if foundDefault {
					p.addRangeError(p.lexer.Range(), "Multiple default clauses are not allowed")
					panic(js_lexer.LexerPanic{})
				}
				foundDefault = true
				p.lexer.Next()
				p.lexer.Expect(js_lexer.TColon)
			} else {
				p.lexer.Expect(js_lexer.TCase)
				valueOrNil = p.parseExpr(js_ast.LLowest)
				p.lexer.Expect(js_lexer.TColon)
			}

		caseBody:
			for {
				switch p.lexer.Token {
				case js_lexer.TCloseBrace, js_lexer.TCase, js_lexer.TDefault:
					break caseBody

				default:
					body = append(body, p.parseStmt(parseStmtOpts{}))
				}
			}

			cases = append(cases, js_ast.Case{ValueOrNil: valueOrNil, Body: body, Loc: caseLoc})
		}

		p.lexer.Expect(js_lexer.TCloseBrace)
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SSwitch{Test: test, Cases: cases, BodyLoc: bodyLoc}}

	case js_lexer.TTry:
		p.lexer.Next()
		bodyLoc := p.lexer.Loc()
		p.lexer.Expect(js_lexer.TOpenBrace)
		body := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{})
		p.lexer.Next()

		var catch *js_ast.Catch
		var finally *js_ast.Finally

		if p.lexer.Token == js_lexer.TCatch {
			catchLoc := p.lexer.Loc()
			p.lexer.Next()
			var bindingOrNil js_ast.Binding

			// The catch binding is optional, and can be omitted
			if p.lexer.Token != js_lexer.TOpenBrace {
				p.lexer.Expect(js_lexer.TOpenParen)
				bindingOrNil = p.parseBinding()
				p.lexer.Expect(js_lexer.TCloseParen)
			}

			catchBodyLoc := p.lexer.Loc()
			p.lexer.Expect(js_lexer.TOpenBrace)
			stmts := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{})
			p.lexer.Next()
			catch = &js_ast.Catch{Loc: catchLoc, BindingOrNil: bindingOrNil, BodyLoc: catchBodyLoc, Body: stmts}
		}

		if p.lexer.Token == js_lexer.TFinally || catch == nil {
			finallyLoc := p.lexer.Loc()
			p.lexer.Expect(js_lexer.TFinally)
			p.lexer.Expect(js_lexer.TOpenBrace)
			stmts := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{})
			p.lexer.Next()
			finally = &js_ast.Finally{Loc: finallyLoc, Stmts: stmts}
		}

		return js_ast.Stmt{Loc: loc, Data: &js_ast.STry{BodyLoc: bodyLoc, Body: body, Catch: catch, Finally: finally}}

	case js_lexer.TFor:
		return p.parseForStmt(loc)

	case js_lexer.TImport:
		importRange := p.lexer.Range()
		p.lexer.Next()

		// "import('path')"
		// "import.meta"
		if p.lexer.Token == js_lexer.TOpenParen || p.lexer.Token == js_lexer.TDot {
			expr := p.parseSuffix(p.parseImportExpr(loc, js_ast.LLowest), js_ast.LLowest)
			p.lexer.ExpectOrInsertSemicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: expr}}
		}

		if !opts.allowImportAndExport {
			p.lexer.Unexpected()
		}
		p.markImportKeyword(importRange)
		stmt := js_ast.SImport{NamespaceRef: ast.InvalidRef}

		switch p.lexer.Token {
		case js_lexer.TStringLiteral:
			// "import 'path'"

		case js_lexer.TAsterisk:
			// "import * as ns from 'path'"
			p.lexer.Next()
			p.lexer.ExpectContextualKeyword("as")
			stmt.NamespaceRef = p.storeNameInRef(p.lexer.Identifier)
			starLoc := p.lexer.Loc()
			stmt.StarNameLoc = &starLoc
			p.lexer.Expect(js_lexer.TIdentifier)
			p.lexer.ExpectContextualKeyword("from")

		case js_lexer.TOpenBrace:
			// "import {item1, item2} from 'path'"
			items, isSingleLine := p.parseImportClause()
			stmt.Items = &items
			stmt.IsSingleLine = isSingleLine
			p.lexer.ExpectContextualKeyword("from")

		case js_lexer.TIdentifier:
			// "import defaultItem from 'path'"
			stmt.DefaultName = &js_ast.LocRef{Loc: p.lexer.Loc(), Ref: p.storeNameInRef(p.lexer.Identifier)}
			p.lexer.Next()
			if p.lexer.Token == js_lexer.TComma {
				p.lexer.Next()
				switch p.lexer.Token {
				case js_lexer.TAsterisk:
					// "import defaultItem, * as ns from 'path'"
					p.lexer.Next()
					p.lexer.ExpectContextualKeyword("as")
					stmt.NamespaceRef = p.storeNameInRef(p.lexer.Identifier)
					starLoc := p.lexer.Loc()
					stmt.StarNameLoc = &starLoc
					p.lexer.Expect(js_lexer.TIdentifier)

				case js_lexer.TOpenBrace:
					// "import defaultItem, {item1, item2} from 'path'"
					items, isSingleLine := p.parseImportClause()
					stmt.Items = &items
					stmt.IsSingleLine = isSingleLine

				default:
					p.lexer.Unexpected()
				}
			}
			p.lexer.ExpectContextualKeyword("from")

		default:
			p.lexer.Unexpected()
			return js_ast.Stmt{}
		}

		pathRange, path := p.parsePath()
		stmt.ImportRecordIndex = p.addImportRecord(ast.ImportStmt, pathRange, path)
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &stmt}

	case js_lexer.TBreak:
		p.lexer.Next()
		name := p.parseLabelName()
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SBreak{Label: name}}

	case js_lexer.TContinue:
		p.lexer.Next()
		name := p.parseLabelName()
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SContinue{Label: name}}

	case js_lexer.TReturn:
		p.lexer.Next()
		var valueOrNil js_ast.Expr
		if p.lexer.Token != js_lexer.TSemicolon &&
			!p.lexer.HasNewlineBefore &&
			p.lexer.Token != js_lexer.TCloseBrace &&
			p.lexer.Token != js_lexer.TEndOfFile {
			valueOrNil = p.parseExpr(js_ast.LLowest)
		}
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SReturn{ValueOrNil: valueOrNil}}

	case js_lexer.TThrow:
		p.lexer.Next()
		if p.lexer.HasNewlineBefore {
			p.addError(logger.Loc{Start: loc.Start + 5}, "Unexpected newline after \"throw\"")
			panic(js_lexer.LexerPanic{})
		}
		expr := p.parseExpr(js_ast.LLowest)
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SThrow{Value: expr}}

	case js_lexer.TDebugger:
		p.lexer.Next()
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SDebugger{}}

	case js_lexer.TOpenBrace:
		p.lexer.Next()
		stmts := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{})
		p.lexer.Next()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SBlock{Stmts: stmts}}

	default:
		isIdentifier := p.lexer.Token == js_lexer.TIdentifier
		raw := p.lexer.Raw()

		// Parse either an async function, an async expression, or a normal expression
		var expr js_ast.Expr
		if isIdentifier && raw == "async" {
			asyncRange := p.lexer.Range()
			p.lexer.Next()
			if p.lexer.Token == js_lexer.TFunction && !p.lexer.HasNewlineBefore {
				p.lexer.Next()
				return p.parseFnStmt(loc, opts, true /* isAsync */)
			}
			expr = p.parseSuffix(p.parseAsyncExpr(asyncRange, js_ast.LLowest), js_ast.LLowest)
		} else {
			var stmt js_ast.Stmt
			expr, stmt = p.parseExprOrLetStmt(opts)
			if stmt.Data != nil {
				p.lexer.ExpectOrInsertSemicolon()
				return stmt
			}
		}

		// Parse a labeled statement
		if ident, ok := expr.Data.(*js_ast.EIdentifier); ok && isIdentifier && p.lexer.Token == js_lexer.TColon {
			p.lexer.Next()
			name := js_ast.LocRef{Loc: expr.Loc, Ref: ident.Ref}
			stmt := p.parseStmt(parseStmtOpts{})
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SLabel{Name: name, Stmt: stmt}}
		}

		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: expr}}
	}
}

// "let" is only a keyword when it starts a declaration. Otherwise it's an
// ordinary identifier, as in "let = 1".
func (p *parser) parseExprOrLetStmt(opts parseStmtOpts) (js_ast.Expr, js_ast.Stmt) {
	if !p.lexer.IsContextualKeyword("let") {
		return p.parseExpr(js_ast.LLowest), js_ast.Stmt{}
	}

	letRange := p.lexer.Range()
	p.lexer.Next()

	switch p.lexer.Token {
	case js_lexer.TIdentifier, js_lexer.TOpenBracket, js_lexer.TOpenBrace:
		decls := p.parseDecls()
		return js_ast.Expr{}, js_ast.Stmt{Loc: letRange.Loc, Data: &js_ast.SLocal{
			Kind:     js_ast.LocalLet,
			Decls:    decls,
			IsExport: opts.isExport,
		}}
	}

	if opts.isExport {
		p.lexer.Unexpected()
	}
	ref := p.storeNameInRef("let")
	expr := js_ast.Expr{Loc: letRange.Loc, Data: &js_ast.EIdentifier{Ref: ref}}
	return p.parseSuffix(expr, js_ast.LLowest), js_ast.Stmt{}
}

// This assumes the "for" keyword has not been parsed yet
func (p *parser) parseForStmt(loc logger.Loc) js_ast.Stmt {
	p.lexer.Next()

	// "for await (let x of y) {}"
	isAwait := p.lexer.IsContextualKeyword("await")
	if isAwait {
		if !p.currentFnOpts.allowAwait {
			p.addRangeError(p.lexer.Range(), "Cannot use \"await\" outside an async function")
			panic(js_lexer.LexerPanic{})
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TOpenParen)

	var initOrNil js_ast.Stmt
	var testOrNil js_ast.Expr
	var updateOrNil js_ast.Expr

	// "in" expressions aren't allowed here
	oldAllowIn := p.allowIn
	p.allowIn = false

	var decls []js_ast.Decl
	initLoc := p.lexer.Loc()
	isVar := false
	isConst := false
	switch p.lexer.Token {
	case js_lexer.TVar:
		isVar = true
		p.lexer.Next()
		decls = p.parseDecls()
		initOrNil = js_ast.Stmt{Loc: initLoc, Data: &js_ast.SLocal{Kind: js_ast.LocalVar, Decls: decls}}

	case js_lexer.TConst:
		isConst = true
		p.lexer.Next()
		decls = p.parseDecls()
		initOrNil = js_ast.Stmt{Loc: initLoc, Data: &js_ast.SLocal{Kind: js_ast.LocalConst, Decls: decls}}

	case js_lexer.TSemicolon:

	default:
		expr, stmt := p.parseExprOrLetStmt(parseStmtOpts{})
		if stmt.Data != nil {
			decls = stmt.Data.(*js_ast.SLocal).Decls
			initOrNil = stmt
		} else {
			initOrNil = js_ast.Stmt{Loc: initLoc, Data: &js_ast.SExpr{Value: expr}}
		}
	}

	// "in" expressions are allowed again
	p.allowIn = oldAllowIn

	// Detect for-of loops
	if p.lexer.IsContextualKeyword("of") || isAwait {
		if isAwait && !p.lexer.IsContextualKeyword("of") {
			if initOrNil.Data != nil {
				p.lexer.ExpectedString("\"of\"")
			} else {
				p.lexer.Unexpected()
			}
		}
		p.forbidInitializers(decls, "of", false)
		p.lexer.Next()
		value := p.parseExprWithAllowIn(js_ast.LComma)
		p.lexer.Expect(js_lexer.TCloseParen)
		body := p.parseStmt(parseStmtOpts{})
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SForOf{IsAwait: isAwait, Init: initOrNil, Value: value, Body: body}}
	}

	// Detect for-in loops
	if p.lexer.Token == js_lexer.TIn {
		p.forbidInitializers(decls, "in", isVar)
		p.lexer.Next()
		value := p.parseExprWithAllowIn(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)
		body := p.parseStmt(parseStmtOpts{})
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SForIn{Init: initOrNil, Value: value, Body: body}}
	}

	// Only require "const" statement initializers when we know we're a normal for loop
	if isConst {
		p.requireInitializers(decls)
	}

	p.lexer.Expect(js_lexer.TSemicolon)

	if p.lexer.Token != js_lexer.TSemicolon {
		testOrNil = p.parseExprWithAllowIn(js_ast.LLowest)
	}

	p.lexer.Expect(js_lexer.TSemicolon)

	if p.lexer.Token != js_lexer.TCloseParen {
		updateOrNil = p.parseExprWithAllowIn(js_ast.LLowest)
	}

	p.lexer.Expect(js_lexer.TCloseParen)
	body := p.parseStmt(parseStmtOpts{})
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SFor{InitOrNil: initOrNil, TestOrNil: testOrNil, UpdateOrNil: updateOrNil, Body: body}}
}

func (p *parser) parseFnBodyStmts(opts fnOpts) []js_ast.Stmt {
	oldFnOpts := p.currentFnOpts
	p.currentFnOpts = opts

	// "in" expressions are always allowed inside a function body
	oldAllowIn := p.allowIn
	p.allowIn = true

	p.lexer.Expect(js_lexer.TOpenBrace)
	stmts := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{allowDirectives: true})
	p.lexer.Next()

	p.allowIn = oldAllowIn
	p.currentFnOpts = oldFnOpts
	return stmts
}

func (p *parser) parseStmtsUpTo(end js_lexer.T, opts parseStmtOpts) []js_ast.Stmt {
	stmts := []js_ast.Stmt{}
	isDirectivePrologue := opts.allowDirectives
	opts.allowDirectives = false

	for p.lexer.Token != end {
		// A directive is a string literal statement at the start of a body. The
		// token has to be checked before parsing because a parenthesized string
		// is not a directive.
		startsWithString := p.lexer.Token == js_lexer.TStringLiteral
		stmt := p.parseStmt(opts)

		if isDirectivePrologue {
			isDirectivePrologue = false
			if s, ok := stmt.Data.(*js_ast.SExpr); ok && startsWithString {
				if str, ok := s.Value.Data.(*js_ast.EString); ok {
					stmt.Data = &js_ast.SDirective{Value: str.Value}
					isDirectivePrologue = true
				}
			}
		}

		stmts = append(stmts, stmt)
	}

	return stmts
}

func Parse(log logger.Log, source logger.Source, options config.Options) (result js_ast.AST, ok bool) {
	ok = true
	defer func() {
		r := recover()
		if _, isLexerPanic := r.(js_lexer.LexerPanic); isLexerPanic {
			ok = false
		} else if r != nil {
			panic(r)
		}
	}()

	p := &parser{
		log:     log,
		source:  source,
		options: options,
		lexer:   js_lexer.NewLexer(log, source),
		allowIn: true,
	}

	// Consume a leading hashbang comment
	hashbang := ""
	if p.lexer.Token == js_lexer.THashbang {
		hashbang = p.lexer.Identifier
		p.lexer.Next()
	}

	// Parse the file in the first pass, but do not declare and bind symbols.
	stmts := p.parseStmtsUpTo(js_lexer.TEndOfFile, parseStmtOpts{
		allowImportAndExport: true,
		allowDirectives:      true,
	})

	kind := js_ast.ScriptAST
	switch options.Format {
	case config.FormatModule:
		kind = js_ast.ModuleAST

	case config.FormatScript:
		if p.importKeyword.Len > 0 {
			p.addRangeError(p.importKeyword, fmt.Sprintf("Cannot use \"import\" syntax when the format is %q", options.Format.String()))
		}
		if p.exportKeyword.Len > 0 {
			p.addRangeError(p.exportKeyword, fmt.Sprintf("Cannot use \"export\" syntax when the format is %q", options.Format.String()))
		}

	default:
		if p.importKeyword.Len > 0 || p.exportKeyword.Len > 0 {
			kind = js_ast.ModuleAST
		}
	}

	// Declare and bind symbols in a second pass over the AST. Doing this in a
	// single pass is pretty much impossible to get right while handling arrow
	// functions because of the grammar ambiguities.
	b := newBinder(log, source, p.allocatedNames, p.importRecords)
	stmts = b.declareAndVisitStmts(stmts)

	result = b.toAST(stmts)
	result.Kind = kind
	result.Hashbang = hashbang
	return
}
