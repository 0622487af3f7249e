package js_parser

import (
	"strings"
	"testing"

	"github.com/globalmod/globalmod/internal/config"
	"github.com/globalmod/globalmod/internal/js_ast"
	"github.com/globalmod/globalmod/internal/js_printer"
	"github.com/globalmod/globalmod/internal/logger"
	"github.com/globalmod/globalmod/internal/renamer"
	"github.com/globalmod/globalmod/internal/test"
)

func expectParseErrorCommon(t *testing.T, contents string, expected string, options config.Options) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		log := logger.NewDeferLog()
		Parse(log, test.SourceForTest(contents), options)
		msgs := log.Done()
		text := ""
		for _, msg := range msgs {
			text += msg.String(logger.StderrOptions{}, logger.TerminalInfo{})
		}
		test.AssertEqualWithDiff(t, text, expected)
	})
}

func expectParseError(t *testing.T, contents string, expected string) {
	t.Helper()
	expectParseErrorCommon(t, contents, expected, config.Options{})
}

func expectPrintedCommon(t *testing.T, contents string, expected string, options config.Options) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		log := logger.NewDeferLog()
		tree, ok := Parse(log, test.SourceForTest(contents), options)
		msgs := log.Done()
		text := ""
		for _, msg := range msgs {
			if msg.Kind != logger.Warning {
				text += msg.String(logger.StderrOptions{}, logger.TerminalInfo{})
			}
		}
		test.AssertEqualWithDiff(t, text, "")
		if !ok {
			t.Fatal("Parse error")
		}
		symbols := js_ast.NewSymbolMap(1)
		symbols.SymbolsForSource[0] = tree.Symbols
		r := renamer.NewNoOpRenamer(symbols)
		js := js_printer.Print(tree, symbols, r, js_printer.Options{}).JS
		test.AssertEqualWithDiff(t, string(js), expected)
	})
}

func expectPrinted(t *testing.T, contents string, expected string) {
	t.Helper()
	expectPrintedCommon(t, contents, expected, config.Options{})
}

func parseForTest(t *testing.T, contents string, options config.Options) js_ast.AST {
	t.Helper()
	log := logger.NewDeferLog()
	tree, ok := Parse(log, test.SourceForTest(contents), options)
	if !ok || log.HasErrors() {
		t.Fatalf("Unexpected parse error for %q", contents)
	}
	return tree
}

func findSymbols(tree js_ast.AST, name string) (result []*js_ast.Symbol) {
	for i := range tree.Symbols {
		if tree.Symbols[i].OriginalName == name {
			result = append(result, &tree.Symbols[i])
		}
	}
	return
}

func TestSyntaxErrors(t *testing.T) {
	expectParseError(t, "a b", "<stdin>: error: Expected \";\" but found \"b\"\n")
	expectParseError(t, "(", "<stdin>: error: Unexpected end of file\n")
	expectParseError(t, "'abc", "<stdin>: error: Unterminated string literal\n")
	expectParseError(t, "const a", "<stdin>: error: This constant must be initialized\n")
	expectParseError(t, "throw\na", "<stdin>: error: Unexpected newline after \"throw\"\n")
	expectParseError(t, "switch (a) { default: default: }", "<stdin>: error: Multiple default clauses are not allowed\n")
	expectParseError(t, "for (let a, b of c) ;", "<stdin>: error: for-of loops must have a single declaration\n")
}

func TestFormat(t *testing.T) {
	script := config.Options{Format: config.FormatScript}
	expectParseErrorCommon(t, "import 'x'", "<stdin>: error: Cannot use \"import\" syntax when the format is \"cjs\"\n", script)
	expectParseErrorCommon(t, "export let a", "<stdin>: error: Cannot use \"export\" syntax when the format is \"cjs\"\n", script)

	test.AssertEqual(t, parseForTest(t, "a()", config.Options{}).Kind, js_ast.ScriptAST)
	test.AssertEqual(t, parseForTest(t, "import 'x'", config.Options{}).Kind, js_ast.ModuleAST)
	test.AssertEqual(t, parseForTest(t, "export {}", config.Options{}).Kind, js_ast.ModuleAST)
	test.AssertEqual(t, parseForTest(t, "a()", config.Options{Format: config.FormatModule}).Kind, js_ast.ModuleAST)

	// "import()" doesn't make a file a module
	test.AssertEqual(t, parseForTest(t, "import('x')", config.Options{}).Kind, js_ast.ScriptAST)
}

func TestImportRecords(t *testing.T) {
	// Only static imports get records. Calls are found later by the rewriter.
	tree := parseForTest(t, "import a from './a'; export * from './b'; require('./c'); import('./d'); export {x} from './e'", config.Options{})
	test.AssertEqual(t, len(tree.ImportRecords), 3)

	var paths []string
	for _, record := range tree.ImportRecords {
		paths = append(paths, record.Path+":"+record.Kind.String())
	}
	test.AssertEqualWithDiff(t, strings.Join(paths, " "),
		"./a:import-statement ./b:re-export ./e:re-export")
}

func TestDirectivesAndHashbang(t *testing.T) {
	tree := parseForTest(t, "#!/usr/bin/env node\n'use strict'; 'use foo'; a()", config.Options{})
	test.AssertEqual(t, tree.Hashbang, "#!/usr/bin/env node")
	test.AssertEqualWithDiff(t, strings.Join(tree.Directives, ","), "use strict,use foo")
}

func TestDuplicateDeclarations(t *testing.T) {
	expectParseError(t, "let a; let a", "<stdin>: error: \"a\" has already been declared\n")
	expectParseError(t, "let a; var a", "<stdin>: error: \"a\" has already been declared\n")
	expectParseError(t, "class a {} let a", "<stdin>: error: \"a\" has already been declared\n")
	expectParseError(t, "import a from 'x'; let a", "<stdin>: error: \"a\" has already been declared\n")
	expectParseError(t, "let a; { var a }", "<stdin>: error: \"a\" has already been declared\n")

	expectParseError(t, "var a; var a", "")
	expectParseError(t, "function a() {} var a", "")
	expectParseError(t, "function f(a) { var a }", "")
	expectParseError(t, "let a; { let a }", "")
	expectParseError(t, "try {} catch (e) { var e }", "")
	expectParseError(t, "function f() { var arguments }", "")
}

func TestExportErrors(t *testing.T) {
	expectParseError(t, "export let a; export {a}", "<stdin>: error: Multiple exports with the same name \"a\"\n")
	expectParseError(t, "export default 1; export default 2", "<stdin>: error: Multiple exports with the same name \"default\"\n")
	expectParseError(t, "export * as a from 'x'; export {a} from 'y'", "<stdin>: error: Multiple exports with the same name \"a\"\n")
	expectParseError(t, "export {a}", "<stdin>: error: \"a\" is not declared in this file\n")
	expectParseError(t, "export {a}; var a", "")
	expectParseError(t, "export {a}; function a() {}", "")
	expectParseError(t, "export * from 'x'; export * from 'y'", "")
}

func TestImportAssignment(t *testing.T) {
	expectParseError(t, "import a from 'x'; a = 1", "<stdin>: error: Cannot assign to import \"a\"\n")
	expectParseError(t, "import {a} from 'x'; a++", "<stdin>: error: Cannot assign to import \"a\"\n")
	expectParseError(t, "import * as ns from 'x'; ns = 1", "<stdin>: error: Cannot assign to import \"ns\"\n")
	expectParseError(t, "import {a} from 'x'; a.b = 1", "")
	expectParseError(t, "import {a} from 'x'; function f(a) { a = 1 }", "")
}

func TestLabels(t *testing.T) {
	expectParseError(t, "break a", "<stdin>: error: There is no containing label named \"a\"\n")
	expectParseError(t, "a: { continue a }", "<stdin>: error: Cannot continue to label \"a\"\n")
	expectParseError(t, "a: for (;;) { b: { continue a } }", "")
	expectParseError(t, "a: { break a }", "")

	expectPrinted(t, "a: { break a }", "a: {\n  break a;\n}\n")
}

func TestBinding(t *testing.T) {
	// Forward references to module-level declarations resolve to the declaration
	tree := parseForTest(t, "a(); function a() {}", config.Options{})
	symbols := findSymbols(tree, "a")
	test.AssertEqual(t, len(symbols), 1)
	test.AssertEqual(t, symbols[0].Kind, js_ast.SymbolHoistedFunction)

	// Globals stay unbound
	tree = parseForTest(t, "console.log(1)", config.Options{})
	symbols = findSymbols(tree, "console")
	test.AssertEqual(t, len(symbols), 1)
	test.AssertEqual(t, symbols[0].Kind, js_ast.SymbolUnbound)
	test.AssertEqual(t, tree.UsedNames["console"], true)

	// Imports are marked so they can be rewritten later
	tree = parseForTest(t, "import a, {b as c} from 'x'; import * as d from 'y'", config.Options{})
	for _, name := range []string{"a", "c", "d"} {
		symbols = findSymbols(tree, name)
		test.AssertEqual(t, len(symbols), 1)
		test.AssertEqual(t, symbols[0].Kind, js_ast.SymbolImport)
	}

	// Exported declarations are flagged
	tree = parseForTest(t, "export const a = 1; let b; export {b as c}; let d", config.Options{})
	test.AssertEqual(t, findSymbols(tree, "a")[0].Flags.Has(js_ast.IsExported), true)
	test.AssertEqual(t, findSymbols(tree, "b")[0].Flags.Has(js_ast.IsExported), true)
	test.AssertEqual(t, findSymbols(tree, "d")[0].Flags.Has(js_ast.IsExported), false)
}

func TestPrinted(t *testing.T) {
	expectPrinted(t, "let a = 1, b = a", "let a = 1, b = a;\n")
	expectPrinted(t, "x = (a, b) => a", "x = (a, b) => a;\n")
	expectPrinted(t, "x = async a => a", "x = async (a) => a;\n")
	expectPrinted(t, "x = function f() { return f }", "x = function f() {\n  return f;\n};\n")
	expectPrinted(t, "x = class A { static m() { return A } }", "x = class A {\n  static m() {\n    return A;\n  }\n};\n")
	expectPrinted(t, "x = { async *m() {} }", "x = { async *m() {\n} };\n")
	expectPrinted(t, "({ a, b } = c)", "({ a, b } = c);\n")
	expectPrinted(t, "[a, b] = c", "[a, b] = c;\n")
	expectPrinted(t, "for (var i in a) ;", "for (var i in a)\n  ;\n")
	expectPrinted(t, "x = a?.b?.[c]?.(d)", "x = a?.b?.[c]?.(d);\n")
	expectPrinted(t, "x = new.target", "x = new.target;\n")
	expectPrinted(t, "class A { #a = 1; m() { return this.#a } }", "class A {\n  #a = 1;\n  m() {\n    return this.#a;\n  }\n}\n")
}

func TestParseGlobalName(t *testing.T) {
	expect := func(text string, expected string) {
		t.Helper()
		t.Run(text, func(t *testing.T) {
			t.Helper()
			log := logger.NewDeferLog()
			parts, ok := ParseGlobalName(log, test.SourceForTest(text))
			if expected == "" {
				test.AssertEqual(t, ok, false)
				return
			}
			test.AssertEqual(t, ok, true)
			test.AssertEqualWithDiff(t, strings.Join(parts, "|"), expected)
		})
	}

	expect("__modules", "__modules")
	expect("app.modules", "app|modules")
	expect("app['my-modules'].x", "app|my-modules|x")
	expect("a.default", "a|default")
	expect("a.", "")
	expect("1", "")
	expect("a b", "")
}
