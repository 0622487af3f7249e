package js_printer

import (
	"testing"

	"github.com/globalmod/globalmod/internal/ast"
	"github.com/globalmod/globalmod/internal/config"
	"github.com/globalmod/globalmod/internal/js_ast"
	"github.com/globalmod/globalmod/internal/js_parser"
	"github.com/globalmod/globalmod/internal/logger"
	"github.com/globalmod/globalmod/internal/renamer"
	"github.com/globalmod/globalmod/internal/test"
)

func parseForTest(t *testing.T, contents string) js_ast.AST {
	t.Helper()
	log := logger.NewDeferLog()
	tree, ok := js_parser.Parse(log, test.SourceForTest(contents), config.Options{})
	msgs := log.Done()
	text := ""
	for _, msg := range msgs {
		text += msg.String(logger.StderrOptions{}, logger.TerminalInfo{})
	}
	test.AssertEqualWithDiff(t, text, "")
	if !ok {
		t.Fatal("Parse error")
	}
	return tree
}

func expectPrinted(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		tree := parseForTest(t, contents)
		symbols := js_ast.NewSymbolMap(1)
		symbols.SymbolsForSource[0] = tree.Symbols
		r := renamer.NewNoOpRenamer(symbols)
		js := Print(tree, symbols, r, Options{}).JS
		test.AssertEqualWithDiff(t, string(js), expected)
	})
}

func TestNumber(t *testing.T) {
	expectPrinted(t, "x = 0", "x = 0;\n")
	expectPrinted(t, "x = 123", "x = 123;\n")
	expectPrinted(t, "x = 0.5", "x = 0.5;\n")
	expectPrinted(t, "x = 1e21", "x = 1e21;\n")
	expectPrinted(t, "x = 1e-7", "x = 1e-7;\n")
	expectPrinted(t, "x = 0x10", "x = 16;\n")
	expectPrinted(t, "x = 1..toString()", "x = 1 .toString();\n")
	expectPrinted(t, "x = 10n", "x = 10n;\n")
}

func TestString(t *testing.T) {
	expectPrinted(t, "x = 'abc'", "x = \"abc\";\n")
	expectPrinted(t, "x = 'a\"b'", "x = \"a\\\"b\";\n")
	expectPrinted(t, "x = 'a\\nb'", "x = \"a\\nb\";\n")
	expectPrinted(t, "x = `a${b}c`", "x = `a${b}c`;\n")
	expectPrinted(t, "x = tag`a\\n${b}`", "x = tag`a\\n${b}`;\n")
}

func TestUnaryAndBinary(t *testing.T) {
	expectPrinted(t, "a + b", "a + b;\n")
	expectPrinted(t, "a, b", "a, b;\n")
	expectPrinted(t, "(a + b) * c", "(a + b) * c;\n")
	expectPrinted(t, "a + (b * c)", "a + b * c;\n")
	expectPrinted(t, "a - (b - c)", "a - (b - c);\n")
	expectPrinted(t, "- -a", "- -a;\n")
	expectPrinted(t, "a + +b", "a + +b;\n")
	expectPrinted(t, "a ?? (b || c)", "a ?? (b || c);\n")
	expectPrinted(t, "(-a) ** b", "(-a) ** b;\n")
	expectPrinted(t, "typeof a", "typeof a;\n")
	expectPrinted(t, "a++", "a++;\n")
	expectPrinted(t, "x = a ? b : c", "x = a ? b : c;\n")
	expectPrinted(t, "(a ? b : c) ? d : e", "(a ? b : c) ? d : e;\n")
}

func TestCallAndMember(t *testing.T) {
	expectPrinted(t, "a.b.c()", "a.b.c();\n")
	expectPrinted(t, "a['b-c']", "a[\"b-c\"];\n")
	expectPrinted(t, "a?.b", "a?.b;\n")
	expectPrinted(t, "a?.(b)", "a?.(b);\n")
	expectPrinted(t, "new a()", "new a();\n")
	expectPrinted(t, "new (a())", "new (a())();\n")
	expectPrinted(t, "x = import('./y')", "x = import(\"./y\");\n")
	expectPrinted(t, "x = import.meta", "x = import.meta;\n")
	expectPrinted(t, "/x/g.test(y)", "/x/g.test(y);\n")
}

func TestFunctionAndArrow(t *testing.T) {
	expectPrinted(t, "(function() {})", "(function() {\n});\n")
	expectPrinted(t, "function f(a, b = 1, ...c) { return a }", "function f(a, b = 1, ...c) {\n  return a;\n}\n")
	expectPrinted(t, "async function* f() { yield* await a }", "async function* f() {\n  yield* await a;\n}\n")
	expectPrinted(t, "x = () => ({})", "x = () => ({});\n")
	expectPrinted(t, "x = async (a) => { a }", "x = async (a) => {\n  a;\n};\n")
	expectPrinted(t, "x = (a, b) => a + b", "x = (a, b) => a + b;\n")
}

func TestObjectAndArray(t *testing.T) {
	expectPrinted(t, "({a: 1})", "({ a: 1 });\n")
	expectPrinted(t, "x = {}", "x = {};\n")
	expectPrinted(t, "x = {a, b: c, 'd-e': 1, [f]: 2, ...g}", "x = { a, b: c, \"d-e\": 1, [f]: 2, ...g };\n")
	expectPrinted(t, "x = {get a() { return 1 }}", "x = { get a() {\n  return 1;\n} };\n")
	expectPrinted(t, "x = [1, , 2, ...a]", "x = [1, , 2, ...a];\n")
	expectPrinted(t, "x = [,]", "x = [,];\n")
	expectPrinted(t, "x = {\n  a: 1\n}", "x = {\n  a: 1\n};\n")
}

func TestBinding(t *testing.T) {
	expectPrinted(t, "let {a, b: [c]} = d", "let { a, b: [c] } = d;\n")
	expectPrinted(t, "var [a = 1, ...b] = c", "var [a = 1, ...b] = c;\n")
	expectPrinted(t, "const {a = 1, ...b} = c", "const { a = 1, ...b } = c;\n")
}

func TestClass(t *testing.T) {
	expectPrinted(t, "class A extends B { m() {} }", "class A extends B {\n  m() {\n  }\n}\n")
	expectPrinted(t, "x = class {}", "x = class {\n};\n")
	expectPrinted(t, "class A { static x = 1 }", "class A {\n  static x = 1;\n}\n")
}

func TestStatements(t *testing.T) {
	expectPrinted(t, "if (a) b; else c", "if (a)\n  b;\nelse\n  c;\n")
	expectPrinted(t, "if (a) if (b) c; else d", "if (a)\n  if (b)\n    c;\n  else\n    d;\n")
	expectPrinted(t, "if (a) { if (b) c } else d", "if (a) {\n  if (b)\n    c;\n} else\n  d;\n")
	expectPrinted(t, "if (a) {} else if (b) {}", "if (a) {\n} else if (b) {\n}\n")
	expectPrinted(t, "for (;;) break", "for (;;)\n  break;\n")
	expectPrinted(t, "for (let i = 0; i < 1; i++) {}", "for (let i = 0; i < 1; i++) {\n}\n")
	expectPrinted(t, "for (const a in b) ;", "for (const a in b)\n  ;\n")
	expectPrinted(t, "for (const a of b) {}", "for (const a of b) {\n}\n")
	expectPrinted(t, "while (a) {}", "while (a) {\n}\n")
	expectPrinted(t, "do a(); while (b)", "do\n  a();\nwhile (b);\n")
	expectPrinted(t, "foo: for (;;) break foo", "foo:\n  for (;;)\n    break foo;\n")
	expectPrinted(t, "try { a } catch (e) { b } finally { c }", "try {\n  a;\n} catch (e) {\n  b;\n} finally {\n  c;\n}\n")
	expectPrinted(t, "try { a } catch { b }", "try {\n  a;\n} catch {\n  b;\n}\n")
	expectPrinted(t, "switch (a) { case 1: b; default: c }", "switch (a) {\n  case 1:\n    b;\n  default:\n    c;\n}\n")
	expectPrinted(t, "throw a", "throw a;\n")
	expectPrinted(t, "debugger", "debugger;\n")
	expectPrinted(t, "'use strict'; a", "\"use strict\";\na;\n")
	expectPrinted(t, "#!/usr/bin/env node\na", "#!/usr/bin/env node\na;\n")
}

func TestImportExport(t *testing.T) {
	expectPrinted(t, "import 'x'", "import \"x\";\n")
	expectPrinted(t, "import a, {b as c} from 'x'", "import a, { b as c } from \"x\";\n")
	expectPrinted(t, "import * as ns from 'x'", "import * as ns from \"x\";\n")
	expectPrinted(t, "let a; export {a as b}", "let a;\nexport { a as b };\n")
	expectPrinted(t, "export {a as b} from 'x'", "export { a as b } from \"x\";\n")
	expectPrinted(t, "export * from 'x'", "export * from \"x\";\n")
	expectPrinted(t, "export * as ns from 'x'", "export * as ns from \"x\";\n")
	expectPrinted(t, "export const a = 1", "export const a = 1;\n")
	expectPrinted(t, "export default function() {}", "export default function() {\n}\n")
	expectPrinted(t, "export default 1 + 2", "export default 1 + 2;\n")
	expectPrinted(t, "export default (function() {})", "export default (function() {\n});\n")
}

func TestNamespaceAlias(t *testing.T) {
	tree := parseForTest(t, "import {a, 'b-c' as d} from 'x'; a(); a.b; d")

	// Point both imports at a namespace object
	nsRef := ast.Ref{SourceIndex: 0, InnerIndex: uint32(len(tree.Symbols))}
	tree.Symbols = append(tree.Symbols, js_ast.Symbol{OriginalName: "ns", Kind: js_ast.SymbolOther, Link: ast.InvalidRef})
	for i := range tree.Symbols {
		symbol := &tree.Symbols[i]
		if symbol.Kind != js_ast.SymbolImport {
			continue
		}
		switch symbol.OriginalName {
		case "a":
			symbol.NamespaceAlias = &js_ast.NamespaceAlias{NamespaceRef: nsRef, Alias: "a"}
		case "d":
			symbol.NamespaceAlias = &js_ast.NamespaceAlias{NamespaceRef: nsRef, Alias: "b-c"}
		}
	}

	symbols := js_ast.NewSymbolMap(1)
	symbols.SymbolsForSource[0] = tree.Symbols
	js := Print(tree, symbols, renamer.NewNoOpRenamer(symbols), Options{}).JS
	test.AssertEqualWithDiff(t, string(js), "import { a, \"b-c\" as d } from \"x\";\n(0, ns.a)();\nns.a.b;\nns[\"b-c\"];\n")
}

func TestIndent(t *testing.T) {
	tree := parseForTest(t, "if (a) { b }")
	symbols := js_ast.NewSymbolMap(1)
	symbols.SymbolsForSource[0] = tree.Symbols
	js := Print(tree, symbols, renamer.NewNoOpRenamer(symbols), Options{Indent: 1}).JS
	test.AssertEqualWithDiff(t, string(js), "  if (a) {\n    b;\n  }\n")
}
