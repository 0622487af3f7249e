package globalmod

import (
	"strings"
	"testing"

	"github.com/globalmod/globalmod/internal/config"
	"github.com/globalmod/globalmod/internal/js_ast"
	"github.com/globalmod/globalmod/internal/js_parser"
	"github.com/globalmod/globalmod/internal/js_printer"
	"github.com/globalmod/globalmod/internal/logger"
	"github.com/globalmod/globalmod/internal/renamer"
	"github.com/globalmod/globalmod/internal/test"
)

func transformForTest(contents string, options Options, stderrOptions logger.StderrOptions) (js string, errors string) {
	log := logger.NewDeferLog()
	source := test.SourceForTest(contents)
	tree, ok := js_parser.Parse(log, source, config.Options{})
	if ok && !log.HasErrors() && Transform(log, source, &tree, options) {
		symbols := js_ast.NewSymbolMap(1)
		symbols.SymbolsForSource[0] = tree.Symbols
		r := renamer.NewNumberRenamer(symbols, renamer.ComputeReservedNames(tree.UsedNames))
		r.AssignGeneratedNames(0)
		js = string(js_printer.Print(tree, symbols, r, js_printer.Options{}).JS)
	}
	for _, msg := range log.Done() {
		errors += msg.String(stderrOptions, logger.TerminalInfo{})
	}
	return
}

func expectTransformed(t *testing.T, contents string, options Options, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		js, errors := transformForTest(contents, options, logger.StderrOptions{})
		test.AssertEqualWithDiff(t, errors, "")
		test.AssertEqualWithDiff(t, js, expected)
	})
}

func expectBundle(t *testing.T, contents string, expected string) {
	t.Helper()
	expectTransformed(t, contents, Options{ModuleID: "1", Phase: PhaseBundle}, expected)
}

func expectRuntime(t *testing.T, contents string, expected string) {
	t.Helper()
	expectTransformed(t, contents, Options{ModuleID: "1", Phase: PhaseRuntime}, expected)
}

func expectTransformErrorCommon(t *testing.T, contents string, options Options, stderrOptions logger.StderrOptions, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		js, errors := transformForTest(contents, options, stderrOptions)
		test.AssertEqualWithDiff(t, errors, expected)
		test.AssertEqual(t, js, "")
	})
}

func expectTransformError(t *testing.T, contents string, expected string) {
	t.Helper()
	expectTransformErrorCommon(t, contents, Options{ModuleID: "1"}, logger.StderrOptions{}, expected)
}

func TestImportAndExportConst(t *testing.T) {
	contents := "import {a} from \"./x\"; export const y = a + 1;"

	expectTransformed(t, contents, Options{ModuleID: "7", Phase: PhaseBundle},
		`import { a } from "./x";
const __deps = {
  "./x": () => ({ a })
};
global.__modules.register(7, __deps, function(__ctx) {
  const y = a + 1;
  __y = y;
  __ctx.exports({ y: __y });
});
export { __y as y };
var __y;
`)

	expectTransformed(t, contents, Options{ModuleID: "7", Phase: PhaseRuntime},
		`global.__modules.register(7, function(__ctx) {
  var import_x = __ctx.require("./x");
  const y = import_x.a + 1;
  __y = y;
  __ctx.exports({ y: __y });
});
var __y;
`)
}

func TestExportStar(t *testing.T) {
	expectTransformed(t, "export * from \"./all\";", Options{ModuleID: "3", Phase: PhaseRuntime},
		`global.__modules.register(3, function(__ctx) {
  var import_all = __ctx.require("./all");
  __ctx.exports({ ...import_all });
});
`)

	expectTransformed(t, "export * from \"./all\";", Options{ModuleID: "3", Phase: PhaseBundle},
		`import * as import_all from "./all";
const __deps = {
  "./all": () => import_all
};
global.__modules.register(3, __deps, function(__ctx) {
  __ctx.exports({ ...import_all });
});
export * from "./all";
`)

	// A namespace the module imports itself is reused
	expectBundle(t, "import * as ns from './x'; export * from './x'",
		`import * as ns from "./x";
const __deps = {
  "./x": () => ns
};
global.__modules.register(1, __deps, function(__ctx) {
  __ctx.exports({ ...ns });
});
export * from "./x";
`)
	expectRuntime(t, "import * as ns from './x'; export * from './x'",
		`global.__modules.register(1, function(__ctx) {
  var ns = __ctx.require("./x");
  __ctx.exports({ ...ns });
});
`)

	expectBundle(t, "export * as ns from './x'",
		`import * as import_x from "./x";
const __deps = {
  "./x": () => import_x
};
global.__modules.register(1, __deps, function(__ctx) {
  __ns = import_x;
  __ctx.exports({ ns: __ns });
});
export { __ns as ns };
var __ns;
`)
	expectRuntime(t, "export * as ns from './x'",
		`global.__modules.register(1, function(__ctx) {
  var import_x = __ctx.require("./x");
  __ns = import_x;
  __ctx.exports({ ns: __ns });
});
var __ns;
`)
}

func TestExportFrom(t *testing.T) {
	expectBundle(t, "export {a as b, c} from './x'",
		`import * as import_x from "./x";
const __deps = {
  "./x": () => import_x
};
global.__modules.register(1, __deps, function(__ctx) {
  __b = import_x.a, __c = import_x.c;
  __ctx.exports({ b: __b, c: __c });
});
export { __b as b, __c as c };
var __b, __c;
`)
	expectRuntime(t, "export {default as a, 'b-c' as d} from './x'",
		`global.__modules.register(1, function(__ctx) {
  var import_x = __ctx.require("./x");
  __a = import_x.default, __d = import_x["b-c"];
  __ctx.exports({ a: __a, d: __d });
});
var __a, __d;
`)
}

func TestExportClause(t *testing.T) {
	expectBundle(t, "import a from './a'; let c = 1; export {a as b, c}",
		`import a from "./a";
const __deps = {
  "./a": () => ({ default: a })
};
global.__modules.register(1, __deps, function(__ctx) {
  let c = 1;
  __b = a, __c = c;
  __ctx.exports({ b: __b, c: __c });
});
export { __b as b, __c as c };
var __b, __c;
`)
	expectRuntime(t, "import a from './a'; let c = 1; export {a as b, c}",
		`global.__modules.register(1, function(__ctx) {
  var import_a = __ctx.require("./a");
  let c = 1;
  __b = import_a.default, __c = c;
  __ctx.exports({ b: __b, c: __c });
});
var __b, __c;
`)

	// Keywords are valid export names
	expectRuntime(t, "let a; export {a as if}",
		`global.__modules.register(1, function(__ctx) {
  let a;
  __if = a;
  __ctx.exports({ if: __if });
});
var __if;
`)
}

func TestExportDeclarations(t *testing.T) {
	expectRuntime(t, "f(); export function f() {} export class C {}",
		`global.__modules.register(1, function(__ctx) {
  f();
  function f() {
  }
  class C {
  }
  __f = f, __C = C;
  __ctx.exports({ f: __f, C: __C });
});
var __f, __C;
`)

	expectRuntime(t, "export let {a, b: [c]} = obj",
		`global.__modules.register(1, function(__ctx) {
  let { a, b: [c] } = obj;
  __a = a, __c = c;
  __ctx.exports({ a: __a, c: __c });
});
var __a, __c;
`)
}

func TestExportDefault(t *testing.T) {
	expectBundle(t, "export default function() { return 1 }",
		`const __deps = {};
global.__modules.register(1, __deps, function(__ctx) {
  function _default() {
    return 1;
  }
  __default = _default;
  __ctx.exports({ default: __default });
});
export { __default as default };
var __default;
`)

	expectRuntime(t, "export default class {}",
		`global.__modules.register(1, function(__ctx) {
  class _default {
  }
  __default = _default;
  __ctx.exports({ default: __default });
});
var __default;
`)

	expectRuntime(t, "export default class Foo {}",
		`global.__modules.register(1, function(__ctx) {
  class Foo {
  }
  __default = Foo;
  __ctx.exports({ default: __default });
});
var __default;
`)

	// Expressions are captured where they are evaluated
	expectRuntime(t, "a(); export default 1 + 2; b()",
		`global.__modules.register(1, function(__ctx) {
  a();
  __default = 1 + 2;
  b();
  __ctx.exports({ default: __default });
});
var __default;
`)

	// The generated name doesn't collide with user names
	expectRuntime(t, "let _default; export default function() {}",
		`global.__modules.register(1, function(__ctx) {
  let _default;
  function _default2() {
  }
  __default = _default2;
  __ctx.exports({ default: __default });
});
var __default;
`)
}

func TestDedupAndOrder(t *testing.T) {
	contents := "import a from './a'; import {b} from './b'; import {c, a as d} from './a'; import './c'; import {c as e} from './a'; d(b, e)"

	expectBundle(t, contents,
		`import a from "./a";
import { b } from "./b";
import { c, a as d } from "./a";
import "./c";
import { c as e } from "./a";
const __deps = {
  "./a": () => ({ default: a, c, a: d }),
  "./b": () => ({ b }),
  "./c": () => ({})
};
global.__modules.register(1, __deps, function(__ctx) {
  d(b, e);
  __ctx.exports({});
});
`)

	expectTransformed(t, contents, Options{ModuleID: "1", Phase: PhaseRuntime, Dependencies: []uint32{10, 20, 30}},
		`global.__modules.register(1, function(__ctx) {
  var import_a = __ctx.require("./a", 10);
  var import_b = __ctx.require("./b", 20);
  __ctx.require("./c", 30);
  (0, import_a.a)(import_b.b, import_a.c);
  __ctx.exports({});
});
`)

	// A named "default" import is the same binding as a default import
	contents = "import a from './x'; import {default as b} from './x'; f(a, b)"
	expectBundle(t, contents,
		`import a from "./x";
import { default as b } from "./x";
const __deps = {
  "./x": () => ({ default: a })
};
global.__modules.register(1, __deps, function(__ctx) {
  f(a, b);
  __ctx.exports({});
});
`)
	expectRuntime(t, contents,
		`global.__modules.register(1, function(__ctx) {
  var import_x = __ctx.require("./x");
  f(import_x.default, import_x.default);
  __ctx.exports({});
});
`)

	// Duplicate namespace imports share one namespace at run time
	expectRuntime(t, "import * as a from './x'; import * as b from './x'; a.f(b)",
		`global.__modules.register(1, function(__ctx) {
  var a = __ctx.require("./x");
  a.f(a);
  __ctx.exports({});
});
`)
}

func TestRequire(t *testing.T) {
	contents := "const x = require('./x'); module.exports = x;"

	expectBundle(t, contents,
		`const __deps = {
  "./x": null
};
global.__modules.register(1, __deps, function(__ctx) {
  const x = __ctx.require("./x");
  module.exports = x;
});
`)
	expectRuntime(t, contents,
		`global.__modules.register(1, function(__ctx) {
  const x = __ctx.require("./x");
  module.exports = x;
});
`)

	// Nested calls are rewritten too
	expectRuntime(t, "function f() { return () => [require('./x')] }",
		`global.__modules.register(1, function(__ctx) {
  function f() {
    return () => [__ctx.require("./x")];
  }
});
`)

	// A local variable named "require" is left alone
	expectRuntime(t, "function f(require) { return require(a) }",
		`global.__modules.register(1, function(__ctx) {
  function f(require) {
    return require(a);
  }
});
`)

	// The same specifier merges with an import, keeping the first position
	expectBundle(t, "const b = require('./b'); import a from './a'; require('./a')",
		`import a from "./a";
const __deps = {
  "./b": null,
  "./a": () => ({ default: a })
};
global.__modules.register(1, __deps, function(__ctx) {
  const b = __ctx.require("./b");
  __ctx.require("./a");
  __ctx.exports({});
});
`)

	// Runtime dependencies don't take a dependency id
	expectTransformed(t, "import './a'; require('./b')", Options{ModuleID: "1", Phase: PhaseRuntime, Dependencies: []uint32{5}},
		`global.__modules.register(1, function(__ctx) {
  __ctx.require("./a", 5);
  __ctx.require("./b");
  __ctx.exports({});
});
`)

	// Extra arguments are dropped, keeping the ones with side effects
	expectRuntime(t, "const x = require('./x', 'y', 1); const z = require('./z', f(require('./w')))",
		`global.__modules.register(1, function(__ctx) {
  const x = __ctx.require("./x");
  const z = (f(__ctx.require("./w")), __ctx.require("./z"));
});
`)
}

func TestImportRecordKinds(t *testing.T) {
	log := logger.NewDeferLog()
	source := test.SourceForTest("import './a'; require('./b'); import('./c'); require('./a'); export * from './d'")
	tree, ok := js_parser.Parse(log, source, config.Options{})
	test.AssertEqual(t, ok, true)
	test.AssertEqual(t, Transform(log, source, &tree, Options{ModuleID: "1", Phase: PhaseRuntime}), true)
	test.AssertEqual(t, len(log.Done()), 0)

	var records []string
	for _, record := range tree.ImportRecords {
		records = append(records, record.Path+":"+record.Kind.String())
	}
	test.AssertEqualWithDiff(t, strings.Join(records, " "),
		"./a:import-statement ./d:re-export ./b:require-call ./c:dynamic-import ./a:require-call")

	// A runtime sighting doesn't demote a static dependency
	expectBundle(t, "require('./a'); import('./b'); import {x} from './a'; x()",
		`import { x } from "./a";
const __deps = {
  "./a": () => ({ x }),
  "./b": null
};
global.__modules.register(1, __deps, function(__ctx) {
  __ctx.require("./a");
  __ctx.require("./b");
  x();
  __ctx.exports({});
});
`)
}

func TestImportCall(t *testing.T) {
	expectBundle(t, "import('./y').then(f); import(name, {with: {}})",
		`const __deps = {
  "./y": null
};
global.__modules.register(1, __deps, function(__ctx) {
  __ctx.require("./y").then(f);
  __ctx.require(name);
});
`)
}

func TestPaths(t *testing.T) {
	options := Options{
		ModuleID: "1",
		Paths:    map[string]string{"~/x": "./x"},
	}
	expectTransformed(t, "import a from '~/x'; const b = require('~/x'); import('./x')", options,
		`import a from "./x";
const __deps = {
  "./x": () => ({ default: a })
};
global.__modules.register(1, __deps, function(__ctx) {
  const b = __ctx.require("./x");
  __ctx.require("./x");
  __ctx.exports({});
});
`)
}

func TestDirectivesAndHashbang(t *testing.T) {
	expectRuntime(t, "'use strict'; import a from './a'; a()",
		`global.__modules.register(1, function(__ctx) {
  "use strict";
  var import_a = __ctx.require("./a");
  (0, import_a.default)();
  __ctx.exports({});
});
`)

	expectRuntime(t, "#!/usr/bin/env node\nrequire('./x')",
		`#!/usr/bin/env node
global.__modules.register(1, function(__ctx) {
  __ctx.require("./x");
});
`)
}

func TestHygiene(t *testing.T) {
	expectRuntime(t, "import {a} from './x'; const __ctx = 1, import_x = 2; export {a}",
		`global.__modules.register(1, function(__ctx2) {
  var import_x2 = __ctx2.require("./x");
  const __ctx = 1, import_x = 2;
  __a = import_x2.a;
  __ctx2.exports({ a: __a });
});
var __a;
`)

	expectBundle(t, "let __deps, __y; export {__deps as y}",
		`const __deps2 = {};
global.__modules.register(1, __deps2, function(__ctx) {
  let __deps, __y;
  __y2 = __deps;
  __ctx.exports({ y: __y2 });
});
export { __y2 as y };
var __y2;
`)
}

func TestModuleIDAndGlobalName(t *testing.T) {
	expectTransformed(t, "a()", Options{ModuleID: "abc", Phase: PhaseRuntime},
		`global.__modules.register("abc", function(__ctx) {
  a();
});
`)
	expectTransformed(t, "a()", Options{ModuleID: "007", Phase: PhaseRuntime},
		`global.__modules.register("007", function(__ctx) {
  a();
});
`)
	expectTransformed(t, "a()", Options{ModuleID: "1", Phase: PhaseRuntime, GlobalName: "app['my-modules'].v2"},
		`global.app["my-modules"].v2.register(1, function(__ctx) {
  a();
});
`)
}

func TestScriptAndModuleFormat(t *testing.T) {
	// Scripts don't publish anything
	expectRuntime(t, "a()",
		`global.__modules.register(1, function(__ctx) {
  a();
});
`)

	// "import.meta" makes a file a module
	expectRuntime(t, "a(import.meta)",
		`global.__modules.register(1, function(__ctx) {
  a(import.meta);
  __ctx.exports({});
});
`)
}

func TestErrors(t *testing.T) {
	expectTransformError(t, "require(a)", "<stdin>: error: \"require\" must be called with a string literal\n")
	expectTransformError(t, "require()", "<stdin>: error: \"require\" must be called with a string literal\n")
	expectTransformError(t, "require(a, './b')", "<stdin>: error: \"require\" must be called with a string literal\n")
	expectTransformError(t, "x = import(a + b)", "<stdin>: error: \"import()\" must be called with a string literal or an identifier\n")
	expectTransformError(t, "let a; export {a as 'b'}", "<stdin>: error: Exporting under a string literal name is not supported\n")
	expectTransformError(t, "export * as 'b' from 'x'", "<stdin>: error: Exporting under a string literal name is not supported\n")
	expectTransformError(t, "export const a = 1, b = 2", "<stdin>: error: Cannot export a declaration with more than one declarator\n")

	// Only the first error is reported
	expectTransformError(t, "require(a); require(b)", "<stdin>: error: \"require\" must be called with a string literal\n")

	expectTransformErrorCommon(t, "a()", Options{}, logger.StderrOptions{}, "error: Missing module id\n")
	expectTransformErrorCommon(t, "import './a'; import './b'; require('./c')", Options{ModuleID: "1", Dependencies: []uint32{1}},
		logger.StderrOptions{}, "error: Expected 2 dependency ids but got 1\n")
	expectTransformErrorCommon(t, "a()", Options{ModuleID: "1", GlobalName: "1"},
		logger.StderrOptions{}, "(global name): error: Expected identifier but found \"1\"\n")
}

func TestErrorLocations(t *testing.T) {
	withSource := logger.StderrOptions{IncludeSource: true}
	expectTransformErrorCommon(t, "x = require(a)", Options{ModuleID: "1"}, withSource,
		"<stdin>:1:4: error: \"require\" must be called with a string literal\nx = require(a)\n    ~~~~~~~\n")
	expectTransformErrorCommon(t, "x = import(a.b)", Options{ModuleID: "1"}, withSource,
		"<stdin>:1:4: error: \"import()\" must be called with a string literal or an identifier\nx = import(a.b)\n    ~~~~~~\n")
	expectTransformErrorCommon(t, "let a; export {a as \"b\"}", Options{ModuleID: "1"}, withSource,
		"<stdin>:1:20: error: Exporting under a string literal name is not supported\nlet a; export {a as \"b\"}\n                    ~~~\n")
}

func TestParsePhase(t *testing.T) {
	for _, text := range []string{"", "bundle", "register"} {
		phase, err := ParsePhase(text)
		test.AssertEqual(t, err, nil)
		test.AssertEqual(t, phase, PhaseBundle)
	}

	phase, err := ParsePhase("runtime")
	test.AssertEqual(t, err, nil)
	test.AssertEqual(t, phase, PhaseRuntime)
	test.AssertEqual(t, phase.String(), "runtime")

	_, err = ParsePhase("static")
	test.AssertEqualWithDiff(t, err.Error(), "Invalid phase: \"static\" (valid: bundle, runtime)")

	test.AssertEqual(t, PhaseBundle.KeepImports(), true)
	test.AssertEqual(t, PhaseRuntime.KeepImports(), false)
	test.AssertEqual(t, PhaseRuntime.EmitDependencyTable(), false)
	test.AssertEqual(t, PhaseRuntime.KeepExportSyntax(), false)
	test.AssertEqual(t, PhaseRuntime.ListRuntimeDeps(), false)
}
