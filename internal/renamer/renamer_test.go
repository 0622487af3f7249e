package renamer

import (
	"testing"

	"github.com/globalmod/globalmod/internal/ast"
	"github.com/globalmod/globalmod/internal/js_ast"
	"github.com/globalmod/globalmod/internal/test"
)

func symbolsForTest(symbols ...js_ast.Symbol) js_ast.SymbolMap {
	symbolMap := js_ast.NewSymbolMap(1)
	for i := range symbols {
		if symbols[i].Link == (ast.Ref{}) {
			symbols[i].Link = ast.InvalidRef
		}
	}
	symbolMap.SymbolsForSource[0] = symbols
	return symbolMap
}

func ref(i uint32) ast.Ref {
	return ast.Ref{SourceIndex: 0, InnerIndex: i}
}

func TestNumberRenamer(t *testing.T) {
	symbols := symbolsForTest(
		js_ast.Symbol{OriginalName: "import_x"},
		js_ast.Symbol{OriginalName: "import_x", Flags: js_ast.IsGenerated},
		js_ast.Symbol{OriginalName: "import_x", Flags: js_ast.IsGenerated},
		js_ast.Symbol{OriginalName: "__ctx", Flags: js_ast.IsGenerated},
		js_ast.Symbol{OriginalName: "if", Flags: js_ast.IsGenerated},
	)

	r := NewNumberRenamer(symbols, ComputeReservedNames(map[string]bool{"import_x": true, "import_x2": true}))
	r.AssignGeneratedNames(0)

	expected := []string{"import_x", "import_x3", "import_x4", "__ctx", "if2"}
	for i, name := range expected {
		test.AssertEqual(t, r.NameForSymbol(ref(uint32(i))), name)
	}
}

func TestNumberRenamerFollowsLinks(t *testing.T) {
	symbols := symbolsForTest(
		js_ast.Symbol{OriginalName: "ns"},
		js_ast.Symbol{OriginalName: "import_x", Flags: js_ast.IsGenerated},
	)
	symbols.SymbolsForSource[0][1].Link = ref(0)

	r := NewNumberRenamer(symbols, ComputeReservedNames(map[string]bool{"ns": true}))
	r.AssignGeneratedNames(0)
	test.AssertEqual(t, r.NameForSymbol(ref(1)), "ns")
}

func TestNoOpRenamer(t *testing.T) {
	symbols := symbolsForTest(
		js_ast.Symbol{OriginalName: "a"},
		js_ast.Symbol{OriginalName: "b"},
	)
	symbols.SymbolsForSource[0][1].Link = ref(0)

	r := NewNoOpRenamer(symbols)
	test.AssertEqual(t, r.NameForSymbol(ref(0)), "a")
	test.AssertEqual(t, r.NameForSymbol(ref(1)), "a")
}
