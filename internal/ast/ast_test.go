package ast

import (
	"testing"

	"github.com/globalmod/globalmod/internal/test"
)

func TestGenerateNonUniqueNameFromPath(t *testing.T) {
	test.AssertEqual(t, GenerateNonUniqueNameFromPath("<stdin>"), "stdin")
	test.AssertEqual(t, GenerateNonUniqueNameFromPath("./x"), "x")
	test.AssertEqual(t, GenerateNonUniqueNameFromPath("foo/bar.js"), "bar")
	test.AssertEqual(t, GenerateNonUniqueNameFromPath("foo/bar.min.js"), "bar_min")
	test.AssertEqual(t, GenerateNonUniqueNameFromPath("trailing//slashes//"), "slashes")
	test.AssertEqual(t, GenerateNonUniqueNameFromPath("path\\on\\windows.js"), "windows")
	test.AssertEqual(t, GenerateNonUniqueNameFromPath("./util/index.js"), "util")
	test.AssertEqual(t, GenerateNonUniqueNameFromPath("node_modules/demo-pkg/index.js"), "demo_pkg")
	test.AssertEqual(t, GenerateNonUniqueNameFromPath("react-dom/client"), "client")
	test.AssertEqual(t, GenerateNonUniqueNameFromPath("123_invalid_identifier.js"), "invalid_identifier")
	test.AssertEqual(t, GenerateNonUniqueNameFromPath("@scope/pkg"), "pkg")
	test.AssertEqual(t, GenerateNonUniqueNameFromPath("..."), "_")
}

func TestImportKind(t *testing.T) {
	test.AssertEqual(t, ImportStmt.IsRuntime(), false)
	test.AssertEqual(t, ImportReExport.IsRuntime(), false)
	test.AssertEqual(t, ImportRequire.IsRuntime(), true)
	test.AssertEqual(t, ImportDynamic.IsRuntime(), true)
	test.AssertEqual(t, ImportDynamic.String(), "dynamic-import")
}

func TestIndex32(t *testing.T) {
	test.AssertEqual(t, Index32{}.IsValid(), false)
	test.AssertEqual(t, MakeIndex32(0).IsValid(), true)
	test.AssertEqual(t, MakeIndex32(7).GetIndex(), uint32(7))
}
