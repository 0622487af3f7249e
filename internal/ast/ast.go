package ast

// This file contains data structures that are shared by the parser, the
// rewriter, and the printer. They identify symbols and dependencies without
// referring to any particular syntax tree node.

import (
	"strings"

	"github.com/globalmod/globalmod/internal/logger"
)

type ImportKind uint8

const (
	// An ES6 import statement
	ImportStmt ImportKind = iota

	// An ES6 re-export statement ("export {x} from" or "export * from")
	ImportReExport

	// A call to "require()"
	ImportRequire

	// An "import()" expression
	ImportDynamic
)

func (kind ImportKind) String() string {
	switch kind {
	case ImportStmt:
		return "import-statement"
	case ImportReExport:
		return "re-export"
	case ImportRequire:
		return "require-call"
	case ImportDynamic:
		return "dynamic-import"
	default:
		panic("Internal error")
	}
}

// Runtime imports are resolved lazily by calling the module context instead
// of being hoisted into the dependency table
func (kind ImportKind) IsRuntime() bool {
	return kind == ImportRequire || kind == ImportDynamic
}

// The parser records one of these for every import statement and re-export
// statement so that passes after it can inspect and rewrite specifiers
// without searching the tree.
type ImportRecord struct {
	Path  string
	Range logger.Range
	Kind  ImportKind
}

// Files are parsed one at a time, so "SourceIndex" is almost always zero. It
// is still tracked so that symbols from different inputs can never be
// confused with each other.
type Ref struct {
	SourceIndex uint32
	InnerIndex  uint32
}

var InvalidRef Ref = Ref{^uint32(0), ^uint32(0)}

// This stores a 32-bit index where the zero value is an invalid index. This is
// a better alternative to storing the index as a pointer since that has the
// same properties but takes up more space and costs an extra pointer traversal.
type Index32 struct {
	flippedBits uint32
}

func MakeIndex32(index uint32) Index32 {
	return Index32{flippedBits: ^index}
}

func (i Index32) IsValid() bool {
	return i.flippedBits != 0
}

func (i Index32) GetIndex() uint32 {
	return ^i.flippedBits
}

// Splits a path into its directory, its base name without the extension, and
// the extension. Both slash directions are treated as separators.
func PlatformIndependentPathDirBaseExt(path string) (dir string, base string, ext string) {
	for {
		i := strings.LastIndexAny(path, "/\\")

		// Stop if there are no more slashes
		if i < 0 {
			base = path
			break
		}

		// Stop if we found a non-trailing slash
		if i+1 != len(path) {
			dir, base = path[:i], path[i+1:]
			break
		}

		// Ignore trailing slashes
		path = path[:i]
	}

	// Strip off the extension
	if dot := strings.LastIndexByte(base, '.'); dot >= 0 {
		base, ext = base[:dot], base[dot:]
	}

	return
}

// For readability, the names of certain automatically-generated symbols are
// derived from the module specifier. For example, the namespace for
// "./util/index.js" is "import_util".
func GenerateNonUniqueNameFromPath(path string) string {
	// Get the file name without the extension
	dir, base, _ := PlatformIndependentPathDirBaseExt(path)

	// If the name is "index", use the directory name instead. This is because
	// many packages in npm use the file name "index.js" because it triggers
	// node's implicit module resolution rules that allows you to import it by
	// just naming the directory.
	if base == "index" {
		_, dirBase, _ := PlatformIndependentPathDirBaseExt(dir)
		if dirBase != "" {
			base = dirBase
		}
	}

	// Convert it to an ASCII identifier
	bytes := []byte{}
	needsGap := false
	for _, c := range base {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (len(bytes) > 0 && c >= '0' && c <= '9') {
			if needsGap {
				bytes = append(bytes, '_')
				needsGap = false
			}
			bytes = append(bytes, byte(c))
		} else if len(bytes) > 0 {
			needsGap = true
		}
	}

	// Make sure the name isn't empty
	if len(bytes) == 0 {
		return "_"
	}
	return string(bytes)
}
