package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runForTest(t *testing.T, stdin string, args ...string) (int, string) {
	t.Helper()
	var stdout bytes.Buffer
	code := runImpl(args, strings.NewReader(stdin), &stdout)
	return code, stdout.String()
}

func writeFile(t *testing.T, dir string, name string, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestTransformStdin(t *testing.T) {
	code, stdout := runForTest(t, "import {a} from './x'; export const y = a", "transform", "--id=5", "--phase=runtime")
	require.Equal(t, 0, code)
	assert.Equal(t, `global.__modules.register(5, function(__ctx) {
  var import_x = __ctx.require("./x");
  const y = import_x.a;
  __y = y;
  __ctx.exports({ y: __y });
});
var __y;
`, stdout)
}

func TestTransformFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "in.js", "import './a'; import './b'")

	code, stdout := runForTest(t, "", "transform", "--id=main", "--phase=runtime",
		"--paths=./a:/lib/a.js", "--dependency=8", "--dependency=9", "--global-name=app.mods", path)
	require.Equal(t, 0, code)
	assert.Equal(t, `global.app.mods.register("main", function(__ctx) {
  __ctx.require("/lib/a.js", 8);
  __ctx.require("./b", 9);
  __ctx.exports({});
});
`, stdout)
}

func TestTransformBundlePhaseIsDefault(t *testing.T) {
	code, stdout := runForTest(t, "a()", "transform", "--id=1")
	require.Equal(t, 0, code)
	assert.Equal(t, `const __deps = {};
global.__modules.register(1, __deps, function(__ctx) {
  a();
});
`, stdout)
}

func TestTransformFailures(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"unknown"},
		{"transform", "--phase=later", "--id=1"},
		{"transform", "--format=amd", "--id=1"},
		{"transform", "--paths=nocolon", "--id=1"},
		{"transform", "--dependency=-1", "--id=1"},
		{"transform", "--color=sometimes", "--id=1"},
		{"transform", "--id=1", filepath.Join(t.TempDir(), "missing.js")},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			code, stdout := runForTest(t, "a()", args...)
			assert.Equal(t, 1, code)
			assert.Empty(t, stdout)
		})
	}

	// Transform errors produce no output
	code, stdout := runForTest(t, "require(a)", "transform", "--id=1")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)

	code, stdout = runForTest(t, "a()", "transform")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)

	code, stdout = runForTest(t, "export let a", "transform", "--id=1", "--format=cjs")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
}

func TestHelp(t *testing.T) {
	code, _ := runForTest(t, "", "--help")
	assert.Equal(t, 0, code)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("GLOBALMOD_PHASE", "runtime")
	t.Setenv("GLOBALMOD_ID", "12")

	code, stdout := runForTest(t, "a()", "transform")
	require.Equal(t, 0, code)
	assert.Equal(t, "global.__modules.register(12, function(__ctx) {\n  a();\n});\n", stdout)

	// Flags take precedence over the environment
	code, stdout = runForTest(t, "a()", "transform", "--id=13")
	require.Equal(t, 0, code)
	assert.Equal(t, "global.__modules.register(13, function(__ctx) {\n  a();\n});\n", stdout)
}

func TestEnvFile(t *testing.T) {
	envFile := writeFile(t, t.TempDir(), "test.env", "GLOBALMOD_GLOBAL_NAME=fromEnvFile\n")
	t.Setenv("GLOBALMOD_ENV_FILE", envFile)
	t.Cleanup(func() { os.Unsetenv("GLOBALMOD_GLOBAL_NAME") })

	code, stdout := runForTest(t, "a()", "transform", "--id=1", "--phase=runtime")
	require.Equal(t, 0, code)
	assert.Equal(t, "global.fromEnvFile.register(1, function(__ctx) {\n  a();\n});\n", stdout)

	// A named file that doesn't exist is an error
	t.Setenv("GLOBALMOD_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	code, _ = runForTest(t, "a()", "transform", "--id=1")
	assert.Equal(t, 1, code)
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	a := writeFile(t, dir, "src/a.js", "export default 1")
	b := writeFile(t, dir, "src/b.js", "require('./a')")

	code, stdout := runForTest(t, "", "batch", "--out-dir", outDir, "--phase=runtime", "-j", "2", a, b)
	require.Equal(t, 0, code)
	assert.Empty(t, stdout)

	aOut, err := os.ReadFile(filepath.Join(outDir, "a.js"))
	require.NoError(t, err)
	assert.Equal(t, `global.__modules.register("`+filepath.ToSlash(a)+`", function(__ctx) {
  __default = 1;
  __ctx.exports({ default: __default });
});
var __default;
`, string(aOut))

	bOut, err := os.ReadFile(filepath.Join(outDir, "b.js"))
	require.NoError(t, err)
	assert.Equal(t, `global.__modules.register("`+filepath.ToSlash(b)+`", function(__ctx) {
  __ctx.require("./a");
});
`, string(bOut))
}

func TestBatchFailures(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	good := writeFile(t, dir, "good.js", "a()")
	bad := writeFile(t, dir, "bad.js", "require(a)")

	// The files without errors are still written
	code, _ := runForTest(t, "", "batch", "--out-dir", outDir, good, bad)
	assert.Equal(t, 1, code)
	assert.FileExists(t, filepath.Join(outDir, "good.js"))
	assert.NoFileExists(t, filepath.Join(outDir, "bad.js"))

	// Two inputs can't share an output file
	other := writeFile(t, dir, "nested/good.js", "b()")
	code, _ = runForTest(t, "", "batch", "--out-dir", filepath.Join(dir, "out2"), good, other)
	assert.Equal(t, 1, code)
	assert.NoDirExists(t, filepath.Join(dir, "out2"))

	// An output directory and at least one file are required
	code, _ = runForTest(t, "", "batch", good)
	assert.Equal(t, 1, code)
	code, _ = runForTest(t, "", "batch", "--out-dir", outDir)
	assert.Equal(t, 1, code)
}

func TestParsePaths(t *testing.T) {
	paths, err := parsePaths([]string{"a:b", "fs:node:fs"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "b", "fs": "node:fs"}, paths)

	paths, err = parsePaths(nil)
	require.NoError(t, err)
	assert.Nil(t, paths)

	for _, value := range []string{"ab", ":b", "a:"} {
		_, err := parsePaths([]string{value})
		assert.EqualError(t, err, "Invalid path mapping: \""+value+"\" (expected from:to)")
	}
}

func TestParseDependencies(t *testing.T) {
	ids, err := parseDependencies([]string{"0", "4294967295"})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 4294967295}, ids)

	ids, err = parseDependencies(nil)
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseDependencies([]string{"4294967296"})
	assert.EqualError(t, err, "Invalid dependency id: \"4294967296\"")
}
