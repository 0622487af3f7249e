package api_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/globalmod/globalmod/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform(t *testing.T) {
	result := api.Transform("import {a} from \"./x\"; export const y = a + 1;", api.TransformOptions{
		ModuleID: "7",
		Phase:    api.PhaseRuntime,
	})
	require.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, `global.__modules.register(7, function(__ctx) {
  var import_x = __ctx.require("./x");
  const y = import_x.a + 1;
  __y = y;
  __ctx.exports({ y: __y });
});
var __y;
`, string(result.Code))
}

func TestTransformOptions(t *testing.T) {
	result := api.Transform("import './a'; import './b'", api.TransformOptions{
		ModuleID:     "app",
		Phase:        api.PhaseRuntime,
		Paths:        map[string]string{"./a": "/lib/a.js"},
		Dependencies: []uint32{3, 4},
		GlobalName:   "mods",
	})
	require.Empty(t, result.Errors)
	assert.Equal(t, `global.mods.register("app", function(__ctx) {
  __ctx.require("/lib/a.js", 3);
  __ctx.require("./b", 4);
  __ctx.exports({});
});
`, string(result.Code))
}

func TestTransformFormat(t *testing.T) {
	result := api.Transform("a()", api.TransformOptions{ModuleID: "1", Format: api.FormatESModule, Phase: api.PhaseRuntime})
	require.Empty(t, result.Errors)
	assert.Equal(t, `global.__modules.register(1, function(__ctx) {
  a();
  __ctx.exports({});
});
`, string(result.Code))

	result = api.Transform("export let a", api.TransformOptions{ModuleID: "1", Format: api.FormatCommonJS, Sourcefile: "a.js"})
	assert.Nil(t, result.Code)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Cannot use \"export\" syntax when the format is \"cjs\"", result.Errors[0].Text)
	assert.Equal(t, &api.Location{
		File:     "a.js",
		Line:     1,
		Column:   0,
		Length:   6,
		LineText: "export let a",
	}, result.Errors[0].Location)
}

func TestTransformErrors(t *testing.T) {
	result := api.Transform("x = require(a)", api.TransformOptions{ModuleID: "1"})
	assert.Nil(t, result.Code)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "\"require\" must be called with a string literal", result.Errors[0].Text)
	require.NotNil(t, result.Errors[0].Location)
	assert.Equal(t, "<stdin>", result.Errors[0].Location.File)
	assert.Equal(t, 4, result.Errors[0].Location.Column)
	assert.Equal(t, 7, result.Errors[0].Location.Length)

	result = api.Transform("a()", api.TransformOptions{})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Missing module id", result.Errors[0].Text)
	assert.Nil(t, result.Errors[0].Location)

	result = api.Transform("a()", api.TransformOptions{ModuleID: "1", Paths: map[string]string{"": "x"}})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Invalid path mapping with an empty specifier (to \"x\")", result.Errors[0].Text)
	assert.Nil(t, result.Code)
}

func TestService(t *testing.T) {
	service, err := api.NewService(2)
	require.NoError(t, err)

	options := api.TransformOptions{ModuleID: "1", Phase: api.PhaseRuntime}
	first := service.Transform("a()", options)
	require.Empty(t, first.Errors)
	assert.Equal(t, 1, service.Len())

	// The same input is served from the cache
	second := service.Transform("a()", options)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, service.Len())

	// Callers can't modify the cached output
	second.Code[0] = 'X'
	third := service.Transform("a()", options)
	assert.Equal(t, first.Code, third.Code)

	// Different options are a different entry
	options.ModuleID = "2"
	other := service.Transform("a()", options)
	assert.NotEqual(t, first.Code, other.Code)
	assert.Equal(t, 2, service.Len())

	// The cache is bounded
	service.Transform("b()", options)
	assert.Equal(t, 2, service.Len())
}

func TestServiceCachesFailures(t *testing.T) {
	service, err := api.NewService(0)
	require.NoError(t, err)

	options := api.TransformOptions{ModuleID: "1"}
	first := service.Transform("require(a)", options)
	second := service.Transform("require(a)", options)
	require.Len(t, first.Errors, 1)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, service.Len())

	// Callers can't modify the cached messages either
	first.Errors[0].Text = "changed"
	first.Errors[0].Location.File = "changed.js"
	third := service.Transform("require(a)", options)
	assert.Equal(t, second, third)
	assert.Equal(t, "<stdin>", third.Errors[0].Location.File)

	// Path maps with the same entries hit the same entry
	options.Paths = map[string]string{"a": "b", "c": "d"}
	service.Transform("x()", options)
	options.Paths = map[string]string{"c": "d", "a": "b"}
	service.Transform("x()", options)
	assert.Equal(t, 2, service.Len())

	// Unknown dependency ids differ from an empty list of ids
	options.Dependencies = []uint32{}
	service.Transform("x()", options)
	assert.Equal(t, 3, service.Len())
}

func TestTransformFiles(t *testing.T) {
	var files []api.File
	for i := 0; i < 20; i++ {
		files = append(files, api.File{
			Path:     fmt.Sprintf("file%d.js", i),
			Contents: fmt.Sprintf("f(%d)", i),
			ModuleID: fmt.Sprintf("%d", i),
		})
	}
	files = append(files, api.File{Path: "bad.js", Contents: "require(x)", ModuleID: "99"})

	results, err := api.TransformFiles(context.Background(), files, api.TransformOptions{Phase: api.PhaseRuntime}, 4)
	require.NoError(t, err)
	require.Len(t, results, len(files))

	for i := 0; i < 20; i++ {
		assert.Equal(t, files[i].Path, results[i].Path)
		assert.Empty(t, results[i].Errors)
		assert.Equal(t, fmt.Sprintf("global.__modules.register(%d, function(__ctx) {\n  f(%d);\n});\n", i, i), string(results[i].Code))
	}

	bad := results[20]
	assert.Equal(t, "bad.js", bad.Path)
	assert.Nil(t, bad.Code)
	require.Len(t, bad.Errors, 1)
	assert.Equal(t, "bad.js", bad.Errors[0].Location.File)
}

func TestTransformFilesCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files := []api.File{{Path: "a.js", Contents: "a()", ModuleID: "1"}}
	results, err := api.TransformFiles(ctx, files, api.TransformOptions{}, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
}

func TestServiceTransformFiles(t *testing.T) {
	service, err := api.NewService(16)
	require.NoError(t, err)

	files := []api.File{
		{Path: "a.js", Contents: "a()", ModuleID: "1"},
		{Path: "b.js", Contents: "a()", ModuleID: "1"},
		{Path: "a.js", Contents: "a()", ModuleID: "1"},
	}
	results, err := service.TransformFiles(context.Background(), files, api.TransformOptions{}, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, results[0].Code, results[2].Code)

	// The file name is part of the key since it shows up in messages
	assert.Equal(t, 2, service.Len())
}
