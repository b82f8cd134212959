package lang

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/atlas/internal/model"
)

func TestRegistryCoversExtensions(t *testing.T) {
	for ext, want := range map[string]string{
		".py":   "python",
		".js":   "javascript",
		".jsx":  "javascript",
		".mjs":  "javascript",
		".ts":   "typescript",
		".tsx":  "typescript",
		".java": "java",
	} {
		a, ok := ForFile("some/file" + ext)
		require.True(t, ok, ext)
		assert.Equal(t, want, a.Name(), ext)
	}

	_, ok := ForFile("readme.md")
	assert.False(t, ok)

	langs := Languages()
	sort.Strings(langs)
	assert.Equal(t, []string{"java", "javascript", "python", "typescript"}, langs)
}

func TestExtractFileSyntaxError(t *testing.T) {
	a, _ := ForLanguage("python")
	mod, diags, err := ExtractFile(context.Background(), a, "bad.py", []byte("def broken(:\n"))
	require.NoError(t, err)
	assert.Nil(t, mod)
	require.Len(t, diags, 1)
	assert.Equal(t, model.DiagSyntaxError, diags[0].Kind)
	assert.Equal(t, model.SeverityError, diags[0].Severity)
	assert.Equal(t, "bad.py", diags[0].File)
}

func TestExtractFileInvalidEncoding(t *testing.T) {
	a, _ := ForLanguage("python")
	mod, diags, err := ExtractFile(context.Background(), a, "bin.py", []byte{0xff, 0xfe, 0x00})
	require.NoError(t, err)
	assert.Nil(t, mod)
	require.Len(t, diags, 1)
	assert.Equal(t, model.DiagReadError, diags[0].Kind)
}

func TestExtractFileCancelled(t *testing.T) {
	a, _ := ForLanguage("python")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := ExtractFile(ctx, a, "m.py", []byte("x = 1\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestModuleName(t *testing.T) {
	assert.Equal(t, "app", moduleName("app.py"))
	assert.Equal(t, "pkg.sub.mod", moduleName("pkg/sub/mod.py"))
	assert.Equal(t, "src.index", moduleName("src/index.ts"))
}

func TestNameAllocOrdinals(t *testing.T) {
	alloc := newNameAlloc()
	assert.Equal(t, "m.f", alloc.take("m.f"))
	assert.Equal(t, "m.f#2", alloc.take("m.f"))
	assert.Equal(t, "m.f#3", alloc.take("m.f"))
	assert.Equal(t, "m.g", alloc.take("m.g"))
}
