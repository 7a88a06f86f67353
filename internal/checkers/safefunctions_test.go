package checkers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pooja0509/cppcheck/internal/checkers"
	"github.com/Pooja0509/cppcheck/internal/core"
)

func indexFor(t *testing.T, src, path string) *checkers.SafeFunctionIndex {
	t.Helper()
	unit, err := core.NewAnalysisContextFromSource(context.Background(), []byte(src), path)
	require.NoError(t, err)
	idx := checkers.NewSafeFunctionIndex()
	checkers.AnalyseFunctions(unit.Arena, idx)
	return idx
}

func TestAnalyseFunctionsValueParams(t *testing.T) {
	idx := indexFor(t, `void add(int a, int b)
{
}
`, "test.c")
	assert.True(t, idx.Contains("add"))
}

func TestAnalyseFunctionsPointerParam(t *testing.T) {
	idx := indexFor(t, `void out(int *p)
{
}
`, "test.c")
	assert.False(t, idx.Contains("out"))
}

func TestAnalyseFunctionsConstPointerParam(t *testing.T) {
	idx := indexFor(t, `void show(const char *s)
{
}
`, "test.c")
	assert.True(t, idx.Contains("show"))
}

func TestAnalyseFunctionsMixedParams(t *testing.T) {
	idx := indexFor(t, `void g(int a, char *p)
{
}
`, "test.c")
	assert.False(t, idx.Contains("g"))
}

func TestAnalyseFunctionsDeclarationOnly(t *testing.T) {
	idx := indexFor(t, `int mix(int a, char b);
`, "test.c")
	assert.True(t, idx.Contains("mix"))
}

func TestAnalyseFunctionsRefParamIncDecOnly(t *testing.T) {
	idx := indexFor(t, `void bump(int &v)
{
    v++;
}
`, "test.cpp")
	assert.True(t, idx.Contains("bump"))
}

func TestAnalyseFunctionsRefParamWritten(t *testing.T) {
	idx := indexFor(t, `void set(int &v)
{
    v = 1;
}
`, "test.cpp")
	assert.False(t, idx.Contains("set"))
}

func TestSafeFunctionIndexBasics(t *testing.T) {
	var nilIdx *checkers.SafeFunctionIndex
	assert.False(t, nilIdx.Contains("anything"))
	assert.Nil(t, nilIdx.Names())

	a := checkers.NewSafeFunctionIndex()
	a.Add("f")
	b := checkers.NewSafeFunctionIndex()
	b.Add("g")
	b.Add("e")
	a.Merge(b)
	assert.Equal(t, []string{"e", "f", "g"}, a.Names())
}
