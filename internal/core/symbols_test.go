package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pooja0509/cppcheck/internal/core"
)

func buildSymbols(t *testing.T, src string) (*core.TokenArena, *core.SymbolDatabase) {
	t.Helper()
	a := tokenize(t, src, "test.c")
	return a, core.NewSymbolDatabase(a)
}

func findVar(t *testing.T, s *core.Scope, name string) *core.Variable {
	t.Helper()
	for _, v := range s.Vars {
		if v.Name == name {
			return v
		}
	}
	t.Fatalf("variable %q not found in scope", name)
	return nil
}

func TestSymbolsFindFunctions(t *testing.T) {
	_, db := buildSymbols(t, `void f(void)
{
}

int g(int a)
{
    return a;
}
`)
	require.Len(t, db.Functions, 2)
	assert.Equal(t, "f", db.Functions[0].FunctionName)
	assert.Equal(t, "g", db.Functions[1].FunctionName)
}

func TestSymbolsVariableAttributes(t *testing.T) {
	a, db := buildSymbols(t, `void f(int n)
{
    int x;
    char *p;
    int arr[3];
    static int s;
    const int c = 0;
}
`)
	require.Len(t, db.Functions, 1)
	fn := db.Functions[0]

	n := findVar(t, fn, "n")
	assert.True(t, n.IsArgument)
	assert.True(t, n.IsStandardType(a))

	x := findVar(t, fn, "x")
	assert.False(t, x.IsPointer)
	assert.True(t, x.IsStandardType(a))

	p := findVar(t, fn, "p")
	assert.True(t, p.IsPointer)
	assert.False(t, p.IsArray)

	arr := findVar(t, fn, "arr")
	assert.True(t, arr.IsArray)

	s := findVar(t, fn, "s")
	assert.True(t, s.IsStatic)

	c := findVar(t, fn, "c")
	assert.True(t, c.IsConst)
}

func TestSymbolsVarIDStamping(t *testing.T) {
	a, db := buildSymbols(t, `void f(void)
{
    int x;
    x = 1;
}
`)
	fn := db.Functions[0]
	x := findVar(t, fn, "x")
	require.NotZero(t, x.ID)

	var ids []int
	for i := 0; i < a.Size(); i++ {
		if a.Str(i) == "x" {
			ids = append(ids, a.VarID(i))
		}
	}
	require.Len(t, ids, 2)
	assert.Equal(t, x.ID, ids[0])
	assert.Equal(t, x.ID, ids[1])
}

func TestSymbolsShadowing(t *testing.T) {
	a, db := buildSymbols(t, `void f(void)
{
    int x;
    {
        int x;
        x = 1;
    }
    x = 2;
}
`)
	fn := db.Functions[0]
	outer := findVar(t, fn, "x")
	require.Len(t, fn.Nested, 1)
	inner := findVar(t, fn.Nested[0], "x")
	assert.NotEqual(t, outer.ID, inner.ID)
	assert.True(t, inner.HasShadowedName())

	// x = 1 使用内层变量，x = 2 使用外层变量
	var assigned []int
	for i := 0; i < a.Size(); i++ {
		if a.Str(i) == "x" && a.Str(i+1) == "=" {
			assigned = append(assigned, a.VarID(i))
		}
	}
	require.Len(t, assigned, 2)
	assert.Equal(t, inner.ID, assigned[0])
	assert.Equal(t, outer.ID, assigned[1])
}

func TestSymbolsMemberAccessNotStamped(t *testing.T) {
	a, db := buildSymbols(t, `struct point { int x; int y; };

void f(struct point *p)
{
    p->x = 1;
}
`)
	require.Len(t, db.Functions, 1)
	fn := db.Functions[0]
	p := findVar(t, fn, "p")
	assert.True(t, p.IsPointer)
	assert.True(t, p.IsRecord)

	// "->" 之后的成员名不回填 varid
	for i := 0; i < a.Size(); i++ {
		if a.Str(i) == "x" && a.Str(i-1) == "->" {
			assert.Zero(t, a.VarID(i))
		}
	}
	// 函数体里的 p 被回填
	for i := fn.BodyStart; i < fn.BodyEnd; i++ {
		if a.Str(i) == "p" {
			assert.Equal(t, p.ID, a.VarID(i))
		}
	}
}

func TestSymbolsVariableOf(t *testing.T) {
	_, db := buildSymbols(t, `void f(void)
{
    int x;
}
`)
	x := findVar(t, db.Functions[0], "x")
	assert.Same(t, x, db.VariableOf(x.ID))
	assert.Nil(t, db.VariableOf(9999))
}
