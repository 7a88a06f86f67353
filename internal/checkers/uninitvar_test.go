package checkers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pooja0509/cppcheck/internal/checkers"
	"github.com/Pooja0509/cppcheck/internal/core"
)

func scanSource(t *testing.T, src string) []core.Diagnostic {
	t.Helper()
	unit, err := core.NewAnalysisContextFromSource(context.Background(), []byte(src), "test.c")
	require.NoError(t, err)
	return checkers.NewCheckUninitVar(nil).Run(unit)
}

func requireSingle(t *testing.T, diags []core.Diagnostic, id, message string, line int) {
	t.Helper()
	require.Len(t, diags, 1)
	assert.Equal(t, id, diags[0].ID)
	assert.Equal(t, message, diags[0].Message)
	assert.Equal(t, line, diags[0].Line)
	assert.Equal(t, core.SeverityError, diags[0].Severity)
	assert.Equal(t, "test.c", diags[0].File)
}

func TestUninitScalarUse(t *testing.T) {
	diags := scanSource(t, `void f(void)
{
    int x;
    int y = x + 1;
}
`)
	requireSingle(t, diags, "uninitvar", "Uninitialized variable: x", 4)
}

func TestInitializedScalar(t *testing.T) {
	diags := scanSource(t, `int f(void)
{
    int x;
    x = 1;
    return x;
}
`)
	assert.Empty(t, diags)
}

func TestReturnUninit(t *testing.T) {
	diags := scanSource(t, `int f(void)
{
    int x;
    return x;
}
`)
	requireSingle(t, diags, "uninitvar", "Uninitialized variable: x", 4)
}

func TestArgumentNotReported(t *testing.T) {
	diags := scanSource(t, `int f(int a)
{
    return a;
}
`)
	assert.Empty(t, diags)
}

func TestAllocatedButNotInitialized(t *testing.T) {
	diags := scanSource(t, `void f(void)
{
    char *p = malloc(10);
    char c = *p;
}
`)
	requireSingle(t, diags, "uninitdata", "Memory is allocated but not initialized: p", 4)
}

func TestAllocatedAndWritten(t *testing.T) {
	diags := scanSource(t, `void f(void)
{
    char *p = malloc(10);
    *p = 0;
    char c = *p;
}
`)
	assert.Empty(t, diags)
}

func TestFreeUninitPointer(t *testing.T) {
	diags := scanSource(t, `void f(void)
{
    char *p;
    free(p);
}
`)
	requireSingle(t, diags, "uninitvar", "Uninitialized variable: p", 4)
}

func TestFreeAllocatedPointer(t *testing.T) {
	diags := scanSource(t, `void f(void)
{
    char *p = malloc(10);
    free(p);
}
`)
	assert.Empty(t, diags)
}

func TestStrncpyNoTerminator(t *testing.T) {
	diags := scanSource(t, `void f(const char *s)
{
    char buf[10];
    strncpy(buf, s, 4);
    int len = strlen(buf);
}
`)
	requireSingle(t, diags, "uninitstring",
		"Dangerous usage of 'buf' (strncpy doesn't always null-terminate it).", 5)
}

func TestStrncpyThenTerminate(t *testing.T) {
	diags := scanSource(t, `void f(const char *s)
{
    char buf[10];
    strncpy(buf, s, 4);
    buf[9] = 0;
    int len = strlen(buf);
}
`)
	assert.Empty(t, diags)
}

func TestMemsetNonzeroNoTerminator(t *testing.T) {
	diags := scanSource(t, `void f(void)
{
    char buf[3];
    memset(buf, 97, 3);
    int len = strlen(buf);
}
`)
	requireSingle(t, diags, "uninitstring",
		"Dangerous usage of 'buf' (not null-terminated).", 5)
}

func TestMemsetZeroTerminates(t *testing.T) {
	diags := scanSource(t, `void f(void)
{
    char buf[3];
    memset(buf, 0, 3);
    int len = strlen(buf);
}
`)
	assert.Empty(t, diags)
}

func TestConditionalAssignThenUse(t *testing.T) {
	diags := scanSource(t, `void f(int a)
{
    int x;
    if (a)
        x = 1;
    int y = x;
}
`)
	requireSingle(t, diags, "uninitvar", "Uninitialized variable: x", 6)
}

func TestIfElseBothAssign(t *testing.T) {
	diags := scanSource(t, `int f(int a)
{
    int x;
    if (a)
        x = 1;
    else
        x = 2;
    return x;
}
`)
	assert.Empty(t, diags)
}

func TestTwoConditionalAssigns(t *testing.T) {
	// 同一变量两次条件赋值之后不再跟踪
	diags := scanSource(t, `int f(int a, int b)
{
    int x;
    if (a)
        x = 1;
    if (b)
        x = 2;
    return x;
}
`)
	assert.Empty(t, diags)
}

func TestNoreturnElseBranch(t *testing.T) {
	diags := scanSource(t, `int f(int a)
{
    int x;
    if (a)
    {
        x = 1;
    }
    else
    {
        exit(1);
    }
    return x;
}
`)
	assert.Empty(t, diags)
}

func TestConditionUse(t *testing.T) {
	diags := scanSource(t, `void f(void)
{
    int x;
    if (x == 0)
    {
    }
}
`)
	requireSingle(t, diags, "uninitvar", "Uninitialized variable: x", 4)
}

func TestWhileConditionUse(t *testing.T) {
	diags := scanSource(t, `void f(void)
{
    int x;
    while (x < 10)
    {
        x = x + 1;
    }
}
`)
	requireSingle(t, diags, "uninitvar", "Uninitialized variable: x", 4)
}

func TestUninitArrayInLoop(t *testing.T) {
	diags := scanSource(t, `void f(void)
{
    int arr[10];
    int sum = 0;
    int i;
    for (i = 0; i < 10; i++)
        sum += arr[i];
}
`)
	requireSingle(t, diags, "uninitvar", "Uninitialized variable: arr", 7)
}

func TestLoopCounterAssignedInHead(t *testing.T) {
	diags := scanSource(t, `int f(void)
{
    int i;
    int sum = 0;
    for (i = 0; i < 10; i++)
        sum = sum + i;
    return sum;
}
`)
	assert.Empty(t, diags)
}

func TestAddressTakenBailsOut(t *testing.T) {
	diags := scanSource(t, `int f(void)
{
    int x;
    init(&x);
    return x;
}
`)
	assert.Empty(t, diags)
}

func TestValueArgBailsOutWithoutIndex(t *testing.T) {
	// 没有安全函数索引时，按值传参保守放弃
	diags := scanSource(t, `void f(void)
{
    int x;
    unknown(x, 1);
}
`)
	assert.Empty(t, diags)
}

func TestValueArgReportedWithSafeIndex(t *testing.T) {
	src := `void takeval(int a, int b)
{
}

void f(void)
{
    int x;
    takeval(x, 1);
}
`
	unit, err := core.NewAnalysisContextFromSource(context.Background(), []byte(src), "test.c")
	require.NoError(t, err)

	idx := checkers.NewSafeFunctionIndex()
	checkers.AnalyseFunctions(unit.Arena, idx)
	require.True(t, idx.Contains("takeval"))

	diags := checkers.NewCheckUninitVar(idx).Run(unit)
	requireSingle(t, diags, "uninitvar", "Uninitialized variable: x", 8)
}

func TestPrintfReadsAllocatedPointer(t *testing.T) {
	diags := scanSource(t, `void f(void)
{
    char *p = malloc(10);
    printf("%s", p);
}
`)
	requireSingle(t, diags, "uninitdata", "Memory is allocated but not initialized: p", 4)
}

func TestStrncpyLiteralShortCopy(t *testing.T) {
	// 拷贝长度 2 < 源串长度 3：结果没有终止符
	diags := scanSource(t, `void f(void)
{
    char buf[8];
    strncpy(buf, "abc", 2);
    printf("%s", buf);
}
`)
	requireSingle(t, diags, "uninitstring",
		"Dangerous usage of 'buf' (strncpy doesn't always null-terminate it).", 5)
}

func TestStrncpyLiteralFullCopy(t *testing.T) {
	// 拷贝长度 5 > 源串长度 3：终止符一并写入
	diags := scanSource(t, `void f(void)
{
    char buf[8];
    strncpy(buf, "abc", 5);
    printf("%s", buf);
}
`)
	assert.Empty(t, diags)
}

func TestAddressOfAliasNoReport(t *testing.T) {
	diags := scanSource(t, `void f(void)
{
    int x;
    int *p = &x;
    *p = 5;
    foo(x);
}
`)
	assert.Empty(t, diags)
}

func TestCompoundAssignInLoop(t *testing.T) {
	diags := scanSource(t, `void f(int *arr)
{
    int sum;
    int i;
    for (i = 0; i < 10; i++)
        sum += arr[i];
}
`)
	requireSingle(t, diags, "uninitvar", "Uninitialized variable: sum", 6)
}

func TestDeleteUninitPointer(t *testing.T) {
	unit, err := core.NewAnalysisContextFromSource(context.Background(), []byte(`void f()
{
    char *p;
    delete p;
}
`), "test.cpp")
	require.NoError(t, err)
	diags := checkers.NewCheckUninitVar(nil).Run(unit)
	require.Len(t, diags, 1)
	assert.Equal(t, "uninitvar", diags[0].ID)
	assert.Equal(t, "Uninitialized variable: p", diags[0].Message)
	assert.Equal(t, 4, diags[0].Line)
}

func TestStaticAndExternSkipped(t *testing.T) {
	diags := scanSource(t, `int f(void)
{
    static int s;
    extern int e;
    return s + e;
}
`)
	assert.Empty(t, diags)
}

func TestSwitchBailsOut(t *testing.T) {
	diags := scanSource(t, `int f(int a)
{
    int x;
    switch (a)
    {
    }
    return x;
}
`)
	assert.Empty(t, diags)
}

func TestGotoBailsOut(t *testing.T) {
	diags := scanSource(t, `int f(void)
{
    int x;
    goto done;
done:
    return x;
}
`)
	assert.Empty(t, diags)
}

func TestCheckerMetadata(t *testing.T) {
	c := checkers.NewCheckUninitVar(nil)
	assert.Equal(t, "UninitVar", c.Name())
	assert.NotEmpty(t, c.Description())
}
