package core_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pooja0509/cppcheck/internal/core"
)

func tokenize(t *testing.T, src, path string) *core.TokenArena {
	t.Helper()
	a, err := core.Tokenize(context.Background(), []byte(src), path)
	require.NoError(t, err)
	return a
}

// tokenText 把整个 token 序列拼成一个空格分隔的字符串，便于断言
func tokenText(a *core.TokenArena) string {
	parts := make([]string, 0, a.Size())
	for i := 0; i < a.Size(); i++ {
		parts = append(parts, a.Str(i))
	}
	return strings.Join(parts, " ")
}

// findToken 第 nth 次出现 text 的下标（nth 从 1 起）
func findToken(t *testing.T, a *core.TokenArena, text string, nth int) int {
	t.Helper()
	for i := 0; i < a.Size(); i++ {
		if a.Str(i) == text {
			nth--
			if nth == 0 {
				return i
			}
		}
	}
	t.Fatalf("token %q (#%d) not found", text, nth)
	return core.NoTok
}

func TestTokenizeDeclInitSplit(t *testing.T) {
	a := tokenize(t, `void f(void)
{
    int x = 5;
}
`, "test.c")
	assert.Contains(t, tokenText(a), "int x ; x = 5 ;")
}

func TestTokenizeDeclSplitKeepsLines(t *testing.T) {
	a := tokenize(t, `void f(void)
{
    int x = 5;
}
`, "test.c")
	i := findToken(t, a, "x", 2)
	assert.Equal(t, 3, a.At(i).Line)
}

func TestTokenizeMultiDeclaratorSplit(t *testing.T) {
	a := tokenize(t, `void f(void)
{
    int a = 1, b = 2;
}
`, "test.c")
	text := tokenText(a)
	assert.Contains(t, text, "int a ; a = 1 ;")
	assert.Contains(t, text, "int b ; b = 2 ;")
}

func TestTokenizeBraceInsertion(t *testing.T) {
	a := tokenize(t, `void f(int a)
{
    if (a)
        a = 1;
}
`, "test.c")
	assert.Contains(t, tokenText(a), "if ( a ) { a = 1 ; }")
}

func TestTokenizeElseBraceInsertion(t *testing.T) {
	a := tokenize(t, `void f(int a)
{
    if (a)
        a = 1;
    else
        a = 2;
}
`, "test.c")
	assert.Contains(t, tokenText(a), "else { a = 2 ; }")
}

func TestTokenizeCompoundAssignExpansion(t *testing.T) {
	a := tokenize(t, `void f(int a)
{
    a += 2;
}
`, "test.c")
	assert.Contains(t, tokenText(a), "a = a + ( 2 )")
}

func TestTokenizeStringLiteralIsAtomic(t *testing.T) {
	a := tokenize(t, `void f(void)
{
    const char *s = "a,b";
}
`, "test.c")
	i := findToken(t, a, `"a,b"`, 1)
	assert.True(t, a.At(i).IsString)
}

func TestStrLengthCountsEscapes(t *testing.T) {
	a := tokenize(t, `void f(void)
{
    const char *s = "a\"b";
}
`, "test.c")
	i := core.NoTok
	for j := 0; j < a.Size(); j++ {
		if a.At(j).IsString {
			i = j
			break
		}
	}
	require.NotEqual(t, core.NoTok, i)
	assert.Equal(t, 3, a.At(i).StrLength())
}

func TestTokenizeBracketLinks(t *testing.T) {
	a := tokenize(t, `void f(int a)
{
    g(a);
}
`, "test.c")
	open := findToken(t, a, "{", 1)
	close := findToken(t, a, "}", 1)
	assert.Equal(t, close, a.Link(open))
	assert.Equal(t, open, a.Link(close))

	callOpen := findToken(t, a, "(", 2)
	assert.Equal(t, ")", a.Str(a.Link(callOpen)))
}

func TestTokenizeLanguageFromExtension(t *testing.T) {
	c := tokenize(t, "void f(void) { }\n", "test.c")
	assert.True(t, c.IsC)

	cpp := tokenize(t, "void f() { }\n", "test.cpp")
	assert.False(t, cpp.IsC)
}

func TestTokenizeSkipsComments(t *testing.T) {
	a := tokenize(t, `void f(void)
{
    /* comment */
    int x; // trailing
}
`, "test.c")
	text := tokenText(a)
	assert.NotContains(t, text, "comment")
	assert.NotContains(t, text, "trailing")
}

func TestIsSupportedFile(t *testing.T) {
	assert.True(t, core.IsSupportedFile("a.c"))
	assert.True(t, core.IsSupportedFile("a.cpp"))
	assert.True(t, core.IsSupportedFile("a.h"))
	assert.False(t, core.IsSupportedFile("a.go"))
	assert.False(t, core.IsSupportedFile("a.txt"))
}
