package core

import "strings"

// NoTok 无效 token 下标
const NoTok = -1

// Token 词法单元
// 所有 token 存放在 TokenArena 的连续切片中，互相之间只通过整数下标引用
type Token struct {
	Text   string
	Line   int
	Column int

	// VarID 变量编号，0 表示不是已声明的局部变量/参数
	VarID int

	// Link 配对括号的下标（ ( ) [ ] { } ），无配对时为 NoTok
	Link int

	IsName          bool
	IsNumber        bool
	IsString        bool
	IsStandardType  bool
	IsIncDecOp      bool
	IsOp            bool
	IsUpperCaseName bool
}

// StrLength 字符串字面量的字符数（不含引号，转义序列按 1 个字符计）
func (t *Token) StrLength() int {
	if !t.IsString || len(t.Text) < 2 {
		return 0
	}
	body := t.Text[1 : len(t.Text)-1]
	n := 0
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
		}
		n++
	}
	return n
}

// TokenArena 单个翻译单元的 token 序列
type TokenArena struct {
	File string
	// IsC 按 C 语法解析（而非 C++）
	IsC  bool
	Toks []Token
}

// Size token 总数
func (a *TokenArena) Size() int { return len(a.Toks) }

// Valid 判断下标是否落在序列内
func (a *TokenArena) Valid(i int) bool { return i >= 0 && i < len(a.Toks) }

// At 取 token，越界返回 nil
func (a *TokenArena) At(i int) *Token {
	if !a.Valid(i) {
		return nil
	}
	return &a.Toks[i]
}

// Str 取 token 文本，越界返回空串
func (a *TokenArena) Str(i int) string {
	if !a.Valid(i) {
		return ""
	}
	return a.Toks[i].Text
}

// Next 下一个 token 的下标
func (a *TokenArena) Next(i int) int {
	if i < 0 || i+1 >= len(a.Toks) {
		return NoTok
	}
	return i + 1
}

// Prev 上一个 token 的下标
func (a *TokenArena) Prev(i int) int {
	if i <= 0 || i >= len(a.Toks) {
		return NoTok
	}
	return i - 1
}

// Link 配对括号下标
func (a *TokenArena) Link(i int) int {
	if !a.Valid(i) {
		return NoTok
	}
	return a.Toks[i].Link
}

// VarID 变量编号
func (a *TokenArena) VarID(i int) int {
	if !a.Valid(i) {
		return 0
	}
	return a.Toks[i].VarID
}

// standardTypes C/C++ 基础算术类型
var standardTypes = map[string]bool{
	"bool": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "wchar_t": true, "size_t": true,
	"signed": true, "unsigned": true,
}

// operatorTexts %op% 可匹配的运算符（不含赋值与自增自减）
var operatorTexts = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"&": true, "|": true, "^": true, "~": true, "!": true,
	"&&": true, "||": true, "==": true, "!=": true,
	"<": true, ">": true, "<=": true, ">=": true, "<<": true, ">>": true,
}

// matchWord 单个模式词与单个 token 的匹配
func (a *TokenArena) matchWord(i int, word string) bool {
	tok := a.At(i)
	if tok == nil {
		return false
	}
	if strings.HasPrefix(word, "!!") {
		return tok.Text != word[2:]
	}
	if strings.ContainsRune(word, '|') && len(word) > 1 {
		for _, alt := range strings.Split(word, "|") {
			if alt != "" && a.matchWord(i, alt) {
				return true
			}
		}
		return false
	}
	switch word {
	case "%name%", "%var%":
		return tok.IsName
	case "%num%":
		return tok.IsNumber
	case "%str%":
		return tok.IsString
	case "%op%":
		return tok.IsOp
	case "%any%":
		return true
	}
	return tok.Text == word
}

// Match 从 i 开始按空格分隔的模式逐词匹配
// 支持 %name% %num% %str% %op% %any%、a|b|c 选择以及 !!x 排除
func (a *TokenArena) Match(i int, pattern string) bool {
	if !a.Valid(i) {
		return false
	}
	for _, word := range strings.Split(pattern, " ") {
		if word == "" {
			continue
		}
		if !a.matchWord(i, word) {
			return false
		}
		i++
	}
	return true
}

// FindMatch 在 [start, end) 内查找首个匹配位置，找不到返回 NoTok
func (a *TokenArena) FindMatch(start, end int, pattern string) int {
	if end > len(a.Toks) || end < 0 {
		end = len(a.Toks)
	}
	for i := start; i < end; i++ {
		if a.Match(i, pattern) {
			return i
		}
	}
	return NoTok
}

// linkBrackets 为 ( ) [ ] { } 建立配对下标
func (a *TokenArena) linkBrackets() {
	type open struct {
		idx  int
		kind byte
	}
	var stack []open
	for i := range a.Toks {
		switch a.Toks[i].Text {
		case "(", "[", "{":
			a.Toks[i].Link = NoTok
			stack = append(stack, open{i, a.Toks[i].Text[0]})
		case ")", "]", "}":
			a.Toks[i].Link = NoTok
			want := byte('(')
			if a.Toks[i].Text == "]" {
				want = '['
			} else if a.Toks[i].Text == "}" {
				want = '{'
			}
			if len(stack) > 0 && stack[len(stack)-1].kind == want {
				o := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				a.Toks[i].Link = o.idx
				a.Toks[o.idx].Link = i
			}
		default:
			a.Toks[i].Link = NoTok
		}
	}
}

// classify 根据文本填充 token 的类别标志
func classify(t *Token) {
	if t.Text == "" {
		return
	}
	c := t.Text[0]
	switch {
	case c == '"':
		t.IsString = true
	case c >= '0' && c <= '9', c == '.' && len(t.Text) > 1 && t.Text[1] >= '0' && t.Text[1] <= '9':
		t.IsNumber = true
	case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		t.IsName = true
		t.IsStandardType = standardTypes[t.Text]
		t.IsUpperCaseName = isUpperCaseName(t.Text)
	default:
		t.IsOp = operatorTexts[t.Text]
		t.IsIncDecOp = t.Text == "++" || t.Text == "--"
	}
}

func isUpperCaseName(s string) bool {
	hasLetter := false
	for _, c := range s {
		switch {
		case c >= 'A' && c <= 'Z':
			hasLetter = true
		case c >= '0' && c <= '9', c == '_':
		default:
			return false
		}
	}
	return hasLetter
}
