package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
)

// parserPool 复用 tree-sitter 解析器，避免每个文件重复创建
var parserPool = sync.Pool{
	New: func() interface{} {
		return sitter.NewParser()
	},
}

// cSourceExts 按 C 语法解析的扩展名
var cSourceExts = map[string]bool{
	".c": true,
	".h": true,
}

// supportedExts 可扫描的 C/C++ 源文件扩展名
var supportedExts = map[string]bool{
	".c": true, ".h": true,
	".cc": true, ".cpp": true, ".cxx": true,
	".hpp": true, ".hh": true, ".hxx": true,
}

// IsSupportedFile 判断文件是否为可扫描的 C/C++ 源文件
func IsSupportedFile(path string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(path))]
}

// ParseFile 读取并词法化单个源文件
func ParseFile(ctx context.Context, path string) (*TokenArena, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}
	return Tokenize(ctx, source, path)
}

// Tokenize 将源码词法化为规整后的 token 序列
//
// tree-sitter 只用作词法前端：把 CST 压平成叶子 token 流，字符串与字符
// 字面量保留为单个 token，注释与预处理指令丢弃。随后做三趟规整：
// 给无花括号的 if/else/for/while/do 补花括号、把带初始化的声明拆成
// 声明加赋值、展开复合赋值。检查器的模式匹配建立在规整后的序列上。
func Tokenize(ctx context.Context, source []byte, path string) (*TokenArena, error) {
	isC := cSourceExts[strings.ToLower(filepath.Ext(path))]

	lang := cpp.GetLanguage()
	if isC {
		lang = c.GetLanguage()
	}

	parser := parserPool.Get().(*sitter.Parser)
	defer parserPool.Put(parser)
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	defer tree.Close()

	toks := flattenLeaves(tree.RootNode(), source)
	toks = normalizeBraces(toks)
	toks = splitDeclInits(toks)
	toks = expandCompoundAssign(toks)

	arena := &TokenArena{File: path, IsC: isC, Toks: toks}
	arena.linkBrackets()
	return arena, nil
}

// atomicNodeTypes 作为单个 token 保留的复合节点
var atomicNodeTypes = map[string]bool{
	"string_literal":      true,
	"char_literal":        true,
	"raw_string_literal":  true,
	"concatenated_string": true,
	"system_lib_string":   true,
}

// flattenLeaves 深度优先收集叶子 token
func flattenLeaves(root *sitter.Node, source []byte) []Token {
	var toks []Token
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		t := n.Type()
		if t == "comment" || strings.HasPrefix(t, "preproc") {
			return
		}
		if atomicNodeTypes[t] || n.ChildCount() == 0 {
			if n.EndByte() > n.StartByte() {
				toks = append(toks, makeToken(
					string(source[n.StartByte():n.EndByte()]),
					int(n.StartPoint().Row)+1,
					int(n.StartPoint().Column)+1,
				))
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return toks
}

func makeToken(text string, line, col int) Token {
	t := Token{Text: text, Line: line, Column: col, Link: NoTok}
	classify(&t)
	return t
}

// matchParenEnd 找到与 toks[open] 配对的右括号下标，失败返回 -1
func matchParenEnd(toks []Token, open int) int {
	if open < 0 || open >= len(toks) || toks[open].Text != "(" {
		return -1
	}
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].Text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// matchBraceEnd 找到与 toks[open] 配对的右花括号下标
func matchBraceEnd(toks []Token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].Text {
		case "{":
			depth++
		case "}":
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// statementEnd 返回从 i 开始的一条语句之后的下标
func statementEnd(toks []Token, i int) int {
	if i < 0 || i >= len(toks) {
		return len(toks)
	}
	switch toks[i].Text {
	case "{":
		if end := matchBraceEnd(toks, i); end >= 0 {
			return end + 1
		}
		return len(toks)
	case "if", "for", "while", "switch":
		if i+1 < len(toks) && toks[i+1].Text == "(" {
			r := matchParenEnd(toks, i+1)
			if r < 0 {
				return len(toks)
			}
			j := statementEnd(toks, r+1)
			if toks[i].Text == "if" && j < len(toks) && toks[j].Text == "else" {
				j = statementEnd(toks, j+1)
			}
			return j
		}
	case "do":
		j := statementEnd(toks, i+1)
		if j < len(toks) && toks[j].Text == "while" {
			if r := matchParenEnd(toks, j+1); r >= 0 && r+1 < len(toks) && toks[r+1].Text == ";" {
				return r + 2
			}
		}
		return j
	}
	depth := 0
	for j := i; j < len(toks); j++ {
		switch toks[j].Text {
		case "(", "[":
			depth++
		case ")", "]":
			depth--
		case ";":
			if depth <= 0 {
				return j + 1
			}
		case "}":
			if depth <= 0 {
				return j
			}
		}
	}
	return len(toks)
}

// spliceBraces 在 [start, end) 语句区间外补一对花括号
func spliceBraces(toks []Token, start, end int) []Token {
	lb := makeToken("{", toks[start].Line, toks[start].Column)
	rbLine, rbCol := lb.Line, lb.Column
	if end-1 >= 0 && end-1 < len(toks) {
		rbLine, rbCol = toks[end-1].Line, toks[end-1].Column
	}
	rb := makeToken("}", rbLine, rbCol)

	out := make([]Token, 0, len(toks)+2)
	out = append(out, toks[:start]...)
	out = append(out, lb)
	out = append(out, toks[start:end]...)
	out = append(out, rb)
	out = append(out, toks[end:]...)
	return out
}

// normalizeBraces 给无花括号的控制结构体补花括号
func normalizeBraces(toks []Token) []Token {
	changed := true
	for changed {
		changed = false
		for i := 0; i < len(toks); i++ {
			switch toks[i].Text {
			case "if", "for", "while":
				if i+1 >= len(toks) || toks[i+1].Text != "(" {
					continue
				}
				r := matchParenEnd(toks, i+1)
				if r < 0 || r+1 >= len(toks) {
					continue
				}
				body := r + 1
				if toks[body].Text != "{" && toks[body].Text != ";" {
					toks = spliceBraces(toks, body, statementEnd(toks, body))
					changed = true
				}
			case "else", "do":
				if i+1 < len(toks) && toks[i+1].Text != "{" {
					if toks[i].Text == "do" && toks[i+1].Text == ";" {
						continue
					}
					toks = spliceBraces(toks, i+1, statementEnd(toks, i+1))
					changed = true
				}
			}
		}
	}
	return toks
}

// declKeywords 不能作为类型名或变量名出现的关键字
var declKeywords = map[string]bool{
	"if": true, "else": true, "for": true, "while": true, "do": true,
	"switch": true, "case": true, "default": true, "return": true,
	"break": true, "continue": true, "goto": true, "sizeof": true,
	"new": true, "delete": true, "typedef": true, "using": true,
	"namespace": true, "template": true, "operator": true, "throw": true,
	"try": true, "catch": true, "public": true, "private": true,
	"protected": true, "asm": true, "true": true, "false": true,
}

var declQualifiers = map[string]bool{
	"static": true, "extern": true, "const": true,
	"register": true, "volatile": true, "inline": true,
}

var recordKeywords = map[string]bool{
	"struct": true, "union": true, "enum": true, "class": true,
}

// declarator 一条声明语句中的单个被声明者
type declarator struct {
	stars      int
	isRef      bool
	name       int
	arrayStart int // '[' 下标，无数组维度时为 -1
	arrayEnd   int // 最后一个 ']' 下标
	initEq     int // '=' 下标，无初始化时为 -1
	initEnd    int // 初始化表达式之后（',' 或 ';'）的下标
}

// declInfo 解析出的一条声明语句
type declInfo struct {
	typeStart int
	typeEnd   int
	isStatic  bool
	isExtern  bool
	isConst   bool
	decls     []declarator
	end       int // ';' 下标
}

// tryParseDecl 尝试把从 i 开始的语句解析为变量声明，失败返回 nil
func tryParseDecl(toks []Token, i int) *declInfo {
	info := &declInfo{typeStart: -1, typeEnd: -1}
	j := i
	sawType := false

	for j < len(toks) {
		t := &toks[j]
		switch {
		case declQualifiers[t.Text]:
			switch t.Text {
			case "static":
				info.isStatic = true
			case "extern":
				info.isExtern = true
			case "const":
				info.isConst = true
			}
		case recordKeywords[t.Text]:
			if j+1 >= len(toks) || !toks[j+1].IsName {
				return nil
			}
			j++
			sawType = true
		case t.IsStandardType || t.Text == "void":
			sawType = true
		case t.IsName && !sawType && !declKeywords[t.Text]:
			// 自定义类型名：后面必须紧跟声明符
			if j+1 < len(toks) &&
				((toks[j+1].IsName && !declKeywords[toks[j+1].Text]) ||
					toks[j+1].Text == "*" || toks[j+1].Text == "&") {
				sawType = true
			} else {
				return nil
			}
		default:
			goto typeDone
		}
		if info.typeStart < 0 {
			info.typeStart = j
		}
		j++
	}
typeDone:
	if !sawType || info.typeStart < 0 {
		return nil
	}
	info.typeEnd = j - 1

	for {
		d := declarator{arrayStart: -1, arrayEnd: -1, initEq: -1}
		for j < len(toks) && (toks[j].Text == "*" || toks[j].Text == "&" || toks[j].Text == "const") {
			switch toks[j].Text {
			case "*":
				d.stars++
			case "&":
				d.isRef = true
			}
			j++
		}
		if j >= len(toks) || !toks[j].IsName || declKeywords[toks[j].Text] {
			return nil
		}
		d.name = j
		j++
		if j < len(toks) && toks[j].Text == "(" {
			// 函数声明或构造调用，不当作变量声明
			return nil
		}
		for j < len(toks) && toks[j].Text == "[" {
			depth := 0
			if d.arrayStart < 0 {
				d.arrayStart = j
			}
			for j < len(toks) {
				if toks[j].Text == "[" {
					depth++
				} else if toks[j].Text == "]" {
					depth--
					if depth == 0 {
						d.arrayEnd = j
						j++
						break
					}
				}
				j++
			}
			if d.arrayEnd < 0 {
				return nil
			}
		}
		if j < len(toks) && toks[j].Text == "=" {
			d.initEq = j
			j++
			depth := 0
			for j < len(toks) {
				switch toks[j].Text {
				case "(", "[", "{":
					depth++
				case ")", "]", "}":
					if depth == 0 {
						return nil
					}
					depth--
				case ",", ";":
					if depth == 0 {
						goto initDone
					}
				}
				j++
			}
			return nil
		initDone:
			d.initEnd = j
		}
		info.decls = append(info.decls, d)
		if j >= len(toks) {
			return nil
		}
		switch toks[j].Text {
		case ",":
			j++
		case ";":
			info.end = j
			return info
		default:
			return nil
		}
	}
}

// splitDeclInits 把带初始化的局部声明拆成声明加赋值
// 引用和聚合初始化（= { ... }）保持原样
func splitDeclInits(toks []Token) []Token {
	out := make([]Token, 0, len(toks))
	depth := 0
	i := 0
	for i < len(toks) {
		t := toks[i].Text
		if t == "{" {
			depth++
		} else if t == "}" {
			depth--
		}
		atStmtStart := i == 0 || toks[i-1].Text == ";" || toks[i-1].Text == "{" || toks[i-1].Text == "}"
		if depth < 1 || !atStmtStart {
			out = append(out, toks[i])
			i++
			continue
		}
		info := tryParseDecl(toks, i)
		if info == nil || !declNeedsSplit(toks, info) {
			out = append(out, toks[i])
			i++
			continue
		}
		for _, d := range info.decls {
			out = append(out, toks[info.typeStart:info.typeEnd+1]...)
			nameTok := toks[d.name]
			for s := 0; s < d.stars; s++ {
				out = append(out, makeToken("*", nameTok.Line, nameTok.Column))
			}
			out = append(out, nameTok)
			if d.arrayStart >= 0 {
				out = append(out, toks[d.arrayStart:d.arrayEnd+1]...)
			}
			aggregate := d.initEq >= 0 && d.initEq+1 < len(toks) && toks[d.initEq+1].Text == "{"
			if aggregate {
				out = append(out, toks[d.initEq:d.initEnd]...)
			}
			out = append(out, makeToken(";", nameTok.Line, nameTok.Column))
			if d.initEq >= 0 && !aggregate {
				out = append(out, nameTok)
				out = append(out, makeToken("=", toks[d.initEq].Line, toks[d.initEq].Column))
				out = append(out, toks[d.initEq+1:d.initEnd]...)
				out = append(out, makeToken(";", toks[info.end].Line, toks[info.end].Column))
			}
		}
		i = info.end + 1
	}
	return out
}

// declNeedsSplit 只有携带非聚合初始化、且不含引用声明符的语句才拆分
func declNeedsSplit(toks []Token, info *declInfo) bool {
	hasInit := false
	for _, d := range info.decls {
		if d.isRef {
			return false
		}
		if d.initEq >= 0 {
			if d.initEq+1 < len(toks) && toks[d.initEq+1].Text == "{" {
				continue
			}
			hasInit = true
		}
	}
	return hasInit
}

var compoundOps = map[string]bool{
	"+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true,
}

// expandCompoundAssign 展开复合赋值：lhs op= rhs → lhs = lhs op ( rhs )
// 只处理简单左值：名字、*名字、名字[下标]
func expandCompoundAssign(toks []Token) []Token {
	for i := 1; i < len(toks); i++ {
		if !compoundOps[toks[i].Text] {
			continue
		}
		lhsStart := compoundLHSStart(toks, i)
		if lhsStart < 0 {
			continue
		}
		rhsEnd := compoundRHSEnd(toks, i)
		if rhsEnd < 0 {
			continue
		}
		opTok := toks[i]
		lhs := append([]Token(nil), toks[lhsStart:i]...)

		repl := make([]Token, 0, 2*len(lhs)+4+(rhsEnd-i-1))
		repl = append(repl, lhs...)
		repl = append(repl, makeToken("=", opTok.Line, opTok.Column))
		repl = append(repl, lhs...)
		repl = append(repl, makeToken(strings.TrimSuffix(opTok.Text, "="), opTok.Line, opTok.Column))
		repl = append(repl, makeToken("(", opTok.Line, opTok.Column))
		repl = append(repl, toks[i+1:rhsEnd]...)
		repl = append(repl, makeToken(")", opTok.Line, opTok.Column))

		out := make([]Token, 0, len(toks)+len(repl))
		out = append(out, toks[:lhsStart]...)
		out = append(out, repl...)
		out = append(out, toks[rhsEnd:]...)
		toks = out
		i = lhsStart + len(repl)
	}
	return toks
}

// compoundLHSStart 复合赋值左值的起始下标，不支持的形态返回 -1
func compoundLHSStart(toks []Token, op int) int {
	stmtBefore := func(k int) bool {
		if k < 0 {
			return true
		}
		switch toks[k].Text {
		case ";", "{", "}", "(", ")":
			return true
		}
		return false
	}
	j := op - 1
	if toks[j].Text == "]" {
		depth := 0
		for ; j >= 0; j-- {
			if toks[j].Text == "]" {
				depth++
			} else if toks[j].Text == "[" {
				depth--
				if depth == 0 {
					break
				}
			}
		}
		if j <= 0 || !toks[j-1].IsName {
			return -1
		}
		j--
	} else if !toks[j].IsName {
		return -1
	}
	if j >= 1 && toks[j-1].Text == "*" && stmtBefore(j-2) {
		return j - 1
	}
	if !stmtBefore(j - 1) {
		return -1
	}
	return j
}

// compoundRHSEnd 复合赋值右侧表达式之后的下标（';' 或闭合 ')' 处）
func compoundRHSEnd(toks []Token, op int) int {
	depth := 0
	for j := op + 1; j < len(toks); j++ {
		switch toks[j].Text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			if depth == 0 {
				return j
			}
			depth--
		case ";", ",":
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}
