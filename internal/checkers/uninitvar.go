// Package checkers 实现针对 C/C++ 翻译单元的具体检查器。
package checkers

import (
	"strconv"
	"strings"

	"github.com/Pooja0509/cppcheck/internal/core"
)

// CheckUninitVar 未初始化变量检查器
//
// 两条互补的分析路线：
//  1. 多路径假设引擎：为指针、数组与基础类型标量维护「仍未初始化」假设，
//     在 if/else 处分叉合并，拿不准就放弃该变量；
//  2. 标量作用域遍历：对每个基础类型局部变量做一次递归的必然赋值分析。
//
// 两条路线可能在同一位置各报一次，结果按 (文件,行,列,类别,消息) 去重。
type CheckUninitVar struct {
	safe *SafeFunctionIndex

	arena *core.TokenArena
	db    *core.SymbolDatabase
	isC   bool

	diags []core.Diagnostic
	seen  map[diagKey]bool
}

type diagKey struct {
	line, col int
	id, msg   string
}

// NewCheckUninitVar 创建检查器；safe 为只读的安全函数索引，可为 nil
func NewCheckUninitVar(safe *SafeFunctionIndex) *CheckUninitVar {
	return &CheckUninitVar{safe: safe}
}

// Name 检查器名称
func (c *CheckUninitVar) Name() string {
	return "UninitVar"
}

// Description 检查器描述
func (c *CheckUninitVar) Description() string {
	return "Detect reads of variables before any initialization (CWE-457)"
}

// Run 对单个翻译单元执行检查
func (c *CheckUninitVar) Run(ctx *core.AnalysisContext) []core.Diagnostic {
	c.arena = ctx.Arena
	c.db = ctx.Symbols
	c.isC = ctx.Arena.IsC
	c.diags = nil
	c.seen = make(map[diagKey]bool)

	core.NewExecutionPathEngine(c.arena, c.db).Run(c)
	c.check()

	core.SortDiagnostics(c.diags)
	return c.diags
}

// uninitVarState 单个变量的「仍未初始化」假设
type uninitVarState struct {
	v *core.Variable

	// alloc 指向已分配但未写入的内存（p = malloc(..)）
	alloc bool
	// strncpy 由 strncpy 写入，可能缺终止符
	strncpy bool
	// memsetNonzero 由非零 memset 写入，必然缺终止符
	memsetNonzero bool
}

func (s *uninitVarState) VarID() int { return s.v.ID }

func (s *uninitVarState) CloneSelf() core.PathState {
	cp := *s
	return &cp
}

func (s *uninitVarState) MergeEquals(other core.PathState) bool {
	o, ok := other.(*uninitVarState)
	return ok && o.v == s.v && o.alloc == s.alloc &&
		o.strncpy == s.strncpy && o.memsetNonzero == s.memsetNonzero
}

// stateOf 找到变量的第一个假设
func stateOf(st *core.PathStates, varid int) *uninitVarState {
	for _, ps := range st.States() {
		if s, ok := ps.(*uninitVarState); ok && s.v.ID == varid {
			return s
		}
	}
	return nil
}

// allocPointer p = malloc(..)：指针标记为已分配，其它情况放弃
func (c *CheckUninitVar) allocPointer(st *core.PathStates, varid int) {
	first := stateOf(st, varid)
	if first == nil {
		return
	}
	if first.v.IsPointer && !first.v.IsArray {
		for _, ps := range st.States() {
			if s, ok := ps.(*uninitVarState); ok && s.v.ID == varid {
				s.alloc = true
			}
		}
	} else {
		st.BailOut(varid)
	}
}

// initPointer *p = ..：已分配指针或数组视为写入，否则按坏指针使用处理
func (c *CheckUninitVar) initPointer(st *core.PathStates, tok int) {
	varid := c.arena.VarID(tok)
	if varid == 0 {
		return
	}
	s := stateOf(st, varid)
	if s == nil {
		return
	}
	if s.alloc || s.v.IsArray {
		st.Filter(func(ps core.PathState) bool {
			u, ok := ps.(*uninitVarState)
			return !ok || u.v.ID != varid || !(u.alloc || u.v.IsArray)
		})
		return
	}
	c.use(st, tok, 3)
}

// deallocPointer free(p)：释放未分配的非数组指针是错误
func (c *CheckUninitVar) deallocPointer(st *core.PathStates, tok int) {
	varid := c.arena.VarID(tok)
	if varid == 0 {
		return
	}
	for _, ps := range st.States() {
		s, ok := ps.(*uninitVarState)
		if !ok || s.v.ID != varid {
			continue
		}
		if s.v.IsPointer && !s.v.IsArray && !s.alloc {
			c.uninitvarError(tok, s.v.Name)
			st.BailOut(varid)
			return
		}
		s.alloc = false
	}
}

// pointerAssignment p = x; 指针间赋值两边都不再跟踪
func (c *CheckUninitVar) pointerAssignment(st *core.PathStates, tok1, tok2 int) {
	varid1 := c.arena.VarID(tok1)
	varid2 := c.arena.VarID(tok2)
	if varid1 == 0 || varid2 == 0 {
		return
	}
	if s := stateOf(st, varid1); s != nil && s.v.IsPointer && !s.v.IsArray {
		st.BailOut(varid1)
	}
	if s := stateOf(st, varid2); s != nil && (s.v.IsPointer || s.v.IsArray) {
		st.BailOut(varid2)
	}
}

func (c *CheckUninitVar) initStrncpy(st *core.PathStates, tok int) {
	varid := c.arena.VarID(tok)
	for _, ps := range st.States() {
		if s, ok := ps.(*uninitVarState); ok && s.v.ID == varid {
			s.strncpy = true
		}
	}
}

func (c *CheckUninitVar) initMemsetNonzero(st *core.PathStates, tok int) {
	varid := c.arena.VarID(tok)
	for _, ps := range st.States() {
		if s, ok := ps.(*uninitVarState); ok && s.v.ID == varid {
			s.memsetNonzero = true
		}
	}
}

// use 读取变量。mode 区分读取方式：
//
//	0 直接读值（读数组地址、已分配指针的地址是安全的）
//	1 读数组内容
//	2 以 mem 族函数读数组内容（无终止符也安全）
//	3 坏指针使用（非指针则安全）
//	4 使用「死」指针（非指针、数组或已分配的都安全）
//	5 读数组/指针指向的数据（标量安全）
//
// 发现错误即报告并移除该变量的假设，返回 true。
func (c *CheckUninitVar) use(st *core.PathStates, tok int, mode int) bool {
	varid := c.arena.VarID(tok)
	if varid == 0 {
		return false
	}
	for _, ps := range st.States() {
		s, ok := ps.(*uninitVarState)
		if !ok || s.v.ID != varid {
			continue
		}
		if mode == 0 && (s.v.IsArray || (s.v.IsPointer && s.alloc)) {
			continue
		}
		if mode == 2 && s.strncpy {
			continue
		}
		if mode == 3 && (!s.v.IsPointer || s.v.IsArray) {
			continue
		}
		if mode == 4 && (!s.v.IsPointer || s.v.IsArray || s.alloc) {
			continue
		}
		if mode == 5 && !s.v.IsArray && !s.v.IsPointer {
			continue
		}
		switch {
		case s.strncpy || s.memsetNonzero:
			c.uninitstringError(tok, s.v.Name, s.strncpy)
		case s.v.IsPointer && !s.v.IsArray && s.alloc:
			c.uninitdataError(tok, s.v.Name)
		default:
			c.uninitvarError(tok, s.v.Name)
		}
		st.BailOut(varid)
		return true
	}
	return false
}

// parserhs 检查赋值右侧/下标表达式里的变量读取
func (c *CheckUninitVar) parserhs(tok2 int, st *core.PathStates) {
	a := c.arena
	for {
		tok2++
		if !a.Valid(tok2) {
			return
		}
		if a.Match(tok2, ";|)|=") {
			return
		}
		if a.Match(tok2, "%name% (") {
			return
		}
		if a.VarID(tok2) == 0 ||
			a.Match(tok2-1, "&|::") ||
			a.Match(tok2-2, "& (") ||
			a.Str(tok2+1) == "=" {
			continue
		}
		// 链式赋值：a.b[0] = .. 的左侧不算读取
		if a.Match(tok2+1, ".|[") {
			tok3 := tok2
			for a.Valid(tok3) {
				if a.Match(tok3+1, ". %name%") {
					tok3 += 2
				} else if a.Str(tok3+1) == "[" {
					tok3 = a.Link(tok3 + 1)
				} else {
					break
				}
			}
			if a.Valid(tok3) && a.Str(tok3+1) == "=" {
				continue
			}
		}
		var foundError bool
		if a.Str(tok2-1) == "*" || a.Str(tok2+1) == "[" {
			foundError = c.use(st, tok2, 5)
		} else {
			foundError = c.use(st, tok2, 0)
		}
		if foundError {
			st.BailOut(a.VarID(tok2))
		}
	}
}

// ParseToken 逐 token 的状态转移，见 core.PathCheck
func (c *CheckUninitVar) ParseToken(tok int, st *core.PathStates) int {
	a := c.arena

	// 声明：为指针、数组或基础类型标量建立假设
	if a.VarID(tok) != 0 && a.Match(tok, "%name% [|;") {
		if next := c.parseDeclaration(tok, st); next != core.NoTok {
			return next
		}
	}

	if a.Str(tok) == "return" {
		c.parseReturn(tok, st)
	}

	if a.VarID(tok) != 0 {
		if next := c.parseVarToken(tok, st); next != core.NoTok {
			return next
		}
	}

	if a.Match(tok, "%name% (") && (c.safe == nil || !c.safe.Contains(a.Str(tok))) {
		if next := c.parseFunctionCallToken(tok, st); next != core.NoTok {
			return next
		}
	}

	c.parseFunctionPointerCall(tok, st)

	if a.Str(tok) == "return" {
		if a.Match(tok+1, "%name% ;") {
			c.use(st, tok+1, 0)
		} else if a.Match(tok+1, "%name% [") {
			c.use(st, tok+1, 5)
		}
	}

	if a.VarID(tok) != 0 {
		if next := c.parseVarTokenTrailing(tok, st); next != core.NoTok {
			return next
		}
	}

	if a.Match(tok, "for (") {
		c.parseForHead(tok, st)
	}

	return tok
}

// parseDeclaration 处理声明处的 token，不适用时返回 NoTok
func (c *CheckUninitVar) parseDeclaration(tok int, st *core.PathStates) int {
	a := c.arena
	v := c.db.VariableOf(a.VarID(tok))
	if v == nil || v.NameTok != tok || v.IsStatic || v.IsExtern || v.IsConst || v.IsReference {
		return core.NoTok
	}
	if a.Str(tok+1) == "[" {
		// 数组声明必须以 ';' 结束（带初始化的不建假设）
		endtok := tok + 1
		for a.Valid(endtok) && a.Str(endtok) == "[" && a.Link(endtok) != core.NoTok {
			endtok = a.Link(endtok) + 1
		}
		if a.Str(endtok) != ";" {
			return tok
		}
	}
	// 外层作用域有同名变量时放弃两边，未展开的宏可能造成误报
	if v.Scope != nil && v.Scope.Parent != nil {
		if outer := outerSameName(v); outer != nil {
			st.BailOut(outer.ID)
		}
	}

	if v.IsPointer {
		st.Add(&uninitVarState{v: v})
	} else if a.Str(v.TypeEnd) != ">" && v.IsStandardType(a) {
		if !v.IsArray {
			st.Add(&uninitVarState{v: v})
		} else if lnk := a.Link(tok + 1); lnk != core.NoTok && a.Str(lnk+1) == ";" {
			st.Add(&uninitVarState{v: v})
		}
	}
	return tok
}

func outerSameName(v *core.Variable) *core.Variable {
	for sc := v.Scope.Parent; sc != nil; sc = sc.Parent {
		for _, other := range sc.Vars {
			if other.Name == v.Name {
				return other
			}
		}
	}
	return nil
}

// parseReturn return 语句：没有赋值时其中出现的变量都算读取
func (c *CheckUninitVar) parseReturn(tok int, st *core.PathStates) {
	a := c.arena
	assignment := false
	for tok2 := tok + 1; a.Valid(tok2) && a.Str(tok2) != ";"; tok2++ {
		if a.Str(tok2) == "=" || (!c.isC && a.Str(tok2) == ">>") || a.Match(tok2, "(|, &") {
			assignment = true
			break
		}
		if a.Match(tok2, "(|, & %name% ,|)") {
			st.BailOut(a.VarID(tok2 + 2))
		} else if a.Match(tok2, "(|, %name% ,|)") {
			st.BailOut(a.VarID(tok2 + 1))
		}
	}
	if assignment {
		return
	}
	for tok2 := tok + 1; a.Valid(tok2) && a.Str(tok2) != ";"; tok2++ {
		if a.At(tok2).IsName && a.Str(tok2+1) == "(" {
			if lnk := a.Link(tok2 + 1); lnk != core.NoTok {
				tok2 = lnk
				continue
			}
		}
		if a.VarID(tok2) != 0 {
			c.use(st, tok2, 0)
		}
	}
}

var prevUseTokens = map[string]bool{
	"[": true, "(": true, ",": true, "+": true, "-": true,
	"*": true, "/": true, "|": true, "=": true,
}

func isUseFollower(t *core.Token) bool {
	if t == nil {
		return false
	}
	return t.Text == "]" || t.Text == ")" || t.Text == "," || t.Text == ";" || t.IsOp
}

// parseVarToken 变量 token 的第一组转移规则，未消费时返回 NoTok
func (c *CheckUninitVar) parseVarToken(tok int, st *core.PathStates) int {
	a := c.arena

	// 作为函数实参的数组/变量
	if a.Match(tok-1, "(|, %name% +|-|,|)") {
		tok2 := tok + 1
		for a.Valid(tok2) && a.Str(tok2) == ")" {
			tok2++
		}
		if a.Match(tok-1, "( %name% )") && a.Str(tok2) == "=" {
			st.BailOut(a.VarID(tok))
		} else if a.Str(tok-2) != ">" {
			c.use(st, tok, 0)
		}
		return tok
	}

	// 一般读取
	if prevUseTokens[a.Str(tok-1)] && isUseFollower(a.At(tok+1)) {
		// 取数组地址时放弃
		if s := stateOf(st, a.VarID(tok)); s != nil && s.v.IsArray {
			st.BailOut(a.VarID(tok))
		}
		if a.Match(tok-3, "& %name% =") {
			st.BailOut(a.VarID(tok))
		} else {
			c.use(st, tok, 0)
		}
		return tok
	}

	if prevT, nextT := a.At(tok-1), a.At(tok+1); (prevT != nil && prevT.IsIncDecOp) || (nextT != nil && nextT.IsIncDecOp) {
		c.use(st, tok, 0)
		return tok
	}

	// 语句开头的赋值/下标/成员访问
	if a.Match(tok-1, ";|{|} %name% =|[|.") {
		if a.Str(tok+1) == "." {
			if c.use(st, tok, 4) {
				return tok
			}
		} else {
			tok2 := tok + 1
			if a.Str(tok2) == "[" {
				tok3 := a.Link(tok2)
				for tok3 != core.NoTok && a.Match(tok3, "] [") {
					tok3 = a.Link(tok3 + 1)
				}
				// 可能是 cin >> 式初始化
				if tok3 != core.NoTok && a.Match(tok3, "] >>") {
					return tok
				}
				if tok3 != core.NoTok && a.Match(tok3, "] =") {
					if c.use(st, tok, 4) {
						return tok
					}
					c.parserhs(tok2, st)
					tok2 = tok3 + 1
				}
			}
			c.parserhs(tok2, st)
		}
		// 指针别名
		if a.Match(tok+2, "%name% ;") {
			c.pointerAssignment(st, tok, tok+2)
		}
	}

	if a.Str(tok+1) == "(" {
		c.use(st, tok, 3)
	}

	// 解引用赋值：* p = ..
	if a.Match(tok-2, ";|{|} *") {
		if a.Str(tok+1) == "=" {
			// 右侧用到这个指针吗
			used := false
			for tok2 := tok + 2; a.Valid(tok2); tok2++ {
				if a.Match(tok2, ",|;|=|(") {
					break
				}
				if a.Str(tok2) == "*" && a.VarID(tok2+1) == a.VarID(tok) {
					used = true
					break
				}
			}
			if used {
				c.use(st, tok, 3)
			} else {
				c.initPointer(st, tok)
			}
		} else {
			c.use(st, tok, 3)
		}
		return tok
	}

	if a.Match(tok+1, "= malloc|kmalloc") || a.Match(tok+1, "= new char [") {
		c.allocPointer(st, a.VarID(tok))
		if a.Str(tok+3) == "(" {
			return tok + 3
		}
	} else if (!c.isC && a.Match(tok-1, "<<|>>")) || a.Str(tok+1) == "=" {
		st.BailOut(a.VarID(tok))
		return tok
	}

	if a.Str(tok+1) == "[" {
		if tok2 := a.Link(tok + 1); tok2 != core.NoTok && a.Str(tok2+1) == "=" {
			st.BailOut(a.VarID(tok))
			return tok
		}
	}

	if a.Str(tok-1) == "delete" || a.Match(tok-3, "delete [ ]") {
		c.deallocPointer(st, tok)
		return tok
	}

	return core.NoTok
}

// parseFunctionCallToken 函数调用处的转移规则
func (c *CheckUninitVar) parseFunctionCallToken(tok int, st *core.PathStates) int {
	a := c.arena

	// sizeof/typeof 不解引用；全大写的名字可能是未展开的宏
	if a.Match(tok, "sizeof|typeof (") {
		if lnk := a.Link(tok + 1); lnk != core.NoTok {
			return lnk
		}
		return tok
	}

	if a.Match(tok, "free|kfree|fclose ( %name% )") || a.Match(tok, "realloc ( %name%") {
		c.deallocPointer(st, tok+2)
		return tok + 3
	}

	// 按已知库函数的参数语义检查
	var1 := core.ParseFunctionCall(a, tok, 1)
	for _, it := range var1 {
		firstPar := it == tok+2
		if strings.HasPrefix(a.Str(tok), "mem") {
			c.use(st, it, 2)
		} else if !firstPar && strings.HasPrefix(a.Str(tok), "strn") {
			c.use(st, it, 2)
		} else {
			c.use(st, it, 1)
		}
		c.use(st, it, 4)
	}
	var2 := core.ParseFunctionCall(a, tok, 0)
	for _, it := range var2 {
		inVar1 := false
		for _, other := range var1 {
			if other == it {
				inVar1 = true
				break
			}
		}
		if !inVar1 {
			c.use(st, it, 4)
		}
	}

	// strncpy 不保证给第一个参数补终止符
	if a.Match(tok, "strncpy ( %name% ,") {
		if a.Match(tok+4, "%str% ,") {
			if a.Match(tok+6, "%num% )") {
				srcLen := a.At(tok + 4).StrLength()
				n, err := strconv.ParseInt(a.Str(tok+6), 10, 64)
				if err == nil && n >= 0 && int64(srcLen) >= n {
					c.initStrncpy(st, tok+2)
					return a.Link(tok + 1)
				}
			}
		} else {
			c.initStrncpy(st, tok+2)
			return a.Link(tok + 1)
		}
	}

	// 非零 memset 不会写入终止符
	if a.Match(tok, "memset ( %name% , !!0 , %num% )") {
		c.initMemsetNonzero(st, tok+2)
		return a.Link(tok + 1)
	}

	if a.Match(tok, "asm ( %str% )") {
		st.BailOutAll()
		return tok
	}

	// 不返回的调用：该路径不会到达后面的代码
	if noreturnFuncs[a.Str(tok)] {
		st.BailOutAll()
		return tok
	}

	// 其余实参可能在被调函数里被初始化，放弃
	parlevel := 0
	bailouts := make(map[int]bool)
	for tok2 := tok + 1; a.Valid(tok2); tok2++ {
		s2 := a.Str(tok2)
		if s2 == "(" {
			parlevel++
		} else if s2 == ")" {
			if parlevel <= 1 {
				break
			}
			parlevel--
		} else if a.Match(tok2, "sizeof|typeof (") {
			tok2 = a.Link(tok2 + 1)
			if tok2 == core.NoTok {
				break
			}
		} else if a.Match(tok2, "%name% (") && a.At(tok2).IsUpperCaseName {
			tok2 = a.Link(tok2 + 1)
			if tok2 == core.NoTok {
				break
			}
		} else if a.VarID(tok2) != 0 {
			if a.Match(tok2-2, "(|, *") || a.Match(tok2+1, ". %name%") {
				// 找到所属调用的函数名
				fc := tok2
				for a.Valid(fc) {
					fc--
					if !a.Valid(fc) || a.Str(fc) == "(" {
						break
					}
					if a.Str(fc) == ")" {
						fc = a.Link(fc)
						if fc == core.NoTok {
							break
						}
					}
				}
				if a.Valid(fc) && a.Str(fc) == "(" {
					fn := a.At(fc - 1)
					if fn != nil && fn.IsName && !fn.IsUpperCaseName && c.use(st, tok2, 4) {
						st.BailOut(a.VarID(tok2))
					}
				}
			}
			if a.Match(tok2-1, "(|, %name% ,|)") {
				bailouts[a.VarID(tok2)] = true
			}
			if a.Match(tok2-1, ",|( %name% +|-") {
				if s := stateOf(st, a.VarID(tok2)); s != nil &&
					(s.v.IsArray || (s.v.IsPointer && s.alloc)) {
					bailouts[a.VarID(tok2)] = true
				}
			}
		}
	}
	for id := range bailouts {
		st.BailOut(id)
	}
	return core.NoTok
}

// parseFunctionPointerCall 通过函数指针/成员函数指针的调用：实参全部放弃
func (c *CheckUninitVar) parseFunctionPointerCall(tok int, st *core.PathStates) {
	a := c.arena
	fp := a.Match(tok, "( * %name% ) (")
	if !fp && a.Str(tok) == "(" {
		if a.Match(tok+1, "* %name% .|::") || a.Match(tok+1, "%name% .|::") {
			if lnk := a.Link(tok); lnk != core.NoTok && a.Match(lnk-2, ".|:: %name% ) (") {
				fp = true
			}
		}
	}
	if !fp {
		return
	}
	lnk := a.Link(tok)
	if lnk == core.NoTok {
		return
	}
	args := lnk + 1
	if a.Str(args) != "(" {
		return
	}
	end := a.Link(args)
	for tok2 := args + 1; tok2 < end && a.Valid(tok2); tok2++ {
		st.BailOut(a.VarID(tok2))
	}
}

// parseVarTokenTrailing 变量 token 的第二组转移规则
func (c *CheckUninitVar) parseVarTokenTrailing(tok int, st *core.PathStates) int {
	a := c.arena

	if a.Str(tok-1) == "=" {
		if a.Match(tok-3, "& %name% =") {
			st.BailOut(a.VarID(tok))
			return tok
		}
		if !a.Match(tok-3, ". %name% =") {
			if !a.Match(tok-3, ";|{|} %name% =") {
				c.use(st, tok, 0)
				return tok
			}
			if a.VarID(tok-2) != 0 {
				c.use(st, tok, 0)
				return tok
			}
		}
	}

	if a.Str(tok+1) == "." {
		st.BailOut(a.VarID(tok))
		return tok
	}

	if a.Str(tok+1) == "[" {
		st.BailOut(a.VarID(tok))
		return tok
	}

	if a.Match(tok-2, ",|(|= *") {
		c.use(st, tok, 3)
		return tok
	}

	if a.Str(tok-1) == "&" {
		st.BailOut(a.VarID(tok))
	}
	return core.NoTok
}

// parseForHead for 循环头：条件/步进里读取循环外的未初始化变量
func (c *CheckUninitVar) parseForHead(tok int, st *core.PathStates) {
	a := c.arena
	r := a.Link(tok + 1)
	if r == core.NoTok {
		return
	}
	// 初始化部分赋过值的变量
	varid1 := map[int]bool{}
	tok2 := tok + 2
	for ; tok2 < r; tok2++ {
		if a.Str(tok2) == ";" {
			break
		}
		if id := a.VarID(tok2); id != 0 {
			varid1[id] = true
		}
	}
	if tok2 >= r {
		return
	}
	// 条件
	if a.Match(tok2, "; %name% <|<=|>=|> %num% ;") && !varid1[a.VarID(tok2+1)] {
		c.use(st, tok2+1, 0)
	}
	// 步进
	tok2++
	for tok2 < r && a.Str(tok2) != ";" {
		tok2++
	}
	if a.Match(tok2, "; ++|-- %name% ) {") || a.Match(tok2, "; %name% ++|-- ) {") {
		varid := a.VarID(tok2 + 1)
		if varid == 0 {
			varid = a.VarID(tok2 + 2)
		}
		if varid != 0 && !varid1[varid] {
			// 循环体里用到就可能在那里初始化
			bodyEnd := a.Link(tok2 + 4)
			for tok3 := tok2 + 5; tok3 < bodyEnd && a.Valid(tok3); tok3++ {
				if a.VarID(tok3) == varid {
					varid = 0
					break
				}
			}
			if varid != 0 {
				target := tok2 + 1
				if a.VarID(target) == 0 {
					target++
				}
				c.use(st, target, 0)
			}
		}
	}
}

// ParseCondition 条件表达式里的读取，见 core.PathCheck
func (c *CheckUninitVar) ParseCondition(tok int, st *core.PathStates) bool {
	a := c.arena
	if a.VarID(tok) != 0 && a.Match(tok, "%name% <|<=|==|!=|)") {
		c.use(st, tok, 0)
	} else if vt := condVarBracket(a, tok); vt != core.NoTok {
		c.use(st, vt, 5)
	} else if a.Match(tok, "%name% (") || a.Match(tok, "! %name% (") {
		ftok := tok
		if a.Str(tok) == "!" {
			ftok = tok + 1
		}
		for _, it := range core.ParseFunctionCall(a, ftok, 1) {
			if strings.HasPrefix(a.Str(ftok), "mem") {
				c.use(st, it, 2)
			} else {
				c.use(st, it, 1)
			}
		}
	}
	return false
}

// condVarBracket 匹配 !| %name% [ 且后面不是赋值，返回变量 token
func condVarBracket(a *core.TokenArena, tok int) int {
	vt := tok
	if a.Str(tok) == "!" {
		vt = tok + 1
	}
	if !a.Match(vt, "%name% [") || a.VarID(vt) == 0 {
		return core.NoTok
	}
	after := vt + 1
	for a.Valid(after) && a.Str(after) == "[" && a.Link(after) != core.NoTok {
		after = a.Link(after) + 1
	}
	if a.Str(after) == "=" {
		return core.NoTok
	}
	return vt
}

// ParseLoopBody 循环体的保守检测，见 core.PathCheck
func (c *CheckUninitVar) ParseLoopBody(tok int, st *core.PathStates) {
	a := c.arena
	for a.Valid(tok) {
		s := a.Str(tok)
		if s == "{" || s == "}" || s == "for" {
			return
		}
		if a.Match(tok, "if (") {
			// 条件里出现的变量全部放弃
			end := a.Link(tok + 1)
			for tok2 := tok + 2; tok2 < end && a.Valid(tok2); tok2++ {
				st.BailOut(a.VarID(tok2))
			}
		}
		tok = c.ParseToken(tok, st) + 1
	}
}

func (c *CheckUninitVar) reportError(tok int, id, msg string) {
	t := c.arena.At(tok)
	if t == nil {
		return
	}
	key := diagKey{line: t.Line, col: t.Column, id: id, msg: msg}
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.diags = append(c.diags, core.Diagnostic{
		ID:       id,
		Message:  msg,
		File:     c.arena.File,
		Line:     t.Line,
		Column:   t.Column,
		Severity: core.SeverityError,
	})
}

func (c *CheckUninitVar) uninitvarError(tok int, name string) {
	c.reportError(tok, "uninitvar", "Uninitialized variable: "+name)
}

func (c *CheckUninitVar) uninitdataError(tok int, name string) {
	c.reportError(tok, "uninitdata", "Memory is allocated but not initialized: "+name)
}

func (c *CheckUninitVar) uninitstringError(tok int, name string, strncpy bool) {
	if strncpy {
		c.reportError(tok, "uninitstring", "Dangerous usage of '"+name+"' (strncpy doesn't always null-terminate it).")
	} else {
		c.reportError(tok, "uninitstring", "Dangerous usage of '"+name+"' (not null-terminated).")
	}
}
