package checkers

import "github.com/Pooja0509/cppcheck/internal/core"

// 作用域遍历结果
type scopeStatus int

const (
	// scopeInconclusive 作用域内没有对变量的决定性操作
	scopeInconclusive scopeStatus = iota
	// scopeInitialized 变量被赋值，或作用域无法继续精确分析
	scopeInitialized
	// scopeReported 已对该变量报告一次错误，停止继续跟踪
	scopeReported
)

// noreturnFuncs 不会返回的库函数，调用后整个作用域视为不可达
var noreturnFuncs = map[string]bool{
	"exit": true, "abort": true, "_exit": true, "_Exit": true,
	"quick_exit": true, "longjmp": true,
}

// check 标量作用域遍历：对每个符合条件的局部变量做必然赋值分析
func (c *CheckUninitVar) check() {
	for _, fn := range c.db.Functions {
		c.checkScopeVars(fn)
	}
}

func (c *CheckUninitVar) checkScopeVars(s *core.Scope) {
	a := c.arena
	for _, v := range s.Vars {
		if (v.IsRecord && !v.IsPointer) || v.IsStatic || v.IsExtern ||
			v.IsConst || v.IsArray || v.IsReference || v.IsArgument {
			continue
		}
		if a.Str(v.NameTok+1) == "(" {
			continue
		}
		// for 循环头里声明的变量不检查
		if declaredInForHead(a, v) {
			continue
		}

		stdtype := c.isC
		for i := v.TypeStart; i <= v.TypeEnd && a.Valid(i); i++ {
			if a.Str(i) == "<" {
				break
			}
			if a.At(i).IsStandardType {
				stdtype = true
			}
		}
		if !stdtype && !v.IsPointer {
			continue
		}
		// 从声明语句末尾的 ';' 开始
		tok := v.NameTok
		for a.Valid(tok) && a.Str(tok) != ";" {
			tok++
		}
		if a.Valid(tok) {
			c.checkScopeForVariable(tok, v, nil)
		}
	}
	for _, nested := range s.Nested {
		c.checkScopeVars(nested)
	}
}

func declaredInForHead(a *core.TokenArena, v *core.Variable) bool {
	for i := v.TypeStart; i >= 0; i-- {
		switch a.Str(i) {
		case "(":
			return true
		case "{", ";", "}":
			return false
		}
	}
	return false
}

// checkScopeForVariable 顺序遍历一个作用域，判断变量在其中是被读取还是被赋值
//
// possibleInit 非空时表示调用方在分析一个条件分支：入口值为真则抑制报告，
// 返回前回填「分支里可能完成了初始化」。
func (c *CheckUninitVar) checkScopeForVariable(tok int, v *core.Variable, possibleInit *bool) scopeStatus {
	a := c.arena
	suppress := possibleInit != nil && *possibleInit
	if possibleInit != nil {
		*possibleInit = false
	}

	ret := scopeInconclusive
	numberOfIf := 0

	// 已知非零的变量
	notzero := make(map[int]bool)

	for ; a.Valid(tok); tok++ {
		// 作用域结束
		if a.Str(tok) == "}" {
			if numberOfIf > 0 && possibleInit != nil {
				*possibleInit = true
			}
			if c.scopeNoReturn(tok) {
				return scopeInitialized
			}
			break
		}

		// 无条件内层块
		if a.Str(tok) == "{" && a.Match(tok-1, ";|{|}") {
			switch c.checkScopeForVariable(tok+1, v, possibleInit) {
			case scopeInitialized:
				return scopeInitialized
			case scopeReported:
				return scopeReported
			}
			if lnk := a.Link(tok); lnk != core.NoTok {
				tok = lnk
				continue
			}
			break
		}

		// 取负赋值：结果必然非零
		if a.Match(tok-1, ";|{|} %name% = - %name% ;") && a.VarID(tok) != 0 {
			notzero[a.VarID(tok)] = true
		}

		if a.Match(tok, "if (") {
			// 条件里的初始化/读取
			hit, reported := c.checkIfForWhileHead(tok+1, v, suppress, numberOfIf == 0)
			if reported {
				return scopeReported
			}
			if hit {
				return scopeInitialized
			}

			// 判断一个已知非零的变量是否为零：路径不再精确，放弃
			if a.Match(tok, "if ( %name% )") && notzero[a.VarID(tok+2)] {
				return scopeInitialized
			}

			r := a.Link(tok + 1)
			if r == core.NoTok {
				break
			}
			tok = r + 1
			if !a.Valid(tok) {
				break
			}
			if a.Str(tok) == "{" {
				possibleInitIf := numberOfIf > 0 || suppress
				initif := c.checkScopeForVariable(tok+1, v, &possibleInitIf)
				if initif == scopeReported {
					return scopeReported
				}

				tok = a.Link(tok)
				if tok == core.NoTok {
					break
				}

				if !a.Match(tok, "} else {") {
					if initif == scopeInitialized || possibleInitIf {
						numberOfIf++
						if numberOfIf >= 2 {
							return scopeInitialized
						}
					}
				} else {
					tok += 2
					possibleInitElse := numberOfIf > 0 || suppress
					initelse := c.checkScopeForVariable(tok+1, v, &possibleInitElse)
					if initelse == scopeReported {
						return scopeReported
					}

					tok = a.Link(tok)
					if tok == core.NoTok {
						break
					}

					if initif == scopeInitialized && initelse == scopeInitialized {
						return scopeInitialized
					}
					if initif == scopeInitialized || initelse == scopeInitialized || possibleInitElse {
						numberOfIf++
					}
				}
			}
		}

		// 聚合初始化块
		if a.Match(tok, "= {") {
			end := a.Link(tok + 1)
			if end == core.NoTok {
				break
			}
			// 块内取了该变量的地址：放弃
			for i := tok + 2; i < end; i++ {
				if a.Str(i) == "&" && a.VarID(i+1) == v.ID {
					return scopeInitialized
				}
			}
			tok = end
			continue
		}

		if a.Match(tok, "sizeof|typeof|offsetof|decltype (") {
			if lnk := a.Link(tok + 1); lnk != core.NoTok {
				tok = lnk
			}
		}

		if a.Match(tok, "for (") {
			// 循环头里完成初始化吗（先不报告）
			hit, _ := c.checkIfForWhileHead(tok+1, v, true, false)
			if hit {
				return scopeInitialized
			}

			r := a.Link(tok + 1)
			if r != core.NoTok && a.Str(r+1) == "{" {
				possibleinit := true
				init := c.checkScopeForVariable(r+2, v, &possibleinit)
				if init == scopeReported {
					return scopeReported
				}

				// 循环体里赋过值
				if possibleinit || init == scopeInitialized {
					return scopeInitialized
				}

				// 循环头里读取
				if !suppress {
					_, reported := c.checkIfForWhileHead(tok+1, v, false, numberOfIf == 0)
					if reported {
						return scopeReported
					}
				}
			}
		}

		// while/do/switch 等暂不精确跟踪
		if a.Match(tok, ") {") || a.Match(tok, "%name% {") {
			return scopeInitialized
		}

		if a.Match(tok, "asm (") {
			return scopeInitialized
		}

		switch a.Str(tok) {
		case "return", "break", "continue", "throw", "goto":
			ret = scopeInitialized
		case ";":
			if ret == scopeInitialized {
				return scopeInitialized
			}
		}

		// 遇到被检查的变量
		if a.VarID(tok) == v.ID {
			if !suppress && c.isVariableUsage(tok, v) {
				c.uninitvarError(tok, v.Name)
				return scopeReported
			}
			// 否则认为是赋值
			return scopeInitialized
		}
	}

	return ret
}

// scopeNoReturn 作用域是否以不返回的调用结尾：name ( .. ) ; }
func (c *CheckUninitVar) scopeNoReturn(closeBrace int) bool {
	a := c.arena
	if a.Str(closeBrace-1) != ";" || a.Str(closeBrace-2) != ")" {
		return false
	}
	open := a.Link(closeBrace - 2)
	if open == core.NoTok {
		return false
	}
	return noreturnFuncs[a.Str(open-1)]
}

// checkIfForWhileHead 检查 if/for/while 的括号头
//
// 返回 hit（头里出现了该变量）与 reported（在头里报告了读取）。
// isuninit 为假时，'&&' 之后的读取可能被短路保护，转为抑制。
func (c *CheckUninitVar) checkIfForWhileHead(openParen int, v *core.Variable, suppress, isuninit bool) (hit, reported bool) {
	a := c.arena
	end := a.Link(openParen)
	if end == core.NoTok {
		return false, false
	}
	for tok := openParen + 1; tok < end; tok++ {
		if a.VarID(tok) == v.ID {
			if c.isVariableUsage(tok, v) {
				if !suppress {
					c.uninitvarError(tok, v.Name)
					return true, true
				}
				continue
			}
			return true, false
		}
		if a.Match(tok, "sizeof|decltype|offsetof (") {
			lnk := a.Link(tok + 1)
			if lnk == core.NoTok {
				break
			}
			tok = lnk
		}
		if !isuninit && a.Str(tok) == "&&" {
			suppress = true
		}
	}
	return false, false
}

// isVariableUsage vartok 处是读取还是赋值目标
func (c *CheckUninitVar) isVariableUsage(vartok int, v *core.Variable) bool {
	a := c.arena

	if a.Str(vartok-1) == "return" {
		return true
	}

	prev := a.At(vartok - 1)
	if prev != nil && (prev.IsIncDecOp || prev.IsOp) {
		if prev.Text == ">>" && !c.isC {
			// 认为是 cin >> 式初始化
			return false
		}

		// "[;{}] *((& var ..expr.. =" 的形态是赋值
		if prev.Text == "&" {
			tok2 := vartok - 2
			if a.Str(tok2) == ")" {
				if lnk := a.Link(tok2); lnk != core.NoTok {
					tok2 = lnk - 1
				}
			}
			for a.Valid(tok2) && a.Str(tok2) == "(" {
				tok2--
			}
			for a.Valid(tok2) && a.Str(tok2) == "*" {
				tok2--
			}
			if a.Match(tok2, ";|{|} *") {
				for i := vartok; a.Valid(i); i++ {
					if a.Match(i, ";|{|}") {
						break
					}
					if a.Str(i) == "=" {
						return false
					}
				}
			}
		}

		if prev.Text != "&" || !a.Match(vartok-2, "(|,|=|?|:") {
			return true
		}
	}

	if v.IsPointer && core.IsPointerDeref(a, vartok) {
		// 作为函数实参传入的解引用由调用语义另行判断
		functionParameter := a.Match(vartok-2, "%name% (") || a.Str(vartok-1) == ","
		if !functionParameter {
			return true
		}
	}

	if !c.isC && a.Match(vartok+1, "<<|>>") {
		// 已知基础类型按读取处理，未知类型可能重载了流运算符
		return v.IsStandardType(a)
	}

	next := a.At(vartok + 1)
	if next != nil && (next.IsIncDecOp || next.IsOp) {
		return true
	}

	if a.Str(vartok+1) == "]" {
		return true
	}

	return false
}
