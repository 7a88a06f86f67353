package core

// PathState 一条执行路径上关于某个变量的假设
type PathState interface {
	VarID() int
	// CloneSelf 分叉路径时复制假设
	CloneSelf() PathState
	// MergeEquals 合并路径时判断两个假设是否等价（用于去重）
	MergeEquals(other PathState) bool
}

// PathStates 当前路径集合上仍然存活的全部假设
type PathStates struct {
	list []PathState
}

// Add 登记新假设
func (s *PathStates) Add(st PathState) {
	s.list = append(s.list, st)
}

// BailOut 放弃某个变量的全部假设
func (s *PathStates) BailOut(varid int) {
	if varid == 0 {
		return
	}
	out := s.list[:0]
	for _, st := range s.list {
		if st.VarID() != varid {
			out = append(out, st)
		}
	}
	s.list = out
}

// BailOutAll 放弃全部假设
func (s *PathStates) BailOutAll() {
	s.list = s.list[:0]
}

// Len 存活的假设数
func (s *PathStates) Len() int { return len(s.list) }

// States 假设列表（调用方只读）
func (s *PathStates) States() []PathState { return s.list }

// Filter 只保留 keep 返回 true 的假设
func (s *PathStates) Filter(keep func(PathState) bool) {
	out := s.list[:0]
	for _, st := range s.list {
		if keep(st) {
			out = append(out, st)
		}
	}
	s.list = out
}

// Has 是否存在该变量的假设
func (s *PathStates) Has(varid int) bool {
	for _, st := range s.list {
		if st.VarID() == varid {
			return true
		}
	}
	return false
}

func (s *PathStates) clone() *PathStates {
	c := &PathStates{list: make([]PathState, 0, len(s.list))}
	for _, st := range s.list {
		c.list = append(c.list, st.CloneSelf())
	}
	return c
}

// mergeInto 把 other 的假设并入，结构等价的只保留一份
func (s *PathStates) mergeInto(other *PathStates) {
	for _, st := range other.list {
		dup := false
		for _, have := range s.list {
			if have.VarID() == st.VarID() && have.MergeEquals(st) {
				dup = true
				break
			}
		}
		if !dup {
			s.list = append(s.list, st)
		}
	}
}

// PathCheck 检查器向引擎提供的逐 token 转移函数
type PathCheck interface {
	// ParseToken 处理 tok 并按需修改假设集合，返回最后消费的 token 下标
	ParseToken(tok int, st *PathStates) int
	// ParseCondition 处理条件表达式中的 tok，返回 true 表示整个分析放弃
	ParseCondition(tok int, st *PathStates) bool
	// ParseLoopBody 对循环体做一次保守检测（引擎随后放弃循环内出现的变量）
	ParseLoopBody(tok int, st *PathStates)
}

// ExecutionPathEngine 多路径模拟器
//
// 顺序执行语句序列；在 if/else 处克隆假设集合分别走两个分支再合并；
// 循环、switch、goto 等无法精确跟踪的结构一律保守放弃相关假设。
type ExecutionPathEngine struct {
	arena *TokenArena
	db    *SymbolDatabase
}

// NewExecutionPathEngine 创建引擎
func NewExecutionPathEngine(a *TokenArena, db *SymbolDatabase) *ExecutionPathEngine {
	return &ExecutionPathEngine{arena: a, db: db}
}

// Run 对每个函数体运行一遍检查
func (e *ExecutionPathEngine) Run(check PathCheck) {
	for _, fn := range e.db.Functions {
		st := &PathStates{}
		countif := make(map[int]bool)
		e.checkScope(fn.BodyStart+1, fn.BodyEnd, st, countif, check)
	}
}

// checkScope 顺序走 [tok, end) 的语句
func (e *ExecutionPathEngine) checkScope(tok, end int, st *PathStates, countif map[int]bool, check PathCheck) {
	a := e.arena
	for tok != NoTok && tok < end {
		switch a.Str(tok) {
		case "{":
			lnk := a.Link(tok)
			if lnk == NoTok {
				st.BailOutAll()
				return
			}
			e.checkScope(tok+1, lnk, st, countif, check)
			tok = lnk + 1

		case "if":
			next := e.parseIf(tok, st, countif, check)
			if next == NoTok {
				st.BailOutAll()
				return
			}
			tok = next

		case "for", "while":
			next := e.parseLoop(tok, st, check)
			if next == NoTok {
				st.BailOutAll()
				return
			}
			tok = next

		case "do":
			next := e.parseDoLoop(tok, st, check)
			if next == NoTok {
				st.BailOutAll()
				return
			}
			tok = next

		case "switch":
			// 不跟踪 case 之间的路径
			st.BailOutAll()
			if a.Str(tok+1) == "(" {
				if r := a.Link(tok + 1); r != NoTok && a.Str(r+1) == "{" {
					if lnk := a.Link(r + 1); lnk != NoTok {
						tok = lnk + 1
						continue
					}
				}
			}
			return

		case "goto":
			st.BailOutAll()
			return

		case "return":
			check.ParseToken(tok, st)
			// 该路径到此结束
			st.BailOutAll()
			for tok < end && a.Str(tok) != ";" {
				tok++
			}
			tok++

		default:
			tok = check.ParseToken(tok, st)
			tok++
		}
	}
}

// parseIf 处理 if/else，返回其后的 token，失败返回 NoTok
func (e *ExecutionPathEngine) parseIf(tok int, st *PathStates, countif map[int]bool, check PathCheck) int {
	a := e.arena
	if a.Str(tok+1) != "(" {
		return NoTok
	}
	r := a.Link(tok + 1)
	if r == NoTok || a.Str(r+1) != "{" {
		return NoTok
	}
	for i := tok + 2; i < r; i++ {
		if a.Str(i) == "=" && a.VarID(i-1) != 0 {
			st.BailOut(a.VarID(i - 1))
		}
		if check.ParseCondition(i, st) {
			return NoTok
		}
	}
	thenEnd := a.Link(r + 1)
	if thenEnd == NoTok {
		return NoTok
	}
	thenStates := st.clone()
	e.checkScope(r+2, thenEnd, thenStates, countif, check)

	if a.Str(thenEnd+1) == "else" && a.Str(thenEnd+2) == "{" {
		elseEnd := a.Link(thenEnd + 2)
		if elseEnd == NoTok {
			return NoTok
		}
		elseStates := st.clone()
		e.checkScope(thenEnd+3, elseEnd, elseStates, countif, check)
		st.list = thenStates.list
		st.mergeInto(elseStates)
		return elseEnd + 1
	}

	// 无 else：合并「跳过分支」的路径。某个变量的假设只在分支里消失，
	// 说明它是条件赋值；同一变量第二次条件赋值后不再跟踪
	skip := st.list
	merged := &PathStates{}
	for _, keep := range skip {
		id := keep.VarID()
		if !thenStates.Has(id) {
			if countif[id] {
				continue
			}
			countif[id] = true
		}
		merged.Add(keep)
	}
	merged.mergeInto(thenStates)
	st.list = merged.list
	return thenEnd + 1
}

// parseLoop 处理 for/while：先让检查器扫一遍循环体，再放弃循环内出现的变量
func (e *ExecutionPathEngine) parseLoop(tok int, st *PathStates, check PathCheck) int {
	a := e.arena
	if a.Str(tok+1) != "(" {
		return NoTok
	}
	r := a.Link(tok + 1)
	if r == NoTok {
		return NoTok
	}
	if a.Str(tok) == "while" {
		for i := tok + 2; i < r; i++ {
			if a.Str(i) == "=" && a.VarID(i-1) != 0 {
				st.BailOut(a.VarID(i - 1))
			}
			if check.ParseCondition(i, st) {
				return NoTok
			}
		}
	} else {
		// for 循环头的初始化/条件/步进检测由检查器完成
		check.ParseToken(tok, st)
	}
	if a.Str(r+1) == ";" {
		// 空循环体（含 do-while 的尾部）
		e.bailRange(tok, r, st)
		return r + 2
	}
	if a.Str(r+1) != "{" {
		return NoTok
	}
	bodyEnd := a.Link(r + 1)
	if bodyEnd == NoTok {
		return NoTok
	}
	// 循环头里出现的变量可能被赋值，检查循环体前先放弃
	e.bailRange(tok, r, st)
	check.ParseLoopBody(r+2, st)
	e.bailRange(tok, bodyEnd, st)
	return bodyEnd + 1
}

// parseDoLoop 处理 do { } while ( ) ;
func (e *ExecutionPathEngine) parseDoLoop(tok int, st *PathStates, check PathCheck) int {
	a := e.arena
	if a.Str(tok+1) != "{" {
		return NoTok
	}
	bodyEnd := a.Link(tok + 1)
	if bodyEnd == NoTok {
		return NoTok
	}
	check.ParseLoopBody(tok+2, st)
	end := bodyEnd
	if a.Str(bodyEnd+1) == "while" && a.Str(bodyEnd+2) == "(" {
		if r := a.Link(bodyEnd + 2); r != NoTok {
			end = r
			if a.Str(r+1) == ";" {
				end = r + 1
			}
		}
	}
	e.bailRange(tok, end, st)
	return end + 1
}

// bailRange 放弃 [from, to] 中出现的全部变量
func (e *ExecutionPathEngine) bailRange(from, to int, st *PathStates) {
	for i := from; i <= to && i != NoTok; i++ {
		if id := e.arena.VarID(i); id != 0 {
			st.BailOut(id)
		}
	}
}
