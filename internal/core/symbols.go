package core

// ScopeKind 作用域类别
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeFunction
	ScopeBlock
)

// Variable 已声明的局部变量或函数参数
type Variable struct {
	ID      int
	Name    string
	NameTok int

	// TypeStart/TypeEnd 类型 token 区间（含限定符）
	TypeStart int
	TypeEnd   int

	IsPointer   bool
	IsArray     bool
	IsReference bool
	IsConst     bool
	IsStatic    bool
	IsExtern    bool
	IsArgument  bool
	// IsRecord 通过 struct/class/union/enum 声明的值类型
	IsRecord bool

	Scope *Scope
}

// IsStandardType 类型区间内是否出现基础算术类型
func (v *Variable) IsStandardType(a *TokenArena) bool {
	for i := v.TypeStart; i >= 0 && i <= v.TypeEnd; i++ {
		if t := a.At(i); t != nil && t.IsStandardType {
			return true
		}
	}
	return false
}

// Scope 函数体或嵌套块
type Scope struct {
	Kind         ScopeKind
	FunctionName string

	// ParamStart/ParamEnd 函数形参表的 ( ) 下标
	ParamStart int
	ParamEnd   int
	// BodyStart/BodyEnd 作用域的 { } 下标
	BodyStart int
	BodyEnd   int

	Vars   []*Variable
	Nested []*Scope
	Parent *Scope
}

// lookup 沿作用域链按名字查找（不含当前语句之后声明的变量语义，仅供引擎的
// 同名外层变量检查使用）
func (s *Scope) lookup(name string) *Variable {
	for sc := s; sc != nil; sc = sc.Parent {
		for _, v := range sc.Vars {
			if v.Name == name {
				return v
			}
		}
	}
	return nil
}

// HasShadowedName 外层作用域中是否存在与 v 同名的变量
func (v *Variable) HasShadowedName() bool {
	if v.Scope == nil || v.Scope.Parent == nil {
		return false
	}
	return v.Scope.Parent.lookup(v.Name) != nil
}

// SymbolDatabase 单个翻译单元的符号信息
type SymbolDatabase struct {
	Arena     *TokenArena
	Global    *Scope
	Functions []*Scope

	byID      map[int]*Variable
	byNameTok map[int]*Variable
	nextID    int
}

// VariableOf 按变量编号取变量
func (db *SymbolDatabase) VariableOf(varid int) *Variable {
	return db.byID[varid]
}

// NewSymbolDatabase 从 token 序列建立作用域、变量表并回填 varid
func NewSymbolDatabase(a *TokenArena) *SymbolDatabase {
	db := &SymbolDatabase{
		Arena:     a,
		Global:    &Scope{Kind: ScopeGlobal, BodyStart: NoTok, BodyEnd: NoTok},
		byID:      make(map[int]*Variable),
		byNameTok: make(map[int]*Variable),
		nextID:    1,
	}
	db.findFunctions()
	for _, fn := range db.Functions {
		db.parseParameters(fn)
		db.buildScope(fn)
	}
	for _, fn := range db.Functions {
		db.stampScope(fn, nil)
	}
	return db
}

var controlKeywords = map[string]bool{
	"if": true, "else": true, "for": true, "while": true, "do": true,
	"switch": true, "return": true, "case": true, "sizeof": true,
	"new": true, "delete": true, "catch": true,
}

// findFunctions 识别函数定义：name ( ... ) {
func (db *SymbolDatabase) findFunctions() {
	a := db.Arena
	for i := 0; i < a.Size(); i++ {
		tok := a.At(i)
		if !tok.IsName || controlKeywords[tok.Text] || declKeywords[tok.Text] {
			continue
		}
		if a.Str(i+1) != "(" {
			continue
		}
		close := a.Link(i + 1)
		if close == NoTok || a.Str(close+1) != "{" {
			continue
		}
		prev := a.Str(i - 1)
		if prev == "." || prev == "->" {
			continue
		}
		bodyEnd := a.Link(close + 1)
		if bodyEnd == NoTok {
			continue
		}
		fn := &Scope{
			Kind:         ScopeFunction,
			FunctionName: tok.Text,
			ParamStart:   i + 1,
			ParamEnd:     close,
			BodyStart:    close + 1,
			BodyEnd:      bodyEnd,
			Parent:       db.Global,
		}
		db.Global.Nested = append(db.Global.Nested, fn)
		db.Functions = append(db.Functions, fn)
		i = bodyEnd
	}
}

// parseParameters 解析形参表
func (db *SymbolDatabase) parseParameters(fn *Scope) {
	a := db.Arena
	i := fn.ParamStart + 1
	for i < fn.ParamEnd {
		end := i
		depth := 0
		for end < fn.ParamEnd {
			switch a.Str(end) {
			case "(", "[":
				depth++
			case ")", "]":
				depth--
			case ",":
				if depth == 0 {
					goto paramSplit
				}
			}
			end++
		}
	paramSplit:
		db.parseOneParameter(fn, i, end)
		i = end + 1
	}
}

// parseOneParameter 解析 [start, end) 内的单个形参
func (db *SymbolDatabase) parseOneParameter(fn *Scope, start, end int) {
	a := db.Arena
	if start >= end {
		return
	}
	if end == start+1 && (a.Str(start) == "void" || a.Str(start) == "...") {
		return
	}
	v := &Variable{NameTok: NoTok, TypeStart: start, IsArgument: true, Scope: fn}
	j := start
	for j < end {
		t := a.At(j)
		switch {
		case t.Text == "const":
			v.IsConst = true
		case recordKeywords[t.Text]:
			v.IsRecord = true
		case t.Text == "*":
			v.IsPointer = true
		case t.Text == "&":
			v.IsReference = true
		case t.Text == "[":
			v.IsArray = true
			if lnk := a.Link(j); lnk != NoTok && lnk < end {
				j = lnk
			}
		case t.IsName && !declKeywords[t.Text]:
			// 最后一个名字是形参名，之前的都算类型
			v.NameTok = j
		}
		j++
	}
	if v.NameTok == NoTok {
		return
	}
	v.TypeEnd = v.NameTok - 1
	if v.TypeEnd < v.TypeStart {
		v.TypeEnd = v.TypeStart
	}
	v.Name = a.Str(v.NameTok)
	db.register(fn, v)
}

// buildScope 递归收集嵌套块作用域与局部变量声明
func (db *SymbolDatabase) buildScope(s *Scope) {
	a := db.Arena
	i := s.BodyStart + 1
	for i < s.BodyEnd && i != NoTok {
		tok := a.At(i)
		if tok == nil {
			break
		}
		if tok.Text == "{" {
			if db.isBlockOpen(i) {
				child := &Scope{
					Kind:      ScopeBlock,
					BodyStart: i,
					BodyEnd:   a.Link(i),
					Parent:    s,
				}
				if child.BodyEnd == NoTok {
					break
				}
				s.Nested = append(s.Nested, child)
				db.buildScope(child)
				i = child.BodyEnd + 1
				continue
			}
			// 聚合初始化等，整体跳过
			if lnk := a.Link(i); lnk != NoTok {
				i = lnk + 1
				continue
			}
		}
		prev := a.Str(i - 1)
		atStmtStart := i == s.BodyStart+1 || prev == ";" || prev == "{" || prev == "}"
		if atStmtStart {
			if info := tryParseDecl(a.Toks, i); info != nil {
				db.addDeclaredVars(s, info)
				i = info.end + 1
				continue
			}
		}
		i++
	}
}

// isBlockOpen 该 '{' 是否开启一个块作用域（而不是初始化列表）
func (db *SymbolDatabase) isBlockOpen(i int) bool {
	prev := db.Arena.Str(i - 1)
	switch prev {
	case ")", ";", "{", "}", "else", "do", ":":
		return true
	}
	return false
}

// addDeclaredVars 把一条声明语句中的变量登记到作用域
func (db *SymbolDatabase) addDeclaredVars(s *Scope, info *declInfo) {
	a := db.Arena
	isRecord := false
	for i := info.typeStart; i <= info.typeEnd; i++ {
		if recordKeywords[a.Str(i)] {
			isRecord = true
		}
	}
	for _, d := range info.decls {
		v := &Variable{
			Name:        a.Str(d.name),
			NameTok:     d.name,
			TypeStart:   info.typeStart,
			TypeEnd:     info.typeEnd,
			IsPointer:   d.stars > 0,
			IsArray:     d.arrayStart >= 0,
			IsReference: d.isRef,
			IsConst:     info.isConst,
			IsStatic:    info.isStatic,
			IsExtern:    info.isExtern,
			IsRecord:    isRecord,
			Scope:       s,
		}
		db.register(s, v)
	}
}

func (db *SymbolDatabase) register(s *Scope, v *Variable) {
	v.ID = db.nextID
	db.nextID++
	s.Vars = append(s.Vars, v)
	db.byID[v.ID] = v
	db.byNameTok[v.NameTok] = v
	if v.NameTok != NoTok {
		db.Arena.Toks[v.NameTok].VarID = v.ID
	}
}

// stampScope 按作用域链把标识符 token 回填 varid
// 局部变量自声明处起可见，内层遮蔽外层；'.' 与 '->' 后的成员名不回填
func (db *SymbolDatabase) stampScope(s *Scope, outer []map[string]*Variable) {
	a := db.Arena
	m := make(map[string]*Variable)
	if s.Kind == ScopeFunction {
		for _, v := range s.Vars {
			if v.IsArgument {
				m[v.Name] = v
			}
		}
	}
	visible := append(outer, m)

	childAt := make(map[int]*Scope, len(s.Nested))
	for _, c := range s.Nested {
		childAt[c.BodyStart] = c
	}

	i := s.BodyStart + 1
	for i < s.BodyEnd && i != NoTok {
		if child, ok := childAt[i]; ok {
			db.stampScope(child, visible)
			i = child.BodyEnd + 1
			continue
		}
		tok := a.At(i)
		if tok == nil {
			break
		}
		if v, ok := db.byNameTok[i]; ok && v.Scope == s {
			m[v.Name] = v
			i++
			continue
		}
		if tok.IsName && tok.VarID == 0 {
			prev := a.Str(i - 1)
			if prev != "." && prev != "->" && prev != "::" {
				for k := len(visible) - 1; k >= 0; k-- {
					if v, ok := visible[k][tok.Text]; ok {
						tok.VarID = v.ID
						break
					}
				}
			}
		}
		i++
	}
}
