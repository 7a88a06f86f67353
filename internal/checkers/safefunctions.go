package checkers

import (
	"sort"

	"github.com/Pooja0509/cppcheck/internal/core"
)

// SafeFunctionIndex 能安全接收未初始化实参的函数名集合
//
// 形参全部按值传递（或 const、或只被写入的引用）的函数，调用它不会读取
// 调用方尚未初始化的内存，调用点因此不必做保守放弃。
type SafeFunctionIndex struct {
	names map[string]bool
}

// NewSafeFunctionIndex 创建空索引
func NewSafeFunctionIndex() *SafeFunctionIndex {
	return &SafeFunctionIndex{names: make(map[string]bool)}
}

// Contains 函数名是否在索引中；nil 索引视为空
func (idx *SafeFunctionIndex) Contains(name string) bool {
	return idx != nil && idx.names[name]
}

// Add 登记函数名
func (idx *SafeFunctionIndex) Add(name string) {
	idx.names[name] = true
}

// Merge 并入另一个索引
func (idx *SafeFunctionIndex) Merge(other *SafeFunctionIndex) {
	if other == nil {
		return
	}
	for name := range other.names {
		idx.names[name] = true
	}
}

// Names 排序后的函数名列表
func (idx *SafeFunctionIndex) Names() []string {
	if idx == nil {
		return nil
	}
	out := make([]string, 0, len(idx.names))
	for name := range idx.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AnalyseFunctions 扫描翻译单元内的函数定义，收集「简单函数」：
// 每个形参要么是基础类型按值传递，要么 const，要么是只被自增自减
// 读取的基础类型引用。命中的函数名加入 idx。
func AnalyseFunctions(a *core.TokenArena, idx *SafeFunctionIndex) {
	for tok := 0; tok < a.Size(); tok++ {
		if a.Str(tok) == "{" {
			if lnk := a.Link(tok); lnk != core.NoTok {
				tok = lnk
			}
			continue
		}
		if a.Str(tok-1) == "::" || !a.Match(tok, "%name% ( %name%") {
			continue
		}
		open := tok + 1
		close := a.Link(open)
		if close == core.NoTok || !a.Match(close, ") {|;") {
			continue
		}

		tok2 := open + 1
		for a.Valid(tok2) && a.Str(tok2) != ")" {
			if a.Str(tok2) == "," {
				tok2++
			}

			// 基础类型按值传递
			if a.Match(tok2, "%name% %name% ,|)") && a.At(tok2).IsStandardType {
				tok2 += 2
				continue
			}

			// 基础类型引用：函数里只被 ++/-- 读取才算安全
			if a.At(tok2) != nil && a.At(tok2).IsStandardType && a.Match(tok2, "%name% & %name% ,|)") {
				if !refParamOnlyIncDec(a, tok2) {
					break
				}
				tok2 += 3
				continue
			}

			if next := matchConstParam(a, tok2); next != core.NoTok {
				tok2 = next
				continue
			}

			// const 基础类型数组
			if a.Str(tok2) == "const" && a.At(tok2+1) != nil && a.At(tok2+1).IsStandardType &&
				a.Match(tok2+2, "%name% [ ] ,|)") {
				tok2 += 5
				continue
			}

			break
		}

		if a.Valid(tok2) && a.Str(tok2) == ")" && a.Link(tok2) == open {
			idx.Add(a.Str(tok))
		}
	}
}

// refParamOnlyIncDec 引用形参在函数体里是否只出现在 ++/-- 中
func refParamOnlyIncDec(a *core.TokenArena, tok2 int) bool {
	varid := a.VarID(tok2 + 2)
	read, written := false, false
	indent := 0
	for tok3 := tok2; a.Valid(tok3); tok3++ {
		s := a.Str(tok3)
		if s == "{" {
			indent++
		} else if s == "}" {
			if indent <= 1 {
				break
			}
			indent--
		} else if indent == 0 && s == ";" {
			break
		} else if indent >= 1 && a.VarID(tok3) == varid && varid != 0 {
			prevT, nextT := a.At(tok3-1), a.At(tok3+1)
			if (prevT != nil && prevT.IsIncDecOp) || (nextT != nil && nextT.IsIncDecOp) {
				read = true
			} else {
				written = true
				break
			}
		}
	}
	return read && !written
}

// matchConstParam 匹配 const %type% &|*|ε const|ε %name% ,|)
// 命中返回形参结束后（','/')'）的下标，否则返回 NoTok
func matchConstParam(a *core.TokenArena, tok2 int) int {
	if a.Str(tok2) != "const" {
		return core.NoTok
	}
	t := a.At(tok2 + 1)
	if t == nil || !t.IsStandardType {
		return core.NoTok
	}
	j := tok2 + 2
	if a.Str(j) == "&" || a.Str(j) == "*" {
		j++
	}
	if a.Str(j) == "const" {
		j++
	}
	if !a.Match(j, "%name% ,|)") {
		return core.NoTok
	}
	return j + 1
}
