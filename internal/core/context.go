package core

import (
	"context"
	"sort"
)

// 严重级别
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityStyle   = "style"
)

// Diagnostic 一条检查结果
type Diagnostic struct {
	// ID 检查结果类别，如 uninitvar / uninitdata / uninitstring
	ID       string `json:"id"`
	Message  string `json:"message"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity string `json:"severity"`
}

// SortDiagnostics 按 文件、行、列、类别 排序，保证输出与并发度无关
func SortDiagnostics(diags []Diagnostic) {
	sort.Slice(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.Message < b.Message
	})
}

// AnalysisContext 单个翻译单元的分析上下文
type AnalysisContext struct {
	Arena   *TokenArena
	Symbols *SymbolDatabase
}

// NewAnalysisContext 解析文件并建立符号信息
func NewAnalysisContext(ctx context.Context, path string) (*AnalysisContext, error) {
	arena, err := ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return &AnalysisContext{Arena: arena, Symbols: NewSymbolDatabase(arena)}, nil
}

// NewAnalysisContextFromSource 从内存中的源码建立分析上下文（测试用）
func NewAnalysisContextFromSource(ctx context.Context, source []byte, path string) (*AnalysisContext, error) {
	arena, err := Tokenize(ctx, source, path)
	if err != nil {
		return nil, err
	}
	return &AnalysisContext{Arena: arena, Symbols: NewSymbolDatabase(arena)}, nil
}

// Checker 检查器接口
type Checker interface {
	// Name 检查器名称
	Name() string
	// Description 检查器描述
	Description() string
	// Run 对单个翻译单元执行检查
	Run(ctx *AnalysisContext) []Diagnostic
}
