package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Pooja0509/cppcheck/internal/core"
)

// SARIFWriter SARIF 格式报告写入器
type SARIFWriter struct {
	writer io.Writer
	pretty bool
}

// NewSARIFWriter 创建新的 SARIF 写入器
func NewSARIFWriter(writer io.Writer, options ...SARIFOption) *SARIFWriter {
	w := &SARIFWriter{
		writer: writer,
		pretty: false,
	}

	for _, opt := range options {
		opt(w)
	}

	return w
}

// SARIFOption SARIF 选项
type SARIFOption func(*SARIFWriter)

// WithPrettySARIF 启用美化 JSON 输出
func WithPrettySARIF() SARIFOption {
	return func(w *SARIFWriter) {
		w.pretty = true
	}
}

// ruleDescriptions 各类检查结果的规则描述
var ruleDescriptions = map[string]string{
	"uninitvar":    "Variable is used before it has been assigned a value",
	"uninitdata":   "Allocated memory is read before anything has been written to it",
	"uninitstring": "Buffer may lack a null terminator when it is used as a string",
}

// Write 生成并写入 SARIF 报告
func (w *SARIFWriter) Write(result *ScanResult) error {
	sarifReport := w.generateSARIFReport(result)

	var data []byte
	var err error

	if w.pretty {
		data, err = json.MarshalIndent(sarifReport, "", "  ")
	} else {
		data, err = json.Marshal(sarifReport)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal SARIF report: %w", err)
	}

	_, err = w.writer.Write(data)
	return err
}

// WriteToFile 写入到文件
func (w *SARIFWriter) WriteToFile(result *ScanResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	writer := NewSARIFWriter(file, w.options()...)
	return writer.Write(result)
}

// generateSARIFReport 按 SARIF 2.1.0 规范生成报告
func (w *SARIFWriter) generateSARIFReport(result *ScanResult) *SARIF {
	rules, ruleIndex := w.generateRules(result)
	return &SARIF{
		Version: "2.1.0",
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:    "uninit-scan",
						Version: "1.0.0",
						Rules:   rules,
					},
				},
				Results: w.generateResults(result, ruleIndex),
			},
		},
	}
}

// generateRules 生成规则定义，返回规则表与 id 到下标的映射
func (w *SARIFWriter) generateRules(result *ScanResult) ([]Rule, map[string]int) {
	seen := make(map[string]bool)
	for _, d := range result.Diagnostics {
		seen[d.ID] = true
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rules := make([]Rule, 0, len(ids))
	ruleIndex := make(map[string]int, len(ids))
	for i, id := range ids {
		desc := ruleDescriptions[id]
		if desc == "" {
			desc = "Uninitialized variable usage"
		}
		rules = append(rules, Rule{
			ID:               id,
			Name:             id,
			ShortDescription: Description{Text: desc},
			FullDescription:  Description{Text: desc},
			HelpURI:          "https://cwe.mitre.org/data/definitions/457.html",
		})
		ruleIndex[id] = i
	}

	return rules, ruleIndex
}

// generateResults 生成结果
func (w *SARIFWriter) generateResults(result *ScanResult, ruleIndex map[string]int) []Result {
	results := make([]Result, 0, len(result.Diagnostics))

	for _, d := range result.Diagnostics {
		results = append(results, Result{
			RuleID:    d.ID,
			RuleIndex: ruleIndex[d.ID],
			Level:     w.mapSeverityToSARIF(d.Severity),
			Message:   Message{Text: d.Message},
			Locations: []Location{
				{
					PhysicalLocation: PhysicalLocation{
						ArtifactLocation: ArtifactLocation{
							URI: d.File,
						},
						Region: Region{
							StartLine:   d.Line,
							StartColumn: d.Column,
						},
					},
				},
			},
		})
	}

	return results
}

// mapSeverityToSARIF 映射严重性到 SARIF 级别
func (w *SARIFWriter) mapSeverityToSARIF(severity string) string {
	switch severity {
	case core.SeverityError:
		return "error"
	case core.SeverityWarning:
		return "warning"
	case core.SeverityStyle:
		return "note"
	default:
		return "warning"
	}
}

// options 获取选项
func (w *SARIFWriter) options() []SARIFOption {
	opts := []SARIFOption{}
	if w.pretty {
		opts = append(opts, WithPrettySARIF())
	}
	return opts
}

// SARIF SARIF 报告结构
type SARIF struct {
	Version string `json:"version"`
	Schema  string `json:"$schema"`
	Runs    []Run  `json:"runs"`
}

// Run SARIF 运行
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool SARIF 工具
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver 工具驱动
type Driver struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	InformationURI string `json:"informationUri,omitempty"`
	Rules          []Rule `json:"rules,omitempty"`
}

// Rule SARIF 规则
type Rule struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	ShortDescription Description `json:"shortDescription"`
	FullDescription  Description `json:"fullDescription"`
	HelpURI          string      `json:"helpUri,omitempty"`
}

// Description 描述
type Description struct {
	Text string `json:"text"`
}

// Result SARIF 结果
type Result struct {
	RuleID    string     `json:"ruleId"`
	RuleIndex int        `json:"ruleIndex"`
	Level     string     `json:"level"`
	Message   Message    `json:"message"`
	Locations []Location `json:"locations,omitempty"`
}

// Message 消息
type Message struct {
	Text string `json:"text"`
}

// Location 位置
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation,omitempty"`
}

// PhysicalLocation 物理位置
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region,omitempty"`
}

// ArtifactLocation artifact 位置
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region 区域
type Region struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}
