package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Pooja0509/cppcheck/internal/core"
)

// JSONReport JSON 格式报告
type JSONReport struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Tool        ToolInfo          `json:"tool"`
	Summary     Summary           `json:"summary"`
	Diagnostics []core.Diagnostic `json:"diagnostics"`
}

// ToolInfo 工具信息
type ToolInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// Summary 结果统计摘要
type Summary struct {
	Total        int            `json:"total"`
	ByID         map[string]int `json:"by_id"`
	BySeverity   map[string]int `json:"by_severity"`
	FilesScanned int            `json:"files_scanned"`
	DurationMS   int64          `json:"duration_ms"`
}

// JSONWriter JSON 报告写入器
type JSONWriter struct {
	writer io.Writer
	pretty bool
}

// NewJSONWriter 创建新的 JSON 写入器
func NewJSONWriter(writer io.Writer, options ...JSONOption) *JSONWriter {
	w := &JSONWriter{
		writer: writer,
		pretty: false,
	}

	for _, opt := range options {
		opt(w)
	}

	return w
}

// JSONOption JSON 选项
type JSONOption func(*JSONWriter)

// WithPrettyJSON 启用美化 JSON 输出
func WithPrettyJSON() JSONOption {
	return func(w *JSONWriter) {
		w.pretty = true
	}
}

// Write 生成并写入报告
func (w *JSONWriter) Write(result *ScanResult) error {
	report := w.generateReport(result)

	var data []byte
	var err error

	if w.pretty {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON report: %w", err)
	}

	_, err = w.writer.Write(data)
	return err
}

// WriteToFile 写入到文件
func (w *JSONWriter) WriteToFile(result *ScanResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	writer := NewJSONWriter(file, w.options()...)
	return writer.Write(result)
}

// generateReport 生成报告数据
func (w *JSONWriter) generateReport(result *ScanResult) *JSONReport {
	report := &JSONReport{
		GeneratedAt: time.Now(),
		Tool: ToolInfo{
			Name:        "uninit-scan",
			Version:     "1.0.0",
			Description: "Uninitialized variable checker for C/C++",
		},
		Summary: Summary{
			Total:        len(result.Diagnostics),
			ByID:         make(map[string]int),
			BySeverity:   make(map[string]int),
			FilesScanned: result.FilesScanned,
			DurationMS:   result.Duration.Milliseconds(),
		},
		Diagnostics: make([]core.Diagnostic, 0, len(result.Diagnostics)),
	}

	for _, d := range result.Diagnostics {
		report.Summary.ByID[d.ID]++
		report.Summary.BySeverity[d.Severity]++
		report.Diagnostics = append(report.Diagnostics, d)
	}

	return report
}

// options 获取选项
func (w *JSONWriter) options() []JSONOption {
	opts := []JSONOption{}
	if w.pretty {
		opts = append(opts, WithPrettyJSON())
	}
	return opts
}
