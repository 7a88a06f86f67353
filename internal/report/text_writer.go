package report

import (
	"fmt"
	"io"
	"os"
)

// TextWriter 文本格式报告写入器
//
// 逐条输出 [file:line]: (severity) message，结尾附扫描摘要。
type TextWriter struct {
	writer    io.Writer
	showStats bool
}

// NewTextWriter 创建新的文本写入器
func NewTextWriter(writer io.Writer, options ...TextOption) *TextWriter {
	w := &TextWriter{
		writer:    writer,
		showStats: true,
	}

	for _, opt := range options {
		opt(w)
	}

	return w
}

// TextOption 文本选项
type TextOption func(*TextWriter)

// WithoutStats 禁用统计信息
func WithoutStats() TextOption {
	return func(w *TextWriter) {
		w.showStats = false
	}
}

// Write 生成并写入文本报告
func (w *TextWriter) Write(result *ScanResult) error {
	for _, d := range result.Diagnostics {
		fmt.Fprintf(w.writer, "[%s:%d]: (%s) %s\n", d.File, d.Line, d.Severity, d.Message)
	}

	if w.showStats {
		w.writeStatistics(result)
	}

	return nil
}

// WriteToFile 写入到文件
func (w *TextWriter) WriteToFile(result *ScanResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	writer := NewTextWriter(file, w.options()...)
	return writer.Write(result)
}

// writeStatistics 写入统计信息
func (w *TextWriter) writeStatistics(result *ScanResult) {
	if len(result.Diagnostics) == 0 {
		fmt.Fprintf(w.writer, "\nNo issues found.\n")
	}

	byID := make(map[string]int)
	byFile := make(map[string]int)
	for _, d := range result.Diagnostics {
		byID[d.ID]++
		byFile[d.File]++
	}

	fmt.Fprintf(w.writer, "\nScan summary:\n")
	fmt.Fprintf(w.writer, "  Files scanned: %d\n", result.FilesScanned)
	fmt.Fprintf(w.writer, "  Files with issues: %d\n", len(byFile))
	fmt.Fprintf(w.writer, "  Total issues: %d\n", len(result.Diagnostics))
	for _, id := range []string{"uninitvar", "uninitdata", "uninitstring"} {
		if byID[id] > 0 {
			fmt.Fprintf(w.writer, "    %s: %d\n", id, byID[id])
		}
	}
	fmt.Fprintf(w.writer, "  Duration: %s\n", result.Duration)
}

// options 获取选项
func (w *TextWriter) options() []TextOption {
	opts := []TextOption{}
	if !w.showStats {
		opts = append(opts, WithoutStats())
	}
	return opts
}
