package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/Pooja0509/cppcheck/internal/checkers"
	"github.com/Pooja0509/cppcheck/internal/config"
	"github.com/Pooja0509/cppcheck/internal/core"
	"github.com/Pooja0509/cppcheck/internal/report"
)

// getExcludedDirs 返回统一的排除目录列表
func getExcludedDirs() map[string]bool {
	return map[string]bool{
		// 构建产物
		"build": true, "dist": true, "target": true, "cmake-build": true, ".cmake": true,
		// 依赖管理
		"vendor": true, "node_modules": true, "third_party": true, "thirdparty": true,
		"3rdparty": true, "deps": true, "external": true, "externals": true,
		// 版本控制
		".git": true, ".svn": true, ".hg": true,
		// IDE 和编辑器
		".cache": true, ".idea": true, ".vscode": true,
	}
}

// Scanner 主扫描器
type Scanner struct {
	jobs    int
	verbose bool

	// safe 安全函数索引；只在单线程扫描时填充
	safe *checkers.SafeFunctionIndex

	mu    sync.Mutex
	diags []core.Diagnostic
}

// NewScanner 创建新的扫描器
func NewScanner(jobs int, verbose bool) *Scanner {
	return &Scanner{
		jobs:    jobs,
		verbose: verbose,
	}
}

// collectFiles 收集待扫描的 C/C++ 文件
func (s *Scanner) collectFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", root, err)
	}
	if !info.IsDir() {
		if !core.IsSupportedFile(root) {
			return nil, fmt.Errorf("unsupported file type: %s", root)
		}
		return []string{root}, nil
	}

	excludedDirs := getExcludedDirs()
	var files []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			baseName := strings.ToLower(filepath.Base(path))
			if path != root && excludedDirs[baseName] {
				if s.verbose {
					log.Printf("跳过排除的目录: %s", path)
				}
				return filepath.SkipDir
			}
			return nil
		}
		if core.IsSupportedFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", root, err)
	}
	return files, nil
}

// analyseSafeFunctions 预扫描收集安全函数索引
//
// 索引是跨文件共享的全局状态，多线程扫描时不做写入，与单线程
// 结果的差异只是调用点多一些保守放弃。
func (s *Scanner) analyseSafeFunctions(ctx context.Context, files []string) {
	if s.jobs != 1 {
		return
	}
	s.safe = checkers.NewSafeFunctionIndex()
	for _, file := range files {
		unit, err := core.NewAnalysisContext(ctx, file)
		if err != nil {
			if s.verbose {
				log.Printf("预扫描失败 %s: %v", file, err)
			}
			continue
		}
		checkers.AnalyseFunctions(unit.Arena, s.safe)
	}
	if s.verbose {
		log.Printf("安全函数索引: %d 个函数", len(s.safe.Names()))
	}
}

// ScanFile 扫描单个文件
func (s *Scanner) ScanFile(ctx context.Context, filePath string) error {
	unit, err := core.NewAnalysisContext(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", filePath, err)
	}

	checker := checkers.NewCheckUninitVar(s.safe)
	diags := checker.Run(unit)

	s.mu.Lock()
	s.diags = append(s.diags, diags...)
	s.mu.Unlock()
	return nil
}

// Scan 扫描文件列表，返回排序后的诊断
func (s *Scanner) Scan(ctx context.Context, files []string) []core.Diagnostic {
	s.analyseSafeFunctions(ctx, files)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.jobs)
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.ScanFile(gctx, file); err != nil {
				// 单个文件解析失败不中断整体扫描
				log.Printf("警告: %v", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil && s.verbose {
		log.Printf("扫描中断: %v", err)
	}

	core.SortDiagnostics(s.diags)
	return s.diags
}

func main() {
	defaultJobs := runtime.NumCPU()
	if defaultJobs > 32 {
		defaultJobs = 32
	}

	var (
		jobs        = pflag.IntP("jobs", "j", defaultJobs, "Number of files scanned concurrently")
		verbose     = pflag.BoolP("verbose", "v", false, "Verbose output")
		format      = pflag.String("format", "text", "Output format (text, json, sarif, all)")
		output      = pflag.String("output", "", "Output file path for report (e.g., report.json)")
		timestamp   = pflag.Bool("timestamp", false, "Add timestamp to output files")
		configPath  = pflag.String("config", "", "YAML config file with suppressions")
		listFormats = pflag.Bool("list-formats", false, "List supported output formats")
		help        = pflag.BoolP("help", "h", false, "Show help")
	)
	pflag.Parse()

	if *listFormats {
		fmt.Printf("Supported output formats:\n")
		for _, f := range report.SupportedFormats() {
			fmt.Printf("  %s - %s\n", f, report.FormatDescription(f))
		}
		os.Exit(0)
	}

	if *help || pflag.NArg() < 1 {
		fmt.Printf("uninit-scan - Uninitialized variable checker for C/C++\n\n")
		fmt.Printf("Usage: %s [options] <path>\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		pflag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s src/main.c\n", os.Args[0])
		fmt.Printf("  %s -j 8 -v /path/to/project\n", os.Args[0])
		fmt.Printf("  %s --format json --output report.json /path/to/project\n", os.Args[0])
		if *help {
			os.Exit(0)
		}
		os.Exit(1)
	}

	outputFormat, err := report.ParseFormat(*format)
	if err != nil {
		log.Fatalf("Invalid output format: %v", err)
	}

	var cfg *config.Config
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("加载配置失败: %v", err)
		}
		if cfg.Jobs > 0 {
			*jobs = cfg.Jobs
		}
		if cfg.Format != "" && !pflag.CommandLine.Changed("format") {
			outputFormat, err = report.ParseFormat(cfg.Format)
			if err != nil {
				log.Fatalf("Invalid output format in config: %v", err)
			}
		}
		if cfg.Output != "" && *output == "" {
			*output = cfg.Output
		}
	}
	if *jobs < 1 {
		*jobs = 1
	}

	path := pflag.Arg(0)
	scanner := NewScanner(*jobs, *verbose)

	files, err := scanner.collectFiles(path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("发现 %d 个 C/C++ 文件", len(files))
	if len(files) == 0 {
		os.Exit(0)
	}

	ctx := context.Background()
	startTime := time.Now()

	diags := scanner.Scan(ctx, files)

	suppressed := 0
	if cfg != nil {
		diags, suppressed = cfg.Filter(diags)
	}

	duration := time.Since(startTime)
	log.Printf("扫描完成: %d 个文件，发现 %d 个问题", len(files), len(diags))
	if suppressed > 0 && *verbose {
		log.Printf("按配置抑制了 %d 个问题", suppressed)
	}

	result := &report.ScanResult{
		Diagnostics:  diags,
		Duration:     duration,
		FilesScanned: len(files),
		CheckersUsed: []string{"UninitVar"},
	}

	// 控制台始终输出 text 结果
	console := report.NewTextWriter(os.Stdout)
	if err := console.Write(result); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}

	if *output != "" {
		outputDir := filepath.Dir(*output)
		opts := []report.ManagerOption{
			report.WithFormat(outputFormat),
			report.WithOutputDir(outputDir),
		}
		if outputFormat != report.FormatAll {
			opts = append(opts, report.WithFilename(filepath.Base(*output)))
		}
		if *timestamp {
			opts = append(opts, report.WithTimestamp())
		}
		mgr := report.NewManager(opts...)
		outputFiles, err := mgr.Generate(result)
		if err != nil {
			log.Fatalf("Failed to generate report: %v", err)
		}
		fmt.Printf("\nReport generated:\n")
		for _, file := range outputFiles {
			fmt.Printf("  %s\n", file)
		}
	}

	if len(diags) > 0 {
		os.Exit(1)
	}
}
