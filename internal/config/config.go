// Package config 扫描配置与告警抑制规则。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Pooja0509/cppcheck/internal/core"
)

// Suppression 单条抑制规则
//
// id / file / line 都是可选项，留空表示通配。file 支持 glob 模式，
// 也可以写相对路径后缀。
type Suppression struct {
	ID   string `yaml:"id"`
	File string `yaml:"file"`
	Line int    `yaml:"line"`
}

// Config 扫描配置
type Config struct {
	// Jobs 并发文件数，0 表示跟随命令行
	Jobs int `yaml:"jobs"`
	// Format 报告格式：text / json / sarif / all
	Format string `yaml:"format"`
	// Output 报告输出文件
	Output string `yaml:"output"`

	Suppressions []Suppression `yaml:"suppressions"`
}

// Load 从 YAML 文件读取配置
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	for i, s := range cfg.Suppressions {
		if s.ID == "" && s.File == "" && s.Line == 0 {
			return nil, fmt.Errorf("config %s: suppression #%d is empty", path, i+1)
		}
	}
	return cfg, nil
}

// matches 诊断是否命中这条规则
func (s *Suppression) matches(d core.Diagnostic) bool {
	if s.ID != "" && s.ID != d.ID {
		return false
	}
	if s.Line != 0 && s.Line != d.Line {
		return false
	}
	if s.File != "" {
		if ok, err := filepath.Match(s.File, d.File); err == nil && ok {
			return true
		}
		if ok, err := filepath.Match(s.File, filepath.Base(d.File)); err == nil && ok {
			return true
		}
		return strings.HasSuffix(d.File, s.File)
	}
	return true
}

// Filter 过滤掉被抑制的诊断，返回保留的条目与抑制数
func (c *Config) Filter(diags []core.Diagnostic) ([]core.Diagnostic, int) {
	if c == nil || len(c.Suppressions) == 0 {
		return diags, 0
	}
	kept := diags[:0]
	suppressed := 0
	for _, d := range diags {
		hit := false
		for i := range c.Suppressions {
			if c.Suppressions[i].matches(d) {
				hit = true
				break
			}
		}
		if hit {
			suppressed++
			continue
		}
		kept = append(kept, d)
	}
	return kept, suppressed
}
