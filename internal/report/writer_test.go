package report_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pooja0509/cppcheck/internal/core"
	"github.com/Pooja0509/cppcheck/internal/report"
)

func sampleResult() *report.ScanResult {
	return &report.ScanResult{
		Diagnostics: []core.Diagnostic{
			{
				ID:       "uninitvar",
				Message:  "Uninitialized variable: x",
				File:     "src/main.c",
				Line:     4,
				Column:   13,
				Severity: core.SeverityError,
			},
			{
				ID:       "uninitdata",
				Message:  "Memory is allocated but not initialized: p",
				File:     "src/util.c",
				Line:     10,
				Column:   5,
				Severity: core.SeverityError,
			},
		},
		Duration:     125 * time.Millisecond,
		FilesScanned: 2,
		CheckersUsed: []string{"UninitVar"},
	}
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	w := report.NewTextWriter(&buf)
	require.NoError(t, w.Write(sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "[src/main.c:4]: (error) Uninitialized variable: x")
	assert.Contains(t, out, "[src/util.c:10]: (error) Memory is allocated but not initialized: p")
	assert.Contains(t, out, "Total issues: 2")
	assert.Contains(t, out, "uninitvar: 1")
	assert.Contains(t, out, "uninitdata: 1")
}

func TestTextWriterWithoutStats(t *testing.T) {
	var buf bytes.Buffer
	w := report.NewTextWriter(&buf, report.WithoutStats())
	require.NoError(t, w.Write(sampleResult()))
	assert.NotContains(t, buf.String(), "Scan summary")
}

func TestTextWriterNoIssues(t *testing.T) {
	var buf bytes.Buffer
	w := report.NewTextWriter(&buf)
	require.NoError(t, w.Write(&report.ScanResult{FilesScanned: 1}))
	assert.Contains(t, buf.String(), "No issues found.")
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	w := report.NewJSONWriter(&buf)
	require.NoError(t, w.Write(sampleResult()))

	var parsed report.JSONReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "uninit-scan", parsed.Tool.Name)
	assert.Equal(t, 2, parsed.Summary.Total)
	assert.Equal(t, 1, parsed.Summary.ByID["uninitvar"])
	assert.Equal(t, 1, parsed.Summary.ByID["uninitdata"])
	assert.Equal(t, 2, parsed.Summary.BySeverity["error"])
	assert.Equal(t, int64(125), parsed.Summary.DurationMS)
	require.Len(t, parsed.Diagnostics, 2)
	assert.Equal(t, "Uninitialized variable: x", parsed.Diagnostics[0].Message)
}

func TestSARIFWriter(t *testing.T) {
	var buf bytes.Buffer
	w := report.NewSARIFWriter(&buf)
	require.NoError(t, w.Write(sampleResult()))

	var parsed report.SARIF
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "2.1.0", parsed.Version)
	require.Len(t, parsed.Runs, 1)

	run := parsed.Runs[0]
	assert.Equal(t, "uninit-scan", run.Tool.Driver.Name)
	// 规则按 id 排序：uninitdata 在 uninitvar 之前
	require.Len(t, run.Tool.Driver.Rules, 2)
	assert.Equal(t, "uninitdata", run.Tool.Driver.Rules[0].ID)
	assert.Equal(t, "uninitvar", run.Tool.Driver.Rules[1].ID)

	require.Len(t, run.Results, 2)
	assert.Equal(t, "uninitvar", run.Results[0].RuleID)
	assert.Equal(t, 1, run.Results[0].RuleIndex)
	assert.Equal(t, "error", run.Results[0].Level)
	require.Len(t, run.Results[0].Locations, 1)
	loc := run.Results[0].Locations[0].PhysicalLocation
	assert.Equal(t, "src/main.c", loc.ArtifactLocation.URI)
	assert.Equal(t, 4, loc.Region.StartLine)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]report.Format{
		"json":  report.FormatJSON,
		"TEXT":  report.FormatText,
		"sarif": report.FormatSARIF,
		"all":   report.FormatAll,
	} {
		got, err := report.ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := report.ParseFormat("xml")
	assert.Error(t, err)
}

func TestManagerGenerate(t *testing.T) {
	dir := t.TempDir()
	mgr := report.NewManager(
		report.WithFormat(report.FormatJSON),
		report.WithOutputDir(dir),
		report.WithFilename("scan.json"),
	)
	files, err := mgr.Generate(sampleResult())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "scan.json"), files[0])

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestManagerGenerateAllFormats(t *testing.T) {
	dir := t.TempDir()
	mgr := report.NewManager(
		report.WithFormat(report.FormatAll),
		report.WithOutputDir(dir),
	)
	files, err := mgr.Generate(sampleResult())
	require.NoError(t, err)
	require.Len(t, files, 3)
	for _, f := range files {
		_, err := os.Stat(f)
		assert.NoError(t, err)
	}
}

func TestManagerUnsupportedFormat(t *testing.T) {
	mgr := report.NewManager(report.WithFormat(report.Format("xml")))
	_, err := mgr.Generate(sampleResult())
	assert.Error(t, err)
}
