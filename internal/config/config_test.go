package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pooja0509/cppcheck/internal/config"
	"github.com/Pooja0509/cppcheck/internal/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "uninit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `jobs: 4
format: json
output: report.json
suppressions:
  - id: uninitvar
    file: legacy.c
  - file: "third_party/*.c"
  - id: uninitstring
    line: 42
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "report.json", cfg.Output)
	require.Len(t, cfg.Suppressions, 3)
	assert.Equal(t, "uninitvar", cfg.Suppressions[0].ID)
	assert.Equal(t, 42, cfg.Suppressions[2].Line)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "jobs: [\n")
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadEmptySuppression(t *testing.T) {
	path := writeConfig(t, `suppressions:
  - {}
`)
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	path := writeConfig(t, `suppressions:
  - id: uninitvar
    file: legacy.c
  - id: uninitstring
    line: 42
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	diags := []core.Diagnostic{
		{ID: "uninitvar", File: "src/legacy.c", Line: 3},
		{ID: "uninitvar", File: "src/main.c", Line: 7},
		{ID: "uninitstring", File: "src/main.c", Line: 42},
		{ID: "uninitstring", File: "src/main.c", Line: 43},
	}
	kept, suppressed := cfg.Filter(diags)
	assert.Equal(t, 2, suppressed)
	require.Len(t, kept, 2)
	assert.Equal(t, 7, kept[0].Line)
	assert.Equal(t, 43, kept[1].Line)
}

func TestFilterNoSuppressions(t *testing.T) {
	cfg := &config.Config{}
	diags := []core.Diagnostic{{ID: "uninitvar", File: "a.c", Line: 1}}
	kept, suppressed := cfg.Filter(diags)
	assert.Zero(t, suppressed)
	assert.Len(t, kept, 1)
}

func TestFilterGlobFile(t *testing.T) {
	cfg := &config.Config{
		Suppressions: []config.Suppression{{File: "third_party/*.c"}},
	}
	diags := []core.Diagnostic{
		{ID: "uninitvar", File: "third_party/lib.c", Line: 1},
		{ID: "uninitvar", File: "src/lib.c", Line: 1},
	}
	kept, suppressed := cfg.Filter(diags)
	assert.Equal(t, 1, suppressed)
	require.Len(t, kept, 1)
	assert.Equal(t, "src/lib.c", kept[0].File)
}
