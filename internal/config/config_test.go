package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layercheck/internal/config"
	"layercheck/internal/contract"
)

const minimal = `
exclude: ["**/tests/**"]
contracts:
  - name: layered
    type: layers
    layers: [app.api.*, app.core.*]
`

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func noEnv(string) string { return "" }

func TestDefaults(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, config.DefaultFile, minimal)

	cfg, err := config.Resolve(config.Options{Root: root}, noEnv)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, config.DefaultFile), cfg.ConfigPath)
	assert.Equal(t, root, cfg.Scan.Root)
	assert.Equal(t, []string{"**/tests/**"}, cfg.Scan.Exclude)
	assert.Equal(t, 0, cfg.Scan.Workers)
	assert.Equal(t, config.DefaultTimeout, cfg.Scan.Timeout)
	assert.Equal(t, config.FormatText, cfg.Output.Format)
	require.Len(t, cfg.Contracts, 1)
	assert.Equal(t, "layered", cfg.Contracts[0].Name())
}

func TestFlagsOverrideFileAndEnv(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, config.DefaultFile, minimal)

	env := func(k string) string {
		if k == config.EnvMaxWorkers {
			return "3"
		}
		return ""
	}
	cfg, err := config.Resolve(config.Options{
		Root:    root,
		Workers: 7,
		Exclude: []string{"legacy/**"},
		Timeout: time.Second,
		Format:  config.FormatJSON,
	}, env)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Scan.Workers)
	assert.Equal(t, []string{"legacy/**"}, cfg.Scan.Exclude)
	assert.Equal(t, time.Second, cfg.Scan.Timeout)
	assert.Equal(t, config.FormatJSON, cfg.Output.Format)

	cfg, err = config.Resolve(config.Options{Root: root}, env)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Scan.Workers, "env applies when the flag is unset")
}

func TestBadMaxWorkers(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, config.DefaultFile, minimal)

	_, err := config.Resolve(config.Options{Root: root}, func(string) string { return "lots" })
	var ce *contract.ConfigError
	assert.True(t, errors.As(err, &ce))
}

func TestFileRootIsRelativeToConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "conf/layers.yaml", "root: ../src\n"+minimal)

	cfg, err := config.Resolve(config.Options{ConfigPath: path}, noEnv)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src"), cfg.Scan.Root)

	// An explicit root wins.
	cfg, err = config.Resolve(config.Options{ConfigPath: path, Root: dir}, noEnv)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Scan.Root)
}

func TestMissingConfigIsConfigError(t *testing.T) {
	_, err := config.Resolve(config.Options{Root: t.TempDir()}, noEnv)
	var ce *contract.ConfigError
	assert.True(t, errors.As(err, &ce))
}

func TestInvalidContractsAreConfigErrors(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, config.DefaultFile, "contracts:\n  - name: x\n    type: layers\n    layers: [a]\n")

	_, err := config.Resolve(config.Options{Root: root}, noEnv)
	var ce *contract.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, err.Error(), config.DefaultFile)
}

func TestUnknownFormat(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, config.DefaultFile, minimal)

	_, err := config.Resolve(config.Options{Root: root, Format: "xml"}, noEnv)
	var ce *contract.ConfigError
	assert.True(t, errors.As(err, &ce))
}

func TestContractsOptional(t *testing.T) {
	root := t.TempDir()
	cfg, err := config.Resolve(config.Options{Root: root, ContractsOptional: true}, noEnv)
	require.NoError(t, err)
	assert.Empty(t, cfg.Contracts)
	assert.Empty(t, cfg.ConfigPath)

	// A named file must still exist.
	_, err = config.Resolve(config.Options{Root: root, ConfigPath: filepath.Join(root, "x.yaml"), ContractsOptional: true}, noEnv)
	assert.Error(t, err)
}
