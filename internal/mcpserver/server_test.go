package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"layercheck/internal/report"
)

func fixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		".layercheck.yaml": "contracts:\n" +
			"  - name: core is independent\n" +
			"    type: forbidden\n" +
			"    source_modules: [app.core.*]\n" +
			"    destination_modules: [app.api.*]\n",
		"app/__init__.py":      "",
		"app/core/__init__.py": "",
		"app/core/model.py":    "from app.api import routes\n",
		"app/api/__init__.py":  "",
		"app/api/routes.py":    "from app.core import model\n",
	}
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return root
}

func newTools(t *testing.T) *tools {
	return &tools{logger: zaptest.NewLogger(t), getenv: func(string) string { return "" }}
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func TestCheckArchitecture(t *testing.T) {
	root := fixture(t)
	res, err := newTools(t).checkArchitecture(context.Background(), call(map[string]any{"root": root}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	var r report.Report
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &r))
	assert.Equal(t, report.StatusFail, r.Status)
	require.Len(t, r.Contracts, 1)
	require.Len(t, r.Contracts[0].Violations, 1)
	assert.Equal(t, []string{"app.core.model", "app.api.routes"}, r.Contracts[0].Violations[0].Path)
}

func TestModuleGraph(t *testing.T) {
	root := fixture(t)
	res, err := newTools(t).moduleGraph(context.Background(), call(map[string]any{"root": root}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	var ex report.GraphExport
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &ex))
	assert.Len(t, ex.Modules, 5)
	assert.Len(t, ex.Edges, 2)
	require.Len(t, ex.Cycles, 1)
	assert.Equal(t, []string{"app.api.routes", "app.core.model", "app.api.routes"}, ex.Cycles[0])
}

func TestToolErrorsAreResults(t *testing.T) {
	tl := newTools(t)

	res, err := tl.checkArchitecture(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError, "missing root")

	res, err = tl.checkArchitecture(context.Background(), call(map[string]any{"root": t.TempDir()}))
	require.NoError(t, err)
	assert.True(t, res.IsError, "missing config")
}

func TestNewRegistersTools(t *testing.T) {
	assert.NotNil(t, New("test", nil))
}

func TestModuleGraphWithoutContracts(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "solo.py"), []byte("import os\n"), 0o644))

	res, err := newTools(t).moduleGraph(context.Background(), call(map[string]any{"root": root}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	assert.Contains(t, text(t, res), `"solo"`)
}
