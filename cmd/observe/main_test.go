package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/observe/internal/errors"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunCommand(t *testing.T) {
	path := writeFile(t, "groceries.yaml", `name: groceries
initial: [milk]
steps:
  - op: push
    args: [eggs]
  - op: shift
`)

	out, err := execute(t, "run", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# groceries\n")
	assert.Contains(t, out, `initial: ["milk"]`)
	assert.Contains(t, out, `1. push("eggs")`)
	assert.Contains(t, out, "2. shift()\n")
	assert.Contains(t, out, "   => \"milk\"\n")
	assert.Contains(t, out, `   added: [{"status":"added","index":1,"value":"eggs"}]`)
	assert.Contains(t, out, `   deleted: [{"status":"deleted","index":0,"value":"milk"}]`)
	assert.True(t, strings.HasSuffix(out, "final: [\"eggs\"]\n"), out)
}

func TestRunCommand_Errors(t *testing.T) {
	_, err := execute(t, "run")
	var oe *errors.ObserveError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "O040", oe.Code)

	_, err = execute(t, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "O010", oe.Code)

	path := writeFile(t, "bad.yaml", "steps:\n  - op: explode\n")
	_, err = execute(t, "run", path)
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "O012", oe.Code)

	path = writeFile(t, "ok.yaml", "steps:\n  - op: push\n    args: [1]\n")
	_, err = execute(t, "run", path, "--throttle=-1s")
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "O014", oe.Code)
}

func TestRunCommand_ThrottleFlag(t *testing.T) {
	path := writeFile(t, "burst.yaml", `initial: []
steps:
  - op: push
    args: [a]
  - op: push
    args: [b]
`)

	out, err := execute(t, "run", path, "--throttle=20ms")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "   added:"), out)
	assert.Contains(t, out, `   added: [{"status":"added","index":0,"value":"a"},{"status":"added","index":1,"value":"b"}]`)
}

func TestOpsCommand(t *testing.T) {
	out, err := execute(t, "ops")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines, "push")
	assert.Contains(t, lines, "destroyAll")
	assert.IsIncreasing(t, lines)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestServeCommand_InvalidConfig(t *testing.T) {
	path := writeFile(t, "observe.json", `{"server": {"port": 70000}}`)

	_, err := execute(t, "serve", "--config", path)
	var oe *errors.ObserveError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "O004", oe.Code)

	path = writeFile(t, "observe.json", `{"snapshot": {"prefix": "lists/"}}`)
	_, err = execute(t, "serve", "--config", path)
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "O006", oe.Code)
}

func TestServeCommand_MissingCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	path := writeFile(t, "observe.json", `{
  "server": {"host": "127.0.0.1", "port": 0},
  "metrics": {"enabled": false},
  "snapshot": {"bucket": "lists"}
}`)

	_, err := execute(t, "serve", "--config", path)
	var oe *errors.ObserveError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "O030", oe.Code)
}
