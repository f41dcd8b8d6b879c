package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoot_RejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "validate", "../../data")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestValidate_BundledCatalog(t *testing.T) {
	out, err := execute(t, "validate", "../../data", "--tuning", "../../data/tuning.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "recipes.json")
	assert.Contains(t, out, "tuning.yaml")
	assert.NotContains(t, out, "FAIL")
}

func TestValidate_MissingDirFails(t *testing.T) {
	out, err := execute(t, "validate", "/nonexistent")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FAIL")
}

func TestValidate_JSONOutput(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", "../../data")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestScenario_BaselineFile(t *testing.T) {
	out, err := execute(t, "scenario", "../../scenarios/baseline.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "PASS")
}

func TestRun_ShortHeadlessSession(t *testing.T) {
	out, err := execute(t, "run", "--ticks", "50", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "ticks")
}

func TestSnapshots_RequiresDatabase(t *testing.T) {
	_, err := execute(t, "snapshots", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db")
}
