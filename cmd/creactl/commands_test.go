package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/creative-o-meter/internal/creativity"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/prompt"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/types"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSynergyCommand(t *testing.T) {
	out, err := execute(t, "synergy", "--json")
	require.NoError(t, err)

	var resp types.SynergyResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.InDelta(t, 3.71, resp.Score, 1e-9)
	assert.Empty(t, resp.Matrix)

	out, err = execute(t, "synergy", "--subject", "1", "--style", "1", "--mood", "1", "--detail", "1", "--context", "1", "--matrix")
	require.NoError(t, err)
	assert.Contains(t, out, "score")
	assert.Contains(t, out, "7.000")
	assert.Contains(t, out, "subject x style")
}

func TestSynergyCommandRejectsRange(t *testing.T) {
	_, err := execute(t, "synergy", "--mood", "1.5")
	assert.Error(t, err)

	_, err = execute(t, "synergy", "extra")
	assert.Error(t, err)
}

func TestRandomizeCommandSeeded(t *testing.T) {
	first, err := execute(t, "randomize", "--json", "--seed", "11")
	require.NoError(t, err)
	second, err := execute(t, "randomize", "--json", "--seed", "11")
	require.NoError(t, err)
	assert.JSONEq(t, first, second)

	var resp types.SynergyResponse
	require.NoError(t, json.Unmarshal([]byte(first), &resp))
	require.NotNil(t, resp.Attributes)
	assert.Empty(t, types.ValidateVector(*resp.Attributes))
}

func TestComposeCommand(t *testing.T) {
	out, err := execute(t, "compose", "--subject", "0", "--style", "0", "--mood", "0", "--detail", "0", "--context", "0")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))

	out, err = execute(t, "compose", "--json", "--threshold", "0", "--lead", "Imagine", "--seed", "3")
	require.NoError(t, err)

	var res prompt.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.ThresholdMet)
	require.NotNil(t, res.TwistApplied)
	assert.True(t, strings.HasPrefix(res.Prompt, "Imagine "))
	assert.Contains(t, prompt.DefaultTwists(), *res.TwistApplied)

	_, err = execute(t, "compose", "--threshold", "-1")
	assert.Error(t, err)
}

func TestComposeCommandVocabularyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	doc := `phrases:
  subject: [a fox]
  style: [woodcut]
  mood: [quiet]
  detail: [fine lines]
  context: [at dawn]
twists: []
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	out, err := execute(t, "compose", "--vocabulary", path, "--threshold", "0")
	require.NoError(t, err)
	assert.Equal(t, "a fox depicted as a woodcut in a quiet tone, featuring fine lines at dawn\n", out)

	_, err = execute(t, "compose", "--vocabulary", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGridCommand(t *testing.T) {
	out, err := execute(t, "grid", "--json", "--cols", "5", "--rows", "4", "--iteration", "10", "--seed", "1")
	require.NoError(t, err)

	var grid creativity.GridResult
	require.NoError(t, json.Unmarshal([]byte(out), &grid))
	assert.Equal(t, 5, grid.Cols)
	assert.Equal(t, 4, grid.Rows)
	assert.Empty(t, grid.Cells)

	out, err = execute(t, "grid", "--json", "--cells", "--width", "100", "--height", "40", "--seed", "1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &grid))
	assert.Equal(t, 5, grid.Cols)
	assert.Equal(t, 2, grid.Rows)
	assert.Len(t, grid.Cells, 10)

	out, err = execute(t, "grid", "--cols", "3", "--rows", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "3x3")

	_, err = execute(t, "grid", "--cols", "3", "--rows", "3", "--theta", "0")
	assert.Error(t, err)
}
