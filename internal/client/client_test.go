package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sira-systems/sira/internal/action"
	"github.com/sira-systems/sira/internal/siraconfig"
	"github.com/stretchr/testify/require"
)

func TestSplitWordsBasic(t *testing.T) {
	words, err := splitWords(`echo "hello world" 'literal $x' escaped\ space`)
	require.NoError(t, err)
	require.Equal(t, []string{"echo", "hello world", "literal $x", "escaped space"}, words)
}

func TestSplitWordsUnterminatedQuoteErrors(t *testing.T) {
	_, err := splitWords(`echo "unterminated`)
	require.Error(t, err)
}

func TestSplitWordsDoubleQuoteEscapes(t *testing.T) {
	words, err := splitWords(`echo "a \"quoted\" word"`)
	require.NoError(t, err)
	require.Equal(t, []string{"echo", `a "quoted" word`}, words)
}

func actionYAML(t *testing.T, kind string) []byte {
	t.Helper()
	var act action.Action
	switch kind {
	case "command":
		act = action.Action{Kind: action.KindCommand, Command: &action.Command{Commands: []string{"/bin/echo hi"}}}
	}
	out, err := act.CanonicalText()
	require.NoError(t, err)
	return out
}

func TestExecuteAllowsUnsignedWhenNoAllowedSignersInstalled(t *testing.T) {
	dirs := siraconfig.NewDirectoriesAt(t.TempDir())
	result := Execute(dirs, actionYAML(t, "command"), nil)
	require.Equal(t, 0, result.ExitCode, string(result.Stderr))
}

func TestExecuteRefusesUnsignedWhenAllowedSignersInstalled(t *testing.T) {
	dir := t.TempDir()
	dirs := siraconfig.NewDirectoriesAt(dir)
	require.NoError(t, os.MkdirAll(dirs.AllowedSignersDir(), 0o755))
	require.NoError(t, os.WriteFile(dirs.AllowedSignersFile("action"), []byte("sira namespaces=\"sira\" ssh-ed25519 AAAA\n"), 0o644))

	result := Execute(dirs, actionYAML(t, "command"), nil)
	require.NotEqual(t, 0, result.ExitCode)
	require.Contains(t, string(result.Stderr), "refusing unsigned")
}

func TestExecuteRejectsMalformedPayload(t *testing.T) {
	dirs := siraconfig.NewDirectoriesAt(t.TempDir())
	result := Execute(dirs, []byte("not: [valid"), nil)
	require.NotEqual(t, 0, result.ExitCode)
}

func TestDispatchCommandAbortsOnFirstFailure(t *testing.T) {
	act := action.Command{Commands: []string{"/bin/echo one", "/bin/false", "/bin/echo two"}}
	result := dispatchCommand(&act)
	require.NotEqual(t, 0, result.ExitCode)
	require.Contains(t, string(result.Stdout), "one")
	require.NotContains(t, string(result.Stdout), "two")
}

func TestDispatchLineInFileAppliesChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target")
	require.NoError(t, os.WriteFile(path, []byte("alpha\n"), 0o644))

	result := dispatchLineInFile(&action.LineInFile{Path: path, Line: "beta"})
	require.Equal(t, 0, result.ExitCode)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "alpha\nbeta\n", string(data))
}

func TestDispatchUploadRefusesOverwriteOfExistingDestination(t *testing.T) {
	to := filepath.Join(t.TempDir(), "dest")
	require.NoError(t, os.WriteFile(to, []byte("existing"), 0o644))

	result := dispatchUpload(&action.Upload{From: "/irrelevant", To: to, User: "root", Overwrite: false})
	require.NotEqual(t, 0, result.ExitCode)
	require.Contains(t, string(result.Stderr), "already exists")
}
