package crypto

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sira-systems/sira/internal/siraconfig"
	sirerrors "github.com/sira-systems/sira/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	stdout, stderr []byte
	err            error
	calledWith     []string
}

func (f *fakeRunner) run(stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	f.calledWith = append([]string{name}, args...)
	return f.stdout, f.stderr, f.err
}

func TestValidateKeyNameRejectsEmptyAndNonAlphabetic(t *testing.T) {
	require.Error(t, ValidateKeyName(""))
	require.Error(t, ValidateKeyName("../escape"))
	require.Error(t, ValidateKeyName("action1"))
	require.NoError(t, ValidateKeyName("action"))
}

func TestSignReturnsKeyAbsentWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	dirs := siraconfig.NewDirectoriesAt(dir)
	s := NewSigner(dirs)
	s.runner = &fakeRunner{} // must not be invoked

	result, err := s.Sign([]byte("payload"), "action")
	require.NoError(t, err)
	require.Equal(t, KeyAbsent, result.Outcome)
}

func TestSignInvokesSubprocessWhenKeyPresent(t *testing.T) {
	dir := t.TempDir()
	dirs := siraconfig.NewDirectoriesAt(dir)
	require.NoError(t, os.MkdirAll(dirs.KeysDir(), 0o755))
	require.NoError(t, os.WriteFile(dirs.KeyFile("action"), []byte("fake-key"), 0o640))

	s := NewSigner(dirs)
	runner := &fakeRunner{stdout: []byte("signature-bytes\n")}
	s.runner = runner

	result, err := s.Sign([]byte("payload"), "action")
	require.NoError(t, err)
	require.Equal(t, Signed, result.Outcome)
	require.Equal(t, []byte("signature-bytes\n"), result.Signature)
	require.Contains(t, runner.calledWith, "sign")
	require.Contains(t, runner.calledWith, filepath.Join(dirs.KeysDir(), "action"))
}

func TestSignWrapsSubprocessFailureWithStderr(t *testing.T) {
	dir := t.TempDir()
	dirs := siraconfig.NewDirectoriesAt(dir)
	require.NoError(t, os.MkdirAll(dirs.KeysDir(), 0o755))
	require.NoError(t, os.WriteFile(dirs.KeyFile("action"), []byte("fake-key"), 0o640))

	s := NewSigner(dirs)
	s.runner = &fakeRunner{err: errors.New("exit status 1"), stderr: []byte("bad passphrase")}

	_, err := s.Sign([]byte("payload"), "action")
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad passphrase")
}

func TestSignRejectsBadKeyName(t *testing.T) {
	dirs := siraconfig.NewDirectoriesAt(t.TempDir())
	s := NewSigner(dirs)
	_, err := s.Sign([]byte("payload"), "../x")
	require.Error(t, err)
}

func TestVerifyFailsWithAllowedSignersMissingError(t *testing.T) {
	dirs := siraconfig.NewDirectoriesAt(t.TempDir())
	v := NewVerifier(dirs)
	v.runner = &fakeRunner{}

	err := v.Verify([]byte("payload"), []byte("sig"), "action", "sira")
	require.Error(t, err)
	_, ok := err.(*sirerrors.AllowedSignersMissingError)
	require.True(t, ok)
	require.Contains(t, err.Error(), "Hint:")
}

func TestInstalledReflectsAllowedSignersFilePresence(t *testing.T) {
	dir := t.TempDir()
	dirs := siraconfig.NewDirectoriesAt(dir)
	v := NewVerifier(dirs)

	installed, err := v.Installed("action")
	require.NoError(t, err)
	require.False(t, installed)

	require.NoError(t, os.MkdirAll(dirs.AllowedSignersDir(), 0o755))
	require.NoError(t, os.WriteFile(dirs.AllowedSignersFile("action"), []byte("sira ssh-ed25519 AAAA\n"), 0o644))

	installed, err = v.Installed("action")
	require.NoError(t, err)
	require.True(t, installed)
}

func TestVerifyInvokesSubprocessWhenAllowedSignersPresent(t *testing.T) {
	dir := t.TempDir()
	dirs := siraconfig.NewDirectoriesAt(dir)
	require.NoError(t, os.MkdirAll(dirs.AllowedSignersDir(), 0o755))
	require.NoError(t, os.WriteFile(dirs.AllowedSignersFile("action"), []byte("sira namespaces=\"sira\" ssh-ed25519 AAAA...\n"), 0o644))

	v := NewVerifier(dirs)
	runner := &fakeRunner{}
	v.runner = runner

	err := v.Verify([]byte("payload"), []byte("sig-text"), "action", "sira")
	require.NoError(t, err)
	require.Contains(t, runner.calledWith, "verify")
	require.Contains(t, runner.calledWith, "sira")
}
