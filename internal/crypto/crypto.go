// Package crypto implements the Signer and Verifier (spec §4.2, §4.3),
// grounded on original_source/src/crypto.rs: key-name validation,
// key-absent-is-not-an-error semantics, and detached ssh-keygen -Y
// sign/verify subprocess invocations under the fixed "sira" namespace.
package crypto

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/sira-systems/sira/internal/siraconfig"
	sirerrors "github.com/sira-systems/sira/pkg/errors"
)

// principal is the fixed OpenSSH signing namespace; spec §9 notes this
// value is not configurable.
const principal = "sira"

var alphabetic = regexp.MustCompile(`^[A-Za-z]+$`)

// ValidateKeyName enforces spec §4.2's defense-in-depth rule: a key or
// allowed-signers name must be non-empty and alphabetic, forbidding path
// traversal through the name.
func ValidateKeyName(name string) error {
	if name == "" || !alphabetic.MatchString(name) {
		return sirerrors.NewKeyValidationError(name)
	}
	return nil
}

// Outcome distinguishes a successful signature from a deliberately
// absent key (spec §4.2, §8: "Signer returns KeyAbsent if and only if no
// file named <key> exists in the key directory").
type Outcome int

const (
	Signed Outcome = iota
	KeyAbsent
)

// Result is the outcome of a Sign call.
type Result struct {
	Outcome   Outcome
	Signature []byte
}

// Signer signs buffers with named keys from a configuration key
// directory.
type Signer struct {
	Dirs   siraconfig.Directories
	runner commandRunner
}

// NewSigner builds a Signer rooted at dirs.
func NewSigner(dirs siraconfig.Directories) *Signer {
	return &Signer{Dirs: dirs, runner: execRunner{}}
}

// Sign signs buffer with the named key. It returns Result{Outcome:
// KeyAbsent} (not an error) if the key file does not exist.
func (s *Signer) Sign(buffer []byte, keyName string) (Result, error) {
	if err := ValidateKeyName(keyName); err != nil {
		return Result{}, err
	}

	keyFile := s.Dirs.KeyFile(keyName)
	if _, err := os.Stat(keyFile); errors.Is(err, os.ErrNotExist) {
		return Result{Outcome: KeyAbsent}, nil
	} else if err != nil {
		return Result{}, sirerrors.NewSignatureError("sign", err)
	}

	stdout, stderr, err := s.runner.run(buffer, "ssh-keygen", "-Y", "sign", "-f", keyFile, "-n", principal)
	if err != nil {
		return Result{}, sirerrors.NewSignatureError("sign", wrapStderr(err, stderr))
	}
	return Result{Outcome: Signed, Signature: stdout}, nil
}

// Verifier verifies signed buffers against allowed-signers files.
type Verifier struct {
	Dirs   siraconfig.Directories
	runner commandRunner
}

// NewVerifier builds a Verifier rooted at dirs.
func NewVerifier(dirs siraconfig.Directories) *Verifier {
	return &Verifier{Dirs: dirs, runner: execRunner{}}
}

// Verify checks that signature over buffer was produced under identity
// in the "sira" namespace by a key present in the named allowed-signers
// file (spec §4.3, §8).
func (v *Verifier) Verify(buffer, signature []byte, allowedSignersName, identity string) error {
	if err := ValidateKeyName(allowedSignersName); err != nil {
		return err
	}

	file := v.Dirs.AllowedSignersFile(allowedSignersName)
	if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
		return sirerrors.NewAllowedSignersMissingError(allowedSignersName)
	} else if err != nil {
		return sirerrors.NewSignatureError("verify", err)
	}

	sigFile, err := writeTempSignature(signature)
	if err != nil {
		return sirerrors.NewSignatureError("verify", err)
	}
	defer os.Remove(sigFile)

	_, stderr, err := v.runner.run(buffer, "ssh-keygen", "-Y", "verify",
		"-f", file, "-I", identity, "-n", principal, "-s", sigFile)
	if err != nil {
		return sirerrors.NewSignatureError("verify", wrapStderr(err, stderr))
	}
	return nil
}

// Installed reports whether an allowed-signers file named name exists,
// without attempting verification. The client executor uses this to
// decide whether unsigned input may proceed (spec §4.4: "If no
// allowed-signers file is installed, unsigned execution is permitted").
func (v *Verifier) Installed(name string) (bool, error) {
	if err := ValidateKeyName(name); err != nil {
		return false, err
	}
	_, err := os.Stat(v.Dirs.AllowedSignersFile(name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func writeTempSignature(signature []byte) (string, error) {
	f, err := os.CreateTemp("", "sira-sig-*")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(signature); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func wrapStderr(err error, stderr []byte) error {
	text := strings.TrimSpace(string(stderr))
	if text == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, text)
}

// commandRunner abstracts subprocess invocation so Sign/Verify's
// control-flow (key-absent, allowed-signers-missing) can be unit tested
// without shelling out to a real ssh-keygen.
type commandRunner interface {
	run(stdin []byte, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) run(stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderrBuf bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderrBuf
	err := cmd.Run()
	return stdout.Bytes(), stderrBuf.Bytes(), err
}
