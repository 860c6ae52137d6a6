// Package client implements the managed-node executor (spec §4.4,
// §6): parses one signed Action, enforces the fail-closed signature
// gate, dispatches on variant, and reports a captured outcome. This is
// the logic behind the cmd/sira-client binary's thin main, grounded on
// original_source/src/client/mod.rs's dispatch-and-exit-code contract.
package client

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strconv"
	"strings"
	"syscall"

	"github.com/sira-systems/sira/internal/action"
	"github.com/sira-systems/sira/internal/crypto"
	"github.com/sira-systems/sira/internal/lineinfile"
	"github.com/sira-systems/sira/internal/siraconfig"
	"gopkg.in/yaml.v3"
)

// actionIdentity is the fixed allowed-signers name and the fixed
// signing identity the managed-node executor checks against (spec
// §6, §9: not configurable).
const (
	actionIdentity = "action"
	principal      = "sira"
)

// Result is the outcome of one Execute call: what the calling binary
// should print and exit with.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

func failf(format string, args ...interface{}) Result {
	return Result{ExitCode: 1, Stderr: []byte(fmt.Sprintf(format, args...) + "\n")}
}

// Execute parses payload as one Action, enforces the signature gate
// against dirs' installed allowed-signers file, and performs it
// (spec §4.4). It never panics or returns a Go error: every failure
// mode is captured in Result so the caller can translate it directly
// to a process exit.
func Execute(dirs siraconfig.Directories, payload, signature []byte) Result {
	var act action.Action
	if err := yaml.Unmarshal(payload, &act); err != nil {
		return failf("parse action: %v", err)
	}

	verifier := crypto.NewVerifier(dirs)
	installed, err := verifier.Installed(actionIdentity)
	if err != nil {
		return failf("check allowed-signers installation: %v", err)
	}
	if installed {
		if len(signature) == 0 {
			return failf("refusing unsigned action: allowed-signers file %q is installed", actionIdentity)
		}
		if err := verifier.Verify(payload, signature, actionIdentity, principal); err != nil {
			return failf("signature verification failed: %v", err)
		}
	}

	switch act.Kind {
	case action.KindCommand:
		return dispatchCommand(act.Command)
	case action.KindLineInFile:
		return dispatchLineInFile(act.LineInFile)
	case action.KindScript:
		return dispatchScript(act.Script)
	case action.KindUpload:
		return dispatchUpload(act.Upload)
	default:
		return failf("unsupported action kind for client executor: %q", act.Kind)
	}
}

// dispatchCommand runs each command string in order, shell-style
// word-split with no further shell semantics (spec §4.4). The first
// non-zero exit aborts the remaining commands.
func dispatchCommand(cmd *action.Command) Result {
	var stdout, stderr bytes.Buffer
	for _, line := range cmd.Commands {
		words, err := splitWords(line)
		if err != nil {
			return failf("command: %q: %v", line, err)
		}
		if len(words) == 0 {
			continue
		}

		c := exec.Command(words[0], words[1:]...)
		c.Stdout = &stdout
		c.Stderr = &stderr
		if err := c.Run(); err != nil {
			exitCode := 1
			if exitErr, ok := err.(*exec.ExitError); ok {
				exitCode = exitErr.ExitCode()
			} else {
				stderr.WriteString(err.Error() + "\n")
			}
			return Result{ExitCode: exitCode, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
		}
	}
	return Result{ExitCode: 0, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
}

func dispatchLineInFile(lif *action.LineInFile) Result {
	if err := lineinfile.Apply(lif.Path, lif.Line, lif.Pattern, lif.After, lif.Indent); err != nil {
		return failf("line_in_file: %v", err)
	}
	return Result{ExitCode: 0}
}

// dispatchScript writes Contents to a freshly created, unpredictably
// named temporary file, sets mode 500, chowns it to User, executes it
// under User's identity, and always attempts removal afterward
// regardless of outcome (spec §4.4).
func dispatchScript(s *action.Script) Result {
	f, err := os.CreateTemp("", "sira-script-*")
	if err != nil {
		return failf("script: create temp file: %v", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(s.Contents); err != nil {
		f.Close()
		return failf("script: write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		return failf("script: close temp file: %v", err)
	}
	if err := os.Chmod(path, 0o500); err != nil {
		return failf("script: chmod temp file: %v", err)
	}

	u, err := user.Lookup(s.User)
	if err != nil {
		return failf("script: lookup user %q: %v", s.User, err)
	}
	uid, _ := strconv.Atoi(u.Uid)
	gid, _ := strconv.Atoi(u.Gid)
	if err := os.Chown(path, uid, gid); err != nil {
		return failf("script: chown temp file to %q: %v", s.User, err)
	}

	var stdout, stderr bytes.Buffer
	c := exec.Command(path)
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.SysProcAttr = &syscall.SysProcAttr{Credential: &syscall.Credential{Uid: uint32(uid), Gid: uint32(gid)}}

	if err := c.Run(); err != nil {
		exitCode := 1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			stderr.WriteString(err.Error() + "\n")
		}
		return Result{ExitCode: exitCode, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	}
	return Result{ExitCode: 0, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
}

// dispatchUpload relocates the bytes the transport already staged at
// action.UploadStagingPath(u.To) into place, applying ownership and
// permissions (spec §4.4, §4.5). A pre-existing destination is a
// failure unless Overwrite is set.
func dispatchUpload(u *action.Upload) Result {
	staging := action.UploadStagingPath(u.To)

	if !u.Overwrite {
		if _, err := os.Stat(u.To); err == nil {
			return failf("upload: destination %q already exists and overwrite is false", u.To)
		}
	}

	mode := os.FileMode(0o644)
	if u.Permissions != nil {
		parsed, err := strconv.ParseUint(strings.TrimPrefix(*u.Permissions, "0"), 8, 32)
		if err != nil {
			return failf("upload: parse permissions %q: %v", *u.Permissions, err)
		}
		mode = os.FileMode(parsed)
	}

	if err := os.Chmod(staging, mode); err != nil {
		return failf("upload: chmod staged file: %v", err)
	}

	uid, gid, err := lookupUserGroup(u.User, u.Group)
	if err != nil {
		return failf("upload: %v", err)
	}
	if err := os.Chown(staging, uid, gid); err != nil {
		return failf("upload: chown staged file to %s:%s: %v", u.User, u.Group, err)
	}

	if err := relocate(staging, u.To); err != nil {
		return failf("upload: place %q: %v", u.To, err)
	}
	return Result{ExitCode: 0}
}

func lookupUserGroup(userName, groupName string) (uid, gid int, err error) {
	u, err := user.Lookup(userName)
	if err != nil {
		return 0, 0, fmt.Errorf("lookup user %q: %w", userName, err)
	}
	uid, _ = strconv.Atoi(u.Uid)

	if groupName == "" {
		gid, _ = strconv.Atoi(u.Gid)
		return uid, gid, nil
	}
	g, err := user.LookupGroup(groupName)
	if err != nil {
		return 0, 0, fmt.Errorf("lookup group %q: %w", groupName, err)
	}
	gid, _ = strconv.Atoi(g.Gid)
	return uid, gid, nil
}

// relocate moves staging to to, falling back to copy-then-remove when
// the rename crosses a filesystem boundary.
func relocate(staging, to string) error {
	if err := os.Rename(staging, to); err == nil {
		return nil
	} else if !isCrossDevice(err) {
		return err
	}

	data, err := os.ReadFile(staging)
	if err != nil {
		return err
	}
	info, err := os.Stat(staging)
	if err != nil {
		return err
	}
	if err := os.WriteFile(to, data, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Remove(staging)
}

func isCrossDevice(err error) bool {
	return err != nil && (bytes.Contains([]byte(err.Error()), []byte("cross-device")) ||
		bytes.Contains([]byte(err.Error()), []byte("invalid cross-device link")))
}
