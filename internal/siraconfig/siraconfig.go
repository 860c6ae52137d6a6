// Package siraconfig resolves the on-disk configuration layout described
// in spec §6: a configuration directory (default /etc/sira) holding
// keys/ and allowed_signers/ subdirectories. The root is overridable via
// SIRA_CONFIG_DIR so tests never touch the real filesystem locations,
// mirroring original_source's test-only config_dir() override.
package siraconfig

import (
	"os"
	"path/filepath"
)

const envOverride = "SIRA_CONFIG_DIR"

// DefaultRoot is the managed-node and control-node configuration root
// when SIRA_CONFIG_DIR is unset.
const DefaultRoot = "/etc/sira"

// Directories resolves the well-known subdirectories of a Sira
// configuration root.
type Directories struct {
	root string
}

// NewDirectories returns a Directories rooted at SIRA_CONFIG_DIR if set,
// otherwise DefaultRoot.
func NewDirectories() Directories {
	root := os.Getenv(envOverride)
	if root == "" {
		root = DefaultRoot
	}
	return Directories{root: root}
}

// NewDirectoriesAt returns a Directories rooted at an explicit path,
// ignoring SIRA_CONFIG_DIR. Used by tests that want a throwaway root
// without mutating process environment.
func NewDirectoriesAt(root string) Directories {
	return Directories{root: root}
}

// Root returns the configuration root directory.
func (d Directories) Root() string { return d.root }

// KeysDir returns the directory holding signing key material.
func (d Directories) KeysDir() string { return filepath.Join(d.root, "keys") }

// KeyFile returns the path of the named private key file.
func (d Directories) KeyFile(name string) string { return filepath.Join(d.KeysDir(), name) }

// AllowedSignersDir returns the directory holding allowed-signers files,
// one per identity.
func (d Directories) AllowedSignersDir() string { return filepath.Join(d.root, "allowed_signers") }

// AllowedSignersFile returns the path of the named allowed-signers file.
func (d Directories) AllowedSignersFile(name string) string {
	return filepath.Join(d.AllowedSignersDir(), name)
}
