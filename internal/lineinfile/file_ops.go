package lineinfile

import (
	"os"
	"path/filepath"
)

const defaultFileMode os.FileMode = 0o644

// readFile reads path as UTF-8 text (spec §4.7 step 1).
func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// writeFileAtomic writes data to path via a temp-file-then-rename dance
// in the same directory, preserving the target's existing permission
// bits (or defaultFileMode for a new file). Grounded on the teacher's
// internal/plugins/lineinfile/file_ops.go writeFileAtomic.
func writeFileAtomic(path string, data string) error {
	perm := defaultFileMode
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".sira-lineinfile-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
