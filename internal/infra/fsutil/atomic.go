// Package fsutil holds small file helpers shared by the writers of the
// settings file, the generated scripts and the pid file.
package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to a temp file beside path, syncs it and
// renames it over path. Readers observe either the previous content or the
// new content, never a mix.
func WriteFileAtomic(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// SameContent reports whether the file at path already holds data.
func SameContent(path string, data []byte) bool {
	cur, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return string(cur) == string(data)
}
