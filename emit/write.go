package emit

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"
)

// tempFile is the part of *os.File an atomic write needs.
type tempFile interface {
	Name() string
	Write([]byte) (int, error)
	Close() error
}

// fileSystem holds the file operations used by WriteFile so tests can fail
// each step.
type fileSystem struct {
	mkdirAll   func(path string, perm os.FileMode) error
	createTemp func(dir, pattern string) (tempFile, error)
	chmod      func(name string, mode os.FileMode) error
	rename     func(oldpath, newpath string) error
	remove     func(name string) error
}

var osFS = fileSystem{
	mkdirAll:   os.MkdirAll,
	createTemp: func(dir, pattern string) (tempFile, error) { return os.CreateTemp(dir, pattern) },
	chmod:      os.Chmod,
	rename:     os.Rename,
	remove:     os.Remove,
}

// WriteFile writes src to path atomically, creating the parent directory.
//
// src goes to a temporary file next to path which is then renamed over it,
// so readers never see a partially written file.
func WriteFile(path string, src []byte) error {
	return osFS.writeAtomic(path, src, 0o644)
}

func (fsys fileSystem) writeAtomic(path string, src []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := fsys.mkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("emit: create %s: %w", dir, err)
	}
	tmp, err := fsys.createTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("emit: write %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = fsys.remove(tmp.Name())
			err = fmt.Errorf("emit: write %s: %w", path, err)
		}
	}()

	if _, err = tmp.Write(src); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = fsys.chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return fsys.rename(tmp.Name(), path)
}

// Diff returns a unified diff from a to b, or "" when they are equal.
func Diff(fromName, toName string, a, b []byte) (string, error) {
	if bytes.Equal(a, b) {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
}

// Stale compares src with the file at path and returns the diff needed to
// bring the file up to date, or "" when it already matches. A missing file
// diffs against empty content.
func Stale(path string, src []byte) (string, error) {
	cur, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("emit: read %s: %w", path, err)
	}
	return Diff(path, path+" (generated)", cur, src)
}
