//go:build windows

package open

import (
	"os"
	"path/filepath"

	winacl "github.com/hectane/go-acl"
)

// NewSafeFile creates a new empty file which is accessible only by the current user.
//
// If the file already exists, it is truncated.
func NewSafeFile(path string) (*os.File, error) {
	// No way to apply acl at creation; apply it after the file is created, then truncate.
	f, err := os.OpenFile(path, os.O_TRUNC|os.O_CREATE|os.O_RDWR, os.FileMode(0600))
	if err != nil {
		return nil, err
	}
	if err := winacl.Chmod(path, os.FileMode(0600)); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Restrict changes permission of an existing file to be accessible only by the current user.
func Restrict(path string) error {
	return winacl.Chmod(path, os.FileMode(0600))
}

// ParentDir creates the directory containing path, if missing.
func ParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, os.FileMode(0700)); err != nil {
		return err
	}
	return winacl.Chmod(dir, os.FileMode(0700))
}
