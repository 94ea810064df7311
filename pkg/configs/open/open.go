//go:build !windows

// Package open creates files and directories readable only by the current user.
//
// Profiles hold refresh tokens, so they should not be readable by others.
package open

import (
	"os"
	"path/filepath"
)

// NewSafeFile creates a new empty file which is accessible only by the current user.
//
// If the file already exists, it is truncated.
func NewSafeFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_TRUNC|os.O_CREATE|os.O_RDWR, os.FileMode(0600))
	if err != nil {
		return nil, err
	}
	if err := f.Chmod(os.FileMode(0600)); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Restrict changes permission of an existing file to be accessible only by the current user.
func Restrict(path string) error {
	return os.Chmod(path, os.FileMode(0600))
}

// ParentDir creates the directory containing path, if missing.
func ParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), os.FileMode(0700))
}
