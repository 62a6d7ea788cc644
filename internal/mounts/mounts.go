// Package mounts provides abstracted file mounts to use as fs.FS
// filesystems. A mount is backed either by an embedded fs.FS or, when a
// directory path is given, by that directory on disk, allowing the
// embedded sql files to be overridden during development without
// rebuilding.
package mounts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileMount is a named fs.FS backed by an embedded filesystem or a
// directory on disk.
type FileMount struct {
	MountName string
	fs.FS
}

// NewFileMount mounts either embeddedFS (when dirPath is empty) or the
// directory at dirPath. The mount name must match the subdirectory the
// embedded filesystem was declared with, so that both backings present
// their files at the same level.
func NewFileMount(mountName string, embeddedFS fs.FS, dirPath string) (*FileMount, error) {
	if mountName == "" {
		return nil, errors.New("no mount name provided for new file mount")
	}
	if !fs.ValidPath(mountName) {
		return nil, fmt.Errorf("mount name %q is not a valid fs path", mountName)
	}

	if dirPath == "" {
		subFS, err := fs.Sub(embeddedFS, mountName)
		if err != nil {
			return nil, fmt.Errorf("could not sub-mount embedded fs at %q: %w", mountName, err)
		}
		return &FileMount{mountName, subFS}, nil
	}

	s, err := os.Stat(dirPath)
	if err != nil {
		return nil, fmt.Errorf("new mount at %q error: %w", dirPath, err)
	}
	if !s.IsDir() {
		return nil, fmt.Errorf("new mount at %q is not a directory", dirPath)
	}
	return &FileMount{mountName, os.DirFS(dirPath)}, nil
}
