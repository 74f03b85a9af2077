package utils

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// AtomicFile streams into a temporary sibling of the destination and only
// replaces the destination on Commit. Abort removes the temporary file, so a
// failed run never leaves a half-written output behind.
type AtomicFile struct {
	path    string
	tmpPath string
	file    *os.File
	done    bool
}

// CreateAtomic opens a temporary file next to path, creating parent
// directories as needed.
func CreateAtomic(path string) (*AtomicFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	tmpPath := path + "_tmp"
	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &AtomicFile{
		path:    path,
		tmpPath: tmpPath,
		file:    file,
	}, nil
}

// Path returns the final destination.
func (a *AtomicFile) Path() string {
	return a.path
}

func (a *AtomicFile) Write(p []byte) (int, error) {
	return a.file.Write(p)
}

// Commit flushes the temporary file to disk and renames it over the destination.
func (a *AtomicFile) Commit() error {
	if a.done {
		return fmt.Errorf("%s already finalized", a.path)
	}
	a.done = true

	if err := a.file.Sync(); err != nil {
		_ = a.file.Close()
		_ = os.Remove(a.tmpPath)
		return err
	}
	if err := a.file.Close(); err != nil {
		_ = os.Remove(a.tmpPath)
		return err
	}
	if err := os.Rename(a.tmpPath, a.path); err != nil {
		_ = os.Remove(a.tmpPath)
		return err
	}

	if err := syncDir(filepath.Dir(a.path)); err != nil {
		log.WithError(err).Warn("error syncing output directory")
	}
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit.
func (a *AtomicFile) Abort() error {
	if a.done {
		return nil
	}
	a.done = true
	_ = a.file.Close()
	return os.Remove(a.tmpPath)
}

func syncDir(path string) error {
	dir, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = dir.Close()
	}()
	if err := dir.Sync(); err != nil {
		return fmt.Errorf("sync dir: %w", err)
	}
	return nil
}
