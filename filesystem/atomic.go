// filesystem/atomic.go
package filesystem

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

const tempPattern = ".tmp-*"

// WriteFileAtomic replaces path with data through a temp file in the same
// directory and a rename, so readers see either the old or the new content.
func WriteFileAtomic(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpFile, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+tempPattern)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	renamed := false
	defer func() {
		if !renamed {
			_ = fs.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// TempFile creates 0600
	if err := fs.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	renamed = true

	syncDir(fs, dir)
	return nil
}

// syncDir persists the rename. Errors are ignored: the data is already in
// place and some filesystems cannot sync directories.
func syncDir(fs afero.Fs, dir string) {
	d, err := fs.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// staleTemps lists temp files left next to path by an interrupted write.
func staleTemps(fs afero.Fs, path string) ([]string, error) {
	pattern := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+tempPattern)
	return afero.Glob(fs, pattern)
}
