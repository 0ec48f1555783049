//go:build !unix && !windows

// filesystem/lock_other.go
package filesystem

import (
	"errors"
	"os"
)

func lockFile(f *os.File) error {
	return errors.ErrUnsupported
}

func tryLockFile(f *os.File) (bool, error) {
	return false, errors.ErrUnsupported
}

func unlockFile(f *os.File) error {
	return errors.ErrUnsupported
}
