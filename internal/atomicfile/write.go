// Package atomicfile writes files so readers never observe a partial write.
package atomicfile

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
)

// Write persists data to path with atomic write semantics: the bytes go to
// a temporary file in the same directory which is then renamed over path.
// Parent directories are created with dirPerm.
func Write(path string, data []byte, perm, dirPerm os.FileMode) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return err
		}
	}

	tempPath, err := tempName(path)
	if err != nil {
		return err
	}

	// Ensure temp file is cleaned up on any error
	var tempFileCreated bool
	defer func() {
		if tempFileCreated {
			_ = os.Remove(tempPath)
		}
	}()

	f, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	tempFileCreated = true

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	// OpenFile applies the umask; set the requested mode explicitly
	if err := os.Chmod(tempPath, perm); err != nil {
		return err
	}

	if err := os.Rename(tempPath, path); err != nil {
		return err
	}

	// Rename succeeded, the temp file is now the target
	tempFileCreated = false
	return nil
}

// tempName generates a unique temporary file name next to path so the
// final rename stays on one filesystem.
// Format: path + ".tmp." + randomHex
func tempName(path string) (string, error) {
	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	return path + ".tmp." + hex.EncodeToString(randomBytes), nil
}
