package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// LockFileName is the name of the lock file checked for vulnerabilities.
	LockFileName = "composer.lock"
	// DeclarationFileName is the manifest the lock file is generated from.
	DeclarationFileName = "composer.json"
)

var ErrManifestNotFound = errors.New("lock file does not exist")

// Locate resolves path to the lock file that should be checked. path may be a
// directory containing a lock file, a declaration file, or the lock file itself.
func Locate(path string) (string, error) {
	lock := path

	if isDir(path) && isFile(filepath.Join(path, LockFileName)) {
		lock = filepath.Join(path, LockFileName)
	} else if strings.HasSuffix(path, DeclarationFileName) {
		lock = strings.TrimSuffix(path, DeclarationFileName) + LockFileName
	}

	if !isFile(lock) {
		return "", fmt.Errorf("%w: %s", ErrManifestNotFound, lock)
	}

	return lock, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
