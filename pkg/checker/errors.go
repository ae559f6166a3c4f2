package checker

import "fmt"

// ManifestNotFoundError is returned when the given path does not resolve to a
// lock file. It wraps lockfile.ErrManifestNotFound.
type ManifestNotFoundError struct {
	Path string
	Err  error
}

func (e *ManifestNotFoundError) Error() string {
	return fmt.Sprintf("unable to locate lock file for %s: %s", e.Path, e.Err)
}

func (e *ManifestNotFoundError) Unwrap() error {
	return e.Err
}

// SourceError is returned when the vulnerability source fails.
type SourceError struct {
	LockFile string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("unable to check %s: %s", e.LockFile, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// WhitelistLoadError is returned when a configured whitelist cannot be read
// or parsed.
type WhitelistLoadError struct {
	Path string
	Err  error
}

func (e *WhitelistLoadError) Error() string {
	return fmt.Sprintf("unable to load whitelist %s: %s", e.Path, e.Err)
}

func (e *WhitelistLoadError) Unwrap() error {
	return e.Err
}
