// Package lockfile locates and reads Composer lock files.
package lockfile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Ecosystem is the OSV ecosystem name of packages found in a lock file.
const Ecosystem = "Packagist"

type Package struct {
	Name    string
	Version string
	// Dev is set for packages listed under packages-dev.
	Dev bool
}

type Lock struct {
	Packages []Package
}

type composerPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type composerLock struct {
	Packages    []composerPackage `json:"packages"`
	PackagesDev []composerPackage `json:"packages-dev"`
}

// Parse reads a lock file document. Regular packages come before dev packages.
func Parse(input io.Reader) (*Lock, error) {
	var parsed composerLock

	if err := json.NewDecoder(input).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("unable to parse lock file: %w", err)
	}

	packages := make([]Package, 0, len(parsed.Packages)+len(parsed.PackagesDev))

	for _, p := range parsed.Packages {
		packages = append(packages, Package{
			Name:    p.Name,
			Version: p.Version,
		})
	}

	for _, p := range parsed.PackagesDev {
		packages = append(packages, Package{
			Name:    p.Name,
			Version: p.Version,
			Dev:     true,
		})
	}

	return &Lock{Packages: packages}, nil
}

// Open parses the lock file at path.
func Open(path string) (*Lock, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lock, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return lock, nil
}
