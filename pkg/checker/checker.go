// Package checker checks a lock file against a vulnerability source and
// suppresses whitelisted advisories from the outcome.
package checker

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/openvex/lockaudit/pkg/advisory"
	"github.com/openvex/lockaudit/pkg/lockfile"
	"github.com/openvex/lockaudit/pkg/source"
	"github.com/openvex/lockaudit/pkg/whitelist"
)

// Report is the outcome of a single check.
type Report struct {
	// LockFile is the lock file the path given to Check resolved to.
	LockFile string
	Result   advisory.Result

	// VulnerabilityCount is the number of vulnerable packages that are not
	// fully ignored.
	VulnerabilityCount int
	// IgnoredVulnerabilityCount is the number of ignored advisories, whether
	// or not their package is fully ignored.
	IgnoredVulnerabilityCount int
}

type Checker struct {
	source source.Source
	log    *logrus.Entry

	mu            sync.Mutex
	whitelistPath string
}

type Option func(*Checker)

func WithWhitelistPath(path string) Option {
	return func(c *Checker) {
		c.whitelistPath = path
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(c *Checker) {
		c.log = log
	}
}

func New(src source.Source, opts ...Option) *Checker {
	c := &Checker{
		source: src,
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SetWhitelistPath sets the whitelist used by subsequent checks. An empty
// path disables whitelisting.
func (c *Checker) SetWhitelistPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.whitelistPath = path
}

func (c *Checker) WhitelistPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.whitelistPath
}

// Check resolves path to a lock file, asks the source for its vulnerable
// packages and marks the advisories listed in the whitelist as ignored.
//
// The result held by the returned report is a copy; the value returned by the
// source is left untouched.
func (c *Checker) Check(ctx context.Context, path string) (*Report, error) {
	lockFile, err := lockfile.Locate(path)
	if err != nil {
		return nil, &ManifestNotFoundError{Path: path, Err: err}
	}

	whitelistPath := c.WhitelistPath()
	log := c.log.WithField("lockfile", lockFile)

	log.Debug("querying vulnerability source")

	count, result, err := c.source.Check(ctx, lockFile)
	if err != nil {
		return nil, &SourceError{LockFile: lockFile, Err: err}
	}

	report := &Report{
		LockFile:           lockFile,
		Result:             result.Clone(),
		VulnerabilityCount: count,
	}

	if whitelistPath == "" {
		return report, nil
	}

	wl, err := whitelist.Load(whitelistPath)
	if err != nil {
		return nil, &WhitelistLoadError{Path: whitelistPath, Err: err}
	}

	log.WithField("whitelist", whitelistPath).Debugf("whitelist holds %d identifiers", wl.Len())

	ignoredPackages, ignoredAdvisories := applyWhitelist(&report.Result, wl)
	report.VulnerabilityCount -= ignoredPackages
	report.IgnoredVulnerabilityCount = ignoredAdvisories

	return report, nil
}

// applyWhitelist annotates result in place. It returns the number of packages
// whose advisories are all ignored and the number of ignored advisories.
func applyWhitelist(result *advisory.Result, wl *whitelist.Whitelist) (ignoredPackages, ignoredAdvisories int) {
	for i := range result.Packages {
		pkg := &result.Packages[i]
		pkg.Ignored = true

		for j := range pkg.Advisories {
			adv := &pkg.Advisories[j]

			if isWhitelisted(*adv, wl) {
				adv.Ignored = true
				ignoredAdvisories++
			} else {
				adv.Ignored = false
				pkg.Ignored = false
			}
		}

		if pkg.Ignored {
			ignoredPackages++
		}
	}

	return ignoredPackages, ignoredAdvisories
}

func isWhitelisted(adv advisory.Advisory, wl *whitelist.Whitelist) bool {
	return wl.Contains(adv.Identifier()) || (adv.ID != "" && wl.Contains(adv.ID))
}
