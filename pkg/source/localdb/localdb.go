// Package localdb implements a vulnerability source over a local checkout of
// a Composer security advisories database.
//
// The database is a directory tree with one YAML file per advisory, stored
// under the name of the affected package:
//
//	symfony/http-kernel/CVE-2019-18887.yaml
//
// Each file lists the affected version ranges per branch:
//
//	title:     'CVE-2019-18887: Use constant time comparison in UriSigner'
//	link:      https://symfony.com/cve-2019-18887
//	cve:       CVE-2019-18887
//	reference: composer://symfony/http-kernel
//	branches:
//	    4.4.x:
//	        versions: ['>=4.4.0', '<4.4.1']
package localdb

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/openvex/lockaudit/pkg/advisory"
	"github.com/openvex/lockaudit/pkg/lockfile"
)

const maxConcurrentReads = 32

type Branch struct {
	Versions []string `yaml:"versions"`
}

type Entry struct {
	Title     string            `yaml:"title"`
	Link      string            `yaml:"link"`
	CVE       string            `yaml:"cve"`
	Reference string            `yaml:"reference"`
	Branches  map[string]Branch `yaml:"branches"`

	// Path is the location of the entry relative to the database root.
	Path string `yaml:"-"`

	ranges []versionRange
}

// Package returns the name of the package the entry applies to.
func (e *Entry) Package() string {
	if name, ok := strings.CutPrefix(e.Reference, "composer://"); ok {
		return name
	}

	return path.Dir(e.Path)
}

// Affects reports whether version falls in any of the entry's branches.
func (e *Entry) Affects(version *semver.Version) bool {
	for _, r := range e.ranges {
		if r.contains(version) {
			return true
		}
	}

	return false
}

func (e *Entry) compile() error {
	for name, b := range e.Branches {
		if len(b.Versions) == 0 {
			continue
		}

		r, err := parseRange(b.Versions)
		if err != nil {
			return fmt.Errorf("branch %s: %w", name, err)
		}

		e.ranges = append(e.ranges, r)
	}

	return nil
}

// Database is an in-memory index of advisory entries by package name.
type Database struct {
	entries map[string][]*Entry
	log     *logrus.Entry
}

type Option func(*Database)

func WithLogger(log *logrus.Entry) Option {
	return func(db *Database) {
		db.log = log
	}
}

// Load reads every advisory below root.
func Load(ctx context.Context, root string, opts ...Option) (*Database, error) {
	db := &Database{
		entries: map[string][]*Entry{},
		log:     logrus.NewEntry(logrus.StandardLogger()),
	}

	for _, opt := range opts {
		opt(db)
	}

	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if ext := filepath.Ext(p); ext == ".yaml" || ext == ".yml" {
			files = append(files, p)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to read advisory database: %w", err)
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)

	for _, file := range files {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			entry, err := readEntry(root, file)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			db.entries[entry.Package()] = append(db.entries[entry.Package()], entry)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	db.log.WithField("database", root).Debugf("loaded %d advisories for %d packages", len(files), len(db.entries))

	return db, nil
}

func readEntry(root, file string) (*Entry, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var entry Entry
	if err := yaml.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("unable to parse advisory %s: %w", file, err)
	}

	rel, err := filepath.Rel(root, file)
	if err != nil {
		return nil, err
	}
	entry.Path = filepath.ToSlash(rel)

	if err := entry.compile(); err != nil {
		return nil, fmt.Errorf("advisory %s: %w", file, err)
	}

	return &entry, nil
}

// Lookup returns the advisories affecting the given package version, ordered
// by their path in the database.
func (db *Database) Lookup(name, version string) []advisory.Advisory {
	entries := db.entries[name]
	if len(entries) == 0 {
		return nil
	}

	v, err := ParseVersion(version)
	if err != nil {
		// branch installs such as dev-main have no place in the advisory ranges
		db.log.WithField("package", name).Warnf("cannot match %d advisories against version %q: %v", len(entries), version, err)
		return nil
	}

	var advisories []advisory.Advisory
	for _, e := range entries {
		if !e.Affects(v) {
			continue
		}

		advisories = append(advisories, advisory.Advisory{
			ID:    e.Path,
			CVE:   e.CVE,
			Title: e.Title,
			Link:  e.Link,
		})
	}

	slices.SortFunc(advisories, func(a, b advisory.Advisory) int {
		return strings.Compare(a.ID, b.ID)
	})

	return advisories
}

// Check implements source.Source.
func (db *Database) Check(ctx context.Context, lockFile string) (int, advisory.Result, error) {
	lock, err := lockfile.Open(lockFile)
	if err != nil {
		return 0, advisory.Result{}, err
	}

	var result advisory.Result
	for _, p := range lock.Packages {
		if ctx.Err() != nil {
			return 0, advisory.Result{}, ctx.Err()
		}

		advisories := db.Lookup(p.Name, p.Version)
		if len(advisories) == 0 {
			continue
		}

		result.Add(advisory.Package{
			Name:       p.Name,
			Version:    p.Version,
			Advisories: advisories,
			Dev:        p.Dev,
		})
	}

	return result.Len(), result, nil
}
