// Package advisory holds the result model shared by vulnerability sources,
// the checker and the report formats.
package advisory

import "slices"

// Advisory is one known vulnerability affecting a package.
type Advisory struct {
	// ID is the source's own key for the advisory, e.g. the advisory file path
	// in a local database or an OSV identifier.
	ID    string
	CVE   string
	Title string
	Link  string

	// Ignored is only set by whitelist filtering.
	Ignored bool
}

// Identifier returns the CVE of the advisory, or its ID when it has none.
func (a Advisory) Identifier() string {
	if a.CVE != "" {
		return a.CVE
	}

	return a.ID
}

// Package is a locked package together with the advisories reported for it.
type Package struct {
	Name       string
	Version    string
	Advisories []Advisory
	// Dev is set for packages only installed for development.
	Dev bool

	// Ignored is true when every advisory of the package is ignored.
	Ignored bool
}

// Result maps package names to their records, keeping the order in which the
// source reported them.
type Result struct {
	Packages []Package
}

// Add appends a package, or merges its advisories into an existing package of
// the same name.
func (r *Result) Add(p Package) {
	for i := range r.Packages {
		if r.Packages[i].Name == p.Name {
			r.Packages[i].Advisories = append(r.Packages[i].Advisories, p.Advisories...)
			return
		}
	}

	r.Packages = append(r.Packages, p)
}

// Lookup returns the package with the given name.
func (r Result) Lookup(name string) (Package, bool) {
	i := slices.IndexFunc(r.Packages, func(p Package) bool { return p.Name == name })
	if i == -1 {
		return Package{}, false
	}

	return r.Packages[i], true
}

func (r Result) Len() int {
	return len(r.Packages)
}

// AdvisoryCount is the number of advisories across all packages.
func (r Result) AdvisoryCount() int {
	n := 0
	for _, p := range r.Packages {
		n += len(p.Advisories)
	}

	return n
}

// Clone returns a deep copy, so callers can annotate it without touching r.
func (r Result) Clone() Result {
	if r.Packages == nil {
		return Result{}
	}

	packages := make([]Package, len(r.Packages))
	for i, p := range r.Packages {
		p.Advisories = slices.Clone(p.Advisories)
		packages[i] = p
	}

	return Result{Packages: packages}
}
