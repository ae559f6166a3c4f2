package formats

import (
	"strings"

	"github.com/package-url/packageurl-go"

	"github.com/openvex/lockaudit/pkg/checker"
)

type Normalized struct {
	Matches  []Match
	LockFile string

	VulnerabilityCount        int
	IgnoredVulnerabilityCount int
}

// Match is a single advisory reported against a single package.
type Match struct {
	Package       Package
	Vulnerability Vulnerability
	Ignored       bool
}

type Package struct {
	Name    string
	Version string
	PURL    string
	Dev     bool
	// Ignored is true when all advisories of the package are ignored.
	Ignored bool
}

type Vulnerability struct {
	ID    string
	CVE   string
	Title string
	URL   string
}

// DisplayID is the CVE of the vulnerability, falling back to its ID.
func (v Vulnerability) DisplayID() string {
	if v.CVE != "" {
		return v.CVE
	}

	return v.ID
}

type Format interface {
	Normalized() Normalized
}

// Normalize flattens a report into one match per package advisory, in report
// order.
func Normalize(r *checker.Report) Normalized {
	n := Normalized{
		LockFile:                  r.LockFile,
		VulnerabilityCount:        r.VulnerabilityCount,
		IgnoredVulnerabilityCount: r.IgnoredVulnerabilityCount,
		Matches:                   make([]Match, 0, r.Result.AdvisoryCount()),
	}

	for _, p := range r.Result.Packages {
		pkg := Package{
			Name:    p.Name,
			Version: p.Version,
			PURL:    PURL(p.Name, p.Version),
			Dev:     p.Dev,
			Ignored: p.Ignored,
		}

		for _, a := range p.Advisories {
			n.Matches = append(n.Matches, Match{
				Package: pkg,
				Vulnerability: Vulnerability{
					ID:    a.ID,
					CVE:   a.CVE,
					Title: a.Title,
					URL:   a.Link,
				},
				Ignored: a.Ignored,
			})
		}
	}

	return n
}

// PURL returns the package URL of a Composer package.
func PURL(name, version string) string {
	namespace, pkgName := "", name
	if i := strings.LastIndex(name, "/"); i != -1 {
		namespace, pkgName = name[:i], name[i+1:]
	}

	return packageurl.NewPackageURL(packageurl.TypeComposer, namespace, pkgName, version, nil, "").ToString()
}
