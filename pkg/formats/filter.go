package formats

import "strings"

// Selection narrows down the matches of a normalized report. Each Where call
// returns a new selection; the underlying report is not modified.
type Selection struct {
	matches []Match
}

func Select(n Normalized) Selection {
	return Selection{matches: n.Matches}
}

func (s Selection) where(keep func(Match) bool) Selection {
	var out []Match
	for _, m := range s.matches {
		if keep(m) {
			out = append(out, m)
		}
	}

	return Selection{matches: out}
}

// WherePackageName keeps matches whose package name contains name.
func (s Selection) WherePackageName(name string) Selection {
	return s.where(func(m Match) bool {
		return strings.Contains(m.Package.Name, name)
	})
}

// WhereVulnerabilityID keeps matches whose advisory ID or CVE contains id.
func (s Selection) WhereVulnerabilityID(id string) Selection {
	return s.where(func(m Match) bool {
		return strings.Contains(m.Vulnerability.ID, id) || strings.Contains(m.Vulnerability.CVE, id)
	})
}

func (s Selection) WherePackageURL(purl string) Selection {
	return s.where(func(m Match) bool {
		return m.Package.PURL == purl
	})
}

func (s Selection) WhereIgnored(ignored bool) Selection {
	return s.where(func(m Match) bool {
		return m.Ignored == ignored
	})
}

func (s Selection) Matches() []Match {
	return s.matches
}

func (s Selection) Len() int {
	return len(s.matches)
}

// Contains reports whether m matches expr by package name or vulnerability.
func Contains(m Match, expr string) bool {
	return strings.Contains(m.Package.Name, expr) ||
		strings.Contains(m.Vulnerability.ID, expr) ||
		strings.Contains(m.Vulnerability.CVE, expr)
}
