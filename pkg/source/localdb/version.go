package localdb

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Composer versions have up to four numeric parts and an optional stability
// suffix, ordered dev < alpha < beta < RC < stable < patch.
var composerVersion = regexp.MustCompile(`(?i)^v?(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:\.(\d+))?(?:[._-]?(stable|dev|alpha|a|beta|b|rc|patch|pl|p)[._-]?(\d+)?)?$`)

var composerBound = regexp.MustCompile(`^(<=|>=|<|>|==|=|!=)?\s*(\S+)$`)

// fourthPartScale folds the fourth numeric part into the patch number, so that
// 4.3.0.1 sorts between 4.3.0 and 4.3.1.
const fourthPartScale = 100000

var stabilityRank = map[string]string{
	"dev":   "1",
	"a":     "2",
	"alpha": "2",
	"b":     "3",
	"beta":  "3",
	"rc":    "4",
}

// ParseVersion maps a Composer version onto a semantic version with the same
// ordering. Pre-releases become numeric pre-release identifiers ranked by
// stability. A patch release (1.0.0-p1) becomes a pre-release of the next
// fourth-part version, ranked below its dev release.
func ParseVersion(s string) (*semver.Version, error) {
	m := composerVersion.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, fmt.Errorf("%q is not a Composer version", s)
	}

	var parts [4]uint64
	for i := range parts {
		if m[i+1] == "" {
			continue
		}

		n, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
		parts[i] = n
	}

	if parts[3] >= fourthPartScale {
		return nil, fmt.Errorf("%q: fourth version part is too large", s)
	}

	patch := parts[2]*fourthPartScale + parts[3]
	stability, number := strings.ToLower(m[5]), m[6]

	var pre string
	switch stability {
	case "", "stable":
	case "p", "pl", "patch":
		patch++
		pre = "0"
	default:
		pre = stabilityRank[stability]
	}

	if pre != "" && number != "" {
		n, err := strconv.ParseUint(number, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
		pre += "." + strconv.FormatUint(n, 10)
	}

	return semver.New(parts[0], parts[1], patch, pre, ""), nil
}

type bound struct {
	op      string
	version *semver.Version
}

func (b bound) allows(v *semver.Version) bool {
	c := v.Compare(b.version)

	switch b.op {
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	case "!=":
		return c != 0
	}

	return c == 0
}

// versionRange is the conjunction of the bounds listed for one branch.
type versionRange []bound

func parseRange(exprs []string) (versionRange, error) {
	r := make(versionRange, 0, len(exprs))

	for _, expr := range exprs {
		m := composerBound.FindStringSubmatch(strings.TrimSpace(expr))
		if m == nil {
			return nil, fmt.Errorf("unsupported version constraint %q", expr)
		}

		v, err := ParseVersion(m[2])
		if err != nil {
			return nil, fmt.Errorf("version constraint %q: %w", expr, err)
		}

		op := m[1]
		if op == "==" {
			op = "="
		}

		r = append(r, bound{op: op, version: v})
	}

	return r, nil
}

func (r versionRange) contains(v *semver.Version) bool {
	for _, b := range r {
		if !b.allows(v) {
			return false
		}
	}

	return true
}
