// Package sarif renders a report as a SARIF 2.1.0 log.
package sarif

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/openvex/lockaudit/pkg/formats"
)

const (
	toolName = "lockaudit"
	toolURI  = "https://github.com/openvex/lockaudit"
)

// Write renders n to w. Ignored advisories are reported with level "note",
// all others with level "warning".
func Write(w io.Writer, n formats.Normalized, toolVersion string) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return err
	}

	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	if toolVersion != "" {
		run.Tool.Driver.WithVersion(toolVersion)
	}

	artifactPath := filepath.ToSlash(n.LockFile)
	if artifactPath != "" {
		run.AddDistinctArtifact(artifactPath)
	}

	rules := map[string]struct{}{}
	for _, m := range n.Matches {
		ruleID := m.Vulnerability.DisplayID()

		if _, ok := rules[ruleID]; !ok {
			rules[ruleID] = struct{}{}

			description := ruleID
			if m.Vulnerability.Title != "" {
				description = fmt.Sprintf("%s: %s", ruleID, m.Vulnerability.Title)
			}

			rule := run.AddRule(ruleID).
				WithName(ruleID).
				WithShortDescription(sarif.NewMultiformatMessageString(description))
			if m.Vulnerability.URL != "" {
				rule.WithMarkdownHelp(fmt.Sprintf("[%s](%s)", ruleID, m.Vulnerability.URL)).
					WithTextHelp(m.Vulnerability.URL)
			}
		}

		level := "warning"
		if m.Ignored {
			level = "note"
		}

		result := run.CreateResultForRule(ruleID).
			WithLevel(level).
			WithMessage(sarif.NewTextMessage(
				fmt.Sprintf("Package '%s@%s' is affected by '%s'.", m.Package.Name, m.Package.Version, ruleID),
			))

		if artifactPath != "" {
			result.AddLocation(
				sarif.NewLocationWithPhysicalLocation(
					sarif.NewPhysicalLocation().
						WithArtifactLocation(sarif.NewSimpleArtifactLocation(artifactPath)),
				))
		}
	}

	report.AddRun(run)

	if err := report.PrettyWrite(w); err != nil {
		return err
	}

	_, err = fmt.Fprintln(w)
	return err
}
