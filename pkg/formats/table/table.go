// Package table renders a report as a human readable table.
package table

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/openvex/lockaudit/pkg/formats"
)

type Options struct {
	// ShowIgnored includes ignored advisories in the table.
	ShowIgnored bool
	// Fancy selects rounded borders and colours, for terminals.
	Fancy bool
}

// Print writes the table and a summary line to w.
func Print(w io.Writer, n formats.Normalized, opts Options) error {
	sel := formats.Select(n)
	if !opts.ShowIgnored {
		sel = sel.WhereIgnored(false)
	}

	if sel.Len() > 0 {
		t := newTable(w, opts.Fancy)
		t.AppendHeader(table.Row{"Package", "Version", "Advisory", "Title", "Status"})

		for _, m := range sel.Matches() {
			status := "vulnerable"
			if m.Ignored {
				status = "ignored"
			}

			name := m.Package.Name
			if m.Package.Dev {
				name += " (dev)"
			}

			t.AppendRow(table.Row{
				name,
				m.Package.Version,
				m.Vulnerability.DisplayID(),
				m.Vulnerability.Title,
				status,
			})
		}

		t.Render()
	}

	_, err := fmt.Fprintln(w, Summary(n))
	return err
}

// Summary describes the counters of a report in one sentence.
func Summary(n formats.Normalized) string {
	var s string
	switch n.VulnerabilityCount {
	case 0:
		s = "No packages have known vulnerabilities"
	case 1:
		s = "1 package has known vulnerabilities"
	default:
		s = fmt.Sprintf("%d packages have known vulnerabilities", n.VulnerabilityCount)
	}

	if n.IgnoredVulnerabilityCount > 0 {
		s += fmt.Sprintf(" (%d ignored %s)", n.IgnoredVulnerabilityCount, plural(n.IgnoredVulnerabilityCount, "advisory", "advisories"))
	}

	if n.LockFile != "" {
		s += " in " + n.LockFile
	}

	return s + "."
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}

	return many
}

func newTable(w io.Writer, fancy bool) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	if fancy {
		t.SetStyle(table.StyleRounded)
		t.Style().Options.DoNotColorBordersAndSeparators = true
		t.Style().Color.Row = text.Colors{text.Reset, text.BgHiBlack}
		t.Style().Color.RowAlternate = text.Colors{text.Reset, text.BgBlack}
	} else {
		text.DisableColors()
	}

	return t
}
