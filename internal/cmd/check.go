/*
Copyright 2023 The OpenVEX Authors
SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"sigs.k8s.io/release-utils/version"

	"github.com/openvex/lockaudit/internal/config"
	"github.com/openvex/lockaudit/pkg/checker"
	"github.com/openvex/lockaudit/pkg/formats"
	"github.com/openvex/lockaudit/pkg/formats/reportjson"
	"github.com/openvex/lockaudit/pkg/formats/sarif"
	"github.com/openvex/lockaudit/pkg/formats/table"
)

// ErrVulnerabilitiesFound is returned by the check command when the lock file
// has packages with advisories that are not ignored.
var ErrVulnerabilitiesFound = errors.New("vulnerable packages found")

func addCheck(parentCmd *cobra.Command, root *rootOptions) {
	opts := &checkOptions{}
	var outputPath string

	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Check a project directory, composer.json or composer.lock for known vulnerabilities",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}

			if err := opts.resolve(cmd, root); err != nil {
				return err
			}

			report, err := opts.run(cmd.Context(), path)
			if err != nil {
				return err
			}

			logrus.WithField("lockfile", report.LockFile).Debugf(
				"%d vulnerable packages, %d ignored advisories",
				report.VulnerabilityCount, report.IgnoredVulnerabilityCount,
			)

			if outputPath != "" {
				if err := writeReportFile(outputPath, opts.Format, report, opts.ShowIgnored); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				if err := writeReport(out, opts.Format, report, opts.ShowIgnored, isTerminal(out)); err != nil {
					return err
				}
			}

			if report.VulnerabilityCount > 0 {
				return ErrVulnerabilitiesFound
			}

			return nil
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Format, "format", "table", "output format: "+strings.Join(config.Formats, ", "))
	cmd.Flags().BoolVar(&opts.ShowIgnored, "show-ignored", false, "include ignored advisories in table output")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the report to a file instead of stdout")

	parentCmd.AddCommand(cmd)
}

func writeReportFile(path, format string, report *checker.Report, showIgnored bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := writeReport(f, format, report, showIgnored, false); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to write report %s: %w", path, err)
	}

	return nil
}

func writeReport(w io.Writer, format string, report *checker.Report, showIgnored, fancy bool) error {
	switch format {
	case "table", "":
		return table.Print(w, formats.Normalize(report), table.Options{ShowIgnored: showIgnored, Fancy: fancy})
	case "json":
		return reportjson.Write(w, report)
	case "yaml":
		return reportjson.WriteYAML(w, report)
	case "sarif":
		return sarif.Write(w, formats.Normalize(report), version.GetVersionInfo().GitVersion)
	}

	return fmt.Errorf("unknown output format %q", format)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
