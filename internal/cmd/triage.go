/*
Copyright 2023 The OpenVEX Authors
SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/openvex/lockaudit/internal/triage"
	"github.com/openvex/lockaudit/pkg/formats"
	"github.com/openvex/lockaudit/pkg/formats/reportjson"
)

func addTriage(parentCmd *cobra.Command, root *rootOptions) {
	opts := &checkOptions{}
	var reportPath string

	cmd := &cobra.Command{
		Use:   "triage [path]",
		Short: "Browse the advisories of a lock file interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadTriageData(cmd, root, opts, reportPath, args)
			if err != nil {
				return err
			}

			// start app

			p := tea.NewProgram(triage.New(data), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return err
			}

			return nil
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&reportPath, "report", "", "browse a JSON report written by 'check --format json' instead of running a check")

	parentCmd.AddCommand(cmd)
}

func loadTriageData(cmd *cobra.Command, root *rootOptions, opts *checkOptions, reportPath string, args []string) (formats.Normalized, error) {
	if reportPath != "" {
		f, err := os.Open(reportPath)
		if err != nil {
			return formats.Normalized{}, err
		}
		defer f.Close()

		parsed, err := reportjson.Parse(f)
		if err != nil {
			return formats.Normalized{}, err
		}

		return parsed.Normalized(), nil
	}

	path := "."
	if len(args) == 1 {
		path = args[0]
	}

	if err := opts.resolve(cmd, root); err != nil {
		return formats.Normalized{}, err
	}

	report, err := opts.run(cmd.Context(), path)
	if err != nil {
		return formats.Normalized{}, err
	}

	return formats.Normalize(report), nil
}
