/*
Copyright 2023 The OpenVEX Authors
SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"sigs.k8s.io/release-utils/version"

	"github.com/openvex/lockaudit/internal/config"
)

type rootOptions struct {
	logLevel   string
	configPath string
}

// New returns the lockaudit command tree.
func New() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "lockaudit",
		Short:         "Check a composer.lock file for packages with known vulnerabilities",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(opts.logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			logrus.SetLevel(level)

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", fmt.Sprintf("path to the configuration file (default ./%s when present)", config.FileName))

	addCheck(cmd, opts)
	addTriage(cmd, opts)
	cmd.AddCommand(version.Version())

	return cmd
}
