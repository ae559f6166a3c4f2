/*
Copyright 2023 The OpenVEX Authors
SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"sigs.k8s.io/release-utils/version"

	"github.com/openvex/lockaudit/internal/config"
	"github.com/openvex/lockaudit/pkg/checker"
	"github.com/openvex/lockaudit/pkg/source"
	"github.com/openvex/lockaudit/pkg/source/localdb"
	"github.com/openvex/lockaudit/pkg/source/osv"
)

// checkOptions are the settings shared by every command that runs a check.
type checkOptions struct {
	config.Config
}

func (o *checkOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Whitelist, "whitelist", "", "file listing advisory identifiers to ignore (JSON array, OpenVEX or TOML)")
	cmd.Flags().StringVar(&o.Source, "source", config.SourceOSV, "vulnerability source: osv or local")
	cmd.Flags().StringVar(&o.Database, "database", "", "root of a local security advisories database (with --source local)")
	cmd.Flags().StringVar(&o.APIURL, "api-url", "", "osv.dev compatible API base URL (with --source osv)")
}

// resolve loads the configuration file and lets explicitly set flags override
// its values.
func (o *checkOptions) resolve(cmd *cobra.Command, root *rootOptions) error {
	cfg, err := config.Load(root.configPath)
	if err != nil {
		return err
	}

	if cfg.LoadPath != "" {
		logrus.WithField("config", cfg.LoadPath).Debug("loaded configuration")
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, val string) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst = val
		}
	}

	override("whitelist", &cfg.Whitelist, o.Whitelist)
	override("source", &cfg.Source, o.Source)
	override("database", &cfg.Database, o.Database)
	override("api-url", &cfg.APIURL, o.APIURL)
	override("format", &cfg.Format, o.Format)

	if flags.Lookup("show-ignored") != nil && flags.Changed("show-ignored") {
		cfg.ShowIgnored = o.ShowIgnored
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	o.Config = cfg

	return nil
}

func (o *checkOptions) newSource(ctx context.Context) (source.Source, error) {
	log := logrus.WithField("source", o.Source)

	switch o.Source {
	case config.SourceLocal:
		db, err := localdb.Load(ctx, o.Database, localdb.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return db, nil

	case config.SourceOSV:
		opts := []osv.Option{
			osv.WithUserAgent("lockaudit/" + version.GetVersionInfo().GitVersion),
			osv.WithLogger(log),
		}
		if o.APIURL != "" {
			opts = append(opts, osv.WithBaseURL(o.APIURL))
		}
		return osv.New(opts...), nil
	}

	return nil, fmt.Errorf("unknown source %q", o.Source)
}

// run checks path and returns the report.
func (o *checkOptions) run(ctx context.Context, path string) (*checker.Report, error) {
	src, err := o.newSource(ctx)
	if err != nil {
		return nil, err
	}

	c := checker.New(src, checker.WithLogger(logrus.WithField("source", o.Source)))
	c.SetWhitelistPath(o.Whitelist)

	return c.Check(ctx, path)
}
