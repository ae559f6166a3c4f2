// Package config loads lockaudit's optional configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up in the working directory when
// no explicit path is given.
var FileName = "lockaudit.toml"

const (
	SourceOSV   = "osv"
	SourceLocal = "local"
)

// Formats lists the report formats the check command can write.
var Formats = []string{"table", "json", "yaml", "sarif"}

type Config struct {
	// Source selects the vulnerability source, "osv" or "local".
	Source string `toml:"Source,omitempty"`
	// Database is the root of the local advisory database.
	Database string `toml:"Database,omitempty"`
	// APIURL overrides the osv.dev API base URL.
	APIURL      string `toml:"APIURL,omitempty"`
	Whitelist   string `toml:"Whitelist,omitempty"`
	Format      string `toml:"Format,omitempty"`
	ShowIgnored bool   `toml:"ShowIgnored,omitempty"`

	// LoadPath is the file the configuration was read from, if any.
	LoadPath string `toml:"-"`
}

func Default() Config {
	return Config{
		Source: SourceOSV,
		Format: "table",
	}
}

// Load reads the configuration at path. With an empty path, FileName is read
// from the working directory if it exists, and defaults are returned otherwise.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = FileName
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("unable to parse config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown keys in config %s: %v", path, undecoded)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	cfg.LoadPath = path

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Source {
	case SourceOSV:
	case SourceLocal:
		if c.Database == "" {
			return errors.New("the local source needs a Database path")
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}

	if c.Format != "" && !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("unknown output format %q, expected one of %s", c.Format, strings.Join(Formats, ", "))
	}

	return nil
}
