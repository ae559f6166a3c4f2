// Package reportjson reads and writes the machine readable report document.
package reportjson

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/openvex/lockaudit/pkg/advisory"
	"github.com/openvex/lockaudit/pkg/checker"
	"github.com/openvex/lockaudit/pkg/formats"
)

type Document struct {
	LockFile                  string    `json:"lockFile" yaml:"lockFile"`
	VulnerabilityCount        int       `json:"vulnerabilityCount" yaml:"vulnerabilityCount"`
	IgnoredVulnerabilityCount int       `json:"ignoredVulnerabilityCount" yaml:"ignoredVulnerabilityCount"`
	Packages                  []Package `json:"packages" yaml:"packages"`
}

type Package struct {
	Name       string     `json:"name" yaml:"name"`
	Version    string     `json:"version" yaml:"version"`
	PURL       string     `json:"purl,omitempty" yaml:"purl,omitempty"`
	Dev        bool       `json:"dev,omitempty" yaml:"dev,omitempty"`
	Ignored    bool       `json:"ignored" yaml:"ignored"`
	Advisories []Advisory `json:"advisories" yaml:"advisories"`
}

type Advisory struct {
	ID      string `json:"id" yaml:"id"`
	CVE     string `json:"cve,omitempty" yaml:"cve,omitempty"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Link    string `json:"link,omitempty" yaml:"link,omitempty"`
	Ignored bool   `json:"ignored" yaml:"ignored"`
}

type Format struct {
	wrapped Document
}

// NewDocument converts a report to its document form.
func NewDocument(r *checker.Report) Document {
	d := Document{
		LockFile:                  r.LockFile,
		VulnerabilityCount:        r.VulnerabilityCount,
		IgnoredVulnerabilityCount: r.IgnoredVulnerabilityCount,
		Packages:                  make([]Package, 0, r.Result.Len()),
	}

	for _, p := range r.Result.Packages {
		pkg := Package{
			Name:       p.Name,
			Version:    p.Version,
			PURL:       formats.PURL(p.Name, p.Version),
			Dev:        p.Dev,
			Ignored:    p.Ignored,
			Advisories: make([]Advisory, 0, len(p.Advisories)),
		}

		for _, a := range p.Advisories {
			pkg.Advisories = append(pkg.Advisories, Advisory{
				ID:      a.ID,
				CVE:     a.CVE,
				Title:   a.Title,
				Link:    a.Link,
				Ignored: a.Ignored,
			})
		}

		d.Packages = append(d.Packages, pkg)
	}

	return d
}

// Write encodes the report as indented JSON.
func Write(w io.Writer, r *checker.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(NewDocument(r)); err != nil {
		return fmt.Errorf("unable to write JSON report: %w", err)
	}

	return nil
}

// WriteYAML encodes the report as YAML.
func WriteYAML(w io.Writer, r *checker.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(NewDocument(r)); err != nil {
		return fmt.Errorf("unable to write YAML report: %w", err)
	}

	return enc.Close()
}

// Parse reads a JSON report previously produced by Write.
func Parse(input io.Reader) (Format, error) {
	dec := json.NewDecoder(input)
	d := new(Document)
	err := dec.Decode(d)
	if err != nil {
		return Format{}, fmt.Errorf("unable to parse JSON report: %w", err)
	}

	return Format{
		wrapped: *d,
	}, nil
}

// Report rebuilds the checker report the document was written from.
func (f Format) Report() *checker.Report {
	r := &checker.Report{
		LockFile:                  f.wrapped.LockFile,
		VulnerabilityCount:        f.wrapped.VulnerabilityCount,
		IgnoredVulnerabilityCount: f.wrapped.IgnoredVulnerabilityCount,
	}

	for _, p := range f.wrapped.Packages {
		pkg := advisory.Package{
			Name:    p.Name,
			Version: p.Version,
			Dev:     p.Dev,
			Ignored: p.Ignored,
		}

		for _, a := range p.Advisories {
			pkg.Advisories = append(pkg.Advisories, advisory.Advisory{
				ID:      a.ID,
				CVE:     a.CVE,
				Title:   a.Title,
				Link:    a.Link,
				Ignored: a.Ignored,
			})
		}

		r.Result.Packages = append(r.Result.Packages, pkg)
	}

	return r
}

func (f Format) Normalized() formats.Normalized {
	return formats.Normalize(f.Report())
}

var _ formats.Format = Format{}
