package reportjson

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/openvex/lockaudit/pkg/advisory"
	"github.com/openvex/lockaudit/pkg/checker"
)

func sampleReport() *checker.Report {
	return &checker.Report{
		LockFile: "project/composer.lock",
		Result: advisory.Result{Packages: []advisory.Package{
			{
				Name:    "twig/twig",
				Version: "v1.37.0",
				Dev:     true,
				Ignored: true,
				Advisories: []advisory.Advisory{
					{ID: "twig/twig/2019-03-12.yaml", Title: "Sandbox bypass", Link: "https://symfony.com/blog/twig", Ignored: true},
				},
			},
			{
				Name:    "symfony/http-kernel",
				Version: "v4.4.0",
				Advisories: []advisory.Advisory{
					{ID: "symfony/http-kernel/CVE-2020-5255.yaml", CVE: "CVE-2020-5255", Title: "Cache poisoning"},
				},
			},
		}},
		VulnerabilityCount:        1,
		IgnoredVulnerabilityCount: 1,
	}
}

func TestWriteThenParse(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write() unexpected error: %v", err)
	}

	if !strings.Contains(buf.String(), `"purl": "pkg:composer/twig/twig@v1.37.0"`) {
		t.Errorf("Write() output is missing the package URL:\n%s", buf.String())
	}

	if strings.Count(buf.String(), `"dev": true`) != 1 {
		t.Errorf("Write() should mark exactly the dev package:\n%s", buf.String())
	}

	parsed, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}

	if diff := cmp.Diff(sampleReport(), parsed.Report()); diff != "" {
		t.Errorf("report changed through JSON (-want +got):\n%s", diff)
	}

	n := parsed.Normalized()
	if len(n.Matches) != 2 || n.VulnerabilityCount != 1 {
		t.Errorf("Normalized() = %+v", n)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse(strings.NewReader("[1, 2")); err == nil {
		t.Errorf("Parse() expected an error for malformed input")
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteYAML(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteYAML() unexpected error: %v", err)
	}

	var got Document
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("WriteYAML() produced invalid YAML: %v", err)
	}

	if diff := cmp.Diff(NewDocument(sampleReport()), got); diff != "" {
		t.Errorf("YAML document mismatch (-want +got):\n%s", diff)
	}
}
