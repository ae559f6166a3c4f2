package localdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvex/lockaudit/pkg/advisory"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func fixtureDatabase(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	writeFile(t, filepath.Join(root, "symfony/http-kernel/CVE-2019-18887.yaml"), `
title:     'CVE-2019-18887: Use constant time comparison in UriSigner'
link:      https://symfony.com/cve-2019-18887
cve:       CVE-2019-18887
reference: composer://symfony/http-kernel
branches:
    4.3.x:
        time:     2019-11-12 09:00:00
        versions: ['>=4.3.0', '<4.3.8']
    4.4.x:
        versions: ['>=4.4.0', '<4.4.1']
`)

	writeFile(t, filepath.Join(root, "symfony/http-kernel/CVE-2020-5255.yaml"), `
title:     'CVE-2020-5255: Prevent cache poisoning'
link:      https://symfony.com/cve-2020-5255
cve:       CVE-2020-5255
reference: composer://symfony/http-kernel
branches:
    4.4.x:
        versions: ['>=4.4.0', '<4.4.5']
`)

	writeFile(t, filepath.Join(root, "twig/twig/2019-03-12.yaml"), `
title:     Sandbox bypass
link:      https://symfony.com/blog/twig-sandbox-information-disclosure
cve:       ~
reference: composer://twig/twig
branches:
    1.x:
        versions: ['<1.38.0']
`)

	writeFile(t, filepath.Join(root, "acme/widget/CVE-2099-0001.yaml"), `
title:     Widget overflow
cve:       CVE-2099-0001
reference: composer://acme/widget
branches:
    4.x:
        versions: ['>=4.0.0', '<4.4.1']
`)

	// dot directories are skipped
	writeFile(t, filepath.Join(root, ".github/workflows/ci.yaml"), "on: [push]\n")

	return root
}

func TestDatabase_Check(t *testing.T) {
	db, err := Load(context.Background(), fixtureDatabase(t))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	lock := filepath.Join(t.TempDir(), "composer.lock")
	writeFile(t, lock, `{
  "packages": [
    {"name": "twig/twig", "version": "v1.37.0"},
    {"name": "monolog/monolog", "version": "1.25.0"},
    {"name": "symfony/http-kernel", "version": "v4.4.0"}
  ],
  "packages-dev": [
    {"name": "symfony/http-kernel-dev", "version": "dev-master"},
    {"name": "acme/widget", "version": "4.2.0"}
  ]
}`)

	count, result, err := db.Check(context.Background(), lock)
	if err != nil {
		t.Fatalf("Check() unexpected error: %v", err)
	}

	if count != 3 {
		t.Errorf("Check() count = %d, want 3", count)
	}

	want := advisory.Result{Packages: []advisory.Package{
		{
			Name:    "twig/twig",
			Version: "v1.37.0",
			Advisories: []advisory.Advisory{
				{
					ID:    "twig/twig/2019-03-12.yaml",
					Title: "Sandbox bypass",
					Link:  "https://symfony.com/blog/twig-sandbox-information-disclosure",
				},
			},
		},
		{
			Name:    "symfony/http-kernel",
			Version: "v4.4.0",
			Advisories: []advisory.Advisory{
				{
					ID:    "symfony/http-kernel/CVE-2019-18887.yaml",
					CVE:   "CVE-2019-18887",
					Title: "CVE-2019-18887: Use constant time comparison in UriSigner",
					Link:  "https://symfony.com/cve-2019-18887",
				},
				{
					ID:    "symfony/http-kernel/CVE-2020-5255.yaml",
					CVE:   "CVE-2020-5255",
					Title: "CVE-2020-5255: Prevent cache poisoning",
					Link:  "https://symfony.com/cve-2020-5255",
				},
			},
		},
		{
			Name:    "acme/widget",
			Version: "4.2.0",
			Dev:     true,
			Advisories: []advisory.Advisory{
				{
					ID:    "acme/widget/CVE-2099-0001.yaml",
					CVE:   "CVE-2099-0001",
					Title: "Widget overflow",
				},
			},
		},
	}}

	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("Check() mismatch (-want +got):\n%s", diff)
	}
}

func TestDatabase_Lookup(t *testing.T) {
	db, err := Load(context.Background(), fixtureDatabase(t))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	tests := []struct {
		name    string
		pkg     string
		version string
		want    []string
	}{
		{name: "inside one branch", pkg: "symfony/http-kernel", version: "4.3.7", want: []string{"CVE-2019-18887"}},
		{name: "fixed in both", pkg: "symfony/http-kernel", version: "4.4.5", want: nil},
		{name: "only the later fix applies", pkg: "symfony/http-kernel", version: "v4.4.2", want: []string{"CVE-2020-5255"}},
		{name: "unknown package", pkg: "acme/unknown", version: "1.0.0", want: nil},
		{name: "unparsable version", pkg: "symfony/http-kernel", version: "dev-master", want: nil},
		{name: "release candidate before the fix", pkg: "symfony/http-kernel", version: "4.4.5-RC1", want: []string{"CVE-2020-5255"}},
		{name: "release candidate before the branch", pkg: "symfony/http-kernel", version: "v4.4.0-RC1", want: nil},
		{name: "release in range", pkg: "acme/widget", version: "v4.4.0", want: []string{"CVE-2099-0001"}},
		{name: "release candidate in range", pkg: "acme/widget", version: "v4.4.0-RC1", want: []string{"CVE-2099-0001"}},
		{name: "beta of the fixed release", pkg: "acme/widget", version: "4.4.1-beta2", want: []string{"CVE-2099-0001"}},
		{name: "four part version", pkg: "acme/widget", version: "4.3.0.1", want: []string{"CVE-2099-0001"}},
		{name: "four part version below the fix", pkg: "acme/widget", version: "4.4.0.99", want: []string{"CVE-2099-0001"}},
		{name: "fixed release", pkg: "acme/widget", version: "4.4.1", want: nil},
		{name: "patch of the fixed release", pkg: "acme/widget", version: "4.4.1-p1", want: nil},
		{name: "dev before the first affected release", pkg: "acme/widget", version: "4.0.0-dev", want: nil},
		{name: "previous major", pkg: "acme/widget", version: "3.9.9", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, a := range db.Lookup(tt.pkg, tt.version) {
				got = append(got, a.CVE)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Lookup() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDatabase_LookupWarnsOnUnparsableVersion(t *testing.T) {
	logger, hook := test.NewNullLogger()

	db, err := Load(context.Background(), fixtureDatabase(t), WithLogger(logrus.NewEntry(logger)))
	require.NoError(t, err)

	assert.Empty(t, db.Lookup("symfony/http-kernel", "dev-main"))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "symfony/http-kernel", entry.Data["package"])

	hook.Reset()
	assert.Empty(t, db.Lookup("acme/unknown", "dev-main"))
	assert.Nil(t, hook.LastEntry(), "packages without advisories are not worth a warning")
}

func TestLoad_InvalidAdvisory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "acme/broken/bad.yaml"), "title: [unterminated\n")

	if _, err := Load(context.Background(), root); err == nil {
		t.Errorf("Load() expected an error for malformed YAML")
	}
}

func TestLoad_InvalidConstraint(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "acme/broken/bad.yaml"), `
title: bad
reference: composer://acme/broken
branches:
    1.x:
        versions: ['>=banana']
`)

	if _, err := Load(context.Background(), root); err == nil {
		t.Errorf("Load() expected an error for an invalid constraint")
	}
}

func TestEntry_PackageFallsBackToPath(t *testing.T) {
	e := Entry{Path: "acme/widget/CVE-2020-0001.yaml"}

	if got := e.Package(); got != "acme/widget" {
		t.Errorf("Package() = %q, want %q", got, "acme/widget")
	}
}
