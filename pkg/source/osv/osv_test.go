package osv

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/openvex/lockaudit/pkg/advisory"
)

// fakeOSV serves the querybatch and vulns endpoints from fixed data.
func fakeOSV(t *testing.T, affected map[string][]string, records map[string]string, hits *atomic.Int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/v1/querybatch", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Queries []struct {
				Package struct {
					Name      string `json:"name"`
					Ecosystem string `json:"ecosystem"`
				} `json:"package"`
				Version string `json:"version"`
			} `json:"queries"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		type vuln struct {
			ID string `json:"id"`
		}
		type result struct {
			Vulns []vuln `json:"vulns"`
		}

		results := make([]result, 0, len(body.Queries))
		for _, q := range body.Queries {
			if q.Package.Ecosystem != "Packagist" {
				t.Errorf("unexpected ecosystem %q", q.Package.Ecosystem)
			}

			var res result
			for _, id := range affected[q.Package.Name+"@"+q.Version] {
				res.Vulns = append(res.Vulns, vuln{ID: id})
			}
			results = append(results, res)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
	})

	mux.HandleFunc("/v1/vulns/", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}

		id := strings.TrimPrefix(r.URL.Path, "/v1/vulns/")
		record, ok := records[id]
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(record))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func writeLock(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "composer.lock")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestSource_Check(t *testing.T) {
	var hits atomic.Int32
	srv := fakeOSV(t,
		map[string][]string{
			"symfony/http-kernel@v4.4.0": {"GHSA-mw4x-w7f8-6xvm", "CVE-2020-5255"},
			"symfony/security@v4.4.0":    {"GHSA-mw4x-w7f8-6xvm"},
		},
		map[string]string{
			"GHSA-mw4x-w7f8-6xvm": `{"id": "GHSA-mw4x-w7f8-6xvm", "summary": "Use constant time comparison in UriSigner", "aliases": ["CVE-2019-18887"]}`,
			"CVE-2020-5255":       `{"id": "CVE-2020-5255", "summary": "Prevent cache poisoning"}`,
		},
		&hits,
	)

	lock := writeLock(t, `{
  "packages": [
    {"name": "symfony/http-kernel", "version": "v4.4.0"},
    {"name": "monolog/monolog", "version": "1.25.0"}
  ],
  "packages-dev": [
    {"name": "symfony/security", "version": "v4.4.0"}
  ]
}`)

	src := New(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithUserAgent("lockaudit-test"))

	count, result, err := src.Check(context.Background(), lock)
	if err != nil {
		t.Fatalf("Check() unexpected error: %v", err)
	}

	if count != 2 {
		t.Errorf("Check() count = %d, want 2", count)
	}

	want := advisory.Result{Packages: []advisory.Package{
		{
			Name:    "symfony/http-kernel",
			Version: "v4.4.0",
			Advisories: []advisory.Advisory{
				{
					ID:    "GHSA-mw4x-w7f8-6xvm",
					CVE:   "CVE-2019-18887",
					Title: "Use constant time comparison in UriSigner",
					Link:  "https://osv.dev/vulnerability/GHSA-mw4x-w7f8-6xvm",
				},
				{
					ID:    "CVE-2020-5255",
					CVE:   "CVE-2020-5255",
					Title: "Prevent cache poisoning",
					Link:  "https://osv.dev/vulnerability/CVE-2020-5255",
				},
			},
		},
		{
			Name:    "symfony/security",
			Version: "v4.4.0",
			Dev:     true,
			Advisories: []advisory.Advisory{
				{
					ID:    "GHSA-mw4x-w7f8-6xvm",
					CVE:   "CVE-2019-18887",
					Title: "Use constant time comparison in UriSigner",
					Link:  "https://osv.dev/vulnerability/GHSA-mw4x-w7f8-6xvm",
				},
			},
		},
	}}

	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("Check() mismatch (-want +got):\n%s", diff)
	}

	if got := hits.Load(); got != 2 {
		t.Errorf("fetched %d vulnerability records, want 2 (one per distinct id)", got)
	}
}

func TestSource_CheckWithoutPackages(t *testing.T) {
	src := New(WithBaseURL("http://127.0.0.1:0"))

	count, result, err := src.Check(context.Background(), writeLock(t, `{"packages": []}`))
	if err != nil {
		t.Fatalf("Check() unexpected error: %v", err)
	}

	if count != 0 || result.Len() != 0 {
		t.Errorf("Check() = %d, %+v; want an empty result", count, result)
	}
}

func TestSource_CheckMissingLockFile(t *testing.T) {
	src := New(WithBaseURL("http://127.0.0.1:0"))

	if _, _, err := src.Check(context.Background(), filepath.Join(t.TempDir(), "composer.lock")); err == nil {
		t.Errorf("Check() expected an error for a missing lock file")
	}
}

func TestToAdvisory(t *testing.T) {
	got := toAdvisory("GHSA-1234", nil)
	want := advisory.Advisory{ID: "GHSA-1234", Link: BaseVulnerabilityURL + "GHSA-1234"}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("toAdvisory() mismatch (-want +got):\n%s", diff)
	}
}
