// Package osv implements a vulnerability source backed by the osv.dev API.
package osv

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/ossf/osv-schema/bindings/go/osvschema"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"osv.dev/bindings/go/osvdev"
	"osv.dev/bindings/go/osvdevexperimental"

	"github.com/openvex/lockaudit/pkg/advisory"
	"github.com/openvex/lockaudit/pkg/lockfile"
)

const (
	// BaseVulnerabilityURL is the base URL for detailed vulnerability views.
	BaseVulnerabilityURL = "https://osv.dev/vulnerability/"

	maxConcurrentRequests = 100
)

type Source struct {
	Client osvdev.OSVClient
	log    *logrus.Entry
}

type Option func(*Source)

// WithBaseURL points the source at a different osv.dev compatible API.
func WithBaseURL(url string) Option {
	return func(s *Source) {
		s.Client.BaseHostURL = url
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(s *Source) {
		s.Client.HTTPClient = client
	}
}

func WithUserAgent(userAgent string) Option {
	return func(s *Source) {
		s.Client.Config.UserAgent = userAgent
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(s *Source) {
		s.log = log
	}
}

func New(opts ...Option) *Source {
	s := &Source{
		Client: osvdev.OSVClient{
			HTTPClient:  http.DefaultClient,
			Config:      osvdev.DefaultConfig(),
			BaseHostURL: osvdev.DefaultBaseURL,
		},
		log: logrus.NewEntry(logrus.StandardLogger()),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Check implements source.Source.
func (s *Source) Check(ctx context.Context, lockFile string) (int, advisory.Result, error) {
	lock, err := lockfile.Open(lockFile)
	if err != nil {
		return 0, advisory.Result{}, err
	}

	var packages []lockfile.Package
	queries := make([]*osvdev.Query, 0, len(lock.Packages))
	for _, p := range lock.Packages {
		if p.Name == "" || p.Version == "" {
			continue
		}

		packages = append(packages, p)
		queries = append(queries, &osvdev.Query{
			Package: osvdev.Package{
				Name:      p.Name,
				Ecosystem: lockfile.Ecosystem,
			},
			Version: p.Version,
		})
	}

	if len(queries) == 0 {
		return 0, advisory.Result{}, nil
	}

	s.log.WithField("lockfile", lockFile).Debugf("querying osv.dev for %d packages", len(queries))

	batchResp, err := osvdevexperimental.BatchQueryPaging(ctx, &s.Client, queries)
	if err != nil {
		return 0, advisory.Result{}, err
	}

	if len(batchResp.Results) != len(queries) {
		return 0, advisory.Result{}, errors.New("osv.dev returned a different number of results than queries sent")
	}

	vulns, err := s.hydrate(ctx, batchResp)
	if err != nil {
		return 0, advisory.Result{}, err
	}

	var result advisory.Result
	for i, resp := range batchResp.Results {
		if len(resp.Vulns) == 0 {
			continue
		}

		advisories := make([]advisory.Advisory, 0, len(resp.Vulns))
		for _, v := range resp.Vulns {
			advisories = append(advisories, toAdvisory(v.ID, vulns[v.ID]))
		}

		result.Add(advisory.Package{
			Name:       packages[i].Name,
			Version:    packages[i].Version,
			Advisories: advisories,
			Dev:        packages[i].Dev,
		})
	}

	return result.Len(), result, nil
}

// hydrate fetches the full record of every distinct vulnerability in resp.
func (s *Source) hydrate(ctx context.Context, resp *osvdev.BatchedResponse) (map[string]*osvschema.Vulnerability, error) {
	var mu sync.Mutex
	vulns := map[string]*osvschema.Vulnerability{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRequests)

	seen := map[string]struct{}{}
	for _, r := range resp.Results {
		for _, v := range r.Vulns {
			if _, ok := seen[v.ID]; ok {
				continue
			}
			seen[v.ID] = struct{}{}

			g.Go(func() error {
				// exit early if another request has already failed
				if ctx.Err() != nil {
					return nil //nolint:nilerr // the first error is already recorded
				}

				vuln, err := s.Client.GetVulnByID(ctx, v.ID)
				if err != nil {
					return err
				}

				mu.Lock()
				vulns[v.ID] = vuln
				mu.Unlock()

				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return vulns, nil
}

func toAdvisory(id string, vuln *osvschema.Vulnerability) advisory.Advisory {
	adv := advisory.Advisory{
		ID:   id,
		Link: BaseVulnerabilityURL + id,
	}

	if strings.HasPrefix(id, "CVE-") {
		adv.CVE = id
	}

	if vuln == nil {
		return adv
	}

	adv.Title = vuln.Summary

	if adv.CVE == "" {
		for _, alias := range vuln.Aliases {
			if strings.HasPrefix(alias, "CVE-") {
				adv.CVE = alias
				break
			}
		}
	}

	return adv
}
