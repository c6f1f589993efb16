// Package ghsource ingests pull requests, reviews, issues, deployments and commits from GitHub.
package ghsource

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/go-github/v62/github"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const perPage = 100

// Options configures a Source.
type Options struct {
	Token       string
	BaseURL     string // Enterprise API root, e.g. https://ghe.example.com/api/v3/
	Repos       schema.Scope
	Workers     int
	RateLimit   float64 // requests per second shared by all workers
	CommitStats bool    // one extra request per commit
	Logger      *logrus.Logger
	HTTPClient  *http.Client // used as the oauth2 base transport
}

// Source fetches the records of several repositories in parallel behind one rate limiter.
type Source struct {
	client      *github.Client
	limiter     *rate.Limiter
	repos       schema.Scope
	workers     int
	commitStats bool
	logger      *logrus.Logger
}

var _ contract.Fetcher = &Source{} // Compile-time check

// New creates a Source from options.
func New(ctx context.Context, opts Options) (*Source, error) {
	for _, repo := range opts.Repos {
		if _, _, err := splitRepoID(repo); err != nil {
			return nil, err
		}
	}

	httpClient := opts.HTTPClient
	if opts.Token != "" {
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
	}
	client := github.NewClient(httpClient)

	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL %q: %w", opts.BaseURL, err)
		}
		client.BaseURL = u
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	limit := rate.Limit(opts.RateLimit)
	if opts.RateLimit <= 0 {
		limit = rate.Inf
	}
	logger := opts.Logger
	if logger == nil {
		logger = contract.Logger
	}

	return &Source{
		client:      client,
		limiter:     rate.NewLimiter(limit, 1),
		repos:       opts.Repos,
		workers:     workers,
		commitStats: opts.CommitStats,
		logger:      logger,
	}, nil
}

// splitRepoID splits "owner/name".
func splitRepoID(repoID string) (string, string, error) {
	owner, name, ok := strings.Cut(repoID, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repository %q. must be owner/name", repoID)
	}
	return owner, name, nil
}

// wait blocks until the shared limiter admits one request.
func (s *Source) wait(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// Fetch pulls every configured repository. The first failing repository cancels the rest.
func (s *Source) Fetch(ctx context.Context, window schema.TimeWindow) (schema.RecordBatch, error) {
	var (
		mu    sync.Mutex
		batch schema.RecordBatch
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, repo := range s.repos {
		g.Go(func() error {
			part, err := s.fetchRepo(ctx, repo, window)
			if err != nil {
				return fmt.Errorf("failed to fetch %s: %w", repo, err)
			}
			mu.Lock()
			defer mu.Unlock()
			batch.Commits = append(batch.Commits, part.Commits...)
			batch.PullRequests = append(batch.PullRequests, part.PullRequests...)
			batch.Reviews = append(batch.Reviews, part.Reviews...)
			batch.Issues = append(batch.Issues, part.Issues...)
			batch.Deployments = append(batch.Deployments, part.Deployments...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return schema.RecordBatch{}, err
	}
	return batch, nil
}

func (s *Source) fetchRepo(ctx context.Context, repoID string, window schema.TimeWindow) (schema.RecordBatch, error) {
	owner, name, err := splitRepoID(repoID)
	if err != nil {
		return schema.RecordBatch{}, err
	}
	log := s.logger.WithField("repo", repoID)

	var batch schema.RecordBatch
	if batch.Commits, err = s.fetchCommits(ctx, owner, name, window); err != nil {
		return batch, err
	}
	if batch.PullRequests, err = s.fetchPullRequests(ctx, owner, name, window); err != nil {
		return batch, err
	}
	for _, pr := range batch.PullRequests {
		reviews, err := s.fetchReviews(ctx, owner, name, pr.Number)
		if err != nil {
			return batch, err
		}
		batch.Reviews = append(batch.Reviews, reviews...)
	}
	if batch.Issues, err = s.fetchIssues(ctx, owner, name, window); err != nil {
		return batch, err
	}
	if batch.Deployments, err = s.fetchDeployments(ctx, owner, name, window); err != nil {
		return batch, err
	}

	log.WithFields(logrus.Fields{
		"commits":     len(batch.Commits),
		"pulls":       len(batch.PullRequests),
		"reviews":     len(batch.Reviews),
		"issues":      len(batch.Issues),
		"deployments": len(batch.Deployments),
	}).Info("Fetched repository")
	return batch, nil
}
