package ghsource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/huangsam/gitpulse/schema"
)

func repoKey(owner, name string) string { return owner + "/" + name }

// timePtr converts an optional GitHub timestamp.
func timePtr(ts *github.Timestamp) *time.Time {
	if ts == nil || ts.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}

func (s *Source) fetchCommits(ctx context.Context, owner, name string, window schema.TimeWindow) ([]schema.RawCommit, error) {
	opts := &github.CommitsListOptions{
		Since:       window.Start,
		Until:       window.End,
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var out []schema.RawCommit
	for {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		commits, resp, err := s.client.Repositories.ListCommits(ctx, owner, name, opts)
		if err != nil {
			return nil, fmt.Errorf("fetch commits: %w", err)
		}

		for _, c := range commits {
			rc := mapCommit(repoKey(owner, name), c)
			if s.commitStats {
				if err := s.wait(ctx); err != nil {
					return nil, err
				}
				full, _, err := s.client.Repositories.GetCommit(ctx, owner, name, c.GetSHA(), nil)
				if err != nil {
					return nil, fmt.Errorf("fetch commit %s: %w", c.GetSHA(), err)
				}
				rc.Additions = full.GetStats().GetAdditions()
				rc.Deletions = full.GetStats().GetDeletions()
				rc.FilesChanged = len(full.Files)
			}
			out = append(out, rc)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// mapCommit uses the git author, not the GitHub account, so identity resolution sees name and email.
func mapCommit(repoID string, c *github.RepositoryCommit) schema.RawCommit {
	author := c.GetCommit().GetAuthor()
	return schema.RawCommit{
		SHA:          c.GetSHA(),
		RepoID:       repoID,
		AuthorName:   author.GetName(),
		AuthorEmail:  author.GetEmail(),
		Message:      firstLine(c.GetCommit().GetMessage()),
		Timestamp:    author.GetDate().Time,
		Additions:    c.GetStats().GetAdditions(),
		Deletions:    c.GetStats().GetDeletions(),
		FilesChanged: len(c.Files),
	}
}

func firstLine(msg string) string {
	line, _, _ := strings.Cut(msg, "\n")
	return strings.TrimSpace(line)
}

// fetchPullRequests returns every open pull request plus closed ones updated inside the window.
func (s *Source) fetchPullRequests(ctx context.Context, owner, name string, window schema.TimeWindow) ([]schema.RawPullRequest, error) {
	var out []schema.RawPullRequest
	for _, state := range []string{"open", "closed"} {
		opts := &github.PullRequestListOptions{
			State:       state,
			Sort:        "updated",
			Direction:   "desc",
			ListOptions: github.ListOptions{PerPage: perPage},
		}
	pages:
		for {
			if err := s.wait(ctx); err != nil {
				return nil, err
			}
			prs, resp, err := s.client.PullRequests.List(ctx, owner, name, opts)
			if err != nil {
				return nil, fmt.Errorf("fetch pull requests: %w", err)
			}
			for _, pr := range prs {
				mapped := mapPullRequest(repoKey(owner, name), pr)
				if !window.End.IsZero() && !mapped.CreatedAt.Before(window.End) {
					continue
				}
				if state == "closed" && !window.Start.IsZero() && mapped.UpdatedAt.Before(window.Start) {
					break pages // sorted by update time, the rest is older
				}
				out = append(out, mapped)
			}
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
	}
	return out, nil
}

func mapPullRequest(repoID string, pr *github.PullRequest) schema.RawPullRequest {
	state := schema.PRState(pr.GetState())
	if pr.MergedAt != nil {
		state = schema.PRMerged
	}
	return schema.RawPullRequest{
		RepoID:    repoID,
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Author:    pr.GetUser().GetLogin(),
		State:     state,
		URL:       pr.GetHTMLURL(),
		CreatedAt: pr.GetCreatedAt().Time,
		UpdatedAt: pr.GetUpdatedAt().Time,
		MergedAt:  timePtr(pr.MergedAt),
		ClosedAt:  timePtr(pr.ClosedAt),
	}
}

// reviewStates maps the API's upper-case verdicts. Pending reviews are not submitted and are dropped.
var reviewStates = map[string]schema.ReviewState{
	"APPROVED":          schema.ReviewApproved,
	"CHANGES_REQUESTED": schema.ReviewChangesRequested,
	"COMMENTED":         schema.ReviewCommented,
	"DISMISSED":         schema.ReviewDismissed,
}

func (s *Source) fetchReviews(ctx context.Context, owner, name string, number int) ([]schema.RawReview, error) {
	opts := &github.ListOptions{PerPage: perPage}
	var out []schema.RawReview
	for {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		reviews, resp, err := s.client.PullRequests.ListReviews(ctx, owner, name, number, opts)
		if err != nil {
			return nil, fmt.Errorf("fetch reviews of #%d: %w", number, err)
		}
		for _, r := range reviews {
			state, ok := reviewStates[strings.ToUpper(r.GetState())]
			if !ok || r.SubmittedAt == nil {
				continue
			}
			out = append(out, schema.RawReview{
				RepoID:      repoKey(owner, name),
				PRNumber:    number,
				ReviewID:    r.GetID(),
				Reviewer:    r.GetUser().GetLogin(),
				State:       state,
				SubmittedAt: r.GetSubmittedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// fetchIssues lists issues updated since the window start. The issues endpoint also returns
// pull requests, which are skipped.
func (s *Source) fetchIssues(ctx context.Context, owner, name string, window schema.TimeWindow) ([]schema.RawIssue, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		Since:       window.Start,
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	var out []schema.RawIssue
	for {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		issues, resp, err := s.client.Issues.ListByRepo(ctx, owner, name, opts)
		if err != nil {
			return nil, fmt.Errorf("fetch issues: %w", err)
		}
		for _, is := range issues {
			if is.IsPullRequest() {
				continue
			}
			labels := make([]string, 0, len(is.Labels))
			for _, l := range is.Labels {
				labels = append(labels, l.GetName())
			}
			out = append(out, schema.RawIssue{
				RepoID:    repoKey(owner, name),
				Number:    is.GetNumber(),
				Title:     is.GetTitle(),
				Labels:    labels,
				State:     is.GetState(),
				CreatedAt: is.GetCreatedAt().Time,
				ClosedAt:  timePtr(is.ClosedAt),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// fetchDeployments lists deployments newest first until they predate the window,
// and tags each with its latest status.
func (s *Source) fetchDeployments(ctx context.Context, owner, name string, window schema.TimeWindow) ([]schema.RawDeployment, error) {
	opts := &github.DeploymentsListOptions{ListOptions: github.ListOptions{PerPage: perPage}}
	var out []schema.RawDeployment
	for {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		deployments, resp, err := s.client.Repositories.ListDeployments(ctx, owner, name, opts)
		if err != nil {
			return nil, fmt.Errorf("fetch deployments: %w", err)
		}
		for _, d := range deployments {
			created := d.GetCreatedAt().Time
			if !window.Start.IsZero() && created.Before(window.Start) {
				return out, nil
			}
			if !window.End.IsZero() && !created.Before(window.End) {
				continue
			}
			status, err := s.latestDeploymentStatus(ctx, owner, name, d.GetID())
			if err != nil {
				return nil, err
			}
			out = append(out, schema.RawDeployment{
				RepoID:      repoKey(owner, name),
				ID:          d.GetID(),
				Environment: d.GetEnvironment(),
				Status:      status,
				CreatedAt:   created,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// latestDeploymentStatus returns the newest status state, or "pending" when none was reported.
func (s *Source) latestDeploymentStatus(ctx context.Context, owner, name string, id int64) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	statuses, _, err := s.client.Repositories.ListDeploymentStatuses(ctx, owner, name, id, &github.ListOptions{PerPage: 1})
	if err != nil {
		return "", fmt.Errorf("fetch deployment %d statuses: %w", id, err)
	}
	if len(statuses) == 0 {
		return "pending", nil
	}
	return statuses[0].GetState(), nil
}
