// Package github reads repositories, branches, commits and commit diffs from
// the GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

// Listing sizes used against the GitHub API.
const (
	RepoPageSize   = 100
	CommitPageSize = 20
)

// ErrNoToken indicates no access token was supplied or configured.
var ErrNoToken = errors.New("github token required")

// RepositoriesService is the subset of the go-github repositories API the
// client uses.
type RepositoriesService interface {
	ListByAuthenticatedUser(ctx context.Context, opts *github.RepositoryListByAuthenticatedUserOptions) ([]*github.Repository, *github.Response, error)
	ListBranches(ctx context.Context, owner, repo string, opts *github.BranchListOptions) ([]*github.Branch, *github.Response, error)
	ListCommits(ctx context.Context, owner, repo string, opts *github.CommitsListOptions) ([]*github.RepositoryCommit, *github.Response, error)
	GetCommitRaw(ctx context.Context, owner, repo, sha string, opts github.RawOptions) (string, *github.Response, error)
}

// Repo is a repository visible to the token owner.
type Repo struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"fullName"`
	Owner         string `json:"owner"`
	DefaultBranch string `json:"defaultBranch"`
	Private       bool   `json:"private"`
}

// Branch is a named branch and its head commit.
type Branch struct {
	Name string `json:"name"`
	SHA  string `json:"sha"`
}

// Commit is a commit summary on a branch.
type Commit struct {
	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	URL     string    `json:"url"`
}

// Client reads from GitHub on behalf of one token.
type Client struct {
	repos  RepositoriesService
	logger *slog.Logger
}

// NewClient creates a Client authenticated with token. baseURL points at a
// GitHub Enterprise API and may be empty.
func NewClient(token, baseURL string, logger *slog.Logger) (*Client, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	gc := github.NewClient(oauth2.NewClient(context.Background(), ts))
	if baseURL != "" {
		var err error
		gc, err = gc.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("github base url: %w", err)
		}
	}

	return NewClientWithService(gc.Repositories, logger), nil
}

// NewClientWithService creates a Client over an existing repositories service.
func NewClientWithService(repos RepositoriesService, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{repos: repos, logger: logger}
}

// ListRepos returns the token owner's repositories, most recently updated first.
func (c *Client) ListRepos(ctx context.Context) ([]Repo, error) {
	repos, _, err := c.repos.ListByAuthenticatedUser(ctx, &github.RepositoryListByAuthenticatedUserOptions{
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: RepoPageSize},
	})
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}

	result := make([]Repo, 0, len(repos))
	for _, r := range repos {
		result = append(result, Repo{
			ID:            r.GetID(),
			Name:          r.GetName(),
			FullName:      r.GetFullName(),
			Owner:         r.GetOwner().GetLogin(),
			DefaultBranch: r.GetDefaultBranch(),
			Private:       r.GetPrivate(),
		})
	}
	return result, nil
}

// ListBranches returns the branches of owner/repo.
func (c *Client) ListBranches(ctx context.Context, owner, repo string) ([]Branch, error) {
	branches, _, err := c.repos.ListBranches(ctx, owner, repo, nil)
	if err != nil {
		return nil, fmt.Errorf("list branches of %s/%s: %w", owner, repo, err)
	}

	result := make([]Branch, 0, len(branches))
	for _, b := range branches {
		result = append(result, Branch{
			Name: b.GetName(),
			SHA:  b.GetCommit().GetSHA(),
		})
	}
	return result, nil
}

// ListCommits returns the most recent commits reachable from branch.
func (c *Client) ListCommits(ctx context.Context, owner, repo, branch string) ([]Commit, error) {
	commits, _, err := c.repos.ListCommits(ctx, owner, repo, &github.CommitsListOptions{
		SHA:         branch,
		ListOptions: github.ListOptions{PerPage: CommitPageSize},
	})
	if err != nil {
		return nil, fmt.Errorf("list commits of %s/%s@%s: %w", owner, repo, branch, err)
	}

	result := make([]Commit, 0, len(commits))
	for _, rc := range commits {
		author := rc.GetCommit().GetAuthor()
		result = append(result, Commit{
			SHA:     rc.GetSHA(),
			Message: rc.GetCommit().GetMessage(),
			Author:  author.GetName(),
			Date:    author.GetDate().Time,
			URL:     rc.GetHTMLURL(),
		})
	}
	return result, nil
}

// CommitDiff returns the unified diff of a single commit.
func (c *Client) CommitDiff(ctx context.Context, owner, repo, sha string) (string, error) {
	diff, _, err := c.repos.GetCommitRaw(ctx, owner, repo, sha, github.RawOptions{Type: github.Diff})
	if err != nil {
		return "", fmt.Errorf("get diff of %s/%s@%s: %w", owner, repo, sha, err)
	}
	c.logger.DebugContext(ctx, "fetched commit diff",
		slog.String("repo", owner+"/"+repo),
		slog.String("sha", sha),
		slog.Int("bytes", len(diff)),
	)
	return diff, nil
}

// StatusCode extracts the HTTP status GitHub answered with, or 0 when err did
// not come from a GitHub response.
func StatusCode(err error) int {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return http.StatusTooManyRequests
	}
	return 0
}

// Factory builds Clients for per-request tokens, falling back to a
// configured default token.
type Factory struct {
	defaultToken string
	baseURL      string
	logger       *slog.Logger
}

// NewFactory creates a Factory.
func NewFactory(defaultToken, baseURL string, logger *slog.Logger) Factory {
	return Factory{defaultToken: defaultToken, baseURL: baseURL, logger: logger}
}

// Client returns a Client for token, or for the default token when token is
// blank. ErrNoToken is returned when neither is set.
func (f Factory) Client(token string) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		token = f.defaultToken
	}
	return NewClient(token, f.baseURL, f.logger)
}
