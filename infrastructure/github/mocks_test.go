package github

import (
	"context"

	"github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/mock"
)

type MockRepoService struct {
	mock.Mock
}

func (m *MockRepoService) ListByAuthenticatedUser(ctx context.Context, opts *github.RepositoryListByAuthenticatedUserOptions) ([]*github.Repository, *github.Response, error) {
	args := m.Called(ctx, opts)
	repos, _ := args.Get(0).([]*github.Repository)
	return repos, nil, args.Error(1)
}

func (m *MockRepoService) ListBranches(ctx context.Context, owner, repo string, opts *github.BranchListOptions) ([]*github.Branch, *github.Response, error) {
	args := m.Called(ctx, owner, repo, opts)
	branches, _ := args.Get(0).([]*github.Branch)
	return branches, nil, args.Error(1)
}

func (m *MockRepoService) ListCommits(ctx context.Context, owner, repo string, opts *github.CommitsListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
	args := m.Called(ctx, owner, repo, opts)
	commits, _ := args.Get(0).([]*github.RepositoryCommit)
	return commits, nil, args.Error(1)
}

func (m *MockRepoService) GetCommitRaw(ctx context.Context, owner, repo, sha string, opts github.RawOptions) (string, *github.Response, error) {
	args := m.Called(ctx, owner, repo, sha, opts)
	return args.String(0), nil, args.Error(1)
}
