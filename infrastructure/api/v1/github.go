package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/helixml/patchlog"
	"github.com/helixml/patchlog/infrastructure/api/middleware"
	"github.com/helixml/patchlog/infrastructure/api/v1/dto"
	"github.com/helixml/patchlog/infrastructure/github"
)

// GitHubTokenHeader carries a per-request GitHub token. Without it the
// server's default token is used.
const GitHubTokenHeader = "X-GitHub-Token"

// GitHubRouter proxies read-only GitHub calls used to prefill records.
type GitHubRouter struct {
	client *patchlog.Client
	logger *slog.Logger
}

// NewGitHubRouter creates a new GitHubRouter.
func NewGitHubRouter(client *patchlog.Client) *GitHubRouter {
	return &GitHubRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for GitHub endpoints.
func (r *GitHubRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/repos", r.ListRepos)
	router.Get("/repos/{owner}/{repo}/branches", r.ListBranches)
	router.Get("/repos/{owner}/{repo}/commits", r.ListCommits)
	router.Get("/repos/{owner}/{repo}/commits/{sha}/diff", r.CommitDiff)

	return router
}

// ListRepos handles GET /api/v1/github/repos.
//
//	@Summary		List repositories
//	@Tags			github
//	@Produce		json
//	@Param			X-GitHub-Token	header	string	false	"GitHub token"
//	@Success		200	{array}		dto.GitHubRepoResponse
//	@Failure		401	{object}	middleware.ErrorResponse
//	@Security		APIKeyAuth
//	@Router			/github/repos [get]
func (r *GitHubRouter) ListRepos(w http.ResponseWriter, req *http.Request) {
	gh, ok := r.githubClient(w, req)
	if !ok {
		return
	}

	repos, err := gh.ListRepos(req.Context())
	if err != nil {
		r.writeGitHubError(w, req, err)
		return
	}

	out := make([]dto.GitHubRepoResponse, 0, len(repos))
	for _, repo := range repos {
		out = append(out, dto.GitHubRepoResponse{
			ID:            repo.ID,
			Name:          repo.Name,
			FullName:      repo.FullName,
			Owner:         repo.Owner,
			DefaultBranch: repo.DefaultBranch,
			Private:       repo.Private,
		})
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

// ListBranches handles GET /api/v1/github/repos/{owner}/{repo}/branches.
//
//	@Summary		List branches
//	@Tags			github
//	@Produce		json
//	@Param			owner	path	string	true	"Repository owner"
//	@Param			repo	path	string	true	"Repository name"
//	@Success		200	{array}		dto.GitHubBranchResponse
//	@Failure		401	{object}	middleware.ErrorResponse
//	@Security		APIKeyAuth
//	@Router			/github/repos/{owner}/{repo}/branches [get]
func (r *GitHubRouter) ListBranches(w http.ResponseWriter, req *http.Request) {
	gh, ok := r.githubClient(w, req)
	if !ok {
		return
	}

	branches, err := gh.ListBranches(req.Context(), chi.URLParam(req, "owner"), chi.URLParam(req, "repo"))
	if err != nil {
		r.writeGitHubError(w, req, err)
		return
	}

	out := make([]dto.GitHubBranchResponse, 0, len(branches))
	for _, b := range branches {
		out = append(out, dto.GitHubBranchResponse{Name: b.Name, SHA: b.SHA})
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

// ListCommits handles GET /api/v1/github/repos/{owner}/{repo}/commits.
//
//	@Summary		List recent commits
//	@Tags			github
//	@Produce		json
//	@Param			owner	path	string	true	"Repository owner"
//	@Param			repo	path	string	true	"Repository name"
//	@Param			branch	query	string	false	"Branch (default branch when empty)"
//	@Success		200	{array}		dto.GitHubCommitResponse
//	@Failure		401	{object}	middleware.ErrorResponse
//	@Security		APIKeyAuth
//	@Router			/github/repos/{owner}/{repo}/commits [get]
func (r *GitHubRouter) ListCommits(w http.ResponseWriter, req *http.Request) {
	gh, ok := r.githubClient(w, req)
	if !ok {
		return
	}

	commits, err := gh.ListCommits(req.Context(), chi.URLParam(req, "owner"), chi.URLParam(req, "repo"), req.URL.Query().Get("branch"))
	if err != nil {
		r.writeGitHubError(w, req, err)
		return
	}

	out := make([]dto.GitHubCommitResponse, 0, len(commits))
	for _, c := range commits {
		out = append(out, dto.GitHubCommitResponse{
			SHA:     c.SHA,
			Message: c.Message,
			Author:  c.Author,
			Date:    c.Date,
			URL:     c.URL,
		})
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

// CommitDiff handles GET /api/v1/github/repos/{owner}/{repo}/commits/{sha}/diff.
//
//	@Summary		Commit diff
//	@Description	Fetch a commit's unified diff with derived statistics
//	@Tags			github
//	@Produce		json
//	@Param			owner	path	string	true	"Repository owner"
//	@Param			repo	path	string	true	"Repository name"
//	@Param			sha		path	string	true	"Commit SHA"
//	@Success		200	{object}	dto.GitHubDiffResponse
//	@Failure		401	{object}	middleware.ErrorResponse
//	@Failure		404	{object}	middleware.ErrorResponse
//	@Security		APIKeyAuth
//	@Router			/github/repos/{owner}/{repo}/commits/{sha}/diff [get]
func (r *GitHubRouter) CommitDiff(w http.ResponseWriter, req *http.Request) {
	gh, ok := r.githubClient(w, req)
	if !ok {
		return
	}

	sha := chi.URLParam(req, "sha")
	result, err := r.client.Importer.CommitStats(req.Context(), gh, chi.URLParam(req, "owner"), chi.URLParam(req, "repo"), sha)
	if err != nil {
		r.writeGitHubError(w, req, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.GitHubDiffResponse{
		SHA:          sha,
		Diff:         result.Diff,
		FilesChanged: result.Stats.FilesChanged,
		LinesAdded:   result.Stats.LinesAdded,
		LinesRemoved: result.Stats.LinesRemoved,
		FileNames:    result.FileNames,
	})
}

func (r *GitHubRouter) githubClient(w http.ResponseWriter, req *http.Request) (*github.Client, bool) {
	gh, err := r.client.GitHub.Client(req.Header.Get(GitHubTokenHeader))
	if err != nil {
		if errors.Is(err, github.ErrNoToken) {
			err = middleware.NewAuthenticationError(err.Error())
		}
		middleware.WriteError(w, req, err, r.logger)
		return nil, false
	}
	return gh, true
}

// writeGitHubError passes GitHub's client-error statuses through and maps
// everything else to a bad gateway.
func (r *GitHubRouter) writeGitHubError(w http.ResponseWriter, req *http.Request, err error) {
	status := github.StatusCode(err)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusTooManyRequests:
	default:
		status = http.StatusBadGateway
	}
	middleware.WriteError(w, req, middleware.NewAPIError(status, "GitHub request failed", err), r.logger)
}
