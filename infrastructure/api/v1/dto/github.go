package dto

import "time"

// GitHubRepoResponse represents a repository visible to the token.
type GitHubRepoResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"fullName"`
	Owner         string `json:"owner"`
	DefaultBranch string `json:"defaultBranch"`
	Private       bool   `json:"private"`
}

// GitHubBranchResponse represents a branch head.
type GitHubBranchResponse struct {
	Name string `json:"name"`
	SHA  string `json:"sha"`
}

// GitHubCommitResponse represents a commit on a branch.
type GitHubCommitResponse struct {
	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	URL     string    `json:"url"`
}

// GitHubDiffResponse is a commit diff with derived statistics.
type GitHubDiffResponse struct {
	SHA          string   `json:"sha"`
	Diff         string   `json:"diff"`
	FilesChanged int      `json:"filesChanged"`
	LinesAdded   int      `json:"linesAdded"`
	LinesRemoved int      `json:"linesRemoved"`
	FileNames    []string `json:"fileNames"`
}
