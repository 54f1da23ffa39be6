package ports

import (
	"context"
)

// GitInfo holds the repository context captured when a task is completed.
type GitInfo struct {
	Branch     string
	Commit     string
	CommitMsg  string
	Repository string
	IsClean    bool
}

// ShortCommit returns the abbreviated commit hash.
func (g *GitInfo) ShortCommit() string {
	if len(g.Commit) > 7 {
		return g.Commit[:7]
	}
	return g.Commit
}

// GitDetector defines the interface for git context detection.
// This is a driven port (implemented by adapters).
type GitDetector interface {
	// Detect scans workingDir and its parents for a repository.
	Detect(ctx context.Context, workingDir string) (*GitInfo, error)

	// IsAvailable reports whether the working directory is inside a repository.
	IsAvailable() bool
}
