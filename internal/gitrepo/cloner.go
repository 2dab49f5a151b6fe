// Package gitrepo fetches remote repositories into the local pulled-code
// area for analysis.
package gitrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"go.uber.org/zap"

	"github.com/auditpipe/auditpipe/api/schemas"
)

const pulledSubdir = "pulled_code"

// Cloner implements schemas.RepositoryProvider with go-git.
type Cloner struct {
	baseDir string
	log     *zap.Logger
}

var _ schemas.RepositoryProvider = (*Cloner)(nil)

// NewCloner returns a Cloner that checks repositories out under
// <dataDir>/pulled_code/.
func NewCloner(dataDir string, logger *zap.Logger) *Cloner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cloner{
		baseDir: filepath.Join(dataDir, pulledSubdir),
		log:     logger.Named("cloner"),
	}
}

// Clone checks out url into a directory named after the repository,
// replacing any previous checkout of the same name. A shallow clone is
// enough: analysis never needs history.
func (c *Cloner) Clone(ctx context.Context, url string) (string, error) {
	name := repoName(url)
	if name == "" {
		return "", &schemas.ValidationError{Field: "github_url", Reason: fmt.Sprintf("cannot derive repository name from %q", url)}
	}

	clonePath := filepath.Join(c.baseDir, name)
	if err := os.RemoveAll(clonePath); err != nil {
		return "", fmt.Errorf("failed to clear previous checkout %s: %w", clonePath, err)
	}
	if err := os.MkdirAll(c.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create pulled-code directory: %w", err)
	}

	c.log.Info("Cloning repository", zap.String("url", url), zap.String("path", clonePath))

	_, err := git.PlainCloneContext(ctx, clonePath, false, &git.CloneOptions{
		URL:   url,
		Depth: 1,
	})
	if err != nil {
		// Leave no partial checkout behind.
		os.RemoveAll(clonePath)
		return "", &schemas.ExternalServiceError{Service: "repository clone", Err: err}
	}

	return clonePath, nil
}

// repoName derives the checkout directory name from a repository URL.
func repoName(url string) string {
	trimmed := strings.TrimSuffix(strings.TrimRight(strings.TrimSpace(url), "/"), ".git")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 || idx == len(trimmed)-1 {
		return ""
	}
	name := trimmed[idx+1:]
	if name == "" || strings.ContainsAny(name, `\:`) {
		return ""
	}
	return name
}
