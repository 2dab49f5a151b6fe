// Package repoinfo gathers the descriptive context a report needs from a
// checked-out repository: README, policy documents, dependency manifests,
// and documentation files.
package repoinfo

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/auditpipe/auditpipe/api/schemas"
)

// readmeCandidates are checked in order; the first readable one wins.
var readmeCandidates = []string{"README.md", "readme.md", "README.MD", "Readme.md"}

// rootPolicyFiles are well-known policy documents looked up in the repo root
// in addition to anything under a policies/ directory.
var rootPolicyFiles = []string{
	"SECURITY.md", "security.md",
	"PRIVACY.md", "privacy.md",
	"COMPLIANCE.md", "compliance.md",
	"CODE_OF_CONDUCT.md",
}

// dependencyManifests maps each supported language to its manifest files.
var dependencyManifests = map[string][]string{
	"python":     {"requirements.txt", "Pipfile", "pyproject.toml", "setup.py"},
	"javascript": {"package.json", "package-lock.json", "yarn.lock"},
	"java":       {"pom.xml", "build.gradle", "gradle.lockfile"},
	"ruby":       {"Gemfile", "Gemfile.lock"},
	"php":        {"composer.json", "composer.lock"},
	"go":         {"go.mod", "go.sum"},
	"rust":       {"Cargo.toml", "Cargo.lock"},
	"dotnet":     {"packages.config"},
}

// docsDirNames are directory names scanned recursively for documentation.
var docsDirNames = []string{"docs", "documentation", "doc"}

// Extractor implements schemas.RepositoryInfoExtractor against the local
// filesystem. Unreadable files are logged and skipped, never fatal.
type Extractor struct {
	log *zap.Logger
}

var _ schemas.RepositoryInfoExtractor = (*Extractor)(nil)

// NewExtractor creates a filesystem-backed extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{log: logger.Named("repoinfo")}
}

// Extract runs the four extraction passes concurrently and assembles the
// RepositoryInfo. The only error it can return is context cancellation.
func (e *Extractor) Extract(ctx context.Context, repoPath string) (schemas.RepositoryInfo, error) {
	var info schemas.RepositoryInfo

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		info.Readme = e.extractReadme(repoPath)
		return ctx.Err()
	})
	g.Go(func() error {
		info.Policies = e.extractPolicies(repoPath)
		return ctx.Err()
	})
	g.Go(func() error {
		info.Dependencies = e.extractDependencies(repoPath)
		return ctx.Err()
	})
	g.Go(func() error {
		info.Documentation = e.extractDocumentation(repoPath)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return schemas.RepositoryInfo{}, err
	}

	e.log.Info("Repository context extracted",
		zap.String("repo", repoPath),
		zap.Bool("readme", info.Readme != ""),
		zap.Int("policies", len(info.Policies)),
		zap.Int("dependency_files", len(info.Dependencies)),
		zap.Int("documentation_files", len(info.Documentation)),
	)
	return info, nil
}

func (e *Extractor) extractReadme(repoPath string) string {
	for _, name := range readmeCandidates {
		content, err := os.ReadFile(filepath.Join(repoPath, name))
		if err == nil {
			return string(content)
		}
		if !os.IsNotExist(err) {
			e.log.Warn("Error reading README candidate", zap.String("file", name), zap.Error(err))
		}
	}
	return ""
}

func (e *Extractor) extractPolicies(repoPath string) map[string]string {
	policies := make(map[string]string)

	policyDir := filepath.Join(repoPath, "policies")
	if entries, err := os.ReadDir(policyDir); err == nil {
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}
			e.readInto(policies, entry.Name(), filepath.Join(policyDir, entry.Name()))
		}
	}

	for _, name := range rootPolicyFiles {
		e.readInto(policies, name, filepath.Join(repoPath, name))
	}

	if len(policies) == 0 {
		return nil
	}
	return policies
}

func (e *Extractor) extractDependencies(repoPath string) map[string]schemas.DependencyFile {
	deps := make(map[string]schemas.DependencyFile)
	for language, files := range dependencyManifests {
		for _, name := range files {
			content, err := os.ReadFile(filepath.Join(repoPath, name))
			if err != nil {
				if !os.IsNotExist(err) {
					e.log.Warn("Error reading dependency manifest", zap.String("file", name), zap.Error(err))
				}
				continue
			}
			deps[name] = schemas.DependencyFile{Language: language, Content: string(content)}
		}
	}
	if len(deps) == 0 {
		return nil
	}
	return deps
}

func (e *Extractor) extractDocumentation(repoPath string) map[string]string {
	docs := make(map[string]string)
	for _, dirName := range docsDirNames {
		docsPath := filepath.Join(repoPath, dirName)
		stat, err := os.Stat(docsPath)
		if err != nil || !stat.IsDir() {
			continue
		}

		_ = filepath.WalkDir(docsPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil // skip unreadable entries, keep walking
			}
			switch filepath.Ext(d.Name()) {
			case ".md", ".txt", ".rst":
				rel, relErr := filepath.Rel(repoPath, path)
				if relErr != nil {
					return nil
				}
				e.readInto(docs, filepath.ToSlash(rel), path)
			}
			return nil
		})
	}
	if len(docs) == 0 {
		return nil
	}
	return docs
}

// readInto reads path into dest[key], logging and skipping on failure.
func (e *Extractor) readInto(dest map[string]string, key, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			e.log.Warn("Error reading repository file", zap.String("path", path), zap.Error(err))
		}
		return
	}
	dest[key] = string(content)
}
