// Package vcs wraps go-git with the few repository operations the release
// pipeline needs: working-tree cleanliness, the current commit id, and
// staging plus committing the version bump.
package vcs

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
)

// ShortHashLen is the abbreviated commit id length embedded in released
// binaries and reported in logs.
const ShortHashLen = 7

// Repo provides release-oriented access to a git working tree.
type Repo struct {
	repo     *git.Repository
	worktree *git.Worktree
}

// Open opens the repository containing dir, walking up to the enclosing
// .git directory the way the git CLI does.
func Open(dir string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository at %q: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("repository worktree: %w", err)
	}
	return &Repo{repo: repo, worktree: wt}, nil
}

// IsClean reports whether the working tree has no staged, unstaged or
// untracked changes.
func (r *Repo) IsClean(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	status, err := r.worktree.Status()
	if err != nil {
		return false, fmt.Errorf("worktree status: %w", err)
	}
	return status.IsClean(), nil
}

// ShortCommit returns the abbreviated hash of HEAD.
func (r *Repo) ShortCommit(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return head.Hash().String()[:ShortHashLen], nil
}

// Stage adds path, relative to the worktree root, to the index.
func (r *Repo) Stage(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := r.worktree.Add(path); err != nil {
		return fmt.Errorf("stage %q: %w", path, err)
	}
	return nil
}

// Commit records the staged changes under message and returns the new
// commit's abbreviated hash. Author identity comes from git configuration,
// matching what a git commit run by the operator would record.
func (r *Repo) Commit(ctx context.Context, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	hash, err := r.worktree.Commit(message, &git.CommitOptions{})
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return hash.String()[:ShortHashLen], nil
}
