// Package release implements the lrc version-and-artifact pipeline:
// version bookkeeping in the project source, cross-compiling the fixed
// platform matrix with checksum manifests, and publishing the results to
// the object storage backend. The compiler toolchain, the version-control
// system and the operator prompts stay outside the package, behind the
// Compiler, Repository and Attestor boundaries and the coordinator's
// choose/confirm callbacks.
package release

import "context"

// Repository is the version-control oracle the pipeline consults: tree
// cleanliness and the current revision for builds, staging and committing
// for version bumps.
type Repository interface {
	// IsClean reports whether the tree has no staged, unstaged or
	// untracked changes.
	IsClean(ctx context.Context) (bool, error)

	// ShortCommit returns the abbreviated hash of the current revision.
	ShortCommit(ctx context.Context) (string, error)

	// Stage adds path, relative to the repository root, to the index.
	Stage(ctx context.Context, path string) error

	// Commit records the staged changes and returns the new revision's
	// abbreviated hash.
	Commit(ctx context.Context, message string) (string, error)
}

// EachFunc drives a batch of ordered, independent steps. Builds and
// uploads run their per-target and per-file loops through one of these,
// so a parallel or collect-all-failures variant can be substituted
// without touching the sequencing call sites. Substituting one changes
// the abort contract and has to be a deliberate choice.
type EachFunc func(n int, step func(i int) error) error

// FailFast runs steps one at a time in order and stops at the first
// failure. It is the default policy everywhere: a failed compile or
// upload aborts the remaining queue.
func FailFast(n int, step func(i int) error) error {
	for i := 0; i < n; i++ {
		if err := step(i); err != nil {
			return err
		}
	}
	return nil
}
