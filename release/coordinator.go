package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lrcship/pkg/semver"
)

// ChooseFunc resolves which version component a bump increments. The
// terminal prompt lives in the CLI boundary; the coordinator only sees
// the resolved kind.
type ChooseFunc func(current semver.Version) (semver.BumpKind, error)

// ConfirmFunc reports whether the operator accepted the pending bump.
// Declining is not an error: the bump ends with ErrAborted and nothing
// has been modified.
type ConfirmFunc func(current, next semver.Version) (bool, error)

// CoordinatorConfig wires a Coordinator. Repo and Source are always
// required; Builder, Uploader and Attestor only by the operations that
// use them.
type CoordinatorConfig struct {
	Repo   Repository
	Source *VersionSource

	// Builder runs the cross-platform build for Build and Release.
	Builder *Builder

	// Uploader publishes artifacts for Release.
	Uploader *Uploader

	// Attestor records the review attestation during Bump.
	Attestor Attestor

	// VersionFile is the path staged in the bump commit, relative to the
	// repository root.
	VersionFile string

	// RunID tags every log line of one invocation. Defaults to a fresh
	// UUID.
	RunID string

	// Stdout receives operator-facing progress lines. Defaults to
	// os.Stdout.
	Stdout io.Writer

	Logger zerolog.Logger
}

// Coordinator sequences the three release operations. Each is a straight
// fail-fast sequence: no step is retried, and a failure after the version
// file has been rewritten deliberately leaves the working tree modified
// and uncommitted for the operator to inspect.
type Coordinator struct {
	repo        Repository
	source      *VersionSource
	builder     *Builder
	uploader    *Uploader
	attestor    Attestor
	versionFile string
	stdout      io.Writer
	log         zerolog.Logger
}

// NewCoordinator validates cfg, applies defaults and returns a Coordinator.
func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if cfg.Repo == nil {
		return nil, errors.New("repository is required")
	}
	if cfg.Source == nil {
		return nil, errors.New("version source is required")
	}
	if cfg.VersionFile == "" {
		return nil, errors.New("version file is required")
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	return &Coordinator{
		repo:        cfg.Repo,
		source:      cfg.Source,
		builder:     cfg.Builder,
		uploader:    cfg.Uploader,
		attestor:    cfg.Attestor,
		versionFile: cfg.VersionFile,
		stdout:      cfg.Stdout,
		log:         cfg.Logger.With().Str("run_id", cfg.RunID).Logger(),
	}, nil
}

// Build checks the tree, reads the current version from source and runs
// the cross-platform build. A dirty tree fails with ErrDirtyTree before
// the version is read or the output directory is touched.
func (c *Coordinator) Build(ctx context.Context) (semver.Version, []Artifact, error) {
	if c.builder == nil {
		return semver.Version{}, nil, errors.New("no builder configured")
	}
	c.log.Debug().Str("op", "build").Msg("starting")

	if err := c.preflight(ctx); err != nil {
		return semver.Version{}, nil, err
	}
	version, err := c.source.Read()
	if err != nil {
		return semver.Version{}, nil, err
	}
	artifacts, err := c.builder.Run(ctx, version)
	if err != nil {
		return semver.Version{}, nil, err
	}
	return version, artifacts, nil
}

// Bump advances the version token: the choose callback picks the bump
// kind, the confirm callback accepts or declines it, and on acceptance the
// source file is rewritten, staged, attested and committed. A decline
// fails with ErrAborted before anything is modified. Any failure after
// the rewrite leaves the tree modified and uncommitted on purpose; the
// staged change is not unstaged when attestation fails.
func (c *Coordinator) Bump(ctx context.Context, choose ChooseFunc, confirm ConfirmFunc) (semver.Version, error) {
	if c.attestor == nil {
		return semver.Version{}, errors.New("no attestor configured")
	}
	if choose == nil || confirm == nil {
		return semver.Version{}, errors.New("choose and confirm callbacks are required")
	}
	c.log.Debug().Str("op", "bump").Msg("starting")

	if err := c.preflight(ctx); err != nil {
		return semver.Version{}, err
	}
	current, err := c.source.Read()
	if err != nil {
		return semver.Version{}, err
	}

	kind, err := choose(current)
	if err != nil {
		return semver.Version{}, err
	}
	next, err := current.Bump(kind)
	if err != nil {
		return semver.Version{}, err
	}

	ok, err := confirm(current, next)
	if err != nil {
		return semver.Version{}, err
	}
	if !ok {
		return semver.Version{}, ErrAborted
	}

	if err := c.source.Write(next); err != nil {
		return semver.Version{}, err
	}
	c.log.Info().Str("version", next.String()).Str("file", c.versionFile).Msg("rewrote version token")

	if err := c.repo.Stage(ctx, c.versionFile); err != nil {
		return semver.Version{}, err
	}
	if err := c.attestor.Attest(ctx); err != nil {
		return semver.Version{}, err
	}
	hash, err := c.repo.Commit(ctx, fmt.Sprintf("lrc: bump version %s → %s", current, next))
	if err != nil {
		return semver.Version{}, err
	}
	c.log.Info().Str("commit", hash).Msg("committed version bump")

	fmt.Fprintf(c.stdout, "\nVersion bumped to %s\n", next)
	fmt.Fprintln(c.stdout, "Run 'lrcship build' to build this version")
	return next, nil
}

// Release builds every target and publishes the artifacts.
func (c *Coordinator) Release(ctx context.Context) error {
	if c.uploader == nil {
		return errors.New("no uploader configured")
	}
	version, artifacts, err := c.Build(ctx)
	if err != nil {
		return err
	}
	if err := c.uploader.Publish(ctx, version, artifacts); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "\nRelease %s complete\n", version)
	return nil
}

func (c *Coordinator) preflight(ctx context.Context) error {
	clean, err := c.repo.IsClean(ctx)
	if err != nil {
		return fmt.Errorf("preflight: %w", err)
	}
	if !clean {
		return ErrDirtyTree
	}
	return nil
}
