package release

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"lrcship/pkg/checksum"
	"lrcship/pkg/semver"
)

const (
	// buildTimeLayout renders the build timestamp linked into binaries.
	buildTimeLayout = "2006-01-02T15:04:05Z"

	// checksumFileName is the per-platform manifest written next to each
	// binary, one line per file in sha256sum format.
	checksumFileName = "SHA256SUMS"
)

// Phase names the builder's position within a run. Failed is terminal and
// reachable from any step.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhasePreflight    Phase = "preflight"
	PhaseCleaning     Phase = "cleaning"
	PhaseBuilding     Phase = "building"
	PhaseChecksumming Phase = "checksumming"
	PhaseDone         Phase = "done"
	PhaseFailed       Phase = "failed"
)

// BuilderConfig wires a Builder.
type BuilderConfig struct {
	Repo     Repository
	Compiler Compiler

	// OutDir is recreated empty at the start of every run; artifacts from
	// a previous run never survive into the next.
	OutDir string

	// BinaryName is the bare binary name. Windows targets get the
	// executable suffix appended.
	BinaryName string

	// Targets defaults to DefaultTargets.
	Targets []Target

	// Now supplies the run's single build timestamp. Defaults to time.Now.
	Now func() time.Time

	// Each drives the per-target loop. Defaults to FailFast.
	Each EachFunc

	Logger zerolog.Logger
}

// Builder cross-compiles the project once per target, in declaration
// order, and writes one SHA256SUMS manifest per platform directory so
// each platform's download verifies independently. A Builder owns its
// output directory for the duration of a run; concurrent runs must not
// share one.
type Builder struct {
	repo     Repository
	compiler Compiler
	outDir   string
	binary   string
	targets  []Target
	now      func() time.Time
	each     EachFunc
	log      zerolog.Logger

	phase Phase
}

// NewBuilder validates cfg, applies defaults and returns an idle Builder.
func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if cfg.Repo == nil {
		return nil, errors.New("repository is required")
	}
	if cfg.Compiler == nil {
		return nil, errors.New("compiler is required")
	}
	if cfg.OutDir == "" {
		return nil, errors.New("output directory is required")
	}
	if cfg.BinaryName == "" {
		return nil, errors.New("binary name is required")
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = DefaultTargets
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Each == nil {
		cfg.Each = FailFast
	}
	return &Builder{
		repo:     cfg.Repo,
		compiler: cfg.Compiler,
		outDir:   cfg.OutDir,
		binary:   cfg.BinaryName,
		targets:  cfg.Targets,
		now:      cfg.Now,
		each:     cfg.Each,
		log:      cfg.Logger,
		phase:    PhaseIdle,
	}, nil
}

// Phase reports where the last run stopped, or PhaseIdle before the first.
func (b *Builder) Phase() Phase { return b.phase }

// Run builds version for every target. It aborts on the first failure:
// a dirty tree fails with ErrDirtyTree before the output directory is
// touched, and a compile failure fails with *BuildError before any later
// target is attempted. On success the returned artifacts follow target
// declaration order.
func (b *Builder) Run(ctx context.Context, version semver.Version) ([]Artifact, error) {
	b.setPhase(PhasePreflight)
	clean, err := b.repo.IsClean(ctx)
	if err != nil {
		return nil, b.fail(fmt.Errorf("preflight: %w", err))
	}
	if !clean {
		return nil, b.fail(ErrDirtyTree)
	}
	commit, err := b.repo.ShortCommit(ctx)
	if err != nil {
		return nil, b.fail(fmt.Errorf("resolve commit: %w", err))
	}
	builtAt := b.now().UTC().Truncate(time.Second)
	b.log.Info().Str("version", version.String()).Str("commit", commit).Msg("starting cross-platform build")

	b.setPhase(PhaseCleaning)
	if err := os.RemoveAll(b.outDir); err != nil {
		return nil, b.fail(fmt.Errorf("clean output dir: %w", err))
	}
	if err := os.MkdirAll(b.outDir, 0o755); err != nil {
		return nil, b.fail(fmt.Errorf("create output dir: %w", err))
	}

	b.setPhase(PhaseBuilding)
	artifacts := make([]Artifact, len(b.targets))
	err = b.each(len(b.targets), func(i int) error {
		target := b.targets[i]
		platformPath := filepath.Join(b.outDir, target.Dir())
		if err := os.MkdirAll(platformPath, 0o755); err != nil {
			return fmt.Errorf("create platform dir %s: %w", target.Dir(), err)
		}

		job := CompileJob{
			Target:    target,
			Output:    filepath.Join(platformPath, target.BinaryName(b.binary)),
			Version:   version.String(),
			BuildTime: builtAt.Format(buildTimeLayout),
			Commit:    commit,
		}
		b.log.Info().Str("target", target.String()).Msg("building")
		out, err := b.compiler.Compile(ctx, job)
		if err != nil {
			return &BuildError{Target: target, Output: strings.TrimSpace(string(out)), Err: err}
		}

		artifacts[i] = Artifact{
			BinaryPath:  job.Output,
			PlatformDir: target.Dir(),
			Target:      target,
			Version:     version.String(),
			BuiltAt:     builtAt,
			Commit:      commit,
		}
		return nil
	})
	if err != nil {
		return nil, b.fail(err)
	}

	b.setPhase(PhaseChecksumming)
	for _, art := range artifacts {
		record, err := checksum.FileRecord(art.BinaryPath)
		if err != nil {
			return nil, b.fail(err)
		}
		sumsPath := filepath.Join(filepath.Dir(art.BinaryPath), checksumFileName)
		if err := os.WriteFile(sumsPath, []byte(record.Line()), 0o644); err != nil {
			return nil, b.fail(fmt.Errorf("write %s for %s: %w", checksumFileName, art.PlatformDir, err))
		}
		b.log.Debug().Str("platform", art.PlatformDir).Str("sha256", record.Digest).Msg("wrote checksum manifest")
	}
	if err := writeBuildManifest(b.outDir, version.String(), commit, builtAt, artifacts); err != nil {
		return nil, b.fail(err)
	}

	b.setPhase(PhaseDone)
	b.log.Info().Int("artifacts", len(artifacts)).Str("dir", b.outDir).Msg("build complete")
	return artifacts, nil
}

func (b *Builder) setPhase(phase Phase) {
	b.phase = phase
	b.log.Debug().Str("phase", string(phase)).Msg("build phase")
}

func (b *Builder) fail(err error) error {
	b.phase = PhaseFailed
	return err
}
