package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"lrcship/internal/config"
	"lrcship/pkg/b2"
	"lrcship/pkg/vcs"
	"lrcship/release"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "lrcship",
		Short:         "Build and release the lrc CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newBuildCommand(&verbose))
	cmd.AddCommand(newBumpCommand(&verbose))
	cmd.AddCommand(newReleaseCommand(&verbose))
	return cmd
}

func newBuildCommand(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Cross-compile lrc for every release platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			coordinator, err := newCoordinator(cmd.Context(), *verbose, false)
			if err != nil {
				return err
			}
			_, _, err = coordinator.Build(cmd.Context())
			return err
		},
	}
}

func newBumpCommand(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "bump",
		Short: "Bump the version constant and commit it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			coordinator, err := newCoordinator(cmd.Context(), *verbose, false)
			if err != nil {
				return err
			}
			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			_, err = coordinator.Bump(cmd.Context(), p.ChooseBumpKind, p.ConfirmBump)
			if errors.Is(err, release.ErrAborted) {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
				return nil
			}
			return err
		},
	}
}

func newReleaseCommand(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "release",
		Short: "Build every platform and upload the artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			coordinator, err := newCoordinator(cmd.Context(), *verbose, true)
			if err != nil {
				return err
			}
			return coordinator.Release(cmd.Context())
		},
	}
}

// newCoordinator wires the release pipeline from the environment. The
// storage client is only constructed, and its credentials only required,
// when the command publishes.
func newCoordinator(ctx context.Context, verbose, withUploader bool) (*release.Coordinator, error) {
	_ = godotenv.Load()

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	repo, err := vcs.Open(cfg.ProjectRoot)
	if err != nil {
		return nil, err
	}

	builder, err := release.NewBuilder(release.BuilderConfig{
		Repo:       repo,
		Compiler:   &release.GoCompiler{Dir: cfg.ProjectRoot},
		OutDir:     cfg.OutDir,
		BinaryName: cfg.BinaryName,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	var uploader *release.Uploader
	if withUploader {
		if err := cfg.ValidateStorage(); err != nil {
			return nil, err
		}
		client, err := b2.New(b2.Config{
			APIBase:       cfg.B2APIBase,
			KeyID:         cfg.B2KeyID,
			AppKey:        cfg.B2AppKey,
			MetaTimeout:   cfg.B2MetaTimeout,
			UploadTimeout: cfg.B2UploadTimeout,
			Logger:        logger,
		})
		if err != nil {
			return nil, err
		}
		uploader, err = release.NewUploader(release.UploaderConfig{
			Client:       client,
			BucketID:     cfg.B2BucketID,
			BucketName:   cfg.B2BucketName,
			PathPrefix:   cfg.B2PathPrefix,
			DownloadHost: cfg.B2DownloadHost,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}
	}

	return release.NewCoordinator(release.CoordinatorConfig{
		Repo:        repo,
		Source:      &release.VersionSource{Path: filepath.Join(cfg.ProjectRoot, cfg.VersionFile)},
		Builder:     builder,
		Uploader:    uploader,
		Attestor:    release.GitReviewAttestor{Dir: cfg.ProjectRoot},
		VersionFile: cfg.VersionFile,
		Logger:      logger,
	})
}
