package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"lrcship/pkg/b2"
	"lrcship/pkg/semver"
)

// DestinationKey joins the storage path for one released file. The
// <prefix>/<version>/<platformDir>/<fileName> layout is the addressing
// contract downstream installers resolve against; changing it breaks every
// published URL.
func DestinationKey(prefix, version, platformDir, fileName string) string {
	return prefix + "/" + version + "/" + platformDir + "/" + fileName
}

// UploaderConfig wires an Uploader.
type UploaderConfig struct {
	Client *b2.Client

	// BucketID addresses the bucket directly. When empty it is resolved
	// from BucketName through the backend's bucket listing, which needs an
	// application key with the listBuckets capability.
	BucketID   string
	BucketName string

	// PathPrefix roots every destination key.
	PathPrefix string

	// DownloadHost is the public download host the backend serves files
	// from, e.g. "f005.backblazeb2.com".
	DownloadHost string

	// Each drives the per-platform loop. Defaults to FailFast.
	Each EachFunc

	// Stdout receives the download URL listing once the queue drains.
	// Defaults to os.Stdout.
	Stdout io.Writer

	Logger zerolog.Logger
}

// Uploader publishes build artifacts platform by platform: for each, the
// binary first and its checksum manifest second, with a fresh upload grant
// before every file. A failed transfer aborts the remaining queue and is
// never retried; files already stored stay where they are, and re-running
// the release overwrites them key by key.
type Uploader struct {
	client     *b2.Client
	bucketID   string
	bucketName string
	prefix     string
	host       string
	each       EachFunc
	stdout     io.Writer
	log        zerolog.Logger
}

// NewUploader validates cfg, applies defaults and returns an Uploader.
func NewUploader(cfg UploaderConfig) (*Uploader, error) {
	if cfg.Client == nil {
		return nil, errors.New("storage client is required")
	}
	if cfg.BucketName == "" {
		return nil, errors.New("bucket name is required")
	}
	if cfg.PathPrefix == "" {
		return nil, errors.New("path prefix is required")
	}
	if cfg.DownloadHost == "" {
		return nil, errors.New("download host is required")
	}
	if cfg.Each == nil {
		cfg.Each = FailFast
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	return &Uploader{
		client:     cfg.Client,
		bucketID:   cfg.BucketID,
		bucketName: cfg.BucketName,
		prefix:     cfg.PathPrefix,
		host:       cfg.DownloadHost,
		each:       cfg.Each,
		stdout:     cfg.Stdout,
		log:        cfg.Logger,
	}, nil
}

// Publish authorizes once, then uploads every artifact pair in order and
// prints the canonical download URLs.
func (u *Uploader) Publish(ctx context.Context, version semver.Version, artifacts []Artifact) error {
	session, err := u.client.Authorize(ctx)
	if err != nil {
		return err
	}

	bucketID := u.bucketID
	if bucketID == "" {
		bucketID, err = u.client.BucketID(ctx, session, u.bucketName)
		if err != nil {
			return err
		}
	}
	u.log.Info().Str("bucket", bucketID).Int("platforms", len(artifacts)).Msg("starting upload")

	err = u.each(len(artifacts), func(i int) error {
		art := artifacts[i]
		binaryKey := DestinationKey(u.prefix, art.Version, art.PlatformDir, filepath.Base(art.BinaryPath))
		if err := u.uploadFile(ctx, session, bucketID, binaryKey, art.BinaryPath); err != nil {
			return err
		}

		sumsPath := filepath.Join(filepath.Dir(art.BinaryPath), checksumFileName)
		sumsKey := DestinationKey(u.prefix, art.Version, art.PlatformDir, checksumFileName)
		return u.uploadFile(ctx, session, bucketID, sumsKey, sumsPath)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(u.stdout, "\nUpload complete! Files available at:\n")
	fmt.Fprintf(u.stdout, "  %s\n", b2.PublicFileURL(u.host, u.bucketName, u.prefix, version.String(), "", ""))
	fmt.Fprintf(u.stdout, "\nPlatform directories:\n")
	for _, art := range artifacts {
		fmt.Fprintf(u.stdout, "  %s\n", b2.PublicFileURL(u.host, u.bucketName, u.prefix, version.String(), art.PlatformDir, ""))
	}
	return nil
}

// uploadFile requests a fresh grant and transfers one file. Grants are
// single-use, so there is exactly one per stored file.
func (u *Uploader) uploadFile(ctx context.Context, session b2.Session, bucketID, key, path string) error {
	grant, err := u.client.NewUploadGrant(ctx, session, bucketID)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %q: %w", path, err)
	}
	if _, err := u.client.Upload(ctx, grant, key, data, info.ModTime()); err != nil {
		return err
	}
	u.log.Info().Str("key", key).Int("bytes", len(data)).Msg("uploaded")
	return nil
}
