// Package config holds the runtime configuration for the lrcship CLI.
package config

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is populated once at process start and passed explicitly to the
// components that need it. Defaults match the hexmos/lrc release setup;
// every knob can be overridden through the environment or a .env file.
//
// The storage credentials carry no defaults on purpose: B2_KEY_ID and
// B2_APP_KEY are account secrets and must come from the environment.
type Config struct {
	// Project layout.
	ProjectRoot string `env:"LRC_PROJECT_ROOT,default=."`
	VersionFile string `env:"LRC_VERSION_FILE,default=main.go"`
	BinaryName  string `env:"LRC_BINARY_NAME,default=lrc"`
	OutDir      string `env:"LRC_OUT_DIR,default=dist"`

	// Object storage.
	B2APIBase       string        `env:"B2_API_BASE,default=https://api.backblazeb2.com"`
	B2KeyID         string        `env:"B2_KEY_ID"`
	B2AppKey        string        `env:"B2_APP_KEY"`
	B2BucketID      string        `env:"B2_BUCKET_ID"`
	B2BucketName    string        `env:"B2_BUCKET_NAME,default=hexmos"`
	B2PathPrefix    string        `env:"B2_PATH_PREFIX,default=lrc"`
	B2DownloadHost  string        `env:"B2_DOWNLOAD_HOST,default=f005.backblazeb2.com"`
	B2MetaTimeout   time.Duration `env:"B2_META_TIMEOUT,default=30s"`
	B2UploadTimeout time.Duration `env:"B2_UPLOAD_TIMEOUT,default=5m"`
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidateStorage checks that the credentials the upload path needs are
// present. Build and bump never talk to storage, so only publishing
// commands call this.
func (c Config) ValidateStorage() error {
	if c.B2KeyID == "" {
		return errors.New("B2_KEY_ID is not set (application key id)")
	}
	if c.B2AppKey == "" {
		return errors.New("B2_APP_KEY is not set (application key secret)")
	}
	if c.B2BucketID == "" && c.B2BucketName == "" {
		return errors.New("neither B2_BUCKET_ID nor B2_BUCKET_NAME is set")
	}
	return nil
}
