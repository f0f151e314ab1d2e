// Package b2 implements the subset of the Backblaze B2 native REST protocol
// the release pipeline publishes through: account authorization, per-file
// upload grants and content upload. Calls are made once and never retried;
// a timeout or non-success status is surfaced to the caller as fatal.
package b2

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"lrcship/pkg/checksum"
)

const (
	// DefaultAPIBase is the public authorization endpoint.
	DefaultAPIBase = "https://api.backblazeb2.com"

	// DefaultMetaTimeout bounds the small JSON calls (authorize, grant).
	DefaultMetaTimeout = 30 * time.Second

	// DefaultUploadTimeout bounds a single content upload.
	DefaultUploadTimeout = 5 * time.Minute
)

// Session is an authorized connection to the storage backend, obtained once
// per release run. APIURL is the per-account host all follow-up calls go to.
type Session struct {
	AccountID string `json:"accountId"`
	APIURL    string `json:"apiUrl"`
	Token     string `json:"authorizationToken"`
}

// UploadGrant is a single-use upload endpoint with its own authorization
// token. A fresh grant must be requested for every file.
type UploadGrant struct {
	URL   string `json:"uploadUrl"`
	Token string `json:"authorizationToken"`
}

// UploadResult echoes the backend's record of a stored file.
type UploadResult struct {
	FileID      string `json:"fileId"`
	FileName    string `json:"fileName"`
	ContentSha1 string `json:"contentSha1"`
	Size        int64  `json:"contentLength"`
}

// Config carries the connection settings for a Client.
type Config struct {
	// APIBase is the authorization endpoint. Defaults to DefaultAPIBase.
	APIBase string

	// KeyID and AppKey are the credential pair sent as basic auth.
	KeyID  string
	AppKey string

	// MetaTimeout and UploadTimeout override the call deadlines when set.
	MetaTimeout   time.Duration
	UploadTimeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client

	Logger zerolog.Logger
}

// Client talks to a B2-compatible storage backend. Construct with New; the
// zero value is not usable.
type Client struct {
	apiBase       string
	keyID         string
	appKey        string
	httpClient    *http.Client
	metaTimeout   time.Duration
	uploadTimeout time.Duration
	log           zerolog.Logger
}

// New validates cfg, applies defaults and returns a ready Client.
func New(cfg Config) (*Client, error) {
	if cfg.KeyID == "" || cfg.AppKey == "" {
		return nil, errors.New("key id and app key are required")
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.MetaTimeout <= 0 {
		cfg.MetaTimeout = DefaultMetaTimeout
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultUploadTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &Client{
		apiBase:       strings.TrimRight(cfg.APIBase, "/"),
		keyID:         cfg.KeyID,
		appKey:        cfg.AppKey,
		httpClient:    cfg.HTTPClient,
		metaTimeout:   cfg.MetaTimeout,
		uploadTimeout: cfg.UploadTimeout,
		log:           cfg.Logger,
	}, nil
}

// Authorize exchanges the credential pair for a Session.
func (c *Client) Authorize(ctx context.Context) (Session, error) {
	ctx, cancel := context.WithTimeout(ctx, c.metaTimeout)
	defer cancel()

	url := c.apiBase + "/b2api/v2/b2_authorize_account"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Session{}, fmt.Errorf("create authorize request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.appKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Session{}, &AuthError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Session{}, &AuthError{Status: resp.StatusCode, Body: readBody(resp.Body)}
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return Session{}, fmt.Errorf("decode authorize response: %w", err)
	}
	c.log.Debug().Str("account", session.AccountID).Msg("authorized with storage backend")
	return session, nil
}

// NewUploadGrant requests a fresh single-use upload endpoint for bucketID.
func (c *Client) NewUploadGrant(ctx context.Context, session Session, bucketID string) (UploadGrant, error) {
	ctx, cancel := context.WithTimeout(ctx, c.metaTimeout)
	defer cancel()

	payload, err := json.Marshal(map[string]string{"bucketId": bucketID})
	if err != nil {
		return UploadGrant{}, fmt.Errorf("marshal grant request: %w", err)
	}
	url := session.APIURL + "/b2api/v2/b2_get_upload_url"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return UploadGrant{}, fmt.Errorf("create grant request: %w", err)
	}
	req.Header.Set("Authorization", session.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UploadGrant{}, &GrantError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UploadGrant{}, &GrantError{Status: resp.StatusCode, Body: readBody(resp.Body)}
	}

	var grant UploadGrant
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return UploadGrant{}, fmt.Errorf("decode grant response: %w", err)
	}
	return grant, nil
}

// BucketID resolves a bucket name to its id through the backend's bucket
// listing. Application keys scoped to a single bucket usually lack the
// listBuckets capability; deployments with such keys configure the bucket
// id directly instead.
func (c *Client) BucketID(ctx context.Context, session Session, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.metaTimeout)
	defer cancel()

	payload, err := json.Marshal(map[string]string{"accountId": session.AccountID})
	if err != nil {
		return "", fmt.Errorf("marshal bucket list request: %w", err)
	}
	url := session.APIURL + "/b2api/v2/b2_list_buckets"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create bucket list request: %w", err)
	}
	req.Header.Set("Authorization", session.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("list buckets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("list buckets: backend returned %d: %s", resp.StatusCode, readBody(resp.Body))
	}

	var listing struct {
		Buckets []struct {
			BucketID   string `json:"bucketId"`
			BucketName string `json:"bucketName"`
		} `json:"buckets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return "", fmt.Errorf("decode bucket list response: %w", err)
	}
	for _, bucket := range listing.Buckets {
		if bucket.BucketName == name {
			c.log.Debug().Str("bucket", name).Str("id", bucket.BucketID).Msg("resolved bucket")
			return bucket.BucketID, nil
		}
	}
	return "", fmt.Errorf("bucket %q not found in account %s", name, session.AccountID)
}

// Upload transfers data to the granted endpoint under key. The backend
// verifies the SHA-1 header against the body, so a corrupted transfer fails
// rather than storing bad bytes. The grant must not be reused afterwards.
func (c *Client) Upload(ctx context.Context, grant UploadGrant, key string, data []byte, modTime time.Time) (UploadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, grant.URL, bytes.NewReader(data))
	if err != nil {
		return UploadResult{}, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Authorization", grant.Token)
	req.Header.Set("X-Bz-File-Name", key)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Bz-Content-Sha1", checksum.SHA1Bytes(data))
	req.Header.Set("X-Bz-Info-src_last_modified_millis", strconv.FormatInt(modTime.UnixMilli(), 10))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UploadResult{}, &UploadError{Key: key, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UploadResult{}, &UploadError{Key: key, Status: resp.StatusCode, Body: readBody(resp.Body)}
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return UploadResult{}, fmt.Errorf("decode upload response: %w", err)
	}
	c.log.Debug().Str("key", result.FileName).Str("sha1", result.ContentSha1).Msg("stored file")
	return result, nil
}

// PublicFileURL derives the backend's public download URL from the file
// coordinates. Segments after the first empty one are dropped and the URL
// ends with a slash, so directory listings for a version or platform are
// derived the same way as file URLs.
func PublicFileURL(host, bucket, prefix, version, platformDir, fileName string) string {
	url := "https://" + host + "/file/" + bucket
	for _, seg := range []string{prefix, version, platformDir, fileName} {
		if seg == "" {
			return url + "/"
		}
		url += "/" + seg
	}
	return url
}

func readBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4<<10))
	return strings.TrimSpace(string(data))
}
