// Package checksum computes the content digests attached to release
// artifacts: SHA-256 for the published checksum manifests and SHA-1 as
// demanded by the storage backend's upload protocol.
package checksum

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Record pairs a hex digest with the file name it covers.
type Record struct {
	Digest   string
	FileName string
}

// Line renders the record in the conventional two-space manifest form,
// newline terminated, as consumed by sha256sum -c.
func (r Record) Line() string {
	return fmt.Sprintf("%s  %s\n", r.Digest, r.FileName)
}

// SHA256File streams the file at path through SHA-256 and returns the
// lowercase hex digest.
func SHA256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %q: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FileRecord computes the SHA-256 record for the file at path, named by
// its base name.
func FileRecord(path string) (Record, error) {
	digest, err := SHA256File(path)
	if err != nil {
		return Record{}, err
	}
	return Record{Digest: digest, FileName: filepath.Base(path)}, nil
}

// SHA1Bytes returns the lowercase hex SHA-1 of data. The upload protocol
// requires this digest in a header on every stored file.
func SHA1Bytes(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}
