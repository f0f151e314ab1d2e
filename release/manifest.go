package release

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"lrcship/pkg/checksum"
)

// manifestFileName is the build manifest written at the output dir root.
// It is an operator-facing record of what a run produced and is never
// uploaded; the published file set stays binary plus SHA256SUMS.
const manifestFileName = "release.yaml"

// BuildManifest summarizes one build run.
type BuildManifest struct {
	Version   string          `yaml:"version"`
	Commit    string          `yaml:"commit"`
	BuiltAt   time.Time       `yaml:"built_at"`
	Artifacts []ManifestEntry `yaml:"artifacts"`
}

// ManifestEntry describes a single built binary.
type ManifestEntry struct {
	// Path is relative to the output dir, e.g. "linux-amd64/lrc".
	Path   string `yaml:"path"`
	Target string `yaml:"target"`
	Size   int64  `yaml:"size"`
	SHA256 string `yaml:"sha256"`
}

// writeBuildManifest renders the manifest for artifacts into outDir.
func writeBuildManifest(outDir, version, commit string, builtAt time.Time, artifacts []Artifact) error {
	manifest := BuildManifest{
		Version: version,
		Commit:  commit,
		BuiltAt: builtAt,
	}
	for _, art := range artifacts {
		rel, err := filepath.Rel(outDir, art.BinaryPath)
		if err != nil {
			return fmt.Errorf("relative path for %q: %w", art.BinaryPath, err)
		}
		info, err := os.Stat(art.BinaryPath)
		if err != nil {
			return fmt.Errorf("stat %q: %w", art.BinaryPath, err)
		}
		sha, err := checksum.SHA256File(art.BinaryPath)
		if err != nil {
			return err
		}
		manifest.Artifacts = append(manifest.Artifacts, ManifestEntry{
			Path:   filepath.ToSlash(rel),
			Target: art.Target.String(),
			Size:   info.Size(),
			SHA256: sha,
		})
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshal build manifest: %w", err)
	}
	path := filepath.Join(outDir, manifestFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write build manifest: %w", err)
	}
	return nil
}

// ReadBuildManifest loads the manifest a previous build left in outDir.
func ReadBuildManifest(outDir string) (BuildManifest, error) {
	data, err := os.ReadFile(filepath.Join(outDir, manifestFileName))
	if err != nil {
		return BuildManifest{}, fmt.Errorf("read build manifest: %w", err)
	}
	var manifest BuildManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return BuildManifest{}, fmt.Errorf("unmarshal build manifest: %w", err)
	}
	return manifest, nil
}
