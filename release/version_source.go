package release

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"lrcship/pkg/semver"
)

// versionDeclPrefix opens the declaration line carrying the version token,
// `const appVersion = "vX.Y.Z"`, in the released project's entry file.
const versionDeclPrefix = "const appVersion"

// VersionSource reads and rewrites the version token embedded in the
// project source. Write replaces only the quoted literal; indentation and
// any trailing inline comment stay byte-identical. Every call re-scans the
// file, so a declaration that moved or disappeared since the last Read is
// noticed rather than clobbered.
type VersionSource struct {
	// Path is the source file holding the declaration.
	Path string
}

// Read extracts the current version from the declaration line. A missing
// line or a line without a quoted literal fails with ErrVersionToken; a
// literal outside the vX.Y.Z scheme fails with semver.ErrFormat.
func (s *VersionSource) Read() (semver.Version, error) {
	lines, _, err := s.load()
	if err != nil {
		return semver.Version{}, err
	}
	idx, start, end, ok := locateLiteral(lines)
	if !ok {
		return semver.Version{}, fmt.Errorf("%w in %s", ErrVersionToken, s.Path)
	}
	return semver.Parse(lines[idx][start:end])
}

// Write rewrites the declaration's quoted literal to v, leaving every
// other byte of the file untouched.
func (s *VersionSource) Write(v semver.Version) error {
	lines, mode, err := s.load()
	if err != nil {
		return err
	}
	idx, start, end, ok := locateLiteral(lines)
	if !ok {
		return fmt.Errorf("%w in %s", ErrVersionToken, s.Path)
	}
	line := lines[idx]
	lines[idx] = line[:start] + v.String() + line[end:]

	if err := os.WriteFile(s.Path, []byte(strings.Join(lines, "\n")), mode.Perm()); err != nil {
		return fmt.Errorf("write %s: %w", s.Path, err)
	}
	return nil
}

func (s *VersionSource) load() ([]string, fs.FileMode, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return nil, 0, fmt.Errorf("stat version source: %w", err)
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, 0, fmt.Errorf("read version source: %w", err)
	}
	return strings.Split(string(data), "\n"), info.Mode(), nil
}

// locateLiteral finds the declaration line and the bounds of its quoted
// literal. Declaration lines without a complete quoted literal are skipped,
// the same as no declaration at all.
func locateLiteral(lines []string) (idx, start, end int, ok bool) {
	for i, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), versionDeclPrefix) {
			continue
		}
		open := strings.Index(line, `"`)
		if open < 0 {
			continue
		}
		length := strings.Index(line[open+1:], `"`)
		if length < 0 {
			continue
		}
		return i, open + 1, open + 1 + length, true
	}
	return 0, 0, 0, false
}
