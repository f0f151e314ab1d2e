// Package semver implements the strict version scheme lrc releases use:
// a lowercase v prefix followed by exactly three dot-separated integers,
// with no pre-release or build suffix.
package semver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrFormat reports a version literal or bump kind outside the release scheme.
var ErrFormat = errors.New("invalid version format")

// BumpKind selects which component of a version to increment.
type BumpKind string

const (
	BumpPatch BumpKind = "patch"
	BumpMinor BumpKind = "minor"
	BumpMajor BumpKind = "major"
)

// ParseBumpKind validates a bump kind name.
func ParseBumpKind(name string) (BumpKind, error) {
	switch BumpKind(name) {
	case BumpPatch, BumpMinor, BumpMajor:
		return BumpKind(name), nil
	}
	return "", fmt.Errorf("%w: unknown bump kind %q", ErrFormat, name)
}

// Version is a release version in the canonical v<major>.<minor>.<patch>
// form. Versions are immutable; Bump returns a new value. The zero value
// renders as v0.0.0.
type Version struct {
	sem semver.Version
}

// Parse reads a canonical version literal. Anything else, including a
// missing v prefix, a missing component or a pre-release suffix, fails
// with ErrFormat.
func Parse(text string) (Version, error) {
	raw, ok := strings.CutPrefix(text, "v")
	if !ok {
		return Version{}, fmt.Errorf("%w: %q does not start with 'v'", ErrFormat, text)
	}
	parsed, err := semver.StrictNewVersion(raw)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q is not vMAJOR.MINOR.PATCH", ErrFormat, text)
	}
	if parsed.Prerelease() != "" || parsed.Metadata() != "" {
		return Version{}, fmt.Errorf("%w: %q carries a pre-release or build suffix", ErrFormat, text)
	}
	return Version{sem: *parsed}, nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the canonical v-prefixed form.
func (v Version) String() string {
	return fmt.Sprintf("v%d.%d.%d", v.sem.Major(), v.sem.Minor(), v.sem.Patch())
}

// Major returns the major component.
func (v Version) Major() uint64 { return v.sem.Major() }

// Minor returns the minor component.
func (v Version) Minor() uint64 { return v.sem.Minor() }

// Patch returns the patch component.
func (v Version) Patch() uint64 { return v.sem.Patch() }

// Bump returns the next version for kind. A minor bump resets patch to
// zero and a major bump resets both minor and patch. Unknown kinds fail
// with ErrFormat.
func (v Version) Bump(kind BumpKind) (Version, error) {
	switch kind {
	case BumpPatch:
		return Version{sem: v.sem.IncPatch()}, nil
	case BumpMinor:
		return Version{sem: v.sem.IncMinor()}, nil
	case BumpMajor:
		return Version{sem: v.sem.IncMajor()}, nil
	}
	return Version{}, fmt.Errorf("%w: unknown bump kind %q", ErrFormat, string(kind))
}

// Compare orders two versions: -1 if v is older than o, 0 if equal,
// 1 if newer.
func (v Version) Compare(o Version) int {
	return v.sem.Compare(&o.sem)
}
