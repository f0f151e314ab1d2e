package release

import "time"

// Artifact is one built binary together with its release coordinates. The
// builder owns the artifact files until they are handed to an uploader; a
// later build run replaces them wholesale.
type Artifact struct {
	// BinaryPath is the absolute path of the compiled binary.
	BinaryPath string

	// PlatformDir is the platform directory name, Target.Dir().
	PlatformDir string

	Target  Target
	Version string

	// BuiltAt is the build timestamp shared by every artifact of one run,
	// UTC at second precision.
	BuiltAt time.Time

	// Commit is the abbreviated source revision the binary was built from.
	Commit string
}
