package release

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDirtyTree reports uncommitted changes in the working tree. Builds and
// bumps refuse to start from a tree that cannot be reproduced from a commit.
var ErrDirtyTree = errors.New("working tree has uncommitted changes")

// ErrVersionToken reports that the version declaration line is missing from
// the project source, or carries no quoted literal.
var ErrVersionToken = errors.New("version declaration not found")

// ErrAborted reports that the operator declined a confirmation. It maps to
// a zero exit status, not a failure.
var ErrAborted = errors.New("aborted by operator")

// BuildError reports a failed compile for one target. Output carries the
// toolchain's combined diagnostic output; no later target is attempted.
type BuildError struct {
	Target Target
	Output string
	Err    error
}

func (e *BuildError) Error() string {
	msg := fmt.Sprintf("build %s: %v", e.Target, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *BuildError) Unwrap() error { return e.Err }
