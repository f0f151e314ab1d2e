package release

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// CompileJob describes one binary for the Compiler to produce: where to
// put it, which platform to target, and the metadata strings linked into
// the build.
type CompileJob struct {
	Target Target

	// Output is the absolute path the binary must be written to.
	Output string

	// Version, BuildTime and Commit are embedded in the binary through
	// the toolchain's link stage.
	Version   string
	BuildTime string
	Commit    string
}

// Compiler is the toolchain boundary. One invocation produces one binary.
type Compiler interface {
	// Compile builds job and returns the toolchain's combined output for
	// diagnostics. A non-nil error means no usable binary was produced.
	Compile(ctx context.Context, job CompileJob) ([]byte, error)
}

// GoCompiler cross-compiles the project at Dir with the go toolchain.
// Builds run with CGO disabled so every target links statically.
type GoCompiler struct {
	// Dir is the module root of the project being released.
	Dir string
}

// Compile runs go build for job's target with the release metadata
// injected via -ldflags -X.
func (g *GoCompiler) Compile(ctx context.Context, job CompileJob) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "go", "build", "-ldflags", ldflags(job), "-o", job.Output, ".")
	cmd.Dir = g.Dir
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=0",
		"GOOS="+job.Target.OS,
		"GOARCH="+job.Target.Arch,
	)
	return cmd.CombinedOutput()
}

func ldflags(job CompileJob) string {
	return fmt.Sprintf("-X main.version=%s -X main.buildTime=%s -X main.gitCommit=%s",
		job.Version, job.BuildTime, job.Commit)
}
