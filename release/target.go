package release

// Target is one OS/architecture pair the lrc binary is released for.
type Target struct {
	OS   string
	Arch string
}

// String renders the toolchain form, e.g. "linux/amd64".
func (t Target) String() string { return t.OS + "/" + t.Arch }

// Dir is the per-platform directory name under the output root, e.g.
// "linux-amd64". The same segment addresses the platform in storage keys
// and public download URLs.
func (t Target) Dir() string { return t.OS + "-" + t.Arch }

// BinaryName applies the platform executable suffix to name. Only the
// Windows family carries one.
func (t Target) BinaryName(name string) string {
	if t.OS == "windows" {
		return name + ".exe"
	}
	return name
}

// DefaultTargets is the fixed release matrix. Builds and uploads run in
// this declaration order.
var DefaultTargets = []Target{
	{OS: "linux", Arch: "amd64"},
	{OS: "linux", Arch: "arm64"},
	{OS: "darwin", Arch: "amd64"},
	{OS: "darwin", Arch: "arm64"},
	{OS: "windows", Arch: "amd64"},
}
