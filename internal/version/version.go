package version

import (
	"bytes"
	_ "embed"
	"runtime/debug"
)

//go:embed version.txt
var versionBytes []byte

// Version returns the version of this code. The embedded version.txt wins;
// otherwise the module version from the build info is used.
func Version() string {
	if v := bytes.TrimSpace(versionBytes); len(v) > 0 {
		return string(v)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}
