// Package buildinfo exposes the version metadata stamped into the snipmark
// binary.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// BinaryVersion is overridden at release time via -ldflags. The "dev"
// default marks local builds.
var BinaryVersion = "dev"

// ModuleVersion reports the version the Go toolchain embedded for the main
// module. Local builds report "".
func ModuleVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return ""
	}
	return info.Main.Version
}

// GoVersion reports the toolchain the binary was built with.
func GoVersion() string {
	return runtime.Version()
}

// Platform reports the os/arch pair the binary targets.
func Platform() string {
	return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
}
