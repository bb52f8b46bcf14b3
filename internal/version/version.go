// Package version provides build information for the famicore emulator.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Set at build time via -ldflags.
	Version   = "dev"
	GitCommit = "unknown"
)

// GetVersion returns a short version string, preferring VCS metadata for
// dev builds.
func GetVersion() string {
	if Version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
					return fmt.Sprintf("dev-%s", setting.Value[:7])
				}
			}
		}
	}
	return Version
}

// GetDetailedVersion returns the version with toolchain and platform.
func GetDetailedVersion() string {
	return fmt.Sprintf("famicore version %s with %s for %s/%s",
		GetVersion(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
