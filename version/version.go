package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// You can set the version at build time using something like:
// go build -ldflags "-X github.com/stoneface86/trackerboy-sub003/version.Version=$(git describe --dirty)"

var Version string

var Hash = func() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		modified := false
		for _, setting := range info.Settings {
			if setting.Key == "vcs.modified" && setting.Value == "true" {
				modified = true
				break
			}
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
				shortHash := setting.Value[:7]
				if modified {
					return shortHash + "-dirty"
				}
				return shortHash
			}
		}
	}
	return ""
}()

var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	return Hash
}()

// Numbers parses Version, e.g. "v0.6.1-3-gabcdef", into the numbers written
// to module file headers. An unset or unparsable version is 0.0.0.
func Numbers() (major, minor, patch uint32) {
	v := strings.TrimPrefix(Version, "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	if _, err := fmt.Sscanf(v, "%d.%d.%d", &major, &minor, &patch); err != nil {
		return 0, 0, 0
	}
	return major, minor, patch
}
