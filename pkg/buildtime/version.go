// Package buildtime tells how the binary has been built.
package buildtime

import (
	"runtime/debug"
	"sync"
)

// Version is set with -ldflags "-X github.com/opst/gemdclient/pkg/buildtime.Version=v1.2.3".
var Version = ""

var info = sync.OnceValues(func() (string, string) {
	version, revision := Version, "unknown"
	if bi, ok := debug.ReadBuildInfo(); ok {
		if version == "" {
			version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				revision = s.Value
			}
		}
	}
	if version == "" {
		version = "(devel)"
	}
	return version, revision
})

func VERSION() string {
	v, _ := info()
	return v
}

func GIT_REVISION() string {
	_, r := info()
	return r
}

func VersionString() string {
	v, r := info()
	return v + " (commit: " + r + ")"
}
